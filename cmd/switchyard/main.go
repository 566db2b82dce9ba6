package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	syhttp "github.com/Strob0t/Switchyard/internal/adapter/http"
	"github.com/Strob0t/Switchyard/internal/adapter/mcp"
	synats "github.com/Strob0t/Switchyard/internal/adapter/nats"
	"github.com/Strob0t/Switchyard/internal/adapter/natskv"
	otelx "github.com/Strob0t/Switchyard/internal/adapter/otel"
	"github.com/Strob0t/Switchyard/internal/adapter/postgres"
	"github.com/Strob0t/Switchyard/internal/adapter/ristretto"
	"github.com/Strob0t/Switchyard/internal/adapter/tiered"
	"github.com/Strob0t/Switchyard/internal/adapter/ws"
	"github.com/Strob0t/Switchyard/internal/config"
	"github.com/Strob0t/Switchyard/internal/logger"
	"github.com/Strob0t/Switchyard/internal/middleware"
	"github.com/Strob0t/Switchyard/internal/resilience"
	"github.com/Strob0t/Switchyard/internal/service"
)

const version = "0.1.0"

// cacheMaxBytes bounds the in-process decision cache.
const cacheMaxBytes = 64 << 20

func main() {
	if len(os.Args) > 1 && os.Args[1] == "admin" {
		if err := runAdmin(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, logCloser := logger.New(cfg.Logging)
	slog.SetDefault(log)
	defer logCloser.Close()

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"pg_max_conns", cfg.Postgres.MaxConns,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Telemetry ---
	if cfg.Telemetry.Enabled {
		shutdown, err := otelx.Init(ctx, cfg.Logging.Service, cfg.Telemetry.Endpoint)
		if err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(shutdownCtx)
		}()
	}

	// --- Infrastructure ---
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	queue, err := synats.Connect(ctx, cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	defer func() { _ = queue.Close() }()

	// Decision cache: in-process L1 backed by a shared NATS KV L2 so sibling
	// instances see each other's decisions.
	l1, err := ristretto.New(cacheMaxBytes)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer l1.Close()

	kv, err := queue.KeyValue(ctx, "SWITCHYARD_DECISIONS", time.Hour)
	if err != nil {
		return fmt.Errorf("cache bucket: %w", err)
	}
	decisionCache := tiered.New(l1, natskv.New(kv), 10*time.Minute)

	// --- Services ---
	hub := ws.NewHub()
	store := postgres.NewStore(pool)
	breaker := resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout)

	tracker := service.NewAgentStateTracker(hub)
	decisionSvc := service.NewDecisionService(store, queue, hub, decisionCache, breaker,
		cfg.Scoring.ComplexityConfig(), cfg.Scoring.EscalationThreshold)
	forceSvc := service.NewTaskForceService(store, queue, hub)
	consultSvc := service.NewConsultationService(store, queue, hub, tracker, forceSvc,
		cfg.Consultation.DefaultTimeoutMinutes, cfg.Consultation.SweepInterval)

	if cfg.Telemetry.Enabled {
		metrics, err := otelx.NewMetrics()
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		decisionSvc.SetMetrics(metrics)
		consultSvc.SetMetrics(metrics)
		forceSvc.SetMetrics(metrics)
	}

	// --- HTTP ---
	handlers := &syhttp.Handlers{
		Decisions:          decisionSvc,
		Consultations:      consultSvc,
		TaskForces:         forceSvc,
		Agents:             tracker,
		Hub:                hub,
		MaxRequestBodySize: cfg.Limits.MaxRequestBodySize,
	}

	limiter := middleware.NewRateLimiter(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst)
	stopCleanup := limiter.StartCleanup(cfg.Rate.CleanupInterval, cfg.Rate.MaxIdleTime)
	defer stopCleanup()

	r := chi.NewRouter()
	r.Use(syhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(syhttp.SecurityHeaders)
	r.Use(middleware.RequestID)
	r.Use(syhttp.Logger)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(limiter.Handler)
	if cfg.Telemetry.Enabled {
		r.Use(otelx.HTTPMiddleware(cfg.Logging.Service))
	}

	r.Get("/health", healthHandler(pool, queue))
	syhttp.MountRoutes(r, handlers)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// --- MCP ---
	var mcpSrv *mcp.Server
	if cfg.MCP.Enabled {
		mcpSrv = mcp.NewServer(
			mcp.ServerConfig{Addr: cfg.MCP.Addr, Name: cfg.Logging.Service, Version: version},
			mcp.ServerDeps{
				Router:        decisionSvc,
				Consultations: consultSvc,
				TaskForces:    forceSvc,
				Agents:        tracker,
			},
		)
		if err := mcpSrv.Start(); err != nil {
			return fmt.Errorf("mcp: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	// Timeout sweeper: closes expired consultations and fails their agents.
	g.Go(func() error {
		if err := consultSvc.Start(gctx); err != nil && err != context.Canceled {
			return fmt.Errorf("sweeper: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		slog.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if mcpSrv != nil {
			_ = mcpSrv.Stop(shutdownCtx)
		}
		if err := queue.Drain(); err != nil {
			slog.Error("drain nats", "error", err)
		}
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// healthHandler reports liveness of the store and the message queue.
func healthHandler(pool interface {
	Ping(ctx context.Context) error
}, queue interface {
	IsConnected() bool
},
) http.HandlerFunc {
	type healthStatus struct {
		Status   string `json:"status"`
		Postgres string `json:"postgres"`
		NATS     string `json:"nats"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		status := healthStatus{Status: "ok", Postgres: "ok", NATS: "ok"}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			status.Status = "degraded"
			status.Postgres = "unreachable"
		}
		if !queue.IsConnected() {
			status.Status = "degraded"
			status.NATS = "disconnected"
		}

		code := http.StatusOK
		if status.Status != "ok" {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(status)
	}
}
