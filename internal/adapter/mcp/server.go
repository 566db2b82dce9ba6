// Package mcp exposes the routing core over the Model Context Protocol so
// agent frameworks can route tasks and work consultations as MCP tools.
package mcp

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/Switchyard/internal/domain/agentstate"
	"github.com/Strob0t/Switchyard/internal/domain/consultation"
	"github.com/Strob0t/Switchyard/internal/domain/decision"
	"github.com/Strob0t/Switchyard/internal/domain/taskforce"
)

// TaskRouter routes tasks through the decision engine.
type TaskRouter interface {
	Route(ctx context.Context, taskID, description string, taskCtx map[string]any) (*decision.OrchestrationDecision, error)
}

// ConsultationDesk reads and works open consultations.
type ConsultationDesk interface {
	Pending(ctx context.Context) ([]consultation.Request, error)
	SendMessage(ctx context.Context, consultationID string, sender consultation.SenderType, senderID, content string) (*consultation.Message, error)
	Resolve(ctx context.Context, id string, resolution map[string]any) (*consultation.Request, error)
}

// TaskForceLogReader reads the collaboration log of a task force.
type TaskForceLogReader interface {
	GetLog(ctx context.Context, taskForceID string) ([]taskforce.LogEntry, error)
}

// AgentStateReader reads live agent state.
type AgentStateReader interface {
	ListPaused() []agentstate.Info
}

// ServerConfig holds the MCP server settings.
type ServerConfig struct {
	Addr    string
	Name    string
	Version string
}

// ServerDeps holds the service dependencies the MCP tools call into.
// Nil fields disable the corresponding tools at call time.
type ServerDeps struct {
	Router        TaskRouter
	Consultations ConsultationDesk
	TaskForces    TaskForceLogReader
	Agents        AgentStateReader
}

// Server serves Switchyard tools and resources over streamable HTTP.
type Server struct {
	cfg       ServerConfig
	deps      ServerDeps
	mcpServer *mcpserver.MCPServer
	httpSrv   *http.Server
}

// NewServer creates an MCP server with all tools and resources registered.
func NewServer(cfg ServerConfig, deps ServerDeps) *Server {
	s := &Server{
		cfg:  cfg,
		deps: deps,
		mcpServer: mcpserver.NewMCPServer(cfg.Name, cfg.Version,
			mcpserver.WithToolCapabilities(false),
			mcpserver.WithResourceCapabilities(false, false),
		),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer exposes the underlying MCP server, mainly for tests.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

// Start begins listening on the configured address. It returns once the
// listener is bound; serving continues in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}

	s.httpSrv = &http.Server{
		Handler: mcpserver.NewStreamableHTTPServer(s.mcpServer),
	}
	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("mcp server", "error", err)
		}
	}()

	slog.Info("mcp server listening", "addr", ln.Addr().String())
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func toolResultJSON(data string) *mcplib.CallToolResult {
	return mcplib.NewToolResultText(data)
}
