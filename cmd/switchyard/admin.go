package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/Strob0t/Switchyard/internal/adapter/postgres"
	"github.com/Strob0t/Switchyard/internal/config"
	"github.com/Strob0t/Switchyard/internal/service"
)

// runAdmin dispatches admin subcommands (list-pending, list-paused, resolve,
// migrate-status, migrate-down).
func runAdmin(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printAdminHelp()
		return nil
	}

	switch args[0] {
	case "list-pending":
		return runAdminListPending(args[1:])
	case "list-paused":
		return runAdminListPaused(args[1:])
	case "resolve":
		return runAdminResolve(args[1:])
	case "migrate-status":
		return runAdminMigrateStatus(args[1:])
	case "migrate-down":
		return runAdminMigrateDown(args[1:])
	default:
		printAdminHelp()
		return fmt.Errorf("unknown admin command: %s", args[0])
	}
}

func printAdminHelp() {
	fmt.Fprintf(os.Stderr, `Usage: switchyard admin <command> [options]

Commands:
  list-pending     List all open human consultations
  list-paused      List agents paused on an open consultation
  resolve          Resolve a consultation with guidance
  migrate-status   Print the current schema migration version
  migrate-down     Roll back the most recent schema migration
  help             Show this help message

Examples:
  switchyard admin list-pending
  switchyard admin resolve --id 6f1c... --guidance "approved, proceed"
  switchyard admin migrate-status
`)
}

func loadAdminDeps() (*postgres.Store, *config.Config, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	cleanup := func() { pool.Close() }
	return postgres.NewStore(pool), cfg, cleanup, nil
}

func runAdminListPending(args []string) error {
	fs := flag.NewFlagSet("list-pending", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, _, cleanup, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()
	list, err := store.ListOpenConsultations(ctx)
	if err != nil {
		return fmt.Errorf("list consultations: %w", err)
	}

	if len(list) == 0 {
		fmt.Println("No open consultations.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tAGENT\tTASK\tTYPE\tSTATUS\tCREATED\tTIMEOUT")
	for i := range list {
		c := &list[i]
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			c.ID, c.AgentID, c.TaskID, c.Type, c.Status,
			c.CreatedAt.Format(time.RFC3339), c.TimeoutAt.Format(time.RFC3339))
	}
	return w.Flush()
}

func runAdminListPaused(args []string) error {
	fs := flag.NewFlagSet("list-paused", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, _, cleanup, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer cleanup()

	// The in-memory registry lives in the server process; an agent is paused
	// exactly while it has an open consultation, so the store is the
	// cross-process source of truth.
	ctx := context.Background()
	list, err := store.ListOpenConsultations(ctx)
	if err != nil {
		return fmt.Errorf("list consultations: %w", err)
	}

	if len(list) == 0 {
		fmt.Println("No paused agents.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "AGENT\tTASK\tCONSULTATION\tPAUSED SINCE")
	for i := range list {
		c := &list[i]
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			c.AgentID, c.TaskID, c.ID, c.CreatedAt.Format(time.RFC3339))
	}
	return w.Flush()
}

func runAdminResolve(args []string) error {
	fs := flag.NewFlagSet("resolve", flag.ContinueOnError)
	id := fs.String("id", "", "consultation id (required)")
	guidance := fs.String("guidance", "", "guidance recorded in the resolution")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("--id is required")
	}

	store, cfg, cleanup, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer cleanup()

	// The tracker is process-local, so the resolved agent resumes in the
	// running server, not here. The store transition is what matters.
	tracker := service.NewAgentStateTracker(nil)
	forces := service.NewTaskForceService(store, nil, nil)
	consultSvc := service.NewConsultationService(store, nil, nil, tracker, forces,
		cfg.Consultation.DefaultTimeoutMinutes, cfg.Consultation.SweepInterval)

	var resolution map[string]any
	if *guidance != "" {
		resolution = map[string]any{"guidance": *guidance}
	}

	ctx := context.Background()
	c, err := consultSvc.Resolve(ctx, *id, resolution)
	if err != nil {
		return fmt.Errorf("resolve consultation: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Consultation %s resolved (agent=%s, task=%s)\n", c.ID, c.AgentID, c.TaskID)
	return nil
}

func runAdminMigrateStatus(args []string) error {
	fs := flag.NewFlagSet("migrate-status", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	version, err := postgres.MigrationVersion(context.Background(), cfg.Postgres.DSN)
	if err != nil {
		return fmt.Errorf("migration version: %w", err)
	}
	fmt.Printf("schema version: %d\n", version)
	return nil
}

func runAdminMigrateDown(args []string) error {
	fs := flag.NewFlagSet("migrate-down", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := postgres.RollbackMigrations(context.Background(), cfg.Postgres.DSN, 1); err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	fmt.Fprintln(os.Stderr, "Rolled back one migration.")
	return nil
}
