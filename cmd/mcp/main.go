package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	mcpadapter "github.com/kirillkom/docscout/internal/adapters/mcp"
	"github.com/kirillkom/docscout/internal/bootstrap"
	"github.com/kirillkom/docscout/internal/config"
	"github.com/kirillkom/docscout/internal/observability/logging"
)

const serviceName = "docscout-mcp"

func main() {
	cfg := config.Load()
	// stdout carries the MCP protocol; logs go to stderr.
	slog.SetDefault(logging.NewJSONLoggerTo(os.Stderr, serviceName, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	server := mcpadapter.NewServer(cfg.MCPServerName, app.Questions)
	slog.Info("mcp server starting", "name", cfg.MCPServerName)
	if err := server.Serve(ctx); err != nil {
		slog.Error("mcp server failed", "error", err)
		os.Exit(1)
	}
}
