package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/mfeldt/stencil/internal/api"
	"github.com/mfeldt/stencil/internal/catalog"
	"github.com/mfeldt/stencil/internal/config"
	"github.com/mfeldt/stencil/internal/domain/audit"
	"github.com/mfeldt/stencil/internal/domain/checklist"
	"github.com/mfeldt/stencil/internal/mcp"
	"github.com/mfeldt/stencil/internal/sqlite"
	"github.com/mfeldt/stencil/internal/transfer"
)

func main() {
	cmd := &cli.Command{
		Name:   "stencil",
		Usage:  "Checklist project tracker with versioned templates, served over MCP and REST",
		Action: run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Sources: cli.EnvVars("STENCIL_CONFIG_PATH"),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.LoadPath(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Use stderr for logs in stdio mode to keep stdout clean for JSON-RPC.
	logWriter := os.Stdout
	if cfg.Transport.Mode == "stdio" {
		logWriter = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		return fmt.Errorf("prepare database path: %w", err)
	}

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	store := sqlite.NewStore(db, logger)
	templates := catalog.NewCached(catalog.NewDir(cfg.Catalog.Dir, logger))

	recorder := audit.NewRecorder(store, logger)
	checklistSvc := checklist.NewService(store, recorder, logger)
	transferSvc := transfer.NewService(store, recorder, logger)

	mcpServer := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Checklist: checklistSvc,
			Audit:     recorder,
			Transfer:  transferSvc,
			Catalog:   templates,
		},
		Logger: logger,
	})

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)

	if cfg.Catalog.Watch {
		group.Go(func() error {
			if err := templates.Watch(ctx, cfg.Catalog.Dir, logger); err != nil {
				logger.Warn("catalog watch stopped", "error", err)
			}
			return nil
		})
	}

	if cfg.Transport.Mode == "stdio" {
		group.Go(func() error {
			logger.Info("starting stdio transport")
			return mcpServer.Run(ctx, &sdkmcp.StdioTransport{})
		})
	} else {
		group.Go(func() error {
			return runMCPHTTP(ctx, logger, mcpServer, cfg.Server.Host, cfg.Server.Port)
		})
	}

	if cfg.API.Enabled {
		group.Go(func() error {
			return runAPI(ctx, logger, api.Deps{
				Checklist: checklistSvc,
				Audit:     recorder,
				Transfer:  transferSvc,
				Catalog:   templates,
				Logger:    logger,
			}, cfg.Server.Host, cfg.API.Port)
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}

func runMCPHTTP(ctx context.Context, logger *slog.Logger, mcpServer *sdkmcp.Server, host string, port int) error {
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(r *http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{
			Stateless:      false,
			SessionTimeout: 30 * time.Minute,
		},
	)

	router := http.NewServeMux()
	router.Handle("/mcp", mcpHandler)
	router.Handle("/mcp/", mcpHandler)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	addr := fmt.Sprintf("%s:%d", host, port)
	logger.Info("mcp server listening", "addr", addr)
	return serve(ctx, &http.Server{Addr: addr, Handler: router})
}

func runAPI(ctx context.Context, logger *slog.Logger, deps api.Deps, host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	logger.Info("api server listening", "addr", addr)
	return serve(ctx, &http.Server{Addr: addr, Handler: api.NewRouter(deps)})
}

// serve runs an HTTP server until the context is canceled, then shuts
// it down with a grace period.
func serve(ctx context.Context, server *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
