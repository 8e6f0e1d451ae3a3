// Command graphmemd runs the remote knowledge-graph memory service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/graphmemd/internal/auth"
	"github.com/fyrsmithlabs/graphmemd/internal/config"
	"github.com/fyrsmithlabs/graphmemd/internal/graph"
	httpserver "github.com/fyrsmithlabs/graphmemd/internal/http"
	"github.com/fyrsmithlabs/graphmemd/internal/logging"
	mcpserver "github.com/fyrsmithlabs/graphmemd/internal/mcp"
	"github.com/fyrsmithlabs/graphmemd/internal/telemetry"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:          "graphmemd",
	Short:        "Knowledge-graph memory service speaking MCP over HTTP",
	Version:      version,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the graphmemd server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
		return run(ctx)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("graphmemd by Fyrsmith Labs\n")
		fmt.Printf("Version:    %s\n", version)
		fmt.Printf("Commit:     %s\n", gitCommit)
		fmt.Printf("Build Date: %s\n", buildDate)
	},
}

func main() {
	serveCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	rootCmd.AddCommand(serveCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// run starts the graphmemd server and blocks until the context is
// cancelled:
//  1. Loads and validates configuration
//  2. Initializes logger and telemetry
//  3. Connects to Neo4j and ensures the schema
//  4. Builds the credential validator
//  5. Wires the MCP server behind the HTTP transport
//  6. Performs graceful shutdown on context cancellation
func run(ctx context.Context) error {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() {
		_ = logging.Sync(logger)
	}()

	logger.Info("starting graphmemd",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.String("service", cfg.Observability.ServiceName))

	tel, err := telemetry.New(ctx, telemetry.Config{
		ServiceName: cfg.Observability.ServiceName,
		Enabled:     cfg.Observability.EnableTelemetry,
	})
	if err != nil {
		// Metrics are not worth refusing to start over.
		logger.Warn("telemetry setup failed, continuing without metrics", zap.Error(err))
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tel.Shutdown(shutdownCtx); err != nil {
				logger.Warn("telemetry shutdown failed", zap.Error(err))
			}
		}()
	}

	store, err := graph.NewStore(graph.Config{
		URI:      cfg.Neo4j.URI,
		Username: cfg.Neo4j.Username,
		Password: cfg.Neo4j.Password.Value(),
		Database: cfg.Neo4j.Database,
	}, logger.Named("graph"))
	if err != nil {
		return fmt.Errorf("connect graph store: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logger.Warn("graph store close failed", zap.Error(err))
		}
	}()

	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure graph schema: %w", err)
	}

	validator, stopAuth, err := buildValidator(cfg)
	if err != nil {
		return fmt.Errorf("build credential validator: %w", err)
	}
	defer stopAuth()

	mcpSrv, err := mcpserver.NewServer(&mcpserver.Config{
		Name:    "graphmemd",
		Version: version,
		Logger:  logger.Named("mcp"),
	}, store)
	if err != nil {
		return fmt.Errorf("create mcp server: %w", err)
	}

	httpSrv, err := httpserver.NewServer(&httpserver.Config{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
		RateLimit: httpserver.RateLimitConfig{
			Enabled: cfg.RateLimit.Enabled,
			RPS:     cfg.RateLimit.RPS,
			Burst:   cfg.RateLimit.Burst,
		},
	}, mcpSrv.HTTPHandler(), validator, logger.Named("http"))
	if err != nil {
		return fmt.Errorf("create http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// buildValidator assembles the credential chain from config: a delegated
// token verifier when an introspection endpoint is configured, plus the
// static key registry. The returned stop function halts the cache sweep
// goroutine; callers must invoke it on shutdown.
func buildValidator(cfg *config.Config) (auth.Validator, func(), error) {
	stop := func() {}

	var verifier auth.TokenVerifier
	if cfg.Auth.IntrospectionURL != "" {
		client, err := auth.NewIntrospectionClient(
			cfg.Auth.IntrospectionURL,
			cfg.Auth.IntrospectionTimeout.Duration(),
		)
		if err != nil {
			return nil, nil, err
		}
		// Cache successful introspections so token-per-request clients do
		// not turn every tool call into a provider round trip. The sweep
		// keeps one-shot tokens from accumulating between lookups.
		cache := auth.NewStateStore(cfg.Auth.StateTTL.Duration())
		cache.StartSweep(time.Minute)
		stop = cache.Close
		verifier = auth.NewCachingVerifier(client, cache)
	}

	entries := make([]auth.KeyEntry, 0, len(cfg.Auth.StaticKeys))
	for _, k := range cfg.Auth.StaticKeys {
		entries = append(entries, auth.KeyEntry{
			Key:     k.Key.Value(),
			Subject: k.Subject,
			Scopes:  k.Scopes,
		})
	}

	return auth.NewChainValidator(verifier, auth.NewKeyRegistry(entries)), stop, nil
}
