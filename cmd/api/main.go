// Command api is the composition root: it populates the service registry,
// runs one resolution, and hands the resolved services to the HTTP listener.
// A failed resolution aborts startup; the process never runs with a
// partially composed service set.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"composekit/internal/config"
	"composekit/internal/di"
	"composekit/internal/interfaces/http/rest"
	"composekit/internal/interfaces/http/rest/handlers"
	"composekit/internal/library/clock"
	"composekit/internal/library/idgen"
	"composekit/internal/library/notifier"
	"composekit/internal/repository/memory"
	"composekit/internal/service/user"
	"composekit/pkg/observability"
)

const resolveTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := observability.NewLogger(cfg.Logging.Environment, cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer logger.Sync()

	metrics := observability.NewResolutionMetrics("composekit")
	resolver := di.New(
		di.WithLogger(logger),
		di.WithObserver(metrics),
	)

	registry, err := buildRegistry(logger)
	if err != nil {
		return fmt.Errorf("failed to populate registry: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	resolved, err := resolver.Resolve(ctx, registry, cfg.ResolverConfig())
	cancel()
	if err != nil {
		var cerr *di.CompositionError
		if errors.As(err, &cerr) {
			logger.Error("composition failed, aborting startup",
				zap.String("failed_service", cerr.Failed),
				zap.Strings("skipped", cerr.Skipped),
				zap.Error(cerr.Err),
			)
		}
		return err
	}

	if configPath != "" {
		watcher, err := config.NewWatcher(configPath, logger)
		if err != nil {
			return fmt.Errorf("failed to start config watcher: %w", err)
		}
		defer watcher.Stop()
		watcher.OnChange(func(next *config.Config) {
			// Resolved services keep the snapshot they were built with; a
			// reload takes effect on the next process start.
			logger.Info("config change detected, restart to apply service configuration")
		})
	}

	userService := di.MustAs[*user.Service](resolved, "userService")
	userHandler := handlers.NewUserHandler(userService, logger)
	router := rest.NewRouter(logger, metrics.Registry(), userHandler)

	return serve(cfg.Server, router.Setup(), logger)
}

// buildRegistry declares every service in the composition. Dependencies are
// explicit; the resolver decides ordering and concurrency.
func buildRegistry(logger *zap.Logger) (*di.Registry, error) {
	registry := di.NewRegistry()

	descriptors := []di.Descriptor{
		{
			Name: "logger",
			Factory: func(ctx context.Context, deps di.Dependencies, cfg any) (any, error) {
				return logger, nil
			},
		},
		{
			Name: "idgen",
			Factory: func(ctx context.Context, deps di.Dependencies, cfg any) (any, error) {
				return idgen.NewUUIDGenerator(), nil
			},
		},
		{
			Name: "clock",
			Factory: func(ctx context.Context, deps di.Dependencies, cfg any) (any, error) {
				return clock.NewSystemClock(), nil
			},
		},
		{
			Name: "notifier",
			Factory: func(ctx context.Context, deps di.Dependencies, cfg any) (any, error) {
				slice, _ := cfg.(map[string]any)
				url, _ := slice["webhook_url"].(string)
				if url == "" {
					return notifier.NopNotifier{}, nil
				}
				return notifier.NewWebhookNotifier(url, 5*time.Second), nil
			},
		},
		{
			Name: "userRepository",
			Factory: func(ctx context.Context, deps di.Dependencies, cfg any) (any, error) {
				return memory.NewUserStore(), nil
			},
		},
		{
			Name:         "userService",
			Dependencies: []string{"logger", "idgen", "clock", "notifier", "userRepository"},
			Factory: func(ctx context.Context, deps di.Dependencies, cfg any) (any, error) {
				return user.NewService(
					deps["userRepository"].(*memory.UserStore),
					deps["idgen"].(*idgen.UUIDGenerator),
					deps["clock"].(*clock.SystemClock),
					deps["notifier"].(notifier.Notifier),
					deps["logger"].(*zap.Logger),
				), nil
			},
		},
	}

	for _, d := range descriptors {
		if err := registry.Register(d); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// serve runs the HTTP server until SIGINT/SIGTERM, then drains connections.
func serve(cfg config.ServerConfig, handler http.Handler, logger *zap.Logger) error {
	server := &http.Server{
		Addr:              cfg.Address,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("address", cfg.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeout)*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
