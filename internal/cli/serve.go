package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/VitaminP8/postsync/internal/auth"
	"github.com/VitaminP8/postsync/internal/cache"
	"github.com/VitaminP8/postsync/internal/config"
	"github.com/VitaminP8/postsync/internal/gateway"
	"github.com/VitaminP8/postsync/internal/httpapi"
	"github.com/VitaminP8/postsync/internal/messaging"
	"github.com/VitaminP8/postsync/internal/mutation"
	"github.com/VitaminP8/postsync/internal/post"
	"github.com/VitaminP8/postsync/internal/storage"
	"github.com/VitaminP8/postsync/internal/storage/memory"
	"github.com/VitaminP8/postsync/internal/storage/postgres"
	"github.com/VitaminP8/postsync/internal/subscription"
	"github.com/VitaminP8/postsync/internal/user"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket server",
		Long: `Run the REST API and the real-time gateway.

Likes, comments and replies arrive over /ws and every resulting post view
is broadcast to connected clients. Send SIGINT or SIGTERM to stop; queued
mutations finish before the process exits.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (overrides HTTP_ADDR)")

	return cmd
}

func runServe(ctx context.Context, opts *ServeOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, logger, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	if opts.Addr != "" {
		cfg.HTTPAddr = opts.Addr
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	views, closeCache, err := openCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	observers := []gateway.Observer{cache.Observer{Cache: views}}
	if cfg.NATSURL != "" {
		nc, err := messaging.Connect(cfg.NATSURL, logger)
		if err != nil {
			return err
		}
		defer nc.Close()
		observers = append(observers, messaging.NewPublisher(nc, logger))
	}

	mode := subscription.ModeGlobal
	if cfg.FanoutMode == "subscribed" {
		mode = subscription.ModeSubscribed
	}
	subs := subscription.NewSubscriptionManager(mode, subscription.DefaultBuffer)

	engine := mutation.NewEngine(store, logger)
	gw := gateway.New(engine, subs,
		gateway.WithLogger(logger),
		gateway.WithObservers(observers...),
		gateway.WithAllowedOrigin(cfg.AllowedOrigin),
	)

	tokens := auth.NewManager(cfg.JWTSecret, cfg.JWTTTL)
	users := user.NewService(store, tokens)
	posts := post.NewService(store, gw, views, logger)

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return fmt.Errorf("failed to create upload dir: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	router := httpapi.NewRouter(httpapi.Deps{
		Users:     users,
		Posts:     posts,
		Tokens:    tokens,
		Gateway:   gw,
		UploadDir: cfg.UploadDir,
		Logger:    logger,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server started",
			"addr", cfg.HTTPAddr,
			"storage", cfg.Storage,
			"fanout", cfg.FanoutMode,
			"cache", cfg.Cache,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		logger.Info("shutting down", "signal", sig.String())
	case err, ok := <-errCh:
		if ok {
			gw.Close()
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down", "reason", ctx.Err())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Hijacked websocket connections are not tracked by Shutdown; the gateway
	// closes them after draining queued mutations.
	shutdownErr := server.Shutdown(shutdownCtx)
	gw.Close()
	if shutdownErr != nil {
		return fmt.Errorf("failed to shut down server: %w", shutdownErr)
	}

	logger.Info("server stopped")
	return nil
}

func openStore(cfg *config.Config) (storage.Store, func(), error) {
	if cfg.Storage == "memory" {
		slog.Info("using in-memory storage")
		return memory.NewStore(), func() {}, nil
	}

	settings, err := sqlSettings(cfg)
	if err != nil {
		return nil, nil, err
	}
	db, err := postgres.Open(settings)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if err := postgres.Close(db); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}
	return postgres.NewStore(db), closeDB, nil
}

func openCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) (cache.ViewCache, func(), error) {
	switch cfg.Cache {
	case "redis":
		rc, err := cache.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cache.DefaultTTL, logger)
		if err != nil {
			return nil, nil, err
		}
		return rc, func() { _ = rc.Close() }, nil
	case "local":
		lc, err := cache.NewLocal(cache.DefaultSize, cache.DefaultTTL)
		if err != nil {
			return nil, nil, err
		}
		return lc, func() {}, nil
	default:
		return cache.Noop{}, func() {}, nil
	}
}
