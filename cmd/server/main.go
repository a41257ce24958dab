package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/romanetflavia-png/Sales-Resolve1/internal/config"
	"github.com/romanetflavia-png/Sales-Resolve1/internal/handler"
	"github.com/romanetflavia-png/Sales-Resolve1/internal/logging"
	"github.com/romanetflavia-png/Sales-Resolve1/internal/ratelimit"
	"github.com/romanetflavia-png/Sales-Resolve1/internal/repository"
	"github.com/romanetflavia-png/Sales-Resolve1/internal/service"
	"github.com/romanetflavia-png/Sales-Resolve1/internal/storage"
	"github.com/romanetflavia-png/Sales-Resolve1/pkg/auth"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal(err, "server error")
	}
}

// run wires and serves the API until a signal arrives. Deferred cleanup
// always runs before main decides the exit status.
func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.Setup(logging.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Pretty,
		ServiceName: "contact-api",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dataDir, dataKey := filepath.Split(cfg.Store.DataFile)
	if dataDir == "" {
		dataDir = "."
	}
	messageRepo := repository.NewJSONMessageRepository(storage.NewLocalStorage(dataDir), dataKey)
	if err := messageRepo.Init(ctx); err != nil {
		return fmt.Errorf("initialize message store: %w", err)
	}
	messageService := service.NewMessageService(messageRepo)

	if !cfg.AdminConfigured() {
		logger.Warn().Msg("ADMIN_USER/ADMIN_PASS not set; GET /api/messages will reject every request")
	}

	limiter := ratelimit.NewFixedWindow(ratelimit.Config{
		Window: cfg.RateLimit.Window(),
		Max:    cfg.RateLimit.Max,
	})
	rlOpts := []handler.RateLimiterOption{
		handler.WithTrustedProxyCount(cfg.Server.TrustedProxyCount),
	}

	// Redis 設定（未設定の場合は統計記録を無効化）
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			DialTimeout:  500 * time.Millisecond,
			ReadTimeout:  200 * time.Millisecond,
			WriteTimeout: 200 * time.Millisecond,
			MaxRetries:   -1,
		})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(ctx, time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable; rate limit stats are best effort")
		}
		rlOpts = append(rlOpts, handler.WithStats(ratelimit.NewRedisStats(rdb)))
	}

	staticDir := cfg.Server.StaticDir
	if info, err := os.Stat(staticDir); err != nil || !info.IsDir() {
		logger.Info().Str("dir", staticDir).Msg("static directory not found; serving API only")
		staticDir = ""
	}

	router := handler.NewRouter(handler.RouterConfig{
		Handler:     handler.New(messageRepo, cfg.Server.FrontendURL),
		Messages:    handler.NewMessageHandler(messageService),
		RateLimiter: handler.NewRateLimiter(limiter, rlOpts...),
		Admin:       auth.Credentials{User: cfg.Admin.User, Pass: cfg.Admin.Pass},
		StaticDir:   staticDir,
		Logger:      logger,
	})

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", server.Addr).Str("data_file", cfg.Store.DataFile).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		limiter.RunJanitor(gctx, cfg.RateLimit.PruneInterval)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
