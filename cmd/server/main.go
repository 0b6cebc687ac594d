package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"workshopflow/internal/captcha"
	"workshopflow/internal/chat"
	"workshopflow/internal/config"
	"workshopflow/internal/db"
	"workshopflow/internal/kvstore"
	"workshopflow/internal/logger"
	"workshopflow/internal/membership"
	"workshopflow/internal/metrics"
	myMiddleware "workshopflow/internal/middleware"
	"workshopflow/internal/user"
)

func main() {
	// 1. Config & logging
	cfg := config.Load()
	appLog := logger.New(logger.Config{Level: cfg.LogLevel, JSON: cfg.LogFormat == "json", Output: os.Stdout})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Local Store (Platform Layer)
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("❌ Failed to open %s store: %v", cfg.StoreDriver, err)
	}
	defer closeStore()
	log.Printf("✅ Local Store ready (%s)", cfg.StoreDriver)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// 3. Captcha + Auth
	captchaRegistry := captcha.NewRegistry(cfg.CaptchaTTL, nil, appLog, m)
	go captchaRegistry.Run(ctx, time.Minute)

	userService := user.NewService(user.NewRepository(store), cfg.JWTSecret, cfg.TokenTTL, appLog, m)
	loginLimiter := myMiddleware.NewRateLimiter(cfg.LoginRateLimit, cfg.LoginRateBurst, time.Hour, appLog)
	go loginLimiter.Run(ctx)

	// 4. Chat: the thread is loaded once, when the widget backend mounts
	threadStore := chat.NewThreadStore(store, appLog, m)
	loaded := threadStore.Load(ctx)
	appLog.Info("support thread loaded", "messages", len(loaded))

	chatHandler := chat.NewHandler(threadStore)
	go chatHandler.Run(ctx, time.Minute, cfg.TokenTTL)

	// 5. Membership
	membershipService := membership.NewService(store, cfg.PaymentDelay, appLog, m)

	router := newRouter(routerDeps{
		cfg:          cfg,
		registry:     reg,
		captcha:      captcha.NewHandler(captchaRegistry),
		users:        user.NewHandler(userService, captchaRegistry),
		auth:         myMiddleware.NewAuthMiddleware(userService),
		loginLimiter: loginLimiter,
		chat:         chatHandler,
		membership:   membership.NewHandler(membershipService),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			appLog.LogError(err, "graceful shutdown failed")
		}
	}()

	log.Printf("🚀 WorkshopFlow backend starting on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
	log.Println("👋 Server stopped")
}

// openStore builds the configured Local Store backend and its cleanup func.
func openStore(ctx context.Context, cfg *config.Config) (kvstore.Store, func(), error) {
	switch cfg.StoreDriver {
	case "memory", "":
		return kvstore.NewMemory(), func() {}, nil

	case "pebble":
		p, err := kvstore.OpenPebble(cfg.PebblePath)
		if err != nil {
			return nil, nil, err
		}
		return p, func() { p.Close() }, nil

	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, err
		}
		return kvstore.NewRedis(client, "workshopflow:"), func() { client.Close() }, nil

	case "postgres":
		database, err := db.NewDatabase(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := database.AutoMigrate(ctx); err != nil {
			database.Close()
			return nil, nil, err
		}
		return kvstore.NewPostgres(database.Conn), func() { database.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
}
