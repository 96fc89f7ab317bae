package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"projectcamp/auth"
	"projectcamp/config"
	"projectcamp/handlers"
	"projectcamp/logging"
	"projectcamp/mailer"
	"projectcamp/services"
	"projectcamp/store"
	"projectcamp/utils"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type sessionStore interface {
	services.SessionStore
	Ping(ctx context.Context) error
}

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	logging.Init(cfg.Env)
	slog.Info("starting", "environment", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage
	var st store.Store
	if cfg.DatabaseURL != "" {
		dbPool, err := utils.OpenDB(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer dbPool.Close()

		pg := store.NewPostgres(dbPool)
		if err := pg.Migrate(ctx); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
		st = pg
	} else {
		slog.Warn("DATABASE_URL not set, using in-memory store")
		st = store.NewMemory()
	}

	var sessions sessionStore
	if cfg.RedisURL != "" {
		redisPool, err := utils.OpenRedisPool(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer redisPool.Close()
		sessions = utils.NewRedisSessionStore(redisPool)
	} else {
		slog.Warn("REDIS_URL not set, keeping sessions in memory")
		sessions = utils.NewMemorySessionStore()
	}

	tokens, err := auth.NewTokenIssuer(cfg.AccessTokenSecret, cfg.AccessTokenExpiry, cfg.RefreshTokenExpiry)
	if err != nil {
		log.Fatalf("Failed to create token issuer: %v", err)
	}

	var provider mailer.Mailer = mailer.Log{}
	if cfg.SendGridAPIKey != "" {
		provider = mailer.NewSendGrid(cfg.SendGridAPIKey, cfg.MailFrom, cfg.MailFromName)
	}
	mail := mailer.NewAsync(provider, 15*time.Second)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	router := handlers.NewRouter(handlers.Deps{
		Auth:          services.NewAuthService(st, sessions, tokens, mail, cfg.AppBaseURL),
		Projects:      services.NewProjectService(st),
		Tasks:         services.NewTaskService(st),
		Store:         st,
		Sessions:      sessions,
		Tokens:        tokens,
		Registry:      registry,
		CORSOrigins:   cfg.CORSOrigins,
		AuthRateLimit: cfg.AuthRateLimit,
		SecureCookies: cfg.IsProduction(),
		TrustProxy:    cfg.TrustProxy,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("Starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
	mail.Wait()
}
