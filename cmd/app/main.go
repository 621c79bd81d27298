package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"roomchat/internal/auth"
	"roomchat/internal/chat"
	"roomchat/internal/config"
	"roomchat/internal/db"
	"roomchat/internal/server"
)

func main() {
	cfg := config.Load()
	logger := newLogger(cfg.Env)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var users auth.UserStore
	if cfg.DatabaseURL != "" {
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			fatal("database", err)
		}
		defer pool.Close()
		if err := db.RunMigrations(ctx, pool); err != nil {
			fatal("migrations failed", err)
		}
		users = auth.NewPGStore(pool)
	} else {
		logger.Warn("DATABASE_URL not set, users are kept in memory")
		users = auth.NewMemoryStore()
	}

	tokens, err := auth.NewTokenManager(cfg.JWTPrivatePEM, cfg.JWTPublicPEM, cfg.JWTTTL)
	if err != nil {
		fatal("jwt keys", err)
	}
	authSvc := auth.NewService(cfg, users, tokens, logger)

	if cfg.Env == "dev" && cfg.DemoSeed {
		if err := db.RunDevSeed(ctx, authSvc); err != nil {
			logger.Error("dev-seed", "err", err)
		}
	}

	engine := chat.NewEngine(logger)
	chatSvc := chat.NewService(engine, authSvc, chat.Options{
		CookieName:     cfg.CookieName,
		AllowedOrigins: cfg.AllowedOrigins,
		MaxFrameBytes:  cfg.MaxFrameBytes,
		SendBuffer:     cfg.SendBuffer,
		Logger:         logger,
	})

	handler := server.New(cfg, server.Deps{Auth: authSvc, Chat: chatSvc, Engine: engine})

	addr := ":" + strconv.Itoa(cfg.Port)
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr, "env", cfg.Env)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			fatal("server stopped", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "err", err)
	}
	engine.Shutdown()
}

func newLogger(env string) *slog.Logger {
	if env == "dev" {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	os.Exit(1)
}
