package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ecochef/internal/app"
	"ecochef/internal/config"
	"ecochef/internal/logger"
	"ecochef/internal/metrics"
	"ecochef/internal/telegram"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	envErr := godotenv.Load()

	// 1. Load Configuration
	cfg, err := config.NewFromEnv()
	if err != nil {
		zap.NewExample().Fatal("failed to load config", zap.Error(err))
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat).With(zap.String("component", "telegram-bot"))
	defer log.Sync() //nolint:errcheck
	if envErr != nil {
		log.Warn("no .env file found, using system env vars")
	}
	if cfg.TelegramBotToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN environment variable not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Wire storage, model client and session controller
	rt, err := app.Wire(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to wire application", zap.Error(err))
	}
	defer rt.Close()

	// 3. Initialize Telegram Bot
	bot, err := telegram.NewBot(cfg, rt.App, rt.Usage, log)
	if err != nil {
		log.Fatal("failed to initialize Telegram bot", zap.Error(err))
	}

	go rt.App.RunJanitor(ctx, 10*time.Minute, 24*time.Hour)

	started := time.Now()
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Handle("/webhook", bot.Handler())
	r.Handle("/metrics", rt.Metrics.Handler())
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		health := metrics.GetSysHealth(cfg.DataDir, started)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok " + health.Uptime + "\n"))
	})

	// 4. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("telegram bot server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
		os.Exit(1)
	}

	log.Info("server exiting")
}
