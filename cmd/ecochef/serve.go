package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"ecochef/internal/app"
	"ecochef/internal/auth"
	"ecochef/internal/httpapi"
	"ecochef/internal/telegram"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	sessionIdle   time.Duration
	sweepInterval time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: "serve starts the JSON API on PORT. When TELEGRAM_BOT_TOKEN is set the " +
		"Telegram webhook is mounted on /webhook of the same listener.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log = log.With(zap.String("component", "serve"))

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		rt, err := app.Wire(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer func() {
			if err := rt.Close(); err != nil {
				log.Warn("failed to release resources", zap.Error(err))
			}
		}()

		opts := httpapi.Options{
			App:            rt.App,
			Metrics:        rt.Metrics,
			Logger:         log,
			AllowedOrigins: cfg.AllowedOrigins,
			DataPath:       cfg.DataDir,
		}
		if cfg.AuthEnabled() {
			opts.Verifier = auth.NewVerifier(cfg.JWTSecret)
		} else {
			log.Warn("JWT_SECRET not set, every caller is a guest")
		}

		mux := http.NewServeMux()
		mux.Handle("/", httpapi.NewServer(opts))
		if cfg.TelegramBotToken != "" {
			bot, err := telegram.NewBot(cfg, rt.App, rt.Usage, log)
			if err != nil {
				return fmt.Errorf("failed to initialize Telegram bot: %w", err)
			}
			mux.Handle("/webhook", bot.Handler())
		}

		go rt.App.RunJanitor(ctx, sweepInterval, sessionIdle)

		srv := &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info("server listening", zap.String("port", cfg.Port))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("server failed: %w", err)
			}
			return nil
		case <-ctx.Done():
		}
		log.Info("shutting down server")

		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctxShutdown); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		log.Info("server exiting")
		return nil
	},
}

func init() {
	serveCmd.Flags().DurationVar(&sessionIdle, "session-idle", 24*time.Hour, "Drop in-memory sessions idle for longer than this")
	serveCmd.Flags().DurationVar(&sweepInterval, "sweep-interval", 10*time.Minute, "How often idle sessions are swept")
	rootCmd.AddCommand(serveCmd)
}
