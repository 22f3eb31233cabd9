package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/diewo77/go-orders/internal/db"
	"github.com/diewo77/go-orders/internal/logger"
	"github.com/diewo77/go-orders/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("port", "", "Override PORT")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	log := logger.WithComponent("server")
	if port, _ := cmd.Flags().GetString("port"); port != "" {
		cfg.Server.Port = port
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := openDB()
	if err != nil {
		return err
	}
	if cfg.App.Seed {
		if err := db.Seed(ctx, conn, cfg.Billing); err != nil {
			return err
		}
	}

	mail := newMailer()
	if mail == nil {
		log.Warn().Msg("SMTP_HOST not set, invoice mailing disabled")
	}

	srv := &http.Server{
		Addr: cfg.Server.Addr(),
		Handler: server.New(server.Options{
			DB:             conn,
			Mailer:         mail,
			Log:            logger.Get(),
			DefaultProfile: cfg.App.DefaultProfile,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("default_profile", cfg.App.DefaultProfile).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if sqlDB, err := conn.DB(); err == nil {
		_ = sqlDB.Close()
	}
	return nil
}
