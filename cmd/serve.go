package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"fleetcheck/internal/bootstrap"
	"fleetcheck/internal/bootstrap/logging"
	"fleetcheck/internal/errs"
	"fleetcheck/internal/events"
	"fleetcheck/internal/transport/httpapi"
	"fleetcheck/internal/usecase/nc"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and, when configured, the submission event subscriber",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc *nc.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		addr, _ := cmd.Flags().GetString("addr")
		addr = strings.TrimSpace(addr)
		if addr == "" {
			addr = app.Config.HTTP.Addr
		}

		server := &http.Server{
			Addr:              addr,
			Handler:           httpapi.NewRouter(svc, logging.Logger(ctx)),
			ReadHeaderTimeout: 10 * time.Second,
		}

		var subscriber *events.Subscriber
		if natsURL := strings.TrimSpace(app.Config.NATS.URL); natsURL != "" {
			var err error
			subscriber, err = events.Connect(ctx, natsURL, svc)
			if err != nil {
				return errs.Wrap(err, "connect submission subscriber")
			}
			if err := subscriber.Start(); err != nil {
				return errs.Wrap(err, "start submission subscriber")
			}
			defer func() {
				if err := subscriber.Close(); err != nil {
					logging.Error(ctx, "submission subscriber close failed", slog.Any("err", errs.Loggable(err)))
				}
			}()
		} else {
			logging.Info(ctx, "nats url not configured, event path disabled")
		}

		errCh := make(chan error, 1)
		go func() {
			logging.Info(ctx, "http api started", slog.String("addr", addr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
				return
			}
			errCh <- nil
		}()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			if err != nil {
				logging.Error(ctx, "http api failed", slog.Any("err", errs.Loggable(err)))
				return errs.Wrap(err, "serve http api")
			}
			return nil
		case sig := <-stop:
			logging.Info(ctx, "shutdown signal received", slog.String("signal", sig.String()))
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errs.Wrap(err, "shutdown http api")
		}

		logging.Info(ctx, "http api stopped")
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "HTTP listen address (overrides http.addr from config)")
}
