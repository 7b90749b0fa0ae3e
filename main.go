package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fakhrymubarak/weather-widget/internal/config"
	"github.com/fakhrymubarak/weather-widget/internal/handler"
	"github.com/fakhrymubarak/weather-widget/internal/middleware"
	"github.com/fakhrymubarak/weather-widget/internal/redis"
	"github.com/fakhrymubarak/weather-widget/internal/service"
	"github.com/fakhrymubarak/weather-widget/internal/tui"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "weather-widget",
		Short:        "Current weather and a five day forecast for a city or your location",
		SilenceUsage: true,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the widget page and its JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			port, err := cmd.Flags().GetString("port")
			if err != nil {
				return err
			}
			if port == "" {
				port = config.GetServerPort()
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, port)
		},
	}
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "Run the widget in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			widget := newWidget(ctx)
			return tui.Run(ctx, widget, config.GetUnits())
		},
	}

	rootCmd.AddCommand(serveCmd, tuiCmd)
	return rootCmd
}

func newWidget(ctx context.Context) *service.Widget {
	logger := config.GetLogger()
	if config.GetStorageDriver() == "redis" {
		if err := redis.Ping(ctx); err != nil {
			logger.Warnw("Redis is not reachable, last city will not be remembered", "addr", config.GetRedisAddr(), "error", err)
		}
	}
	return service.NewWidget(service.Dependencies{Logger: logger})
}

func newServer(port string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + port,
		Handler:           h,
		ReadHeaderTimeout: config.GetServerTimeoutDuration("read_header_timeout", 15*time.Second),
		ReadTimeout:       config.GetServerTimeoutDuration("read_timeout", 15*time.Second),
		WriteTimeout:      config.GetServerTimeoutDuration("write_timeout", 30*time.Second),
		IdleTimeout:       config.GetServerTimeoutDuration("idle_timeout", 60*time.Second),
	}
}

func serve(ctx context.Context, port string) error {
	logger := config.GetLogger()
	defer func() { _ = logger.Sync() }()

	widget := newWidget(ctx)
	go widget.InitialLoad(ctx)
	middleware.StartRateLimiterCleanup(ctx)

	srv := newServer(port, handler.NewWidgetHandler(widget).Routes())

	serverErr := make(chan error, 1)
	go func() {
		logger.Infow("Weather widget server running", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	logger.Infow("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
