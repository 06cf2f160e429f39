package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/raykavin/pricealert"
	"github.com/raykavin/pricealert/pkg/config"
	"github.com/raykavin/pricealert/pkg/logger"
	"github.com/raykavin/pricealert/pkg/metric"
	"github.com/raykavin/pricealert/pkg/notification"
)

func buildRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the Telegram bot and the alert worker",
		RunE:  runBot,
	}
}

func runBot(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, store, log, err := setup()
	if err != nil {
		return err
	}
	defer store.Close()

	src, err := newSource(ctx, cfg, log)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	options := []pricealert.Option{
		pricealert.WithStorage(store),
		pricealert.WithLogger(log),
		pricealert.WithMetrics(metric.New(registry)),
	}
	if cfg.Mail.Enabled {
		options = append(options, pricealert.WithNotifier(notification.NewMail(notification.MailParams{
			SMTPServerPort:    cfg.Mail.Port,
			SMTPServerAddress: cfg.Mail.Server,
			To:                cfg.Mail.To,
			From:              cfg.Mail.From,
			Password:          cfg.Mail.Password,
		})))
	}

	bot, err := pricealert.NewBot(cfg.Settings, src, options...)
	if err != nil {
		return err
	}

	if cfg.Metrics.Address != "" {
		server := serveMetrics(cfg.Metrics, registry, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	return bot.Run(ctx)
}

func serveMetrics(cfg config.MetricsConfig, registry *prometheus.Registry, log logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              cfg.Address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("metrics server error")
		}
	}()

	log.WithField("address", cfg.Address).Info("serving metrics")
	return server
}
