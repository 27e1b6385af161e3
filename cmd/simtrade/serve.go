package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/efreitasn/simtrade/internal/bridge"
	"github.com/efreitasn/simtrade/internal/config"
	"github.com/efreitasn/simtrade/internal/handler"
	"github.com/efreitasn/simtrade/internal/metrics"
	"github.com/efreitasn/simtrade/internal/service"
	"github.com/efreitasn/simtrade/internal/store"
	"github.com/efreitasn/simtrade/internal/stream"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP, WebSocket and Redis front ends",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fail("failed to load config", err)
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(parent context.Context, cfg *config.Config) error {
	logger := newLogger(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Metrics.
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	// Instantiate stores.
	accountStore := store.NewAccountStore()
	reportStore := store.NewReportStore()
	webhookStore := store.NewWebhookStore()

	// Result fan-out: stream clients, webhooks and, when enabled, Redis.
	hub := stream.NewHub(stream.Options{
		Buffer:         cfg.Stream.Buffer,
		WriteWait:      cfg.Stream.WriteTimeout,
		AllowedOrigins: cfg.Stream.AllowedOrigins,
	}, logger, m)
	webhookSvc := service.NewWebhookService(webhookStore, accountStore, cfg.WebhookTimeout, logger)
	pubs := service.Publishers{hub, webhookSvc}

	// The bridge publishes results and consumes commands, so its dispatcher
	// is filled in once the services exist.
	dispatcher := &service.Dispatcher{AutoCreate: true}
	var br *bridge.Bridge
	if cfg.Redis.Enabled {
		rdb := bridge.NewRedisClient(cfg.Redis)
		defer rdb.Close()
		br = bridge.New(rdb, cfg.Redis, dispatcher, m, logger)
		pubs = append(pubs, br)
	}

	// Services.
	quoteSvc := service.NewQuoteService(accountStore, pubs, m, logger)
	accountSvc := service.NewAccountService(accountStore, quoteSvc, cfg.InitBalance, pubs, m, logger)
	orderSvc := service.NewOrderService(accountStore, pubs, m, logger)
	settlementSvc := service.NewSettlementService(accountStore, reportStore, pubs, m, logger)
	settlementSvc.AddListener(webhookSvc)

	dispatcher.Accounts = accountSvc
	dispatcher.Orders = orderSvc
	dispatcher.Quotes = quoteSvc
	dispatcher.Settlement = settlementSvc

	go hub.Run(ctx)

	if cfg.Settle.At != "" {
		sched, err := service.NewScheduler(settlementSvc, cfg.Settle.At, cfg.Settle.CheckInterval, logger)
		if err != nil {
			return fail("invalid settle schedule", err)
		}
		sched.Start(ctx)
		logger.Info("daily settlement scheduled", slog.String("at", cfg.Settle.At))
	}

	if br != nil {
		go func() {
			if err := br.Run(ctx); err != nil {
				logger.Error("redis bridge stopped", slog.String("error", err.Error()))
			}
		}()
	}

	// Router.
	router := handler.NewRouter(handler.Services{
		Accounts:   accountSvc,
		Orders:     orderSvc,
		Quotes:     quoteSvc,
		Settlement: settlementSvc,
		Webhooks:   webhookSvc,
		Hub:        hub,
		Gatherer:   reg,
	}, logger)

	// Configure HTTP server.
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fail("server error", err)
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	// Graceful shutdown: stop HTTP, then let in-flight webhooks finish.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
	cancel()
	webhookSvc.Wait()

	logger.Info("server stopped")
	return nil
}
