package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/httplog"
	"github.com/marcelsud/go-live/config"
	"github.com/marcelsud/go-live/internal/http/chi"
	"github.com/marcelsud/go-live/internal/session"
	"github.com/marcelsud/go-live/internal/store"
	"github.com/marcelsud/go-live/metrics"
	"github.com/marcelsud/go-live/trigger"
	"github.com/marcelsud/go-live/trigger/signature"
)

const TIMEOUT = 30 * time.Second

/* main only wires packages together: config, stores, service and the HTTP router.
 * Imports flow one way, down: api -> trigger -> stores.
 */

func main() {
	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Println(err)
		return
	}
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT,
	)
	defer stop()

	logger := httplog.NewLogger("go-live", httplog.Options{
		JSON: true,
	})

	stores, err := store.Open(ctx, cfg)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer stores.Close(ctx)

	exporter, err := metrics.NewOTelExporter(metrics.NewStoreCollector(stores.Counter, stores.Directory))
	if err != nil {
		fmt.Println(err)
		return
	}
	defer exporter.Shutdown(context.Background())

	dispatcher := trigger.NewDispatcher(&http.Client{Timeout: cfg.GetTimeout()}, stores.Audit, logger)
	dispatcher.Observer = exporter
	if cfg.GoLiveSigningSecret != "" {
		signer, err := signature.NewSigner(cfg.GoLiveSigningSecret)
		if err != nil {
			fmt.Println(err)
			return
		}
		dispatcher.Signer = signer
	}

	resolver := trigger.NewResolver(trigger.ResolverConfig{
		Secret:      cfg.GoLiveSecret,
		WebhookURL:  cfg.GoLiveWebhookURL,
		MatchTokens: cfg.GetMatchTokens(),
	}, stores.Directory)
	s := trigger.NewService(resolver, dispatcher, stores.Audit, logger)
	s.Observer = exporter

	sessions := session.NewManager(cfg.AdminJWTSecret)
	if !sessions.Enabled() {
		logger.Warn().Msg("ADMIN_JWT_SECRET is not set, only secret-based triggers are accepted")
	}

	r := chi.Handlers(ctx, s, sessions, logger, chi.Options{
		Metrics:        exporter.ServeHTTP(),
		RequestTimeout: cfg.GetTimeout() + 15*time.Second,
	})
	http.Handle("/", r)
	srv := &http.Server{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.GetTimeout() + 30*time.Second,
		Addr:         ":" + cfg.GetPort(),
		Handler:      http.DefaultServeMux,
	}

	errShutdown := make(chan error, 1)
	go shutdown(srv, ctx, errShutdown)
	logger.Info().Str("port", cfg.GetPort()).Str("store", cfg.GetStoreDriver()).Msg("Listening")
	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		fmt.Println(err)
		return
	}
	err = <-errShutdown
	if err != nil {
		fmt.Println(err)
		return
	}
}

func shutdown(server *http.Server, ctxShutdown context.Context, errShutdown chan error) {
	<-ctxShutdown.Done()

	ctxTimeout, stop := context.WithTimeout(context.Background(), TIMEOUT)
	defer stop()

	err := server.Shutdown(ctxTimeout)
	switch err {
	case nil:
		fmt.Printf("\nShutting down server...\n")
		errShutdown <- nil
	case context.DeadlineExceeded:
		errShutdown <- fmt.Errorf("forcing server close after %s", TIMEOUT)
	default:
		errShutdown <- fmt.Errorf("shutting down server: %w", err)
	}
}
