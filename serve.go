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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/KincaidYang/nicwhois/config"
	"github.com/KincaidYang/nicwhois/handle_resources"
	"github.com/KincaidYang/nicwhois/mcp_tools"
	"github.com/KincaidYang/nicwhois/whois_tools"
)

const shutdownTimeout = 30 * time.Second

// newRouter wires the HTTP endpoints to client. reg is served on /metrics.
func newRouter(cfg *config.Config, client *whois_tools.Client, reg *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", handle_resources.HandleWhois(client))
	mux.HandleFunc("/health", handle_resources.HandleHealth(client))
	mux.HandleFunc("/ready", handle_resources.HandleReady(client))
	mux.HandleFunc("/info", handle_resources.HandleInfo)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	if cfg.MCP {
		mux.Handle("/mcp", mcp_tools.NewHTTPHandler(mcp_tools.NewServer(client)))
	}
	return mux
}

func runServer(cfg *config.Config) error {
	log := whois_tools.Log

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	client, err := cfg.NewClient(reg)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           newRouter(cfg, client, reg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Port).Info("server is listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Add a signal listener. When a shutdown signal is received, wait for all queries to complete before shutting down the server.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
	}

	log.Info("received shutdown signal, waiting for all queries to complete")
	handle_resources.SetDraining(true)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return err
	}
	log.Info("all queries completed, server stopped")
	return nil
}
