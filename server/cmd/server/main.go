package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/littleapps/usagestats/server/internal/config"
	"github.com/littleapps/usagestats/server/internal/metrics"
	"github.com/littleapps/usagestats/server/internal/receiver"
	"github.com/littleapps/usagestats/server/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to config file; defaults are used when empty")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		cfg = loaded
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Server.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	slog.Info("usagestats-collector starting",
		"config", *configPath,
		"http_port", cfg.Server.HTTPPort,
		"ttl", cfg.Server.TTL,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st := store.New(cfg.Server.TTL)
	go st.Run(ctx)

	m := metrics.New()
	rc := receiver.New(st, m, cfg.Server.MaxBodyBytes)

	mux := http.NewServeMux()
	mux.HandleFunc("/collect", rc.Collect)
	mux.HandleFunc("/payloads", rc.Payloads)
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("usagestats-collector shutting down")
	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "err", err)
	}
}
