package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"previewd/internal/api"
	"previewd/internal/config"
	"previewd/internal/fetcher"
	"previewd/internal/notify"
	"previewd/internal/preview"
	"previewd/internal/store"
	"previewd/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zlog, err := logger.New(cfg.Debug)
	if err != nil {
		log.Fatalf("building logger: %v", err)
	}
	defer zlog.Sync()

	st := store.Open(store.Config{
		Backend:     cfg.Store.Backend,
		Dir:         cfg.Store.Dir,
		SqlitePath:  cfg.Store.SqlitePath,
		RedisAddr:   cfg.Store.RedisAddr,
		PostgresDSN: cfg.Store.PostgresDSN,
	}, zlog)
	defer st.Close()

	pre := preview.New(fetcher.NewOpenGraph(zlog), st, zlog, preview.Options{
		BatchSize:  cfg.BatchSize,
		BatchDelay: cfg.BatchDelay,
	})

	if cfg.WebhookURL != "" {
		pre.SubscribeAll(notify.NewWebhook(cfg.WebhookURL, zlog))
		zlog.Info("webhook notifications enabled", zap.String("url", cfg.WebhookURL))
	}

	// Gracefully stop the drain loop before the process exits
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		zlog.Info("received shutdown signal, stopping prefetcher")
		pre.Close()
		os.Exit(0)
	}()

	router := api.NewRouter(pre, cfg.APIKey, zlog)
	if err := api.Run(router, cfg.Addr, zlog); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}
