package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rjoubert/tablebook/internal/config"
	"github.com/rjoubert/tablebook/internal/notifications"
	"github.com/rjoubert/tablebook/internal/observability"
	"github.com/rjoubert/tablebook/internal/queue/redisclient"
	"github.com/rjoubert/tablebook/internal/queue/worker"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("no .env file found, relying on environment variables")
	}

	cfg := config.Load()
	log := observability.NewLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	rdb := redisclient.New(redisclient.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()

	promReg := prometheus.NewRegistry()
	prom := observability.NewProm(promReg)

	// metrics endpoint for the worker process
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))

		srv := &http.Server{
			Addr:              ":9091",
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server failed", "err", err)
		}
	}()

	var notifier notifications.Notifier

	if cfg.NotifierURL != "" {
		notifier = notifications.NewEmailNotifier(cfg.NotifierURL, cfg.NotifierKey)
	} else {
		notifier = notifications.NewLogNotifier(log)
	}

	notifier = notifications.NewProtectedNotifier(notifier, notifications.ProtectedNotifierConfig{
		Timeout:          3 * time.Second,
		FailureThreshold: 3,
		Cooldown:         15 * time.Second,
		HalfOpenMaxCalls: 1,
	})

	host, _ := os.Hostname()
	workerID := host + "-" + strconv.Itoa(os.Getpid())

	w := worker.New(worker.Config{
		WorkerID:      workerID,
		Concurrency:   4,
		PopTimeout:    2 * time.Second,
		ShutdownGrace: 10 * time.Second,
	}, rdb.Raw(), notifier, prom, log)

	if err := w.Run(ctx); err != nil {
		log.Error("worker stopped with error", "err", err)
	}

	log.Info("worker shutdown complete")
}
