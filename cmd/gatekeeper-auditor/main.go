// Gatekeeper Auditor — потребитель событий аудита.
//
// Auditor:
//   - Читает события из RabbitMQ (очередь audit.events)
//   - Записывает их в журнал аудита в PostgreSQL
//   - Битые сообщения уходят в DLQ, ошибки записи — в requeue
//
// Auditors масштабируются горизонтально: запись идемпотентна по id события.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Gatekeeper/internal/audit"
	"github.com/shaiso/Gatekeeper/internal/mq"
	"github.com/shaiso/Gatekeeper/internal/repo"
	"github.com/shaiso/Gatekeeper/internal/telemetry"
)

func main() {
	logger := telemetry.SetupLogger()
	logger.Info("starting gatekeeper-auditor")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DB pool
	pool, err := repo.NewPool(ctx)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	if err := repo.Migrate(ctx, pool); err != nil {
		logger.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// RabbitMQ обязателен: без брокера auditor бесполезен
	url := mq.URL()
	if url == "" {
		logger.Error("MQ_URL is not set")
		os.Exit(1)
	}
	mqConn, err := mq.Connect(url, logger)
	if err != nil {
		logger.Error("RabbitMQ connect failed", "error", err)
		os.Exit(1)
	}
	defer mqConn.Close()
	logger.Info("RabbitMQ connected")

	if err := mq.SetupTopology(mqConn); err != nil {
		logger.Error("failed to setup topology", "error", err)
		os.Exit(1)
	}

	recorder := audit.NewRecorder(repo.NewAuditRepo(pool), logger)
	consumer := mq.NewConsumer(mqConn, logger, recorder.Record)

	go func() {
		if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
			logger.Error("consumer stopped", "error", err)
			cancel()
		}
	}()

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	addr := ":8083"
	if v := os.Getenv("AUDITOR_PORT"); v != "" {
		addr = ":" + v
	}

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}
