// Gatekeeper Sweeper — фоновая очистка токенов.
//
// По cron-расписанию помечает просроченные токены отозванными,
// публикует события аудита и удаляет давно отозванные записи.
// При нескольких инстансах лидер выбирается через PostgreSQL
// advisory lock: тик выполняет только лидер.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Gatekeeper/internal/mq"
	"github.com/shaiso/Gatekeeper/internal/repo"
	"github.com/shaiso/Gatekeeper/internal/sweeper"
	"github.com/shaiso/Gatekeeper/internal/telemetry"
)

const sweepLockKey int64 = 815915

func main() {
	logger := telemetry.SetupLogger()
	logger.Info("starting gatekeeper-sweeper")

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

	tokenRepo := repo.NewTokenRepo(pool)

	// RabbitMQ (опционально)
	var publisher *mq.Publisher
	if url := mq.URL(); url != "" {
		mqConn, err := mq.Connect(url, logger)
		if err != nil {
			logger.Warn("RabbitMQ not available, audit events disabled", "error", err)
		} else {
			defer mqConn.Close()
			if err := mq.SetupTopology(mqConn); err != nil {
				logger.Warn("failed to setup topology", "error", err)
			}
			publisher = mq.NewPublisher(mqConn, logger)
			logger.Info("RabbitMQ connected")
		}
	}

	cronExpr := sweeper.CronExpr()
	if err := sweeper.ValidateCronExpr(cronExpr); err != nil {
		logger.Error("invalid SWEEP_CRON", "expr", cronExpr, "error", err)
		os.Exit(1)
	}

	sw := sweeper.New(sweeper.Config{
		TokenRepo: tokenRepo,
		Publisher: publisher,
		Logger:    logger,
		Retention: sweeper.Retention(),
	})

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// sweeper loop
	go func() {
		tk := time.NewTicker(1 * time.Second)
		defer tk.Stop()

		// Advisory lock живёт на уровне сессии, поэтому блокировка
		// держится на выделенном соединении, не возвращаемом в пул
		var lockConn *pgxpool.Conn
		defer func() {
			if lockConn != nil {
				_, _ = lockConn.Exec(context.Background(), "select pg_advisory_unlock($1)", sweepLockKey)
				lockConn.Release()
			}
		}()

		nextDue, _ := sweeper.NextDue(cronExpr, time.Now().UTC())
		logger.Info("sweep scheduled", "cron", cronExpr, "next_due", nextDue)

		for {
			select {
			case t := <-tk.C:
				// пытаемся стать лидером
				if lockConn == nil {
					conn, err := pool.Acquire(ctx)
					if err != nil {
						logger.Warn("advisory lock failed", "error", err)
						continue
					}
					var ok bool
					if err := conn.QueryRow(ctx, "select pg_try_advisory_lock($1)", sweepLockKey).Scan(&ok); err != nil {
						logger.Warn("advisory lock failed", "error", err)
						conn.Release()
						continue
					}
					if !ok {
						// не лидер — пропускаем тик
						conn.Release()
						continue
					}
					lockConn = conn
					logger.Info("sweep leadership acquired")
				}

				// потеря соединения означает потерю блокировки
				if err := lockConn.Ping(ctx); err != nil {
					logger.Warn("sweep leadership lost", "error", err)
					lockConn.Release()
					lockConn = nil
					continue
				}

				now := t.UTC()
				if now.Before(nextDue) {
					continue
				}

				if err := sw.Tick(ctx); err != nil {
					logger.Error("sweep failed", "error", err)
				}

				nextDue, _ = sweeper.NextDue(cronExpr, now)

			case <-ctx.Done():
				return
			}
		}
	}()

	// serve
	addr := ":8082"
	if v := os.Getenv("SWEEPER_PORT"); v != "" {
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
