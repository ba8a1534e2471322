// Gatekeeper API — сервис выдачи и проверки access-токенов.
//
// Отвечает за:
//   - выдачу JWT по client credentials
//   - проверку токенов и прав (роли + scopes)
//   - администрирование пользователей
//   - публикацию событий аудита в RabbitMQ
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
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Gatekeeper/internal/api"
	"github.com/shaiso/Gatekeeper/internal/auth"
	"github.com/shaiso/Gatekeeper/internal/cache"
	"github.com/shaiso/Gatekeeper/internal/domain"
	"github.com/shaiso/Gatekeeper/internal/mq"
	"github.com/shaiso/Gatekeeper/internal/repo"
	"github.com/shaiso/Gatekeeper/internal/telemetry"
)

var startTime = time.Now()

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting gatekeeper-api")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Подключаемся к базе данных
	pool, err := repo.NewPool(ctx)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	// Применяем миграции
	if err := repo.Migrate(ctx, pool); err != nil {
		logger.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// Создаём репозитории
	userRepo := repo.NewUserRepo(pool)
	tokenRepo := repo.NewTokenRepo(pool)

	// Суперадминистратор создаётся при первом старте
	if err := bootstrapSuperadmin(ctx, userRepo, logger); err != nil {
		logger.Error("superadmin bootstrap failed", "error", err)
		os.Exit(1)
	}

	// JWT issuer
	issuer, err := auth.NewTokenIssuerFromEnv()
	if err != nil {
		logger.Error("token issuer init failed", "error", err)
		os.Exit(1)
	}

	// Redis-кэш токенов (опционально)
	tokenCache, err := cache.New(ctx)
	if err != nil {
		logger.Error("redis connect failed", "error", err)
		os.Exit(1)
	}
	if tokenCache != nil {
		defer tokenCache.Close()
		logger.Info("token cache enabled")
	}

	// RabbitMQ (опционально): без брокера события аудита не публикуются
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

	// Создаём API handler
	handler := api.NewHandler(api.Config{
		Users:     userRepo,
		Tokens:    tokenRepo,
		Audits:    repo.NewAuditRepo(pool),
		Issuer:    issuer,
		Cache:     tokenCache,
		Publisher: publisher,
		Pool:      pool,
		Logger:    logger,
	})

	mux := http.NewServeMux()

	// Health и metrics
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// Регистрируем API маршруты
	handler.RegisterRoutes(mux)

	addr := ":8080"
	if v := os.Getenv("API_PORT"); v != "" {
		addr = ":" + v
	}

	// HTTP сервер с graceful shutdown
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

	// Graceful shutdown с таймаутом 10 секунд
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}

// bootstrapSuperadmin создаёт суперадминистратора из ADMIN_USERNAME
// и ADMIN_PASSWORD, если его ещё нет. Повторные старты безопасны.
func bootstrapSuperadmin(ctx context.Context, users *repo.UserRepo, logger *slog.Logger) error {
	username := os.Getenv("ADMIN_USERNAME")
	password := os.Getenv("ADMIN_PASSWORD")
	if username == "" || password == "" {
		logger.Warn("ADMIN_USERNAME/ADMIN_PASSWORD not set, skipping superadmin bootstrap")
		return nil
	}

	if _, err := users.GetByUsername(ctx, username); err == nil {
		return nil
	} else if !errors.Is(err, repo.ErrNotFound) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	scopes := make([]domain.UserScope, 0, len(domain.KnownScopes))
	for scope := range domain.KnownScopes {
		scopes = append(scopes, domain.UserScope{Scope: scope, IsActive: true})
	}

	admin := &domain.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: hash,
		IsActive:     true,
		Role:         domain.RoleSuperadmin,
		Scopes:       scopes,
	}
	if err := users.Create(ctx, admin); err != nil {
		// Параллельный инстанс мог успеть первым
		if errors.Is(err, repo.ErrAlreadyExists) {
			return nil
		}
		return err
	}

	logger.Info("superadmin created", "username", username)
	return nil
}
