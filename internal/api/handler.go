package api

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Gatekeeper/internal/auth"
	"github.com/shaiso/Gatekeeper/internal/cache"
	"github.com/shaiso/Gatekeeper/internal/mq"
	"github.com/shaiso/Gatekeeper/internal/repo"
)

// Handler — HTTP-обработчик API. Объединяет зависимости,
// необходимые обработчикам запросов.
type Handler struct {
	users     *repo.UserRepo
	tokens    *repo.TokenRepo
	audits    *repo.AuditRepo
	issuer    *auth.TokenIssuer
	cache     *cache.Cache
	publisher *mq.Publisher
	pool      *pgxpool.Pool
	logger    *slog.Logger
}

// Config — зависимости для создания Handler.
type Config struct {
	Users     *repo.UserRepo
	Tokens    *repo.TokenRepo
	Audits    *repo.AuditRepo
	Issuer    *auth.TokenIssuer
	Cache     *cache.Cache
	Publisher *mq.Publisher
	Pool      *pgxpool.Pool
	Logger    *slog.Logger
}

// NewHandler создаёт Handler с указанными зависимостями.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		users:     cfg.Users,
		tokens:    cfg.Tokens,
		audits:    cfg.Audits,
		issuer:    cfg.Issuer,
		cache:     cfg.Cache,
		publisher: cfg.Publisher,
		pool:      cfg.Pool,
		logger:    cfg.Logger,
	}
}
