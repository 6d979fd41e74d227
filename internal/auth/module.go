package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/elskow/user-service/internal/config"
	"github.com/elskow/user-service/internal/database"
	"github.com/elskow/user-service/internal/notify"
)

// NewModule returns the auth module options
func NewModule() fx.Option {
	return fx.Options(
		fx.Provide(
			// Provide repository; the memory store is used when no database is configured
			fx.Annotate(
				func(manager *database.Manager, log *zap.Logger) Repository {
					db := manager.DB()
					if db == nil {
						log.Warn("no database configured, accounts are kept in memory")
						return NewMemoryRepository()
					}
					return NewRepository(db)
				},
			),
			// Provide crypto primitives
			fx.Annotate(
				func(config *config.AppConfig) CredentialHasher {
					return NewBcryptHasher(config.Auth.BcryptCost)
				},
			),
			fx.Annotate(
				func(config *config.AppConfig) TokenGenerator {
					return NewRandomTokenGenerator(config.Auth.VerificationTokenBytes)
				},
			),
			fx.Annotate(
				func(config *config.AppConfig, tokens TokenGenerator) (*SessionIssuer, error) {
					return NewSessionIssuer(&config.Auth, tokens)
				},
			),
			// Provide metrics
			fx.Annotate(
				func(reg *prometheus.Registry) *MetricsCollector {
					return NewMetricsCollector(reg)
				},
			),
			// Provide service
			fx.Annotate(
				func(
					config *config.AppConfig,
					log *zap.Logger,
					repo Repository,
					hasher CredentialHasher,
					tokens TokenGenerator,
					sessions *SessionIssuer,
					notifier notify.Gateway,
					metrics *MetricsCollector,
				) *Service {
					return NewService(&config.Auth, log, repo, hasher, tokens, sessions, notifier, WithMetrics(metrics))
				},
			),
			// Provide handler
			fx.Annotate(
				func(svc *Service, log *zap.Logger) *Handler {
					return NewHandler(svc, log)
				},
			),
			// Provide middleware
			fx.Annotate(
				func(svc *Service, handler *Handler) *AuthMiddleware {
					return NewAuthMiddleware(svc, handler)
				},
			),
		),
	)
}
