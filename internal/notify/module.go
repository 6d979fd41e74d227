package notify

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/elskow/user-service/internal/config"
)

// Module provides the Gateway selected by mail.driver.
func Module() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				func(config *config.AppConfig, log *zap.Logger) Gateway {
					return NewGateway(&config.Mail, log)
				},
			),
		),
	)
}

func NewGateway(cfg *config.MailConfig, log *zap.Logger) Gateway {
	if cfg.Driver == config.MailDriverSMTP {
		return NewSMTPGateway(cfg, log)
	}
	return NewLogGateway(log)
}
