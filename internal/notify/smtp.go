package notify

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/elskow/user-service/internal/config"
)

// SMTPGateway sends verification messages through an SMTP relay.
type SMTPGateway struct {
	config *config.MailConfig
	log    *zap.Logger
}

func NewSMTPGateway(cfg *config.MailConfig, log *zap.Logger) *SMTPGateway {
	return &SMTPGateway{config: cfg, log: log}
}

func (g *SMTPGateway) SendVerification(ctx context.Context, address, token string) error {
	msg, err := g.buildMessage(address, token)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(g.config.Host, g.clientOptions()...)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send verification message: %w", err)
	}

	g.log.Debug("verification message sent", zap.String("to", address))
	return nil
}

func (g *SMTPGateway) buildMessage(address, token string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(g.config.From); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(address); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(verificationSubject)
	msg.SetBodyString(mail.TypeTextPlain, verificationBody(token))
	return msg, nil
}

func (g *SMTPGateway) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(g.config.Port),
		mail.WithTimeout(g.config.Timeout),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if g.config.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(g.config.Username),
			mail.WithPassword(g.config.Password),
		)
	}
	return opts
}
