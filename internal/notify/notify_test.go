package notify

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/elskow/user-service/internal/config"
)

func testMailConfig() *config.MailConfig {
	return &config.MailConfig{
		Driver:  config.MailDriverSMTP,
		Host:    "smtp.example.com",
		Port:    587,
		From:    "no-reply@example.com",
		Timeout: time.Second,
	}
}

func TestNewGateway(t *testing.T) {
	log := zap.NewNop()

	cfg := testMailConfig()
	assert.IsType(t, &SMTPGateway{}, NewGateway(cfg, log))

	cfg.Driver = config.MailDriverLog
	assert.IsType(t, &LogGateway{}, NewGateway(cfg, log))
}

func TestSMTPGateway_BuildMessage(t *testing.T) {
	gateway := NewSMTPGateway(testMailConfig(), zap.NewNop())
	token := "0123456789abcdef0123456789abcdef01234567"

	msg, err := gateway.buildMessage("info@odin.com", token)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)

	raw := buf.String()
	assert.Contains(t, raw, "info@odin.com")
	assert.Contains(t, raw, "no-reply@example.com")
	assert.Contains(t, raw, verificationSubject)
	assert.Contains(t, raw, token)
}

func TestSMTPGateway_BuildMessageRejectsAddresses(t *testing.T) {
	cfg := testMailConfig()
	gateway := NewSMTPGateway(cfg, zap.NewNop())

	_, err := gateway.buildMessage("not an address", "token")
	assert.Error(t, err)

	cfg.From = "broken"
	_, err = gateway.buildMessage("info@odin.com", "token")
	assert.Error(t, err)
}

func TestSMTPGateway_SendFailsWithoutRelay(t *testing.T) {
	cfg := testMailConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 1
	gateway := NewSMTPGateway(cfg, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := gateway.SendVerification(ctx, "info@odin.com", "token")
	assert.Error(t, err)
}

func TestSMTPGateway_ClientOptions(t *testing.T) {
	cfg := testMailConfig()
	gateway := NewSMTPGateway(cfg, zap.NewNop())
	assert.Len(t, gateway.clientOptions(), 3)

	cfg.Username = "relay-user"
	cfg.Password = "relay-pass"
	assert.Len(t, gateway.clientOptions(), 6)
}

func TestLogGateway(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	gateway := NewLogGateway(zap.New(core))

	require.NoError(t, gateway.SendVerification(context.Background(), "info@odin.com", "abc123"))

	info := logs.FilterLevelExact(zapcore.InfoLevel).All()
	require.Len(t, info, 1)
	assert.Equal(t, "info@odin.com", info[0].ContextMap()["to"])
	assert.NotContains(t, info[0].ContextMap(), "token")

	debug := logs.FilterLevelExact(zapcore.DebugLevel).All()
	require.Len(t, debug, 1)
	assert.Equal(t, "abc123", debug[0].ContextMap()["token"])

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, gateway.SendVerification(ctx, "info@odin.com", "abc123"), context.Canceled)
}
