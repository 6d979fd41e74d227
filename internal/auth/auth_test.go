package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/elskow/user-service/internal/config"
)

const (
	testIdentifier = "info@odin.com"
	testPassword   = "Inf0m@cion_2024"
)

func newTestLogger(t *testing.T) *zap.Logger {
	logger, err := zap.NewDevelopment()
	assert.NoError(t, err)
	return logger
}

func newTestConfig() *config.AuthConfig {
	return &config.AuthConfig{
		SigningSecret:          "test-secret-key",
		Issuer:                 "user-service-test",
		SessionTTL:             time.Hour,
		BcryptCost:             bcrypt.MinCost,
		VerificationTTL:        time.Hour,
		VerificationTokenBytes: 20,
		NotificationTimeout:    time.Second,
		MaxFailedLogins:        5,
		ThrottleWindow:         120 * time.Second,
	}
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type sentVerification struct {
	address string
	token   string
}

// recordingGateway stands in for the mail relay.
type recordingGateway struct {
	mu   sync.Mutex
	sent []sentVerification
	err  error
}

func (g *recordingGateway) SendVerification(_ context.Context, address, token string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return g.err
	}
	g.sent = append(g.sent, sentVerification{address: address, token: token})
	return nil
}

func (g *recordingGateway) lastToken(t *testing.T) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	require.NotEmpty(t, g.sent, "no verification was sent")
	return g.sent[len(g.sent)-1].token
}

type testEnv struct {
	cfg     *config.AuthConfig
	service *Service
	repo    Repository
	clock   *testClock
	gateway *recordingGateway
	metrics *MetricsCollector
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithConfig(t, newTestConfig())
}

func newTestEnvWithConfig(t *testing.T, cfg *config.AuthConfig) *testEnv {
	tokens := NewRandomTokenGenerator(cfg.VerificationTokenBytes)
	sessions, err := NewSessionIssuer(cfg, tokens)
	require.NoError(t, err)

	env := &testEnv{
		cfg:     cfg,
		repo:    NewMemoryRepository(),
		clock:   newTestClock(),
		gateway: &recordingGateway{},
		metrics: NewMetricsCollector(nil),
	}
	env.service = NewService(
		cfg,
		newTestLogger(t),
		env.repo,
		NewBcryptHasher(cfg.BcryptCost),
		tokens,
		sessions,
		env.gateway,
		WithClock(env.clock.Now),
		WithMetrics(env.metrics),
	)
	return env
}

// registerVerified registers identifier and validates it with the token
// that was sent.
func (e *testEnv) registerVerified(t *testing.T, identifier, password string) {
	ctx := context.Background()
	_, err := e.service.Register(ctx, identifier, password)
	require.NoError(t, err)
	_, err = e.service.Validate(ctx, identifier, e.gateway.lastToken(t))
	require.NoError(t, err)
}

func (e *testEnv) account(t *testing.T, identifier string) *Account {
	account, err := e.repo.FindByIdentifier(context.Background(), identifier)
	require.NoError(t, err)
	return account
}
