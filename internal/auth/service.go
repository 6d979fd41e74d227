package auth

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/elskow/user-service/internal/config"
	"github.com/elskow/user-service/internal/notify"
)

const (
	opRegister = "register"
	opValidate = "validate"
	opLogin    = "login"
	opLogout   = "logout"
	opDelete   = "delete"
	opSession  = "session"
)

// Session is the result of a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// Service is the account state machine. It owns every transition of an
// Account: Unverified -> Verified on validation, the derived Locked condition
// on repeated login failures, and removal on delete.
type Service struct {
	config     *config.AuthConfig
	log        *zap.Logger
	repository Repository
	hasher     CredentialHasher
	tokens     TokenGenerator
	sessions   *SessionIssuer
	notifier   notify.Gateway
	metrics    *MetricsCollector
	now        func() time.Time
}

type ServiceOption func(*Service)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
			if s.sessions != nil {
				s.sessions.now = now
			}
		}
	}
}

func WithMetrics(mc *MetricsCollector) ServiceOption {
	return func(s *Service) {
		s.metrics = mc
	}
}

func NewService(
	config *config.AuthConfig,
	log *zap.Logger,
	repo Repository,
	hasher CredentialHasher,
	tokens TokenGenerator,
	sessions *SessionIssuer,
	notifier notify.Gateway,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		config:     config,
		log:        log,
		repository: repo,
		hasher:     hasher,
		tokens:     tokens,
		sessions:   sessions,
		notifier:   notifier,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an unverified account and sends its verification token
// to the identifier. If the notification fails the account is kept and a
// dependency error is returned.
func (s *Service) Register(ctx context.Context, identifier, password string) (_ *Account, err error) {
	defer s.observe(opRegister, time.Now(), &err)

	if err := ValidateRegistration(identifier, password); err != nil {
		s.log.Warn("invalid register request", zap.String("identifier", identifier), zap.Error(err))
		return nil, err
	}

	if _, err := s.repository.FindByIdentifier(ctx, identifier); err == nil {
		return nil, newError(KindConflict, "account already exists")
	} else if !errors.Is(err, ErrAccountNotFound) {
		return nil, s.dependency("failed to look up account", identifier, err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, s.dependency("failed to hash password", identifier, err)
	}

	token, err := s.tokens.Generate()
	if err != nil {
		return nil, s.dependency("failed to generate verification token", identifier, err)
	}

	now := s.now()
	expiresAt := now.Add(s.config.VerificationTTL)
	account := &Account{
		Identifier:            identifier,
		CredentialHash:        hash,
		CreatedAt:             now,
		IsActive:              true,
		VerificationToken:     &token,
		VerificationExpiresAt: &expiresAt,
	}

	if err := s.repository.Create(ctx, account); err != nil {
		if errors.Is(err, ErrAccountExists) {
			return nil, newError(KindConflict, "account already exists")
		}
		return nil, s.dependency("failed to create account", identifier, err)
	}

	s.log.Info("account registered", zap.String("identifier", identifier))

	sendCtx, cancel := context.WithTimeout(ctx, s.config.NotificationTimeout)
	defer cancel()
	sendErr := s.notifier.SendVerification(sendCtx, identifier, token)
	s.metrics.NotificationSent(sendErr)
	if sendErr != nil {
		// No compensating delete: the account stays unverified.
		return nil, s.dependency("account created but verification message could not be sent", identifier, sendErr)
	}

	return account, nil
}

// Validate marks the account verified when token matches its pending
// verification token and has not expired.
func (s *Service) Validate(ctx context.Context, identifier, token string) (_ *Account, err error) {
	defer s.observe(opValidate, time.Now(), &err)

	if err := requireAll("identifier and token are required", identifier, token); err != nil {
		return nil, err
	}

	account, err := s.repository.FindByIdentifierAndToken(ctx, identifier, token)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, newError(KindNotFound, "account or verification token not found")
		}
		return nil, s.dependency("failed to look up account", identifier, err)
	}

	if account.VerificationExpired(s.now()) {
		s.log.Warn("expired verification token", zap.String("identifier", identifier))
		return nil, newError(KindExpired, "verification token has expired")
	}

	updated, err := s.repository.Update(ctx, identifier, func(a *Account) error {
		// Re-check under the lock: a concurrent Validate may have consumed
		// the token already.
		if a.VerificationToken == nil || *a.VerificationToken != token {
			return ErrAccountNotFound
		}
		if a.VerificationExpired(s.now()) {
			return newError(KindExpired, "verification token has expired")
		}
		a.markVerified()
		return nil
	})
	if err != nil {
		return nil, s.updateError(identifier, err)
	}

	s.log.Info("account verified", zap.String("identifier", identifier))
	return updated, nil
}

// Login authenticates identifier with password and issues a session token.
// Failed attempts are counted; once MaxFailedLogins is reached further
// attempts are rejected for ThrottleWindow after the latest failure.
func (s *Service) Login(ctx context.Context, identifier, password string) (_ *Session, err error) {
	defer s.observe(opLogin, time.Now(), &err)

	if err := requireAll("identifier and password are required", identifier, password); err != nil {
		return nil, err
	}

	// The decision is made inside Update so that the counter read, the
	// password check and the counter write happen under one lock. The
	// closure returns nil for a wrong password so the failure is persisted.
	var outcome *Error
	_, err = s.repository.Update(ctx, identifier, func(a *Account) error {
		now := s.now()
		switch {
		case !a.IsActive:
			return newError(KindForbidden, "account is deactivated")
		case !a.IsVerified:
			return newError(KindForbidden, "account is not verified")
		case a.Throttled(now, s.config.MaxFailedLogins, s.config.ThrottleWindow):
			return newError(KindRateLimited, "too many failed login attempts, try again later")
		}

		if !s.hasher.Verify(password, a.CredentialHash) {
			a.recordFailure(now)
			if a.FailedLoginCount >= s.config.MaxFailedLogins {
				outcome = newError(KindRateLimited, "too many failed login attempts, try again later")
			} else {
				outcome = newError(KindUnauthorized, "invalid credentials")
			}
			return nil
		}

		a.recordSuccess(now)
		return nil
	})
	if err != nil {
		return nil, s.updateError(identifier, err)
	}
	if outcome != nil {
		s.log.Warn("login rejected",
			zap.String("identifier", identifier),
			zap.String("kind", string(outcome.Kind)))
		return nil, outcome
	}

	token, expiresAt, err := s.sessions.Issue(identifier)
	if err != nil {
		return nil, s.dependency("failed to issue session token", identifier, err)
	}

	s.log.Info("login succeeded", zap.String("identifier", identifier))
	return &Session{Token: token, ExpiresAt: expiresAt}, nil
}

// Logout acknowledges the request for an existing account. Session tokens are
// self-contained and stay valid until they expire.
func (s *Service) Logout(ctx context.Context, identifier string) (err error) {
	defer s.observe(opLogout, time.Now(), &err)

	if err := requireAll("identifier is required", identifier); err != nil {
		return err
	}

	if _, err := s.repository.FindByIdentifier(ctx, identifier); err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return newError(KindNotFound, "account not found")
		}
		return s.dependency("failed to look up account", identifier, err)
	}

	s.log.Info("logout acknowledged", zap.String("identifier", identifier))
	return nil
}

// Delete permanently removes the account.
func (s *Service) Delete(ctx context.Context, identifier string) (err error) {
	defer s.observe(opDelete, time.Now(), &err)

	if err := requireAll("identifier is required", identifier); err != nil {
		return err
	}

	if err := s.repository.Delete(ctx, identifier); err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return newError(KindNotFound, "account not found")
		}
		return s.dependency("failed to delete account", identifier, err)
	}

	s.log.Info("account deleted", zap.String("identifier", identifier))
	return nil
}

// VerifySession checks a presented session token.
func (s *Service) VerifySession(token string) (_ *Claims, err error) {
	defer s.observe(opSession, time.Now(), &err)

	if token == "" {
		return nil, newError(KindUnauthorized, "session token is required")
	}

	claims, err := s.sessions.Verify(token)
	if err != nil {
		return nil, &Error{Kind: KindUnauthorized, Message: "invalid or expired session token", Err: err}
	}
	return claims, nil
}

func (s *Service) updateError(identifier string, err error) error {
	var svcErr *Error
	switch {
	case errors.As(err, &svcErr):
		return svcErr
	case errors.Is(err, ErrAccountNotFound):
		return newError(KindNotFound, "account not found")
	default:
		return s.dependency("failed to update account", identifier, err)
	}
}

func (s *Service) dependency(message, identifier string, err error) error {
	s.log.Error(message, zap.String("identifier", identifier), zap.Error(err))
	return dependencyError(message, err)
}

func (s *Service) observe(operation string, started time.Time, err *error) {
	s.metrics.Observe(operation, started, *err)
}
