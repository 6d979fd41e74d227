package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/elskow/user-service/internal/config"
)

var ErrInvalidSession = errors.New("invalid session token")

type Claims struct {
	Identifier string `json:"identifier"`
	jwt.RegisteredClaims
}

// SessionIssuer mints and checks HS256 session tokens bound to an account
// identifier.
type SessionIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	nonces TokenGenerator
	now    func() time.Time
}

func NewSessionIssuer(cfg *config.AuthConfig, nonces TokenGenerator) (*SessionIssuer, error) {
	if cfg.SigningSecret == "" {
		return nil, errors.New("session signing secret is not configured")
	}
	return &SessionIssuer{
		secret: []byte(cfg.SigningSecret),
		issuer: cfg.Issuer,
		ttl:    cfg.SessionTTL,
		nonces: nonces,
		now:    time.Now,
	}, nil
}

// Issue returns a signed token for identifier and its absolute expiry.
func (s *SessionIssuer) Issue(identifier string) (string, time.Time, error) {
	nonce, err := s.nonces.Generate()
	if err != nil {
		return "", time.Time{}, err
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := &Claims{
		Identifier: identifier,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        nonce,
			Issuer:    s.issuer,
			Subject:   identifier,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify checks the signature, algorithm, issuer and expiry of tokenString.
func (s *SessionIssuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, errors.Join(ErrInvalidSession, err)
	}

	if !token.Valid {
		return nil, ErrInvalidSession
	}

	return claims, nil
}
