package auth

import (
	"time"
)

// Account is the persisted user record. Lockout is not stored as a state of
// its own; it is derived from FailedLoginCount and LastFailedLoginAt.
type Account struct {
	ID             uint      `gorm:"primaryKey"`
	Identifier     string    `gorm:"uniqueIndex;not null"`
	CredentialHash string    `gorm:"not null"`
	CreatedAt      time.Time `gorm:"not null"`
	LastLoginAt    *time.Time

	IsActive      bool `gorm:"not null"`
	DeactivatedAt *time.Time

	IsVerified            bool    `gorm:"not null;default:false"`
	VerificationToken     *string `gorm:"index"`
	VerificationExpiresAt *time.Time

	FailedLoginCount  int `gorm:"not null;default:0"`
	LastFailedLoginAt *time.Time
}

func (Account) TableName() string {
	return "accounts"
}

// VerificationExpired reports whether the pending verification token is past
// its expiry at now.
func (a *Account) VerificationExpired(now time.Time) bool {
	return a.VerificationExpiresAt != nil && now.After(*a.VerificationExpiresAt)
}

// Throttled reports whether login attempts are currently blocked: at least
// maxFailures consecutive failures, the latest one less than window ago.
func (a *Account) Throttled(now time.Time, maxFailures int, window time.Duration) bool {
	if a.FailedLoginCount < maxFailures || a.LastFailedLoginAt == nil {
		return false
	}
	return now.Sub(*a.LastFailedLoginAt) < window
}

func (a *Account) recordFailure(now time.Time) {
	a.FailedLoginCount++
	a.LastFailedLoginAt = &now
}

func (a *Account) recordSuccess(now time.Time) {
	a.FailedLoginCount = 0
	a.LastFailedLoginAt = nil
	a.LastLoginAt = &now
}

func (a *Account) markVerified() {
	a.IsVerified = true
	a.VerificationToken = nil
	a.VerificationExpiresAt = nil
}

func (a *Account) clone() *Account {
	c := *a
	c.LastLoginAt = cloneTime(a.LastLoginAt)
	c.DeactivatedAt = cloneTime(a.DeactivatedAt)
	c.VerificationExpiresAt = cloneTime(a.VerificationExpiresAt)
	c.LastFailedLoginAt = cloneTime(a.LastFailedLoginAt)
	if a.VerificationToken != nil {
		token := *a.VerificationToken
		c.VerificationToken = &token
	}
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
