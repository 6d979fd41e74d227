package auth

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

// Fields whose zero value is meaningful must not carry a gorm default, or
// Create silently drops the zero value and the column default wins.
func TestAccountSchema_ZeroValuesAreWritten(t *testing.T) {
	s, err := schema.Parse(&Account{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)
	assert.Equal(t, "accounts", s.Table)

	field := s.LookUpField("IsActive")
	require.NotNil(t, field)
	assert.Equal(t, "is_active", field.DBName)
	assert.False(t, field.HasDefaultValue)
}

func TestAccount_Throttled(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	last := now.Add(-time.Minute)

	tests := []struct {
		name     string
		count    int
		last     *time.Time
		expected bool
	}{
		{name: "no failures", count: 0, expected: false},
		{name: "below limit", count: 4, last: &last, expected: false},
		{name: "at limit inside window", count: 5, last: &last, expected: true},
		{name: "above limit inside window", count: 7, last: &last, expected: true},
		{name: "at limit without timestamp", count: 5, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Account{FailedLoginCount: tt.count, LastFailedLoginAt: tt.last}
			assert.Equal(t, tt.expected, a.Throttled(now, 5, 2*time.Minute))
		})
	}

	a := &Account{FailedLoginCount: 5, LastFailedLoginAt: &last}
	assert.False(t, a.Throttled(last.Add(2*time.Minute), 5, 2*time.Minute))
}
