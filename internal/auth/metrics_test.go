package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCollector_NilIsSafe(t *testing.T) {
	var mc *MetricsCollector
	assert.NotPanics(t, func() {
		mc.Observe(opLogin, time.Now(), nil)
		mc.NotificationSent(errors.New("down"))
	})
}

func TestMetricsCollector_Registers(t *testing.T) {
	reg := prometheus.NewRegistry()
	mc := NewMetricsCollector(reg)

	mc.Observe(opLogin, time.Now(), nil)
	mc.NotificationSent(nil)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.ElementsMatch(t, []string{
		"accounts_operations_total",
		"accounts_operation_duration_seconds",
		"accounts_verification_notifications_total",
	}, names)
}

func TestMetricsCollector_ServiceOutcomes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerVerified(t, testIdentifier, testPassword)

	_, _ = env.service.Login(ctx, testIdentifier, "Wrong1Pwd!")
	_, _ = env.service.Login(ctx, testIdentifier, testPassword)
	_, _ = env.service.Login(ctx, "nobody@example.com", testPassword)

	ops := env.metrics.operations
	assert.Equal(t, 1.0, testutil.ToFloat64(ops.WithLabelValues(opRegister, outcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(ops.WithLabelValues(opValidate, outcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(ops.WithLabelValues(opLogin, outcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(ops.WithLabelValues(opLogin, string(KindUnauthorized))))
	assert.Equal(t, 1.0, testutil.ToFloat64(ops.WithLabelValues(opLogin, string(KindNotFound))))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.notifications.WithLabelValues("delivered")))

	env.gateway.err = errors.New("relay down")
	_, _ = env.service.Register(ctx, "other@example.com", testPassword)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.notifications.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(ops.WithLabelValues(opRegister, string(KindDependency))))
}
