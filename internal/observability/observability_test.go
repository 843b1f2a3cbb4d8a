package observability

import (
	"context"
	"testing"

	"leadchat/src/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegisterOnCustomRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ChatRequests.WithLabelValues("ok").Inc()
	m.ProviderAttempts.WithLabelValues("openai", "failure").Inc()
	m.ProviderAttempts.WithLabelValues("fallback", "success").Inc()
	m.LeadScore.Observe(75)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChatRequests.WithLabelValues("ok")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.ProviderAttempts))

	// a second registry keeps collectors independent
	other := NewMetrics(prometheus.NewRegistry())
	assert.Equal(t, 0.0, testutil.ToFloat64(other.ChatRequests.WithLabelValues("ok")))
}

func TestInitTracingDisabledIsNoop(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), model.TracingConfig{})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
