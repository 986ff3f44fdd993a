package metrics

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	auth "github.com/goliatone/go-auth-flows"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorRecordsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	ctx := context.Background()

	require.NoError(t, c.Record(ctx, auth.ActivityEvent{
		Operation:  auth.OperationSignIn,
		ProviderID: "local",
		Outcome:    "success",
		Duration:   20 * time.Millisecond,
	}))
	require.NoError(t, c.Record(ctx, auth.ActivityEvent{
		Operation:  auth.OperationSignIn,
		ProviderID: "local",
		Outcome:    "failure",
		ErrorKind:  auth.KindInvalidCredentials,
		Duration:   10 * time.Millisecond,
	}))
	require.NoError(t, c.Record(ctx, auth.ActivityEvent{
		Operation:  auth.OperationSignIn,
		ProviderID: "local",
		Outcome:    "failure",
		ErrorKind:  auth.KindInvalidCredentials,
	}))

	families := gather(t, reg)

	ops := families["authflow_operations_total"]
	require.NotNil(t, ops)
	assert.Equal(t, 1.0, counterValue(ops, map[string]string{"outcome": "success"}))
	assert.Equal(t, 2.0, counterValue(ops, map[string]string{"outcome": "failure"}))

	failures := families["authflow_failures_total"]
	require.NotNil(t, failures)
	assert.Equal(t, 2.0, counterValue(failures, map[string]string{"kind": "invalid_credentials"}))

	duration := families["authflow_operation_duration_seconds"]
	require.NotNil(t, duration)
	require.Len(t, duration.GetMetric(), 1)
	assert.Equal(t, uint64(2), duration.GetMetric()[0].GetHistogram().GetSampleCount())
}

func TestCollectorAsRepositorySink(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	sink := auth.ActivitySink(c)
	require.NoError(t, sink.Record(context.Background(), auth.ActivityEvent{
		Operation:  auth.OperationSignOut,
		ProviderID: "mock",
		Outcome:    "success",
	}))

	families := gather(t, reg)
	assert.Equal(t, 1.0, counterValue(families["authflow_operations_total"], map[string]string{
		"provider":  "mock",
		"operation": "sign_out",
	}))
	assert.Nil(t, families["authflow_failures_total"])
}

func TestHandlerServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	require.NoError(t, c.Record(context.Background(), auth.ActivityEvent{
		Operation:  auth.OperationSignUp,
		ProviderID: "local",
		Outcome:    "success",
	}))

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), `authflow_operations_total{operation="sign_up",outcome="success",provider="local"} 1`)
}

func gather(t *testing.T, reg *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	out := make(map[string]*dto.MetricFamily, len(families))
	for _, mf := range families {
		out[mf.GetName()] = mf
	}
	return out
}

func counterValue(mf *dto.MetricFamily, labels map[string]string) float64 {
	if mf == nil {
		return 0
	}
	total := 0.0
	for _, m := range mf.GetMetric() {
		if matches(m, labels) {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func matches(m *dto.Metric, labels map[string]string) bool {
	for name, value := range labels {
		found := false
		for _, lp := range m.GetLabel() {
			if lp.GetName() == name && lp.GetValue() == value {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
