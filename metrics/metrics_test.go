package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/TeraWattHour/go-authstore"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAdapter answers the calls the tests make; anything else panics on the nil embed.
type stubAdapter struct {
	authstore.Adapter

	users map[string]*authstore.User
	err   error
}

func (s *stubAdapter) GetUser(_ context.Context, id string) (*authstore.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.users[id], nil
}

func (s *stubAdapter) DeleteSession(_ context.Context, _ string) error {
	return s.err
}

func counterValue(t *testing.T, reg *prometheus.Registry, labels map[string]string) float64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != "authstore_operations_total" {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue metrics
				}
			}
			return m.GetCounter().GetValue()
		}
	}

	return 0
}

func TestInstrumentRecordsResults(t *testing.T) {
	reg := prometheus.NewRegistry()
	stub := &stubAdapter{users: map[string]*authstore.User{"u1": {ID: "u1", Email: "a@example.com"}}}
	a := Instrument(stub, reg)
	ctx := context.Background()

	user, err := a.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)

	user, err = a.GetUser(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, user)

	_, err = a.GetUser(ctx, "missing")
	require.NoError(t, err)

	assert.Equal(t, float64(1), counterValue(t, reg, map[string]string{"operation": "get_user", "result": "ok"}))
	assert.Equal(t, float64(2), counterValue(t, reg, map[string]string{"operation": "get_user", "result": "absent"}))
}

func TestInstrumentRecordsErrors(t *testing.T) {
	reg := prometheus.NewRegistry()
	boom := errors.New("boom")
	a := Instrument(&stubAdapter{err: boom}, reg)
	ctx := context.Background()

	_, err := a.GetUser(ctx, "u1")
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, a.DeleteSession(ctx, "token"), boom)

	assert.Equal(t, float64(1), counterValue(t, reg, map[string]string{"operation": "get_user", "result": "error"}))
	assert.Equal(t, float64(1), counterValue(t, reg, map[string]string{"operation": "delete_session", "result": "error"}))
}

func TestInstrumentRecordsDuration(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := Instrument(&stubAdapter{}, reg)

	require.NoError(t, a.DeleteSession(context.Background(), "token"))

	families, err := reg.Gather()
	require.NoError(t, err)

	var samples uint64
	for _, mf := range families {
		if mf.GetName() == "authstore_operation_duration_seconds" {
			samples = mf.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	assert.Equal(t, uint64(1), samples)
}

func TestHandlerServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := Instrument(&stubAdapter{}, reg)
	require.NoError(t, a.DeleteSession(context.Background(), "token"))

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `authstore_operations_total{operation="delete_session",result="ok"} 1`)
}
