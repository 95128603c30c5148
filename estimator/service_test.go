package estimator

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestService(t *testing.T) (*Service, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	svc, err := NewService(fixtureConfig(t, nil), zaptest.NewLogger(t), reg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc, reg
}

func TestServicePredict(t *testing.T) {
	svc, _ := newTestService(t)

	p, err := svc.Predict(context.Background(), palermo())
	require.NoError(t, err)
	assert.Equal(t, "$ 72.672.000,00", p.Formatted)
	_, err = uuid.Parse(p.ID)
	assert.NoError(t, err)
	assert.Equal(t, 11, p.Vector.Width())
}

func TestServicePredictNamedMissingField(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.PredictNamed(context.Background(), map[string]any{
		FieldSurfaceTotal: "60",
		FieldRooms:        "2",
	})
	assert.Equal(t, ErrEmptyField, KindOf(err))
}

func TestServiceMetrics(t *testing.T) {
	svc, reg := newTestService(t)
	ctx := context.Background()

	_, err := svc.Predict(ctx, palermo())
	require.NoError(t, err)
	_, err = svc.Predict(ctx, with(palermo(), 1, 99.0))
	require.Error(t, err)
	_, err = svc.Predict(ctx, with(palermo(), 5, "Loft"))
	require.Error(t, err)

	m := svc.metrics
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Predictions.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Predictions.WithLabelValues(OutcomeInvalid)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ValidationFailures.WithLabelValues(string(ErrSurfaceMismatch))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ValidationFailures.WithLabelValues(string(ErrInvalidChoice))))

	n, err := testutil.GatherAndCount(reg, "tasador_prediction_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestServiceConcurrentPredict(t *testing.T) {
	svc, _ := newTestService(t)
	done := make(chan string, 16)
	for i := 0; i < cap(done); i++ {
		go func() {
			p, err := svc.Predict(context.Background(), palermo())
			if err != nil {
				done <- err.Error()
				return
			}
			done <- p.Formatted
		}()
	}
	for i := 0; i < cap(done); i++ {
		assert.Equal(t, "$ 72.672.000,00", <-done)
	}
}

func TestServiceCanceledContext(t *testing.T) {
	svc, _ := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Predict(ctx, palermo())
	assert.Equal(t, ErrPredictionFailed, KindOf(err))
}
