package estimator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prediction outcomes reported by the predictions_total counter.
const (
	OutcomeOK         = "ok"
	OutcomeInvalid    = "invalid"
	OutcomeFeature    = "feature_error"
	OutcomePrediction = "prediction_error"
)

// Metrics are the collectors a Service reports to.
type Metrics struct {
	Predictions        *prometheus.CounterVec
	PredictionDuration prometheus.Histogram
	ValidationFailures *prometheus.CounterVec
}

// NewMetrics registers the collectors with reg. A nil reg leaves them
// unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Predictions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tasador_predictions_total",
				Help: "Total number of prediction requests by outcome",
			},
			[]string{"outcome"},
		),
		PredictionDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tasador_prediction_duration_seconds",
				Help:    "Duration of successful predictions in seconds",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
			},
		),
		ValidationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tasador_validation_failures_total",
				Help: "Total number of rejected inputs by error kind",
			},
			[]string{"kind"},
		),
	}
}

func (m *Metrics) observe(err error, seconds float64) {
	if m == nil {
		return
	}
	if err == nil {
		m.Predictions.WithLabelValues(OutcomeOK).Inc()
		m.PredictionDuration.Observe(seconds)
		return
	}
	kind := KindOf(err)
	switch {
	case kind.UserCorrectable():
		m.Predictions.WithLabelValues(OutcomeInvalid).Inc()
		m.ValidationFailures.WithLabelValues(string(kind)).Inc()
	case kind == ErrFeatureConstruction:
		m.Predictions.WithLabelValues(OutcomeFeature).Inc()
	default:
		m.Predictions.WithLabelValues(OutcomePrediction).Inc()
	}
}
