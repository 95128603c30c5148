package estimator

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// Predictor is an already-fitted regression artifact. Width is fixed at
// load time; Predict never retries.
type Predictor interface {
	Predict(ctx context.Context, vec FeatureVector) (float64, error)
	Width() int
	Close() error
}

// LinearModel is a JSON-encoded linear regression keyed by manifest column.
// It stands in for the ONNX model where the runtime library is unavailable.
type LinearModel struct {
	Intercept float64   `json:"intercept"`
	Weights   []float64 `json:"-"`
}

// linearModelFile is the on-disk shape of a linear model artifact.
type linearModelFile struct {
	Intercept    float64            `json:"intercept"`
	Coefficients map[string]float64 `json:"coefficients"`
}

// NewLinearModel aligns named coefficients with the manifest. Columns
// without a coefficient weigh 0; coefficients for unknown columns are an
// error.
func NewLinearModel(intercept float64, coefficients map[string]float64, m *Manifest) (*LinearModel, error) {
	if m == nil {
		return nil, errors.New("manifest is required")
	}
	weights := make([]float64, m.Width())
	for col, w := range coefficients {
		idx, ok := m.Index(col)
		if !ok {
			return nil, fmt.Errorf("coefficient for unknown column %q", col)
		}
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("coefficient for %q is not finite", col)
		}
		weights[idx] = w
	}
	return &LinearModel{Intercept: intercept, Weights: weights}, nil
}

// Width returns the expected vector width.
func (l *LinearModel) Width() int {
	return len(l.Weights)
}

// Predict returns intercept + w·x.
func (l *LinearModel) Predict(ctx context.Context, vec FeatureVector) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if vec.Width() != len(l.Weights) {
		return 0, fmt.Errorf("expected %d features, got %d", len(l.Weights), vec.Width())
	}
	y := l.Intercept
	for i, x := range vec.Values {
		y += l.Weights[i] * x
	}
	return y, nil
}

// Close is a no-op.
func (l *LinearModel) Close() error {
	return nil
}

// PredictorFunc adapts a function to the Predictor interface.
type PredictorFunc struct {
	N  int
	Fn func(ctx context.Context, vec FeatureVector) (float64, error)
}

func (p PredictorFunc) Predict(ctx context.Context, vec FeatureVector) (float64, error) {
	return p.Fn(ctx, vec)
}

func (p PredictorFunc) Width() int { return p.N }

func (p PredictorFunc) Close() error { return nil }
