package estimator

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// Estimator is the immutable pipeline context: schema, feature builder and
// predictor. It is safe to share across goroutines.
type Estimator struct {
	validator *Validator
	builder   *FeatureBuilder
	predictor Predictor
}

// New assembles the default property pipeline from loaded artifacts.
func New(a *Artifacts) (*Estimator, error) {
	if a == nil {
		return nil, errors.New("artifacts are required")
	}
	schema := DefaultSchema(a.PropertyTypes.Categories, a.States.Categories, a.Places.Labels())
	builder, err := NewFeatureBuilder(
		a.Manifest,
		DefaultNumericFields,
		[]*CategoryTable{a.PropertyTypes, a.States},
		&FrequencyFeature{Field: FieldPlaceName, Column: ColumnPlaceFrequency, Table: a.Places},
	)
	if err != nil {
		return nil, err
	}
	return NewEstimator(schema, builder, a.Predictor)
}

// NewEstimator wires custom parts. A predictor with a declared width must
// agree with the manifest.
func NewEstimator(schema Schema, builder *FeatureBuilder, predictor Predictor) (*Estimator, error) {
	if builder == nil {
		return nil, errors.New("feature builder is required")
	}
	if predictor == nil {
		return nil, errors.New("predictor is required")
	}
	if w := predictor.Width(); w > 0 && w != builder.Manifest().Width() {
		return nil, fmt.Errorf("predictor expects %d features, manifest has %d", w, builder.Manifest().Width())
	}
	return &Estimator{
		validator: NewValidator(schema),
		builder:   builder,
		predictor: predictor,
	}, nil
}

// Schema returns the form contract.
func (e *Estimator) Schema() Schema {
	return e.validator.Schema()
}

// Manifest returns the expected columns.
func (e *Estimator) Manifest() *Manifest {
	return e.builder.Manifest()
}

// Validate checks positional raw inputs.
func (e *Estimator) Validate(raw RawInputs) (Record, error) {
	return e.validator.Validate(raw)
}

// ValidateNamed checks name-keyed raw inputs.
func (e *Estimator) ValidateNamed(values map[string]any) (Record, error) {
	return e.validator.ValidateNamed(values)
}

// Features builds the vector for rec. Any failure, including a panic, comes
// back as a FeatureConstructionError.
func (e *Estimator) Features(rec Record) (vec FeatureVector, err error) {
	defer func() {
		if r := recover(); r != nil {
			vec = FeatureVector{}
			err = featureError(fmt.Errorf("panic: %v", r))
		}
	}()
	vec, err = e.builder.Build(rec)
	if err != nil {
		return FeatureVector{}, featureError(err)
	}
	return vec, nil
}

// Estimate runs the predictor once. Failures, including a non-finite
// output, are PredictionFailed.
func (e *Estimator) Estimate(ctx context.Context, vec FeatureVector) (y float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			y = 0
			err = predictionError(fmt.Errorf("panic: %v", r))
		}
	}()
	y, err = e.predictor.Predict(ctx, vec)
	if err != nil {
		return 0, predictionError(err)
	}
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return 0, predictionError(fmt.Errorf("model returned %v", y))
	}
	return y, nil
}

// Run executes validate, build and predict for positional inputs.
func (e *Estimator) Run(ctx context.Context, raw RawInputs) (Prediction, error) {
	rec, err := e.Validate(raw)
	if err != nil {
		return Prediction{}, err
	}
	return e.runRecord(ctx, rec)
}

func (e *Estimator) runRecord(ctx context.Context, rec Record) (Prediction, error) {
	vec, err := e.Features(rec)
	if err != nil {
		return Prediction{}, err
	}
	y, err := e.Estimate(ctx, vec)
	if err != nil {
		return Prediction{}, err
	}
	return Prediction{Value: y, Formatted: FormatARS(y), Vector: vec}, nil
}
