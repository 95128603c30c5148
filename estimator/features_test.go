package estimator

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPalermoVector(t *testing.T) {
	est := fixtureEstimator(t)
	rec, err := est.Validate(palermo())
	require.NoError(t, err)

	vec, err := est.Features(rec)
	require.NoError(t, err)

	want := FeatureVector{
		Columns: est.Manifest().Columns(),
		Values:  []float64{60, 50, 2, 1, 1, 1, 0, 0, 0, 1, 0.0412},
	}
	if diff := cmp.Diff(want, vec); diff != "" {
		t.Fatalf("vector mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildBaseCategoriesAreAllZero(t *testing.T) {
	est := fixtureEstimator(t)
	raw := RawInputs{85.0, 75.0, 3.0, 2.0, 2.0, "Casa", "Bs.As. G.B.A. Zona Norte", "San Isidro"}
	rec, err := est.Validate(raw)
	require.NoError(t, err)
	vec, err := est.Features(rec)
	require.NoError(t, err)

	for _, col := range vec.Columns {
		if v, _ := vec.Get(col); isIndicator(col) {
			assert.Zero(t, v, col)
		}
	}
	freq, ok := vec.Get(ColumnPlaceFrequency)
	require.True(t, ok)
	assert.Equal(t, 0.0203, freq)
}

func TestBuildSetsAtMostOneIndicatorPerField(t *testing.T) {
	est := fixtureEstimator(t)
	schema := est.Schema()
	props, _ := schema.Field(FieldPropertyType)
	states, _ := schema.Field(FieldStateName)

	for _, p := range props.Choices {
		for _, s := range states.Choices {
			raw := with(with(palermo(), 5, p), 6, s)
			rec, err := est.Validate(raw)
			require.NoError(t, err)
			vec, err := est.Features(rec)
			require.NoError(t, err)
			require.Equal(t, est.Manifest().Width(), vec.Width())

			assert.Equal(t, expectedOnes(p, "Casa"), countOnes(vec, "property_type_"), "%s/%s", p, s)
			assert.Equal(t, expectedOnes(s, "Bs.As. G.B.A. Zona Norte"), countOnes(vec, "state_name_"), "%s/%s", p, s)
		}
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	est := fixtureEstimator(t)
	rec, err := est.Validate(palermo())
	require.NoError(t, err)

	first, err := est.Features(rec)
	require.NoError(t, err)
	second, err := est.Features(rec)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(first, second))
}

func TestBuildUnknownPlaceIsZero(t *testing.T) {
	est := fixtureEstimator(t)
	rec := NewRecord(
		map[string]float64{FieldSurfaceTotal: 60, FieldSurfaceCovered: 50, FieldRooms: 2, FieldBedrooms: 1, FieldBathrooms: 1},
		map[string]string{FieldPropertyType: "PH", FieldStateName: "Capital Federal", FieldPlaceName: "Atlantis"},
	)
	vec, err := est.Features(rec)
	require.NoError(t, err)
	freq, ok := vec.Get(ColumnPlaceFrequency)
	require.True(t, ok)
	assert.Zero(t, freq)
}

func TestBuildIncompleteRecordIsFeatureError(t *testing.T) {
	est := fixtureEstimator(t)
	rec := NewRecord(map[string]float64{FieldSurfaceTotal: 60}, nil)
	_, err := est.Features(rec)

	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, ErrFeatureConstruction, e.Kind)
	assert.False(t, e.Kind.UserCorrectable())
	assert.Contains(t, e.Details(), FieldSurfaceCovered)
}

func TestEstimatePalermo(t *testing.T) {
	est := fixtureEstimator(t)
	p, err := est.Run(context.Background(), palermo())
	require.NoError(t, err)
	assert.InDelta(t, 72672000.0, p.Value, 1e-3)
	assert.Equal(t, "$ 72.672.000,00", p.Formatted)
}

func TestEstimateExamples(t *testing.T) {
	est := fixtureEstimator(t)
	examples := ExamplesFor(NewValidator(est.Schema()))
	require.Len(t, examples, len(Examples))

	p, err := est.Run(context.Background(), examples[1])
	require.NoError(t, err)
	assert.Equal(t, "$ 86.418.000,00", p.Formatted)
}

func TestEstimateFailures(t *testing.T) {
	est := fixtureEstimator(t)
	m := est.Manifest()
	builder, err := NewFeatureBuilder(m, DefaultNumericFields, nil, nil)
	require.NoError(t, err)

	tests := []struct {
		name string
		fn   func(context.Context, FeatureVector) (float64, error)
	}{
		{"error", func(context.Context, FeatureVector) (float64, error) { return 0, errors.New("boom") }},
		{"nan", func(context.Context, FeatureVector) (float64, error) { return math.NaN(), nil }},
		{"inf", func(context.Context, FeatureVector) (float64, error) { return math.Inf(-1), nil }},
		{"panic", func(context.Context, FeatureVector) (float64, error) { panic("bad tensor") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := NewEstimator(testSchema(), builder, PredictorFunc{N: m.Width(), Fn: tt.fn})
			require.NoError(t, err)
			_, err = e.Run(context.Background(), palermo())
			assert.Equal(t, ErrPredictionFailed, KindOf(err))
		})
	}
}

func TestNewEstimatorChecksWidth(t *testing.T) {
	m := mustManifest(t, "rooms", "bedrooms")
	builder, err := NewFeatureBuilder(m, DefaultNumericFields, nil, nil)
	require.NoError(t, err)
	_, err = NewEstimator(testSchema(), builder, PredictorFunc{N: 3})
	assert.ErrorContains(t, err, "predictor expects 3 features, manifest has 2")
}

func isIndicator(col string) bool {
	return strings.HasPrefix(col, "property_type_") || strings.HasPrefix(col, "state_name_")
}

func countOnes(vec FeatureVector, prefix string) int {
	n := 0
	for i, col := range vec.Columns {
		if strings.HasPrefix(col, prefix) && vec.Values[i] == 1 {
			n++
		}
	}
	return n
}

func expectedOnes(choice, base string) int {
	if choice == base {
		return 0
	}
	return 1
}
