package estimator

import (
	"errors"
	"fmt"
)

// DefaultNumericFields are copied verbatim when the manifest has them.
var DefaultNumericFields = []string{
	FieldSurfaceTotal,
	FieldSurfaceCovered,
	FieldRooms,
	FieldBedrooms,
	FieldBathrooms,
}

// FrequencyFeature maps a free-text field to a frequency column.
type FrequencyFeature struct {
	Field  string
	Column string
	Table  *FrequencyTable
}

// FeatureBuilder turns a validated record into a manifest-aligned vector.
// It is immutable once built and safe for concurrent use.
type FeatureBuilder struct {
	manifest  *Manifest
	numeric   []string
	oneHot    []*CategoryTable
	frequency *FrequencyFeature
}

// NewFeatureBuilder wires the manifest with the encoded fields.
func NewFeatureBuilder(m *Manifest, numeric []string, oneHot []*CategoryTable, freq *FrequencyFeature) (*FeatureBuilder, error) {
	if m == nil {
		return nil, errors.New("manifest is required")
	}
	for _, t := range oneHot {
		if t == nil {
			return nil, errors.New("nil category table")
		}
	}
	return &FeatureBuilder{
		manifest:  m,
		numeric:   cloneStrings(numeric),
		oneHot:    append([]*CategoryTable(nil), oneHot...),
		frequency: freq,
	}, nil
}

// Manifest returns the manifest the builder targets.
func (b *FeatureBuilder) Manifest() *Manifest {
	return b.manifest
}

// Build emits one row in manifest order. Every column starts at 0. A
// one-hot choice without an indicator column is the field's base and
// leaves all of that field's indicators at 0.
func (b *FeatureBuilder) Build(rec Record) (FeatureVector, error) {
	values := make([]float64, b.manifest.Width())

	for _, name := range b.numeric {
		idx, ok := b.manifest.Index(name)
		if !ok {
			continue
		}
		v, ok := rec.Number(name)
		if !ok {
			return FeatureVector{}, fmt.Errorf("record has no numeric value for %q", name)
		}
		values[idx] = v
	}

	for _, t := range b.oneHot {
		chosen, ok := rec.String(t.Field)
		if !ok {
			return FeatureVector{}, fmt.Errorf("record has no value for encoded field %q", t.Field)
		}
		if idx, ok := t.Column(chosen); ok {
			values[idx] = 1
		}
	}

	if f := b.frequency; f != nil {
		label, ok := rec.String(f.Field)
		if !ok {
			return FeatureVector{}, fmt.Errorf("record has no value for %q", f.Field)
		}
		if idx, ok := b.manifest.Index(f.Column); ok {
			values[idx] = f.Table.Lookup(label)
		}
	}

	vec := FeatureVector{Columns: b.manifest.Columns(), Values: values}
	if vec.Width() != b.manifest.Width() {
		return FeatureVector{}, fmt.Errorf("vector width %d does not match manifest width %d", vec.Width(), b.manifest.Width())
	}
	return vec, nil
}
