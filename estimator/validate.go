package estimator

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Record is a validated, coerced set of field values. It is built by the
// Validator and consumed by the FeatureBuilder.
type Record struct {
	numbers map[string]float64
	strings map[string]string
}

// NewRecord builds a record directly, bypassing validation. It exists
// for callers that already hold clean values, such as tests and tooling.
func NewRecord(numbers map[string]float64, strs map[string]string) Record {
	r := Record{numbers: make(map[string]float64, len(numbers)), strings: make(map[string]string, len(strs))}
	for k, v := range numbers {
		r.numbers[k] = v
	}
	for k, v := range strs {
		r.strings[k] = v
	}
	return r
}

// Number returns a numeric field value.
func (r Record) Number(name string) (float64, bool) {
	v, ok := r.numbers[name]
	return v, ok
}

// String returns a choice field value.
func (r Record) String(name string) (string, bool) {
	v, ok := r.strings[name]
	return v, ok
}

// Validator checks raw values against a Schema. It holds no mutable state.
type Validator struct {
	schema Schema
}

// NewValidator returns a validator for the schema.
func NewValidator(schema Schema) *Validator {
	return &Validator{schema: schema}
}

// Schema returns the schema the validator enforces.
func (v *Validator) Schema() Schema {
	return v.schema
}

// Validate scans fields in schema order and returns the first violation.
// Cross-field rules run only after every field passed. Missing trailing
// values count as blank.
func (v *Validator) Validate(raw RawInputs) (Record, error) {
	rec := Record{
		numbers: make(map[string]float64),
		strings: make(map[string]string),
	}
	for i, f := range v.schema.Fields {
		var val any
		if i < len(raw) {
			val = raw[i]
		}
		if err := checkField(f, val, &rec); err != nil {
			return Record{}, err
		}
	}
	for _, rule := range v.schema.Rules {
		lesser, okL := rec.numbers[rule.Lesser]
		greater, okG := rec.numbers[rule.Greater]
		if !okL || !okG {
			continue
		}
		if lesser > greater {
			return Record{}, &Error{Kind: rule.Kind, Field: rule.Lesser, Message: rule.Message}
		}
	}
	return rec, nil
}

// ValidateNamed validates values keyed by field name. Absent keys are blank.
func (v *Validator) ValidateNamed(values map[string]any) (Record, error) {
	raw := make(RawInputs, len(v.schema.Fields))
	for i, f := range v.schema.Fields {
		raw[i] = values[f.Name]
	}
	return v.Validate(raw)
}

func checkField(f FieldSpec, val any, rec *Record) error {
	if isBlank(val) {
		return fieldError(ErrEmptyField, f, "'%s' no puede estar vacío.", f.Label)
	}
	switch {
	case f.Kind.Numeric():
		num, ok := coerceNumber(val)
		if !ok {
			return fieldError(ErrNotNumeric, f, "'%s' debe ser numérico.", f.Label)
		}
		if math.IsNaN(num) {
			return fieldError(ErrEmptyField, f, "'%s' no puede estar vacío.", f.Label)
		}
		if math.IsInf(num, 0) {
			return fieldError(ErrNotNumeric, f, "'%s' debe ser numérico.", f.Label)
		}
		if f.Min != nil && num < *f.Min {
			return fieldError(ErrBelowMinimum, f, "'%s' debe ser ≥ %s.", f.Label, formatBound(*f.Min))
		}
		if f.Max != nil && num > *f.Max {
			return fieldError(ErrAboveMaximum, f, "'%s' debe ser ≤ %s.", f.Label, formatBound(*f.Max))
		}
		rec.numbers[f.Name] = num
	case f.Kind == KindDropdown:
		s := NormalizeText(stringForm(val))
		if !f.HasChoice(s) {
			return fieldError(ErrInvalidChoice, f, "'%s' inválido. Debe ser una de: %s.", f.Label, strings.Join(f.Choices, ", "))
		}
		rec.strings[f.Name] = s
	default:
		rec.strings[f.Name] = stringForm(val)
	}
	return nil
}

func isBlank(val any) bool {
	switch x := val.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case *string:
		return x == nil || strings.TrimSpace(*x) == ""
	}
	return false
}

func coerceNumber(val any) (float64, bool) {
	switch x := val.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		if hasHexPrefix(x.String()) {
			return 0, false
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(x.String()), 64)
		return f, err == nil
	case string:
		if hasHexPrefix(x) {
			return 0, false
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			// ParseFloat reports out-of-range values with ±Inf and an error.
			if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
				return f, true
			}
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// hasHexPrefix reports a 0x/0X literal after an optional sign. ParseFloat
// accepts hex floats; form input does not.
func hasHexPrefix(s string) bool {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "+-")
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

func stringForm(val any) string {
	switch x := val.(type) {
	case string:
		return x
	case *string:
		return *x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return fmt.Sprint(val)
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
