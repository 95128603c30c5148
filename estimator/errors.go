package estimator

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a request failure.
type ErrorKind string

const (
	ErrEmptyField           ErrorKind = "EMPTY_FIELD"
	ErrNotNumeric           ErrorKind = "NOT_NUMERIC"
	ErrBelowMinimum         ErrorKind = "BELOW_MINIMUM"
	ErrAboveMaximum         ErrorKind = "ABOVE_MAXIMUM"
	ErrInvalidChoice        ErrorKind = "INVALID_CHOICE"
	ErrSurfaceMismatch      ErrorKind = "SURFACE_MISMATCH"
	ErrBedroomsExceedRooms  ErrorKind = "BEDROOMS_EXCEED_ROOMS"
	ErrBathroomsExceedRooms ErrorKind = "BATHROOMS_EXCEED_ROOMS"

	ErrFeatureConstruction ErrorKind = "FEATURE_CONSTRUCTION_ERROR"
	ErrPredictionFailed    ErrorKind = "PREDICTION_FAILED"
)

// UserCorrectable is true for validation kinds: resubmitting corrected input
// can succeed.
func (k ErrorKind) UserCorrectable() bool {
	switch k {
	case ErrEmptyField, ErrNotNumeric, ErrBelowMinimum, ErrAboveMaximum, ErrInvalidChoice,
		ErrSurfaceMismatch, ErrBedroomsExceedRooms, ErrBathroomsExceedRooms:
		return true
	}
	return false
}

// Error is a request-scoped failure. Message is the user-facing text.
type Error struct {
	Kind    ErrorKind
	Field   string
	Label   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Details returns the underlying diagnostic, if any.
func (e *Error) Details() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func fieldError(kind ErrorKind, f FieldSpec, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Field:   f.Name,
		Label:   f.Label,
		Message: fmt.Sprintf(format, args...),
	}
}

func featureError(err error) *Error {
	return &Error{
		Kind:    ErrFeatureConstruction,
		Message: "No se pudo construir el vector de entrada",
		Err:     err,
	}
}

func predictionError(err error) *Error {
	return &Error{
		Kind:    ErrPredictionFailed,
		Message: "El modelo no pudo predecir. Revisa que las columnas coincidan con el manifiesto de columnas.",
		Err:     err,
	}
}
