package pdl

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedValueType is returned for values outside null, string,
	// integer, boolean and lists of those.
	ErrUnsupportedValueType = errors.New("unsupported value type")
	ErrEmptyValueList       = errors.New("empty value list")
)

// UnsupportedValueTypeError carries the offending field and value.
type UnsupportedValueTypeError struct {
	Field string
	Value any
}

func (e *UnsupportedValueTypeError) Error() string {
	return fmt.Sprintf("field %s: %v %T", e.Field, ErrUnsupportedValueType, e.Value)
}

func (e *UnsupportedValueTypeError) Unwrap() error { return ErrUnsupportedValueType }
