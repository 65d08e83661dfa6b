package tarantism

import (
	"errors"
	"fmt"
)

// ValidationError means a field value failed its declared constraints.
// It is returned by Field.Validate and Record.Validate and is never
// corrected silently.
type ValidationError struct {
	Field string
	Msg   string
}

func validationErrf(field string, format string, args ...any) error {
	return &ValidationError{field, fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s field error: %s", e.Field, e.Msg)
}

// FieldError means a query, update or result tuple referenced a field in a
// way that disagrees with the declared schema (unknown field, field without
// an index, or a tuple wider than the schema).
type FieldError struct {
	Model string
	Field string
	Msg   string
}

func fieldErrf(model, field string, format string, args ...any) error {
	return &FieldError{model, field, fmt.Sprintf(format, args...)}
}

func (e *FieldError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s model, %s field: %s", e.Model, e.Field, e.Msg)
	}
	return fmt.Sprintf("%s model: %s", e.Model, e.Msg)
}

// NotFoundError is returned by QuerySet.Get when no row matches.
type NotFoundError struct {
	Model string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s instance does not exist", e.Model)
}

// MultipleObjectsError is returned by QuerySet.Get when the filter matches
// more than one row.
type MultipleObjectsError struct {
	Model string
	Count int
}

func (e *MultipleObjectsError) Error() string {
	return fmt.Sprintf("Get returned more than one %s: it returned %d", e.Model, e.Count)
}

// StoreError is an error reported by a Store, carrying the store's numeric
// cause code. The codes are a contract with the concrete store; the bundled
// stores emit the Code* constants from store.go.
type StoreError struct {
	Code int
	Msg  string
	Err  error
}

func storeErrf(code int, format string, args ...any) error {
	return &StoreError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("store error %d: %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("store error %d: %s", e.Code, e.Msg)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeErrCode(err error) (int, bool) {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Code, true
	}
	return 0, false
}

// IsIgnorable reports whether err is a store error that idempotent
// provisioning is expected to swallow (space/index already exists, or the
// store's generic ignorable code). Anything else, including nil, is not
// ignorable and must propagate unchanged.
func IsIgnorable(err error) bool {
	code, ok := storeErrCode(err)
	if !ok {
		return false
	}
	return code == CodeSpaceExists || code == CodeIndexExists || code == CodeGenericIgnorable
}

// IsSpaceExists reports whether err is the "space already exists" store error.
func IsSpaceExists(err error) bool {
	code, ok := storeErrCode(err)
	return ok && code == CodeSpaceExists
}

// IsIndexExists reports whether err is the "index already exists" store error.
func IsIndexExists(err error) bool {
	code, ok := storeErrCode(err)
	return ok && code == CodeIndexExists
}
