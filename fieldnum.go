package tarantism

import (
	"fmt"
	"math"
	"strconv"
)

type minValueOpt int64
type maxValueOpt int64

// MinValue sets the inclusive lower bound of a numeric field.
func MinValue(v int64) any { return minValueOpt(v) }

// MaxValue sets the inclusive upper bound of a numeric field.
func MaxValue(v int64) any { return maxValueOpt(v) }

// IntField is a bounds-checked 32-bit or 64-bit integer field. The typed
// form is int64; the wire form is fixed-width little-endian.
type IntField struct {
	baseField
	wide     bool
	min, max int64
}

// Int32 declares a 32-bit numeric field. Caller-supplied bounds outside the
// 32-bit range are a declaration error and panic.
func Int32(name string, opts ...any) *IntField {
	return newIntField(name, false, opts)
}

// Int64 declares a 64-bit numeric field.
func Int64(name string, opts ...any) *IntField {
	return newIntField(name, true, opts)
}

func newIntField(name string, wide bool, opts []any) *IntField {
	f := &IntField{baseField: makeBaseField(name), wide: wide}
	if wide {
		f.min, f.max = math.MinInt64, math.MaxInt64
	} else {
		f.min, f.max = math.MinInt32, math.MaxInt32
	}
	lo, hi := f.min, f.max
	f.applyOpts(opts, func(opt any) bool {
		switch o := opt.(type) {
		case minValueOpt:
			f.min = int64(o)
		case maxValueOpt:
			f.max = int64(o)
		default:
			return false
		}
		return true
	})
	if f.min < lo || f.max > hi {
		panic(fmt.Errorf("%s: bounds [%d, %d] exceed the field width's range [%d, %d]", name, f.min, f.max, lo, hi))
	}
	return f
}

func (f *IntField) WireType() WireType {
	if f.wide {
		return WireNum64
	}
	return WireNum
}

func (f *IntField) width() int {
	if f.wide {
		return 8
	}
	return 4
}

func (f *IntField) Validate(v any) error {
	if err, done := f.checkBase(v); done {
		return err
	}
	n, ok := asInt64(v)
	if !ok {
		return validationErrf(f.name, "%v could not be converted to a %d-bit integer", v, f.width()*8)
	}
	if n < f.min {
		return validationErrf(f.name, "value %d is less than %d", n, f.min)
	}
	if n > f.max {
		return validationErrf(f.name, "value %d is greater than %d", n, f.max)
	}
	return nil
}

func (f *IntField) ToStorage(v any) ([]byte, error) {
	if isEmptyValue(v) {
		return nil, nil
	}
	n, ok := asInt64(v)
	if !ok {
		return nil, validationErrf(f.name, "%v could not be converted to a %d-bit integer", v, f.width()*8)
	}
	return putWireInt(n, f.width()), nil
}

func (f *IntField) ToTyped(raw []byte) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	if len(raw) != f.width() {
		return nil, validationErrf(f.name, "stored value is %d bytes, expected %d", len(raw), f.width())
	}
	n, err := wireInt(raw)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// asInt64 coerces the value kinds accepted by numeric fields: Go integers,
// integral floats and decimal strings.
func asInt64(v any) (int64, bool) {
	switch v := v.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		if uint64(v) > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		if v > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case float32:
		return floatToInt64(float64(v))
	case float64:
		return floatToInt64(v)
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	}
	return 0, false
}

func floatToInt64(v float64) (int64, bool) {
	if v != math.Trunc(v) || v < math.MinInt64 || v >= math.MaxInt64 {
		return 0, false
	}
	return int64(v), true
}

// BoolField is a strict boolean field: only bool values validate, but any
// truthy/falsy storage representation decodes to a strict bool.
type BoolField struct {
	baseField
}

// Boolean declares a boolean field.
func Boolean(name string, opts ...any) *BoolField {
	f := &BoolField{baseField: makeBaseField(name)}
	f.applyOpts(opts, nil)
	return f
}

func (f *BoolField) WireType() WireType { return WireRaw }

func (f *BoolField) Validate(v any) error {
	if err, done := f.checkBase(v); done {
		return err
	}
	if _, ok := v.(bool); !ok {
		return validationErrf(f.name, "%v has incorrect type %T, expected bool", v, v)
	}
	return nil
}

func (f *BoolField) ToStorage(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	b, ok := v.(bool)
	if !ok {
		return nil, validationErrf(f.name, "%v has incorrect type %T, expected bool", v, v)
	}
	if b {
		return []byte{1}, nil
	}
	return []byte{0}, nil
}

func (f *BoolField) ToTyped(raw []byte) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	for _, b := range raw {
		if b != 0 {
			return true, nil
		}
	}
	return false, nil
}
