package tarantism

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateTimeLayout is the fixed textual timestamp format used on the storage
// boundary. Values are stored in UTC.
const DateTimeLayout = "2006-01-02 15:04:05.000000"

// DateTimeField stores timestamps as fixed-format UTC text. An unset (or
// zero) value serializes as the explicit empty-string sentinel, not a null.
// The typed form is time.Time in UTC.
type DateTimeField struct {
	baseField
}

// DateTime declares a timestamp field.
func DateTime(name string, opts ...any) *DateTimeField {
	f := &DateTimeField{baseField: makeBaseField(name)}
	f.applyOpts(opts, nil)
	return f
}

func (f *DateTimeField) WireType() WireType { return WireStr }

func (f *DateTimeField) Validate(v any) error {
	if err, done := f.checkBase(v); done {
		return err
	}
	if _, ok := v.(time.Time); !ok {
		return validationErrf(f.name, "%v has incorrect type %T, expected time.Time", v, v)
	}
	return nil
}

func (f *DateTimeField) ToStorage(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	t, ok := v.(time.Time)
	if !ok {
		return nil, validationErrf(f.name, "%v has incorrect type %T, expected time.Time", v, v)
	}
	if t.IsZero() {
		return nil, nil
	}
	return []byte(t.UTC().Format(DateTimeLayout)), nil
}

func (f *DateTimeField) ToTyped(raw []byte) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	t, err := time.ParseInLocation(DateTimeLayout, string(raw), time.UTC)
	if err != nil {
		return nil, validationErrf(f.name, "stored value %q is not a %q timestamp", raw, DateTimeLayout)
	}
	return t, nil
}

// DecimalField stores exact decimal values as their canonical string form;
// no binary float rounding occurs on either boundary. The typed form is
// decimal.Decimal.
type DecimalField struct {
	baseField
}

// Decimal declares an exact decimal field.
func Decimal(name string, opts ...any) *DecimalField {
	f := &DecimalField{baseField: makeBaseField(name)}
	f.applyOpts(opts, nil)
	return f
}

func (f *DecimalField) WireType() WireType { return WireStr }

func (f *DecimalField) Validate(v any) error {
	if err, done := f.checkBase(v); done {
		return err
	}
	_, err := f.coerce(v)
	return err
}

func (f *DecimalField) coerce(v any) (decimal.Decimal, error) {
	switch v := v.(type) {
	case decimal.Decimal:
		return v, nil
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Decimal{}, validationErrf(f.name, "%q could not be converted to a decimal", v)
		}
		return d, nil
	default:
		return decimal.Decimal{}, validationErrf(f.name, "%v has incorrect type %T, expected decimal.Decimal", v, v)
	}
}

func (f *DecimalField) ToStorage(v any) ([]byte, error) {
	if isEmptyValue(v) {
		return nil, nil
	}
	d, err := f.coerce(v)
	if err != nil {
		return nil, err
	}
	return []byte(d.String()), nil
}

func (f *DecimalField) ToTyped(raw []byte) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	d, err := decimal.NewFromString(string(raw))
	if err != nil {
		return nil, validationErrf(f.name, "stored value %q is not a decimal", raw)
	}
	return d, nil
}
