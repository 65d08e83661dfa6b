package tarantism

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/google/uuid"
)

type minLengthOpt int
type maxLengthOpt int
type patternOpt string

// MinLength sets the minimum length of a bytes/string field.
func MinLength(n int) any { return minLengthOpt(n) }

// MaxLength sets the maximum length of a bytes/string field.
func MaxLength(n int) any { return maxLengthOpt(n) }

// Pattern constrains a bytes/string field to values matching the regular
// expression. A malformed expression is a declaration error and panics.
func Pattern(expr string) any { return patternOpt(expr) }

// BytesField is a raw byte-string field with optional length and pattern
// constraints. Lengths are measured in bytes; the typed form is []byte.
type BytesField struct {
	baseField
	minLen, maxLen int
	hasMin, hasMax bool
	re             *regexp.Regexp
}

// Bytes declares a raw byte-string field.
func Bytes(name string, opts ...any) *BytesField {
	f := &BytesField{baseField: makeBaseField(name)}
	f.applyOpts(opts, f.extraOpt)
	return f
}

func (f *BytesField) extraOpt(opt any) bool {
	switch o := opt.(type) {
	case minLengthOpt:
		f.minLen, f.hasMin = int(o), true
	case maxLengthOpt:
		f.maxLen, f.hasMax = int(o), true
	case patternOpt:
		f.re = regexp.MustCompile(string(o))
	default:
		return false
	}
	return true
}

func (f *BytesField) WireType() WireType { return WireRaw }

func (f *BytesField) Validate(v any) error {
	if err, done := f.checkBase(v); done {
		return err
	}
	s, ok := asStringLike(v)
	if !ok {
		return validationErrf(f.name, "%v has incorrect type %T and could not be converted to a byte string", v, v)
	}
	return f.checkString(s, len(s))
}

func (f *BytesField) checkString(s string, length int) error {
	if f.hasMin && length < f.minLen {
		return validationErrf(f.name, "value %q length %d is less than %d", s, length, f.minLen)
	}
	if f.hasMax && length > f.maxLen {
		return validationErrf(f.name, "value %q length %d is greater than %d", s, length, f.maxLen)
	}
	if f.re != nil && !f.re.MatchString(s) {
		return validationErrf(f.name, "value %q did not match pattern %q", s, f.re.String())
	}
	return nil
}

func (f *BytesField) ToStorage(v any) ([]byte, error) {
	if isEmptyValue(v) {
		return nil, nil
	}
	s, ok := asStringLike(v)
	if !ok {
		return nil, validationErrf(f.name, "%v has incorrect type %T and could not be converted to a byte string", v, v)
	}
	return []byte(s), nil
}

func (f *BytesField) ToTyped(raw []byte) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	return append([]byte(nil), raw...), nil
}

// StringField is a text field with optional length and pattern constraints.
// Lengths are measured in runes; the storage boundary is UTF-8, and decoding
// rejects invalid byte sequences. The typed form is string.
type StringField struct {
	BytesField
}

// String declares a text field.
func String(name string, opts ...any) *StringField {
	f := &StringField{BytesField{baseField: makeBaseField(name)}}
	f.applyOpts(opts, f.extraOpt)
	return f
}

func (f *StringField) WireType() WireType { return WireStr }

func (f *StringField) Validate(v any) error {
	if err, done := f.checkBase(v); done {
		return err
	}
	s, ok := asStringLike(v)
	if !ok {
		return validationErrf(f.name, "%v has incorrect type %T and could not be converted to a string", v, v)
	}
	if !utf8.ValidString(s) {
		return validationErrf(f.name, "value %q is not valid UTF-8", s)
	}
	return f.checkString(s, utf8.RuneCountInString(s))
}

func (f *StringField) ToTyped(raw []byte) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	if !utf8.Valid(raw) {
		return nil, validationErrf(f.name, "stored value %x is not valid UTF-8", raw)
	}
	return string(raw), nil
}

// guidLength is the canonical textual UUID length.
const guidLength = 36

// GUID declares a string field with a fixed UUID length and a default that
// produces a fresh random identifier per unset record.
func GUID(name string, opts ...any) *StringField {
	f := String(name, opts...)
	f.minLen, f.hasMin = guidLength, true
	f.maxLen, f.hasMax = guidLength, true
	if !f.hasDefault {
		f.defFunc = func() any { return uuid.NewString() }
		f.hasDefault = true
	}
	return f
}

func asStringLike(v any) (string, bool) {
	switch v := v.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	case fmt.Stringer:
		return v.String(), true
	}
	return "", false
}
