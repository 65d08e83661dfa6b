package tarantism

import (
	"fmt"
)

// Field is a typed slot descriptor within a model: it validates typed
// values and converts them to and from their storage encoding. A Field
// never holds instance data; it is shared by every record of its model.
//
// Fields are created by the package's constructors (Int32, String, GUID,
// DateTime, ...) and bound to a name and a 1-based tuple position when the
// model is defined.
type Field interface {
	Name() string

	// Position is the field's 1-based position in the physical tuple,
	// assigned by declaration order when the model is defined. Zero until
	// the field is added to a model.
	Position() int

	Required() bool
	PrimaryKey() bool

	// IndexName is the name of the index declared for this field via
	// DBIndex, or "" when the field is not indexed.
	IndexName() string

	// WireType tags the field's storage representation for index parts and
	// select requests.
	WireType() WireType

	// Validate checks a typed value against the field's constraints. The
	// base contract runs first: a required field rejects empty/absent
	// values; an optional empty value passes with no further checks.
	Validate(v any) error

	// ToStorage encodes a typed value. nil encodes as the empty element.
	ToStorage(v any) ([]byte, error)

	// ToTyped decodes a storage element. ToTyped(ToStorage(v)) == v for
	// every v that passes Validate; the empty element decodes as nil.
	ToTyped(raw []byte) (any, error)

	defaultValue() (any, bool)
	setPosition(pos int)
}

// FieldOption configures the base attributes shared by every field kind.
type FieldOption func(*baseField)

// Required makes the field reject empty/absent values during validation.
func Required() FieldOption {
	return func(f *baseField) { f.required = true }
}

// Default sets a literal default value, applied once at record construction.
func Default(v any) FieldOption {
	return func(f *baseField) {
		f.def = v
		f.hasDefault = true
	}
}

// DefaultFunc sets a default value producer, invoked per unset record.
func DefaultFunc(fn func() any) FieldOption {
	return func(f *baseField) {
		f.defFunc = fn
		f.hasDefault = true
	}
}

// PrimaryKey marks the field as the model's primary key. The field becomes
// queryable through the primary index, which is named after the field
// unless DBIndex overrides it.
func PrimaryKey() FieldOption {
	return func(f *baseField) {
		f.primaryKey = true
		if f.indexName == "" {
			f.indexName = f.name
		}
	}
}

// DBIndex declares that the field is backed by the named index, making it
// usable in QuerySet.Filter.
func DBIndex(name string) FieldOption {
	return func(f *baseField) { f.indexName = name }
}

type baseField struct {
	name       string
	pos        int
	required   bool
	def        any
	defFunc    func() any
	hasDefault bool
	primaryKey bool
	indexName  string
}

func makeBaseField(name string) baseField {
	if name == "" {
		panic(fmt.Errorf("field name must not be empty"))
	}
	return baseField{name: name}
}

func (f *baseField) Name() string       { return f.name }
func (f *baseField) Position() int      { return f.pos }
func (f *baseField) Required() bool     { return f.required }
func (f *baseField) PrimaryKey() bool   { return f.primaryKey }
func (f *baseField) IndexName() string  { return f.indexName }
func (f *baseField) setPosition(pos int) { f.pos = pos }

func (f *baseField) defaultValue() (any, bool) {
	if !f.hasDefault {
		return nil, false
	}
	if f.defFunc != nil {
		return f.defFunc(), true
	}
	return f.def, true
}

// applyOpts applies shared options and hands anything else to the concrete
// field's extra handler. Unknown options are a programmer error.
func (f *baseField) applyOpts(opts []any, extra func(opt any) bool) {
	for _, opt := range opts {
		switch o := opt.(type) {
		case FieldOption:
			o(f)
		default:
			if extra == nil || !extra(opt) {
				panic(fmt.Errorf("%s: invalid field option %T %v", f.name, opt, opt))
			}
		}
	}
}

// checkBase enforces the required-field contract shared by all field kinds.
// The second result is true when validation should stop here (empty value
// on an optional field).
func (f *baseField) checkBase(v any) (error, bool) {
	if isEmptyValue(v) {
		if f.required {
			return validationErrf(f.name, "value is required"), true
		}
		return nil, true
	}
	return nil, false
}

func isEmptyValue(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []byte:
		return len(v) == 0
	}
	return false
}
