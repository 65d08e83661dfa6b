package tarantism

import (
	"fmt"
	"strings"
)

// Schema is a collection of model definitions. Models are expected to be
// defined once at process start, before any concurrent use.
type Schema struct {
	models       []*Model
	modelsByName map[string]*Model
}

func NewSchema() *Schema {
	return &Schema{
		modelsByName: make(map[string]*Model),
	}
}

func (scm *Schema) Models() []*Model {
	return append([]*Model(nil), scm.models...)
}

func (scm *Schema) ModelNamed(space string) *Model {
	return scm.modelsByName[strings.ToLower(space)]
}

// Model is a declarative record schema mapped onto one space: an ordered
// field list fixing the positional tuple contract, plus meta (store alias,
// space-creation args, tuple shape checking).
type Model struct {
	schema           *Schema
	space            string
	alias            string
	spaceArgs        SpaceArgs
	checkTupleLength bool
	fields           []Field // declaration order == tuple positions 1..N
	fieldsByName     map[string]Field
	pk               Field
}

// ModelBuilder collects a model's fields and meta during DefineModel.
type ModelBuilder struct {
	m *Model
}

// DefineModel registers a model for the named space. Fields get their
// 1-based tuple position from the order of Field calls; that ordering is
// permanent for the life of the process and must match the physical tuple
// layout. Once a space holds data, fields may only be appended.
func DefineModel(scm *Schema, space string, f func(b *ModelBuilder)) *Model {
	if space == "" {
		panic(fmt.Errorf("DefineModel: space name must not be empty"))
	}
	if scm.modelsByName == nil {
		scm.modelsByName = make(map[string]*Model)
	}
	if scm.modelsByName[strings.ToLower(space)] != nil {
		panic(fmt.Errorf("DefineModel(%s): space already defined", space))
	}
	m := &Model{
		schema:           scm,
		space:            space,
		alias:            DefaultAlias,
		checkTupleLength: true,
		fieldsByName:     make(map[string]Field),
	}
	f(&ModelBuilder{m})
	if len(m.fields) == 0 {
		panic(fmt.Errorf("DefineModel(%s): model has no fields", space))
	}
	scm.models = append(scm.models, m)
	scm.modelsByName[strings.ToLower(space)] = m
	return m
}

// Field adds a field, fixing its tuple position, and returns it.
func (b *ModelBuilder) Field(f Field) Field {
	m := b.m
	if f.Position() != 0 {
		panic(fmt.Errorf("%s: field %s already belongs to a model", m.space, f.Name()))
	}
	if m.fieldsByName[f.Name()] != nil {
		panic(fmt.Errorf("%s: duplicate field %s", m.space, f.Name()))
	}
	if f.PrimaryKey() && m.pk != nil {
		panic(fmt.Errorf("%s: both %s and %s are marked as primary key", m.space, m.pk.Name(), f.Name()))
	}
	f.setPosition(len(m.fields) + 1)
	m.fields = append(m.fields, f)
	m.fieldsByName[f.Name()] = f
	if f.PrimaryKey() {
		m.pk = f
	}
	return f
}

// Alias sets the store registry alias the model persists through.
func (b *ModelBuilder) Alias(alias string) {
	b.m.alias = alias
}

// SpaceArgs sets engine arguments passed to the store on space creation.
func (b *ModelBuilder) SpaceArgs(args ...any) {
	b.m.spaceArgs = SpaceArgs(args)
}

// PrimaryKeyField overrides which declared field acts as the primary key
// when none carries the PrimaryKey option.
func (b *ModelBuilder) PrimaryKeyField(name string) {
	f := b.m.fieldsByName[name]
	if f == nil {
		panic(fmt.Errorf("%s: unknown primary key field %s", b.m.space, name))
	}
	b.m.pk = f
}

// DisableTupleLengthCheck turns off the defensive check that rejects result
// tuples wider than the declared schema.
func (b *ModelBuilder) DisableTupleLengthCheck() {
	b.m.checkTupleLength = false
}

func (m *Model) Space() string { return m.space }
func (m *Model) Alias() string { return m.alias }

// SpaceArgs returns the engine arguments the model passes to the store on
// space creation.
func (m *Model) SpaceArgs() SpaceArgs { return m.spaceArgs }

func (m *Model) Fields() []Field {
	return append([]Field(nil), m.fields...)
}

func (m *Model) FieldNamed(name string) Field {
	return m.fieldsByName[name]
}

// FieldName resolves a 1-based tuple position to its field name, for
// diagnostics and index introspection. Returns "" when out of range.
func (m *Model) FieldName(pos int) string {
	if pos < 1 || pos > len(m.fields) {
		return ""
	}
	return m.fields[pos-1].Name()
}

// PrimaryKeyField returns the field acting as the primary key, or nil.
func (m *Model) PrimaryKeyField() Field {
	return m.pk
}

// indexNameFor resolves the physical index a field is queryable through:
// its DBIndex name, or the field name when it is the primary key.
func (m *Model) indexNameFor(f Field) string {
	if name := f.IndexName(); name != "" {
		return name
	}
	if f == m.pk {
		return f.Name()
	}
	return ""
}

// WireTypes returns the per-position wire types of the model's tuples, as
// passed to Store.Select.
func (m *Model) WireTypes() []WireType {
	types := make([]WireType, len(m.fields))
	for i, f := range m.fields {
		types[i] = f.WireType()
	}
	return types
}

func (m *Model) store() Store {
	st, err := StoreFor(m.alias)
	if err != nil {
		panic(fmt.Errorf("%s: %w", m.space, err))
	}
	return st
}
