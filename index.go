package tarantism

import (
	"strings"
)

// IndexDef declares one index over a model's fields, by name rather than
// position. Name defaults to the underscore-joined field names, Kind to
// IndexTree.
type IndexDef struct {
	Name   string
	Kind   IndexKind
	Fields []string
	Unique bool
}

// IndexInfo is a physical index descriptor enriched with field names
// resolved through the model's positional schema. Fields holds "" for a
// part whose position is outside the declared schema.
type IndexInfo struct {
	Name   string
	Kind   IndexKind
	Unique bool
	Fields []string
	Parts  []IndexPart
}

// CreateSpace provisions the model's space. Provisioning is idempotent:
// an "already exists" answer from the store is swallowed, anything else
// propagates.
func (m *Model) CreateSpace(st Store) error {
	err := st.CreateSpace(m.space, m.spaceArgs)
	if err != nil && !IsIgnorable(err) {
		return err
	}
	return nil
}

// CreateIndex provisions one index, resolving each declared field to its
// (position, wire type) part in the given order. Idempotent the same way
// CreateSpace is.
func (m *Model) CreateIndex(st Store, def IndexDef) error {
	if len(def.Fields) == 0 {
		return fieldErrf(m.space, "", "index needs at least one field")
	}
	parts := make([]IndexPart, len(def.Fields))
	for i, name := range def.Fields {
		f := m.fieldsByName[name]
		if f == nil {
			return fieldErrf(m.space, name, "model does not have this field")
		}
		parts[i] = IndexPart{Field: f.Position(), Type: f.WireType()}
	}
	name := def.Name
	if name == "" {
		name = strings.Join(def.Fields, "_")
	}
	err := st.CreateIndex(m.space, name, def.Kind, parts, def.Unique)
	if err != nil && !IsIgnorable(err) {
		return err
	}
	return nil
}

// Provision creates the space, a unique primary index over the primary key
// field, and one non-unique index per DBIndex-declared field. Safe to call
// on every startup.
func (m *Model) Provision(st Store) error {
	if err := m.CreateSpace(st); err != nil {
		return err
	}
	if pk := m.pk; pk != nil {
		err := m.CreateIndex(st, IndexDef{Name: pk.IndexName(), Fields: []string{pk.Name()}, Unique: true})
		if err != nil {
			return err
		}
	}
	for _, f := range m.fields {
		if f.IndexName() == "" || f == m.pk {
			continue
		}
		err := m.CreateIndex(st, IndexDef{Name: f.IndexName(), Fields: []string{f.Name()}})
		if err != nil {
			return err
		}
	}
	return nil
}

// Indexes reports the space's physical indexes with part positions mapped
// back to declared field names.
func (m *Model) Indexes(st Store) ([]IndexInfo, error) {
	descs, err := st.Indexes(m.space)
	if err != nil {
		return nil, err
	}
	infos := make([]IndexInfo, len(descs))
	for i, d := range descs {
		info := IndexInfo{
			Name:   d.Name,
			Kind:   d.Kind,
			Unique: d.Unique,
			Fields: make([]string, len(d.Parts)),
			Parts:  d.Parts,
		}
		for j, p := range d.Parts {
			info.Fields[j] = m.FieldName(p.Field)
		}
		infos[i] = info
	}
	return infos, nil
}
