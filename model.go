package tarantism

import (
	"fmt"
)

// Values maps field names to typed values.
type Values map[string]any

// Record is one live row of a model: the declared schema plus this record's
// data and persistence state. Field values live in an internal map keyed by
// field name; the map always holds exactly the declared field names, with
// nil standing for an absent value.
type Record struct {
	model  *Model
	data   map[string]any
	exists bool
}

// New constructs an in-memory (not yet persisted) record. Defaults are
// applied for every field not supplied. Unknown names are silently ignored,
// matching the constructor contract of the original layer; use Set to get
// an error for unknown fields.
func (m *Model) New(vals Values) *Record {
	r := &Record{model: m}
	r.Reset()
	for name, v := range vals {
		if f := m.fieldsByName[name]; f != nil {
			r.set(f, v)
		}
	}
	return r
}

// Reset discards the record's data and re-applies field defaults.
func (r *Record) Reset() {
	r.data = make(map[string]any, len(r.model.fields))
	for _, f := range r.model.fields {
		if def, ok := f.defaultValue(); ok {
			r.data[f.Name()] = def
		} else {
			r.data[f.Name()] = nil
		}
	}
}

func (r *Record) Model() *Model { return r.model }

// Exists reports whether the record has a persisted counterpart.
func (r *Record) Exists() bool { return r.exists }

// Get returns the current typed value of a field, nil when unset.
// An unknown field name is a programmer error and panics.
func (r *Record) Get(name string) any {
	if r.model.fieldsByName[name] == nil {
		panic(fieldErrf(r.model.space, name, "model does not have this field"))
	}
	return r.data[name]
}

// Set assigns a typed value. Setting nil applies the field's default, if
// any. Returns a FieldError for unknown fields.
func (r *Record) Set(name string, v any) error {
	f := r.model.fieldsByName[name]
	if f == nil {
		return fieldErrf(r.model.space, name, "model does not have this field")
	}
	r.set(f, v)
	return nil
}

func (r *Record) set(f Field, v any) {
	if v == nil {
		if def, ok := f.defaultValue(); ok {
			v = def
		}
	}
	r.data[f.Name()] = v
}

// Values returns a copy of the record's current field values.
func (r *Record) Values() Values {
	vals := make(Values, len(r.data))
	for name, v := range r.data {
		vals[name] = v
	}
	return vals
}

// Validate checks every declared field: a present value must pass the
// field's own constraints; an absent value fails only when the field is
// required.
func (r *Record) Validate() error {
	for _, f := range r.model.fields {
		v := r.data[f.Name()]
		if isEmptyValue(v) {
			if f.Required() {
				return validationErrf(f.Name(), "value is required")
			}
			continue
		}
		if err := f.Validate(v); err != nil {
			return err
		}
	}
	return nil
}

// ToStorage serializes the record to a field name → storage-encoded value
// map, independent of tuple position.
func (r *Record) ToStorage() (map[string][]byte, error) {
	out := make(map[string][]byte, len(r.model.fields))
	for _, f := range r.model.fields {
		raw, err := f.ToStorage(r.data[f.Name()])
		if err != nil {
			return nil, err
		}
		out[f.Name()] = raw
	}
	return out, nil
}

// Save validates the record, then inserts it (never persisted) or updates
// the persisted row keyed by primary key. The store is resolved through the
// model's alias.
func (r *Record) Save() error {
	return r.SaveTo(r.model.store())
}

// SaveTo is Save against an explicit store.
func (r *Record) SaveTo(st Store) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if r.exists {
		return r.updateIn(st, r.Values())
	}
	return r.insertIn(st)
}

func (r *Record) insertIn(st Store) error {
	tup := make(RawTuple, len(r.model.fields))
	for i, f := range r.model.fields {
		raw, err := f.ToStorage(r.data[f.Name()])
		if err != nil {
			return err
		}
		tup[i] = raw
	}
	if err := st.Insert(r.model.space, tup); err != nil {
		return err
	}
	r.exists = true
	return nil
}

// Delete removes the persisted row keyed by primary key. The record is
// marked not-persisted regardless of the outcome and stays usable in
// memory; the result reports whether a row was actually removed.
func (r *Record) Delete() (bool, error) {
	return r.DeleteFrom(r.model.store())
}

// DeleteFrom is Delete against an explicit store.
func (r *Record) DeleteFrom(st Store) (bool, error) {
	key, err := r.primaryKeyTuple()
	if err != nil {
		return false, err
	}
	removed, err := st.Delete(r.model.space, key)
	r.exists = false
	return removed, err
}

// primaryKeyTuple resolves and encodes the record's primary key value.
func (r *Record) primaryKeyTuple() (RawTuple, error) {
	f := r.model.pk
	if f == nil {
		return nil, fmt.Errorf("%s model has no primary key field", r.model.space)
	}
	v := r.data[f.Name()]
	if isEmptyValue(v) {
		return nil, fmt.Errorf("%s model primary key field %s is not set", r.model.space, f.Name())
	}
	raw, err := f.ToStorage(v)
	if err != nil {
		return nil, err
	}
	return RawTuple{raw}, nil
}

// FromTuple rehydrates a record from a raw positional tuple, zipping
// positions to field names and decoding through each field. The result is
// marked persisted. A tuple wider than the declared schema fails with a
// FieldError when the model's tuple length check is enabled; a shorter
// tuple leaves trailing fields unset (appended-field schema evolution).
func (m *Model) FromTuple(tup RawTuple) (*Record, error) {
	if m.checkTupleLength && len(tup) > len(m.fields) {
		extra := tup[len(m.fields):]
		return nil, fieldErrf(m.space, "", "tuple has %d extra fields: %s", len(extra), RawTuple(extra).String())
	}
	r := &Record{
		model: m,
		data:  make(map[string]any, len(m.fields)),
	}
	for i, f := range m.fields {
		if i < len(tup) {
			v, err := f.ToTyped(tup[i])
			if err != nil {
				return nil, err
			}
			r.data[f.Name()] = v
		} else {
			r.data[f.Name()] = nil
		}
	}
	r.exists = true
	return r, nil
}
