package tarantism

// QuerySet issues exact-match queries for one model against one store.
type QuerySet struct {
	model *Model
	store Store
}

// Objects returns a query set bound to the store registered under the
// model's alias. Panics when the alias has never been registered, same as
// every other registry-resolving entry point.
func (m *Model) Objects() *QuerySet {
	return &QuerySet{model: m, store: m.store()}
}

// ObjectsIn returns a query set bound to an explicit store.
func (m *Model) ObjectsIn(st Store) *QuerySet {
	return &QuerySet{model: m, store: st}
}

func (q *QuerySet) Model() *Model { return q.model }

// Filter returns every record whose indexed field exactly matches value.
// The field must be declared with DBIndex; querying is deliberately limited
// to physical indexes, there are no full scans.
func (q *QuerySet) Filter(field string, value any) ([]*Record, error) {
	f := q.model.fieldsByName[field]
	if f == nil {
		return nil, fieldErrf(q.model.space, field, "model does not have this field")
	}
	idx := q.model.indexNameFor(f)
	if idx == "" {
		return nil, fieldErrf(q.model.space, field, "field is not db-indexed, cannot filter on it")
	}
	if err := f.Validate(value); err != nil {
		return nil, err
	}
	raw, err := f.ToStorage(value)
	if err != nil {
		return nil, err
	}
	tups, err := q.store.Select(q.model.space, RawTuple{raw}, idx, q.model.WireTypes())
	if err != nil {
		return nil, err
	}
	return q.fromTuples(tups)
}

func (q *QuerySet) fromTuples(tups []RawTuple) ([]*Record, error) {
	recs := make([]*Record, 0, len(tups))
	for _, tup := range tups {
		r, err := q.model.FromTuple(tup)
		if err != nil {
			return nil, err
		}
		recs = append(recs, r)
	}
	return recs, nil
}

// Get returns the single record whose indexed field matches value.
// Zero matches fail with NotFoundError, more than one with
// MultipleObjectsError.
func (q *QuerySet) Get(field string, value any) (*Record, error) {
	recs, err := q.Filter(field, value)
	if err != nil {
		return nil, err
	}
	switch len(recs) {
	case 0:
		return nil, &NotFoundError{Model: q.model.space}
	case 1:
		return recs[0], nil
	default:
		return nil, &MultipleObjectsError{Model: q.model.space, Count: len(recs)}
	}
}

// Create constructs a record from vals, validates it and inserts it.
func (q *QuerySet) Create(vals Values) (*Record, error) {
	r := q.model.New(vals)
	if err := r.SaveTo(q.store); err != nil {
		return nil, err
	}
	return r, nil
}

// Delete removes the tuple addressed by vals: values for declared fields
// are encoded in field declaration order and issued as a positional key.
// In practice vals carries the primary key value. Reports whether a tuple
// was removed.
func (q *QuerySet) Delete(vals Values) (bool, error) {
	var key RawTuple
	for _, f := range q.model.fields {
		v, ok := vals[f.Name()]
		if !ok {
			continue
		}
		if err := f.Validate(v); err != nil {
			return false, err
		}
		raw, err := f.ToStorage(v)
		if err != nil {
			return false, err
		}
		key = append(key, raw)
	}
	if len(key) == 0 {
		return false, fieldErrf(q.model.space, "", "delete requires at least one key value")
	}
	return q.store.Delete(q.model.space, key)
}
