package tarantism

import (
	"sort"
	"sync"

	sorted "github.com/tobshub/go-sortedmap"
)

// MemStore is an in-process Store keeping every tuple in memory. It exists
// for tests and for embedding the mapping layer without a real tuple store;
// it implements the full provisioning/query/update surface with the same
// error codes as the bolt backend.
type MemStore struct {
	mu     sync.Mutex
	spaces map[string]*memSpace
}

type memSpace struct {
	name    string
	rows    *sorted.SortedMap[string, memRow]
	indexes []*memIndex
	primary *memIndex
}

// memRow carries its own encoded primary key because the sorted map orders
// by comparing values.
type memRow struct {
	key string
	tup RawTuple
}

type memIndex struct {
	IndexDescriptor
	// encoded index key -> encoded primary keys of matching rows
	entries map[string][]string
}

func NewMemStore() *MemStore {
	return &MemStore{spaces: make(map[string]*memSpace)}
}

func (ms *MemStore) Close() error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.spaces = make(map[string]*memSpace)
	return nil
}

func (ms *MemStore) space(name string) (*memSpace, error) {
	sp := ms.spaces[name]
	if sp == nil {
		return nil, storeErrf(CodeNoSuchSpace, "no such space %q", name)
	}
	return sp, nil
}

func (ms *MemStore) CreateSpace(name string, args SpaceArgs) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if ms.spaces[name] != nil {
		return storeErrf(CodeSpaceExists, "space %q already exists", name)
	}
	ms.spaces[name] = &memSpace{
		name: name,
		rows: sorted.New[string, memRow](0, func(a, b memRow) bool {
			return a.key < b.key
		}),
	}
	return nil
}

func (ms *MemStore) CreateIndex(space, name string, kind IndexKind, parts []IndexPart, unique bool) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	sp, err := ms.space(space)
	if err != nil {
		return err
	}
	if len(parts) == 0 {
		return storeErrf(CodeBadTuple, "index %q of space %q has no parts", name, space)
	}
	if sp.index(name) != nil {
		return storeErrf(CodeIndexExists, "index %q already exists in space %q", name, space)
	}
	idx := &memIndex{
		IndexDescriptor: IndexDescriptor{Name: name, Kind: kind, Unique: unique, Parts: parts},
		entries:         make(map[string][]string),
	}
	if err := sp.fillIndex(idx); err != nil {
		return err
	}
	sp.indexes = append(sp.indexes, idx)
	if unique && sp.primary == nil {
		sp.primary = idx
	}
	return nil
}

func (sp *memSpace) index(name string) *memIndex {
	for _, idx := range sp.indexes {
		if idx.Name == name {
			return idx
		}
	}
	return nil
}

// fillIndex populates a new index from the rows already in the space.
func (sp *memSpace) fillIndex(idx *memIndex) error {
	iter, err := sp.rows.IterCh()
	if err != nil {
		return nil // empty map
	}
	defer iter.Close()
	for rec := range iter.Records() {
		if err := idx.add(rec.Val.tup, rec.Key); err != nil {
			return err
		}
	}
	return nil
}

func (idx *memIndex) keyOf(tup RawTuple) (string, error) {
	key, err := tuplePartValues(tup, idx.Parts)
	if err != nil {
		return "", err
	}
	return string(key.Encode(nil)), nil
}

func (idx *memIndex) add(tup RawTuple, pk string) error {
	k, err := idx.keyOf(tup)
	if err != nil {
		return err
	}
	if idx.Unique && len(idx.entries[k]) > 0 {
		return storeErrf(CodeDuplicateKey, "duplicate key in unique index %q", idx.Name)
	}
	idx.entries[k] = append(idx.entries[k], pk)
	return nil
}

func (idx *memIndex) remove(tup RawTuple, pk string) {
	k, err := idx.keyOf(tup)
	if err != nil {
		return
	}
	pks := idx.entries[k]
	for i, p := range pks {
		if p == pk {
			pks = append(pks[:i], pks[i+1:]...)
			break
		}
	}
	if len(pks) == 0 {
		delete(idx.entries, k)
	} else {
		idx.entries[k] = pks
	}
}

func (ms *MemStore) Insert(space string, tup RawTuple) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	sp, err := ms.space(space)
	if err != nil {
		return err
	}
	return sp.insert(tup)
}

func (sp *memSpace) insert(tup RawTuple) error {
	if sp.primary == nil {
		return storeErrf(CodeNoPrimaryIndex, "space %q has no primary index", sp.name)
	}
	pk, err := sp.primary.keyOf(tup)
	if err != nil {
		return err
	}
	if sp.rows.Has(pk) {
		return storeErrf(CodeDuplicateKey, "duplicate key in unique index %q", sp.primary.Name)
	}
	// Check all unique constraints before touching anything.
	for _, idx := range sp.indexes {
		if idx == sp.primary || !idx.Unique {
			continue
		}
		k, err := idx.keyOf(tup)
		if err != nil {
			return err
		}
		if len(idx.entries[k]) > 0 {
			return storeErrf(CodeDuplicateKey, "duplicate key in unique index %q", idx.Name)
		}
	}
	tup = cloneTuple(tup)
	sp.rows.Insert(pk, memRow{key: pk, tup: tup})
	for _, idx := range sp.indexes {
		idx.add(tup, pk)
	}
	return nil
}

func (sp *memSpace) removeRow(row memRow) {
	for _, idx := range sp.indexes {
		idx.remove(row.tup, row.key)
	}
	sp.rows.Delete(row.key)
}

// Update applies instructions to the tuple with the given primary key.
// A missing tuple is a no-op, matching exact-key update semantics of the
// original store.
func (ms *MemStore) Update(space string, key RawTuple, instrs []UpdateInstr) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	sp, err := ms.space(space)
	if err != nil {
		return err
	}
	if sp.primary == nil {
		return storeErrf(CodeNoPrimaryIndex, "space %q has no primary index", sp.name)
	}
	pk := string(key.Encode(nil))
	row, ok := sp.rows.Get(pk)
	if !ok {
		return nil
	}
	tup, err := applyUpdateInstrs(row.tup, instrs)
	if err != nil {
		return err
	}
	// Instructions can touch indexed fields, including the primary key, so
	// reinsert rather than patch in place.
	sp.removeRow(row)
	if err := sp.insert(tup); err != nil {
		sp.insert(row.tup)
		return err
	}
	return nil
}

func (ms *MemStore) Delete(space string, key RawTuple) (bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	sp, err := ms.space(space)
	if err != nil {
		return false, err
	}
	if sp.primary == nil {
		return false, storeErrf(CodeNoPrimaryIndex, "space %q has no primary index", sp.name)
	}
	pk := string(key.Encode(nil))
	row, ok := sp.rows.Get(pk)
	if !ok {
		return false, nil
	}
	sp.removeRow(row)
	return true, nil
}

func (ms *MemStore) Select(space string, key RawTuple, index string, types []WireType) ([]RawTuple, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	sp, err := ms.space(space)
	if err != nil {
		return nil, err
	}
	idx := sp.index(index)
	if idx == nil {
		return nil, storeErrf(CodeNoSuchIndex, "no index %q in space %q", index, space)
	}
	pks := idx.entries[string(key.Encode(nil))]
	if len(pks) == 0 {
		return nil, nil
	}
	pks = append([]string(nil), pks...)
	sort.Strings(pks)
	tups := make([]RawTuple, 0, len(pks))
	for _, pk := range pks {
		if row, ok := sp.rows.Get(pk); ok {
			tups = append(tups, cloneTuple(row.tup))
		}
	}
	return tups, nil
}

func (ms *MemStore) Indexes(space string) ([]IndexDescriptor, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	sp, err := ms.space(space)
	if err != nil {
		return nil, err
	}
	descs := make([]IndexDescriptor, len(sp.indexes))
	for i, idx := range sp.indexes {
		descs[i] = idx.IndexDescriptor
	}
	return descs, nil
}

// Call implements the Caller capability: "ping" answers "pong", "count"
// takes a space name and returns its row count.
func (ms *MemStore) Call(name string, args ...any) (any, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	switch name {
	case "ping":
		return "pong", nil
	case "count":
		if len(args) != 1 {
			return nil, storeErrf(CodeGenericIgnorable, "count takes exactly one space name")
		}
		space, ok := args[0].(string)
		if !ok {
			return nil, storeErrf(CodeGenericIgnorable, "count takes a space name, got %T", args[0])
		}
		sp, err := ms.space(space)
		if err != nil {
			return nil, err
		}
		return sp.rows.Len(), nil
	default:
		return nil, storeErrf(CodeGenericIgnorable, "no procedure %q", name)
	}
}
