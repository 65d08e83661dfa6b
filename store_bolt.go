package tarantism

import (
	"bytes"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.etcd.io/bbolt"
)

// BoltStore is a persistent Store over a single bbolt file. Each space is a
// root bucket holding a nested data bucket (encoded primary key → msgpack
// tuple), one nested bucket per index, and a msgpack state record carrying
// the index metadata.
type BoltStore struct {
	bdb     *bbolt.DB
	logf    func(format string, args ...any)
	verbose bool
}

type BoltOptions struct {
	Logf      func(format string, args ...any)
	Verbose   bool
	IsTesting bool
	MmapSize  int
}

var (
	dataBucket  = []byte("data")
	stateKey    = []byte("_state")
	indexPrefix = "i_"
)

// spaceState is the persistent metadata of one space.
type spaceState struct {
	Indexes []IndexDescriptor `msgpack:"i"`
	Primary string            `msgpack:"pk"`
}

func OpenBolt(path string, opt BoltOptions) (*BoltStore, error) {
	bopt := new(bbolt.Options)
	*bopt = *bbolt.DefaultOptions
	bopt.Timeout = 10 * time.Second
	if opt.IsTesting {
		bopt.NoSync = true
		bopt.NoFreelistSync = true
		bopt.InitialMmapSize = 1024 * 1024 * 5
	} else {
		bopt.InitialMmapSize = 1024 * 1024 * 1024
		bopt.FreelistType = bbolt.FreelistMapType
	}
	if opt.MmapSize != 0 {
		bopt.InitialMmapSize = opt.MmapSize
	}

	bdb, err := bbolt.Open(path, 0666, bopt)
	if err != nil {
		return nil, fmt.Errorf("tarantism: %w", err)
	}
	logf := opt.Logf
	if logf == nil {
		logf = func(format string, args ...any) {}
	}
	return &BoltStore{bdb: bdb, logf: logf, verbose: opt.Verbose}, nil
}

func (bs *BoltStore) Close() error {
	return bs.bdb.Close()
}

// Bolt exposes the underlying handle for maintenance tooling.
func (bs *BoltStore) Bolt() *bbolt.DB {
	return bs.bdb
}

func (bs *BoltStore) CreateSpace(name string, args SpaceArgs) error {
	return bs.bdb.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket([]byte(name)) != nil {
			return storeErrf(CodeSpaceExists, "space %q already exists", name)
		}
		sb, err := tx.CreateBucket([]byte(name))
		if err != nil {
			return storeErrf(CodeGenericIgnorable, "create space %q: %v", name, err)
		}
		if _, err := sb.CreateBucket(dataBucket); err != nil {
			return err
		}
		if err := putSpaceState(sb, &spaceState{}); err != nil {
			return err
		}
		if bs.verbose {
			bs.logf("store: CREATE_SPACE %s", name)
		}
		return nil
	})
}

func spaceBucket(tx *bbolt.Tx, name string) (*bbolt.Bucket, error) {
	sb := tx.Bucket([]byte(name))
	if sb == nil {
		return nil, storeErrf(CodeNoSuchSpace, "no such space %q", name)
	}
	return sb, nil
}

func getSpaceState(sb *bbolt.Bucket) (*spaceState, error) {
	raw := sb.Get(stateKey)
	if raw == nil {
		return &spaceState{}, nil
	}
	state := new(spaceState)
	if err := msgpack.Unmarshal(raw, state); err != nil {
		return nil, fmt.Errorf("corrupted space state: %w", err)
	}
	return state, nil
}

func putSpaceState(sb *bbolt.Bucket, state *spaceState) error {
	raw, err := msgpack.Marshal(state)
	if err != nil {
		return err
	}
	return sb.Put(stateKey, raw)
}

func (state *spaceState) index(name string) *IndexDescriptor {
	for i := range state.Indexes {
		if state.Indexes[i].Name == name {
			return &state.Indexes[i]
		}
	}
	return nil
}

func (state *spaceState) primaryIndex() *IndexDescriptor {
	if state.Primary == "" {
		return nil
	}
	return state.index(state.Primary)
}

func indexBucketName(name string) []byte {
	return []byte(indexPrefix + name)
}

func (bs *BoltStore) CreateIndex(space, name string, kind IndexKind, parts []IndexPart, unique bool) error {
	return bs.bdb.Update(func(tx *bbolt.Tx) error {
		sb, err := spaceBucket(tx, space)
		if err != nil {
			return err
		}
		if len(parts) == 0 {
			return storeErrf(CodeBadTuple, "index %q of space %q has no parts", name, space)
		}
		state, err := getSpaceState(sb)
		if err != nil {
			return err
		}
		if state.index(name) != nil {
			return storeErrf(CodeIndexExists, "index %q already exists in space %q", name, space)
		}
		ib, err := sb.CreateBucket(indexBucketName(name))
		if err != nil {
			return storeErrf(CodeGenericIgnorable, "create index %q in space %q: %v", name, space, err)
		}
		desc := IndexDescriptor{Name: name, Kind: kind, Unique: unique, Parts: parts}

		// Index the rows already present.
		err = sb.Bucket(dataBucket).ForEach(func(pk, raw []byte) error {
			tup, err := unmarshalTuple(raw)
			if err != nil {
				return err
			}
			return addIndexEntry(ib, &desc, tup, pk)
		})
		if err != nil {
			return err
		}

		state.Indexes = append(state.Indexes, desc)
		if unique && state.Primary == "" {
			state.Primary = name
		}
		if err := putSpaceState(sb, state); err != nil {
			return err
		}
		if bs.verbose {
			bs.logf("store: CREATE_INDEX %s/%s unique=%v parts=%d", space, name, unique, len(parts))
		}
		return nil
	})
}

func marshalTuple(tup RawTuple) ([]byte, error) {
	return msgpack.Marshal([][]byte(tup))
}

func unmarshalTuple(raw []byte) (RawTuple, error) {
	var els [][]byte
	if err := msgpack.Unmarshal(raw, &els); err != nil {
		return nil, storeErrf(CodeBadTuple, "corrupted tuple: %v", err)
	}
	return RawTuple(els), nil
}

// addIndexEntry writes one tuple into an index bucket. Unique index keys
// map to the primary key; non-unique keys get the primary key appended so
// every entry key stays distinct and exact matches become prefix scans.
func addIndexEntry(ib *bbolt.Bucket, desc *IndexDescriptor, tup RawTuple, pk []byte) error {
	key, err := tuplePartValues(tup, desc.Parts)
	if err != nil {
		return err
	}
	enc := key.Encode(nil)
	if desc.Unique {
		if ib.Get(enc) != nil {
			return storeErrf(CodeDuplicateKey, "duplicate key in unique index %q", desc.Name)
		}
		return ib.Put(enc, pk)
	}
	return ib.Put(append(enc, pk...), nil)
}

func removeIndexEntry(ib *bbolt.Bucket, desc *IndexDescriptor, tup RawTuple, pk []byte) error {
	key, err := tuplePartValues(tup, desc.Parts)
	if err != nil {
		return err
	}
	enc := key.Encode(nil)
	if desc.Unique {
		return ib.Delete(enc)
	}
	return ib.Delete(append(enc, pk...))
}

func (bs *BoltStore) Insert(space string, tup RawTuple) error {
	return bs.bdb.Update(func(tx *bbolt.Tx) error {
		sb, err := spaceBucket(tx, space)
		if err != nil {
			return err
		}
		state, err := getSpaceState(sb)
		if err != nil {
			return err
		}
		if err := insertTuple(sb, state, tup); err != nil {
			return err
		}
		if bs.verbose {
			bs.logf("store: INSERT %s/%s", space, tup)
		}
		return nil
	})
}

func insertTuple(sb *bbolt.Bucket, state *spaceState, tup RawTuple) error {
	primary := state.primaryIndex()
	if primary == nil {
		return storeErrf(CodeNoPrimaryIndex, "space has no primary index")
	}
	key, err := tuplePartValues(tup, primary.Parts)
	if err != nil {
		return err
	}
	pk := key.Encode(nil)

	db := sb.Bucket(dataBucket)
	if db.Get(pk) != nil {
		return storeErrf(CodeDuplicateKey, "duplicate key in unique index %q", primary.Name)
	}
	raw, err := marshalTuple(tup)
	if err != nil {
		return err
	}
	if err := db.Put(pk, raw); err != nil {
		return err
	}
	for i := range state.Indexes {
		desc := &state.Indexes[i]
		ib := sb.Bucket(indexBucketName(desc.Name))
		if err := addIndexEntry(ib, desc, tup, pk); err != nil {
			return err
		}
	}
	return nil
}

func deleteTuple(sb *bbolt.Bucket, state *spaceState, pk []byte) (RawTuple, error) {
	db := sb.Bucket(dataBucket)
	raw := db.Get(pk)
	if raw == nil {
		return nil, nil
	}
	tup, err := unmarshalTuple(raw)
	if err != nil {
		return nil, err
	}
	for i := range state.Indexes {
		desc := &state.Indexes[i]
		ib := sb.Bucket(indexBucketName(desc.Name))
		if err := removeIndexEntry(ib, desc, tup, pk); err != nil {
			return nil, err
		}
	}
	if err := db.Delete(pk); err != nil {
		return nil, err
	}
	return tup, nil
}

// Update applies instructions to the tuple with the given primary key.
// A missing tuple is a no-op, matching exact-key update semantics of the
// original store. Index entries are rewritten because an instruction can
// touch any indexed field, including the primary key.
func (bs *BoltStore) Update(space string, key RawTuple, instrs []UpdateInstr) error {
	return bs.bdb.Update(func(tx *bbolt.Tx) error {
		sb, err := spaceBucket(tx, space)
		if err != nil {
			return err
		}
		state, err := getSpaceState(sb)
		if err != nil {
			return err
		}
		if state.primaryIndex() == nil {
			return storeErrf(CodeNoPrimaryIndex, "space %q has no primary index", space)
		}
		pk := key.Encode(nil)
		old, err := deleteTuple(sb, state, pk)
		if err != nil {
			return err
		}
		if old == nil {
			if bs.verbose {
				bs.logf("store: UPDATE.NOOP %s/%s", space, key)
			}
			return nil
		}
		tup, err := applyUpdateInstrs(old, instrs)
		if err != nil {
			return err
		}
		if err := insertTuple(sb, state, tup); err != nil {
			return err
		}
		if bs.verbose {
			bs.logf("store: UPDATE %s/%s => %s", space, key, tup)
		}
		return nil
	})
}

func (bs *BoltStore) Delete(space string, key RawTuple) (removed bool, err error) {
	err = bs.bdb.Update(func(tx *bbolt.Tx) error {
		sb, err := spaceBucket(tx, space)
		if err != nil {
			return err
		}
		state, err := getSpaceState(sb)
		if err != nil {
			return err
		}
		tup, err := deleteTuple(sb, state, key.Encode(nil))
		if err != nil {
			return err
		}
		removed = tup != nil
		if bs.verbose {
			if removed {
				bs.logf("store: DELETE %s/%s", space, key)
			} else {
				bs.logf("store: DELETE.NOOP %s/%s", space, key)
			}
		}
		return nil
	})
	return removed, err
}

func (bs *BoltStore) Select(space string, key RawTuple, index string, types []WireType) (tups []RawTuple, err error) {
	err = bs.bdb.View(func(tx *bbolt.Tx) error {
		sb, err := spaceBucket(tx, space)
		if err != nil {
			return err
		}
		state, err := getSpaceState(sb)
		if err != nil {
			return err
		}
		desc := state.index(index)
		if desc == nil {
			return storeErrf(CodeNoSuchIndex, "no index %q in space %q", index, space)
		}
		ib := sb.Bucket(indexBucketName(index))
		db := sb.Bucket(dataBucket)
		enc := key.Encode(nil)

		load := func(pk []byte) error {
			raw := db.Get(pk)
			if raw == nil {
				return storeErrf(CodeBadTuple, "index %q references missing tuple %x", index, pk)
			}
			tup, err := unmarshalTuple(raw)
			if err != nil {
				return err
			}
			tups = append(tups, tup)
			return nil
		}

		if desc.Unique {
			if pk := ib.Get(enc); pk != nil {
				if err := load(pk); err != nil {
					return err
				}
			}
		} else {
			// Entry keys are the encoded index key plus the primary key; the
			// encoding keeps element boundaries, so an exact match is a
			// literal prefix scan.
			c := ib.Cursor()
			for k, _ := c.Seek(enc); k != nil && bytes.HasPrefix(k, enc); k, _ = c.Next() {
				if err := load(k[len(enc):]); err != nil {
					return err
				}
			}
		}
		if bs.verbose {
			bs.logf("store: SELECT %s.%s/%s => %d tuples", space, index, key, len(tups))
		}
		return nil
	})
	return tups, err
}

func (bs *BoltStore) Indexes(space string) (descs []IndexDescriptor, err error) {
	err = bs.bdb.View(func(tx *bbolt.Tx) error {
		sb, err := spaceBucket(tx, space)
		if err != nil {
			return err
		}
		state, err := getSpaceState(sb)
		if err != nil {
			return err
		}
		descs = append(descs, state.Indexes...)
		return nil
	})
	return descs, err
}

// Call implements the Caller capability: "ping" answers "pong", "count"
// takes a space name and returns its row count.
func (bs *BoltStore) Call(name string, args ...any) (any, error) {
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
		var n int
		err := bs.bdb.View(func(tx *bbolt.Tx) error {
			sb, err := spaceBucket(tx, space)
			if err != nil {
				return err
			}
			n = sb.Bucket(dataBucket).Stats().KeyN
			return nil
		})
		if err != nil {
			return nil, err
		}
		return n, nil
	default:
		return nil, storeErrf(CodeGenericIgnorable, "no procedure %q", name)
	}
}
