package tarantism

import (
	"encoding/binary"
	"fmt"
)

// WireType tags how the store should interpret a raw tuple element.
type WireType int

const (
	WireRaw WireType = iota
	WireNum
	WireNum64
	WireStr
)

func (wt WireType) String() string {
	switch wt {
	case WireRaw:
		return "raw"
	case WireNum:
		return "num"
	case WireNum64:
		return "num64"
	case WireStr:
		return "str"
	default:
		return fmt.Sprintf("invalid wire type %d", int(wt))
	}
}

// width returns the fixed element width in bytes, or 0 for variable-width
// types.
func (wt WireType) width() int {
	switch wt {
	case WireNum:
		return 4
	case WireNum64:
		return 8
	default:
		return 0
	}
}

// IndexKind is the structural kind of a physical index.
type IndexKind int

const (
	// IndexTree is a generalized sorted structure, the default kind.
	IndexTree IndexKind = iota
	// IndexHash supports exact-match lookups only.
	IndexHash
)

func (k IndexKind) String() string {
	switch k {
	case IndexTree:
		return "tree"
	case IndexHash:
		return "hash"
	default:
		return fmt.Sprintf("invalid index kind %d", int(k))
	}
}

// IndexPart describes one component of a possibly compound index key.
// Field is the 1-based tuple position of the indexed field.
type IndexPart struct {
	Field int      `msgpack:"f"`
	Type  WireType `msgpack:"t"`
}

// IndexDescriptor is the raw shape of a physical index as reported by a
// store's Indexes call.
type IndexDescriptor struct {
	Name   string      `msgpack:"n"`
	Kind   IndexKind   `msgpack:"k"`
	Unique bool        `msgpack:"u"`
	Parts  []IndexPart `msgpack:"p"`
}

// SpaceArgs are engine arguments passed through to the store when a space is
// created. Their meaning is store-specific.
type SpaceArgs []any

// Update operation symbols, one per UpdateInstr.
const (
	OpAssign = byte('=')
	OpAdd    = byte('+')
	OpAnd    = byte('&')
	OpXor    = byte('^')
	OpOr     = byte('|')
)

// UpdateInstr is one positional update instruction: apply Op to the element
// at 1-based position Field using the storage-encoded operand Value.
type UpdateInstr struct {
	Op    byte
	Field int
	Value []byte
}

// Bundled store error codes. These mirror the cause codes of the original
// tuple store and are a contract with the concrete Store implementation;
// they must not be assumed portable to other stores.
const (
	CodeDuplicateKey     = 3
	CodeSpaceExists      = 10
	CodeNoPrimaryIndex   = 17
	CodeBadTuple         = 21
	CodeGenericIgnorable = 32
	CodeNoSuchIndex      = 33
	CodeNoSuchSpace      = 36
	CodeIndexExists      = 85
)

// Store is the tuple store capability consumed by the mapping layer.
// Every call is a blocking request/response round trip; the mapping layer
// performs no retries and no error recovery beyond code translation.
type Store interface {
	// CreateSpace creates a named space. An existing space fails with
	// CodeSpaceExists.
	CreateSpace(name string, args SpaceArgs) error

	// CreateIndex creates an index over the given parts. An existing index
	// fails with CodeIndexExists. The first unique index of a space becomes
	// its primary index.
	CreateIndex(space, name string, kind IndexKind, parts []IndexPart, unique bool) error

	// Insert stores a full positional tuple. The primary key is derived from
	// the tuple via the space's primary index parts.
	Insert(space string, tup RawTuple) error

	// Update applies ordered instructions to the tuple with the given
	// primary key.
	Update(space string, key RawTuple, instrs []UpdateInstr) error

	// Delete removes the tuple with the given primary key and reports
	// whether a tuple was actually removed.
	Delete(space string, key RawTuple) (bool, error)

	// Select returns every tuple whose index key exactly matches key in the
	// named index. types carries the per-position wire types of the space's
	// tuples so the store can interpret raw bytes.
	Select(space string, key RawTuple, index string, types []WireType) ([]RawTuple, error)

	// Indexes returns the raw descriptors of the space's indexes.
	Indexes(space string) ([]IndexDescriptor, error)

	// Close releases the store.
	Close() error
}

// Caller is an optional store capability: invoke an arbitrary named store
// procedure with positional arguments. The bundled stores implement a small
// set of procedures ("ping", "count").
type Caller interface {
	Call(name string, args ...any) (any, error)
}

// tuplePartValues extracts the elements addressed by index parts, in part
// order. Used by stores to derive index keys from full tuples.
func tuplePartValues(tup RawTuple, parts []IndexPart) (RawTuple, error) {
	key := make(RawTuple, len(parts))
	for i, p := range parts {
		if p.Field < 1 || p.Field > len(tup) {
			return nil, storeErrf(CodeBadTuple, "tuple has no field %d for index part %d", p.Field, i+1)
		}
		key[i] = tup[p.Field-1]
	}
	return key, nil
}

// applyUpdateInstrs returns a copy of tup with every instruction applied.
// Arithmetic and bitwise ops interpret both the element and the operand as
// little-endian signed integers of the element's width (4 or 8 bytes).
func applyUpdateInstrs(tup RawTuple, instrs []UpdateInstr) (RawTuple, error) {
	out := cloneTuple(tup)
	for _, in := range instrs {
		if in.Field < 1 || in.Field > len(out) {
			return nil, storeErrf(CodeBadTuple, "update targets field %d of a %d-field tuple", in.Field, len(out))
		}
		i := in.Field - 1
		if in.Op == OpAssign {
			out[i] = append([]byte(nil), in.Value...)
			continue
		}
		cur, err := wireInt(out[i])
		if err != nil {
			return nil, err
		}
		arg, err := wireInt(in.Value)
		if err != nil {
			return nil, err
		}
		if len(out[i]) != len(in.Value) {
			return nil, storeErrf(CodeBadTuple, "update operand is %d bytes, field %d holds %d bytes", len(in.Value), in.Field, len(out[i]))
		}
		var v int64
		switch in.Op {
		case OpAdd:
			v = cur + arg
		case OpAnd:
			v = cur & arg
		case OpXor:
			v = cur ^ arg
		case OpOr:
			v = cur | arg
		default:
			return nil, storeErrf(CodeBadTuple, "unknown update operation %q", string(in.Op))
		}
		out[i] = putWireInt(v, len(out[i]))
	}
	return out, nil
}

func wireInt(raw []byte) (int64, error) {
	switch len(raw) {
	case 4:
		return int64(int32(binary.LittleEndian.Uint32(raw))), nil
	case 8:
		return int64(binary.LittleEndian.Uint64(raw)), nil
	default:
		return 0, storeErrf(CodeBadTuple, "numeric field must be 4 or 8 bytes, got %d", len(raw))
	}
}

func putWireInt(v int64, width int) []byte {
	buf := make([]byte, width)
	if width == 4 {
		binary.LittleEndian.PutUint32(buf, uint32(int32(v)))
	} else {
		binary.LittleEndian.PutUint64(buf, uint64(v))
	}
	return buf
}
