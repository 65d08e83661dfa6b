package tarantism

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
)

// RawTuple is an ordered, fixed-position sequence of storage-encoded values
// representing one record (or one key). Positions are exactly the model's
// field declaration order; this positional contract is the wire format.
type RawTuple [][]byte

func (tup RawTuple) String() string {
	var buf strings.Builder
	for i, el := range tup {
		if i > 0 {
			buf.WriteByte('|')
		}
		buf.WriteString(hex.EncodeToString(el))
	}
	return buf.String()
}

func (tup RawTuple) Equal(another RawTuple) bool {
	if len(tup) != len(another) {
		return false
	}
	for i, el := range tup {
		if !bytes.Equal(el, another[i]) {
			return false
		}
	}
	return true
}

func cloneTuple(tup RawTuple) RawTuple {
	out := make(RawTuple, len(tup))
	for i, el := range tup {
		out[i] = append([]byte(nil), el...)
	}
	return out
}

// Tuple key encoding: each element is its uvarint byte length followed by
// the bytes. Elements are self-delimiting, so the encoding of a tuple is a
// literal byte prefix of the encoding of any tuple it is a prefix of; the
// bolt backend relies on this for non-unique index scans.

func appendTupleElem(buf, el []byte) []byte {
	var vb [binary.MaxVarintLen32]byte
	n := binary.PutUvarint(vb[:], uint64(len(el)))
	buf = append(buf, vb[:n]...)
	return append(buf, el...)
}

func (tup RawTuple) Encode(buf []byte) []byte {
	for _, el := range tup {
		buf = appendTupleElem(buf, el)
	}
	return buf
}

func decodeRawTuple(raw []byte) (RawTuple, error) {
	var tup RawTuple
	for len(raw) > 0 {
		n, vn := binary.Uvarint(raw)
		if vn <= 0 {
			return nil, fmt.Errorf("invalid tuple: bad element length in %x", raw)
		}
		raw = raw[vn:]
		if n > uint64(len(raw)) {
			return nil, fmt.Errorf("invalid tuple: element length %d exceeds remaining %d bytes", n, len(raw))
		}
		tup = append(tup, raw[:n:n])
		raw = raw[n:]
	}
	return tup, nil
}
