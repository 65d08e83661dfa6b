package tarantism

import (
	"bytes"
	"testing"
)

func TestTupleEncodeDecodeRoundTrip(t *testing.T) {
	tests := []RawTuple{
		nil,
		{[]byte("a")},
		{[]byte("a"), []byte("bc"), []byte("def")},
		{[]byte{}, []byte("x")}, // empty element survives
		{putWireInt(-1, 8), []byte("mixed")},
		{bytes.Repeat([]byte{0xab}, 300)}, // multi-byte length prefix
	}
	for _, tup := range tests {
		enc := tup.Encode(nil)
		back := must(decodeRawTuple(enc))
		if !tup.Equal(back) {
			t.Errorf("** round trip of %s gave %s", tup, back)
		}
	}
}

func TestTupleEncodingPrefixProperty(t *testing.T) {
	short := RawTuple{[]byte("ab")}
	long := RawTuple{[]byte("ab"), []byte("cd")}
	if !bytes.HasPrefix(long.Encode(nil), short.Encode(nil)) {
		t.Errorf("** element-wise prefix must be a byte prefix")
	}

	// a longer first element must NOT produce a matching byte prefix
	other := RawTuple{[]byte("abc")}
	if bytes.HasPrefix(other.Encode(nil), short.Encode(nil)) {
		t.Errorf("** %s should not look like an extension of %s", other, short)
	}
}

func TestDecodeRejectsTruncatedInput(t *testing.T) {
	enc := RawTuple{[]byte("hello")}.Encode(nil)
	if _, err := decodeRawTuple(enc[:3]); err == nil {
		t.Errorf("** expected an error for truncated input")
	}
}

func TestTupleStringAndEqual(t *testing.T) {
	tup := RawTuple{[]byte{0xab}, []byte{0x01, 0x02}}
	eq(t, tup.String(), "ab|0102")
	eq(t, tup.Equal(RawTuple{[]byte{0xab}, []byte{0x01, 0x02}}), true)
	eq(t, tup.Equal(RawTuple{[]byte{0xab}}), false)
	eq(t, tup.Equal(RawTuple{[]byte{0xab}, []byte{0x01, 0x03}}), false)
}

func TestCloneTupleIsDeep(t *testing.T) {
	tup := RawTuple{[]byte{1, 2}}
	dup := cloneTuple(tup)
	dup[0][0] = 9
	eq(t, tup[0][0], byte(1))
}
