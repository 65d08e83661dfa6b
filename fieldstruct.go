package tarantism

import (
	"bytes"
	"encoding/json"
	"reflect"

	"github.com/vmihailenco/msgpack/v5"
)

// DictField stores structured data (a mapping or a sequence) as a JSON text
// blob. Numbers decode as float64, the way encoding/json does.
type DictField struct {
	baseField
}

// Dict declares a structured-data field.
func Dict(name string, opts ...any) *DictField {
	f := &DictField{baseField: makeBaseField(name)}
	f.applyOpts(opts, nil)
	return f
}

func (f *DictField) WireType() WireType { return WireStr }

func (f *DictField) Validate(v any) error {
	if err, done := f.checkBase(v); done {
		return err
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return nil
	}
	return validationErrf(f.name, "%v has incorrect type %T, expected a mapping or a sequence", v, v)
}

func (f *DictField) ToStorage(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, validationErrf(f.name, "%v could not be encoded: %v", v, err)
	}
	return raw, nil
}

func (f *DictField) ToTyped(raw []byte) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, validationErrf(f.name, "stored value %q could not be decoded: %v", raw, err)
	}
	return v, nil
}

// ListField is a homogeneous list: it wraps an element field, validates
// every element against it, and stores the list as a msgpack array of
// element encodings. The typed form is []any.
type ListField struct {
	baseField
	elem Field
}

// List declares a homogeneous list field over the given element field.
func List(name string, elem Field, opts ...any) *ListField {
	f := &ListField{baseField: makeBaseField(name), elem: elem}
	f.applyOpts(opts, nil)
	return f
}

// Elem returns the element field.
func (f *ListField) Elem() Field { return f.elem }

func (f *ListField) WireType() WireType { return WireRaw }

func (f *ListField) Validate(v any) error {
	_, err := f.elements(v, true)
	return err
}

// elements coerces v to a slice of element values, optionally running the
// base contract and per-element validation.
func (f *ListField) elements(v any, validate bool) ([]any, error) {
	if validate {
		if err, done := f.checkBase(v); done {
			return nil, err
		}
	} else if v == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	if k := rv.Kind(); k != reflect.Slice && k != reflect.Array {
		return nil, validationErrf(f.name, "%v has incorrect type %T, expected a sequence", v, v)
	}
	els := make([]any, rv.Len())
	for i := range els {
		els[i] = rv.Index(i).Interface()
		if validate {
			if err := f.elem.Validate(els[i]); err != nil {
				return nil, validationErrf(f.name, "element %d: %v", i, err)
			}
		}
	}
	return els, nil
}

func (f *ListField) ToStorage(v any) ([]byte, error) {
	els, err := f.elements(v, false)
	if err != nil || els == nil && v == nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := enc.EncodeArrayLen(len(els)); err != nil {
		return nil, err
	}
	for i, el := range els {
		raw, err := f.elem.ToStorage(el)
		if err != nil {
			return nil, validationErrf(f.name, "element %d: %v", i, err)
		}
		if err := enc.EncodeBytes(raw); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func (f *ListField) ToTyped(raw []byte) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	dec := msgpack.NewDecoder(bytes.NewReader(raw))
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return nil, validationErrf(f.name, "stored value is not a msgpack array: %v", err)
	}
	els := make([]any, n)
	for i := range els {
		elRaw, err := dec.DecodeBytes()
		if err != nil {
			return nil, validationErrf(f.name, "stored element %d: %v", i, err)
		}
		els[i], err = f.elem.ToTyped(elRaw)
		if err != nil {
			return nil, err
		}
	}
	return els, nil
}

// ListAsDictField is a homogeneous list whose storage representation is a
// mapping from each element to a constant marker, for stores that lack
// native list support but handle mappings. Round-trips via key extraction.
type ListAsDictField struct {
	ListField
}

// ListAsDict declares a list field stored as an element-to-marker mapping.
func ListAsDict(name string, elem Field, opts ...any) *ListAsDictField {
	f := &ListAsDictField{ListField{baseField: makeBaseField(name), elem: elem}}
	f.applyOpts(opts, nil)
	return f
}

func (f *ListAsDictField) ToStorage(v any) ([]byte, error) {
	els, err := f.elements(v, false)
	if err != nil || els == nil && v == nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := enc.EncodeMapLen(len(els)); err != nil {
		return nil, err
	}
	for i, el := range els {
		raw, err := f.elem.ToStorage(el)
		if err != nil {
			return nil, validationErrf(f.name, "element %d: %v", i, err)
		}
		if err := enc.EncodeBytes(raw); err != nil {
			return nil, err
		}
		if err := enc.EncodeBool(true); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func (f *ListAsDictField) ToTyped(raw []byte) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	dec := msgpack.NewDecoder(bytes.NewReader(raw))
	n, err := dec.DecodeMapLen()
	if err != nil {
		return nil, validationErrf(f.name, "stored value is not a msgpack map: %v", err)
	}
	els := make([]any, n)
	for i := range els {
		elRaw, err := dec.DecodeBytes()
		if err != nil {
			return nil, validationErrf(f.name, "stored element %d: %v", i, err)
		}
		els[i], err = f.elem.ToTyped(elRaw)
		if err != nil {
			return nil, err
		}
		if err := dec.Skip(); err != nil {
			return nil, validationErrf(f.name, "stored element %d marker: %v", i, err)
		}
	}
	return els, nil
}
