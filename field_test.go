package tarantism

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestIntFieldValidation(t *testing.T) {
	f := Int32("points", MinValue(0), MaxValue(100))
	noerr(t, f.Validate(42))
	noerr(t, f.Validate("42"))
	noerr(t, f.Validate(42.0))
	wanterr(t, f.Validate(-1))
	wanterr(t, f.Validate(101))
	wanterr(t, f.Validate(42.5))
	wanterr(t, f.Validate("forty-two"))

	var ve *ValidationError
	err := f.Validate(-1)
	if !errors.As(err, &ve) {
		t.Fatalf("** wanted a ValidationError, got %T", err)
	}
	eq(t, ve.Field, "points")
}

func TestIntFieldBoundsMustFitWidth(t *testing.T) {
	expectPanic(t, func() { Int32("n", MaxValue(1<<40)) })
	expectPanic(t, func() { Int32("n", MinValue(-(1 << 40))) })
	Int64("n", MaxValue(1<<40)) // fine at 64 bits
}

func TestIntFieldRoundTrip(t *testing.T) {
	for _, f := range []*IntField{Int32("n"), Int64("n")} {
		for _, v := range []int64{0, 1, -1, 1234567, -7654321} {
			raw := must(f.ToStorage(v))
			eq(t, len(raw), f.width())
			back := must(f.ToTyped(raw))
			eq(t, back.(int64), v)
		}
	}

	f := Int32("n")
	if _, err := f.ToTyped([]byte{1, 2}); err == nil {
		t.Errorf("** expected an error for a truncated value")
	}
}

func TestBooleanField(t *testing.T) {
	f := Boolean("resolved")
	noerr(t, f.Validate(true))
	wanterr(t, f.Validate(1))
	wanterr(t, f.Validate("true"))

	eq(t, must(f.ToTyped(must(f.ToStorage(true)))).(bool), true)
	eq(t, must(f.ToTyped(must(f.ToStorage(false)))).(bool), false)
	// any nonzero byte string decodes as true
	eq(t, must(f.ToTyped([]byte{0, 0, 7})).(bool), true)
}

func TestStringFieldValidation(t *testing.T) {
	f := String("code", MinLength(2), MaxLength(4), Pattern(`^[a-zä]+$`))
	noerr(t, f.Validate("ab"))
	noerr(t, f.Validate("ääää")) // rune count, not byte count
	wanterr(t, f.Validate("a"))
	wanterr(t, f.Validate("abcde"))
	wanterr(t, f.Validate("AB"))
	wanterr(t, f.Validate(42))
	wanterr(t, f.Validate(string([]byte{0xff, 0xfe})))
}

func TestStringFieldRoundTrip(t *testing.T) {
	f := String("s")
	for _, v := range []string{"x", "hello world", "päivää"} {
		eq(t, must(f.ToTyped(must(f.ToStorage(v)))).(string), v)
	}
	if _, err := f.ToTyped([]byte{0xff, 0xfe}); err == nil {
		t.Errorf("** expected an error for invalid UTF-8")
	}
}

func TestBytesFieldMeasuresBytes(t *testing.T) {
	f := Bytes("blob", MaxLength(4))
	noerr(t, f.Validate([]byte{1, 2, 3, 4}))
	wanterr(t, f.Validate("ääää")) // 8 bytes
	deepEqual(t, must(f.ToTyped(must(f.ToStorage([]byte{0, 1, 0xff})))).([]byte), []byte{0, 1, 0xff})
}

func TestGUIDField(t *testing.T) {
	f := GUID("id")
	v, ok := f.defaultValue()
	eq(t, ok, true)
	id := v.(string)
	eq(t, len(id), 36)
	noerr(t, f.Validate(id))
	wanterr(t, f.Validate("not-a-guid"))

	// two unset records get distinct identifiers
	v2, _ := f.defaultValue()
	if id == v2.(string) {
		t.Errorf("** two generated identifiers are equal: %s", id)
	}
}

func TestDateTimeField(t *testing.T) {
	f := DateTime("happened_at")
	v := time.Date(2024, 3, 7, 15, 4, 5, 123456000, time.UTC)
	raw := must(f.ToStorage(v))
	eq(t, string(raw), "2024-03-07 15:04:05.123456")
	eq(t, must(f.ToTyped(raw)).(time.Time), v)

	// zero time serializes as the empty sentinel and decodes as unset
	raw = must(f.ToStorage(time.Time{}))
	eq(t, len(raw), 0)
	if got := must(f.ToTyped(nil)); got != nil {
		t.Errorf("** got %v, wanted nil", got)
	}

	// non-UTC input normalizes to UTC
	loc := time.FixedZone("X", 3*60*60)
	raw = must(f.ToStorage(v.In(loc)))
	eq(t, must(f.ToTyped(raw)).(time.Time), v)

	wanterr(t, f.Validate("2024-03-07"))
}

func TestDecimalField(t *testing.T) {
	f := Decimal("amount")
	noerr(t, f.Validate("19.90"))
	noerr(t, f.Validate(decimal.RequireFromString("0.1")))
	wanterr(t, f.Validate("one"))
	wanterr(t, f.Validate(0.1))

	raw := must(f.ToStorage("19.90"))
	eq(t, string(raw), "19.9")
	got := must(f.ToTyped(raw)).(decimal.Decimal)
	if !got.Equal(decimal.RequireFromString("19.90")) {
		t.Errorf("** got %v, wanted 19.90", got)
	}
}

func TestDictField(t *testing.T) {
	f := Dict("payload")
	noerr(t, f.Validate(map[string]any{"a": 1}))
	noerr(t, f.Validate([]int{1, 2}))
	wanterr(t, f.Validate("scalar"))

	raw := must(f.ToStorage(map[string]any{"a": 1, "b": []any{"x"}}))
	deepEqual(t, must(f.ToTyped(raw)), any(map[string]any{"a": 1.0, "b": []any{"x"}}))
}

func TestListField(t *testing.T) {
	f := List("tags", String("tag", MaxLength(4)))
	noerr(t, f.Validate([]string{"go", "db"}))
	wanterr(t, f.Validate([]string{"toolong"}))
	wanterr(t, f.Validate("go"))

	raw := must(f.ToStorage([]string{"go", "db"}))
	deepEqual(t, must(f.ToTyped(raw)), any([]any{"go", "db"}))

	raw = must(f.ToStorage([]string{}))
	deepEqual(t, must(f.ToTyped(raw)), any([]any{}))
}

func TestListAsDictField(t *testing.T) {
	f := ListAsDict("labels", String("label"))
	raw := must(f.ToStorage([]string{"red", "green", "blue"}))
	deepEqual(t, must(f.ToTyped(raw)), any([]any{"red", "green", "blue"}))
}

func TestRequiredLaw(t *testing.T) {
	req := String("s", Required())
	opt := String("s")
	wanterr(t, req.Validate(nil))
	wanterr(t, req.Validate(""))
	noerr(t, opt.Validate(nil))
	noerr(t, opt.Validate(""))
	noerr(t, req.Validate("x"))
}

func TestUnknownFieldOptionPanics(t *testing.T) {
	expectPanic(t, func() { String("s", 42) })
	expectPanic(t, func() { Boolean("b", MinLength(1)) })
	expectPanic(t, func() { String("", Required()) })
}

func TestLongStringRoundTrip(t *testing.T) {
	f := String("s")
	v := strings.Repeat("long ", 1000)
	eq(t, must(f.ToTyped(must(f.ToStorage(v)))).(string), v)
}
