package tarantism

import (
	"os"
	"reflect"
	"testing"
)

var (
	testSchema = NewSchema()

	linksModel = DefineModel(testSchema, "links", func(b *ModelBuilder) {
		b.Field(GUID("id", PrimaryKey()))
		b.Field(String("url", Required(), MaxLength(256), DBIndex("url")))
		b.Field(Int32("project_id", MinValue(0), DBIndex("project_id")))
		b.Field(Int64("dupl_count", Default(int64(0))))
	})

	eventsModel = DefineModel(testSchema, "events", func(b *ModelBuilder) {
		b.Field(String("name", Required(), MinLength(1), MaxLength(64), PrimaryKey()))
		b.Field(DateTime("happened_at"))
		b.Field(Decimal("amount"))
		b.Field(Boolean("resolved"))
		b.Field(Dict("payload"))
		b.Field(List("tags", String("tag", MaxLength(16))))
		b.Field(ListAsDict("labels", String("label")))
	})
)

// setupMem provisions every fixture model in a fresh in-memory store and
// registers it under the default alias for the duration of the test.
func setupMem(t testing.TB) *MemStore {
	t.Helper()
	st := NewMemStore()
	for _, m := range testSchema.Models() {
		ensure(m.Provision(st))
	}
	Register(DefaultAlias, st)
	t.Cleanup(func() { ensure(Disconnect(DefaultAlias)) })
	return st
}

func openTestBolt(t testing.TB) *BoltStore {
	t.Helper()
	dbFile := must(os.CreateTemp("", "store_test_*.db"))
	t.Logf("DB: %s", dbFile.Name())
	dbFile.Close()

	st := must(OpenBolt(dbFile.Name(), BoltOptions{IsTesting: true}))
	t.Cleanup(func() {
		st.Close()
		os.Remove(dbFile.Name())
	})
	return st
}

func eq[T comparable](t testing.TB, a, e T) {
	if a != e {
		t.Helper()
		t.Fatalf("** got %v, wanted %v", a, e)
	}
}

func deepEqual[T any](t testing.TB, a, e T) {
	if !reflect.DeepEqual(a, e) {
		t.Helper()
		t.Errorf("** got %v, wanted %v", a, e)
	}
}

func noerr(t testing.TB, err error) {
	if err != nil {
		t.Helper()
		t.Fatalf("** unexpected error: %v", err)
	}
}

func wanterr(t testing.TB, err error) {
	if err == nil {
		t.Helper()
		t.Fatalf("** expected an error, got nil")
	}
}

func expectPanic(t testing.TB, f func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("** expected a panic")
		}
	}()
	f()
}
