package tarantism

import (
	"testing"
)

func TestFieldPositionsFollowDeclarationOrder(t *testing.T) {
	for i, f := range linksModel.Fields() {
		eq(t, f.Position(), i+1)
	}
	eq(t, linksModel.FieldNamed("id").Position(), 1)
	eq(t, linksModel.FieldNamed("url").Position(), 2)
	eq(t, linksModel.FieldNamed("project_id").Position(), 3)
	eq(t, linksModel.FieldNamed("dupl_count").Position(), 4)
}

func TestFieldNameByPosition(t *testing.T) {
	eq(t, linksModel.FieldName(1), "id")
	eq(t, linksModel.FieldName(4), "dupl_count")
	eq(t, linksModel.FieldName(0), "")
	eq(t, linksModel.FieldName(5), "")
}

func TestWireTypes(t *testing.T) {
	deepEqual(t, linksModel.WireTypes(), []WireType{WireStr, WireStr, WireNum, WireNum64})
}

func TestModelNamed(t *testing.T) {
	eq(t, testSchema.ModelNamed("links"), linksModel)
	eq(t, testSchema.ModelNamed("Links"), linksModel)
	if testSchema.ModelNamed("nope") != nil {
		t.Errorf("** expected nil for an unknown space")
	}
}

func TestPrimaryKeyField(t *testing.T) {
	eq(t, linksModel.PrimaryKeyField().Name(), "id")
	eq(t, eventsModel.PrimaryKeyField().Name(), "name")
}

func TestDefineModelPanics(t *testing.T) {
	scm := NewSchema()

	expectPanic(t, func() {
		DefineModel(scm, "", func(b *ModelBuilder) {})
	})
	expectPanic(t, func() {
		DefineModel(scm, "empty", func(b *ModelBuilder) {})
	})

	DefineModel(scm, "dup", func(b *ModelBuilder) {
		b.Field(Int32("id", PrimaryKey()))
	})
	expectPanic(t, func() {
		DefineModel(scm, "dup", func(b *ModelBuilder) {
			b.Field(Int32("id", PrimaryKey()))
		})
	})

	expectPanic(t, func() {
		DefineModel(scm, "dupfield", func(b *ModelBuilder) {
			b.Field(Int32("n"))
			b.Field(Int64("n"))
		})
	})
	expectPanic(t, func() {
		DefineModel(scm, "twopk", func(b *ModelBuilder) {
			b.Field(Int32("a", PrimaryKey()))
			b.Field(Int32("b", PrimaryKey()))
		})
	})

	// a field instance belongs to exactly one model
	f := Int32("shared")
	DefineModel(scm, "one", func(b *ModelBuilder) { b.Field(f) })
	expectPanic(t, func() {
		DefineModel(scm, "two", func(b *ModelBuilder) { b.Field(f) })
	})
}

func TestPrimaryKeyFieldOverride(t *testing.T) {
	scm := NewSchema()
	m := DefineModel(scm, "override", func(b *ModelBuilder) {
		b.Field(Int64("code"))
		b.Field(String("label"))
		b.PrimaryKeyField("code")
	})
	eq(t, m.PrimaryKeyField().Name(), "code")
	expectPanic(t, func() {
		DefineModel(scm, "badoverride", func(b *ModelBuilder) {
			b.Field(Int64("code"))
			b.PrimaryKeyField("missing")
		})
	})
}

func TestModelMeta(t *testing.T) {
	scm := NewSchema()
	m := DefineModel(scm, "meta", func(b *ModelBuilder) {
		b.Field(Int32("id", PrimaryKey()))
		b.Alias("replica")
		b.SpaceArgs("memtx", 2)
	})
	eq(t, m.Alias(), "replica")
	deepEqual(t, m.SpaceArgs(), SpaceArgs{"memtx", 2})
	eq(t, linksModel.Alias(), DefaultAlias)
}
