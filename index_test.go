package tarantism

import (
	"errors"
	"testing"
)

func TestProvisionIsIdempotent(t *testing.T) {
	st := NewMemStore()
	defer st.Close()

	noerr(t, linksModel.Provision(st))
	noerr(t, linksModel.Provision(st))

	infos := must(linksModel.Indexes(st))
	eq(t, len(infos), 3)
}

func TestProvisionedIndexes(t *testing.T) {
	st := NewMemStore()
	defer st.Close()
	noerr(t, linksModel.Provision(st))

	infos := must(linksModel.Indexes(st))
	byName := make(map[string]IndexInfo)
	for _, info := range infos {
		byName[info.Name] = info
	}

	id := byName["id"]
	eq(t, id.Unique, true)
	eq(t, id.Kind, IndexTree)
	deepEqual(t, id.Fields, []string{"id"})
	deepEqual(t, id.Parts, []IndexPart{{Field: 1, Type: WireStr}})

	url := byName["url"]
	eq(t, url.Unique, false)
	deepEqual(t, url.Parts, []IndexPart{{Field: 2, Type: WireStr}})

	pid := byName["project_id"]
	deepEqual(t, pid.Parts, []IndexPart{{Field: 3, Type: WireNum}})
}

func TestCreateIndexDefaultsAndErrors(t *testing.T) {
	st := NewMemStore()
	defer st.Close()
	noerr(t, linksModel.Provision(st))

	// default name is the underscore-joined field list
	noerr(t, linksModel.CreateIndex(st, IndexDef{Fields: []string{"project_id", "url"}}))
	infos := must(linksModel.Indexes(st))
	found := false
	for _, info := range infos {
		if info.Name == "project_id_url" {
			found = true
			deepEqual(t, info.Fields, []string{"project_id", "url"})
		}
	}
	eq(t, found, true)

	// recreating it is swallowed
	noerr(t, linksModel.CreateIndex(st, IndexDef{Fields: []string{"project_id", "url"}}))

	var fe *FieldError
	err := linksModel.CreateIndex(st, IndexDef{Fields: []string{"bogus"}})
	if !errors.As(err, &fe) {
		t.Fatalf("** wanted a FieldError, got %v", err)
	}
	wanterr(t, linksModel.CreateIndex(st, IndexDef{Name: "empty"}))
}

func TestCreateSpacePropagatesRealErrors(t *testing.T) {
	st := NewMemStore()
	defer st.Close()

	// creating an index in a missing space is not an ignorable error
	err := linksModel.CreateIndex(st, IndexDef{Fields: []string{"id"}, Unique: true})
	var se *StoreError
	if !errors.As(err, &se) {
		t.Fatalf("** wanted a StoreError, got %v", err)
	}
	eq(t, se.Code, CodeNoSuchSpace)
}

func TestIndexInfoUnknownPosition(t *testing.T) {
	st := NewMemStore()
	defer st.Close()
	noerr(t, st.CreateSpace("links", nil))
	noerr(t, st.CreateIndex("links", "wide", IndexTree, []IndexPart{{Field: 9, Type: WireRaw}}, false))

	infos := must(linksModel.Indexes(st))
	eq(t, len(infos), 1)
	deepEqual(t, infos[0].Fields, []string{""})
}
