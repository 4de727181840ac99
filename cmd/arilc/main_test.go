package main

import (
	"encoding/hex"
	"path/filepath"
	"testing"

	"github.com/aril-lang/aril/compiler/idl"
	"github.com/aril-lang/aril/schemastore"
)

func TestStoreDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schemas.db")
	doc := &idl.Document{Decls: []idl.Decl{
		{Name: "Count", Type: &idl.Prim{Kind: idl.Nat}},
	}}

	id, err := storeDocument(path, "ledger", doc)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if id == "" {
		t.Fatal("empty id")
	}

	// The store must have been closed; a fresh handle sees the document.
	s, err := schemastore.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	sum, err := idl.DocumentHash(doc)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	got, err := s.Get(hex.EncodeToString(sum[:]))
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if got.Text() != doc.Text() {
		t.Errorf("stored document differs:\n%s\nwant:\n%s", got.Text(), doc.Text())
	}
}

func TestStoreDocumentBadPath(t *testing.T) {
	doc := &idl.Document{}
	if _, err := storeDocument(filepath.Join(t.TempDir(), "missing", "schemas.db"), "u", doc); err == nil {
		t.Error("store in nonexistent directory succeeded")
	}
}
