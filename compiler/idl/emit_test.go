package idl

import "testing"

func TestDocumentText(t *testing.T) {
	doc := &Document{
		Decls: []Decl{
			{Name: "Tokens", Type: &Vec{Elem: &Prim{Kind: Nat}}},
			{Name: "Account", Type: &Record{Fields: []Field{
				{ID: 5097222, Name: "foo", Type: &Prim{Kind: Text}},
				{ID: 3054118419, Name: "balance", Type: &Prim{Kind: Nat}},
			}}},
			{Name: "Pair", Type: &Record{Fields: []Field{
				{ID: 0, Name: "0", Type: &Prim{Kind: Nat}},
				{ID: 1, Name: "1", Type: &Prim{Kind: Text}},
			}}},
			{Name: "Result", Type: &Variant{Fields: []Field{
				{ID: 17724, Name: "ok", Type: &Ref{Name: "Tokens"}},
				{ID: 5359, Name: "err", Type: &Prim{Kind: Text}},
			}}},
		},
		Service: &Service{Methods: []Method{
			{Name: "balance", Type: &Func{
				Args: []Field{{ID: 0, Name: "0", Type: &Prim{Kind: Text}}},
				Rets: []Field{{ID: 0, Name: "0", Type: &Prim{Kind: Nat}}},
			}},
			{Name: "notify", Type: &Func{
				Args:   []Field{{ID: 0, Name: "0", Type: &Prim{Kind: Text}}},
				Oneway: true,
			}},
		}},
	}

	want := `type Tokens = vec nat;
type Account = record { foo : text; balance : nat };
type Pair = record { nat; text };
type Result = variant { ok : Tokens; err : text };

service : {
  balance : (text) -> (nat);
  notify : (text) -> () oneway;
};
`
	if got := doc.Text(); got != want {
		t.Errorf("rendered document:\n%s\nwant:\n%s", got, want)
	}
}

func TestDocumentTextNoService(t *testing.T) {
	doc := &Document{
		Decls: []Decl{
			{Name: "Flag", Type: &Prim{Kind: Bool}},
		},
	}
	want := "type Flag = bool;\n"
	if got := doc.Text(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestEmptyRecordText(t *testing.T) {
	doc := &Document{Decls: []Decl{{Name: "Unit", Type: &Record{}}}}
	want := "type Unit = record {};\n"
	if got := doc.Text(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestOptAndNestedText(t *testing.T) {
	doc := &Document{Decls: []Decl{
		{Name: "Maybe", Type: &Opt{Elem: &Vec{Elem: &Ref{Name: "Maybe"}}}},
	}}
	want := "type Maybe = opt vec Maybe;\n"
	if got := doc.Text(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
