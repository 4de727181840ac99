package idl

import (
	"bytes"
	"errors"
	"testing"

	"github.com/aril-lang/aril/compiler/types"
)

// helpers for building type graphs

func prim(k types.PrimKind) types.Type { return &types.Prim{Kind: k} }

func con(def *types.Constructor, args ...types.Type) types.Type {
	return &types.Con{Def: def, Args: args}
}

func record(fields ...types.Field) types.Type {
	return &types.Obj{Sort: types.Object, Fields: fields}
}

func actor(fields ...types.Field) types.Type {
	return &types.Obj{Sort: types.Actor, Fields: fields}
}

func fld(label string, t types.Type) types.Field {
	return types.Field{Label: label, Type: t}
}

func oneway(args ...types.Type) types.Type {
	return &types.Func{Control: types.Returns, Args: args}
}

func method(args []types.Type, rets []types.Type) types.Type {
	return &types.Func{Control: types.Promises, Args: args, Rets: rets}
}

func unitOf(main types.Type, cons ...*types.Constructor) *types.Unit {
	return &types.Unit{Name: "test", Cons: cons, Main: main}
}

func translateOne(t *testing.T, body types.Type) Type {
	t.Helper()
	doc, err := Translate(unitOf(nil, &types.Constructor{Name: "T", Body: body}))
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if len(doc.Decls) != 1 {
		t.Fatalf("declarations: got %d, want 1", len(doc.Decls))
	}
	return doc.Decls[0].Type
}

func TestPrimitiveMapping(t *testing.T) {
	tests := []struct {
		src  types.PrimKind
		want PrimKind
	}{
		{types.Null, Null},
		{types.Bool, Bool},
		{types.Nat, Nat},
		{types.Int, Int},
		{types.Nat8, Nat8},
		{types.Int64, Int64},
		{types.Float, Float64},
		{types.Text, Text},
		{types.Char, Nat32},
		{types.Any, Reserved},
		{types.Non, Empty},
		// Legacy word kinds collapse onto the unsigned kinds.
		{types.Word8, Nat8},
		{types.Word16, Nat16},
		{types.Word32, Nat32},
		{types.Word64, Nat64},
	}
	for _, tt := range tests {
		got := translateOne(t, prim(tt.src))
		p, ok := got.(*Prim)
		if !ok {
			t.Fatalf("%v: got %T, want *Prim", tt.src, got)
		}
		if p.Kind != tt.want {
			t.Errorf("%v: got %v, want %v", tt.src, p.Kind, tt.want)
		}
	}
}

func TestTuplePositionalFields(t *testing.T) {
	got := translateOne(t, &types.Tup{Elems: []types.Type{
		prim(types.Nat), prim(types.Text), prim(types.Bool),
	}})
	rec, ok := got.(*Record)
	if !ok {
		t.Fatalf("got %T, want *Record", got)
	}
	if len(rec.Fields) != 3 {
		t.Fatalf("fields: got %d, want 3", len(rec.Fields))
	}
	for i, f := range rec.Fields {
		if f.ID != uint32(i) {
			t.Errorf("field %d: id %d", i, f.ID)
		}
	}
	if rec.Fields[0].Name != "0" || rec.Fields[2].Name != "2" {
		t.Errorf("positional names: got %q, %q", rec.Fields[0].Name, rec.Fields[2].Name)
	}
}

func TestRecordFieldIdentifiers(t *testing.T) {
	got := translateOne(t, record(
		fld("foo", prim(types.Nat)),
		fld("7", prim(types.Text)),
	))
	rec := got.(*Record)
	if len(rec.Fields) != 2 {
		t.Fatalf("fields: got %d, want 2", len(rec.Fields))
	}
	// Sorted by ascending identifier: 7 before hash("foo").
	if rec.Fields[0].ID != 7 || rec.Fields[0].Name != "7" {
		t.Errorf("numeric field: got id %d name %q", rec.Fields[0].ID, rec.Fields[0].Name)
	}
	if rec.Fields[1].ID != 5097222 || rec.Fields[1].Name != "foo" {
		t.Errorf("hashed field: got id %d name %q", rec.Fields[1].ID, rec.Fields[1].Name)
	}
}

func TestSelfReferentialConstructor(t *testing.T) {
	// type A = record { x : A; y : int }
	a := &types.Constructor{Name: "A"}
	a.Body = record(
		fld("x", con(a)),
		fld("y", prim(types.Int)),
	)

	doc, err := Translate(unitOf(nil, a))
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if len(doc.Decls) != 1 {
		t.Fatalf("declarations: got %d, want 1", len(doc.Decls))
	}
	rec, ok := doc.Decls[0].Type.(*Record)
	if !ok {
		t.Fatalf("got %T, want *Record", doc.Decls[0].Type)
	}
	var x *Field
	for i := range rec.Fields {
		if rec.Fields[i].Name == "x" {
			x = &rec.Fields[i]
		}
	}
	if x == nil {
		t.Fatal("field x missing")
	}
	ref, ok := x.Type.(*Ref)
	if !ok || ref.Name != "A" {
		t.Errorf("field x: got %#v, want reference to A", x.Type)
	}
}

func TestSharedConstructorTranslatedOnce(t *testing.T) {
	shared := &types.Constructor{Name: "Item", Body: record(fld("id", prim(types.Nat)))}
	pair := &types.Constructor{
		Name: "Pair",
		Body: &types.Tup{Elems: []types.Type{con(shared), con(shared)}},
	}

	doc, err := Translate(unitOf(nil, pair, shared))
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if len(doc.Decls) != 2 {
		t.Fatalf("declarations: got %d, want 2", len(doc.Decls))
	}

	rec := doc.Decls[0].Type.(*Record)
	for i, f := range rec.Fields {
		ref, ok := f.Type.(*Ref)
		if !ok || ref.Name != "Item" {
			t.Errorf("tuple slot %d: got %#v, want reference to Item", i, f.Type)
		}
	}
}

func TestMutualRecursion(t *testing.T) {
	a := &types.Constructor{Name: "A"}
	b := &types.Constructor{Name: "B"}
	a.Body = record(fld("next", &types.Opt{Elem: con(b)}))
	b.Body = record(fld("prev", &types.Opt{Elem: con(a)}))

	doc, err := Translate(unitOf(nil, a, b))
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if len(doc.Decls) != 2 {
		t.Fatalf("declarations: got %d, want 2", len(doc.Decls))
	}
	if doc.Decls[0].Name != "A" || doc.Decls[1].Name != "B" {
		t.Errorf("order: got %s, %s", doc.Decls[0].Name, doc.Decls[1].Name)
	}
}

func TestVariantTranslation(t *testing.T) {
	got := translateOne(t, &types.Variant{Fields: []types.Field{
		fld("ok", prim(types.Nat)),
		fld("err", prim(types.Text)),
	}})
	v, ok := got.(*Variant)
	if !ok {
		t.Fatalf("got %T, want *Variant", got)
	}
	if len(v.Fields) != 2 {
		t.Fatalf("alternatives: got %d, want 2", len(v.Fields))
	}
}

func TestVecAndOpt(t *testing.T) {
	got := translateOne(t, &types.Arr{Elem: &types.Opt{Elem: prim(types.Text)}})
	vec, ok := got.(*Vec)
	if !ok {
		t.Fatalf("got %T, want *Vec", got)
	}
	if _, ok := vec.Elem.(*Opt); !ok {
		t.Fatalf("element: got %T, want *Opt", vec.Elem)
	}
}

func TestServiceTranslation(t *testing.T) {
	entry := &types.Constructor{Name: "Entry", Body: record(fld("id", prim(types.Nat)))}
	main := actor(
		fld("get", method([]types.Type{prim(types.Nat)}, []types.Type{&types.Opt{Elem: con(entry)}})),
		fld("Entry", &types.Typ{Def: entry}),
		fld("notify", oneway(prim(types.Text))),
	)

	doc, err := Translate(unitOf(main))
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if doc.Service == nil {
		t.Fatal("no service in document")
	}

	// The type-only member declares Entry but contributes no method.
	if len(doc.Service.Methods) != 2 {
		t.Fatalf("methods: got %d, want 2", len(doc.Service.Methods))
	}
	if len(doc.Decls) != 1 || doc.Decls[0].Name != "Entry" {
		t.Fatalf("declarations: got %#v, want Entry only", doc.Decls)
	}

	// Methods keep source order.
	if doc.Service.Methods[0].Name != "get" || doc.Service.Methods[1].Name != "notify" {
		t.Errorf("method order: got %s, %s",
			doc.Service.Methods[0].Name, doc.Service.Methods[1].Name)
	}

	get := doc.Service.Methods[0].Type.(*Func)
	if get.Oneway || len(get.Args) != 1 || len(get.Rets) != 1 {
		t.Errorf("get signature: %#v", get)
	}
	notify := doc.Service.Methods[1].Type.(*Func)
	if !notify.Oneway || len(notify.Rets) != 0 {
		t.Errorf("notify signature: %#v", notify)
	}
}

func TestNestedActorBecomesServiceType(t *testing.T) {
	got := translateOne(t, actor(
		fld("ping", method(nil, nil)),
	))
	svc, ok := got.(*Service)
	if !ok {
		t.Fatalf("got %T, want *Service", got)
	}
	if len(svc.Methods) != 1 || svc.Methods[0].Name != "ping" {
		t.Errorf("methods: %#v", svc.Methods)
	}
}

func TestDefects(t *testing.T) {
	g := &types.Constructor{Name: "G", Body: prim(types.Nat)}
	cases := []struct {
		name string
		body types.Type
	}{
		{"type variable", &types.Var{Name: "T"}},
		{"async", &types.Async{Elem: prim(types.Nat)}},
		{"mutable", &types.Mut{Elem: prim(types.Nat)}},
		{"serialized", &types.Serialized{Elem: prim(types.Nat)}},
		{"generic instantiation", con(g, prim(types.Nat))},
		{"oneway with results", &types.Func{Control: types.Returns, Rets: []types.Type{prim(types.Nat)}}},
		{"polymorphic function", &types.Func{Control: types.Promises, TypeParams: []string{"T"}}},
	}
	for _, tc := range cases {
		_, err := Translate(unitOf(nil, &types.Constructor{Name: "T", Body: tc.body}))
		if err == nil {
			t.Errorf("%s: translation succeeded, want defect", tc.name)
			continue
		}
		var defect *DefectError
		if !errors.As(err, &defect) {
			t.Errorf("%s: got %T (%v), want *DefectError", tc.name, err, err)
		}
	}
}

func TestMainMustBeActor(t *testing.T) {
	_, err := Translate(unitOf(record(fld("x", prim(types.Nat)))))
	var defect *DefectError
	if !errors.As(err, &defect) {
		t.Fatalf("got %v, want *DefectError", err)
	}
}

func TestFieldIdentifierCollision(t *testing.T) {
	// hash("a") is 97, so a numeric label "97" collides with it.
	_, err := Translate(unitOf(nil, &types.Constructor{Name: "T", Body: record(
		fld("a", prim(types.Nat)),
		fld("97", prim(types.Nat)),
	)}))
	var defect *DefectError
	if !errors.As(err, &defect) {
		t.Fatalf("got %v, want *DefectError", err)
	}
}

func TestServiceMemberMustBeFunction(t *testing.T) {
	_, err := Translate(unitOf(actor(fld("x", prim(types.Nat)))))
	var defect *DefectError
	if !errors.As(err, &defect) {
		t.Fatalf("got %v, want *DefectError", err)
	}
}

// Two independent translations of the same unit must produce identical
// canonical encodings; the document hash is what consumers key on.
func TestTranslationIsDeterministic(t *testing.T) {
	build := func() *types.Unit {
		tree := &types.Constructor{Name: "Tree"}
		tree.Body = &types.Variant{Fields: []types.Field{
			fld("leaf", prim(types.Nat)),
			fld("node", &types.Tup{Elems: []types.Type{con(tree), con(tree)}}),
		}}
		main := actor(
			fld("insert", method([]types.Type{prim(types.Nat)}, nil)),
			fld("root", method(nil, []types.Type{&types.Opt{Elem: con(tree)}})),
		)
		return unitOf(main, tree)
	}

	d1, err := Translate(build())
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	d2, err := Translate(build())
	if err != nil {
		t.Fatalf("translate: %v", err)
	}

	b1, err := MarshalDocument(d1)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	b2, err := MarshalDocument(d2)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Equal(b1, b2) {
		t.Error("independent translations encode differently")
	}
}
