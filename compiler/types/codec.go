package types

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ---------------------------------------------------------------------------
// Unit interchange: the serialized form of a checked compilation unit's
// constructor table, so the back end can run as a separate process from
// the checker. Constructors are flattened by name and re-linked on decode,
// which keeps the encoding finite for cyclic type graphs.
// ---------------------------------------------------------------------------

// Unit is one compilation unit's resolved type information: its named
// constructors in definition order, plus the exported actor type for
// programs (nil for libraries).
type Unit struct {
	Name string
	Cons []*Constructor
	Main Type
}

// WireVersion is the version prefix of the unit encoding. Bumping it
// invalidates previously written .types files.
const WireVersion = 1

var encMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("types: failed to create CBOR enc mode: %v", err))
	}
	encMode = em
}

type unitWire struct {
	Version int       `cbor:"v"`
	Name    string    `cbor:"name"`
	Cons    []conWire `cbor:"cons"`
	Main    *nodeWire `cbor:"main,omitempty"`
}

type conWire struct {
	Name string   `cbor:"name"`
	Body nodeWire `cbor:"body"`
}

type nodeWire struct {
	Kind    string      `cbor:"k"`
	Prim    string      `cbor:"p,omitempty"`
	Name    string      `cbor:"n,omitempty"`
	Elem    *nodeWire   `cbor:"e,omitempty"`
	List    []nodeWire  `cbor:"l,omitempty"`
	Rets    []nodeWire  `cbor:"r,omitempty"`
	Fields  []fieldWire `cbor:"f,omitempty"`
	Sort    string      `cbor:"s,omitempty"`
	Control string      `cbor:"c,omitempty"`
	Params  []string    `cbor:"tp,omitempty"`
}

type fieldWire struct {
	Label string   `cbor:"l"`
	Type  nodeWire `cbor:"t"`
}

// EncodeUnit serializes a unit to its canonical CBOR wire form.
func EncodeUnit(u *Unit) ([]byte, error) {
	w := unitWire{Version: WireVersion, Name: u.Name}
	for _, c := range u.Cons {
		body, err := encodeNode(c.Body)
		if err != nil {
			return nil, fmt.Errorf("types: constructor %s: %w", c.Name, err)
		}
		w.Cons = append(w.Cons, conWire{Name: c.Name, Body: *body})
	}
	if u.Main != nil {
		main, err := encodeNode(u.Main)
		if err != nil {
			return nil, fmt.Errorf("types: main actor: %w", err)
		}
		w.Main = main
	}
	return encMode.Marshal(&w)
}

// DecodeUnit deserializes a unit from its CBOR wire form, re-linking
// constructor references by name.
func DecodeUnit(data []byte) (*Unit, error) {
	var w unitWire
	if err := cbor.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("types: unmarshal unit: %w", err)
	}
	if w.Version != WireVersion {
		return nil, fmt.Errorf("types: unsupported unit version %d", w.Version)
	}

	// First pass: create every constructor so bodies can reference any of
	// them, including forward and cyclic references.
	u := &Unit{Name: w.Name}
	byName := make(map[string]*Constructor, len(w.Cons))
	for _, cw := range w.Cons {
		if _, dup := byName[cw.Name]; dup {
			return nil, fmt.Errorf("types: duplicate constructor %s", cw.Name)
		}
		c := &Constructor{Name: cw.Name}
		byName[cw.Name] = c
		u.Cons = append(u.Cons, c)
	}

	// Second pass: decode bodies against the complete name set.
	for i, cw := range w.Cons {
		body, err := decodeNode(&cw.Body, byName)
		if err != nil {
			return nil, fmt.Errorf("types: constructor %s: %w", cw.Name, err)
		}
		u.Cons[i].Body = body
	}
	if w.Main != nil {
		main, err := decodeNode(w.Main, byName)
		if err != nil {
			return nil, fmt.Errorf("types: main actor: %w", err)
		}
		u.Main = main
	}
	return u, nil
}

// ---------------------------------------------------------------------------
// Node encoding
// ---------------------------------------------------------------------------

var primByName = func() map[string]PrimKind {
	m := make(map[string]PrimKind, len(primName))
	for k, s := range primName {
		m[s] = k
	}
	return m
}()

func encodeNode(t Type) (*nodeWire, error) {
	switch t := t.(type) {
	case *Prim:
		if _, ok := primName[t.Kind]; !ok {
			return nil, fmt.Errorf("unknown primitive kind %d", t.Kind)
		}
		return &nodeWire{Kind: "prim", Prim: t.Kind.String()}, nil

	case *Var:
		return &nodeWire{Kind: "var", Name: t.Name}, nil

	case *Con:
		n := &nodeWire{Kind: "con", Name: t.Def.Name}
		for _, a := range t.Args {
			aw, err := encodeNode(a)
			if err != nil {
				return nil, err
			}
			n.List = append(n.List, *aw)
		}
		return n, nil

	case *Tup:
		n := &nodeWire{Kind: "tup"}
		for _, e := range t.Elems {
			ew, err := encodeNode(e)
			if err != nil {
				return nil, err
			}
			n.List = append(n.List, *ew)
		}
		return n, nil

	case *Arr:
		e, err := encodeNode(t.Elem)
		if err != nil {
			return nil, err
		}
		return &nodeWire{Kind: "arr", Elem: e}, nil

	case *Opt:
		e, err := encodeNode(t.Elem)
		if err != nil {
			return nil, err
		}
		return &nodeWire{Kind: "opt", Elem: e}, nil

	case *Obj:
		n := &nodeWire{Kind: "obj", Sort: "object"}
		if t.Sort == Actor {
			n.Sort = "actor"
		}
		fs, err := encodeFields(t.Fields)
		if err != nil {
			return nil, err
		}
		n.Fields = fs
		return n, nil

	case *Variant:
		fs, err := encodeFields(t.Fields)
		if err != nil {
			return nil, err
		}
		return &nodeWire{Kind: "variant", Fields: fs}, nil

	case *Func:
		n := &nodeWire{Kind: "func", Control: "returns", Params: t.TypeParams}
		if t.Control == Promises {
			n.Control = "promises"
		}
		for _, a := range t.Args {
			aw, err := encodeNode(a)
			if err != nil {
				return nil, err
			}
			n.List = append(n.List, *aw)
		}
		for _, r := range t.Rets {
			rw, err := encodeNode(r)
			if err != nil {
				return nil, err
			}
			n.Rets = append(n.Rets, *rw)
		}
		return n, nil

	case *Typ:
		return &nodeWire{Kind: "typ", Name: t.Def.Name}, nil

	case *Async:
		e, err := encodeNode(t.Elem)
		if err != nil {
			return nil, err
		}
		return &nodeWire{Kind: "async", Elem: e}, nil

	case *Mut:
		e, err := encodeNode(t.Elem)
		if err != nil {
			return nil, err
		}
		return &nodeWire{Kind: "mut", Elem: e}, nil

	case *Serialized:
		e, err := encodeNode(t.Elem)
		if err != nil {
			return nil, err
		}
		return &nodeWire{Kind: "serialized", Elem: e}, nil

	default:
		return nil, fmt.Errorf("unknown type node %T", t)
	}
}

func encodeFields(fields []Field) ([]fieldWire, error) {
	var out []fieldWire
	for _, f := range fields {
		tw, err := encodeNode(f.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Label, err)
		}
		out = append(out, fieldWire{Label: f.Label, Type: *tw})
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Node decoding
// ---------------------------------------------------------------------------

func decodeNode(n *nodeWire, cons map[string]*Constructor) (Type, error) {
	switch n.Kind {
	case "prim":
		k, ok := primByName[n.Prim]
		if !ok {
			return nil, fmt.Errorf("unknown primitive %q", n.Prim)
		}
		return &Prim{Kind: k}, nil

	case "var":
		return &Var{Name: n.Name}, nil

	case "con":
		def, ok := cons[n.Name]
		if !ok {
			return nil, fmt.Errorf("reference to undefined constructor %s", n.Name)
		}
		c := &Con{Def: def}
		for i := range n.List {
			a, err := decodeNode(&n.List[i], cons)
			if err != nil {
				return nil, err
			}
			c.Args = append(c.Args, a)
		}
		return c, nil

	case "tup":
		t := &Tup{}
		for i := range n.List {
			e, err := decodeNode(&n.List[i], cons)
			if err != nil {
				return nil, err
			}
			t.Elems = append(t.Elems, e)
		}
		return t, nil

	case "arr":
		e, err := decodeElem(n, cons)
		if err != nil {
			return nil, err
		}
		return &Arr{Elem: e}, nil

	case "opt":
		e, err := decodeElem(n, cons)
		if err != nil {
			return nil, err
		}
		return &Opt{Elem: e}, nil

	case "obj":
		sort := Object
		if n.Sort == "actor" {
			sort = Actor
		}
		fs, err := decodeFields(n.Fields, cons)
		if err != nil {
			return nil, err
		}
		return &Obj{Sort: sort, Fields: fs}, nil

	case "variant":
		fs, err := decodeFields(n.Fields, cons)
		if err != nil {
			return nil, err
		}
		return &Variant{Fields: fs}, nil

	case "func":
		f := &Func{Control: Returns, TypeParams: n.Params}
		if n.Control == "promises" {
			f.Control = Promises
		}
		for i := range n.List {
			a, err := decodeNode(&n.List[i], cons)
			if err != nil {
				return nil, err
			}
			f.Args = append(f.Args, a)
		}
		for i := range n.Rets {
			r, err := decodeNode(&n.Rets[i], cons)
			if err != nil {
				return nil, err
			}
			f.Rets = append(f.Rets, r)
		}
		return f, nil

	case "typ":
		def, ok := cons[n.Name]
		if !ok {
			return nil, fmt.Errorf("type member references undefined constructor %s", n.Name)
		}
		return &Typ{Def: def}, nil

	case "async":
		e, err := decodeElem(n, cons)
		if err != nil {
			return nil, err
		}
		return &Async{Elem: e}, nil

	case "mut":
		e, err := decodeElem(n, cons)
		if err != nil {
			return nil, err
		}
		return &Mut{Elem: e}, nil

	case "serialized":
		e, err := decodeElem(n, cons)
		if err != nil {
			return nil, err
		}
		return &Serialized{Elem: e}, nil

	default:
		return nil, fmt.Errorf("unknown node kind %q", n.Kind)
	}
}

func decodeElem(n *nodeWire, cons map[string]*Constructor) (Type, error) {
	if n.Elem == nil {
		return nil, fmt.Errorf("%s node missing element type", n.Kind)
	}
	return decodeNode(n.Elem, cons)
}

func decodeFields(fields []fieldWire, cons map[string]*Constructor) ([]Field, error) {
	var out []Field
	for i := range fields {
		t, err := decodeNode(&fields[i].Type, cons)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", fields[i].Label, err)
		}
		out = append(out, Field{Label: fields[i].Label, Type: t})
	}
	return out, nil
}
