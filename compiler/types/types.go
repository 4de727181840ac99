// Package types defines the compiler's internal structural type
// representation, as handed to the back end by the type checker. The
// checker resolves names, checks well-formedness and normalizes away
// surface sugar before anything here is constructed; the back end treats
// the graph as trusted input except where the interface boundary is
// narrower than the language (see package idl).
package types

// ---------------------------------------------------------------------------
// Type graph
// ---------------------------------------------------------------------------

// Type is the interface implemented by all type nodes.
type Type interface {
	typ() // marker method
}

// PrimKind enumerates the primitive types.
type PrimKind int

const (
	Null PrimKind = iota
	Bool
	Nat
	Nat8
	Nat16
	Nat32
	Nat64
	Int
	Int8
	Int16
	Int32
	Int64
	// The word types are legacy fixed-width kinds. They are distinct in
	// the source language but carry no extra information at the interface
	// boundary, where they collapse onto the unsigned kinds of the same
	// width.
	Word8
	Word16
	Word32
	Word64
	Float
	Char
	Text
	Any // top
	Non // bottom
)

// Prim is a primitive type.
type Prim struct {
	Kind PrimKind
}

// Var is a type variable. These exist only inside the checker; one
// reaching the back end is a checker bug.
type Var struct {
	Name  string
	Index int
}

// Con is a reference to a named type constructor, with type arguments.
// The checker links Def directly, so recursive and mutually recursive
// definitions form cycles through Con nodes.
type Con struct {
	Def  *Constructor
	Args []Type
}

// Tup is an ordered tuple of component types.
type Tup struct {
	Elems []Type
}

// Arr is a homogeneous sequence of Elem.
type Arr struct {
	Elem Type
}

// Opt is Elem or absent.
type Opt struct {
	Elem Type
}

// ObjSort distinguishes plain data objects from actors.
type ObjSort int

const (
	Object ObjSort = iota
	Actor
)

// Field is a labeled member of an object or variant. The label is either
// a textual identifier or a decimal numeric index.
type Field struct {
	Label string
	Type  Type
}

// Obj is a structural object: a set of labeled fields, either plain data
// or an actor interface.
type Obj struct {
	Sort   ObjSort
	Fields []Field
}

// Variant is a tagged union of labeled alternatives.
type Variant struct {
	Fields []Field
}

// Control is a shared function's calling convention.
type Control int

const (
	// Returns is fire-and-forget: the call produces no reply.
	Returns Control = iota
	// Promises is call-with-single-reply: the result arrives as one
	// asynchronous reply message.
	Promises
)

// Func is a shared function type.
type Func struct {
	Control    Control
	TypeParams []string
	Args       []Type
	Rets       []Type
}

// Typ wraps a nested named-type declaration appearing as an object member
// (a type-only member: it declares a type, it is not a value field).
type Typ struct {
	Def *Constructor
}

// Async is an in-flight asynchronous value. Never crosses the interface
// boundary.
type Async struct {
	Elem Type
}

// Mut is a mutable cell. Never crosses the interface boundary.
type Mut struct {
	Elem Type
}

// Serialized is a pre-serialized payload wrapper. Never crosses the
// interface boundary.
type Serialized struct {
	Elem Type
}

func (*Prim) typ()       {}
func (*Var) typ()        {}
func (*Con) typ()        {}
func (*Tup) typ()        {}
func (*Arr) typ()        {}
func (*Opt) typ()        {}
func (*Obj) typ()        {}
func (*Variant) typ()    {}
func (*Func) typ()       {}
func (*Typ) typ()        {}
func (*Async) typ()      {}
func (*Mut) typ()        {}
func (*Serialized) typ() {}

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

// Constructor is a named type definition: an identifier bound to a body
// type. Bodies may reference their own or other constructors, including
// mutual recursion; the checker creates the Constructor before filling in
// Body so cycles can be tied directly.
type Constructor struct {
	Name string
	Body Type
}

// primName maps PrimKind to its source-level name.
var primName = map[PrimKind]string{
	Null:   "Null",
	Bool:   "Bool",
	Nat:    "Nat",
	Nat8:   "Nat8",
	Nat16:  "Nat16",
	Nat32:  "Nat32",
	Nat64:  "Nat64",
	Int:    "Int",
	Int8:   "Int8",
	Int16:  "Int16",
	Int32:  "Int32",
	Int64:  "Int64",
	Word8:  "Word8",
	Word16: "Word16",
	Word32: "Word32",
	Word64: "Word64",
	Float:  "Float",
	Char:   "Char",
	Text:   "Text",
	Any:    "Any",
	Non:    "None",
}

// String returns the source-level name of a primitive kind.
func (k PrimKind) String() string {
	if s, ok := primName[k]; ok {
		return s
	}
	return "?"
}

// Describe returns a short human-readable description of a type's shape,
// used in diagnostics. It does not recurse into constructor bodies.
func Describe(t Type) string {
	switch t := t.(type) {
	case *Prim:
		return t.Kind.String()
	case *Var:
		return "type variable " + t.Name
	case *Con:
		return "type " + t.Def.Name
	case *Tup:
		return "tuple"
	case *Arr:
		return "array"
	case *Opt:
		return "option"
	case *Obj:
		if t.Sort == Actor {
			return "actor"
		}
		return "object"
	case *Variant:
		return "variant"
	case *Func:
		return "shared function"
	case *Typ:
		return "type member " + t.Def.Name
	case *Async:
		return "async"
	case *Mut:
		return "mutable"
	case *Serialized:
		return "serialized"
	default:
		return "?"
	}
}
