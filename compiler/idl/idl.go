// Package idl translates the compiler's internal type graph into the
// interface-description form that independently compiled Aril programs use
// to talk to each other. The output of a translation run is a Document: an
// ordered list of named type declarations plus, for programs, the exported
// actor's service type.
package idl

// ---------------------------------------------------------------------------
// Schema types
// ---------------------------------------------------------------------------

// Type is the interface implemented by all schema type nodes.
type Type interface {
	typ() // marker method
}

// PrimKind enumerates the schema primitive types.
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
	Float64
	Text
	Reserved // top: accepts any value
	Empty    // bottom: accepts no value
)

var primText = map[PrimKind]string{
	Null:     "null",
	Bool:     "bool",
	Nat:      "nat",
	Nat8:     "nat8",
	Nat16:    "nat16",
	Nat32:    "nat32",
	Nat64:    "nat64",
	Int:      "int",
	Int8:     "int8",
	Int16:    "int16",
	Int32:    "int32",
	Int64:    "int64",
	Float64:  "float64",
	Text:     "text",
	Reserved: "reserved",
	Empty:    "empty",
}

// String returns the textual keyword of a primitive kind.
func (k PrimKind) String() string {
	if s, ok := primText[k]; ok {
		return s
	}
	return "?"
}

// Prim is a schema primitive type.
type Prim struct {
	Kind PrimKind
}

// Ref is a reference to a named declaration in the same document.
type Ref struct {
	Name string
}

// Opt is an optional type: Elem or absent.
type Opt struct {
	Elem Type
}

// Vec is a homogeneous sequence of Elem.
type Vec struct {
	Elem Type
}

// Field is one labeled member of a record or variant. ID is the stable
// wire identifier (a hash of the textual name, or the literal value of a
// numeric label); Name is the display name.
type Field struct {
	ID   uint32
	Name string
	Type Type
}

// Record is a product of labeled fields, ordered by ascending ID.
type Record struct {
	Fields []Field
}

// Variant is a tagged union of labeled alternatives, ordered by
// ascending ID.
type Variant struct {
	Fields []Field
}

// Func is a remotely callable function signature. Args and Rets are
// positional field lists (IDs 0..n-1). Oneway marks fire-and-forget
// functions, which have no result fields.
type Func struct {
	Args   []Field
	Rets   []Field
	Oneway bool
}

// Method is one callable member of a service. Type is a *Func, or a *Ref
// to a declared function type.
type Method struct {
	Name string
	Type Type
}

// Service is the remotely callable interface of an actor. Methods appear
// in source order.
type Service struct {
	Methods []Method
}

func (*Prim) typ()    {}
func (*Ref) typ()     {}
func (*Opt) typ()     {}
func (*Vec) typ()     {}
func (*Record) typ()  {}
func (*Variant) typ() {}
func (*Func) typ()    {}
func (*Service) typ() {}

// ---------------------------------------------------------------------------
// Documents
// ---------------------------------------------------------------------------

// Decl is a named type declaration.
type Decl struct {
	Name string
	Type Type
}

// Document is the translated interface description of one compilation
// unit: declarations in first-reached order, plus the exported service
// for programs (nil for libraries).
type Document struct {
	Decls   []Decl
	Service *Service
}
