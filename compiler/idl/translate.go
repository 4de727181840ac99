package idl

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/aril-lang/aril/compiler/idl/fieldhash"
	"github.com/aril-lang/aril/compiler/types"
)

// ---------------------------------------------------------------------------
// Type graph -> schema translation.
//
// Named constructors are memoized in a three-state environment
// (absent / pending / resolved). A pending entry acts as a placeholder:
// it is inserted before the constructor's body is translated, so a cyclic
// reference encountered during that translation resolves to a Ref instead
// of re-entering the body. Structural recursion through tuples, records,
// variants and functions strictly shrinks the remaining non-constructor
// structure, so the placeholder states are the only cycle breaking needed.
// ---------------------------------------------------------------------------

// A DefectError reports a type that must never reach the interface
// boundary. It indicates an upstream checker bug or a genuinely
// unrepresentable program; the translation run is abandoned, never
// silently approximated.
type DefectError struct {
	Msg string
}

func (e *DefectError) Error() string { return "idl: " + e.Msg }

func defect(t types.Type) error {
	return &DefectError{Msg: "unrepresentable type at interface boundary: " + types.Describe(t)}
}

type conState int

const (
	conPending conState = iota
	conResolved
)

// Env is the translation environment for one run: the constructor memo
// table and the first-reached declaration order. One Env is created per
// compilation and threaded explicitly; runs never share state.
type Env struct {
	resolved map[string]Type
	state    map[string]conState
	order    []string
}

// NewEnv creates an empty translation environment.
func NewEnv() *Env {
	return &Env{
		resolved: make(map[string]Type),
		state:    make(map[string]conState),
	}
}

// Translate translates a checked unit into its interface document. Every
// constructor transitively reachable from the unit's entry points gets
// exactly one declaration; the unit's main actor, if any, becomes the
// document's service.
func Translate(u *types.Unit) (*Document, error) {
	env := NewEnv()
	for _, c := range u.Cons {
		if err := env.chase(c); err != nil {
			return nil, err
		}
	}

	var svc *Service
	if u.Main != nil {
		obj, ok := u.Main.(*types.Obj)
		if !ok || obj.Sort != types.Actor {
			return nil, &DefectError{Msg: "main definition is not an actor: " + types.Describe(u.Main)}
		}
		s, err := env.service(obj)
		if err != nil {
			return nil, err
		}
		svc = s
	}
	return env.Document(svc), nil
}

// Document flattens the environment into a document: declarations in
// first-reached order, plus the given service.
func (e *Env) Document(svc *Service) *Document {
	d := &Document{Service: svc}
	for _, name := range e.order {
		d.Decls = append(d.Decls, Decl{Name: name, Type: e.resolved[name]})
	}
	return d
}

// chase ensures c has a declaration in the environment, translating its
// body at most once.
func (e *Env) chase(c *types.Constructor) error {
	if _, seen := e.state[c.Name]; seen {
		return nil
	}
	// Placeholder goes in before the body is visited; recursive
	// occurrences of c resolve against it.
	e.state[c.Name] = conPending
	e.order = append(e.order, c.Name)
	t, err := e.typ(c.Body)
	if err != nil {
		return err
	}
	e.resolved[c.Name] = t
	e.state[c.Name] = conResolved
	return nil
}

// typ translates one type node.
func (e *Env) typ(t types.Type) (Type, error) {
	switch t := t.(type) {
	case *types.Prim:
		return e.prim(t)

	case *types.Con:
		if len(t.Args) > 0 {
			return nil, &DefectError{Msg: "generic instantiation of " + t.Def.Name + " at interface boundary"}
		}
		if err := e.chase(t.Def); err != nil {
			return nil, err
		}
		return &Ref{Name: t.Def.Name}, nil

	case *types.Tup:
		fields, err := e.positional(t.Elems)
		if err != nil {
			return nil, err
		}
		return &Record{Fields: fields}, nil

	case *types.Arr:
		elem, err := e.typ(t.Elem)
		if err != nil {
			return nil, err
		}
		return &Vec{Elem: elem}, nil

	case *types.Opt:
		elem, err := e.typ(t.Elem)
		if err != nil {
			return nil, err
		}
		return &Opt{Elem: elem}, nil

	case *types.Obj:
		if t.Sort == types.Actor {
			return e.service(t)
		}
		fields, err := e.labeled(t.Fields)
		if err != nil {
			return nil, err
		}
		return &Record{Fields: fields}, nil

	case *types.Variant:
		fields, err := e.labeled(t.Fields)
		if err != nil {
			return nil, err
		}
		return &Variant{Fields: fields}, nil

	case *types.Func:
		return e.fn(t)

	case *types.Var, *types.Async, *types.Mut, *types.Serialized, *types.Typ:
		return nil, defect(t)

	default:
		return nil, defect(t)
	}
}

// prim maps a primitive kind onto its schema primitive. The legacy word
// kinds collapse onto the unsigned kind of the same width; this is a
// one-way normalization.
func (e *Env) prim(t *types.Prim) (Type, error) {
	var k PrimKind
	switch t.Kind {
	case types.Null:
		k = Null
	case types.Bool:
		k = Bool
	case types.Nat:
		k = Nat
	case types.Nat8, types.Word8:
		k = Nat8
	case types.Nat16, types.Word16:
		k = Nat16
	case types.Nat32, types.Word32:
		k = Nat32
	case types.Nat64, types.Word64:
		k = Nat64
	case types.Int:
		k = Int
	case types.Int8:
		k = Int8
	case types.Int16:
		k = Int16
	case types.Int32:
		k = Int32
	case types.Int64:
		k = Int64
	case types.Float:
		k = Float64
	case types.Char:
		k = Nat32
	case types.Text:
		k = Text
	case types.Any:
		k = Reserved
	case types.Non:
		k = Empty
	default:
		return nil, defect(t)
	}
	return &Prim{Kind: k}, nil
}

// fn translates a shared function type. Only the two calling conventions
// the wire supports exist here: fire-and-forget (no reply, no results)
// and single-reply-promise.
func (e *Env) fn(t *types.Func) (*Func, error) {
	if len(t.TypeParams) > 0 {
		return nil, &DefectError{Msg: "polymorphic shared function at interface boundary"}
	}
	args, err := e.positional(t.Args)
	if err != nil {
		return nil, err
	}
	switch t.Control {
	case types.Returns:
		if len(t.Rets) > 0 {
			return nil, &DefectError{Msg: "fire-and-forget function with results at interface boundary"}
		}
		return &Func{Args: args, Oneway: true}, nil
	case types.Promises:
		rets, err := e.positional(t.Rets)
		if err != nil {
			return nil, err
		}
		return &Func{Args: args, Rets: rets}, nil
	default:
		return nil, defect(t)
	}
}

// service translates an actor object. Type-only members declare nested
// constructors without contributing a method; every other member is a
// method, in source order.
func (e *Env) service(o *types.Obj) (*Service, error) {
	svc := &Service{}
	for _, f := range o.Fields {
		if tm, ok := f.Type.(*types.Typ); ok {
			if err := e.chase(tm.Def); err != nil {
				return nil, err
			}
			continue
		}
		mt, err := e.typ(f.Type)
		if err != nil {
			return nil, err
		}
		switch mt.(type) {
		case *Func, *Ref:
		default:
			return nil, &DefectError{Msg: "service member " + f.Label + " is not a shared function"}
		}
		_, name := fieldhash.Identify(f.Label)
		svc.Methods = append(svc.Methods, Method{Name: name, Type: mt})
	}
	return svc, nil
}

// positional builds the 0..n-1 field list for tuples and function
// argument/result sequences.
func (e *Env) positional(ts []types.Type) ([]Field, error) {
	var fields []Field
	for i, t := range ts {
		ft, err := e.typ(t)
		if err != nil {
			return nil, err
		}
		fields = append(fields, Field{
			ID:   uint32(i),
			Name: strconv.Itoa(i),
			Type: ft,
		})
	}
	return fields, nil
}

// labeled builds the field list of a record or variant. Fields come out
// sorted by ascending identifier, which makes the declaration independent
// of source member order. Type-only members declare their constructor and
// are omitted from the field list.
func (e *Env) labeled(fs []types.Field) ([]Field, error) {
	var fields []Field
	byID := make(map[uint32]string, len(fs))
	for _, f := range fs {
		if tm, ok := f.Type.(*types.Typ); ok {
			if err := e.chase(tm.Def); err != nil {
				return nil, err
			}
			continue
		}
		ft, err := e.typ(f.Type)
		if err != nil {
			return nil, err
		}
		id, name := fieldhash.Identify(f.Label)
		if prev, dup := byID[id]; dup {
			return nil, &DefectError{
				Msg: fmt.Sprintf("field identifier collision: %s and %s both hash to %d", prev, name, id),
			}
		}
		byID[id] = name
		fields = append(fields, Field{ID: id, Name: name, Type: ft})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].ID < fields[j].ID })
	return fields, nil
}
