// Package bindgen generates Go binding stubs from a translated interface
// document: struct types for records, one-of structs for variants, and a
// client interface for the service. No transport is generated; callers
// supply their own message layer behind the interface.
package bindgen

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/dave/jennifer/jen"

	"github.com/aril-lang/aril/compiler/idl"
)

// Result contains the generated code and any warnings.
type Result struct {
	Code     string
	Warnings []string
}

type generator struct {
	doc      *idl.Document
	warnings []string
}

// Generate produces Go bindings for doc in the named package.
func Generate(doc *idl.Document, pkg string) (*Result, error) {
	if pkg == "" {
		pkg = "bindings"
	}
	g := &generator{doc: doc}

	f := jen.NewFile(pkg)
	f.PackageComment("Code generated by arilc. DO NOT EDIT.")

	for _, decl := range doc.Decls {
		if err := g.genDecl(f, decl); err != nil {
			return nil, fmt.Errorf("bindgen: declaration %s: %w", decl.Name, err)
		}
	}
	if doc.Service != nil {
		if err := g.genService(f, doc.Service); err != nil {
			return nil, fmt.Errorf("bindgen: service: %w", err)
		}
	}

	var b strings.Builder
	if err := f.Render(&b); err != nil {
		return nil, fmt.Errorf("bindgen: render: %w", err)
	}
	return &Result{Code: b.String(), Warnings: g.warnings}, nil
}

func (g *generator) genDecl(f *jen.File, decl idl.Decl) error {
	name := goName(decl.Name)
	switch t := decl.Type.(type) {
	case *idl.Record:
		fields, err := g.structFields(t.Fields)
		if err != nil {
			return err
		}
		f.Commentf("%s mirrors the %s record declaration.", name, decl.Name)
		f.Type().Id(name).Struct(fields...)

	case *idl.Variant:
		fields, err := g.variantFields(t.Fields)
		if err != nil {
			return err
		}
		f.Commentf("%s mirrors the %s variant declaration; exactly one field is non-nil.", name, decl.Name)
		f.Type().Id(name).Struct(fields...)

	case *idl.Func:
		sig, err := g.funcSig(t)
		if err != nil {
			return err
		}
		f.Commentf("%s mirrors the %s function type declaration.", name, decl.Name)
		f.Type().Id(name).Add(sig)

	case *idl.Service:
		return g.genNamedService(f, name, t)

	default:
		gt, err := g.goType(decl.Type)
		if err != nil {
			return err
		}
		f.Commentf("%s mirrors the %s type declaration.", name, decl.Name)
		f.Type().Id(name).Op("=").Add(gt)
	}
	f.Line()
	return nil
}

func (g *generator) genService(f *jen.File, svc *idl.Service) error {
	return g.genNamedService(f, "Service", svc)
}

func (g *generator) genNamedService(f *jen.File, name string, svc *idl.Service) error {
	var methods []jen.Code
	for _, m := range svc.Methods {
		fn, err := g.methodFunc(m.Type)
		if err != nil {
			return fmt.Errorf("method %s: %w", m.Name, err)
		}
		sig, err := g.methodSig(fn)
		if err != nil {
			return fmt.Errorf("method %s: %w", m.Name, err)
		}
		methods = append(methods, jen.Id(goName(m.Name)).Add(sig))
	}
	f.Commentf("%s is the remote interface of the unit's actor.", name)
	f.Type().Id(name).Interface(methods...)
	f.Line()
	return nil
}

// methodFunc resolves a method's type to a function signature, chasing
// references to declared function types. Documents arrive over the wire,
// so a chain of references may loop; visited names bound the chase.
func (g *generator) methodFunc(t idl.Type) (*idl.Func, error) {
	seen := make(map[string]bool)
	for {
		switch tt := t.(type) {
		case *idl.Func:
			return tt, nil
		case *idl.Ref:
			if seen[tt.Name] {
				return nil, fmt.Errorf("reference cycle through %s", tt.Name)
			}
			seen[tt.Name] = true
			target, ok := g.lookup(tt.Name)
			if !ok {
				return nil, fmt.Errorf("reference to undeclared type %s", tt.Name)
			}
			t = target
		default:
			return nil, fmt.Errorf("method type is not a function")
		}
	}
}

func (g *generator) lookup(name string) (idl.Type, bool) {
	for _, d := range g.doc.Decls {
		if d.Name == name {
			return d.Type, true
		}
	}
	return nil, false
}

// methodSig builds "(ctx context.Context, a0 T0, ...) (R0, ..., error)".
func (g *generator) methodSig(fn *idl.Func) (jen.Code, error) {
	params := []jen.Code{jen.Id("ctx").Qual("context", "Context")}
	for i, a := range fn.Args {
		at, err := g.goType(a.Type)
		if err != nil {
			return nil, err
		}
		params = append(params, jen.Id(fmt.Sprintf("arg%d", i)).Add(at))
	}
	rets := []jen.Code{}
	for _, r := range fn.Rets {
		rt, err := g.goType(r.Type)
		if err != nil {
			return nil, err
		}
		rets = append(rets, rt)
	}
	rets = append(rets, jen.Error())
	if len(rets) == 1 {
		return jen.Params(params...).Error(), nil
	}
	return jen.Params(params...).Parens(jen.List(rets...)), nil
}

// funcSig builds a func type for a declared function type.
func (g *generator) funcSig(fn *idl.Func) (jen.Code, error) {
	sig, err := g.methodSig(fn)
	if err != nil {
		return nil, err
	}
	return jen.Func().Add(sig), nil
}

func (g *generator) structFields(fields []idl.Field) ([]jen.Code, error) {
	var out []jen.Code
	for _, fd := range fields {
		ft, err := g.goType(fd.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", fd.Name, err)
		}
		out = append(out, jen.Id(goName(fd.Name)).Add(ft).Tag(map[string]string{"ail": fd.Name}))
	}
	return out, nil
}

// variantFields renders every alternative as a pointer so absence is
// representable; null-payload alternatives become *struct{}.
func (g *generator) variantFields(fields []idl.Field) ([]jen.Code, error) {
	var out []jen.Code
	for _, fd := range fields {
		ft, err := g.goType(fd.Type)
		if err != nil {
			return nil, fmt.Errorf("alternative %s: %w", fd.Name, err)
		}
		out = append(out, jen.Id(goName(fd.Name)).Op("*").Add(ft).Tag(map[string]string{"ail": fd.Name}))
	}
	return out, nil
}

func (g *generator) goType(t idl.Type) (*jen.Statement, error) {
	switch t := t.(type) {
	case *idl.Prim:
		return g.primType(t.Kind)
	case *idl.Ref:
		return jen.Id(goName(t.Name)), nil
	case *idl.Opt:
		e, err := g.goType(t.Elem)
		if err != nil {
			return nil, err
		}
		return jen.Op("*").Add(e), nil
	case *idl.Vec:
		e, err := g.goType(t.Elem)
		if err != nil {
			return nil, err
		}
		return jen.Index().Add(e), nil
	case *idl.Record:
		fields, err := g.structFields(t.Fields)
		if err != nil {
			return nil, err
		}
		return jen.Struct(fields...), nil
	case *idl.Variant:
		fields, err := g.variantFields(t.Fields)
		if err != nil {
			return nil, err
		}
		return jen.Struct(fields...), nil
	case *idl.Func:
		sig, err := g.funcSig(t)
		if err != nil {
			return nil, err
		}
		return jen.Add(sig), nil
	default:
		return nil, fmt.Errorf("cannot map %T to a Go type", t)
	}
}

func (g *generator) primType(k idl.PrimKind) (*jen.Statement, error) {
	switch k {
	case idl.Null:
		return jen.Struct(), nil
	case idl.Bool:
		return jen.Bool(), nil
	case idl.Nat:
		g.warn("nat is unbounded; bindings use uint64")
		return jen.Uint64(), nil
	case idl.Nat8:
		return jen.Uint8(), nil
	case idl.Nat16:
		return jen.Uint16(), nil
	case idl.Nat32:
		return jen.Uint32(), nil
	case idl.Nat64:
		return jen.Uint64(), nil
	case idl.Int:
		g.warn("int is unbounded; bindings use int64")
		return jen.Int64(), nil
	case idl.Int8:
		return jen.Int8(), nil
	case idl.Int16:
		return jen.Int16(), nil
	case idl.Int32:
		return jen.Int32(), nil
	case idl.Int64:
		return jen.Int64(), nil
	case idl.Float64:
		return jen.Float64(), nil
	case idl.Text:
		return jen.String(), nil
	case idl.Reserved:
		return jen.Any(), nil
	case idl.Empty:
		g.warn("empty has no values; bindings use struct{}")
		return jen.Struct(), nil
	default:
		return nil, fmt.Errorf("unknown primitive kind %d", k)
	}
}

func (g *generator) warn(msg string) {
	for _, w := range g.warnings {
		if w == msg {
			return
		}
	}
	g.warnings = append(g.warnings, msg)
}

// goName converts an interface-level identifier to an exported Go name.
func goName(s string) string {
	if s == "" {
		return "X"
	}
	var b strings.Builder
	up := true
	for _, r := range s {
		switch {
		case r == '_' || r == '-':
			up = true
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if up {
				b.WriteRune(unicode.ToUpper(r))
				up = false
			} else {
				b.WriteRune(r)
			}
		default:
			up = true
		}
	}
	out := b.String()
	if out == "" {
		return "X"
	}
	if unicode.IsDigit(rune(out[0])) {
		out = "F" + out
	}
	return out
}
