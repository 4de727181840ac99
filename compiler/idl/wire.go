package idl

import (
	"crypto/sha256"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ---------------------------------------------------------------------------
// Binary form of a document: canonical CBOR, so two independent
// compilations of the same unit produce byte-identical encodings. The
// content hash over this form is what the schema store keys on.
// ---------------------------------------------------------------------------

// DocWireVersion is the version prefix of the document encoding.
const DocWireVersion = 1

var docEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("idl: failed to create CBOR enc mode: %v", err))
	}
	docEncMode = em
}

type docWire struct {
	Version int          `cbor:"v"`
	Decls   []declWire   `cbor:"decls"`
	Service *serviceWire `cbor:"service,omitempty"`
}

type declWire struct {
	Name string   `cbor:"name"`
	Type typeWire `cbor:"type"`
}

type typeWire struct {
	Kind   string       `cbor:"k"`
	Prim   string       `cbor:"p,omitempty"`
	Name   string       `cbor:"n,omitempty"`
	Elem   *typeWire    `cbor:"e,omitempty"`
	Fields []fieldWire  `cbor:"f,omitempty"`
	Args   []fieldWire  `cbor:"a,omitempty"`
	Rets   []fieldWire  `cbor:"r,omitempty"`
	Oneway bool         `cbor:"ow,omitempty"`
	Svc    *serviceWire `cbor:"svc,omitempty"`
}

type fieldWire struct {
	ID   uint32   `cbor:"id"`
	Name string   `cbor:"name"`
	Type typeWire `cbor:"type"`
}

type serviceWire struct {
	Methods []methodWire `cbor:"methods"`
}

type methodWire struct {
	Name string   `cbor:"name"`
	Type typeWire `cbor:"type"`
}

// MarshalDocument serializes a document to canonical CBOR bytes.
func MarshalDocument(d *Document) ([]byte, error) {
	w := docWire{Version: DocWireVersion}
	for _, decl := range d.Decls {
		tw, err := encodeType(decl.Type)
		if err != nil {
			return nil, fmt.Errorf("idl: declaration %s: %w", decl.Name, err)
		}
		w.Decls = append(w.Decls, declWire{Name: decl.Name, Type: *tw})
	}
	if d.Service != nil {
		sw, err := encodeService(d.Service)
		if err != nil {
			return nil, fmt.Errorf("idl: service: %w", err)
		}
		w.Service = sw
	}
	return docEncMode.Marshal(&w)
}

// UnmarshalDocument deserializes a document from CBOR bytes.
func UnmarshalDocument(data []byte) (*Document, error) {
	var w docWire
	if err := cbor.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("idl: unmarshal document: %w", err)
	}
	if w.Version != DocWireVersion {
		return nil, fmt.Errorf("idl: unsupported document version %d", w.Version)
	}
	d := &Document{}
	for _, dw := range w.Decls {
		t, err := decodeType(&dw.Type)
		if err != nil {
			return nil, fmt.Errorf("idl: declaration %s: %w", dw.Name, err)
		}
		d.Decls = append(d.Decls, Decl{Name: dw.Name, Type: t})
	}
	if w.Service != nil {
		s, err := decodeService(w.Service)
		if err != nil {
			return nil, fmt.Errorf("idl: service: %w", err)
		}
		d.Service = s
	}
	return d, nil
}

// DocumentHash returns the SHA-256 content hash of a document's canonical
// binary form.
func DocumentHash(d *Document) ([32]byte, error) {
	data, err := MarshalDocument(d)
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(data), nil
}

func encodeType(t Type) (*typeWire, error) {
	switch t := t.(type) {
	case *Prim:
		return &typeWire{Kind: "prim", Prim: t.Kind.String()}, nil
	case *Ref:
		return &typeWire{Kind: "ref", Name: t.Name}, nil
	case *Opt:
		e, err := encodeType(t.Elem)
		if err != nil {
			return nil, err
		}
		return &typeWire{Kind: "opt", Elem: e}, nil
	case *Vec:
		e, err := encodeType(t.Elem)
		if err != nil {
			return nil, err
		}
		return &typeWire{Kind: "vec", Elem: e}, nil
	case *Record:
		fs, err := encodeFieldList(t.Fields)
		if err != nil {
			return nil, err
		}
		return &typeWire{Kind: "record", Fields: fs}, nil
	case *Variant:
		fs, err := encodeFieldList(t.Fields)
		if err != nil {
			return nil, err
		}
		return &typeWire{Kind: "variant", Fields: fs}, nil
	case *Func:
		args, err := encodeFieldList(t.Args)
		if err != nil {
			return nil, err
		}
		rets, err := encodeFieldList(t.Rets)
		if err != nil {
			return nil, err
		}
		return &typeWire{Kind: "func", Args: args, Rets: rets, Oneway: t.Oneway}, nil
	case *Service:
		sw, err := encodeService(t)
		if err != nil {
			return nil, err
		}
		return &typeWire{Kind: "service", Svc: sw}, nil
	default:
		return nil, fmt.Errorf("unknown schema type %T", t)
	}
}

func encodeFieldList(fields []Field) ([]fieldWire, error) {
	var out []fieldWire
	for _, f := range fields {
		tw, err := encodeType(f.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		out = append(out, fieldWire{ID: f.ID, Name: f.Name, Type: *tw})
	}
	return out, nil
}

func encodeService(s *Service) (*serviceWire, error) {
	sw := &serviceWire{}
	for _, m := range s.Methods {
		tw, err := encodeType(m.Type)
		if err != nil {
			return nil, fmt.Errorf("method %s: %w", m.Name, err)
		}
		sw.Methods = append(sw.Methods, methodWire{Name: m.Name, Type: *tw})
	}
	return sw, nil
}

var primByText = func() map[string]PrimKind {
	m := make(map[string]PrimKind, len(primText))
	for k, s := range primText {
		m[s] = k
	}
	return m
}()

func decodeType(w *typeWire) (Type, error) {
	switch w.Kind {
	case "prim":
		k, ok := primByText[w.Prim]
		if !ok {
			return nil, fmt.Errorf("unknown primitive %q", w.Prim)
		}
		return &Prim{Kind: k}, nil
	case "ref":
		return &Ref{Name: w.Name}, nil
	case "opt":
		if w.Elem == nil {
			return nil, fmt.Errorf("opt node missing element")
		}
		e, err := decodeType(w.Elem)
		if err != nil {
			return nil, err
		}
		return &Opt{Elem: e}, nil
	case "vec":
		if w.Elem == nil {
			return nil, fmt.Errorf("vec node missing element")
		}
		e, err := decodeType(w.Elem)
		if err != nil {
			return nil, err
		}
		return &Vec{Elem: e}, nil
	case "record":
		fs, err := decodeFieldList(w.Fields)
		if err != nil {
			return nil, err
		}
		return &Record{Fields: fs}, nil
	case "variant":
		fs, err := decodeFieldList(w.Fields)
		if err != nil {
			return nil, err
		}
		return &Variant{Fields: fs}, nil
	case "func":
		args, err := decodeFieldList(w.Args)
		if err != nil {
			return nil, err
		}
		rets, err := decodeFieldList(w.Rets)
		if err != nil {
			return nil, err
		}
		return &Func{Args: args, Rets: rets, Oneway: w.Oneway}, nil
	case "service":
		if w.Svc == nil {
			return nil, fmt.Errorf("service node missing body")
		}
		return decodeService(w.Svc)
	default:
		return nil, fmt.Errorf("unknown node kind %q", w.Kind)
	}
}

func decodeFieldList(fields []fieldWire) ([]Field, error) {
	var out []Field
	for i := range fields {
		t, err := decodeType(&fields[i].Type)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", fields[i].Name, err)
		}
		out = append(out, Field{ID: fields[i].ID, Name: fields[i].Name, Type: t})
	}
	return out, nil
}

func decodeService(w *serviceWire) (*Service, error) {
	s := &Service{}
	for _, mw := range w.Methods {
		t, err := decodeType(&mw.Type)
		if err != nil {
			return nil, fmt.Errorf("method %s: %w", mw.Name, err)
		}
		s.Methods = append(s.Methods, Method{Name: mw.Name, Type: t})
	}
	return s, nil
}
