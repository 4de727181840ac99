package idl

import (
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Textual rendering of a document (.ail form). The output is stable for a
// given document: declarations in document order, record and variant
// fields already in ascending-identifier order from translation.
// ---------------------------------------------------------------------------

// Text renders the document in its textual interface form.
func (d *Document) Text() string {
	var b strings.Builder
	for _, decl := range d.Decls {
		b.WriteString("type ")
		b.WriteString(decl.Name)
		b.WriteString(" = ")
		writeType(&b, decl.Type)
		b.WriteString(";\n")
	}
	if d.Service != nil {
		if len(d.Decls) > 0 {
			b.WriteString("\n")
		}
		b.WriteString("service : {\n")
		for _, m := range d.Service.Methods {
			b.WriteString("  ")
			b.WriteString(m.Name)
			b.WriteString(" : ")
			writeType(&b, m.Type)
			b.WriteString(";\n")
		}
		b.WriteString("};\n")
	}
	return b.String()
}

func writeType(b *strings.Builder, t Type) {
	switch t := t.(type) {
	case *Prim:
		b.WriteString(t.Kind.String())

	case *Ref:
		b.WriteString(t.Name)

	case *Opt:
		b.WriteString("opt ")
		writeType(b, t.Elem)

	case *Vec:
		b.WriteString("vec ")
		writeType(b, t.Elem)

	case *Record:
		b.WriteString("record {")
		writeFields(b, t.Fields)
		b.WriteString("}")

	case *Variant:
		b.WriteString("variant {")
		writeFields(b, t.Fields)
		b.WriteString("}")

	case *Func:
		writeArgList(b, t.Args)
		b.WriteString(" -> ")
		writeArgList(b, t.Rets)
		if t.Oneway {
			b.WriteString(" oneway")
		}

	case *Service:
		b.WriteString("service {")
		for i, m := range t.Methods {
			if i > 0 {
				b.WriteString(";")
			}
			b.WriteString(" ")
			b.WriteString(m.Name)
			b.WriteString(" : ")
			writeType(b, m.Type)
		}
		if len(t.Methods) > 0 {
			b.WriteString(" ")
		}
		b.WriteString("}")

	default:
		b.WriteString("?")
	}
}

// writeFields renders a field list. Purely positional field lists
// (identifiers exactly 0..n-1 in order) print bare types, the way tuples
// read; anything else prints "name : type".
func writeFields(b *strings.Builder, fields []Field) {
	if len(fields) == 0 {
		return
	}
	pos := positionalFields(fields)
	for i, f := range fields {
		if i > 0 {
			b.WriteString(";")
		}
		b.WriteString(" ")
		if !pos {
			b.WriteString(f.Name)
			b.WriteString(" : ")
		}
		writeType(b, f.Type)
	}
	b.WriteString(" ")
}

// writeArgList renders function argument or result fields, which are
// always positional.
func writeArgList(b *strings.Builder, fields []Field) {
	b.WriteString("(")
	for i, f := range fields {
		if i > 0 {
			b.WriteString(", ")
		}
		writeType(b, f.Type)
	}
	b.WriteString(")")
}

func positionalFields(fields []Field) bool {
	for i, f := range fields {
		if f.ID != uint32(i) || f.Name != strconv.Itoa(i) {
			return false
		}
	}
	return true
}
