package ast

import (
	"bytes"
	"fmt"
	"reflect"
)

// PprintToken renders a Token tree as indented field dumps, for
// cmd/shellsyntax's --print-ast flag.
func PprintToken(t Token) string {
	var b bytes.Buffer
	pprintNode(&b, "", describe(reflect.ValueOf(t)))
	return b.String()
}

type node struct {
	name   string
	fields []*field
}

type field struct {
	name   string
	scalar interface{}
	child  *node
	childs []*node
}

var tokenTyp = reflect.TypeOf((*Token)(nil)).Elem()

// describe builds the intermediate node/field representation for v, which
// may be a Token, a plain aggregate struct (IfBranch, CaseArm), or a
// pointer to either.
func describe(v reflect.Value) *node {
	if !v.IsValid() {
		return nil
	}
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}
	typ := v.Type()
	n := &node{name: typ.Name()}
	for i := 0; i < v.NumField(); i++ {
		sf := typ.Field(i)
		if sf.PkgPath != "" {
			continue // unexported, including the embedded "base" header
		}
		fv := v.Field(i)
		f := &field{name: sf.Name}
		switch {
		case sf.Type.AssignableTo(tokenTyp):
			if !fv.IsNil() {
				f.child = describe(fv.Elem())
			}
		case sf.Type.Kind() == reflect.Slice && sf.Type.Elem().AssignableTo(tokenTyp):
			for j := 0; j < fv.Len(); j++ {
				elem := fv.Index(j)
				if elem.IsNil() {
					f.childs = append(f.childs, nil)
					continue
				}
				f.childs = append(f.childs, describe(elem.Elem()))
			}
		case sf.Type.Kind() == reflect.Slice && sf.Type.Elem().Kind() == reflect.Struct:
			// []IfBranch, []CaseArm: plain aggregate structs, not Tokens.
			for j := 0; j < fv.Len(); j++ {
				f.childs = append(f.childs, describe(fv.Index(j)))
			}
		case sf.Type.Kind() == reflect.Struct:
			f.child = describe(fv)
		default:
			f.scalar = fv.Interface()
		}
		n.fields = append(n.fields, f)
	}
	return n
}

func pprintNode(buf *bytes.Buffer, indent string, n *node) {
	if n == nil {
		buf.WriteString("nil")
		return
	}
	buf.WriteString(n.name)
	indent1 := indent + "  "
	indent2 := indent1 + "  "
	for _, f := range n.fields {
		buf.WriteString("\n" + indent1 + "." + f.name + " = ")
		switch {
		case f.scalar != nil:
			if s, ok := f.scalar.(string); ok {
				fmt.Fprintf(buf, "%q", s)
			} else if str, ok := f.scalar.(fmt.Stringer); ok {
				buf.WriteString(str.String())
			} else {
				fmt.Fprint(buf, f.scalar)
			}
		case f.child != nil:
			pprintNode(buf, indent1, f.child)
		case f.childs != nil:
			for _, c := range f.childs {
				buf.WriteString("\n" + indent2)
				pprintNode(buf, indent2, c)
			}
		default:
			buf.WriteString("nil")
		}
	}
}
