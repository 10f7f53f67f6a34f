package keyvalues2

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dmxkit/dmxkit/pkg/dmx"
	"github.com/dmxkit/dmxkit/pkg/dmxval"
)

// EncodeOptions selects between the two text sub-variants.
type EncodeOptions struct {
	// Flat selects keyvalues2_flat: the root literal first, then every
	// other reachable element as a top-level sibling literal, with every
	// element reference written bare. Non-flat inlines each element at
	// its first occurrence and only uses bare references afterward.
	Flat bool
}

// Encode writes doc's body (without the header line) to w.
func Encode(w *bytes.Buffer, doc *dmx.Document, opts EncodeOptions) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	root, ok := doc.RootElement()
	if !ok {
		return fmt.Errorf("keyvalues2: document has no root element")
	}
	if !opts.Flat {
		visited := make(map[dmx.ID]bool)
		var pending []dmx.ID
		if err := emitInline(w, root, doc, visited, 0, &pending); err != nil {
			return err
		}
		// Elements reached only through an element_array are claimed (and
		// marked visited) at the point the array is written but can't be
		// inlined inside "[...]"; emit each as an additional top-level
		// literal, the same way the parser's trailing-literal loop accepts
		// sibling literals after the root.
		for i := 0; i < len(pending); i++ {
			el, ok := doc.Get(pending[i])
			if !ok {
				continue
			}
			w.WriteByte('\n')
			if err := emitInline(w, el, doc, visited, 0, &pending); err != nil {
				return err
			}
		}
		return nil
	}

	order := bfsOrder(doc, root.ID())
	for i, el := range order {
		if i > 0 {
			w.WriteByte('\n')
		}
		if err := emitFlatLiteral(w, el, 0); err != nil {
			return err
		}
	}
	return nil
}

func bfsOrder(doc *dmx.Document, rootID dmx.ID) []*dmx.Element {
	var order []*dmx.Element
	visited := make(map[dmx.ID]bool)
	queue := []dmx.ID{rootID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		el, ok := doc.Get(id)
		if !ok {
			continue
		}
		visited[id] = true
		order = append(order, el)
		el.Attributes(func(_ string, v dmxval.Value) bool {
			forEachElemRef(v, func(target dmx.ID) {
				if !visited[target] {
					queue = append(queue, target)
				}
			})
			return true
		})
	}
	return order
}

func forEachElemRef(v dmxval.Value, fn func(dmx.ID)) {
	if v.Kind() != dmxval.KindElement {
		return
	}
	if v.IsArray() {
		for _, e := range v.Elements() {
			if id, isNull, ok := e.AsElementRef(); ok && !isNull {
				fn(id)
			}
		}
		return
	}
	if id, isNull, ok := v.AsElementRef(); ok && !isNull {
		fn(id)
	}
}

// quote renders s as a keyvalues2 double-quoted string literal, escaping
// only the four sequences the lexer understands (backslash, quote,
// newline, tab) so emit and lex stay exact inverses of each other.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func indent(w *bytes.Buffer, depth int) {
	for i := 0; i < depth; i++ {
		w.WriteByte(' ')
		w.WriteByte(' ')
	}
}

// emitInline writes el's literal, inlining any not-yet-visited element
// reference at the point it's first reached and falling back to a bare
// reference for anything already visited (including an open ancestor,
// which is how cycles terminate without recursing forever). pending
// collects ids first reached through an element_array, which can't be
// inlined inside "[...]" and so get queued for emission as additional
// top-level literals by the caller.
func emitInline(w *bytes.Buffer, el *dmx.Element, doc *dmx.Document, visited map[dmx.ID]bool, depth int, pending *[]dmx.ID) error {
	visited[el.ID()] = true
	indent(w, depth)
	w.WriteString(quote(el.Class()) + "\n")
	indent(w, depth)
	w.WriteString("{\n")
	indent(w, depth+1)
	w.WriteString(quote("id") + " " + quote(keywordElementID) + " " + quote(el.ID().String()) + "\n")
	indent(w, depth+1)
	w.WriteString(quote("name") + " " + quote("string") + " " + quote(el.Name()) + "\n")

	var werr error
	el.Attributes(func(key string, v dmxval.Value) bool {
		indent(w, depth+1)
		w.WriteString(quote(key) + " ")
		if err := writeValueInline(w, v, doc, visited, depth+1, pending); err != nil {
			werr = err
			return false
		}
		w.WriteByte('\n')
		return true
	})
	if werr != nil {
		return werr
	}

	indent(w, depth)
	w.WriteString("}\n")
	return nil
}

func writeValueInline(w *bytes.Buffer, v dmxval.Value, doc *dmx.Document, visited map[dmx.ID]bool, depth int, pending *[]dmx.ID) error {
	if v.Kind() == dmxval.KindElement && !v.IsArray() {
		id, isNull, _ := v.AsElementRef()
		if isNull {
			w.WriteString(quote(keywordElement) + " " + quote(nullUUIDText))
			return nil
		}
		if visited[id] {
			w.WriteString(quote(keywordElement) + " " + quote(id.String()))
			return nil
		}
		child, ok := doc.Get(id)
		if !ok {
			return fmt.Errorf("keyvalues2: reference to element not in document: %s", id.String())
		}
		w.WriteByte('\n')
		return emitInline(w, child, doc, visited, depth, pending)
	}
	return writeScalarOrArray(w, v, func(id dmx.ID) string {
		if !visited[id] {
			visited[id] = true
			*pending = append(*pending, id)
		}
		return id.String()
	})
}

// emitFlatLiteral writes el as a top-level literal with every element
// reference written bare, never inlining.
func emitFlatLiteral(w *bytes.Buffer, el *dmx.Element, depth int) error {
	indent(w, depth)
	w.WriteString(quote(el.Class()) + "\n")
	indent(w, depth)
	w.WriteString("{\n")
	indent(w, depth+1)
	w.WriteString(quote("id") + " " + quote(keywordElementID) + " " + quote(el.ID().String()) + "\n")
	indent(w, depth+1)
	w.WriteString(quote("name") + " " + quote("string") + " " + quote(el.Name()) + "\n")

	var werr error
	el.Attributes(func(key string, v dmxval.Value) bool {
		indent(w, depth+1)
		w.WriteString(quote(key) + " ")
		if err := writeScalarOrArray(w, v, func(id dmx.ID) string {
			return id.String()
		}); err != nil {
			werr = err
			return false
		}
		w.WriteByte('\n')
		return true
	})
	if werr != nil {
		return werr
	}

	indent(w, depth)
	w.WriteString("}\n")
	return nil
}

// writeScalarOrArray formats any non-inlined value (scalar or array). refText
// renders an element-reference's target id as the text to emit after the
// "element" keyword; it is only called for non-null references, since a
// null reference is always written as the all-zero UUID.
func writeScalarOrArray(w *bytes.Buffer, v dmxval.Value, refText func(dmx.ID) string) error {
	if v.IsArray() {
		kw, ok := keywordByKind[v.Kind()]
		if v.Kind() == dmxval.KindElement {
			kw = keywordElement
			ok = true
		}
		if !ok {
			return fmt.Errorf("keyvalues2: unhandled array kind %v", v.Kind())
		}
		w.WriteString(quote(kw+arraySuffix) + " [")
		for i, e := range v.Elements() {
			if i > 0 {
				w.WriteString(", ")
			}
			lit, err := scalarLiteral(e, refText)
			if err != nil {
				return err
			}
			w.WriteString(quote(lit))
		}
		w.WriteByte(']')
		return nil
	}

	if v.Kind() == dmxval.KindElement {
		id, isNull, _ := v.AsElementRef()
		text := nullUUIDText
		if !isNull {
			text = refText(id)
		}
		w.WriteString(quote(keywordElement) + " " + quote(text))
		return nil
	}

	kw, ok := keywordByKind[v.Kind()]
	if !ok {
		return fmt.Errorf("keyvalues2: unhandled kind %v", v.Kind())
	}
	lit, err := scalarLiteral(v, refText)
	if err != nil {
		return err
	}
	w.WriteString(quote(kw) + " " + quote(lit))
	return nil
}

func scalarLiteral(v dmxval.Value, refText func(dmx.ID) string) (string, error) {
	switch v.Kind() {
	case dmxval.KindElement:
		id, isNull, _ := v.AsElementRef()
		if isNull {
			return nullUUIDText, nil
		}
		return refText(id), nil
	case dmxval.KindInt:
		n, _ := v.AsInt()
		return fmt.Sprintf("%d", n), nil
	case dmxval.KindFloat:
		f, _ := v.AsFloat()
		return fmt.Sprintf("%g", f), nil
	case dmxval.KindBool:
		b, _ := v.AsBool()
		if b {
			return "1", nil
		}
		return "0", nil
	case dmxval.KindString:
		s, _ := v.AsString()
		return s, nil
	case dmxval.KindBinary:
		b, _ := v.AsBinary()
		return hexEncode(b), nil
	case dmxval.KindTime:
		n, _ := v.AsTime()
		return fmt.Sprintf("%d", n), nil
	case dmxval.KindColor:
		c, _ := v.AsColor()
		return fmt.Sprintf("%d %d %d %d", c[0], c[1], c[2], c[3]), nil
	case dmxval.KindVector2:
		a, _ := v.AsVector2()
		return joinFloats(a[:]), nil
	case dmxval.KindVector3:
		a, _ := v.AsVector3()
		return joinFloats(a[:]), nil
	case dmxval.KindVector4:
		a, _ := v.AsVector4()
		return joinFloats(a[:]), nil
	case dmxval.KindQAngle:
		a, _ := v.AsQAngle()
		return joinFloats(a[:]), nil
	case dmxval.KindQuaternion:
		a, _ := v.AsQuaternion()
		return joinFloats(a[:]), nil
	case dmxval.KindMatrix:
		m, _ := v.AsMatrix()
		return joinFloats(m[:]), nil
	default:
		return "", fmt.Errorf("keyvalues2: unhandled kind %v", v.Kind())
	}
}

func joinFloats(fs []float32) string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = fmt.Sprintf("%g", f)
	}
	return strings.Join(parts, " ")
}

func hexEncode(b []byte) string {
	const digits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = digits[c>>4]
		out[i*2+1] = digits[c&0xf]
	}
	return string(out)
}
