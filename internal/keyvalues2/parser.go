package keyvalues2

import (
	"fmt"
	"strconv"
	"strings"

	uuid "github.com/satori/go.uuid"

	"github.com/dmxkit/dmxkit/pkg/dmx"
	"github.com/dmxkit/dmxkit/pkg/dmxval"
)

// Decode parses a complete keyvalues2 or keyvalues2_flat body (everything
// after the header line) into a document. Both variants parse into the
// same in-memory graph; flat only changes which form element references
// take on the wire, which the parser already accepts uniformly (bare
// references are legal in either variant).
//
// Parsing proceeds in two conceptual passes fused into one: elements are
// materialized (by UUID) as soon as they're first named, whether that
// naming comes from an inline literal or a bare reference, so forward and
// cyclic references resolve without a placeholder-patching pass of their
// own. A true second pass only checks that every id named by a bare
// reference eventually received a literal; anything left over fails with
// DanglingReference.
func Decode(body []byte) (*dmx.Document, dmx.ID, error) {
	body, err := normalizeEncoding(body)
	if err != nil {
		return nil, dmx.ID{}, err
	}
	toks, err := lex(body)
	if err != nil {
		return nil, dmx.ID{}, err
	}
	p := &parser{toks: toks, doc: dmx.NewDocument(), pending: make(map[dmx.ID]bool), seen: make(map[dmx.ID]bool)}

	class, err := p.expectString()
	if err != nil {
		return nil, dmx.ID{}, err
	}
	root, err := p.parseElementLiteral(class)
	if err != nil {
		return nil, dmx.ID{}, err
	}
	p.doc.SetRoot(root.ID())

	for !p.atEOF() {
		class2, err := p.expectString()
		if err != nil {
			return nil, dmx.ID{}, err
		}
		if _, err := p.parseElementLiteral(class2); err != nil {
			return nil, dmx.ID{}, err
		}
	}

	for id, unresolved := range p.pending {
		if unresolved {
			return nil, dmx.ID{}, danglingErr(id)
		}
	}
	return p.doc, root.ID(), nil
}

func danglingErr(id dmx.ID) error {
	return fmt.Errorf("keyvalues2: dangling reference to %s", id.String())
}

type parser struct {
	toks    []token
	pos     int
	doc     *dmx.Document
	pending map[dmx.ID]bool // true while referenced but not yet defined by a literal
	seen    map[dmx.ID]bool
}

func (p *parser) atEOF() bool { return p.pos >= len(p.toks) }

func (p *parser) next() (token, error) {
	if p.atEOF() {
		return token{}, fmt.Errorf("keyvalues2: unexpected end of input")
	}
	t := p.toks[p.pos]
	p.pos++
	return t, nil
}

func (p *parser) expectString() (string, error) {
	t, err := p.next()
	if err != nil {
		return "", err
	}
	if t.kind != tokString {
		return "", fmt.Errorf("keyvalues2: expected string, got punctuation %q", t.text)
	}
	return t.text, nil
}

func (p *parser) expectPunct(c byte) error {
	t, err := p.next()
	if err != nil {
		return err
	}
	if t.kind != tokPunct || t.text != string(c) {
		return fmt.Errorf("keyvalues2: expected %q, got %q", c, t.text)
	}
	return nil
}

func (p *parser) atPunct(c byte) bool {
	if p.atEOF() {
		return false
	}
	t := p.toks[p.pos]
	return t.kind == tokPunct && t.text == string(c)
}

func (p *parser) consumePunct() { p.pos++ }

// getOrCreateForLiteral returns the element for id, creating a fresh one
// if this is the first time id has been named by anything. Either way it
// clears id from the pending set: a literal is now on hand for it.
func (p *parser) getOrCreateForLiteral(id dmx.ID) *dmx.Element {
	el, ok := p.doc.Get(id)
	if !ok {
		el = dmx.NewWithID(id, "", "")
		p.doc.Add(el)
	}
	delete(p.pending, id)
	p.seen[id] = true
	return el
}

// getOrCreateForRef returns the element for id, creating a placeholder
// and marking it pending if id has not been named by anything yet.
func (p *parser) getOrCreateForRef(id dmx.ID) *dmx.Element {
	el, ok := p.doc.Get(id)
	if !ok {
		el = dmx.NewWithID(id, "", "")
		p.doc.Add(el)
		p.pending[id] = true
	}
	return el
}

// parseElementLiteral parses `{ ... }` for an element of the given class,
// already having consumed the class-name token.
func (p *parser) parseElementLiteral(class string) (*dmx.Element, error) {
	if err := p.expectPunct('{'); err != nil {
		return nil, err
	}

	var el *dmx.Element
	for !p.atPunct('}') {
		key, err := p.expectString()
		if err != nil {
			return nil, err
		}

		if el == nil {
			if key == "id" {
				kw, err := p.expectString()
				if err != nil {
					return nil, err
				}
				if kw != keywordElementID {
					return nil, fmt.Errorf("keyvalues2: expected elementid type, got %q", kw)
				}
				idStr, err := p.expectString()
				if err != nil {
					return nil, err
				}
				id, err := uuid.FromString(idStr)
				if err != nil {
					return nil, fmt.Errorf("keyvalues2: bad uuid %q: %w", idStr, err)
				}
				el = p.getOrCreateForLiteral(id)
				continue
			}
			id, _ := uuid.NewV4()
			el = p.getOrCreateForLiteral(id)
		}

		if key == "name" {
			kw, err := p.expectString()
			if err != nil {
				return nil, err
			}
			if kw != "string" {
				return nil, fmt.Errorf("keyvalues2: expected string type for name, got %q", kw)
			}
			name, err := p.expectString()
			if err != nil {
				return nil, err
			}
			el.SetName(name)
			continue
		}

		v, err := p.parseAttributeValue()
		if err != nil {
			return nil, err
		}
		el.Set(key, v)
	}
	if err := p.expectPunct('}'); err != nil {
		return nil, err
	}
	if el == nil {
		id, _ := uuid.NewV4()
		el = p.getOrCreateForLiteral(id)
	}
	el.SetClass(class)
	return el, nil
}

// parseAttributeValue parses the "<type>" "<value>" (or nested element, or
// array) portion of an attribute line, the key having already been read.
func (p *parser) parseAttributeValue() (dmxval.Value, error) {
	typeTok, err := p.expectString()
	if err != nil {
		return dmxval.Value{}, err
	}

	if typeTok == keywordElement {
		return p.parseElementRefLiteral()
	}

	if base, ok := strings.CutSuffix(typeTok, arraySuffix); ok {
		kind, ok := kindByKeyword[base]
		if base == keywordElement {
			kind, ok = dmxval.KindElement, true
		}
		if !ok {
			return dmxval.Value{}, fmt.Errorf("keyvalues2: unknown array element type %q", typeTok)
		}
		return p.parseArrayLiteral(kind)
	}

	if kind, ok := kindByKeyword[typeTok]; ok {
		return p.parseScalarLiteral(kind)
	}

	// Not a recognized type keyword: this is a nested element literal,
	// inlined at first occurrence, with typeTok as its class name.
	nested, err := p.parseElementLiteral(typeTok)
	if err != nil {
		return dmxval.Value{}, err
	}
	return dmxval.NewElementRef(nested.ID()), nil
}

func (p *parser) parseElementRefLiteral() (dmxval.Value, error) {
	s, err := p.expectString()
	if err != nil {
		return dmxval.Value{}, err
	}
	if s == nullUUIDText {
		return dmxval.NewNullRef(), nil
	}
	id, err := uuid.FromString(s)
	if err != nil {
		return dmxval.Value{}, fmt.Errorf("keyvalues2: bad uuid %q: %w", s, err)
	}
	p.getOrCreateForRef(id)
	return dmxval.NewElementRef(id), nil
}

func (p *parser) parseArrayLiteral(kind dmxval.Kind) (dmxval.Value, error) {
	if err := p.expectPunct('['); err != nil {
		return dmxval.Value{}, err
	}
	var elems []dmxval.Value
	for !p.atPunct(']') {
		v, err := p.parseScalarLiteral(kind)
		if err != nil {
			return dmxval.Value{}, err
		}
		elems = append(elems, v)
		if p.atPunct(',') {
			p.consumePunct()
		}
	}
	if err := p.expectPunct(']'); err != nil {
		return dmxval.Value{}, err
	}
	if len(elems) == 0 {
		return dmxval.NewEmptyArray(kind), nil
	}
	return dmxval.NewArray(elems), nil
}

func (p *parser) parseScalarLiteral(kind dmxval.Kind) (dmxval.Value, error) {
	if kind == dmxval.KindElement {
		return p.parseElementRefLiteral()
	}
	s, err := p.expectString()
	if err != nil {
		return dmxval.Value{}, err
	}
	switch kind {
	case dmxval.KindInt:
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return dmxval.Value{}, fmt.Errorf("keyvalues2: bad int literal %q: %w", s, err)
		}
		return dmxval.NewInt(int32(n)), nil
	case dmxval.KindFloat:
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return dmxval.Value{}, fmt.Errorf("keyvalues2: bad float literal %q: %w", s, err)
		}
		return dmxval.NewFloat(float32(f)), nil
	case dmxval.KindBool:
		return dmxval.NewBool(s == "1" || s == "true"), nil
	case dmxval.KindString:
		return dmxval.NewString(s), nil
	case dmxval.KindBinary:
		b, err := hexDecode(s)
		if err != nil {
			return dmxval.Value{}, err
		}
		return dmxval.NewBinary(b), nil
	case dmxval.KindTime:
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return dmxval.Value{}, fmt.Errorf("keyvalues2: bad time literal %q: %w", s, err)
		}
		return dmxval.NewTime(int32(n)), nil
	case dmxval.KindColor:
		fields, err := splitNumbers(s, 4)
		if err != nil {
			return dmxval.Value{}, err
		}
		var c [4]byte
		for i, f := range fields {
			n, err := strconv.ParseUint(f, 10, 8)
			if err != nil {
				return dmxval.Value{}, fmt.Errorf("keyvalues2: bad color component %q: %w", f, err)
			}
			c[i] = byte(n)
		}
		return dmxval.NewColor(c[0], c[1], c[2], c[3]), nil
	case dmxval.KindVector2:
		f, err := parseFloats(s, 2)
		if err != nil {
			return dmxval.Value{}, err
		}
		return dmxval.NewVector2(f[0], f[1]), nil
	case dmxval.KindVector3:
		f, err := parseFloats(s, 3)
		if err != nil {
			return dmxval.Value{}, err
		}
		return dmxval.NewVector3(f[0], f[1], f[2]), nil
	case dmxval.KindVector4:
		f, err := parseFloats(s, 4)
		if err != nil {
			return dmxval.Value{}, err
		}
		return dmxval.NewVector4(f[0], f[1], f[2], f[3]), nil
	case dmxval.KindQAngle:
		f, err := parseFloats(s, 3)
		if err != nil {
			return dmxval.Value{}, err
		}
		return dmxval.NewQAngle(f[0], f[1], f[2]), nil
	case dmxval.KindQuaternion:
		f, err := parseFloats(s, 4)
		if err != nil {
			return dmxval.Value{}, err
		}
		return dmxval.NewQuaternion(f[0], f[1], f[2], f[3]), nil
	case dmxval.KindMatrix:
		f, err := parseFloats(s, 16)
		if err != nil {
			return dmxval.Value{}, err
		}
		var m [16]float32
		copy(m[:], f)
		return dmxval.NewMatrix(m), nil
	default:
		return dmxval.Value{}, fmt.Errorf("keyvalues2: unhandled kind %v", kind)
	}
}

func splitNumbers(s string, want int) ([]string, error) {
	fields := strings.Fields(s)
	if len(fields) != want {
		return nil, fmt.Errorf("keyvalues2: expected %d numbers, got %d in %q", want, len(fields), s)
	}
	return fields, nil
}

func parseFloats(s string, want int) ([]float32, error) {
	fields, err := splitNumbers(s, want)
	if err != nil {
		return nil, err
	}
	out := make([]float32, want)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil, fmt.Errorf("keyvalues2: bad float component %q: %w", f, err)
		}
		out[i] = float32(v)
	}
	return out, nil
}

func hexDecode(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("keyvalues2: odd-length hex string %q", s)
	}
	out := make([]byte, len(s)/2)
	for i := range out {
		hi, err := hexDigit(s[i*2])
		if err != nil {
			return nil, err
		}
		lo, err := hexDigit(s[i*2+1])
		if err != nil {
			return nil, err
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func hexDigit(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	default:
		return 0, fmt.Errorf("keyvalues2: invalid hex digit %q", c)
	}
}
