package dmx

import (
	uuid "github.com/satori/go.uuid"

	"github.com/dmxkit/dmxkit/pkg/dmxval"
)

// Document is a directed graph of elements: a root id plus the closed set
// of elements it (transitively) reaches, keyed by id. The set is "closed":
// every non-null element-reference attribute value in any member element
// must resolve to another member; Validate checks this explicitly since
// decoders/encoders cannot always rely on Go's type system to enforce it
// across a mutable graph.
//
// Element references are not constrained to form a tree and cycles are
// expected, so the backing store is a flat id-keyed set rather than
// parent/child pointers.
type Document struct {
	root     ID
	elements map[ID]*Element
}

// NewDocument returns an empty document with no root set.
func NewDocument() *Document {
	return &Document{elements: make(map[ID]*Element)}
}

// Add inserts e into the document's element set.
func (d *Document) Add(e *Element) {
	d.elements = initIfNil(d.elements)
	d.elements[e.ID()] = e
}

func initIfNil(m map[ID]*Element) map[ID]*Element {
	if m == nil {
		return make(map[ID]*Element)
	}
	return m
}

// SetRoot designates id as the document root. id need not already be a
// member; callers typically Add the root element first.
func (d *Document) SetRoot(id ID) { d.root = id }

// Root returns the root element id.
func (d *Document) Root() ID { return d.root }

// RootElement returns the root element, or (nil, false) if the root id has
// no matching member (a document invariant violation — see Validate).
func (d *Document) RootElement() (*Element, bool) {
	return d.Get(d.root)
}

// Get looks up an element by id.
func (d *Document) Get(id ID) (*Element, bool) {
	e, ok := d.elements[id]
	return e, ok
}

// Len returns the number of elements in the document's set.
func (d *Document) Len() int { return len(d.elements) }

// Elements returns every element in the document, in unspecified order:
// element enumeration order is not preserved by encoding.
func (d *Document) Elements() []*Element {
	out := make([]*Element, 0, len(d.elements))
	for _, e := range d.elements {
		out = append(out, e)
	}
	return out
}

// SetChild is shorthand for inserting child into the document set and
// writing an element-reference attribute named key on parent pointing to
// it.
func (d *Document) SetChild(parent *Element, key string, child *Element) {
	d.Add(child)
	parent.Set(key, dmxval.NewElementRef(child.ID()))
}

// Walk performs a traversal from start using an explicit worklist keyed by
// visited UUIDs, so cyclic graphs terminate. fn is called once per
// reachable element, in BFS order; a non-nil error aborts the walk and is
// returned.
func (d *Document) Walk(start ID, fn func(*Element) error) error {
	visited := make(map[ID]bool)
	queue := []ID{start}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true
		e, ok := d.Get(id)
		if !ok {
			continue
		}
		if err := fn(e); err != nil {
			return err
		}
		var refErr error
		e.Attributes(func(_ string, v dmxval.Value) bool {
			forEachRef(v, func(target ID, isNull bool) {
				if !isNull && !visited[target] {
					queue = append(queue, target)
				}
			})
			return refErr == nil
		})
		if refErr != nil {
			return refErr
		}
	}
	return nil
}

// forEachRef calls fn for every element-reference carried by v, whether v
// is a scalar reference or a reference array.
func forEachRef(v dmxval.Value, fn func(target ID, isNull bool)) {
	if v.Kind() != dmxval.KindElement {
		return
	}
	if v.IsArray() {
		for _, el := range v.Elements() {
			id, isNull, ok := el.AsElementRef()
			if ok {
				fn(id, isNull)
			}
		}
		return
	}
	id, isNull, ok := v.AsElementRef()
	if ok {
		fn(id, isNull)
	}
}

// Validate checks the closed-set invariant: every non-null element-
// reference attribute value, in every member element, must resolve to a
// document member. Returns ErrDanglingReference (wrapping the offending
// id) on the first violation found.
func (d *Document) Validate() error {
	for _, e := range d.elements {
		var bad error
		e.Attributes(func(_ string, v dmxval.Value) bool {
			forEachRef(v, func(target ID, isNull bool) {
				if bad != nil || isNull {
					return
				}
				if _, ok := d.Get(target); !ok {
					bad = wrap(ErrDanglingReference, danglingRefError{id: target})
				}
			})
			return bad == nil
		})
		if bad != nil {
			return bad
		}
	}
	if _, ok := d.Get(d.root); !ok {
		return wrap(ErrDanglingReference, danglingRefError{id: d.root})
	}
	return nil
}

type danglingRefError struct{ id ID }

func (e danglingRefError) Error() string { return "unresolved reference to " + uuid.UUID(e.id).String() }
