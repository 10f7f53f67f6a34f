package dmx

import (
	uuid "github.com/satori/go.uuid"

	"github.com/dmxkit/dmxkit/internal/omap"
	"github.com/dmxkit/dmxkit/pkg/dmxval"
)

// ID is an element's stable cross-reference key: a 128-bit UUID assigned
// at construction.
type ID = uuid.UUID

// Element is a named, classed record of attributes. Keys are unique and
// case-sensitive; insertion order is preserved and is the emission order.
type Element struct {
	id    ID
	class string
	name  string
	attrs *omap.Map[dmxval.Value]
}

// New constructs an Element with a fresh random UUID.
func New(name, class string) *Element {
	return &Element{
		id:    newID(),
		class: class,
		name:  name,
		attrs: omap.New[dmxval.Value](),
	}
}

// newID generates a random v4 UUID. uuid.NewV4 only errors when the
// runtime's entropy source fails, which New's callers have no sane
// fallback for, so the error is discarded here rather than threaded
// through the constructor.
func newID() ID {
	id, _ := uuid.NewV4()
	return id
}

// NewWithID constructs an Element with a caller-supplied id, used by
// decoders materializing elements from wire data.
func NewWithID(id ID, name, class string) *Element {
	return &Element{id: id, class: class, name: name, attrs: omap.New[dmxval.Value]()}
}

func (e *Element) ID() ID         { return e.id }
func (e *Element) Class() string  { return e.class }
func (e *Element) Name() string   { return e.name }

func (e *Element) SetClass(c string) { e.class = c }
func (e *Element) SetName(n string)  { e.name = n }

// Get returns the attribute at key, and whether it is present.
func (e *Element) Get(key string) (dmxval.Value, bool) {
	return e.attrs.Get(key)
}

// Set inserts or replaces the attribute at key, preserving insertion
// position on replace.
func (e *Element) Set(key string, v dmxval.Value) {
	e.attrs.Set(key, v)
}

// Remove deletes the attribute at key if present, reporting whether it was.
func (e *Element) Remove(key string) bool {
	return e.attrs.Delete(key)
}

// Attributes calls fn for each (key, value) pair in insertion order.
// Returning false from fn stops iteration early.
func (e *Element) Attributes(fn func(key string, v dmxval.Value) bool) {
	e.attrs.Each(fn)
}

// AttributeCount returns the number of attributes on e.
func (e *Element) AttributeCount() int { return e.attrs.Len() }

// AttributeKeys returns attribute keys in insertion order.
func (e *Element) AttributeKeys() []string { return e.attrs.Keys() }
