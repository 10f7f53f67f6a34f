package binarycodec

import (
	"github.com/dmxkit/dmxkit/internal/format"
)

// stringPool is the binary encoding's deduplicated string table (v >= 2):
// a dense, append-only array of strings indexed by position, with a
// reverse lookup for building it in first-sight order. It holds the set
// of all class names, element names, attribute keys, and string-valued
// attribute payloads, each inserted once on first sight.
type stringPool struct {
	strings []string
	index   map[string]uint32
}

func newStringPool() *stringPool {
	return &stringPool{index: make(map[string]uint32)}
}

// intern returns s's index, inserting it at the next free position if this
// is its first sight.
func (p *stringPool) intern(s string) uint32 {
	if i, ok := p.index[s]; ok {
		return i
	}
	i := uint32(len(p.strings))
	p.strings = append(p.strings, s)
	p.index[s] = i
	return i
}

func (p *stringPool) at(i uint32) (string, bool) {
	if int(i) >= len(p.strings) {
		return "", false
	}
	return p.strings[i], true
}

func (p *stringPool) len() int { return len(p.strings) }

// readStringPool reads the version-gated pool count then that many
// NUL-terminated strings.
func readStringPool(c *cursor, widths format.BinaryWidths) (*stringPool, error) {
	p := newStringPool()
	if !widths.HasPool {
		return p, nil
	}
	count, err := c.u32()
	if err != nil {
		return nil, err
	}
	// Every pool entry is at least a 1-byte NUL terminator on the wire.
	if err := c.checkCount(count, 1); err != nil {
		return nil, err
	}
	p.strings = make([]string, 0, count)
	for i := uint32(0); i < count; i++ {
		s, err := c.cstring()
		if err != nil {
			return nil, err
		}
		p.index[s] = uint32(len(p.strings))
		p.strings = append(p.strings, s)
	}
	return p, nil
}

// writePool emits the pool in the layout readStringPool expects.
func writePool(w *byteWriter, p *stringPool, widths format.BinaryWidths) {
	if !widths.HasPool {
		return
	}
	w.u32(uint32(p.len()))
	for _, s := range p.strings {
		w.cstring(s)
	}
}

// readPrefixStrings reads the optional v>=5 prefix-string block: a count
// followed by that many strings, tolerating a zero count. The strings
// themselves are not surfaced anywhere else in this library (they exist
// for format-level headers some DMX consumers place ahead of the pool)
// but must still be consumed so the cursor lands on the pool correctly.
func readPrefixStrings(c *cursor, widths format.BinaryWidths) ([]string, error) {
	if !widths.HasPrefix {
		return nil, nil
	}
	count, err := c.u32()
	if err != nil {
		return nil, err
	}
	// Every prefix entry is at least a 1-byte NUL terminator on the wire.
	if err := c.checkCount(count, 1); err != nil {
		return nil, err
	}
	out := make([]string, 0, count)
	for i := uint32(0); i < count; i++ {
		s, err := c.cstring()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// writePrefixStrings emits the prefix-string block at v5: its count (zero
// when the caller supplies none) followed by the supplied strings.
func writePrefixStrings(w *byteWriter, prefix []string, widths format.BinaryWidths) {
	if !widths.HasPrefix {
		return
	}
	w.u32(uint32(len(prefix)))
	for _, s := range prefix {
		w.cstring(s)
	}
}
