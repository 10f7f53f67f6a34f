package binarycodec

import (
	"fmt"
	"io"

	"github.com/dmxkit/dmxkit/internal/format"
	"github.com/dmxkit/dmxkit/pkg/dmx"
	"github.com/dmxkit/dmxkit/pkg/dmxval"
)

// EncodeOptions carries the strings of the v>=5 prefix-string block,
// reserved for format-level headers. At v5 the block's count is always
// written; it is zero and no strings follow unless the caller supplies them.
type EncodeOptions struct {
	Prefix []string
}

// Encode writes header followed by the binary body for doc to w. The
// encoder is a pure function of (doc, header, opts): directory and pool
// order depend only on graph content and BFS order, so repeated calls
// with the same inputs produce byte-identical output.
func Encode(w io.Writer, doc *dmx.Document, header format.Header, opts EncodeOptions) error {
	widths, ok := format.WidthsForVersion(header.EncodingVersion)
	if !ok {
		return fmt.Errorf("binarycodec: unsupported version %d", header.EncodingVersion)
	}
	if err := doc.Validate(); err != nil {
		return err
	}
	if err := format.WriteHeader(w, header); err != nil {
		return err
	}

	order, posOf := assignDirectoryOrder(doc)
	pool := buildPool(order, widths)

	bw := &byteWriter{}
	writePrefixStrings(bw, opts.Prefix, widths)
	writePool(bw, pool, widths)

	bw.u32(uint32(len(order)))
	for _, el := range order {
		writeStr(bw, widths, pool, el.Class())
		writeStr(bw, widths, pool, el.Name())
		id := el.ID()
		bw.bytes(id.Bytes())
	}

	for _, el := range order {
		bw.u32(uint32(el.AttributeCount()))
		el.Attributes(func(key string, v dmxval.Value) bool {
			writeStr(bw, widths, pool, key)
			writeAttrValue(bw, widths, pool, posOf, v)
			return true
		})
	}

	_, err := w.Write(bw.buf)
	return err
}

// assignDirectoryOrder performs a BFS from the root, visiting each UUID at
// most once in the order it is first referenced. Cycles terminate because
// the visited set prunes re-entry.
func assignDirectoryOrder(doc *dmx.Document) ([]*dmx.Element, map[dmx.ID]int32) {
	var order []*dmx.Element
	posOf := make(map[dmx.ID]int32)
	visited := make(map[dmx.ID]bool)

	queue := []dmx.ID{doc.Root()}
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
		posOf[id] = int32(len(order))
		order = append(order, el)

		el.Attributes(func(_ string, v dmxval.Value) bool {
			forEachDocRef(v, func(target dmx.ID) {
				if !visited[target] {
					queue = append(queue, target)
				}
			})
			return true
		})
	}
	return order, posOf
}

func forEachDocRef(v dmxval.Value, fn func(dmx.ID)) {
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

// buildPool inserts every class name, element name, attribute key, and
// string-valued attribute payload once on first sight, in directory
// order, so pool layout is a deterministic function of graph content.
// No-op (empty pool) for version 1, which has none.
func buildPool(order []*dmx.Element, widths format.BinaryWidths) *stringPool {
	pool := newStringPool()
	if !widths.HasPool {
		return pool
	}
	for _, el := range order {
		pool.intern(el.Class())
		pool.intern(el.Name())
	}
	for _, el := range order {
		el.Attributes(func(key string, v dmxval.Value) bool {
			pool.intern(key)
			internStringPayload(pool, v)
			return true
		})
	}
	return pool
}

func internStringPayload(pool *stringPool, v dmxval.Value) {
	if v.IsArray() {
		if v.Kind() == dmxval.KindString {
			for _, e := range v.Elements() {
				if s, ok := e.AsString(); ok {
					pool.intern(s)
				}
			}
		}
		return
	}
	if v.Kind() == dmxval.KindString {
		if s, ok := v.AsString(); ok {
			pool.intern(s)
		}
	}
}

func writeStr(bw *byteWriter, widths format.BinaryWidths, pool *stringPool, s string) {
	if !widths.HasPool {
		bw.cstring(s)
		return
	}
	idx, ok := pool.index[s]
	if !ok {
		// Every string reaching here was interned by buildPool before any
		// writeStr call; a miss means buildPool and the write pass walked
		// the graph differently, which is a codec bug, not bad input.
		panic("binarycodec: string not present in pool: " + s)
	}
	bw.u32(idx)
}

func writeAttrValue(bw *byteWriter, widths format.BinaryWidths, pool *stringPool, posOf map[dmx.ID]int32, v dmxval.Value) {
	if v.IsArray() {
		bw.u8(byte(int(v.Kind()) + format.ArrayTagOffset))
		elems := v.Elements()
		bw.u32(uint32(len(elems)))
		for _, e := range elems {
			writeScalarPayload(bw, widths, pool, posOf, e)
		}
		return
	}
	bw.u8(byte(v.Kind()))
	writeScalarPayload(bw, widths, pool, posOf, v)
}

func writeScalarPayload(bw *byteWriter, widths format.BinaryWidths, pool *stringPool, posOf map[dmx.ID]int32, v dmxval.Value) {
	switch v.Kind() {
	case dmxval.KindElement:
		id, isNull, _ := v.AsElementRef()
		if isNull {
			bw.i32(format.NullRefIndex)
			return
		}
		pos, ok := posOf[id]
		if !ok {
			// doc.Validate() already rejected dangling references, so this
			// would mean the reference targets an element Validate somehow
			// missed — treat as a codec invariant violation.
			panic("binarycodec: reference to element outside directory")
		}
		bw.i32(pos)
	case dmxval.KindInt:
		n, _ := v.AsInt()
		bw.i32(n)
	case dmxval.KindFloat:
		f, _ := v.AsFloat()
		bw.f32(f)
	case dmxval.KindBool:
		b, _ := v.AsBool()
		if b {
			bw.u8(1)
		} else {
			bw.u8(0)
		}
	case dmxval.KindString:
		s, _ := v.AsString()
		writeStr(bw, widths, pool, s)
	case dmxval.KindBinary:
		b, _ := v.AsBinary()
		bw.u32(uint32(len(b)))
		bw.bytes(b)
	case dmxval.KindTime:
		n, _ := v.AsTime()
		bw.i32(n)
	case dmxval.KindColor:
		c, _ := v.AsColor()
		bw.bytes(c[:])
	case dmxval.KindVector2:
		a, _ := v.AsVector2()
		bw.floats(a[:])
	case dmxval.KindVector3:
		a, _ := v.AsVector3()
		bw.floats(a[:])
	case dmxval.KindVector4:
		a, _ := v.AsVector4()
		bw.floats(a[:])
	case dmxval.KindQAngle:
		a, _ := v.AsQAngle()
		bw.floats(a[:])
	case dmxval.KindQuaternion:
		a, _ := v.AsQuaternion()
		bw.floats(a[:])
	case dmxval.KindMatrix:
		m, _ := v.AsMatrix()
		bw.floats(m[:])
	}
}
