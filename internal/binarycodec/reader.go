// Package binarycodec implements the binary DMX body encoding: versions
// 1-5, with their version-gated string pool and string-index widths.
// Structure is validated eagerly before any accessor runs, and decoding
// proceeds in a "materialize records, then resolve cross-references"
// two-phase shape so cyclic and forward element references resolve
// regardless of write order.
package binarycodec

import (
	"fmt"
	"io"

	uuid "github.com/satori/go.uuid"

	"github.com/dmxkit/dmxkit/internal/format"
	"github.com/dmxkit/dmxkit/pkg/dmx"
	"github.com/dmxkit/dmxkit/pkg/dmxval"
)

// Decode reads a binary DMX body (everything after the header line) from
// body and returns the reconstructed document plus its root id. version is
// the EncodingVersion declared in the file's header.
func Decode(body []byte, version int) (*dmx.Document, dmx.ID, error) {
	widths, ok := format.WidthsForVersion(version)
	if !ok {
		return nil, dmx.ID{}, fmt.Errorf("binarycodec: unsupported version %d", version)
	}
	c := newCursor(body)

	if _, err := readPrefixStrings(c, widths); err != nil {
		return nil, dmx.ID{}, err
	}
	pool, err := readStringPool(c, widths)
	if err != nil {
		return nil, dmx.ID{}, err
	}

	// Directory: materialize every element before resolving any
	// reference, so forward and cyclic references work regardless of
	// write order.
	n, err := c.u32()
	if err != nil {
		return nil, dmx.ID{}, err
	}
	// Every directory entry needs at least a 16-byte id, so n can't exceed
	// remaining()/16; reject an oversized count before sizing byPos from it.
	if err := c.checkCount(n, 16); err != nil {
		return nil, dmx.ID{}, err
	}
	doc := dmx.NewDocument()
	byPos := make([]*dmx.Element, n)
	for i := uint32(0); i < n; i++ {
		class, err := readStr(c, widths, pool)
		if err != nil {
			return nil, dmx.ID{}, err
		}
		name, err := readStr(c, widths, pool)
		if err != nil {
			return nil, dmx.ID{}, err
		}
		idBytes, err := c.bytes(16)
		if err != nil {
			return nil, dmx.ID{}, err
		}
		id, err := uuid.FromBytes(idBytes)
		if err != nil {
			return nil, dmx.ID{}, fmt.Errorf("binarycodec: bad uuid: %w", err)
		}
		el := dmx.NewWithID(id, name, class)
		doc.Add(el)
		byPos[i] = el
	}
	if n > 0 {
		doc.SetRoot(byPos[0].ID())
	}

	// Attribute bodies, in directory order.
	for i := uint32(0); i < n; i++ {
		m, err := c.u32()
		if err != nil {
			return nil, dmx.ID{}, err
		}
		el := byPos[i]
		for j := uint32(0); j < m; j++ {
			key, err := readStr(c, widths, pool)
			if err != nil {
				return nil, dmx.ID{}, err
			}
			tag, err := c.u8()
			if err != nil {
				return nil, dmx.ID{}, err
			}
			v, err := readValue(c, widths, pool, byPos, int(tag))
			if err != nil {
				return nil, dmx.ID{}, err
			}
			el.Set(key, v)
		}
	}

	return doc, doc.Root(), nil
}

// DecodeReader is a convenience wrapper reading the whole body from r
// before decoding; documents are decoded whole, never streamed.
func DecodeReader(r io.Reader, version int) (*dmx.Document, dmx.ID, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, dmx.ID{}, err
	}
	return Decode(body, version)
}

func readStr(c *cursor, widths format.BinaryWidths, pool *stringPool) (string, error) {
	if !widths.HasPool {
		return c.cstring()
	}
	idx, err := c.u32()
	if err != nil {
		return "", err
	}
	s, ok := pool.at(idx)
	if !ok {
		return "", fmt.Errorf("binarycodec: string pool index %d out of range", idx)
	}
	return s, nil
}

func readValue(c *cursor, widths format.BinaryWidths, pool *stringPool, byPos []*dmx.Element, tag int) (dmxval.Value, error) {
	if tag >= format.ArrayTagOffset && tag <= format.MaxTag {
		return readArrayValue(c, widths, pool, byPos, tag-format.ArrayTagOffset)
	}
	return readScalarValue(c, widths, pool, byPos, tag)
}

func readScalarValue(c *cursor, widths format.BinaryWidths, pool *stringPool, byPos []*dmx.Element, tag int) (dmxval.Value, error) {
	switch tag {
	case format.TagElement:
		idx, err := c.i32()
		if err != nil {
			return dmxval.Value{}, err
		}
		return resolveRef(byPos, idx)
	case format.TagInt:
		n, err := c.i32()
		return dmxval.NewInt(n), err
	case format.TagFloat:
		f, err := c.f32()
		return dmxval.NewFloat(f), err
	case format.TagBool:
		b, err := c.u8()
		return dmxval.NewBool(b != 0), err
	case format.TagString:
		s, err := readStr(c, widths, pool)
		return dmxval.NewString(s), err
	case format.TagBinary:
		n, err := c.u32()
		if err != nil {
			return dmxval.Value{}, err
		}
		b, err := c.bytes(int(n))
		if err != nil {
			return dmxval.Value{}, err
		}
		cp := append([]byte(nil), b...)
		return dmxval.NewBinary(cp), nil
	case format.TagTime:
		n, err := c.i32()
		return dmxval.NewTime(n), err
	case format.TagColor:
		b, err := c.bytes(4)
		if err != nil {
			return dmxval.Value{}, err
		}
		return dmxval.NewColor(b[0], b[1], b[2], b[3]), nil
	case format.TagVector2:
		f, err := c.floats(2)
		if err != nil {
			return dmxval.Value{}, err
		}
		return dmxval.NewVector2(f[0], f[1]), nil
	case format.TagVector3:
		f, err := c.floats(3)
		if err != nil {
			return dmxval.Value{}, err
		}
		return dmxval.NewVector3(f[0], f[1], f[2]), nil
	case format.TagVector4:
		f, err := c.floats(4)
		if err != nil {
			return dmxval.Value{}, err
		}
		return dmxval.NewVector4(f[0], f[1], f[2], f[3]), nil
	case format.TagQAngle:
		f, err := c.floats(3)
		if err != nil {
			return dmxval.Value{}, err
		}
		return dmxval.NewQAngle(f[0], f[1], f[2]), nil
	case format.TagQuaternion:
		f, err := c.floats(4)
		if err != nil {
			return dmxval.Value{}, err
		}
		return dmxval.NewQuaternion(f[0], f[1], f[2], f[3]), nil
	case format.TagMatrix:
		f, err := c.floats(16)
		if err != nil {
			return dmxval.Value{}, err
		}
		var m [16]float32
		copy(m[:], f)
		return dmxval.NewMatrix(m), nil
	default:
		return dmxval.Value{}, fmt.Errorf("binarycodec: unknown type tag %d", tag)
	}
}

func readArrayValue(c *cursor, widths format.BinaryWidths, pool *stringPool, byPos []*dmx.Element, baseTag int) (dmxval.Value, error) {
	n, err := c.u32()
	if err != nil {
		return dmxval.Value{}, err
	}
	if n == 0 {
		kind, err := kindForTag(baseTag)
		if err != nil {
			return dmxval.Value{}, err
		}
		return dmxval.NewEmptyArray(kind), nil
	}
	// Every element in any array kind takes at least 1 byte on the wire
	// (a bool); reject an oversized count before sizing elems from it.
	if err := c.checkCount(n, 1); err != nil {
		return dmxval.Value{}, err
	}
	elems := make([]dmxval.Value, n)
	for i := uint32(0); i < n; i++ {
		v, err := readScalarValue(c, widths, pool, byPos, baseTag)
		if err != nil {
			return dmxval.Value{}, err
		}
		elems[i] = v
	}
	return dmxval.NewArray(elems), nil
}

func kindForTag(tag int) (dmxval.Kind, error) {
	if tag < 0 || tag >= format.NumSingleTags {
		return 0, fmt.Errorf("binarycodec: unknown type tag %d", tag)
	}
	return dmxval.Kind(tag), nil
}

func resolveRef(byPos []*dmx.Element, idx int32) (dmxval.Value, error) {
	switch {
	case idx == format.NullRefIndex:
		return dmxval.NewNullRef(), nil
	case idx == format.ExternalRefIndex:
		return dmxval.Value{}, fmt.Errorf("binarycodec: external references are unsupported")
	case idx < 0 || int(idx) >= len(byPos):
		return dmxval.Value{}, fmt.Errorf("binarycodec: element index %d out of range", idx)
	default:
		return dmxval.NewElementRef(byPos[idx].ID()), nil
	}
}
