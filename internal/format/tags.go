package format

// Binary type tag numbers. Single-value kinds occupy a contiguous low
// range in this fixed order; each array tag is the single tag plus
// ArrayTagOffset. The order matches dmxval.Kind's iota sequence exactly,
// so conversions are a straight cast rather than a lookup table — see
// internal/binarycodec, which is the only caller.
const (
	TagElement = iota
	TagInt
	TagFloat
	TagBool
	TagString
	TagBinary
	TagTime
	TagColor
	TagVector2
	TagVector3
	TagVector4
	TagQAngle
	TagQuaternion
	TagMatrix
)

// NumSingleTags is the count of single-value tags, and also the offset
// added to a single tag to obtain its corresponding array tag.
const NumSingleTags = TagMatrix + 1

// ArrayTagOffset is the fixed offset applied to a single-value tag to
// obtain its array form.
const ArrayTagOffset = NumSingleTags

// MaxTag is the highest valid wire tag (an array-of-Matrix).
const MaxTag = TagMatrix + ArrayTagOffset

// BinaryWidths describes the version-dependent field widths in the binary
// body layout. Versions 2-5 all use 32-bit
// pool counts and 32-bit string indices in this implementation; version 1
// has no string pool at all (strings are inlined NUL-terminated
// everywhere), which HasPool (false) exposes to the codec instead of a
// zero width.
type BinaryWidths struct {
	HasPool        bool
	HasPrefix      bool // v >= 5: an optional prefix-string block precedes the pool
	PoolCountBytes int  // width of the pool's element-count field
	IndexBytes     int  // width of a string-pool index reference
}

// WidthsForVersion returns the field-width table for encoding version v,
// or (zero, false) if v is not one of the five supported binary versions.
func WidthsForVersion(v int) (BinaryWidths, bool) {
	switch v {
	case 1:
		return BinaryWidths{}, true // no pool; inline strings throughout
	case 2, 3, 4:
		return BinaryWidths{HasPool: true, PoolCountBytes: 4, IndexBytes: 4}, true
	case 5:
		return BinaryWidths{HasPool: true, HasPrefix: true, PoolCountBytes: 4, IndexBytes: 4}, true
	default:
		return BinaryWidths{}, false
	}
}

// NullRefIndex and ExternalRefIndex are the two sentinel element-index
// values an element-reference attribute can carry on the wire instead of a
// directory position.
const (
	NullRefIndex     int32 = -1
	ExternalRefIndex int32 = -2
)
