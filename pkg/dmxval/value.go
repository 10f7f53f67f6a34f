// Package dmxval implements the DMX attribute value model: a closed tagged
// variant over the scalar/vector/matrix/reference kinds a DMX attribute can
// hold, plus homogeneous array forms of each.
package dmxval

import (
	"fmt"

	uuid "github.com/satori/go.uuid"
)

// Kind discriminates the scalar payload an attribute Value carries. The
// numeric order matches the wire-level single-value tag assignment (see
// the binary codec's tag table): Element, Integer, Float, Bool, String,
// Binary, Time, Color, Vector2, Vector3, Vector4, QAngle, Quaternion,
// Matrix. An array Value shares its element Kind; the array/scalar
// distinction is carried out-of-band by Value.array, not by a second Kind
// range, so Kind alone is always one of these fourteen values.
type Kind uint8

const (
	KindElement Kind = iota
	KindInt
	KindFloat
	KindBool
	KindString
	KindBinary
	KindTime
	KindColor
	KindVector2
	KindVector3
	KindVector4
	KindQAngle
	KindQuaternion
	KindMatrix
)

// NumKinds is the count of single-value kinds, also the wire offset added
// to a single tag to obtain its array tag.
const NumKinds = int(KindMatrix) + 1

func (k Kind) String() string {
	switch k {
	case KindElement:
		return "element"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindBinary:
		return "binary"
	case KindTime:
		return "time"
	case KindColor:
		return "color"
	case KindVector2:
		return "vector2"
	case KindVector3:
		return "vector3"
	case KindVector4:
		return "vector4"
	case KindQAngle:
		return "qangle"
	case KindQuaternion:
		return "quaternion"
	case KindMatrix:
		return "matrix"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is a single DMX attribute value. Exactly one of the scalar fields
// is meaningful for a given Kind when array is false; when array is true,
// arr holds one scalar Value per element, each with array=false and the
// same Kind. This mirrors a closed sum type without the allocation and
// indirection of an interface-typed variant, keeping a Value cheap to copy
// and compare the way a ValueMeta/KeyMeta struct is in a plain registry
// record.
type Value struct {
	kind  Kind
	array bool

	i32   int32
	f32   float32
	b     bool
	s     string
	bin   []byte
	color [4]byte
	vec   [4]float32 // Vector2/3/4, QAngle (3), Quaternion (4)
	mat   [16]float32
	ref   uuid.UUID
	refOK bool // false => null reference sentinel

	arr []Value
}

// Kind returns the value's scalar kind.
func (v Value) Kind() Kind { return v.kind }

// IsArray reports whether v is an array-of-Kind value.
func (v Value) IsArray() bool { return v.array }

// Len returns the number of elements if v is an array, else 0.
func (v Value) Len() int {
	if !v.array {
		return 0
	}
	return len(v.arr)
}

// ---- scalar constructors ----

func NewInt(n int32) Value              { return Value{kind: KindInt, i32: n} }
func NewFloat(f float32) Value          { return Value{kind: KindFloat, f32: f} }
func NewBool(b bool) Value              { return Value{kind: KindBool, b: b} }
func NewString(s string) Value          { return Value{kind: KindString, s: s} }
func NewBinary(b []byte) Value          { return Value{kind: KindBinary, bin: b} }
func NewTime(ticks int32) Value         { return Value{kind: KindTime, i32: ticks} }
func NewColor(r, g, b, a byte) Value    { return Value{kind: KindColor, color: [4]byte{r, g, b, a}} }
func NewVector2(x, y float32) Value     { return Value{kind: KindVector2, vec: [4]float32{x, y}} }
func NewVector3(x, y, z float32) Value  { return Value{kind: KindVector3, vec: [4]float32{x, y, z}} }
func NewVector4(x, y, z, w float32) Value {
	return Value{kind: KindVector4, vec: [4]float32{x, y, z, w}}
}
func NewQAngle(pitch, yaw, roll float32) Value {
	return Value{kind: KindQAngle, vec: [4]float32{pitch, yaw, roll}}
}
func NewQuaternion(x, y, z, w float32) Value {
	return Value{kind: KindQuaternion, vec: [4]float32{x, y, z, w}}
}
func NewMatrix(m [16]float32) Value { return Value{kind: KindMatrix, mat: m} }

// NewElementRef creates a reference to the element identified by id.
func NewElementRef(id uuid.UUID) Value {
	return Value{kind: KindElement, ref: id, refOK: true}
}

// NewNullRef creates the null element-reference sentinel.
func NewNullRef() Value {
	return Value{kind: KindElement, refOK: false}
}

// ---- scalar accessors: (value, ok) where ok is false if kind mismatches ----

func (v Value) AsInt() (int32, bool) {
	if v.array || v.kind != KindInt {
		return 0, false
	}
	return v.i32, true
}

func (v Value) AsFloat() (float32, bool) {
	if v.array || v.kind != KindFloat {
		return 0, false
	}
	return v.f32, true
}

func (v Value) AsBool() (bool, bool) {
	if v.array || v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

func (v Value) AsString() (string, bool) {
	if v.array || v.kind != KindString {
		return "", false
	}
	return v.s, true
}

func (v Value) AsBinary() ([]byte, bool) {
	if v.array || v.kind != KindBinary {
		return nil, false
	}
	return v.bin, true
}

func (v Value) AsTime() (int32, bool) {
	if v.array || v.kind != KindTime {
		return 0, false
	}
	return v.i32, true
}

func (v Value) AsColor() ([4]byte, bool) {
	if v.array || v.kind != KindColor {
		return [4]byte{}, false
	}
	return v.color, true
}

func (v Value) AsVector2() ([2]float32, bool) {
	if v.array || v.kind != KindVector2 {
		return [2]float32{}, false
	}
	return [2]float32{v.vec[0], v.vec[1]}, true
}

func (v Value) AsVector3() ([3]float32, bool) {
	if v.array || v.kind != KindVector3 {
		return [3]float32{}, false
	}
	return [3]float32{v.vec[0], v.vec[1], v.vec[2]}, true
}

func (v Value) AsVector4() ([4]float32, bool) {
	if v.array || v.kind != KindVector4 {
		return [4]float32{}, false
	}
	return v.vec, true
}

func (v Value) AsQAngle() ([3]float32, bool) {
	if v.array || v.kind != KindQAngle {
		return [3]float32{}, false
	}
	return [3]float32{v.vec[0], v.vec[1], v.vec[2]}, true
}

func (v Value) AsQuaternion() ([4]float32, bool) {
	if v.array || v.kind != KindQuaternion {
		return [4]float32{}, false
	}
	return v.vec, true
}

func (v Value) AsMatrix() ([16]float32, bool) {
	if v.array || v.kind != KindMatrix {
		return [16]float32{}, false
	}
	return v.mat, true
}

// AsElementRef returns the referenced id and whether it is non-null. ok is
// false only if v is not an element-kind scalar.
func (v Value) AsElementRef() (id uuid.UUID, isNull bool, ok bool) {
	if v.array || v.kind != KindElement {
		return uuid.UUID{}, false, false
	}
	return v.ref, !v.refOK, true
}

// ---- array constructors ----

// NewArray builds an array Value from scalar elements, all of which must
// share the same Kind (panics otherwise — this is a programmer error, not
// a decode-time condition; decoders construct arrays one kind at a time).
func NewArray(elems []Value) Value {
	if len(elems) == 0 {
		panic("dmxval: NewArray requires a Kind; use NewEmptyArray")
	}
	k := elems[0].kind
	for _, e := range elems {
		if e.kind != k || e.array {
			panic("dmxval: array elements must be scalars of one kind")
		}
	}
	return Value{kind: k, array: true, arr: elems}
}

// NewEmptyArray builds a zero-length array of the given kind.
func NewEmptyArray(k Kind) Value {
	return Value{kind: k, array: true, arr: []Value{}}
}

// Elements returns the scalar elements of an array Value, or nil if v is
// not an array.
func (v Value) Elements() []Value {
	if !v.array {
		return nil
	}
	return v.arr
}

// Equal reports deep equality, including array element order.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind || v.array != o.array {
		return false
	}
	if v.array {
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	}
	switch v.kind {
	case KindElement:
		return v.refOK == o.refOK && (!v.refOK || v.ref == o.ref)
	case KindInt, KindTime:
		return v.i32 == o.i32
	case KindFloat:
		return v.f32 == o.f32
	case KindBool:
		return v.b == o.b
	case KindString:
		return v.s == o.s
	case KindBinary:
		return string(v.bin) == string(o.bin)
	case KindColor:
		return v.color == o.color
	case KindVector2:
		return v.vec[0] == o.vec[0] && v.vec[1] == o.vec[1]
	case KindVector3, KindQAngle:
		return v.vec[0] == o.vec[0] && v.vec[1] == o.vec[1] && v.vec[2] == o.vec[2]
	case KindVector4, KindQuaternion:
		return v.vec == o.vec
	case KindMatrix:
		return v.mat == o.mat
	default:
		return false
	}
}

// FloatWidth returns the number of float32 components a vector-family
// scalar Kind carries (0 for non-vector kinds).
func (k Kind) FloatWidth() int {
	switch k {
	case KindVector2:
		return 2
	case KindVector3, KindQAngle:
		return 3
	case KindVector4, KindQuaternion:
		return 4
	case KindMatrix:
		return 16
	default:
		return 0
	}
}
