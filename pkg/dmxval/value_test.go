package dmxval

import (
	"testing"

	uuid "github.com/satori/go.uuid"
	"github.com/stretchr/testify/require"
)

func TestScalarConstructorsKindAndEquality(t *testing.T) {
	cases := []struct {
		name string
		v    Value
		k    Kind
	}{
		{"int", NewInt(42), KindInt},
		{"float", NewFloat(0.5), KindFloat},
		{"bool", NewBool(true), KindBool},
		{"string", NewString("hi"), KindString},
		{"binary", NewBinary([]byte{1, 2, 3}), KindBinary},
		{"time", NewTime(12345), KindTime},
		{"color", NewColor(1, 2, 3, 4), KindColor},
		{"vector2", NewVector2(1, 2), KindVector2},
		{"vector3", NewVector3(1, 2, 3), KindVector3},
		{"vector4", NewVector4(1, 2, 3, 4), KindVector4},
		{"qangle", NewQAngle(1, 2, 3), KindQAngle},
		{"quaternion", NewQuaternion(1, 2, 3, 4), KindQuaternion},
		{"matrix", NewMatrix([16]float32{1: 1}), KindMatrix},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.k, c.v.Kind())
			require.False(t, c.v.IsArray())
			require.True(t, c.v.Equal(c.v))
		})
	}
}

func TestIntReadAsFloatFails(t *testing.T) {
	// Scenario S2: age read as float must fail — no implicit numeric coercion.
	age := NewInt(42)
	_, ok := age.AsFloat()
	require.False(t, ok)
	v, ok := age.AsInt()
	require.True(t, ok)
	require.Equal(t, int32(42), v)
}

func TestElementRefNullSentinel(t *testing.T) {
	id, err := uuid.NewV4()
	require.NoError(t, err)
	ref := NewElementRef(id)
	gotID, isNull, ok := ref.AsElementRef()
	require.True(t, ok)
	require.False(t, isNull)
	require.Equal(t, id, gotID)

	null := NewNullRef()
	_, isNull, ok = null.AsElementRef()
	require.True(t, ok)
	require.True(t, isNull)
}

func TestArrayHomogeneity(t *testing.T) {
	arr := NewArray([]Value{NewVector3(1, 0, 0), NewVector3(0, 1, 0), NewVector3(0, 0, 1)})
	require.True(t, arr.IsArray())
	require.Equal(t, KindVector3, arr.Kind())
	require.Equal(t, 3, arr.Len())

	elems := arr.Elements()
	v0, ok := elems[0].AsVector3()
	require.True(t, ok)
	require.Equal(t, [3]float32{1, 0, 0}, v0)
}

func TestArrayMixedKindPanics(t *testing.T) {
	require.Panics(t, func() {
		NewArray([]Value{NewInt(1), NewFloat(2)})
	})
}

func TestSingletonArrayRoundtrip(t *testing.T) {
	// A singleton Int array hands back its one element unchanged.
	one := NewArray([]Value{NewInt(7)})
	require.Equal(t, 1, one.Len())
	v, ok := one.Elements()[0].AsInt()
	require.True(t, ok)
	require.Equal(t, int32(7), v)
}

func TestEqualDistinguishesArrayFromScalar(t *testing.T) {
	scalar := NewInt(7)
	array := NewArray([]Value{NewInt(7)})
	require.False(t, scalar.Equal(array))
}
