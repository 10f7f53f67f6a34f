package keyvalues2

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmxkit/dmxkit/pkg/dmx"
	"github.com/dmxkit/dmxkit/pkg/dmxval"
)

// S3 — cycle, non-flat: A inline, B inline inside A's peer, A's id as a
// bare reference inside B's peer.
func TestCycleNonFlat(t *testing.T) {
	doc := dmx.NewDocument()
	a := dmx.New("A", "DmElement")
	b := dmx.New("B", "DmElement")
	doc.Add(a)
	doc.Add(b)
	a.Set("peer", dmxval.NewElementRef(b.ID()))
	b.Set("peer", dmxval.NewElementRef(a.ID()))
	doc.SetRoot(a.ID())

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, doc, EncodeOptions{}))

	got, gotRoot, err := Decode(buf.Bytes())
	require.NoError(t, err)

	rootEl, ok := got.Get(gotRoot)
	require.True(t, ok)
	require.Equal(t, "A", rootEl.Name())
	peer, _ := rootEl.Get("peer")
	peerID, isNull, _ := peer.AsElementRef()
	require.False(t, isNull)
	peerEl, ok := got.Get(peerID)
	require.True(t, ok)
	require.Equal(t, "B", peerEl.Name())

	back, _ := peerEl.Get("peer")
	backID, _, _ := back.AsElementRef()
	require.Equal(t, gotRoot, backID)
}

// S4 — shared child, flat: root lists "left" and "right" as bare
// references to the same element, which appears once at top level.
func TestSharedChildFlat(t *testing.T) {
	doc := dmx.NewDocument()
	root := dmx.New("root", "DmElement")
	child := dmx.New("child", "DmElement")
	doc.Add(root)
	doc.SetChild(root, "left", child)
	root.Set("right", dmxval.NewElementRef(child.ID()))
	doc.SetRoot(root.ID())

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, doc, EncodeOptions{Flat: true}))

	got, gotRoot, err := Decode(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, 2, got.Len())

	rootEl, _ := got.Get(gotRoot)
	left, _ := rootEl.Get("left")
	right, _ := rootEl.Get("right")
	leftID, _, _ := left.AsElementRef()
	rightID, _, _ := right.AsElementRef()
	require.Equal(t, leftID, rightID)
}

func TestScalarMixRoundtrip(t *testing.T) {
	doc := dmx.NewDocument()
	root := dmx.New("root", "DmElement")
	root.Set("age", dmxval.NewInt(42))
	root.Set("ratio", dmxval.NewFloat(0.5))
	root.Set("flag", dmxval.NewBool(true))
	root.Set("tag", dmxval.NewString("hi \"there\"\nnext"))
	root.Set("verts", dmxval.NewArray([]dmxval.Value{
		dmxval.NewVector3(1, 0, 0),
		dmxval.NewVector3(0, 1, 0),
		dmxval.NewVector3(0, 0, 1),
	}))
	root.Set("blob", dmxval.NewBinary([]byte{0xDE, 0xAD, 0xBE, 0xEF}))
	doc.Add(root)
	doc.SetRoot(root.ID())

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, doc, EncodeOptions{}))

	got, gotRoot, err := Decode(buf.Bytes())
	require.NoError(t, err)
	el, _ := got.Get(gotRoot)

	age, _ := el.Get("age")
	n, ok := age.AsInt()
	require.True(t, ok)
	require.Equal(t, int32(42), n)

	tag, _ := el.Get("tag")
	s, ok := tag.AsString()
	require.True(t, ok)
	require.Equal(t, "hi \"there\"\nnext", s)

	verts, _ := el.Get("verts")
	require.Equal(t, 3, verts.Len())
	v1, ok := verts.Elements()[1].AsVector3()
	require.True(t, ok)
	require.Equal(t, [3]float32{0, 1, 0}, v1)

	blob, _ := el.Get("blob")
	b, ok := blob.AsBinary()
	require.True(t, ok)
	require.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, b)
}

func TestDanglingReferenceFailsDecode(t *testing.T) {
	src := []byte(`"DmElement"
{
  "id" "elementid" "00000000-0000-0000-0000-00000000000a"
  "name" "string" "root"
  "peer" "element" "00000000-0000-0000-0000-00000000000b"
}
`)
	_, _, err := Decode(src)
	require.Error(t, err)
}

// Singleton element_array, non-flat: C is reachable from root only
// through "kids", never through a scalar attribute, so it must still be
// emitted somewhere (inlined-as-sibling) rather than left as a dangling
// bare reference.
func TestElementArrayOnlyReachableNonFlat(t *testing.T) {
	doc := dmx.NewDocument()
	root := dmx.New("root", "DmElement")
	child := dmx.New("C", "DmElement")
	doc.Add(root)
	doc.Add(child)
	root.Set("kids", dmxval.NewArray([]dmxval.Value{dmxval.NewElementRef(child.ID())}))
	doc.SetRoot(root.ID())

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, doc, EncodeOptions{}))

	got, gotRoot, err := Decode(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, 2, got.Len())

	rootEl, ok := got.Get(gotRoot)
	require.True(t, ok)
	kids, ok := rootEl.Get("kids")
	require.True(t, ok)
	require.Equal(t, 1, kids.Len())
	childID, isNull, ok := kids.Elements()[0].AsElementRef()
	require.True(t, ok)
	require.False(t, isNull)

	childEl, ok := got.Get(childID)
	require.True(t, ok)
	require.Equal(t, "C", childEl.Name())
}

func TestNullRefRoundtrip(t *testing.T) {
	doc := dmx.NewDocument()
	root := dmx.New("root", "DmElement")
	root.Set("peer", dmxval.NewNullRef())
	doc.Add(root)
	doc.SetRoot(root.ID())

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, doc, EncodeOptions{}))
	got, gotRoot, err := Decode(buf.Bytes())
	require.NoError(t, err)
	el, _ := got.Get(gotRoot)
	peer, ok := el.Get("peer")
	require.True(t, ok)
	_, isNull, _ := peer.AsElementRef()
	require.True(t, isNull)
}
