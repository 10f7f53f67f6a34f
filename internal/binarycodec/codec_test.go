package binarycodec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmxkit/dmxkit/internal/format"
	"github.com/dmxkit/dmxkit/pkg/dmx"
	"github.com/dmxkit/dmxkit/pkg/dmxval"
)

func header(version int) format.Header {
	return format.Header{EncodingName: format.EncodingBinary, EncodingVersion: version, FormatName: "dmx", FormatVersion: 1}
}

// S1 — empty root, binary v5.
func TestEmptyRootV5(t *testing.T) {
	doc := dmx.NewDocument()
	root := dmx.New("", "DmElement")
	doc.Add(root)
	doc.SetRoot(root.ID())

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, doc, header(5), EncodeOptions{}))

	h, body, err := format.ParseHeaderBytes(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, 5, h.EncodingVersion)

	got, gotRoot, err := Decode(body, 5)
	require.NoError(t, err)
	el, ok := got.Get(gotRoot)
	require.True(t, ok)
	require.Equal(t, "DmElement", el.Class())
	require.Equal(t, "", el.Name())
	require.Equal(t, 0, el.AttributeCount())
}

// S2 — scalar mix, binary v2; age read as float must fail.
func TestScalarMixV2(t *testing.T) {
	doc := dmx.NewDocument()
	root := dmx.New("root", "DmElement")
	root.Set("age", dmxval.NewInt(42))
	root.Set("ratio", dmxval.NewFloat(0.5))
	root.Set("flag", dmxval.NewBool(true))
	root.Set("tag", dmxval.NewString("hi"))
	doc.Add(root)
	doc.SetRoot(root.ID())

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, doc, header(2), EncodeOptions{}))
	h, body, err := format.ParseHeaderBytes(buf.Bytes())
	require.NoError(t, err)

	got, gotRoot, err := Decode(body, h.EncodingVersion)
	require.NoError(t, err)
	el, _ := got.Get(gotRoot)

	age, _ := el.Get("age")
	n, ok := age.AsInt()
	require.True(t, ok)
	require.Equal(t, int32(42), n)
	_, ok = age.AsFloat()
	require.False(t, ok)

	ratio, _ := el.Get("ratio")
	f, ok := ratio.AsFloat()
	require.True(t, ok)
	require.Equal(t, float32(0.5), f)

	flag, _ := el.Get("flag")
	b, ok := flag.AsBool()
	require.True(t, ok)
	require.True(t, b)

	tag, _ := el.Get("tag")
	s, ok := tag.AsString()
	require.True(t, ok)
	require.Equal(t, "hi", s)
}

// S5 — array of vectors, binary v4.
func TestVectorArrayV4(t *testing.T) {
	doc := dmx.NewDocument()
	root := dmx.New("root", "DmElement")
	root.Set("verts", dmxval.NewArray([]dmxval.Value{
		dmxval.NewVector3(1, 0, 0),
		dmxval.NewVector3(0, 1, 0),
		dmxval.NewVector3(0, 0, 1),
	}))
	doc.Add(root)
	doc.SetRoot(root.ID())

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, doc, header(4), EncodeOptions{}))
	_, body, err := format.ParseHeaderBytes(buf.Bytes())
	require.NoError(t, err)

	got, gotRoot, err := Decode(body, 4)
	require.NoError(t, err)
	el, _ := got.Get(gotRoot)
	verts, ok := el.Get("verts")
	require.True(t, ok)
	require.True(t, verts.IsArray())
	require.Equal(t, 3, verts.Len())
	v1, ok := verts.Elements()[1].AsVector3()
	require.True(t, ok)
	require.Equal(t, [3]float32{0, 1, 0}, v1)
}

// S6 — truncated input must fail without exposing a partial document.
func TestTruncatedPoolFails(t *testing.T) {
	h := header(5)
	var buf bytes.Buffer
	require.NoError(t, format.WriteHeader(&buf, h))
	bw := &byteWriter{}
	// prefix count = 0
	bw.u32(0)
	// pool declares 5 strings but only 3 follow
	bw.u32(5)
	bw.cstring("a")
	bw.cstring("b")
	bw.cstring("c")
	buf.Write(bw.buf)

	_, body, err := format.ParseHeaderBytes(buf.Bytes())
	require.NoError(t, err)
	_, _, err = Decode(body, 5)
	require.Error(t, err)
}

// A corrupt pool count far larger than the remaining input must fail as
// a typed error, not panic inside make().
func TestOversizedPoolCountFailsCleanly(t *testing.T) {
	h := header(5)
	var buf bytes.Buffer
	require.NoError(t, format.WriteHeader(&buf, h))
	bw := &byteWriter{}
	bw.u32(0)          // prefix count = 0
	bw.u32(0xFFFFFFFF) // pool declares ~4 billion strings
	buf.Write(bw.buf)

	_, body, err := format.ParseHeaderBytes(buf.Bytes())
	require.NoError(t, err)
	require.NotPanics(t, func() {
		_, _, err = Decode(body, 5)
	})
	require.Error(t, err)
}

// Shared subgraph: two attributes referencing the same element remain
// shared (property 4), and the encode->decode cycle is idempotent on a
// second pass (property 2).
func TestSharedSubgraph(t *testing.T) {
	doc := dmx.NewDocument()
	root := dmx.New("root", "DmElement")
	child := dmx.New("child", "DmElement")
	doc.Add(root)
	doc.SetChild(root, "left", child)
	root.Set("right", dmxval.NewElementRef(child.ID()))
	doc.SetRoot(root.ID())

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, doc, header(3), EncodeOptions{}))
	_, body, err := format.ParseHeaderBytes(buf.Bytes())
	require.NoError(t, err)
	got, gotRoot, err := Decode(body, 3)
	require.NoError(t, err)

	el, _ := got.Get(gotRoot)
	left, _ := el.Get("left")
	right, _ := el.Get("right")
	leftID, _, _ := left.AsElementRef()
	rightID, _, _ := right.AsElementRef()
	require.Equal(t, leftID, rightID)
	require.Equal(t, 2, got.Len())

	var buf2 bytes.Buffer
	require.NoError(t, Encode(&buf2, got, header(3), EncodeOptions{}))
	_, body2, err := format.ParseHeaderBytes(buf2.Bytes())
	require.NoError(t, err)
	got2, gotRoot2, err := Decode(body2, 3)
	require.NoError(t, err)

	var buf3 bytes.Buffer
	require.NoError(t, Encode(&buf3, got2, header(3), EncodeOptions{}))
	require.Equal(t, buf2.Bytes(), buf3.Bytes())
	_ = gotRoot2
}

// Cyclic graph round-trips without infinite loops (property 3).
func TestCycleRoundtrip(t *testing.T) {
	doc := dmx.NewDocument()
	a := dmx.New("A", "DmElement")
	b := dmx.New("B", "DmElement")
	doc.Add(a)
	doc.Add(b)
	a.Set("peer", dmxval.NewElementRef(b.ID()))
	b.Set("peer", dmxval.NewElementRef(a.ID()))
	doc.SetRoot(a.ID())

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, doc, header(5), EncodeOptions{}))
	_, body, err := format.ParseHeaderBytes(buf.Bytes())
	require.NoError(t, err)
	got, gotRoot, err := Decode(body, 5)
	require.NoError(t, err)

	rootEl, _ := got.Get(gotRoot)
	peer, _ := rootEl.Get("peer")
	peerID, _, _ := peer.AsElementRef()
	peerEl, ok := got.Get(peerID)
	require.True(t, ok)
	back, _ := peerEl.Get("peer")
	backID, _, _ := back.AsElementRef()
	require.Equal(t, gotRoot, backID)
}

// Dangling reference must be rejected on encode (property 6).
func TestDanglingReferenceRejectedOnEncode(t *testing.T) {
	doc := dmx.NewDocument()
	root := dmx.New("root", "DmElement")
	doc.Add(root)
	doc.SetRoot(root.ID())
	ghost := dmx.New("ghost", "DmElement") // never added to doc
	root.Set("missing", dmxval.NewElementRef(ghost.ID()))

	var buf bytes.Buffer
	err := Encode(&buf, doc, header(5), EncodeOptions{})
	require.Error(t, err)
}
