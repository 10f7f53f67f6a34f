// Package dmxkit serializes and deserializes Valve's DMX data-interchange
// format: a directed graph of typed, named elements, encoded either as a
// compact binary body (versions 1-5) or as one of two keyvalues2 text
// variants. Serialize and Deserialize are the two operations external
// collaborators need; everything else lives on the Document and Element
// types in pkg/dmx.
package dmxkit

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/dmxkit/dmxkit/internal/binarycodec"
	"github.com/dmxkit/dmxkit/internal/format"
	"github.com/dmxkit/dmxkit/internal/keyvalues2"
	"github.com/dmxkit/dmxkit/pkg/dmx"
)

// Header is the parsed form of a DMX file's single header line.
type Header = format.Header

// EncodingBinary, EncodingKeyValues2, and EncodingKeyValues2Flat name the
// three encoding families a Header.EncodingName can select.
const (
	EncodingBinary         = format.EncodingBinary
	EncodingKeyValues2     = format.EncodingKeyValues2
	EncodingKeyValues2Flat = format.EncodingKeyValues2Flat
)

// Serialize writes header followed by doc's body, encoded per
// header.EncodingName (and, for binary, header.EncodingVersion), to w.
func Serialize(w io.Writer, doc *dmx.Document, header Header) error {
	if err := format.ValidateEncoding(header); err != nil {
		return wrapFormatErr(err)
	}

	switch header.EncodingName {
	case format.EncodingBinary:
		if err := binarycodec.Encode(w, doc, header, binarycodec.EncodeOptions{}); err != nil {
			return wrapCodecErr(err)
		}
		return nil
	case format.EncodingKeyValues2, format.EncodingKeyValues2Flat:
		if err := format.WriteHeader(w, header); err != nil {
			return wrapIOErr(err)
		}
		var body bytes.Buffer
		opts := keyvalues2.EncodeOptions{Flat: header.EncodingName == format.EncodingKeyValues2Flat}
		if err := keyvalues2.Encode(&body, doc, opts); err != nil {
			return wrapCodecErr(err)
		}
		if _, err := w.Write(body.Bytes()); err != nil {
			return wrapIOErr(err)
		}
		return nil
	default:
		return dmx.ErrUnsupportedEncoding
	}
}

// Deserialize reads a complete DMX file (header plus body) from r and
// returns its header, root id, and reconstructed document.
func Deserialize(r io.Reader) (Header, *dmx.Document, dmx.ID, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Header{}, nil, dmx.ID{}, wrapIOErr(err)
	}
	header, body, err := format.ParseHeaderBytes(raw)
	if err != nil {
		return Header{}, nil, dmx.ID{}, wrapFormatErr(err)
	}
	if err := format.ValidateEncoding(header); err != nil {
		return Header{}, nil, dmx.ID{}, wrapFormatErr(err)
	}

	switch header.EncodingName {
	case format.EncodingBinary:
		doc, root, err := binarycodec.Decode(body, header.EncodingVersion)
		if err != nil {
			return Header{}, nil, dmx.ID{}, wrapCodecErr(err)
		}
		return header, doc, root, nil
	case format.EncodingKeyValues2, format.EncodingKeyValues2Flat:
		doc, root, err := keyvalues2.Decode(body)
		if err != nil {
			return Header{}, nil, dmx.ID{}, wrapCodecErr(err)
		}
		return header, doc, root, nil
	default:
		return Header{}, nil, dmx.ID{}, dmx.ErrUnsupportedEncoding
	}
}

// wrapFormatErr classifies a plain internal/format sentinel error into the
// matching *dmx.Error kind.
func wrapFormatErr(err error) error {
	switch {
	case errors.Is(err, format.ErrBadHeader):
		return &dmx.Error{Kind: dmx.ErrKindBadHeader, Msg: "malformed dmx header line", Err: err}
	case errors.Is(err, format.ErrUnsupportedEncoding):
		return &dmx.Error{Kind: dmx.ErrKindUnsupportedEncoding, Msg: "unknown encoding name or unsupported version", Err: err}
	default:
		return &dmx.Error{Kind: dmx.ErrKindBadHeader, Msg: err.Error(), Err: err}
	}
}

func wrapIOErr(err error) error {
	return &dmx.Error{Kind: dmx.ErrKindIO, Msg: "io failure", Err: err}
}

// wrapCodecErr classifies an error surfaced by one of the body codecs. Both
// codecs return either a *dmx.Error already (from validation against the
// element graph) or a plain error describing a structural wire problem;
// the latter is heuristically classified by substring since the codecs
// intentionally avoid importing pkg/dmx for their internal sentinels.
func wrapCodecErr(err error) error {
	var de *dmx.Error
	if errors.As(err, &de) {
		return de
	}
	msg := err.Error()
	switch {
	case containsAny(msg, "truncated", "out of range", "index"):
		return &dmx.Error{Kind: dmx.ErrKindTruncated, Msg: "input ended mid-record", Err: err}
	case containsAny(msg, "unknown type tag", "unknown array element type"):
		return &dmx.Error{Kind: dmx.ErrKindUnknownType, Msg: "unrecognized type tag or keyword", Err: err}
	case containsAny(msg, "bad uuid"):
		return &dmx.Error{Kind: dmx.ErrKindBadUUID, Msg: "malformed uuid", Err: err}
	case containsAny(msg, "external references"):
		return &dmx.Error{Kind: dmx.ErrKindExternalReference, Msg: "external element references are unsupported", Err: err}
	case containsAny(msg, "dangling reference", "reference to element not in document", "reference to element outside directory"):
		return &dmx.Error{Kind: dmx.ErrKindDanglingReference, Msg: "element reference does not resolve", Err: err}
	case containsAny(msg, "array"):
		return &dmx.Error{Kind: dmx.ErrKindInvalidArray, Msg: "declared array length inconsistent with input", Err: err}
	default:
		return &dmx.Error{Kind: dmx.ErrKindBadString, Msg: msg, Err: err}
	}
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
