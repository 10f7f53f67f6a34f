// Package format implements the one-line DMX header: parsing and emitting
// the ASCII line that precedes every binary or text DMX body, and the
// binary encoding's version-dependent layout constants (string-pool and
// string-index widths, type tag numbers). It is a small, dependency-free
// layer beneath the reader/writer packages.
package format

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Sentinel errors. Higher layers (pkg/dmx) wrap these into *dmx.Error with
// the appropriate ErrKind; format itself stays free of that dependency so
// internal/binarycodec and internal/keyvalues2 (which both import it) do
// not pick up a cycle back through pkg/dmx.
var (
	ErrBadHeader           = errors.New("format: malformed dmx header line")
	ErrUnsupportedEncoding = errors.New("format: unknown encoding name or unsupported version")
)

// Header captures the five tokens declared on a DMX file's header line:
//
//	<!-- dmx encoding <EncodingName> <EncodingVersion> format <FormatName> <FormatVersion> -->
//
// EncodingName selects the body codec ("binary", "keyvalues2",
// "keyvalues2_flat"); EncodingVersion selects the binary sub-dialect
// (1-5) and is ignored by the text codecs. FormatName/FormatVersion are
// opaque to this library (application-level schema interpretation is out
// of scope) and are round-tripped verbatim.
type Header struct {
	EncodingName    string
	EncodingVersion int
	FormatName      string
	FormatVersion   int
}

// MaxHeaderLine bounds how many bytes ParseHeader will scan looking for the
// terminating '\n', guarding against unbounded reads on malformed input.
const MaxHeaderLine = 4096

// ParseHeader reads a single line from r (up to and including the first
// '\n') and extracts the four header fields by fixed token position,
// rejecting any deviation with ErrBadHeader.
func ParseHeader(r io.Reader) (Header, error) {
	br := bufio.NewReaderSize(r, MaxHeaderLine)
	raw, err := br.ReadSlice('\n')
	if err == bufio.ErrBufferFull {
		return Header{}, fmt.Errorf("%w: header line too long", ErrBadHeader)
	}
	line := string(raw)
	if err != nil && line == "" {
		return Header{}, fmt.Errorf("%w: %v", ErrBadHeader, err)
	}
	if len(line) > MaxHeaderLine {
		return Header{}, fmt.Errorf("%w: header line too long", ErrBadHeader)
	}
	return parseHeaderLine(line)
}

// ParseHeaderBytes parses a header line already in memory, splitting the
// remainder (the body) off after the terminating newline.
func ParseHeaderBytes(b []byte) (Header, []byte, error) {
	nl := bytes.IndexByte(b, '\n')
	if nl < 0 {
		return Header{}, nil, fmt.Errorf("%w: no terminating newline", ErrBadHeader)
	}
	h, err := parseHeaderLine(string(b[:nl+1]))
	if err != nil {
		return Header{}, nil, err
	}
	return h, b[nl+1:], nil
}

func parseHeaderLine(line string) (Header, error) {
	trimmed := strings.TrimRight(line, "\n")
	fields := strings.Fields(trimmed)
	// <!-- dmx encoding NAME VER format FNAME FVER -->
	const wantTokens = 9
	if len(fields) != wantTokens {
		return Header{}, fmt.Errorf("%w: expected %d tokens, got %d", ErrBadHeader, wantTokens, len(fields))
	}
	if fields[0] != "<!--" || fields[1] != "dmx" || fields[2] != "encoding" ||
		fields[5] != "format" || fields[8] != "-->" {
		return Header{}, fmt.Errorf("%w: unexpected token layout", ErrBadHeader)
	}
	encVer, err := strconv.Atoi(fields[4])
	if err != nil || encVer < 1 {
		return Header{}, fmt.Errorf("%w: bad encoding version %q", ErrBadHeader, fields[4])
	}
	fmtVer, err := strconv.Atoi(fields[7])
	if err != nil || fmtVer < 1 {
		return Header{}, fmt.Errorf("%w: bad format version %q", ErrBadHeader, fields[7])
	}
	return Header{
		EncodingName:    fields[3],
		EncodingVersion: encVer,
		FormatName:      fields[6],
		FormatVersion:   fmtVer,
	}, nil
}

// WriteHeader emits the canonical header line to w.
func WriteHeader(w io.Writer, h Header) error {
	_, err := fmt.Fprintf(w, "<!-- dmx encoding %s %d format %s %d -->\n",
		h.EncodingName, h.EncodingVersion, h.FormatName, h.FormatVersion)
	return err
}

// Encoding names recognized in the header's EncodingName token.
const (
	EncodingBinary         = "binary"
	EncodingKeyValues2     = "keyvalues2"
	EncodingKeyValues2Flat = "keyvalues2_flat"
)

// MinBinaryVersion and MaxBinaryVersion bound the binary sub-dialects this
// library implements.
const (
	MinBinaryVersion = 1
	MaxBinaryVersion = 5
)

// ValidateEncoding checks that h names a body codec and, for binary,
// a supported version. Unknown names or out-of-range versions fail with
// ErrUnsupportedEncoding.
func ValidateEncoding(h Header) error {
	switch h.EncodingName {
	case EncodingBinary:
		if h.EncodingVersion < MinBinaryVersion || h.EncodingVersion > MaxBinaryVersion {
			return fmt.Errorf("%w: binary version %d", ErrUnsupportedEncoding, h.EncodingVersion)
		}
		return nil
	case EncodingKeyValues2, EncodingKeyValues2Flat:
		return nil
	default:
		return fmt.Errorf("%w: encoding %q", ErrUnsupportedEncoding, h.EncodingName)
	}
}
