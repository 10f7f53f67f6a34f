package keyvalues2

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// normalizeEncoding returns body unchanged if it is already valid UTF-8.
// Some exporters write keyvalues2 text in the local 8-bit encoding rather
// than UTF-8 (most commonly Windows-1252 for tool-authored Source-engine
// assets); when the raw bytes aren't valid UTF-8, transcode from
// Windows-1252 before lexing rather than failing immediately on what would
// otherwise look like a corrupt string.
func normalizeEncoding(body []byte) ([]byte, error) {
	if utf8.Valid(body) {
		return body, nil
	}
	out, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), body)
	if err != nil {
		return nil, err
	}
	return out, nil
}
