package format

import (
	"strings"
	"testing"
)

func TestParseHeaderCanonical(t *testing.T) {
	line := "<!-- dmx encoding binary 5 format dmx 1 -->\n"
	h, err := ParseHeader(strings.NewReader(line))
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if h.EncodingName != "binary" || h.EncodingVersion != 5 || h.FormatName != "dmx" || h.FormatVersion != 1 {
		t.Fatalf("unexpected header: %+v", h)
	}
}

func TestParseHeaderRejectsDeviation(t *testing.T) {
	cases := []string{
		"<!-- dmx encoding binary 5 format dmx 1 -->extra\n",
		"dmx encoding binary 5 format dmx 1 -->\n",
		"<!-- dmx encode binary 5 format dmx 1 -->\n",
		"<!-- dmx encoding binary x format dmx 1 -->\n",
		"<!-- dmx encoding binary 5 fmt dmx 1 -->\n",
	}
	for _, c := range cases {
		if _, err := ParseHeader(strings.NewReader(c)); err == nil {
			t.Fatalf("expected BadHeader for %q", c)
		}
	}
}

func TestWriteHeaderRoundtrip(t *testing.T) {
	h := Header{EncodingName: "keyvalues2", EncodingVersion: 1, FormatName: "model", FormatVersion: 22}
	var buf strings.Builder
	if err := WriteHeader(&buf, h); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	got, err := ParseHeader(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("ParseHeader(written): %v", err)
	}
	if got != h {
		t.Fatalf("roundtrip mismatch: %+v vs %+v", got, h)
	}
}

func TestValidateEncoding(t *testing.T) {
	if err := ValidateEncoding(Header{EncodingName: "binary", EncodingVersion: 6}); err == nil {
		t.Fatalf("expected unsupported version error")
	}
	if err := ValidateEncoding(Header{EncodingName: "xml"}); err == nil {
		t.Fatalf("expected unsupported encoding error")
	}
	if err := ValidateEncoding(Header{EncodingName: "binary", EncodingVersion: 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateEncoding(Header{EncodingName: "keyvalues2_flat"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
