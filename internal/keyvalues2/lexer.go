package keyvalues2

import (
	"fmt"
)

type tokKind int

const (
	tokString tokKind = iota
	tokPunct
	tokEOF
)

type token struct {
	kind tokKind
	text string // string contents (unescaped) for tokString; the literal byte for tokPunct
}

// lex scans a complete keyvalues2 body into tokens. Comments ("// to end
// of line") and whitespace are insignificant and dropped; quoted strings
// are unescaped in place.
func lex(src []byte) ([]token, error) {
	var toks []token
	i, n := 0, len(src)
	for i < n {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			i++
		case c == '/' && i+1 < n && src[i+1] == '/':
			for i < n && src[i] != '\n' {
				i++
			}
		case c == '{' || c == '}' || c == '[' || c == ']' || c == ',':
			toks = append(toks, token{kind: tokPunct, text: string(c)})
			i++
		case c == '"':
			s, consumed, err := lexString(src[i:])
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{kind: tokString, text: s})
			i += consumed
		default:
			return nil, fmt.Errorf("keyvalues2: unexpected byte %q at offset %d", c, i)
		}
	}
	return toks, nil
}

// lexString unescapes a double-quoted string starting at src[0] == '"'.
// Returns the unescaped content and the number of source bytes consumed,
// including both quotes.
func lexString(src []byte) (string, int, error) {
	if len(src) == 0 || src[0] != '"' {
		return "", 0, fmt.Errorf("keyvalues2: expected opening quote")
	}
	out := make([]byte, 0, len(src))
	i := 1
	for i < len(src) {
		c := src[i]
		if c == '"' {
			return string(out), i + 1, nil
		}
		if c == '\\' && i+1 < len(src) {
			switch src[i+1] {
			case '\\':
				out = append(out, '\\')
			case '"':
				out = append(out, '"')
			case 'n':
				out = append(out, '\n')
			case 't':
				out = append(out, '\t')
			default:
				out = append(out, src[i+1])
			}
			i += 2
			continue
		}
		out = append(out, c)
		i++
	}
	return "", 0, fmt.Errorf("keyvalues2: unterminated string")
}
