package dmx

// ErrKind classifies Error so callers can branch on intent rather than
// matching error text.
type ErrKind int

const (
	ErrKindBadHeader ErrKind = iota
	ErrKindUnsupportedEncoding
	ErrKindTruncated
	ErrKindUnknownType
	ErrKindBadString
	ErrKindBadUUID
	ErrKindDanglingReference
	ErrKindExternalReference
	ErrKindInvalidArray
	ErrKindIO
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindBadHeader:
		return "BadHeader"
	case ErrKindUnsupportedEncoding:
		return "UnsupportedEncoding"
	case ErrKindTruncated:
		return "Truncated"
	case ErrKindUnknownType:
		return "UnknownType"
	case ErrKindBadString:
		return "BadString"
	case ErrKindBadUUID:
		return "BadUuid"
	case ErrKindDanglingReference:
		return "DanglingReference"
	case ErrKindExternalReference:
		return "ExternalReference"
	case ErrKindInvalidArray:
		return "InvalidArray"
	case ErrKindIO:
		return "Io"
	default:
		return "Unknown"
	}
}

// Error is a typed codec error with an optional underlying cause. All
// codec failures are terminal for the operation: callers never receive a
// partially-constructed Document.
type Error struct {
	Kind ErrKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same Kind, so callers
// can write errors.Is(err, dmx.ErrTruncated) against the sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinel errors, one per ErrKind, for errors.Is comparisons. Wrap with
// Err to retain an underlying cause (e.g. &Error{Kind: ErrBadHeader.Kind, ...}).
var (
	ErrBadHeader           = &Error{Kind: ErrKindBadHeader, Msg: "malformed dmx header line"}
	ErrUnsupportedEncoding = &Error{Kind: ErrKindUnsupportedEncoding, Msg: "unknown encoding name or unsupported version"}
	ErrTruncated           = &Error{Kind: ErrKindTruncated, Msg: "input ended mid-record"}
	ErrUnknownType         = &Error{Kind: ErrKindUnknownType, Msg: "unrecognized type tag or keyword"}
	ErrBadString           = &Error{Kind: ErrKindBadString, Msg: "invalid utf-8 or missing string terminator"}
	ErrBadUUID             = &Error{Kind: ErrKindBadUUID, Msg: "malformed uuid"}
	ErrDanglingReference   = &Error{Kind: ErrKindDanglingReference, Msg: "element reference does not resolve"}
	ErrExternalReference   = &Error{Kind: ErrKindExternalReference, Msg: "external element references are unsupported"}
	ErrInvalidArray        = &Error{Kind: ErrKindInvalidArray, Msg: "declared array length inconsistent with input"}
	ErrIO                  = &Error{Kind: ErrKindIO, Msg: "io failure"}
)

func wrap(sentinel *Error, cause error) *Error {
	return &Error{Kind: sentinel.Kind, Msg: sentinel.Msg, Err: cause}
}
