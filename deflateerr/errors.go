// Package deflateerr defines the status taxonomy shared by the DEFLATE
// encoder and decoder: the status codes a caller can switch on, and the
// typed error that carries the stage/counters needed to render the
// human-readable detail string a decoder exposes through ErrorDetail.
package deflateerr

import "strconv"

// Code is one of the recognized status codes.
type Code int

const (
	OK Code = iota
	ErrInvalidArg
	ErrCorrupt
	ErrLimit
	ErrMemory
	ErrUnsupported
	ErrInternal
	ErrIO
)

func (c Code) String() string {
	switch c {
	case OK:
		return "ok"
	case ErrInvalidArg:
		return "invalid argument"
	case ErrCorrupt:
		return "corrupt"
	case ErrLimit:
		return "limit exceeded"
	case ErrMemory:
		return "memory"
	case ErrUnsupported:
		return "unsupported"
	case ErrInternal:
		return "internal"
	case ErrIO:
		return "io"
	default:
		return "unknown(" + strconv.Itoa(int(c)) + ")"
	}
}

// Error is the single error type returned by the codec. It never wraps
// more than one layer deep: Stage and the counters are enough context to
// reconstruct the canonical detail string without chaining.
type Error struct {
	Code       Code
	Stage      string // decoder/encoder stage name, e.g. "huffman_data"
	Msg        string
	Incomplete bool // true for Finish()'s "ended outside a final block" case

	// Counters, populated when relevant; zero otherwise.
	Output    int64
	OutputMax int64
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Incomplete:
		return "incomplete deflate stream (stage '" + e.Stage + "', expected final block)"
	case e.Code == ErrCorrupt:
		if e.Msg != "" {
			return "corrupt deflate stream at stage '" + e.Stage + "' (output: " + strconv.FormatInt(e.Output, 10) + " bytes): " + e.Msg
		}
		return "corrupt deflate stream at stage '" + e.Stage + "' (output: " + strconv.FormatInt(e.Output, 10) + " bytes)"
	case e.Code == ErrLimit:
		return "limit exceeded at stage '" + e.Stage + "' (output: " + strconv.FormatInt(e.Output, 10) + "/" + strconv.FormatInt(e.OutputMax, 10) + " bytes)"
	default:
		if e.Msg != "" {
			return e.Code.String() + " at stage '" + e.Stage + "': " + e.Msg
		}
		return e.Code.String() + " at stage '" + e.Stage + "'"
	}
}

// Is reports whether target is an *Error with the same Code, so callers can
// write errors.Is(err, deflateerr.Limit("", 0, 0)) instead of unwrapping and
// comparing Code by hand. Stage and the counters are call-site detail, not
// part of the error's identity.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// IncompleteStream builds the "truncated stream" error Finish() returns when a
// decoder never reached DONE.
func IncompleteStream(stage string) *Error {
	return &Error{Code: ErrCorrupt, Stage: stage, Incomplete: true}
}

// Corrupt builds a corrupt-input error at the given stage/output offset.
func Corrupt(stage string, output int64) *Error {
	return &Error{Code: ErrCorrupt, Stage: stage, Output: output}
}

// Limit builds a resource-limit error.
func Limit(stage string, output, max int64) *Error {
	return &Error{Code: ErrLimit, Stage: stage, Output: output, OutputMax: max}
}

// Internal builds a bug-indicating internal error.
func Internal(stage, msg string) *Error {
	return &Error{Code: ErrInternal, Stage: stage, Msg: msg}
}

// Memory builds an allocation-failure error.
func Memory(stage, msg string) *Error {
	return &Error{Code: ErrMemory, Stage: stage, Msg: msg}
}

// InvalidArg builds an invalid-argument error.
func InvalidArg(msg string) *Error {
	return &Error{Code: ErrInvalidArg, Msg: msg}
}
