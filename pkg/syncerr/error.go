package syncerr

import (
	"errors"
	"strings"
)

// Kind classifies a sync failure so operators can tell failures apart.
type Kind string

const (
	KindConfig            Kind = "CONFIG_ERROR"
	KindAuth              Kind = "AUTH_ERROR"
	KindTransport         Kind = "TRANSPORT_ERROR"
	KindSignatureRejected Kind = "SIGNATURE_REJECTED"
	KindUpstream          Kind = "UPSTREAM_ERROR"
	KindPersistence       Kind = "PERSISTENCE_ERROR"
	KindDataQuality       Kind = "DATA_QUALITY"
	KindUnknown           Kind = "UNKNOWN"
)

// Error is a classified, message-carrying failure.
type Error struct {
	Kind    Kind
	Op      string
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Code != "" {
		b.WriteString(" (code=")
		b.WriteString(e.Code)
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WithCode attaches the upstream business code.
func (e *Error) WithCode(code string) *Error {
	e.Code = code
	return e
}

// Config creates a configuration error. Configuration errors abort before any network call.
func Config(message string) *Error {
	return &Error{Kind: KindConfig, Op: "config", Message: message}
}

// Auth creates an authentication error.
func Auth(op, message string, cause error) *Error {
	return &Error{Kind: KindAuth, Op: op, Message: message, Err: cause}
}

// Transport creates a transport error for failures that survived the HTTP client's retries.
func Transport(op string, cause error) *Error {
	return &Error{Kind: KindTransport, Op: op, Message: "transport failure", Err: cause}
}

// SignatureRejected is returned once every signing strategy has been refused.
func SignatureRejected(op string, strategies []string) *Error {
	return &Error{
		Kind:    KindSignatureRejected,
		Op:      op,
		Message: "signature rejected by every strategy [" + strings.Join(strategies, ", ") + "]",
	}
}

// Upstream creates an error for a non-success business code.
func Upstream(op, code, message string) *Error {
	if message == "" {
		message = "upstream returned a non-success code"
	}
	return &Error{Kind: KindUpstream, Op: op, Code: code, Message: message}
}

// Persistence wraps a database failure.
func Persistence(op string, cause error) *Error {
	return &Error{Kind: KindPersistence, Op: op, Message: "persistence failure", Err: cause}
}

// DataQuality describes a record that was skipped.
func DataQuality(op, message string) *Error {
	return &Error{Kind: KindDataQuality, Op: op, Message: message}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
