package ldap

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies a client error without pinning callers to a
// specific message string (spec section 7).
type ErrorKind int

const (
	// KindInvalidInput covers bad URLs, malformed DNs/filters rejected
	// before any wire activity, and caller misuse (e.g. supplying a
	// paging control by hand to Search).
	KindInvalidInput ErrorKind = iota
	// KindTransport covers connect failures, socket errors, and a
	// connection closing while a request is still in flight.
	KindTransport
	// KindProtocolDecode covers malformed server responses and unknown
	// filter/control tags.
	KindProtocolDecode
	// KindTimeout covers a per-request deadline elapsing.
	KindTimeout
	// KindServer covers a non-success LDAP result code returned by the
	// directory server.
	KindServer
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidInput:
		return "InvalidInput"
	case KindTransport:
		return "Transport"
	case KindProtocolDecode:
		return "ProtocolDecode"
	case KindTimeout:
		return "OperationTimedOut"
	case KindServer:
		return "ServerError"
	default:
		return "Error"
	}
}

// Error is the single error type every public Client operation rejects
// with. Kind distinguishes the taxonomy; Code is the raw LDAP result code
// when Kind is KindServer, and -1 otherwise.
type Error struct {
	Kind    ErrorKind
	Code    int
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Code >= 0 {
		return fmt.Sprintf("ldap: %s (%s): %s", e.Kind, ResultCodeName(e.Code), e.Message)
	}
	return fmt.Sprintf("ldap: %s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause, if any, to errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.cause }

func newError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Code: -1, Message: fmt.Sprintf(format, args...)}
}

func wrapError(kind ErrorKind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Code: -1, Message: fmt.Sprintf(format, args...), cause: errors.WithStack(cause)}
}

// newServerError maps an LDAP result code and diagnostic message to a
// typed Error. Unknown codes still produce a KindServer error, carrying
// the raw code, rather than failing to classify the response.
func newServerError(code int, diagnosticMessage string) *Error {
	return &Error{Kind: KindServer, Code: code, Message: diagnosticMessage}
}

// IsServerError reports whether err is a KindServer Error carrying the
// given LDAP result code.
func IsServerError(err error, code int) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == KindServer && e.Code == code
	}
	return false
}
