package errs

import (
	"errors"
	"fmt"
)

type Kind string

const (
	RecordNotFound     Kind = "RECORD_NOT_FOUND"
	RecordIDInvalid    Kind = "RECORD_ID_INVALID"
	SessionExpired     Kind = "SESSION_EXPIRED"
	SessionInvalid     Kind = "SESSION_INVALID"
	InputInvalid       Kind = "INPUT_INVALID"
	InputTimeout       Kind = "INPUT_TIMEOUT"
	InputUnrecognized  Kind = "INPUT_UNRECOGNIZED"
	SystemError        Kind = "SYSTEM_ERROR"
	ServiceUnavailable Kind = "SERVICE_UNAVAILABLE"
	DatabaseError      Kind = "DATABASE_ERROR"
	NetworkError       Kind = "NETWORK_ERROR"
)

// Kinds lists every kind in declaration order
var Kinds = []Kind{
	RecordNotFound,
	RecordIDInvalid,
	SessionExpired,
	SessionInvalid,
	InputInvalid,
	InputTimeout,
	InputUnrecognized,
	SystemError,
	ServiceUnavailable,
	DatabaseError,
	NetworkError,
}

// IsFatal reports whether the kind is an infrastructure failure that ends the
// call once its retry budget is spent.
func (k Kind) IsFatal() bool {
	switch k {
	case SystemError, ServiceUnavailable, DatabaseError, NetworkError:
		return true
	}
	return false
}

// ParseKind accepts the canonical kind name; anything else is SystemError
func ParseKind(raw string) Kind {
	for _, k := range Kinds {
		if string(k) == raw {
			return k
		}
	}
	return SystemError
}

type Error struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("%s (%s)", e.Kind, e.Reason)
	}
	return fmt.Sprintf("%s (%s): %v", e.Kind, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func New(kind Kind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

func Wrap(kind Kind, reason string, err error) *Error {
	return &Error{Kind: kind, Reason: reason, Err: err}
}

// KindOf extracts the kind carried by err. Untyped errors are SystemError.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e.Kind
	}
	return SystemError
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
