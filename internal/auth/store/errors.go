package store

import (
	"errors"
	"strings"
)

// Kind classifies store failures independently of the driver that produced
// them. Services switch on Kind rather than on driver errors.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindNotFound
	KindAlreadyExists
	KindConditionFailed
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindAlreadyExists:
		return "already exists"
	case KindConditionFailed:
		return "condition failed"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Error is the only error type returned by store drivers.
type Error struct {
	Kind Kind
	Op   string // e.g. "authorization_codes.consume"
	Err  error  // underlying driver error, may be nil
}

var (
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrAlreadyExists   = &Error{Kind: KindAlreadyExists}
	ErrConditionFailed = &Error{Kind: KindConditionFailed}
	ErrUnavailable     = &Error{Kind: KindUnavailable}
)

// E builds a store error for op.
func E(op string, kind Kind, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("store: ")
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any store error of the same kind, so callers can compare against
// the package sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Err == nil
}

// KindOf returns the kind of the first store error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
