package service

import (
	"errors"
	"strings"
)

// Kind classifies failures crossing the service boundary. Each kind has a
// stable identifier returned by Code.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindClientNotFound
	KindRedirectMismatch
	KindInvalidClientSecret
	KindMalformedAuthHeader
	KindCodeNotFound
	KindCodeExpired
	KindCodeBindingMismatch
	KindUnsupportedResponseType
	KindUpstreamAuthFailed
	KindStoreError
)

var kindCodes = [...]string{
	KindUnknown:                 "unknown",
	KindClientNotFound:          "client_not_found",
	KindRedirectMismatch:        "redirect_mismatch",
	KindInvalidClientSecret:     "invalid_client_secret",
	KindMalformedAuthHeader:     "malformed_auth_header",
	KindCodeNotFound:            "code_not_found",
	KindCodeExpired:             "code_expired",
	KindCodeBindingMismatch:     "code_binding_mismatch",
	KindUnsupportedResponseType: "unsupported_response_type",
	KindUpstreamAuthFailed:      "upstream_auth_failed",
	KindStoreError:              "store_error",
}

// Code returns the machine-readable identifier of k.
func (k Kind) Code() string {
	if int(k) < len(kindCodes) {
		return kindCodes[k]
	}
	return kindCodes[KindUnknown]
}

func (k Kind) String() string { return k.Code() }

// Error is returned by every exported service operation.
type Error struct {
	Kind Kind
	Op   string // e.g. "codes.redeem"
	Err  error
}

var (
	ErrClientNotFound          = &Error{Kind: KindClientNotFound}
	ErrRedirectMismatch        = &Error{Kind: KindRedirectMismatch}
	ErrInvalidClientSecret     = &Error{Kind: KindInvalidClientSecret}
	ErrMalformedAuthHeader     = &Error{Kind: KindMalformedAuthHeader}
	ErrCodeNotFound            = &Error{Kind: KindCodeNotFound}
	ErrCodeExpired             = &Error{Kind: KindCodeExpired}
	ErrCodeBindingMismatch     = &Error{Kind: KindCodeBindingMismatch}
	ErrUnsupportedResponseType = &Error{Kind: KindUnsupportedResponseType}
	ErrUpstreamAuthFailed      = &Error{Kind: KindUpstreamAuthFailed}
	ErrStore                   = &Error{Kind: KindStoreError}
)

func fail(op string, kind Kind, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.Code())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinels of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Err == nil
}

// KindOf returns the kind of the first service error in err's chain, or
// KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
