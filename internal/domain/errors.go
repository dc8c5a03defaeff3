package domain

import "errors"

// Kind classifies a failure for the HTTP boundary. The set is closed.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Sentinel errors for domain-level error discrimination.
// Services return *Error values that match these through errors.Is, so handlers
// can map to HTTP status codes without leaking infrastructure details.
var (
	ErrValidation   = errors.New("validation")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// Store-level conditions. They are consumed by the ledger engine and never
// reach a client.
var (
	// ErrStaleBalance means the conditional balance check failed: another writer
	// committed first.
	ErrStaleBalance = errors.New("stale balance")
	// ErrDuplicateEntry means a transaction row already exists at the same
	// (account, timestamp) key.
	ErrDuplicateEntry = errors.New("duplicate ledger entry")
)

// Error is a classified failure whose Message is safe to show to a client.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is lets errors.Is(err, ErrNotFound) and friends match on the kind.
func (e *Error) Is(target error) bool {
	return target != nil && target == sentinelFor(e.Kind)
}

func sentinelFor(k Kind) error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindUnauthorized:
		return ErrUnauthorized
	case KindForbidden:
		return ErrForbidden
	case KindNotFound:
		return ErrNotFound
	case KindConflict:
		return ErrConflict
	}
	return nil
}

func Validation(msg string) error   { return &Error{Kind: KindValidation, Message: msg} }
func Unauthorized(msg string) error { return &Error{Kind: KindUnauthorized, Message: msg} }
func Forbidden(msg string) error    { return &Error{Kind: KindForbidden, Message: msg} }
func NotFound(msg string) error     { return &Error{Kind: KindNotFound, Message: msg} }
func Conflict(msg string) error     { return &Error{Kind: KindConflict, Message: msg} }
func Internal(msg string) error     { return &Error{Kind: KindInternal, Message: msg} }

// KindOf reports the kind of err. Wrapped sentinels are recognised too;
// anything unclassified is KindInternal.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	switch {
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	}
	return KindInternal
}

// PublicMessage returns the client-facing text for err. Internal failures
// never expose their cause.
func PublicMessage(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	if KindOf(err) == KindInternal {
		return "Internal server error"
	}
	return err.Error()
}
