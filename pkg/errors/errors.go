package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a scheduling error so callers can map it to a response
// without string matching.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindTenantMismatch
	KindInvalidAvailability
	KindOutsideAvailability
	KindSlotConflict
	KindInvalidTransition
	KindForbidden
	KindAlreadyCancelled
	KindAlreadyConfirmed
	KindValidation
	KindStorageUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindTenantMismatch:
		return "tenant_mismatch"
	case KindInvalidAvailability:
		return "invalid_availability"
	case KindOutsideAvailability:
		return "outside_availability"
	case KindSlotConflict:
		return "slot_conflict"
	case KindInvalidTransition:
		return "invalid_transition"
	case KindForbidden:
		return "forbidden"
	case KindAlreadyCancelled:
		return "already_cancelled"
	case KindAlreadyConfirmed:
		return "already_confirmed"
	case KindValidation:
		return "validation"
	case KindStorageUnavailable:
		return "storage_unavailable"
	default:
		return "unknown"
	}
}

// Error is the typed error returned by the scheduling core. All of these are
// recoverable; nothing in the core panics or aborts the process.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match on kind, so sentinel checks like
// errors.Is(err, ErrSlotConflict) keep working across wrapping.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrNotFound            = &Error{Kind: KindNotFound, Message: "not found"}
	ErrTenantMismatch      = &Error{Kind: KindTenantMismatch, Message: "cross-clinic reference"}
	ErrInvalidAvailability = &Error{Kind: KindInvalidAvailability, Message: "invalid availability window"}
	ErrOutsideAvailability = &Error{Kind: KindOutsideAvailability, Message: "outside doctor availability"}
	ErrSlotConflict        = &Error{Kind: KindSlotConflict, Message: "slot already booked"}
	ErrInvalidTransition   = &Error{Kind: KindInvalidTransition, Message: "invalid status transition"}
	ErrForbidden           = &Error{Kind: KindForbidden, Message: "forbidden"}
	ErrAlreadyCancelled    = &Error{Kind: KindAlreadyCancelled, Message: "appointment already cancelled"}
	ErrAlreadyConfirmed    = &Error{Kind: KindAlreadyConfirmed, Message: "appointment already confirmed"}
	ErrStorageUnavailable  = &Error{Kind: KindStorageUnavailable, Message: "storage unavailable"}
)

func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

func TenantMismatch(resource string) *Error {
	return &Error{Kind: KindTenantMismatch, Message: fmt.Sprintf("%s belongs to a different clinic", resource)}
}

func InvalidAvailability(msg string) *Error {
	return &Error{Kind: KindInvalidAvailability, Message: msg}
}

func OutsideAvailability() *Error {
	return &Error{Kind: KindOutsideAvailability, Message: "requested time is outside the doctor's availability"}
}

func SlotConflict() *Error {
	return &Error{Kind: KindSlotConflict, Message: "the requested slot overlaps an existing appointment"}
}

func InvalidTransition(from, to string) *Error {
	return &Error{Kind: KindInvalidTransition, Message: fmt.Sprintf("cannot transition appointment from %s to %s", from, to)}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// Storage wraps an I/O failure from the storage collaborator. The cause is
// preserved for logs; callers branch on the kind only.
func Storage(err error) *Error {
	return &Error{Kind: KindStorageUnavailable, Message: "storage unavailable", Err: err}
}

// KindOf returns the kind of err, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
