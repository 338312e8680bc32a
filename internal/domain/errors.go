package domain

import (
	"errors"
	"fmt"
)

// Kind classifies an operation failure so callers can map it to a
// response without matching on message text.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalid
	KindConflict // business-rule violation, never retried
	KindNotFound
	KindUnauthorized
	KindDependency // external collaborator failed, nothing committed
)

// Error is the failure type returned by the application services.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error with the same kind and message, so the
// predefined errors below survive wrapping with fmt.Errorf.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Msg == t.Msg
}

// KindOf extracts the kind from err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func Invalidf(format string, args ...any) *Error {
	return &Error{Kind: KindInvalid, Msg: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

// Dependencyf wraps an external collaborator failure.
func Dependencyf(err error, format string, args ...any) *Error {
	return &Error{Kind: KindDependency, Msg: fmt.Sprintf(format, args...), Err: err}
}

var (
	ErrOngoingTransaction  = &Error{Kind: KindConflict, Msg: "there is already an ongoing transaction"}
	ErrTooCloseToEventDate = &Error{Kind: KindConflict, Msg: "cannot create order within 2 days before event date"}
	ErrAlreadyCancelled    = &Error{Kind: KindConflict, Msg: "purchase is already cancelled"}
	ErrAlreadyDelivered    = &Error{Kind: KindConflict, Msg: "purchase is already delivered"}
	ErrAlreadyConfirmed    = &Error{Kind: KindConflict, Msg: "purchase is already confirmed"}
	ErrCancelAfterEvent    = &Error{Kind: KindConflict, Msg: "cannot cancel purchase after event date"}
	ErrCancelDuringPrep    = &Error{Kind: KindConflict, Msg: "cannot cancel purchase during preparation period"}
	ErrConfirmCancelled    = &Error{Kind: KindConflict, Msg: "cannot confirm cancelled purchase"}
	ErrNotPaid             = &Error{Kind: KindConflict, Msg: "transaction for this purchase has not been paid yet"}
	ErrNoTransaction       = &Error{Kind: KindConflict, Msg: "no transaction found for this purchase"}
	ErrIllegalTransition   = &Error{Kind: KindConflict, Msg: "illegal status transition"}
	ErrPurchaseNotFound    = &Error{Kind: KindNotFound, Msg: "purchase not found"}
	ErrTransactionNotFound = &Error{Kind: KindNotFound, Msg: "transaction not found"}
	ErrCartItemNotFound    = &Error{Kind: KindNotFound, Msg: "cart item not found"}
	ErrUnauthorized        = &Error{Kind: KindUnauthorized, Msg: "you are not authorized to perform this operation"}
	ErrAdminOnly           = &Error{Kind: KindUnauthorized, Msg: "administrator privileges required"}
	ErrIdentityRequired    = &Error{Kind: KindUnauthorized, Msg: "authentication required"}
	ErrInvalidSignature    = &Error{Kind: KindUnauthorized, Msg: "invalid notification signature"}
	ErrInvalidStatus       = &Error{Kind: KindInvalid, Msg: "invalid status"}
	ErrInvalidQuantity     = &Error{Kind: KindInvalid, Msg: "quantity must be positive"}
	ErrInvalidID           = &Error{Kind: KindInvalid, Msg: "invalid id"}
	ErrEmptyOrder          = &Error{Kind: KindInvalid, Msg: "order must contain at least one item"}
)

// ClosedDateConflict reports the blocked inclusive range.
func ClosedDateConflict(start, end string) *Error {
	return Conflictf("cannot create purchase on a closed date: %s ~ %s", start, end)
}
