// Package errs provides the engine's typed error kinds.
//
// An *Error carries a machine-readable Kind plus an internal message and an
// optional cause. errors.Is matches on Kind, so callers can test
// errors.Is(err, errs.CombinationFailed) without caring about the message.
package errs

import "errors"

// Kind is a machine-readable error code.
type Kind string

const (
	KindUnknown            Kind = "UNKNOWN"
	KindCombinationFailed  Kind = "COMBINATION_FAILED"
	KindPuzzleUnavailable  Kind = "PUZZLE_UNAVAILABLE"
	KindStorageQuota       Kind = "STORAGE_QUOTA_EXCEEDED"
	KindPersistenceNetwork Kind = "PERSISTENCE_NETWORK"
	KindSlotSwitchFailed   Kind = "SLOT_SWITCH_FAILED"
	KindSessionMissing     Kind = "SESSION_MISSING"
	KindCoopDisconnect     Kind = "COOP_DISCONNECT"
	KindInvalidState       Kind = "INVALID_STATE"
	KindInvalidArgument    Kind = "INVALID_ARGUMENT"
	KindNotFound           Kind = "NOT_FOUND"
	KindBusy               Kind = "BUSY"
)

// Sentinels for errors.Is comparisons.
var (
	CombinationFailed  = New(KindCombinationFailed, "combination failed")
	PuzzleUnavailable  = New(KindPuzzleUnavailable, "puzzle unavailable")
	StorageQuota       = New(KindStorageQuota, "storage quota exceeded")
	PersistenceNetwork = New(KindPersistenceNetwork, "persistence network failure")
	SlotSwitchFailed   = New(KindSlotSwitchFailed, "slot switch failed")
	SessionMissing     = New(KindSessionMissing, "session missing")
	CoopDisconnect     = New(KindCoopDisconnect, "co-op partner disconnected")
	InvalidState       = New(KindInvalidState, "invalid state")
	InvalidArgument    = New(KindInvalidArgument, "invalid argument")
	NotFound           = New(KindNotFound, "not found")
	Busy               = New(KindBusy, "operation in progress")
)

// Error is the engine's domain error.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Cause }

// Is matches another *Error by kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// New creates an error of kind with message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error of kind wrapping cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
