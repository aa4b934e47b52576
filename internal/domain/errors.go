package domain

import "errors"

// Sentinel errors for the application. Transport layers map these to HTTP
// statuses or wire error events; services wrap them with context via %w.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrConflict     = errors.New("resource already exists")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")

	// Messaging taxonomy.
	ErrAuthRejected  = errors.New("credential rejected")
	ErrEmptyMessage  = errors.New("message requires text or an attachment")
	ErrChatNotFound  = errors.New("chat does not exist")
	ErrGroupNotFound = errors.New("group does not exist")
	ErrNotAMember    = errors.New("not a member of this group")

	// ErrStoreUnavailable marks transient store failures. The engine never
	// retries internally; the client may resubmit the same intent.
	ErrStoreUnavailable = errors.New("message store unavailable")
)

// Terminal reports whether err is a validation failure that a resubmission
// of the same intent cannot fix.
func Terminal(err error) bool {
	return errors.Is(err, ErrEmptyMessage) ||
		errors.Is(err, ErrChatNotFound) ||
		errors.Is(err, ErrGroupNotFound) ||
		errors.Is(err, ErrNotAMember) ||
		errors.Is(err, ErrInvalidInput)
}
