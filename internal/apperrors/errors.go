package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across services and handlers. Handlers map these to
// HTTP statuses in one place; services never construct HTTP errors directly.
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrAlreadyExists    = errors.New("already exists")
	ErrDuplicateRequest = errors.New("a pending request already exists between these users")
	ErrAlreadyFriends   = errors.New("users are already friends")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrInvalidInput     = errors.New("invalid input")
	ErrStale            = errors.New("referenced document is no longer valid")
)

// PartialError reports a dual-write where one side committed and the other
// did not. It is a distinct outcome, never to be collapsed into plain
// success or plain failure.
type PartialError struct {
	Op       string // "accept", "remove", "repair"
	DoneID   string // profile whose update committed
	FailedID string // profile whose update did not
	Cause    error
	Repaired bool // a corrective pass later made both sides agree
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("%s partially applied: %s updated, %s not (repaired=%t): %v",
		e.Op, e.DoneID, e.FailedID, e.Repaired, e.Cause)
}

func (e *PartialError) Unwrap() error { return e.Cause }

// IsPartial reports whether err is (or wraps) a PartialError.
func IsPartial(err error) bool {
	var pe *PartialError
	return errors.As(err, &pe)
}
