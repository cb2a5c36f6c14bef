package models

import (
	"fmt"
	"strings"
)

// ValidationError rejects a malformed fact before any store is touched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// OwnershipError rejects an operation whose user id is missing,
// malformed, or does not match the document it touches. Always fatal to
// the single operation.
type OwnershipError struct {
	UserID string
	Reason string
}

func (e *OwnershipError) Error() string {
	return fmt.Sprintf("ownership check failed for user %q: %s", e.UserID, e.Reason)
}

// StoreUnavailableError wraps a failure or timeout of one backing store.
type StoreUnavailableError struct {
	Store StorageTarget
	Err   error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("store %s unavailable: %v", e.Store, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }

// PartialWriteError reports that the ordered multi-store commit stopped
// partway: some stores hold the fact, the rest never will until the
// caller retries. No rollback of the committed stores is attempted.
type PartialWriteError struct {
	FactID    string
	Succeeded []StorageTarget
	Failed    []StorageTarget
	Cause     error
}

func (e *PartialWriteError) Error() string {
	var ok, bad []string
	for _, t := range e.Succeeded {
		ok = append(ok, string(t))
	}
	for _, t := range e.Failed {
		bad = append(bad, string(t))
	}
	return fmt.Sprintf("partial write for fact %s: committed=[%s] failed=[%s]: %v",
		e.FactID, strings.Join(ok, ","), strings.Join(bad, ","), e.Cause)
}

func (e *PartialWriteError) Unwrap() error { return e.Cause }
