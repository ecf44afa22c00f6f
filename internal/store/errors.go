package store

import "errors"

var (
	// ErrNotFound is returned when a work item, policy version, or user
	// does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrVersionConflict is returned when a decision carries a stale
	// expected version.
	ErrVersionConflict = errors.New("store: version conflict")

	// ErrAlreadyProcessed is returned when a decision targets an item
	// whose status is terminal.
	ErrAlreadyProcessed = errors.New("store: already processed")

	// ErrLifecycleConflict is returned when a policy version transition
	// is attempted from the wrong lifecycle state.
	ErrLifecycleConflict = errors.New("store: lifecycle conflict")
)
