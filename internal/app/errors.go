package app

import (
	"errors"
	"fmt"
	"net/http"

	"verdict/api/internal/lock"
	"verdict/api/internal/policy"
	"verdict/api/internal/store"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

// conflictError translates the concurrency sentinels into the wire
// taxonomy. A held lock names its owner so the client can surface who
// to wait for; a version conflict tells the client to reload.
func conflictError(err error) *DomainError {
	var held *lock.HeldError
	if errors.As(err, &held) {
		return domainError(http.StatusConflict, "LOCK_CONFLICT",
			fmt.Sprintf("item is locked by %s", held.OwnerName),
			map[string]any{
				"ownerId":   held.OwnerID,
				"ownerName": held.OwnerName,
				"expiresAt": held.ExpiresAt,
			})
	}
	switch {
	case errors.Is(err, store.ErrAlreadyProcessed):
		return domainError(http.StatusConflict, "ALREADY_PROCESSED",
			"item has already received a final decision", nil)
	case errors.Is(err, store.ErrVersionConflict):
		return domainError(http.StatusConflict, "VERSION_CONFLICT",
			"item changed since it was loaded, reload and retry", nil)
	case errors.Is(err, store.ErrLifecycleConflict):
		return domainError(http.StatusConflict, "LIFECYCLE_CONFLICT",
			"version is not in a state that allows this transition", nil)
	case errors.Is(err, store.ErrNotFound):
		return domainError(http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	case errors.Is(err, policy.ErrReasonRequired):
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR",
			"a reason is required", nil)
	}
	return nil
}
