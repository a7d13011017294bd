package changelog

import (
	"fmt"
	"net/http"
)

// ValidationError represents a malformed request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NotFoundError is returned when a delete targets a version that is not in
// the changelog.
type NotFoundError struct {
	Version string
}

func (e NotFoundError) Error() string {
	return "version not found"
}

// StoreReadError is a failed load. Status is the backend's status code, or 0
// when the backend has none.
type StoreReadError struct {
	Status int
	Body   string
}

func (e *StoreReadError) Error() string {
	if e.Status == 0 {
		return "store read failed: " + e.Body
	}
	return fmt.Sprintf("store read failed: %d %s", e.Status, e.Body)
}

// StoreWriteError is a failed save, including a rejected concurrency token.
type StoreWriteError struct {
	Status int
	Body   string
}

func (e *StoreWriteError) Error() string {
	if e.Status == 0 {
		return "store write failed: " + e.Body
	}
	return fmt.Sprintf("store write failed: %d %s", e.Status, e.Body)
}

// Conflict reports whether the write lost a race with another writer.
func (e *StoreWriteError) Conflict() bool {
	switch e.Status {
	case http.StatusConflict, http.StatusPreconditionFailed, http.StatusUnprocessableEntity:
		return true
	}
	return false
}
