package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common error conditions.
var (
	// ErrNotFound indicates that a requested entity was not found.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that the input data is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrForbidden indicates that the request is not allowed for the
	// authenticated actor.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict indicates that a concurrent modification was detected.
	// The caller may retry the operation.
	ErrConflict = errors.New("conflict")

	// ErrInvalidState indicates that the requested action is not valid in
	// the abstract's current status.
	ErrInvalidState = errors.New("invalid state")

	// ErrDependency indicates that a storage transaction aborted for
	// infrastructure reasons. Retryable.
	ErrDependency = errors.New("dependency failure")

	// ErrAlreadyExists indicates that an entity already exists.
	ErrAlreadyExists = errors.New("already exists")
)

// ValidationError represents a validation error for a specific field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NotFoundError provides details about a not found entity. Authorization
// failures on abstract access also present as NotFoundError so that
// existence is not leaked to callers who do not own the record.
type NotFoundError struct {
	Entity string
	ID     string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// ForbiddenError indicates an authenticated but unauthorized action.
type ForbiddenError struct {
	Action string
	Reason string
}

// Error implements the error interface.
func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("%s forbidden: %s", e.Action, e.Reason)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *ForbiddenError) Unwrap() error {
	return ErrForbidden
}

// ConflictError indicates an optimistic concurrency failure on an entity.
type ConflictError struct {
	Entity  string
	ID      string
	Version int
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s: concurrent modification at version %d", e.Entity, e.ID, e.Version)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// StateError indicates an action that is not valid in the current status.
type StateError struct {
	Action  string
	Status  AbstractStatus
	Message string
}

// Error implements the error interface.
func (e *StateError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("cannot %s in status %q: %s", e.Action, e.Status, e.Message)
	}
	return fmt.Sprintf("cannot %s in status %q", e.Action, e.Status)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *StateError) Unwrap() error {
	return ErrInvalidState
}

// DependencyError wraps an infrastructure failure from the storage layer.
type DependencyError struct {
	Op    string
	Cause error
}

// Error implements the error interface.
func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s: dependency failure: %v", e.Op, e.Cause)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *DependencyError) Unwrap() error {
	return ErrDependency
}

// AlreadyExistsError provides details about a duplicate entity.
type AlreadyExistsError struct {
	Entity string
	ID     string
}

// Error implements the error interface.
func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s already exists: %s", e.Entity, e.ID)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *AlreadyExistsError) Unwrap() error {
	return ErrAlreadyExists
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// NewForbiddenError creates a new ForbiddenError.
func NewForbiddenError(action, reason string) *ForbiddenError {
	return &ForbiddenError{Action: action, Reason: reason}
}

// NewConflictError creates a new ConflictError.
func NewConflictError(entity, id string, version int) *ConflictError {
	return &ConflictError{Entity: entity, ID: id, Version: version}
}

// NewStateError creates a new StateError.
func NewStateError(action string, status AbstractStatus, message string) *StateError {
	return &StateError{Action: action, Status: status, Message: message}
}

// NewDeadlinePassedError creates the StateError for resubmission after the
// revision deadline.
func NewDeadlinePassedError(deadline time.Time) *StateError {
	return &StateError{
		Action:  "resubmit",
		Status:  StatusRevisionRequested,
		Message: fmt.Sprintf("revision deadline %s has passed", deadline.Format(time.RFC3339)),
	}
}

// NewDependencyError creates a new DependencyError.
func NewDependencyError(op string, cause error) *DependencyError {
	return &DependencyError{Op: op, Cause: cause}
}

// NewAlreadyExistsError creates a new AlreadyExistsError.
func NewAlreadyExistsError(entity, id string) *AlreadyExistsError {
	return &AlreadyExistsError{Entity: entity, ID: id}
}
