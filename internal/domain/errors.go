package domain

import "errors"

var (
	// ErrDuplicateEmail is returned when a registration reuses an email
	// already held by another user.
	ErrDuplicateEmail = errors.New("email already exists")

	// ErrTaskNotFound is returned when an update targets a task id that is
	// not in the collection. Deletes never return it; they are no-ops.
	ErrTaskNotFound = errors.New("task not found")

	// ErrInvalidCredentials is returned by login when no user matches the
	// supplied email and password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrUnknownAssignee is returned when a new task references a user id
	// that does not exist.
	ErrUnknownAssignee = errors.New("assignee does not exist")

	// ErrValidation is wrapped around field-level validation failures.
	ErrValidation = errors.New("validation error")
)
