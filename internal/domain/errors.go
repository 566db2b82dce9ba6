// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a concurrent modification conflict (optimistic locking).
var ErrConflict = errors.New("conflict: resource was modified by another request")

// ErrValidation indicates the request payload failed validation.
var ErrValidation = errors.New("validation failed")

// ErrInvalidState indicates the operation is not legal for the entity's
// current status (e.g. messaging a closed consultation, pausing an
// already-paused agent).
var ErrInvalidState = errors.New("invalid state for operation")

// ErrDuplicate indicates an entity with the same identity already exists
// (e.g. re-joining a task force).
var ErrDuplicate = errors.New("already exists")

// ErrNotMember indicates the agent is not a member of the task force it is
// acting on.
var ErrNotMember = errors.New("agent is not a member of the task force")
