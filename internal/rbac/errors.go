package rbac

import "errors"

// Engine error taxonomy. All of these are terminal for the triggering
// request; callers map them to transport-level responses.
var (
	// ErrNotFound signals a missing role where one was expected.
	ErrNotFound = errors.New("role not found")

	// ErrConflict signals a slug collision on create or rename.
	ErrConflict = errors.New("role slug already in use")

	// ErrInvalidOperation signals an illegal mutation, such as deleting or
	// renaming a system role, or a generated slug too short to be usable.
	ErrInvalidOperation = errors.New("invalid role operation")

	// ErrInvalidPermission signals a grant referencing an unknown resource,
	// an unknown action, or an action not legal for that resource.
	ErrInvalidPermission = errors.New("invalid permission")

	// ErrForbidden signals a denied authorization decision.
	ErrForbidden = errors.New("forbidden")
)
