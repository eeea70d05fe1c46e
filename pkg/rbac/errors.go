package rbac

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("rbac.validation_failed")

	// ErrNotFound is matched when a referenced record does not exist.
	ErrNotFound = errors.New("rbac.not_found")

	// ErrRoleNotFound is returned for unknown role ids and names.
	ErrRoleNotFound = fmt.Errorf("%w: role", ErrNotFound)

	ErrInvalidRoleName    = errors.New("rbac.invalid_role_name")
	ErrDescriptionTooLong = errors.New("rbac.description_too_long")
	ErrDuplicateRoleName  = errors.New("rbac.duplicate_role_name")
	ErrParentNotFound     = errors.New("rbac.parent_not_found")
	ErrSelfParent         = errors.New("rbac.self_parent")
	ErrCircularHierarchy  = errors.New("rbac.circular_hierarchy")
	ErrSystemRole         = errors.New("rbac.system_role")
	ErrRoleHasMembers     = errors.New("rbac.role_has_members")
	ErrRoleHasChildren    = errors.New("rbac.role_has_children")
	ErrLastAdmin          = errors.New("rbac.last_admin")
	ErrSelfDemotion       = errors.New("rbac.self_demotion")

	ErrStoreRequired = errors.New("rbac.store_required")
)

// ValidationError reports a rejected mutation. It matches ErrValidation and
// the specific cause in Err.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func newValidationError(field, message string, err error) *ValidationError {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.Err}
}
