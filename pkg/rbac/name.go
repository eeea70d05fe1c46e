package rbac

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// MaxDescriptionLength is the maximum number of characters of a role
// description.
const MaxDescriptionLength = 500

// roleNamePattern is the only definition of a valid role name.
var roleNamePattern = regexp.MustCompile(`^ROLE_[A-Z][A-Z0-9_]+$`)

// IsValidRoleName reports whether name is ROLE_ followed by an uppercase
// letter and at least one more uppercase letter, digit or underscore.
func IsValidRoleName(name string) bool {
	return roleNamePattern.MatchString(name)
}

// ValidateRoleName returns a *ValidationError for malformed names.
func ValidateRoleName(name string) error {
	if !IsValidRoleName(name) {
		return newValidationError("name",
			"must start with ROLE_ followed by at least two uppercase letters, digits or underscores",
			ErrInvalidRoleName)
	}
	return nil
}

func validateDescription(description string) error {
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return newValidationError("description",
			fmt.Sprintf("must be at most %d characters", MaxDescriptionLength),
			ErrDescriptionTooLong)
	}
	return nil
}
