package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// FilterAction is applied to a matched metadata field.
type FilterAction string

const (
	FilterActionRemove FilterAction = "remove"
	FilterActionHash   FilterAction = "hash"
	FilterActionMask   FilterAction = "mask"
)

// Metadata keys removed or obscured by default. Patterns may start and/or
// end with '*'.
var defaultSensitiveFields = map[string]FilterAction{
	"token":         FilterActionRemove,
	"csrf_token":    FilterActionRemove,
	"*_token":       FilterActionRemove,
	"api_key":       FilterActionRemove,
	"apikey":        FilterActionRemove,
	"x_api_key":     FilterActionRemove,
	"cookie":        FilterActionRemove,
	"authorization": FilterActionRemove,
	"*secret*":      FilterActionRemove,
	"*password*":    FilterActionRemove,
	"private_key":   FilterActionRemove,
	"email":         FilterActionHash,
	"phone":         FilterActionMask,
	"user_agent":    FilterActionMask,
}

// MetadataFilter strips credentials and personal data from event metadata
// before it reaches storage. Keys are matched case-insensitively.
type MetadataFilter struct {
	custom   map[string]FilterAction
	allowed  map[string]bool
	defaults bool
}

type FilterOption func(*MetadataFilter)

// WithFilteredField adds or overrides a rule. field may be a pattern.
func WithFilteredField(field string, action FilterAction) FilterOption {
	return func(f *MetadataFilter) {
		f.custom[strings.ToLower(field)] = action
	}
}

// WithAllowedField lets field through untouched, even if a default rule
// matches it.
func WithAllowedField(field string) FilterOption {
	return func(f *MetadataFilter) {
		f.allowed[strings.ToLower(field)] = true
	}
}

// WithoutDefaultRules keeps only rules added with WithFilteredField.
func WithoutDefaultRules() FilterOption {
	return func(f *MetadataFilter) {
		f.defaults = false
	}
}

func NewMetadataFilter(opts ...FilterOption) *MetadataFilter {
	f := &MetadataFilter{
		custom:   make(map[string]FilterAction),
		allowed:  make(map[string]bool),
		defaults: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Filter returns a filtered copy of metadata. The input is not modified.
func (f *MetadataFilter) Filter(metadata map[string]any) map[string]any {
	if metadata == nil {
		return nil
	}

	out := make(map[string]any, len(metadata))
	for key, value := range metadata {
		lower := strings.ToLower(key)
		if f.allowed[lower] {
			out[key] = value
			continue
		}

		action, ok := lookupRule(lower, f.custom)
		if !ok && f.defaults {
			action, ok = lookupRule(lower, defaultSensitiveFields)
		}
		if !ok {
			out[key] = value
			continue
		}

		switch action {
		case FilterActionRemove:
		case FilterActionHash:
			out[key] = hashValue(value)
		case FilterActionMask:
			out[key] = maskValue(value)
		default:
			out[key] = value
		}
	}
	return out
}

func lookupRule(key string, rules map[string]FilterAction) (FilterAction, bool) {
	if action, ok := rules[key]; ok {
		return action, true
	}
	for pattern, action := range rules {
		if strings.Contains(pattern, "*") && matchesPattern(key, pattern) {
			return action, true
		}
	}
	return "", false
}

func matchesPattern(key, pattern string) bool {
	prefix := strings.HasPrefix(pattern, "*")
	suffix := strings.HasSuffix(pattern, "*")
	core := strings.Trim(pattern, "*")
	switch {
	case core == "":
		return true
	case prefix && suffix:
		return strings.Contains(key, core)
	case prefix:
		return strings.HasSuffix(key, core)
	case suffix:
		return strings.HasPrefix(key, core)
	default:
		return key == core
	}
}

func hashValue(value any) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%v", value))
	return hex.EncodeToString(sum[:])
}

// maskValue keeps the first and last characters of longer values.
func maskValue(value any) string {
	s := []rune(fmt.Sprintf("%v", value))
	n := len(s)
	switch {
	case n <= 4:
		return strings.Repeat("*", n)
	case n <= 8:
		return string(s[0]) + strings.Repeat("*", n-2) + string(s[n-1])
	default:
		return string(s[:2]) + strings.Repeat("*", n-4) + string(s[n-2:])
	}
}
