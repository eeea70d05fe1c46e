package audit

import (
	"fmt"
	"time"
)

// Result represents the outcome of an audited action.
type Result string

const (
	ResultSuccess Result = "success"
	ResultFailure Result = "failure"
	ResultError   Result = "error"
)

// Actions recorded by authkit.
const (
	ActionRoleCreated       = "role.created"
	ActionRoleUpdated       = "role.updated"
	ActionRoleDeleted       = "role.deleted"
	ActionPrincipalRolesSet = "principal.roles_set"
	ActionCSRFRejected      = "csrf.rejected"
	ActionCSRFRateLimited   = "csrf.rate_limited"
)

// Event represents a single audit log entry.
type Event struct {
	ID             string         `json:"id"`
	OrganizationID string         `json:"organization_id,omitempty"`
	ActorID        string         `json:"actor_id,omitempty"`
	Action         string         `json:"action"`
	Resource       string         `json:"resource,omitempty"`
	ResourceID     string         `json:"resource_id,omitempty"`
	Result         Result         `json:"result"`
	Error          string         `json:"error,omitempty"`
	RequestID      string         `json:"request_id,omitempty"`
	IP             string         `json:"ip,omitempty"`
	UserAgent      string         `json:"user_agent,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	Hash           string         `json:"hash,omitempty"`
}

// Validate checks if the event has all required fields.
func (e *Event) Validate() error {
	if e.Action == "" {
		return fmt.Errorf("%w: action is required", ErrEventValidation)
	}
	if e.Result == "" {
		return fmt.Errorf("%w: result is required", ErrEventValidation)
	}
	return nil
}

// EventOption applies configuration to an Event during creation.
type EventOption func(*Event)

// WithResource sets the resource type and ID.
func WithResource(resource, id string) EventOption {
	return func(e *Event) {
		e.Resource = resource
		e.ResourceID = id
	}
}

// WithMetadata adds metadata to the event.
func WithMetadata(key string, value any) EventOption {
	return func(e *Event) {
		if e.Metadata == nil {
			e.Metadata = make(map[string]any)
		}
		e.Metadata[key] = value
	}
}

// WithResult overrides the event result.
func WithResult(result Result) EventOption {
	return func(e *Event) {
		e.Result = result
	}
}

// WithActor sets the actor explicitly, taking precedence over the extractor.
func WithActor(id string) EventOption {
	return func(e *Event) {
		if id != "" {
			e.ActorID = id
		}
	}
}

// WithOrganization sets the organization scope explicitly.
func WithOrganization(id string) EventOption {
	return func(e *Event) {
		if id != "" {
			e.OrganizationID = id
		}
	}
}

// WithIP sets the client address explicitly.
func WithIP(ip string) EventOption {
	return func(e *Event) {
		if ip != "" {
			e.IP = ip
		}
	}
}
