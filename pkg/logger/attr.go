package logger

import (
	"log/slog"

	"github.com/google/uuid"
)

// Error stores err under "error". Nil errors produce an empty attribute.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component names the emitting package, e.g. "rbac" or "csrf".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Event names a domain event such as "role.created".
func Event(name string) slog.Attr {
	return slog.String("event", name)
}

// RoleID records a role identifier.
func RoleID(id uuid.UUID) slog.Attr {
	return slog.String("role_id", id.String())
}

// RoleName records a role name.
func RoleName(name string) slog.Attr {
	return slog.String("role", name)
}

// PrincipalID records the principal a decision or mutation applies to.
func PrincipalID(id uuid.UUID) slog.Attr {
	return slog.String("principal_id", id.String())
}

// ActorID records the principal performing a mutation.
func ActorID(id uuid.UUID) slog.Attr {
	return slog.String("actor_id", id.String())
}

// OrganizationID records an organization scope. Nil means platform-wide and
// yields an empty attribute.
func OrganizationID(id *uuid.UUID) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.String("organization_id", id.String())
}

// ClientIP records the resolved client address.
func ClientIP(ip string) slog.Attr {
	if ip == "" {
		return slog.Attr{}
	}
	return slog.String("client_ip", ip)
}

// Path records a request path.
func Path(p string) slog.Attr {
	return slog.String("path", p)
}

// Method records a request method.
func Method(m string) slog.Attr {
	return slog.String("method", m)
}

// Count records a counter value under "count".
func Count(n int) slog.Attr {
	return slog.Int("count", n)
}
