package rbac

import (
	"encoding/json"
	"net/http"

	"github.com/dmitrymomot/authkit/pkg/logger"
)

// RequireRole returns middleware that lets a request through only when the
// principal in its context is granted roleName. Requests without a principal
// get 401 and principals lacking the role get 403.
func RequireRole(svc *Service, roleName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			p, ok := PrincipalFromContext(ctx)
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
				return
			}

			granted, err := svc.IsPrincipalGranted(ctx, p.ID, p.OrganizationID, roleName)
			if err != nil {
				svc.log.ErrorContext(ctx, "role check failed",
					logger.PrincipalID(p.ID),
					logger.RoleName(roleName),
					logger.Error(err),
				)
				writeError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
				return
			}
			if !granted {
				svc.log.WarnContext(ctx, "role check denied",
					logger.PrincipalID(p.ID),
					logger.RoleName(roleName),
					logger.Path(r.URL.Path),
				)
				writeError(w, http.StatusForbidden, "forbidden", "Insufficient role")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   code,
		"message": message,
	})
}
