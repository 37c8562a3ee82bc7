package middleware

import (
	"net/http"

	"classservice/internal/ctxdata"
	"classservice/internal/identity"
)

// RequireRole gates a route group to the listed roles. The principal is
// expected in context, so this must run after the auth middleware.
func RequireRole(roles ...identity.Role) func(http.Handler) http.Handler {
	allowed := make(map[identity.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := ctxdata.GetUserRole(r.Context())
			if !ok {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			role := identity.Role(raw)
			switch role {
			case identity.RoleStudent, identity.RoleTutor, identity.RoleAdmin:
			default:
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			if _, ok := allowed[role]; !ok {
				w.WriteHeader(http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
