package middleware

import (
	"context"
	"errors"
	"net/http"

	"meetings/boardroom/internal/auth"
	"meetings/boardroom/internal/common"
	"meetings/boardroom/internal/logging"
	"meetings/boardroom/internal/permissions"
)

// PrincipalResolver turns an Authorization header into a principal.
type PrincipalResolver interface {
	Resolve(ctx context.Context, header string) (permissions.Principal, error)
}

// AuthMiddleware rejects the request with 401 unless it carries a valid
// bearer token for an active user. The principal is stored on the context.
func AuthMiddleware(resolver PrincipalResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := resolver.Resolve(r.Context(), r.Header.Get("Authorization"))
			switch {
			case errors.Is(err, auth.ErrUnauthenticated):
				common.RespondError(w, http.StatusUnauthorized, "Unauthorized")
				return
			case err != nil:
				logging.Error("Failed to resolve principal", "request_id", RequestIDFrom(r.Context()), "error", err)
				common.RespondError(w, http.StatusInternalServerError, "Internal server error")
				return
			}

			ctx := auth.WithPrincipal(r.Context(), p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
