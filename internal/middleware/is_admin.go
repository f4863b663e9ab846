package middleware

import (
	"net/http"

	"meetings/boardroom/internal/auth"
	"meetings/boardroom/internal/common"
)

func IsAdminMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, _ := auth.PrincipalFrom(r.Context())
			if !p.IsAdmin {
				common.RespondPermissionDenied(w, "admin")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
