package middleware

import (
	"net/http"

	"meetings/boardroom/internal/auth"
	"meetings/boardroom/internal/common"
)

// IsStaffMiddleware lets staff and admins through.
func IsStaffMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, _ := auth.PrincipalFrom(r.Context())
			if p.IsStaff || p.IsAdmin {
				next.ServeHTTP(w, r)
				return
			}
			common.RespondPermissionDenied(w, "staff")
		})
	}
}
