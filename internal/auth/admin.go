package auth

import (
	"crypto/subtle"
	"net/http"

	"ms-events/internal/logger"
	"ms-events/internal/utils"
)

const adminTokenHeader = "x-admin-token"

// AdminOnly gates admin routes behind a shared token carried in the
// x-admin-token header. With no token configured the service fails closed:
// every admin request gets an opaque 500.
func AdminOnly(token string) func(http.Handler) http.Handler {
	log := logger.NewLogger()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				log.LogSecurity("ADMIN_AUTH", "ADMIN_TOKEN is not configured, refusing admin request")
				utils.WriteServerError(w)
				return
			}

			provided := r.Header.Get(adminTokenHeader)
			if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
				log.LogSecurity("ADMIN_AUTH", "rejected admin request from "+r.RemoteAddr)
				utils.WriteError(w, http.StatusUnauthorized, "Invalid admin token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
