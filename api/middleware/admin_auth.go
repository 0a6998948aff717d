package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/pixelvault/pixelvault-backend/api/responses"
	"github.com/pixelvault/pixelvault-backend/pkg/config"
	pkgerrors "github.com/pixelvault/pixelvault-backend/pkg/errors"
	"github.com/pixelvault/pixelvault-backend/pkg/logger"
	"github.com/pixelvault/pixelvault-backend/pkg/security"
)

const adminRealm = `Basic realm="admin", charset="UTF-8"`

// AdminBasicAuth guards the admin surface with HTTP basic credentials.
// The password is checked against the argon2id hash from configuration.
func AdminBasicAuth(cfg config.AdminConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, password, ok := r.BasicAuth()
			if !ok {
				unauthorized(w, r, logg, "credentials required")
				return
			}

			usernameMatch := subtle.ConstantTimeCompare([]byte(username), []byte(cfg.Username)) == 1

			passwordMatch, err := security.VerifyPassword(password, cfg.PasswordHash)
			if err != nil {
				ctx := r.Context()
				if logg != nil {
					logg.Error(ctx, "admin.password_check_failed", err)
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "credential check failed"))
				return
			}

			if !usernameMatch || !passwordMatch {
				unauthorized(w, r, logg, "invalid credentials")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter, r *http.Request, logg *logger.Logger, msg string) {
	w.Header().Set("WWW-Authenticate", adminRealm)
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, msg))
}
