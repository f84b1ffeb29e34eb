package middleware

import (
	"net/http"
	"strings"

	"biolink/internal/auth"

	"github.com/rs/zerolog"
)

// Authenticate resolves a Bearer token to an identity and stores it on the
// request context. Requests without a valid token continue as anonymous;
// operations that need an owner reject them downstream.
func Authenticate(keyMaterial string, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				logger.Debug().Msg("Ignoring malformed authorization header")
				next.ServeHTTP(w, r)
				return
			}
			claims, err := auth.ValidateJWT(strings.TrimSpace(parts[1]), keyMaterial)
			if err != nil {
				logger.Debug().Err(err).Msg("Ignoring invalid token")
				next.ServeHTTP(w, r)
				return
			}
			ctx := auth.WithIdentity(r.Context(), auth.Identity{UserID: claims.Subject, Email: claims.Email})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
