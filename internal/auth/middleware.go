package auth

import (
	"context"
	"net/http"
	"strings"

	"fanpass/internal/utils"
)

type contextKey string

const userIDKey contextKey = "userID"

// Middleware rejects requests without a valid Bearer token and stores the
// authenticated user id in the request context.
func Middleware(issuer *TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				utils.WriteError(w, http.StatusUnauthorized, "Unauthorized", "missing or malformed authorization header")
				return
			}

			userID, err := issuer.Verify(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				utils.WriteError(w, http.StatusUnauthorized, "Unauthorized", err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID returns the authenticated user id stored by Middleware.
func UserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok
}
