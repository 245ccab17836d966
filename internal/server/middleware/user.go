package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// UserHeader carries the authenticated user's ID. Authentication happens in
// front of this service.
const UserHeader = "X-User-ID"

type userKey struct{}

// User resolves the caller's user ID from UserHeader, falling back to
// defaultUser, and stores it in the request context.
func User(defaultUser string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			userID := strings.TrimSpace(req.Header.Get(UserHeader))
			if userID == "" {
				userID = defaultUser
			}

			ctx := context.WithValue(req.Context(), userKey{}, userID)
			zerolog.Ctx(ctx).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("user", userID)
			})

			next.ServeHTTP(w, req.WithContext(ctx))
		})
	}
}

// UserID returns the user stored by User, or "" outside a request.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userKey{}).(string)
	return id
}
