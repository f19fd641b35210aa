package auth

import (
	"context"
	"net/http"
	"strings"
)

// SessionCookie carries the token for browser clients.
const SessionCookie = "bilancio_session"

// LocalUserID owns all data in the single-user modes.
const LocalUserID = "local"

type ctxKey string

const userIDKey ctxKey = "user_id"

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(userIDKey).(string)
	return uid, ok && uid != ""
}

// TokenFromRequest reads a bearer token, then the session cookie.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// Middleware resolves the session of each request. Requests without a valid
// session are passed to unauthorized.
func Middleware(tokens *Tokens, unauthorized http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := TokenFromRequest(r)
			if tok == "" {
				unauthorized(w, r)
				return
			}
			uid, err := tokens.Verify(tok)
			if err != nil {
				unauthorized(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), uid)))
		})
	}
}

// LocalMiddleware attributes every request to LocalUserID.
func LocalMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), LocalUserID)))
	})
}
