package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/diewo77/bookbuddy/httpx"
)

type ctxKey string

const userIDCtxKey = ctxKey("userID")

// UserVerifier is an optional callback to validate that a token's user still exists.
type UserVerifier func(ctx context.Context, uid uint) bool

// Authenticator turns bearer tokens into request context.
type Authenticator struct {
	Tokens *Tokens
	Verify UserVerifier
}

// NewAuthenticator creates an authenticator. verify may be nil.
func NewAuthenticator(tokens *Tokens, verify UserVerifier) *Authenticator {
	return &Authenticator{Tokens: tokens, Verify: verify}
}

// WithUserID stores user id in context.
func WithUserID(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, userIDCtxKey, userID)
}

// UserIDFromContext extracts user id.
func UserIDFromContext(ctx context.Context) (uint, bool) {
	v := ctx.Value(userIDCtxKey)
	if v == nil {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Middleware attaches the token's user id to the request context when a valid token is
// present. It never rejects; RequireAuth does.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw, ok := BearerToken(r); ok {
			if claims, err := a.Tokens.Parse(raw); err == nil {
				r = r.WithContext(WithUserID(r.Context(), claims.UserID))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth answers 401 unless the request carries a valid token for a user
// that still exists.
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UserIDFromContext(r.Context())
		if !ok {
			httpx.JSONError(w, http.StatusUnauthorized, "Authentication required", nil)
			return
		}
		if a.Verify != nil && !a.Verify(r.Context(), uid) {
			httpx.JSONError(w, http.StatusUnauthorized, "Invalid or expired token", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
