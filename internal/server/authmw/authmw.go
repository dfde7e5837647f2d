// Package authmw implements JWT bearer-token authentication for a Server
// role's administrative REST surface (rules CRUD, key rotation via CLI) —
// separate from the per-batch HMAC admission path in internal/server, which
// authenticates agents rather than operators.
package authmw

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
)

type contextKey int

const subjectKey contextKey = iota

// Claims is the minimal claim set an operator token carries.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Middleware validates a bearer JWT signed with secret and stores its
// subject in the request context.
type Middleware struct {
	secret []byte
}

// New builds a middleware that verifies tokens with the given HMAC secret.
func New(secret []byte) *Middleware {
	return &Middleware{secret: secret}
}

// Wrap returns an http.Handler that rejects requests without a valid bearer
// token before delegating to next.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(raw, "Bearer ")
		if !ok || token == "" {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}

		claims := &Claims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return m.secret, nil
		})
		if err != nil || !parsed.Valid {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), subjectKey, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Subject extracts the authenticated operator's subject from a request
// context populated by Wrap.
func Subject(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(subjectKey).(string)
	return v, ok
}
