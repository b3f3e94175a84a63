package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/sealdesk/sealdesk/internal/token"
)

const (
	userIDKey    contextKey = "user_id"
	accountIDKey contextKey = "account_id"
)

// Authenticate validates the Bearer token on every request and stores the
// caller's user and account IDs on the context. Requests without a valid
// token are rejected before reaching any handler.
func Authenticate(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				unauthorized(w)
				return
			}

			claims, err := token.Parse(raw, secret)
			if err != nil {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.Subject)
			ctx = context.WithValue(ctx, accountIDKey, claims.AccountID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"invalid or missing token"}`))
}

// GetUserID retrieves the authenticated user ID stored by Authenticate.
func GetUserID(ctx context.Context) string {
	v, _ := ctx.Value(userIDKey).(string)
	return v
}

// GetAccountID retrieves the authenticated account ID stored by Authenticate.
func GetAccountID(ctx context.Context) string {
	v, _ := ctx.Value(accountIDKey).(string)
	return v
}
