package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const callerContextKey contextKey = "caller"

// Caller names accepted by BearerAuth.
const (
	CallerCron  = "cron"
	CallerAdmin = "admin"
)

// Secret is one accepted bearer secret, stored as a bcrypt hash.
type Secret struct {
	Caller string
	Hash   string
}

// BearerAuth returns middleware that requires "Authorization: Bearer <secret>"
// matching one of secrets. Secrets with an empty hash are ignored; when none
// remain every request passes, which is how development runs without secrets.
// POST: on success the matching Caller is stored in the request context
func BearerAuth(secrets ...Secret) func(http.Handler) http.Handler {
	var active []Secret
	for _, s := range secrets {
		if s.Hash != "" {
			active = append(active, s)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(active) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			token := bearerToken(r)
			if token == "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="mentordesk"`)
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			for _, s := range active {
				if bcrypt.CompareHashAndPassword([]byte(s.Hash), []byte(token)) == nil {
					next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), callerContextKey, s.Caller)))
					return
				}
			}
			slog.Warn("bearer_rejected", "path", r.URL.Path, "ip", ClientIP(r))
			w.Header().Set("WWW-Authenticate", `Bearer realm="mentordesk", error="invalid_token"`)
			writeError(w, http.StatusUnauthorized, "Unauthorized")
		})
	}
}

// CallerFromContext returns the caller BearerAuth authenticated, if any.
func CallerFromContext(ctx context.Context) (string, bool) {
	c, ok := ctx.Value(callerContextKey).(string)
	return c, ok
}

// ContextWithCaller returns a context carrying caller.
// Intended for use in tests.
func ContextWithCaller(ctx context.Context, caller string) context.Context {
	return context.WithValue(ctx, callerContextKey, caller)
}

// HashSecret returns the bcrypt hash to configure for secret.
// PRE: secret is non-empty and at most 72 bytes
func HashSecret(secret string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
