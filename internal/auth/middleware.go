package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mmcdole/lunastream/internal/domain"
)

type ctxKeyUsername struct{}

// UsernameFromContext returns the admin username set by RequireAdmin
func UsernameFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKeyUsername{}).(string)
	return v, ok
}

// WithUsername injects username into context
func WithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, ctxKeyUsername{}, username)
}

// BearerToken extracts the token of an "Authorization: Bearer <token>" header
func BearerToken(r *http.Request) (string, error) {
	authz := strings.TrimSpace(r.Header.Get("Authorization"))
	if authz == "" {
		return "", fmt.Errorf("%w: missing authorization header", domain.ErrUnauthorized)
	}
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", fmt.Errorf("%w: malformed authorization header", domain.ErrUnauthorized)
	}
	return strings.TrimSpace(parts[1]), nil
}

// RequireAdmin validates the Bearer token and injects the username into context.
// deny writes the rejection; nil selects a bare 401.
func RequireAdmin(issuer *Issuer, deny func(http.ResponseWriter, *http.Request, error)) func(next http.Handler) http.Handler {
	if deny == nil {
		deny = func(w http.ResponseWriter, _ *http.Request, _ error) {
			w.WriteHeader(http.StatusUnauthorized)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := BearerToken(r)
			if err != nil {
				deny(w, r, err)
				return
			}
			claims, err := issuer.Verify(token)
			if err != nil {
				deny(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUsername(r.Context(), claims.Username)))
		})
	}
}
