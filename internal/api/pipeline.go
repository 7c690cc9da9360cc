/**
 * @description
 * Request pipeline for protected routes. A pipeline is an ordered list of
 * steps; each step either refines the request (for example by attaching
 * the authenticated principal) or rejects it. The handler only runs once
 * every step has passed.
 */
package api

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/assetverse/asset-service/internal/app"
	"github.com/assetverse/asset-service/internal/domain"
)

type contextKey string

const (
	principalContextKey contextKey = "principal"
	roleContextKey      contextKey = "role"
)

// TokenVerifier turns a bearer token into a principal email.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// RoleAuthorizer decides whether a principal holds one of the allowed roles.
type RoleAuthorizer interface {
	Authorize(ctx context.Context, principal string, allowed ...domain.Role) (domain.Role, error)
}

// Step validates a request and returns it, possibly with a refined context.
type Step func(r *http.Request) (*http.Request, error)

// Pipeline composes steps into chi middleware. The first rejecting step
// ends the request.
func Pipeline(steps ...Step) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var err error
			for _, step := range steps {
				if r, err = step(r); err != nil {
					respondWithError(w, r, err)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Authenticate requires a valid bearer token and attaches its principal.
func Authenticate(verifier TokenVerifier) Step {
	return func(r *http.Request) (*http.Request, error) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			return r, app.ErrUnauthorized
		}

		principal, err := verifier.Verify(r.Context(), token)
		if err != nil {
			log.Printf("level=info component=auth msg=\"token rejected\" path=%s err=%v", r.URL.Path, err)
			return r, app.ErrUnauthorized
		}

		ctx := context.WithValue(r.Context(), principalContextKey, principal)
		return r.WithContext(ctx), nil
	}
}

// RequireRole admits authenticated principals holding one of roles and
// attaches the resolved role.
func RequireRole(authorizer RoleAuthorizer, roles ...domain.Role) Step {
	return func(r *http.Request) (*http.Request, error) {
		principal, ok := PrincipalFromContext(r.Context())
		if !ok {
			return r, app.ErrUnauthorized
		}

		role, err := authorizer.Authorize(r.Context(), principal, roles...)
		if err != nil {
			return r, err
		}

		ctx := context.WithValue(r.Context(), roleContextKey, role)
		return r.WithContext(ctx), nil
	}
}

func bearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}

	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}

// PrincipalFromContext returns the authenticated principal email.
func PrincipalFromContext(ctx context.Context) (string, bool) {
	principal, ok := ctx.Value(principalContextKey).(string)
	return principal, ok && principal != ""
}

// RoleFromContext returns the role resolved by RequireRole.
func RoleFromContext(ctx context.Context) (domain.Role, bool) {
	role, ok := ctx.Value(roleContextKey).(domain.Role)
	return role, ok
}
