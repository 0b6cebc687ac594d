package middleware

import (
	"context"
	"net/http"
	"strings"

	"workshopflow/internal/apperr"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is the ambient "current user" read by the chat and membership handlers.
type Identity struct {
	UserID   string
	Email    string
	FullName string
	Role     string
	TokenID  string
}

// TokenValidator decouples this package from the user service.
type TokenValidator interface {
	ValidateToken(tokenString string) (Identity, error)
}

type AuthMiddleware struct {
	validator TokenValidator
}

func NewAuthMiddleware(v TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: v}
}

// Handle rejects requests without a valid bearer token and stores the
// caller's Identity in the request context.
func (am *AuthMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := BearerToken(r)
		if tokenString == "" {
			apperr.WriteError(w, apperr.Unauthorized("MISSING_TOKEN", "Missing authentication token"))
			return
		}

		id, err := am.validator.ValidateToken(tokenString)
		if err != nil {
			apperr.WriteError(w, apperr.Unauthorized("INVALID_TOKEN", "Invalid token"))
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// BearerToken reads the Authorization header, falling back to the token query param.
func BearerToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return r.URL.Query().Get("token")
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
