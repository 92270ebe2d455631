package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/hugh/cardboard/internal/api/dto"
	"github.com/hugh/cardboard/internal/auth"
	"github.com/hugh/cardboard/internal/database/models"
)

type contextKey string

const CallerKey contextKey = "caller"

// TokenValidator is satisfied by *auth.JWTService.
type TokenValidator interface {
	ValidateToken(tokenString string) (*auth.Claims, error)
}

// Auth verifies the bearer token and stores the typed caller in the request
// context. Any failure answers 401.
func Auth(tokens TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeError(w, http.StatusUnauthorized, "Missing bearer token")
				return
			}
			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

			claims, err := tokens.ValidateToken(token)
			if err != nil {
				msg := "Invalid token"
				if errors.Is(err, auth.ErrExpiredToken) {
					msg = "Token has expired"
				}
				writeError(w, http.StatusUnauthorized, msg)
				return
			}

			caller, err := auth.CallerFromClaims(claims)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			recordCaller(r.Context(), caller.ID.String())
			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

func WithCaller(ctx context.Context, caller auth.Caller) context.Context {
	return context.WithValue(ctx, CallerKey, caller)
}

// GetCaller returns the authenticated caller, if any.
func GetCaller(ctx context.Context) (auth.Caller, bool) {
	caller, ok := ctx.Value(CallerKey).(auth.Caller)
	return caller, ok
}

// RequireRole middleware ensures user has specific role
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := GetCaller(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			for _, role := range roles {
				if caller.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeError(w, http.StatusForbidden, "Forbidden")
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(dto.ErrorResponse{Error: msg})
}
