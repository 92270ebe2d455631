package auth

import (
	"github.com/google/uuid"
	"github.com/hugh/cardboard/internal/apperr"
	"github.com/hugh/cardboard/internal/database/models"
)

// Caller is the identity behind the current request, taken from a token
// whose signature has already been verified.
type Caller struct {
	ID    uuid.UUID
	Role  models.Role
	Name  string
	Email string
}

func (c Caller) IsAdmin() bool {
	return c.Role == models.RoleAdmin
}

// CallerFromClaims types the sub and role claims. Both are required.
func CallerFromClaims(claims *Claims) (Caller, error) {
	if claims == nil {
		return Caller{}, apperr.Unauthenticated("Missing token claims")
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil || id == uuid.Nil {
		return Caller{}, apperr.Unauthenticated("Token subject is missing or malformed")
	}

	role, ok := models.ParseRole(claims.Role)
	if !ok {
		return Caller{}, apperr.Unauthenticated("Token role is missing or unknown")
	}

	return Caller{
		ID:    id,
		Role:  role,
		Name:  claims.Name,
		Email: claims.Email,
	}, nil
}
