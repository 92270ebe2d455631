package dto

import (
	"strings"
	"time"

	"github.com/hugh/cardboard/internal/database/models"
	"github.com/hugh/cardboard/internal/validation"
)

type CreateUserRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
}

// Validate checks shape only. The password policy and email uniqueness are
// enforced by the auth service.
func (r CreateUserRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if strings.TrimSpace(r.FirstName) == "" {
		errors["firstName"] = "First name is required"
	} else if !validation.IsWithinLength(r.FirstName, validation.MaxNameLength) {
		errors["firstName"] = "First name is too long"
	}
	if strings.TrimSpace(r.LastName) == "" {
		errors["lastName"] = "Last name is required"
	} else if !validation.IsWithinLength(r.LastName, validation.MaxNameLength) {
		errors["lastName"] = "Last name is too long"
	}
	if strings.TrimSpace(r.Email) == "" {
		errors["email"] = "Email is required"
	} else if !validation.IsValidEmail(strings.TrimSpace(r.Email)) {
		errors["email"] = "Invalid email format"
	}
	if r.Password == "" {
		errors["password"] = "Password is required"
	}
	if r.Role != "" {
		if _, ok := models.ParseRole(r.Role); !ok {
			errors["role"] = "Invalid role. Must be one of: Member, Admin"
		}
	}

	return errors
}

// ParsedRole returns the requested role, Member when none was given.
func (r CreateUserRequest) ParsedRole() models.Role {
	if role, ok := models.ParseRole(r.Role); ok {
		return role
	}
	return models.RoleMember
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Email == "" {
		errors["email"] = "Email is required"
	}
	if r.Password == "" {
		errors["password"] = "Password is required"
	}

	return errors
}

type UserResponse struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt"`
}

func UserToResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID.String(),
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// UserSummary is the owner embedded in a card.
type UserSummary struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

func UserToSummary(u *models.User) *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{
		ID:        u.ID.String(),
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
	}
}
