package models

import "strings"

type Role string

const (
	RoleMember Role = "Member"
	RoleAdmin  Role = "Admin"
)

// ParseRole matches a role name case-insensitively.
func ParseRole(s string) (Role, bool) {
	for _, r := range []Role{RoleMember, RoleAdmin} {
		if strings.EqualFold(s, string(r)) {
			return r, true
		}
	}
	return "", false
}

type User struct {
	Base
	FirstName    string `gorm:"not null" json:"first_name"`
	LastName     string `gorm:"not null" json:"last_name"`
	Email        string `gorm:"not null" json:"email"`
	EmailKey     string `gorm:"uniqueIndex;not null" json:"-"` // lowercased Email
	PasswordHash string `gorm:"not null" json:"-"`
	Role         Role   `gorm:"type:varchar(16);not null;default:'Member'" json:"role"`
}

func (User) TableName() string {
	return "users"
}

// FullName is the display name carried in the token's name claim.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// NormalizeEmail produces the key used for case-insensitive uniqueness.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
