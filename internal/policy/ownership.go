// Package policy decides whether a caller may act on a single owned record.
// List operations never call it; they narrow their candidate set by owner
// instead (see cards.ListQuery).
package policy

import (
	"github.com/google/uuid"
	"github.com/hugh/cardboard/internal/database/models"
)

type Operation string

const (
	OperationRead   Operation = "read"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

type Decision bool

const (
	Allow Decision = true
	Deny  Decision = false
)

// Authorize applies the ownership rule uniformly to every operation: Admin
// is always allowed, a Member only on records it owns. Create never consults
// it because a new record's owner is the caller.
func Authorize(callerID uuid.UUID, callerRole models.Role, ownerID uuid.UUID, _ Operation) Decision {
	if callerRole == models.RoleAdmin {
		return Allow
	}
	if callerRole == models.RoleMember && callerID != uuid.Nil && callerID == ownerID {
		return Allow
	}
	return Deny
}
