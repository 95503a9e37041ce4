package services

import (
	"strings"

	"harvestiq/internal/apperrors"
	"harvestiq/internal/models"
)

// Requirement describes who may perform an operation: one of Roles, and, when
// OwnerEmail is set, non-admin actors must be that owner.
type Requirement struct {
	Roles      []models.Role
	OwnerEmail string
}

// Authorize is the single capability check consulted by every core operation and
// by the route middleware.
func Authorize(actor models.Actor, req Requirement) error {
	if actor.Anonymous() {
		return apperrors.Authorization("login required")
	}
	allowed := len(req.Roles) == 0
	for _, role := range req.Roles {
		if actor.Role == role {
			allowed = true
			break
		}
	}
	if !allowed {
		return apperrors.Authorization("role %s may not perform this action", actor.Role)
	}
	if req.OwnerEmail != "" && actor.Role != models.RoleAdmin && !strings.EqualFold(actor.Email, req.OwnerEmail) {
		return apperrors.Authorization("%s does not own this listing", actor.Email)
	}
	return nil
}

// Roles is shorthand for a Requirement without an ownership check.
func Roles(roles ...models.Role) Requirement {
	return Requirement{Roles: roles}
}
