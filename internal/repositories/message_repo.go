package repositories

import (
	"harvestiq/internal/apperrors"
	"harvestiq/internal/models"
)

// MessageRepository defines the interface for conversation thread data access.
type MessageRepository interface {
	Create(msg *models.Message) error
	// GetByListing returns a listing's thread in the order it was written.
	GetByListing(listingID uint) ([]models.Message, error)
	// MarkRead sets viewer's read flag on every message in the thread not authored
	// by viewer and returns how many messages changed.
	MarkRead(listingID uint, viewer models.Role) (int64, error)
	CountUnread(listingID uint, viewer models.Role) (int, error)
	DeleteByListing(listingID uint) error
}

// readColumn maps a thread participant role to its read flag column.
func readColumn(role models.Role) (string, error) {
	switch role {
	case models.RoleFarmer:
		return "read_by_farmer", nil
	case models.RoleAdmin:
		return "read_by_admin", nil
	}
	return "", apperrors.Validation("role %q does not take part in listing threads", role)
}
