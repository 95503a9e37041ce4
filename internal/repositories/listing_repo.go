package repositories

import (
	"harvestiq/internal/models"
)

// quantityEpsilon absorbs float residue when stock is drawn down to zero.
const quantityEpsilon = 1e-9

// ListingRepository defines the interface for listing data access.
type ListingRepository interface {
	GetAll() ([]models.Listing, error)
	GetByOwner(email string) ([]models.Listing, error)
	GetByStatus(status models.ListingStatus) ([]models.Listing, error)
	GetByID(id uint) (*models.Listing, error)
	// Search returns approved listings matching q, newest first.
	Search(q models.ListingQuery) ([]models.Listing, error)
	Categories() ([]string, error)
	Create(listing *models.Listing) error
	// UpdateStatus moves a listing from one status to another. It fails with
	// ErrInvalidState if the stored status is no longer from.
	UpdateStatus(id uint, from, to models.ListingStatus) error
	// AdjustQuantity adds delta to the stored quantity as one atomic step. A result
	// below zero fails with ErrInsufficientStock and changes nothing. Reaching zero
	// from Approved flips the listing to SoldOut.
	AdjustQuantity(id uint, delta float64) (*models.Listing, error)
	Delete(id uint) error
}
