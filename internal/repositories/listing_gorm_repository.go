package repositories

import (
	"errors"
	"fmt"
	"strings"

	"harvestiq/internal/apperrors"
	"harvestiq/internal/models"

	"gorm.io/gorm"
)

// GORMListingRepository is a GORM implementation of ListingRepository.
type GORMListingRepository struct {
	db *gorm.DB
}

// NewGORMListingRepository creates a new instance of GORMListingRepository.
func NewGORMListingRepository(db *gorm.DB) *GORMListingRepository {
	return &GORMListingRepository{
		db: db,
	}
}

const newestFirst = "created_at DESC, id DESC"

func (r *GORMListingRepository) find(scope func(*gorm.DB) *gorm.DB) ([]models.Listing, error) {
	var listings []models.Listing
	if err := scope(r.db).Order(newestFirst).Find(&listings).Error; err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	return listings, nil
}

// GetAll retrieves all listings from the database.
func (r *GORMListingRepository) GetAll() ([]models.Listing, error) {
	return r.find(func(db *gorm.DB) *gorm.DB { return db })
}

func (r *GORMListingRepository) GetByOwner(email string) ([]models.Listing, error) {
	return r.find(func(db *gorm.DB) *gorm.DB { return db.Where("owner_email = ?", email) })
}

func (r *GORMListingRepository) GetByStatus(status models.ListingStatus) ([]models.Listing, error) {
	return r.find(func(db *gorm.DB) *gorm.DB { return db.Where("status = ?", status) })
}

// GetByID retrieves a single listing by its ID from the database.
func (r *GORMListingRepository) GetByID(id uint) (*models.Listing, error) {
	var listing models.Listing
	if err := r.db.First(&listing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("listing with ID %d not found", id)
		}
		return nil, fmt.Errorf("failed to get listing by ID %d: %w", id, err)
	}
	return &listing, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *GORMListingRepository) Search(q models.ListingQuery) ([]models.Listing, error) {
	return r.find(func(db *gorm.DB) *gorm.DB {
		db = db.Where("status = ?", models.StatusApproved)
		if category := strings.TrimSpace(q.Category); category != "" {
			db = db.Where("category = ?", category)
		}
		if text := strings.TrimSpace(q.Text); text != "" {
			like := "%" + likeEscaper.Replace(strings.ToLower(text)) + "%"
			db = db.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\' OR LOWER(owner_name) LIKE ? ESCAPE '\')`, like, like, like)
		}
		return db
	})
}

func (r *GORMListingRepository) Categories() ([]string, error) {
	var categories []string
	err := r.db.Model(&models.Listing{}).
		Where("status = ?", models.StatusApproved).
		Distinct("category").
		Order("category").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// Create creates a new listing in the database.
func (r *GORMListingRepository) Create(listing *models.Listing) error {
	if err := r.db.Create(listing).Error; err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}
	return nil
}

func (r *GORMListingRepository) UpdateStatus(id uint, from, to models.ListingStatus) error {
	res := r.db.Model(&models.Listing{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return fmt.Errorf("failed to update status of listing %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		current, err := r.GetByID(id)
		if err != nil {
			return err
		}
		return apperrors.InvalidState("listing %d is %s, not %s", id, current.Status, from)
	}
	return nil
}

func (r *GORMListingRepository) AdjustQuantity(id uint, delta float64) (*models.Listing, error) {
	var updated models.Listing
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Listing{}).
			Where("id = ? AND quantity + ? > ?", id, delta, -quantityEpsilon).
			Update("quantity", gorm.Expr("quantity + ?", delta))
		if res.Error != nil {
			return fmt.Errorf("failed to adjust quantity of listing %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			var current models.Listing
			if err := tx.First(&current, "id = ?", id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperrors.NotFound("listing with ID %d not found", id)
				}
				return fmt.Errorf("failed to get listing by ID %d: %w", id, err)
			}
			return apperrors.InsufficientStock("listing %d has %v %s, cannot apply %v", id, current.Quantity, current.Unit, delta)
		}

		// Clamp float residue and retire the listing once it is drawn down to zero.
		if delta < 0 {
			err := tx.Model(&models.Listing{}).
				Where("id = ? AND quantity < ?", id, quantityEpsilon).
				Update("quantity", 0).Error
			if err != nil {
				return fmt.Errorf("failed to clamp quantity of listing %d: %w", id, err)
			}
			err = tx.Model(&models.Listing{}).
				Where("id = ? AND quantity = 0 AND status = ?", id, models.StatusApproved).
				Update("status", models.StatusSoldOut).Error
			if err != nil {
				return fmt.Errorf("failed to mark listing %d sold out: %w", id, err)
			}
		}
		return tx.First(&updated, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete deletes a listing by its ID from the database.
func (r *GORMListingRepository) Delete(id uint) error {
	res := r.db.Delete(&models.Listing{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete listing: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("listing with ID %d not found for deletion", id)
	}
	return nil
}
