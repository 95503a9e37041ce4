package repositories

import (
	"fmt"
	"time"

	"harvestiq/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMMessageRepository is a GORM implementation of MessageRepository.
type GORMMessageRepository struct {
	db *gorm.DB
}

// NewGORMMessageRepository creates a new instance of GORMMessageRepository.
func NewGORMMessageRepository(db *gorm.DB) *GORMMessageRepository {
	return &GORMMessageRepository{
		db: db,
	}
}

func (r *GORMMessageRepository) Create(msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.Seq == 0 {
		msg.Seq = time.Now().UnixNano()
	}
	if err := r.db.Create(msg).Error; err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

func (r *GORMMessageRepository) GetByListing(listingID uint) ([]models.Message, error) {
	var thread []models.Message
	err := r.db.Where("listing_id = ?", listingID).
		Order("sent_at ASC, seq ASC").
		Find(&thread).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load thread for listing %d: %w", listingID, err)
	}
	return thread, nil
}

func (r *GORMMessageRepository) MarkRead(listingID uint, viewer models.Role) (int64, error) {
	col, err := readColumn(viewer)
	if err != nil {
		return 0, err
	}
	res := r.db.Model(&models.Message{}).
		Where("listing_id = ? AND sender_role <> ? AND "+col+" = ?", listingID, viewer, false).
		Update(col, true)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to mark thread %d read: %w", listingID, res.Error)
	}
	return res.RowsAffected, nil
}

func (r *GORMMessageRepository) CountUnread(listingID uint, viewer models.Role) (int, error) {
	col, err := readColumn(viewer)
	if err != nil {
		return 0, err
	}
	var n int64
	err = r.db.Model(&models.Message{}).
		Where("listing_id = ? AND sender_role <> ? AND "+col+" = ?", listingID, viewer, false).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages for listing %d: %w", listingID, err)
	}
	return int(n), nil
}

func (r *GORMMessageRepository) DeleteByListing(listingID uint) error {
	if err := r.db.Where("listing_id = ?", listingID).Delete(&models.Message{}).Error; err != nil {
		return fmt.Errorf("failed to delete thread for listing %d: %w", listingID, err)
	}
	return nil
}
