package repositories

import (
	"errors"
	"fmt"
	"strings"

	"harvestiq/internal/apperrors"
	"harvestiq/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMUserRepository stores accounts in the users table.
type GORMUserRepository struct {
	db *gorm.DB
}

func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{db: db}
}

// Create inserts user, assigning an ID when it has none. A second account
// for the same email is rejected by the unique index.
func (r *GORMUserRepository) Create(user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if err := r.db.Create(user).Error; err != nil {
		return fmt.Errorf("failed to create account %s: %w", user.Email, err)
	}
	return nil
}

// GetByEmail normalizes email the way registration stores it.
func (r *GORMUserRepository) GetByEmail(email string) (*models.User, error) {
	return r.findOne("email", strings.ToLower(strings.TrimSpace(email)))
}

func (r *GORMUserRepository) GetByID(id string) (*models.User, error) {
	return r.findOne("id", id)
}

func (r *GORMUserRepository) findOne(column, value string) (*models.User, error) {
	var user models.User
	err := r.db.Where(column+" = ?", value).Take(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, apperrors.NotFound("account with %s %s not found", column, value)
	case err != nil:
		return nil, fmt.Errorf("failed to load account by %s: %w", column, err)
	}
	return &user, nil
}
