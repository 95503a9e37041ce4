package repositories

import (
	"harvestiq/internal/models"
)

// OrderRepository defines the interface for order data access.
// Orders are written once by checkout and never updated.
type OrderRepository interface {
	GetAll() ([]models.Order, error)
	GetByBuyer(email string) ([]models.Order, error)
	GetByID(id string) (*models.Order, error)
	Create(order *models.Order) error
}
