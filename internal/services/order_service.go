package services

import (
	"strings"

	"harvestiq/internal/apperrors"
	"harvestiq/internal/models"
	"harvestiq/internal/repositories"
)

// OrderService handles order history reads.
type OrderService struct {
	orderRepo repositories.OrderRepository
}

// NewOrderService creates a new OrderService.
func NewOrderService(orderRepo repositories.OrderRepository) *OrderService {
	return &OrderService{orderRepo: orderRepo}
}

// ListForActor returns a buyer's own orders, or every order for an admin.
func (s *OrderService) ListForActor(actor models.Actor) ([]models.Order, error) {
	if err := Authorize(actor, Roles(models.RoleBuyer, models.RoleAdmin)); err != nil {
		return nil, err
	}
	if actor.Role == models.RoleAdmin {
		return s.orderRepo.GetAll()
	}
	return s.orderRepo.GetByBuyer(actor.Email)
}

// Get returns a single order. Buyers cannot see each other's orders.
func (s *OrderService) Get(actor models.Actor, id string) (*models.Order, error) {
	if err := Authorize(actor, Roles(models.RoleBuyer, models.RoleAdmin)); err != nil {
		return nil, err
	}
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleAdmin && !strings.EqualFold(order.BuyerEmail, actor.Email) {
		return nil, apperrors.NotFound("order with ID %s not found", id)
	}
	return order, nil
}
