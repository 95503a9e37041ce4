package handlers

import (
	"fmt"

	"harvestiq/internal/apperrors"
	"harvestiq/internal/middleware"
	"harvestiq/internal/models"
	"harvestiq/internal/services"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// OrderHandler handles HTTP requests for checkout and orders.
type OrderHandler struct {
	checkout *services.CheckoutService
	orders   *services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(checkout *services.CheckoutService, orders *services.OrderService) *OrderHandler {
	return &OrderHandler{
		checkout: checkout,
		orders:   orders,
	}
}

// RegisterRoutes registers the checkout and order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	router.Post("/checkout", auth, middleware.RequireRoles(models.RoleBuyer), h.HandleCheckout)

	orderRoutes := router.Group("/orders", auth, middleware.RequireRoles(models.RoleBuyer, models.RoleAdmin))
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
}

// HandleCheckout places one order per fulfillable cart line. A checkout that
// placed nothing responds with the error and the per-line report.
func (h *OrderHandler) HandleCheckout(c *fiber.Ctx) error {
	var req services.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}

	result, err := h.checkout.Checkout(middleware.Actor(c), req)
	if err != nil {
		if result == nil {
			return respondError(c, "Checkout failed", err)
		}
		log.WithError(err).WithField("buyer", middleware.Actor(c).Email).Info("Checkout placed no orders")
		return c.Status(apperrors.HTTPStatus(err)).JSON(fiber.Map{
			"message": "Checkout failed",
			"error":   err.Error(),
			"skipped": result.Skipped,
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": fmt.Sprintf("%d order(s) placed, %d line(s) skipped", len(result.Orders), len(result.Skipped)),
		"orders":  result.Orders,
		"skipped": result.Skipped,
	})
}

// HandleGetOrders lists the buyer's own orders, or every order for an admin.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.orders.ListForActor(middleware.Actor(c))
	if err != nil {
		return respondError(c, "Could not retrieve orders", err)
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order by its ID.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	order, err := h.orders.Get(middleware.Actor(c), c.Params("id"))
	if err != nil {
		return respondError(c, "Could not retrieve order", err)
	}
	return c.JSON(order)
}
