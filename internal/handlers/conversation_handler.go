package handlers

import (
	"harvestiq/internal/middleware"
	"harvestiq/internal/models"
	"harvestiq/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ConversationHandler serves the per-listing threads.
type ConversationHandler struct {
	service *services.ConversationService
}

func NewConversationHandler(service *services.ConversationService) *ConversationHandler {
	return &ConversationHandler{service: service}
}

// RegisterRoutes registers the thread routes under /listings/:id/messages.
func (h *ConversationHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	threadRoutes := router.Group("/listings/:id/messages", auth, middleware.RequireRoles(models.RoleAdmin, models.RoleFarmer))
	threadRoutes.Get("/", h.HandleOpenThread)
	threadRoutes.Post("/", h.HandlePostMessage)
	threadRoutes.Get("/unread", h.HandleUnreadCount)
}

// HandleOpenThread returns the thread and marks it read for the caller's role.
func (h *ConversationHandler) HandleOpenThread(c *fiber.Ctx) error {
	id, err := listingID(c)
	if err != nil {
		return respondError(c, "Invalid listing ID", err)
	}
	thread, err := h.service.OpenThread(middleware.Actor(c), id)
	if err != nil {
		return respondError(c, "Could not open thread", err)
	}
	return c.JSON(thread)
}

// PostMessageRequest is a new thread entry.
type PostMessageRequest struct {
	Body string `json:"body" form:"body"`
}

func (h *ConversationHandler) HandlePostMessage(c *fiber.Ctx) error {
	id, err := listingID(c)
	if err != nil {
		return respondError(c, "Invalid listing ID", err)
	}
	var req PostMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	msg, err := h.service.PostMessage(middleware.Actor(c), id, req.Body)
	if err != nil {
		return respondError(c, "Could not post message", err)
	}
	if msg == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

func (h *ConversationHandler) HandleUnreadCount(c *fiber.Ctx) error {
	id, err := listingID(c)
	if err != nil {
		return respondError(c, "Invalid listing ID", err)
	}
	n, err := h.service.UnreadCountFor(middleware.Actor(c), id)
	if err != nil {
		return respondError(c, "Could not count unread messages", err)
	}
	return c.JSON(fiber.Map{"listing_id": id, "unread": n})
}
