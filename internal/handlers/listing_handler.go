package handlers

import (
	"strings"

	"harvestiq/internal/middleware"
	"harvestiq/internal/models"
	"harvestiq/internal/services"
	"harvestiq/pkg/blobstore"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// ListingHandler handles HTTP requests for listings and their review.
type ListingHandler struct {
	service *services.ListingService
	media   *blobstore.Store
}

// NewListingHandler creates a new ListingHandler. media may be nil, in which
// case uploaded images are ignored.
func NewListingHandler(service *services.ListingService, media *blobstore.Store) *ListingHandler {
	return &ListingHandler{
		service: service,
		media:   media,
	}
}

// RegisterRoutes registers the marketplace and admin review routes.
func (h *ListingHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	listingRoutes := router.Group("/listings", auth)
	listingRoutes.Get("/", h.HandleSearch)
	listingRoutes.Get("/categories", h.HandleCategories)
	listingRoutes.Get("/mine", middleware.RequireRoles(models.RoleFarmer), h.HandleDashboard)
	listingRoutes.Post("/", middleware.RequireRoles(models.RoleFarmer), h.HandleSubmit)
	listingRoutes.Get("/:id<int>", h.HandleGet)

	adminRoutes := router.Group("/admin", auth, middleware.RequireRoles(models.RoleAdmin))
	adminRoutes.Get("/listings", h.HandleDashboard)
	adminRoutes.Post("/listings/:id/decision", h.HandleDecide)
	adminRoutes.Delete("/listings/:id", h.HandleDelete)
}

// HandleSearch lists approved listings filtered by ?q= and ?category=.
func (h *ListingHandler) HandleSearch(c *fiber.Ctx) error {
	listings, err := h.service.Search(models.ListingQuery{
		Text:     c.Query("q"),
		Category: c.Query("category"),
	})
	if err != nil {
		return respondError(c, "Could not search listings", err)
	}
	return c.JSON(listings)
}

func (h *ListingHandler) HandleCategories(c *fiber.Ctx) error {
	categories, err := h.service.Categories()
	if err != nil {
		return respondError(c, "Could not list categories", err)
	}
	return c.JSON(categories)
}

// HandleDashboard lists the caller's listings with unread message counts.
// Admins may filter by ?status=.
func (h *ListingHandler) HandleDashboard(c *fiber.Ctx) error {
	rows, err := h.service.Dashboard(middleware.Actor(c), models.ListingStatus(c.Query("status")))
	if err != nil {
		return respondError(c, "Could not load dashboard", err)
	}
	return c.JSON(rows)
}

func (h *ListingHandler) HandleGet(c *fiber.Ctx) error {
	id, err := listingID(c)
	if err != nil {
		return respondError(c, "Invalid listing ID", err)
	}
	listing, err := h.service.Get(middleware.Actor(c), id)
	if err != nil {
		return respondError(c, "Could not retrieve listing", err)
	}
	return c.JSON(listing)
}

// HandleSubmit accepts a listing as JSON or as a multipart form with an
// optional "image" file.
func (h *ListingHandler) HandleSubmit(c *fiber.Ctx) error {
	var in services.ListingInput
	if err := c.BodyParser(&in); err != nil {
		return badBody(c, err)
	}

	imageRef, err := h.saveImage(c)
	if err != nil {
		return respondError(c, "Could not store image", err)
	}

	listing, err := h.service.Submit(middleware.Actor(c), in, imageRef)
	if err != nil {
		if imageRef != "" {
			if delErr := h.media.Delete(imageRef); delErr != nil {
				log.WithError(delErr).WithField("image", imageRef).Warn("Failed to remove orphaned image")
			}
		}
		return respondError(c, "Could not submit listing", err)
	}
	return c.Status(fiber.StatusCreated).JSON(listing)
}

func (h *ListingHandler) saveImage(c *fiber.Ctx) (string, error) {
	if h.media == nil || !strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		return "", nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return "", err
	}
	files := form.File["image"]
	if len(files) == 0 {
		return "", nil
	}
	header := files[0]
	f, err := header.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	return h.media.Save(header.Filename, f)
}

// DecisionRequest is the admin's review verdict.
type DecisionRequest struct {
	Decision models.Decision `json:"decision" form:"decision"`
}

func (h *ListingHandler) HandleDecide(c *fiber.Ctx) error {
	id, err := listingID(c)
	if err != nil {
		return respondError(c, "Invalid listing ID", err)
	}
	var req DecisionRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	listing, err := h.service.Decide(middleware.Actor(c), id, req.Decision)
	if err != nil {
		return respondError(c, "Could not apply decision", err)
	}
	return c.JSON(listing)
}

func (h *ListingHandler) HandleDelete(c *fiber.Ctx) error {
	id, err := listingID(c)
	if err != nil {
		return respondError(c, "Invalid listing ID", err)
	}
	if err := h.service.Delete(middleware.Actor(c), id); err != nil {
		return respondError(c, "Could not delete listing", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
