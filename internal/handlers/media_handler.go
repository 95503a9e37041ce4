package handlers

import (
	"path/filepath"

	"harvestiq/pkg/blobstore"

	"github.com/gofiber/fiber/v2"
)

// MediaHandler streams stored listing images.
type MediaHandler struct {
	store *blobstore.Store
}

func NewMediaHandler(store *blobstore.Store) *MediaHandler {
	return &MediaHandler{store: store}
}

func (h *MediaHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	router.Get("/media/:ref", auth, h.HandleGet)
}

func (h *MediaHandler) HandleGet(c *fiber.Ctx) error {
	ref := c.Params("ref")
	f, err := h.store.Open(ref)
	if err != nil {
		return respondError(c, "Image not found", err)
	}
	c.Type(filepath.Ext(ref))
	return c.SendStream(f)
}
