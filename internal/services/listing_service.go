package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"harvestiq/internal/apperrors"
	"harvestiq/internal/metrics"
	"harvestiq/internal/models"
	"harvestiq/internal/repositories"

	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
)

// ImageStore removes stored listing images. *blobstore.Store satisfies it.
type ImageStore interface {
	Delete(ref string) error
}

// ListingInput carries the submission form exactly as the farmer typed it.
type ListingInput struct {
	Name         string `json:"name" form:"name" validate:"required,max=100"`
	Category     string `json:"category" form:"category" validate:"required,max=50"`
	Description  string `json:"description" form:"description" validate:"required,max=2000"`
	Quantity     string `json:"quantity" form:"quantity" validate:"required"`
	Unit         string `json:"unit" form:"unit" validate:"required,max=20"`
	UnitPrice    string `json:"unit_price" form:"unit_price" validate:"required"`
	HarvestDate  string `json:"harvest_date" form:"harvest_date" validate:"required,datetime=2006-01-02"`
	DurationDays string `json:"duration_days" form:"duration_days" validate:"required"`
}

func (in *ListingInput) trim() {
	for _, f := range []*string{&in.Name, &in.Category, &in.Description, &in.Quantity, &in.Unit, &in.UnitPrice, &in.HarvestDate, &in.DurationDays} {
		*f = strings.TrimSpace(*f)
	}
}

type listingEvent struct {
	ListingID  uint                 `json:"listing_id"`
	Name       string               `json:"name"`
	OwnerEmail string               `json:"owner_email"`
	Status     models.ListingStatus `json:"status"`
	Actor      string               `json:"actor"`
}

// ListingService drives the listing lifecycle.
type ListingService struct {
	listings repositories.ListingRepository
	messages repositories.MessageRepository
	tx       repositories.Transactor
	images   ImageStore
	validate *validator.Validate
	events   Events
}

// NewListingService creates a new ListingService. images may be nil.
func NewListingService(listings repositories.ListingRepository, messages repositories.MessageRepository, tx repositories.Transactor, images ImageStore, events Events) *ListingService {
	return &ListingService{
		listings: listings,
		messages: messages,
		tx:       tx,
		images:   images,
		validate: validator.New(),
		events:   events,
	}
}

// Submit validates the form and stores a new Pending listing owned by actor.
func (s *ListingService) Submit(actor models.Actor, in ListingInput, imageRef string) (*models.Listing, error) {
	if err := Authorize(actor, Roles(models.RoleFarmer)); err != nil {
		return nil, err
	}
	in.trim()
	if err := s.validate.Struct(in); err != nil {
		return nil, validationError(err)
	}
	quantity, err := parsePositive("quantity", in.Quantity)
	if err != nil {
		return nil, err
	}
	price, err := parsePositive("unit_price", in.UnitPrice)
	if err != nil {
		return nil, err
	}
	days, err := strconv.Atoi(in.DurationDays)
	if err != nil || days <= 0 {
		return nil, apperrors.Validation("duration_days must be a positive whole number, got %q", in.DurationDays)
	}

	listing := &models.Listing{
		OwnerEmail:   actor.Email,
		OwnerName:    actor.Name,
		Name:         in.Name,
		Category:     in.Category,
		Description:  in.Description,
		Quantity:     quantity,
		Unit:         in.Unit,
		UnitPrice:    price,
		HarvestDate:  in.HarvestDate,
		DurationDays: days,
		Status:       models.StatusPending,
		ImageRef:     imageRef,
	}
	if err := s.listings.Create(listing); err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	metrics.RecordListingSubmitted()
	log.WithFields(log.Fields{"listing_id": listing.ID, "owner": actor.Email}).Info("Listing submitted for review")
	s.events.emit(EventListingSubmitted, listingEvent{
		ListingID: listing.ID, Name: listing.Name, OwnerEmail: listing.OwnerEmail, Status: listing.Status, Actor: actor.Email,
	})
	return listing, nil
}

func parsePositive(field, raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, apperrors.Validation("%s must be a positive number, got %q", field, raw)
	}
	return v, nil
}

// Decide applies an admin review decision to a Pending listing.
func (s *ListingService) Decide(actor models.Actor, id uint, decision models.Decision) (*models.Listing, error) {
	if err := Authorize(actor, Roles(models.RoleAdmin)); err != nil {
		return nil, err
	}
	target, ok := decision.Target()
	if !ok {
		return nil, apperrors.Validation("unknown decision %q", decision)
	}
	listing, err := s.listings.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !listing.Status.CanTransitionTo(target) {
		return nil, apperrors.InvalidState("listing %d is %s and can no longer be reviewed", id, listing.Status)
	}
	if err := s.listings.UpdateStatus(id, listing.Status, target); err != nil {
		return nil, err
	}
	listing.Status = target

	metrics.RecordListingDecision(string(decision))
	log.WithFields(log.Fields{"listing_id": id, "status": target, "admin": actor.Email}).Info("Listing reviewed")
	s.events.emit(EventListingDecided, listingEvent{
		ListingID: id, Name: listing.Name, OwnerEmail: listing.OwnerEmail, Status: target, Actor: actor.Email,
	})
	return listing, nil
}

// AdjustInventory adds delta to a listing's stock. It is not gated; checkout
// calls the repository form of it inside its own transaction.
func (s *ListingService) AdjustInventory(id uint, delta float64) (*models.Listing, error) {
	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		return nil, apperrors.Malformed("inventory delta must be finite")
	}
	return s.listings.AdjustQuantity(id, delta)
}

// Delete removes a listing together with its thread, then its stored image.
func (s *ListingService) Delete(actor models.Actor, id uint) error {
	if err := Authorize(actor, Roles(models.RoleAdmin)); err != nil {
		return err
	}
	var deleted models.Listing
	err := s.tx.WithinTransaction(func(repos repositories.Repositories) error {
		listing, err := repos.Listings.GetByID(id)
		if err != nil {
			return err
		}
		deleted = *listing
		if err := repos.Messages.DeleteByListing(id); err != nil {
			return fmt.Errorf("failed to delete thread for listing %d: %w", id, err)
		}
		return repos.Listings.Delete(id)
	})
	if err != nil {
		return err
	}

	if deleted.ImageRef != "" && s.images != nil {
		if err := s.images.Delete(deleted.ImageRef); err != nil {
			log.WithError(err).WithField("listing_id", id).Warn("Failed to delete listing image")
		}
	}
	log.WithFields(log.Fields{"listing_id": id, "admin": actor.Email}).Info("Listing deleted")
	s.events.emit(EventListingDeleted, listingEvent{
		ListingID: id, Name: deleted.Name, OwnerEmail: deleted.OwnerEmail, Status: deleted.Status, Actor: actor.Email,
	})
	return nil
}

// Get returns a listing if actor may see it. Listings still under review, or
// rejected, are hidden from everyone but their owner and admins.
func (s *ListingService) Get(actor models.Actor, id uint) (*models.Listing, error) {
	if err := Authorize(actor, Requirement{}); err != nil {
		return nil, err
	}
	listing, err := s.listings.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !listing.Status.Visible() {
		req := Requirement{Roles: []models.Role{models.RoleAdmin, models.RoleFarmer}, OwnerEmail: listing.OwnerEmail}
		if Authorize(actor, req) != nil {
			return nil, apperrors.NotFound("listing with ID %d not found", id)
		}
	}
	return listing, nil
}

// Search returns the approved listings matching q, newest first.
func (s *ListingService) Search(q models.ListingQuery) ([]models.Listing, error) {
	q.Text = strings.TrimSpace(q.Text)
	q.Category = strings.TrimSpace(q.Category)
	return s.listings.Search(q)
}

// Categories lists the categories that currently have approved listings.
func (s *ListingService) Categories() ([]string, error) {
	return s.listings.Categories()
}

// Dashboard lists what actor manages, each row badged with actor's unread count.
// Admins see every listing, farmers their own. An empty status means all.
func (s *ListingService) Dashboard(actor models.Actor, status models.ListingStatus) ([]models.ListingSummary, error) {
	if err := Authorize(actor, Roles(models.RoleAdmin, models.RoleFarmer)); err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, apperrors.Validation("unknown listing status %q", status)
	}

	var (
		listings []models.Listing
		err      error
	)
	switch {
	case actor.Role == models.RoleFarmer:
		listings, err = s.listings.GetByOwner(actor.Email)
	case status != "":
		listings, err = s.listings.GetByStatus(status)
	default:
		listings, err = s.listings.GetAll()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load listings: %w", err)
	}

	out := make([]models.ListingSummary, 0, len(listings))
	for _, l := range listings {
		if status != "" && l.Status != status {
			continue
		}
		unread, err := s.messages.CountUnread(l.ID, actor.Role)
		if err != nil {
			return nil, fmt.Errorf("failed to count unread messages for listing %d: %w", l.ID, err)
		}
		out = append(out, models.ListingSummary{Listing: l, Unread: unread})
	}
	return out, nil
}
