package repositories

import (
	"sort"
	"strings"
	"sync"
	"time"

	"harvestiq/internal/apperrors"
	"harvestiq/internal/models"

	"github.com/shopspring/decimal"
)

// MockListingRepository is an in-memory implementation of ListingRepository.
type MockListingRepository struct {
	listings map[uint]models.Listing
	nextID   uint
	mu       sync.RWMutex
}

// NewMockListingRepository creates a new instance of MockListingRepository.
func NewMockListingRepository() *MockListingRepository {
	return &MockListingRepository{
		listings: make(map[uint]models.Listing),
	}
}

func (r *MockListingRepository) collect(keep func(l *models.Listing) bool) []models.Listing {
	out := make([]models.Listing, 0, len(r.listings))
	for _, l := range r.listings {
		if keep(&l) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// GetAll returns all listings, newest first.
func (r *MockListingRepository) GetAll() ([]models.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(func(*models.Listing) bool { return true }), nil
}

// GetByOwner returns the listings submitted by email.
func (r *MockListingRepository) GetByOwner(email string) ([]models.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(func(l *models.Listing) bool { return l.OwnerEmail == email }), nil
}

// GetByStatus returns the listings currently in status.
func (r *MockListingRepository) GetByStatus(status models.ListingStatus) ([]models.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(func(l *models.Listing) bool { return l.Status == status }), nil
}

// GetByID returns a listing by its ID.
func (r *MockListingRepository) GetByID(id uint) (*models.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	listing, ok := r.listings[id]
	if !ok {
		return nil, apperrors.NotFound("listing with ID %d not found", id)
	}
	return &listing, nil
}

func (r *MockListingRepository) Search(q models.ListingQuery) ([]models.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	text := strings.ToLower(strings.TrimSpace(q.Text))
	category := strings.TrimSpace(q.Category)
	return r.collect(func(l *models.Listing) bool {
		if l.Status != models.StatusApproved {
			return false
		}
		if category != "" && l.Category != category {
			return false
		}
		if text == "" {
			return true
		}
		return strings.Contains(strings.ToLower(l.Name), text) ||
			strings.Contains(strings.ToLower(l.Description), text) ||
			strings.Contains(strings.ToLower(l.OwnerName), text)
	}), nil
}

func (r *MockListingRepository) Categories() ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var out []string
	for _, l := range r.listings {
		if l.Status == models.StatusApproved && !seen[l.Category] {
			seen[l.Category] = true
			out = append(out, l.Category)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Create adds a new listing and assigns the next ID.
func (r *MockListingRepository) Create(listing *models.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	listing.ID = r.nextID
	now := time.Now()
	if listing.CreatedAt.IsZero() {
		listing.CreatedAt = now
	}
	listing.UpdatedAt = now
	r.listings[listing.ID] = *listing
	return nil
}

func (r *MockListingRepository) UpdateStatus(id uint, from, to models.ListingStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	listing, ok := r.listings[id]
	if !ok {
		return apperrors.NotFound("listing with ID %d not found for status update", id)
	}
	if listing.Status != from {
		return apperrors.InvalidState("listing %d is %s, not %s", id, listing.Status, from)
	}
	listing.Status = to
	listing.UpdatedAt = time.Now()
	r.listings[id] = listing
	return nil
}

func (r *MockListingRepository) AdjustQuantity(id uint, delta float64) (*models.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	listing, ok := r.listings[id]
	if !ok {
		return nil, apperrors.NotFound("listing with ID %d not found", id)
	}
	next := decimal.NewFromFloat(listing.Quantity).Add(decimal.NewFromFloat(delta))
	if next.IsNegative() {
		return nil, apperrors.InsufficientStock("listing %d has %v %s, cannot apply %v", id, listing.Quantity, listing.Unit, delta)
	}
	listing.Quantity = next.InexactFloat64()
	if next.IsZero() && delta < 0 && listing.Status == models.StatusApproved {
		listing.Status = models.StatusSoldOut
	}
	listing.UpdatedAt = time.Now()
	r.listings[id] = listing
	return &listing, nil
}

// Delete removes a listing by its ID.
func (r *MockListingRepository) Delete(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.listings[id]; !ok {
		return apperrors.NotFound("listing with ID %d not found for deletion", id)
	}
	delete(r.listings, id)
	return nil
}
