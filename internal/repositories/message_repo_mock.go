package repositories

import (
	"sort"
	"sync"

	"harvestiq/internal/models"

	"github.com/google/uuid"
)

// MockMessageRepository is an in-memory implementation of MessageRepository.
type MockMessageRepository struct {
	threads map[uint][]models.Message
	seq     int64
	mu      sync.RWMutex
}

// NewMockMessageRepository creates a new instance of MockMessageRepository.
func NewMockMessageRepository() *MockMessageRepository {
	return &MockMessageRepository{
		threads: make(map[uint][]models.Message),
	}
}

// Create appends a message to its listing's thread.
func (r *MockMessageRepository) Create(msg *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	r.seq++
	msg.Seq = r.seq
	r.threads[msg.ListingID] = append(r.threads[msg.ListingID], *msg)
	return nil
}

func (r *MockMessageRepository) GetByListing(listingID uint) ([]models.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	thread := make([]models.Message, len(r.threads[listingID]))
	copy(thread, r.threads[listingID])
	sort.SliceStable(thread, func(i, j int) bool {
		if !thread[i].SentAt.Equal(thread[j].SentAt) {
			return thread[i].SentAt.Before(thread[j].SentAt)
		}
		return thread[i].Seq < thread[j].Seq
	})
	return thread, nil
}

func (r *MockMessageRepository) MarkRead(listingID uint, viewer models.Role) (int64, error) {
	if _, err := readColumn(viewer); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var changed int64
	thread := r.threads[listingID]
	for i := range thread {
		if thread[i].MarkReadBy(viewer) {
			changed++
		}
	}
	return changed, nil
}

func (r *MockMessageRepository) CountUnread(listingID uint, viewer models.Role) (int, error) {
	if _, err := readColumn(viewer); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for i := range r.threads[listingID] {
		if r.threads[listingID][i].UnreadFor(viewer) {
			n++
		}
	}
	return n, nil
}

func (r *MockMessageRepository) DeleteByListing(listingID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.threads, listingID)
	return nil
}
