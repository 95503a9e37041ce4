package repositories

import (
	"sync"

	"gorm.io/gorm"
)

// Repositories groups the stores a transaction may touch.
type Repositories struct {
	Listings ListingRepository
	Messages MessageRepository
	Orders   OrderRepository
}

// Transactor runs fn so that every write it makes through repos commits or
// rolls back together.
type Transactor interface {
	WithinTransaction(fn func(repos Repositories) error) error
}

// GORMTransactor binds fresh GORM repositories to a database transaction.
type GORMTransactor struct {
	db *gorm.DB
}

func NewGORMTransactor(db *gorm.DB) *GORMTransactor {
	return &GORMTransactor{db: db}
}

func (t *GORMTransactor) WithinTransaction(fn func(repos Repositories) error) error {
	return t.db.Transaction(func(tx *gorm.DB) error {
		return fn(Repositories{
			Listings: NewGORMListingRepository(tx),
			Messages: NewGORMMessageRepository(tx),
			Orders:   NewGORMOrderRepository(tx),
		})
	})
}

// MockTransactor serializes transactions over in-memory repositories.
// Writes made before fn fails are not undone.
type MockTransactor struct {
	repos Repositories
	mu    sync.Mutex
}

func NewMockTransactor(repos Repositories) *MockTransactor {
	return &MockTransactor{repos: repos}
}

func (t *MockTransactor) WithinTransaction(fn func(repos Repositories) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(t.repos)
}
