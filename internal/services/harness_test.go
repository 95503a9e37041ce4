package services_test

import (
	"testing"

	"harvestiq/internal/models"
	"harvestiq/internal/repositories"
	"harvestiq/internal/services"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testExchange = "harvestiq.events"

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(exchange, routingKey string, body []byte) error {
	args := m.Called(exchange, routingKey, body)
	return args.Error(0)
}

type mockImageStore struct {
	mock.Mock
}

func (m *mockImageStore) Delete(ref string) error {
	args := m.Called(ref)
	return args.Error(0)
}

// harness wires every service over the in-memory repositories.
type harness struct {
	listings *repositories.MockListingRepository
	messages *repositories.MockMessageRepository
	orders   *repositories.MockOrderRepository
	pub      *mockPublisher
	images   *mockImageStore

	listingSvc      *services.ListingService
	conversationSvc *services.ConversationService
	checkoutSvc     *services.CheckoutService
	orderSvc        *services.OrderService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		listings: repositories.NewMockListingRepository(),
		messages: repositories.NewMockMessageRepository(),
		orders:   repositories.NewMockOrderRepository(),
		pub:      new(mockPublisher),
		images:   new(mockImageStore),
	}
	h.pub.On("Publish", testExchange, mock.Anything, mock.Anything).Return(nil).Maybe()

	tx := repositories.NewMockTransactor(repositories.Repositories{
		Listings: h.listings,
		Messages: h.messages,
		Orders:   h.orders,
	})
	events := services.NewEvents(h.pub, testExchange)
	h.listingSvc = services.NewListingService(h.listings, h.messages, tx, h.images, events)
	h.conversationSvc = services.NewConversationService(h.listings, h.messages, events)
	h.checkoutSvc = services.NewCheckoutService(tx, events)
	h.orderSvc = services.NewOrderService(h.orders)
	return h
}

func validListingInput() services.ListingInput {
	return services.ListingInput{
		Name:         "Roma Tomatoes",
		Category:     "Vegetables",
		Description:  "Vine ripened, picked this week",
		Quantity:     "10",
		Unit:         "kg",
		UnitPrice:    "5",
		HarvestDate:  "2024-05-01",
		DurationDays: "7",
	}
}

// submit stores a pending listing owned by the test farmer.
func (h *harness) submit(t *testing.T, mutate func(in *services.ListingInput)) *models.Listing {
	t.Helper()
	in := validListingInput()
	if mutate != nil {
		mutate(&in)
	}
	listing, err := h.listingSvc.Submit(farmer, in, "")
	require.NoError(t, err)
	return listing
}

// approved stores a listing and approves it.
func (h *harness) approved(t *testing.T, mutate func(in *services.ListingInput)) *models.Listing {
	t.Helper()
	listing := h.submit(t, mutate)
	listing, err := h.listingSvc.Decide(admin, listing.ID, models.DecisionApprove)
	require.NoError(t, err)
	return listing
}

func (h *harness) listing(t *testing.T, id uint) *models.Listing {
	t.Helper()
	l, err := h.listings.GetByID(id)
	require.NoError(t, err)
	return l
}
