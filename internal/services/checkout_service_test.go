package services_test

import (
	"errors"
	"math"
	"sync"
	"testing"

	"harvestiq/internal/apperrors"
	"harvestiq/internal/models"
	"harvestiq/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func cart(lines ...models.CartLine) services.CheckoutRequest {
	return services.CheckoutRequest{
		Lines:           lines,
		PaymentMethod:   "cash_on_delivery",
		DeliveryAddress: "12 Orchard Lane",
		ContactNumber:   "+254700000000",
	}
}

func line(id uint, qty float64) models.CartLine {
	return models.CartLine{ListingID: id, RequestedQuantity: qty}
}

func TestCheckout_SingleLine(t *testing.T) {
	h := newHarness(t)
	listing := h.approved(t, nil)

	result, err := h.checkoutSvc.Checkout(buyer, cart(line(listing.ID, 6)))
	require.NoError(t, err)
	require.Len(t, result.Orders, 1)
	assert.Empty(t, result.Skipped)

	order := result.Orders[0]
	assert.Equal(t, buyer.Email, order.BuyerEmail)
	assert.Equal(t, listing.ID, order.ListingID)
	assert.Equal(t, "Roma Tomatoes", order.ListingName)
	assert.Equal(t, farmer.Email, order.FarmerEmail)
	assert.Equal(t, 6.0, order.Quantity)
	assert.Equal(t, 5.0, order.UnitPrice)
	assert.Equal(t, 30.0, order.TotalAmount)
	assert.Equal(t, "kg", order.Unit)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, "12 Orchard Lane", order.DeliveryAddress)

	assert.Equal(t, 4.0, h.listing(t, listing.ID).Quantity)
	assert.Equal(t, models.StatusApproved, h.listing(t, listing.ID).Status)
	stored, err := h.orders.GetByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.TotalAmount, stored.TotalAmount)
	h.pub.AssertCalled(t, "Publish", testExchange, services.EventOrderPlaced, mock.Anything)
}

func TestCheckout_LastUnitsSellOut(t *testing.T) {
	h := newHarness(t)
	listing := h.approved(t, func(in *services.ListingInput) { in.Quantity = "0.3" })

	result, err := h.checkoutSvc.Checkout(buyer, cart(line(listing.ID, 0.1), line(listing.ID, 0.2)))
	require.NoError(t, err)
	assert.Len(t, result.Orders, 2)

	after := h.listing(t, listing.ID)
	assert.Equal(t, 0.0, after.Quantity)
	assert.Equal(t, models.StatusSoldOut, after.Status)

	// a sold out listing is no longer for sale
	result, err = h.checkoutSvc.Checkout(buyer, cart(line(listing.ID, 0.1)))
	assert.True(t, errors.Is(err, apperrors.ErrInvalidState))
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, services.SkipNotAvailable, result.Skipped[0].Reason)
}

func TestCheckout_TotalsRoundToCents(t *testing.T) {
	h := newHarness(t)
	listing := h.approved(t, func(in *services.ListingInput) { in.UnitPrice = "0.1"; in.Quantity = "100" })

	result, err := h.checkoutSvc.Checkout(buyer, cart(line(listing.ID, 3), line(listing.ID, 1.333)))
	require.NoError(t, err)
	require.Len(t, result.Orders, 2)
	assert.Equal(t, 0.3, result.Orders[0].TotalAmount)
	assert.Equal(t, 0.13, result.Orders[1].TotalAmount)
}

func TestCheckout_PartialSuccess(t *testing.T) {
	h := newHarness(t)
	live := h.approved(t, nil)
	pending := h.submit(t, nil)

	result, err := h.checkoutSvc.Checkout(buyer, cart(
		line(999, 1),
		line(pending.ID, 1),
		line(live.ID, 11),
		line(live.ID, 2),
	))
	require.NoError(t, err)
	require.Len(t, result.Orders, 1)
	assert.Equal(t, 2.0, result.Orders[0].Quantity)

	require.Len(t, result.Skipped, 3)
	reasons := []string{services.SkipNotFound, services.SkipNotAvailable, services.SkipInsufficientStock}
	for i, s := range result.Skipped {
		assert.Equal(t, i, s.Index)
		assert.Equal(t, reasons[i], s.Reason)
		assert.NotEmpty(t, s.Message)
	}
	assert.Equal(t, 8.0, h.listing(t, live.ID).Quantity)
	assert.Equal(t, 10.0, h.listing(t, pending.ID).Quantity)
}

func TestCheckout_NothingOrderedFails(t *testing.T) {
	h := newHarness(t)
	live := h.approved(t, nil)

	result, err := h.checkoutSvc.Checkout(buyer, cart(line(live.ID, 20), line(live.ID, 10.5)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInsufficientStock))
	assert.Equal(t, 409, apperrors.HTTPStatus(err))
	require.NotNil(t, result)
	assert.Empty(t, result.Orders)
	assert.Len(t, result.Skipped, 2)
	assert.Equal(t, 10.0, h.listing(t, live.ID).Quantity)
	h.pub.AssertNotCalled(t, "Publish", testExchange, services.EventOrderPlaced, mock.Anything)
}

func TestCheckout_ReplayedCart(t *testing.T) {
	h := newHarness(t)
	live := h.approved(t, nil)
	req := cart(line(live.ID, 6))

	_, err := h.checkoutSvc.Checkout(buyer, req)
	require.NoError(t, err)
	_, err = h.checkoutSvc.Checkout(buyer, req)
	assert.True(t, errors.Is(err, apperrors.ErrInsufficientStock))

	orders, err := h.orderSvc.ListForActor(buyer)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
	assert.Equal(t, 4.0, h.listing(t, live.ID).Quantity)
}

func TestCheckout_ConcurrentOversell(t *testing.T) {
	h := newHarness(t)
	live := h.approved(t, nil)

	const buyers = 2
	errs := make([]error, buyers)
	var wg sync.WaitGroup
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.checkoutSvc.Checkout(buyer, cart(line(live.ID, 6)))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, errors.Is(err, apperrors.ErrInsufficientStock))
		}
	}
	assert.Equal(t, 1, succeeded)

	orders, err := h.orderSvc.ListForActor(admin)
	require.NoError(t, err)
	total := 0.0
	for _, o := range orders {
		total += o.Quantity
	}
	assert.LessOrEqual(t, total, 10.0)
	assert.Equal(t, 4.0, h.listing(t, live.ID).Quantity)
}

func TestCheckout_MalformedCart(t *testing.T) {
	h := newHarness(t)
	live := h.approved(t, nil)

	cases := map[string]services.CheckoutRequest{
		"empty cart":        cart(),
		"zero listing id":   cart(line(live.ID, 1), line(0, 1)),
		"negative quantity": cart(line(live.ID, 1), line(live.ID, -5)),
		"zero quantity":     cart(line(live.ID, 0)),
		"NaN quantity":      cart(line(live.ID, math.NaN())),
		"infinite quantity": cart(line(live.ID, math.Inf(1))),
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			result, err := h.checkoutSvc.Checkout(buyer, req)
			assert.True(t, errors.Is(err, apperrors.ErrMalformedInput), "got %v", err)
			assert.Nil(t, result)
		})
	}
	assert.Equal(t, 10.0, h.listing(t, live.ID).Quantity, "no line ran")
}

func TestCheckout_DeliveryDetails(t *testing.T) {
	h := newHarness(t)
	live := h.approved(t, nil)

	cases := map[string]func(r *services.CheckoutRequest){
		"missing payment":    func(r *services.CheckoutRequest) { r.PaymentMethod = "" },
		"unknown payment":    func(r *services.CheckoutRequest) { r.PaymentMethod = "barter" },
		"blank address":      func(r *services.CheckoutRequest) { r.DeliveryAddress = "   " },
		"missing contact no": func(r *services.CheckoutRequest) { r.ContactNumber = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := cart(line(live.ID, 1))
			mutate(&req)
			_, err := h.checkoutSvc.Checkout(buyer, req)
			assert.True(t, errors.Is(err, apperrors.ErrValidation), "got %v", err)
		})
	}
	assert.Equal(t, 10.0, h.listing(t, live.ID).Quantity)
}

func TestCheckout_RequiresBuyer(t *testing.T) {
	h := newHarness(t)
	live := h.approved(t, nil)
	for _, actor := range []models.Actor{farmer, admin, {}} {
		_, err := h.checkoutSvc.Checkout(actor, cart(line(live.ID, 1)))
		assert.True(t, errors.Is(err, apperrors.ErrAuthorization))
	}
}
