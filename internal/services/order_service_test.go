package services_test

import (
	"errors"
	"testing"

	"harvestiq/internal/apperrors"
	"harvestiq/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderService_Access(t *testing.T) {
	h := newHarness(t)
	live := h.approved(t, nil)
	otherBuyer := models.Actor{Email: "second@test.com", Name: "Second Buyer", Role: models.RoleBuyer}

	mine, err := h.checkoutSvc.Checkout(buyer, cart(line(live.ID, 1)))
	require.NoError(t, err)
	_, err = h.checkoutSvc.Checkout(otherBuyer, cart(line(live.ID, 2)))
	require.NoError(t, err)

	orders, err := h.orderSvc.ListForActor(buyer)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, buyer.Email, orders[0].BuyerEmail)

	all, err := h.orderSvc.ListForActor(admin)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	id := mine.Orders[0].ID
	order, err := h.orderSvc.Get(buyer, id)
	require.NoError(t, err)
	assert.Equal(t, id, order.ID)

	_, err = h.orderSvc.Get(admin, id)
	assert.NoError(t, err)

	_, err = h.orderSvc.Get(otherBuyer, id)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	_, err = h.orderSvc.ListForActor(farmer)
	assert.True(t, errors.Is(err, apperrors.ErrAuthorization))
	_, err = h.orderSvc.Get(farmer, id)
	assert.True(t, errors.Is(err, apperrors.ErrAuthorization))
}
