package services

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"harvestiq/internal/apperrors"
	"harvestiq/internal/metrics"
	"harvestiq/internal/models"
	"harvestiq/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Reasons reported for cart lines that did not become orders.
const (
	SkipNotFound          = "not_found"
	SkipNotAvailable      = "not_available"
	SkipInsufficientStock = "insufficient_stock"
	SkipFailed            = "failed"
)

// CheckoutRequest is a buyer's cart plus delivery details.
type CheckoutRequest struct {
	Lines           []models.CartLine `json:"lines"`
	PaymentMethod   string            `json:"payment_method" validate:"required,oneof=cash_on_delivery bank_transfer mobile_money"`
	DeliveryAddress string            `json:"delivery_address" validate:"required,max=500"`
	ContactNumber   string            `json:"contact_number" validate:"required,max=32"`
}

// SkippedLine reports a cart line that produced no order.
type SkippedLine struct {
	Index   int             `json:"index"`
	Line    models.CartLine `json:"line"`
	Reason  string          `json:"reason"`
	Message string          `json:"message"`
	err     error
}

// CheckoutResult lists the orders created and the lines skipped, in cart order.
type CheckoutResult struct {
	Orders  []models.Order `json:"orders"`
	Skipped []SkippedLine  `json:"skipped"`
}

// Err is nil when at least one order was created. Otherwise it aggregates the
// failure of every line, each keeping its error kind.
func (r *CheckoutResult) Err() error {
	if len(r.Orders) > 0 {
		return nil
	}
	var result *multierror.Error
	for _, s := range r.Skipped {
		result = multierror.Append(result, fmt.Errorf("line %d: %w", s.Index, s.err))
	}
	return result.ErrorOrNil()
}

type orderEvent struct {
	OrderID     string  `json:"order_id"`
	ListingID   uint    `json:"listing_id"`
	BuyerEmail  string  `json:"buyer_email"`
	FarmerEmail string  `json:"farmer_email"`
	Quantity    float64 `json:"quantity"`
	TotalAmount float64 `json:"total_amount"`
}

// CheckoutService turns carts into orders one line at a time.
type CheckoutService struct {
	tx       repositories.Transactor
	validate *validator.Validate
	events   Events
}

// NewCheckoutService creates a new CheckoutService.
func NewCheckoutService(tx repositories.Transactor, events Events) *CheckoutService {
	return &CheckoutService{
		tx:       tx,
		validate: validator.New(),
		events:   events,
	}
}

// Checkout processes every cart line in its own transaction. Lines that cannot
// be fulfilled are skipped and reported; the checkout fails only when no line
// produced an order, in which case the result is still returned with the error.
func (s *CheckoutService) Checkout(actor models.Actor, req CheckoutRequest) (*CheckoutResult, error) {
	if err := Authorize(actor, Roles(models.RoleBuyer)); err != nil {
		return nil, err
	}
	if err := s.checkRequest(&req); err != nil {
		return nil, err
	}

	result := &CheckoutResult{Orders: []models.Order{}, Skipped: []SkippedLine{}}
	for i, line := range req.Lines {
		order, err := s.placeLine(actor, line, req)
		if err != nil {
			skip := SkippedLine{Index: i, Line: line, Reason: skipReason(err), Message: err.Error(), err: err}
			result.Skipped = append(result.Skipped, skip)
			metrics.RecordCheckoutLine(skip.Reason)
			log.WithError(err).WithFields(log.Fields{"buyer": actor.Email, "line": i, "listing_id": line.ListingID}).Info("Checkout line skipped")
			continue
		}
		result.Orders = append(result.Orders, *order)
		metrics.RecordCheckoutLine("ordered")
		metrics.RecordOrder(order.TotalAmount)
	}

	for _, o := range result.Orders {
		s.events.emit(EventOrderPlaced, orderEvent{
			OrderID: o.ID, ListingID: o.ListingID, BuyerEmail: o.BuyerEmail, FarmerEmail: o.FarmerEmail,
			Quantity: o.Quantity, TotalAmount: o.TotalAmount,
		})
	}
	log.WithFields(log.Fields{"buyer": actor.Email, "orders": len(result.Orders), "skipped": len(result.Skipped)}).Info("Checkout processed")
	return result, result.Err()
}

// checkRequest rejects the whole submission before any line is attempted.
func (s *CheckoutService) checkRequest(req *CheckoutRequest) error {
	if len(req.Lines) == 0 {
		return apperrors.Malformed("cart is empty")
	}
	for i, line := range req.Lines {
		if line.ListingID == 0 {
			return apperrors.Malformed("line %d: listing id is required", i)
		}
		q := line.RequestedQuantity
		if math.IsNaN(q) || math.IsInf(q, 0) || q <= 0 {
			return apperrors.Malformed("line %d: requested quantity must be a positive number", i)
		}
	}
	req.PaymentMethod = strings.TrimSpace(req.PaymentMethod)
	req.DeliveryAddress = strings.TrimSpace(req.DeliveryAddress)
	req.ContactNumber = strings.TrimSpace(req.ContactNumber)
	if err := s.validate.Struct(req); err != nil {
		return validationError(err)
	}
	return nil
}

func (s *CheckoutService) placeLine(actor models.Actor, line models.CartLine, req CheckoutRequest) (*models.Order, error) {
	var order *models.Order
	err := s.tx.WithinTransaction(func(repos repositories.Repositories) error {
		listing, err := repos.Listings.GetByID(line.ListingID)
		if err != nil {
			return err
		}
		if listing.Status != models.StatusApproved {
			return apperrors.InvalidState("listing %d is %s", listing.ID, listing.Status)
		}
		// The store refuses to go below zero, so requesting more than is left
		// and losing a race to another checkout both end as InsufficientStock.
		updated, err := repos.Listings.AdjustQuantity(listing.ID, -line.RequestedQuantity)
		if err != nil {
			return err
		}
		order = newOrder(actor, updated, line.RequestedQuantity, req)
		if err := repos.Orders.Create(order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// newOrder snapshots the listing as it stood right after the stock was taken.
func newOrder(buyer models.Actor, listing *models.Listing, quantity float64, req CheckoutRequest) *models.Order {
	total := decimal.NewFromFloat(quantity).Mul(decimal.NewFromFloat(listing.UnitPrice)).Round(2)
	return &models.Order{
		ID:              uuid.New().String(),
		BuyerEmail:      buyer.Email,
		BuyerName:       buyer.Name,
		ListingID:       listing.ID,
		ListingName:     listing.Name,
		FarmerEmail:     listing.OwnerEmail,
		FarmerName:      listing.OwnerName,
		Quantity:        quantity,
		Unit:            listing.Unit,
		UnitPrice:       listing.UnitPrice,
		TotalAmount:     total.InexactFloat64(),
		PaymentMethod:   req.PaymentMethod,
		DeliveryAddress: req.DeliveryAddress,
		ContactNumber:   req.ContactNumber,
		Status:          models.OrderStatusPending,
	}
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return SkipNotFound
	case errors.Is(err, apperrors.ErrInvalidState):
		return SkipNotAvailable
	case errors.Is(err, apperrors.ErrInsufficientStock):
		return SkipInsufficientStock
	default:
		return SkipFailed
	}
}
