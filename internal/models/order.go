package models

import "time"

const OrderStatusPending = "Pending"

// Order is a purchase of one listing line. Listing, farmer and price fields are
// copied at checkout and never follow later listing changes.
type Order struct {
	ID              string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	BuyerEmail      string    `json:"buyer_email" gorm:"type:varchar(255);index"`
	BuyerName       string    `json:"buyer_name" gorm:"type:varchar(100)"`
	ListingID       uint      `json:"listing_id" gorm:"index"`
	ListingName     string    `json:"listing_name" gorm:"type:varchar(100)"`
	FarmerEmail     string    `json:"farmer_email" gorm:"type:varchar(255);index"`
	FarmerName      string    `json:"farmer_name" gorm:"type:varchar(100)"`
	Quantity        float64   `json:"quantity"`
	Unit            string    `json:"unit" gorm:"type:varchar(20)"`
	UnitPrice       float64   `json:"unit_price"`
	TotalAmount     float64   `json:"total_amount"`
	PaymentMethod   string    `json:"payment_method" gorm:"type:varchar(32)"`
	DeliveryAddress string    `json:"delivery_address" gorm:"type:text"`
	ContactNumber   string    `json:"contact_number" gorm:"type:varchar(32)"`
	Status          string    `json:"status" gorm:"type:varchar(16)"`
	CreatedAt       time.Time `json:"created_at" gorm:"index"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CartLine is one requested listing and quantity in a checkout.
type CartLine struct {
	ListingID         uint    `json:"listing_id"`
	RequestedQuantity float64 `json:"requested_quantity"`
}
