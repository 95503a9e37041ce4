package models

import "time"

// ListingStatus is the review/sales state of a listing.
type ListingStatus string

const (
	StatusPending  ListingStatus = "Pending"
	StatusApproved ListingStatus = "Approved"
	StatusRejected ListingStatus = "Rejected"
	StatusSoldOut  ListingStatus = "SoldOut"
)

// listingTransitions is the complete set of legal status changes.
var listingTransitions = map[ListingStatus][]ListingStatus{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {StatusSoldOut},
	StatusRejected: nil,
	StatusSoldOut:  nil,
}

// Valid reports whether s is a known status.
func (s ListingStatus) Valid() bool {
	_, ok := listingTransitions[s]
	return ok
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s ListingStatus) CanTransitionTo(next ListingStatus) bool {
	for _, allowed := range listingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Visible reports whether listings in this status are readable by every role.
func (s ListingStatus) Visible() bool {
	return s == StatusApproved || s == StatusSoldOut
}

// Decision is the admin's review outcome for a pending listing.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Target returns the status a decision moves a pending listing to.
func (d Decision) Target() (ListingStatus, bool) {
	switch d {
	case DecisionApprove:
		return StatusApproved, true
	case DecisionReject:
		return StatusRejected, true
	}
	return "", false
}

// Listing is a farmer's produce offering.
type Listing struct {
	ID           uint          `json:"id" gorm:"primaryKey;autoIncrement"`
	OwnerEmail   string        `json:"owner_email" gorm:"type:varchar(255);index"`
	OwnerName    string        `json:"owner_name" gorm:"type:varchar(100)"`
	Name         string        `json:"name" gorm:"type:varchar(100)"`
	Category     string        `json:"category" gorm:"type:varchar(50);index"`
	Description  string        `json:"description" gorm:"type:text"`
	Quantity     float64       `json:"quantity"`
	Unit         string        `json:"unit" gorm:"type:varchar(20)"`
	UnitPrice    float64       `json:"unit_price"`
	HarvestDate  string        `json:"harvest_date" gorm:"type:varchar(10)"`
	DurationDays int           `json:"duration_days"`
	Status       ListingStatus `json:"status" gorm:"type:varchar(16);index"`
	ImageRef     string        `json:"image_ref,omitempty" gorm:"type:varchar(255)"`
	CreatedAt    time.Time     `json:"created_at" gorm:"index"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// ListingQuery filters the marketplace view.
type ListingQuery struct {
	Text     string
	Category string
}

// ListingSummary pairs a listing with the viewer's unread message count.
type ListingSummary struct {
	Listing
	Unread int `json:"unread"`
}
