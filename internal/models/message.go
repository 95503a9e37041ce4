package models

import "time"

// Message is one entry in a listing's conversation thread.
type Message struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Seq          int64     `json:"-" gorm:"index"` // insertion order for equal timestamps
	ListingID    uint      `json:"listing_id" gorm:"index"`
	SenderEmail  string    `json:"sender_email" gorm:"type:varchar(255)"`
	SenderName   string    `json:"sender_name" gorm:"type:varchar(100)"`
	SenderRole   Role      `json:"sender_role" gorm:"type:varchar(16)"`
	Body         string    `json:"body" gorm:"type:text"`
	SentAt       time.Time `json:"sent_at" gorm:"index"`
	ReadByFarmer bool      `json:"read_by_farmer"`
	ReadByAdmin  bool      `json:"read_by_admin"`
}

// NewMessage builds a message whose author has implicitly read it.
func NewMessage(listingID uint, sender Actor, body string, at time.Time) *Message {
	return &Message{
		ListingID:    listingID,
		SenderEmail:  sender.Email,
		SenderName:   sender.Name,
		SenderRole:   sender.Role,
		Body:         body,
		SentAt:       at,
		ReadByFarmer: sender.Role == RoleFarmer,
		ReadByAdmin:  sender.Role == RoleAdmin,
	}
}

// ReadBy reports whether role has read the message.
func (m *Message) ReadBy(role Role) bool {
	switch role {
	case RoleFarmer:
		return m.ReadByFarmer
	case RoleAdmin:
		return m.ReadByAdmin
	}
	return false
}

// MarkReadBy sets role's read flag. Messages authored by role are left alone.
func (m *Message) MarkReadBy(role Role) bool {
	if m.SenderRole == role || m.ReadBy(role) {
		return false
	}
	switch role {
	case RoleFarmer:
		m.ReadByFarmer = true
	case RoleAdmin:
		m.ReadByAdmin = true
	default:
		return false
	}
	return true
}

// UnreadFor reports whether the message counts towards role's unread badge.
func (m *Message) UnreadFor(role Role) bool {
	return m.SenderRole != role && !m.ReadBy(role)
}
