package services

import (
	"fmt"
	"strings"
	"time"

	"harvestiq/internal/metrics"
	"harvestiq/internal/models"
	"harvestiq/internal/repositories"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type messageEvent struct {
	MessageID  string      `json:"message_id"`
	ListingID  uint        `json:"listing_id"`
	SenderRole models.Role `json:"sender_role"`
	Sender     string      `json:"sender"`
	SentAt     time.Time   `json:"sent_at"`
}

// ConversationService manages the thread between a listing's farmer and the admins.
type ConversationService struct {
	listings repositories.ListingRepository
	messages repositories.MessageRepository
	events   Events
	now      func() time.Time
}

// NewConversationService creates a new ConversationService.
func NewConversationService(listings repositories.ListingRepository, messages repositories.MessageRepository, events Events) *ConversationService {
	return &ConversationService{
		listings: listings,
		messages: messages,
		events:   events,
		now:      time.Now,
	}
}

// participant checks that actor is an admin or the farmer who owns the listing.
func (s *ConversationService) participant(actor models.Actor, listingID uint) (*models.Listing, error) {
	roles := []models.Role{models.RoleAdmin, models.RoleFarmer}
	if err := Authorize(actor, Requirement{Roles: roles}); err != nil {
		return nil, err
	}
	listing, err := s.listings.GetByID(listingID)
	if err != nil {
		return nil, err
	}
	if err := Authorize(actor, Requirement{Roles: roles, OwnerEmail: listing.OwnerEmail}); err != nil {
		return nil, err
	}
	return listing, nil
}

// PostMessage appends body to the listing's thread. A blank body is ignored and
// yields a nil message with no error.
func (s *ConversationService) PostMessage(actor models.Actor, listingID uint, body string) (*models.Message, error) {
	if _, err := s.participant(actor, listingID); err != nil {
		return nil, err
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, nil
	}

	msg := models.NewMessage(listingID, actor, body, s.now())
	msg.ID = uuid.New().String()
	if err := s.messages.Create(msg); err != nil {
		return nil, fmt.Errorf("failed to post message: %w", err)
	}

	metrics.RecordMessagePosted(string(actor.Role))
	log.WithFields(log.Fields{"listing_id": listingID, "sender": actor.Email, "role": actor.Role}).Debug("Message posted")
	s.events.emit(EventMessagePosted, messageEvent{
		MessageID: msg.ID, ListingID: listingID, SenderRole: actor.Role, Sender: actor.Email, SentAt: msg.SentAt,
	})
	return msg, nil
}

// OpenThread marks the counterpart's messages as read by actor's role and returns
// the whole thread in order. Opening an already read thread changes nothing.
func (s *ConversationService) OpenThread(actor models.Actor, listingID uint) ([]models.Message, error) {
	if _, err := s.participant(actor, listingID); err != nil {
		return nil, err
	}
	changed, err := s.messages.MarkRead(listingID, actor.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to mark thread read: %w", err)
	}
	if changed > 0 {
		log.WithFields(log.Fields{"listing_id": listingID, "viewer": actor.Role, "marked": changed}).Debug("Thread marked read")
	}
	return s.messages.GetByListing(listingID)
}

// UnreadCountFor counts the counterpart's messages actor's role has not read yet.
func (s *ConversationService) UnreadCountFor(actor models.Actor, listingID uint) (int, error) {
	if _, err := s.participant(actor, listingID); err != nil {
		return 0, err
	}
	return s.messages.CountUnread(listingID, actor.Role)
}
