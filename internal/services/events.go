package services

import (
	"encoding/json"

	log "github.com/sirupsen/logrus"
)

// Routing keys for marketplace events.
const (
	EventListingSubmitted = "listing.submitted"
	EventListingDecided   = "listing.decided"
	EventListingDeleted   = "listing.deleted"
	EventMessagePosted    = "message.posted"
	EventOrderPlaced      = "order.placed"
)

// Publisher sends an event body to an exchange. *rabbitmq.Client satisfies it.
type Publisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// Events publishes best effort: a broker failure is logged and never fails the
// operation that produced the event. The zero value publishes nothing.
type Events struct {
	pub      Publisher
	exchange string
}

func NewEvents(pub Publisher, exchange string) Events {
	return Events{pub: pub, exchange: exchange}
}

func (e Events) emit(routingKey string, payload interface{}) {
	if e.pub == nil {
		log.WithField("event", routingKey).Debug("Event publisher not configured. Skipping publication.")
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.WithError(err).WithField("event", routingKey).Error("Failed to marshal event")
		return
	}
	if err := e.pub.Publish(e.exchange, routingKey, body); err != nil {
		log.WithError(err).WithField("event", routingKey).Warn("Failed to publish event")
	}
}
