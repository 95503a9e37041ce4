package rabbitmq

import (
	"os"
	"testing"
	"time"

	amqp "github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_WithoutChannel(t *testing.T) {
	c := &Client{}
	assert.ErrorIs(t, c.Publish("harvestiq.events", "order.placed", []byte(`{}`)), errNoChannel)
	assert.ErrorIs(t, c.ConsumeEvents("harvestiq.events", "audit", "#", AuditEvent), errNoChannel)
	assert.NoError(t, c.Close())
}

func TestAuditEvent(t *testing.T) {
	assert.NoError(t, AuditEvent(amqp.Delivery{RoutingKey: "listing.decided", Body: []byte(`{"listing_id":3,"status":"Approved"}`)}))
	assert.Error(t, AuditEvent(amqp.Delivery{RoutingKey: "listing.decided", Body: []byte("not json")}))
}

// TestClient_RoundTrip needs a broker; set RABBITMQ_TEST_URL to run it.
func TestClient_RoundTrip(t *testing.T) {
	url := os.Getenv("RABBITMQ_TEST_URL")
	if url == "" {
		t.Skip("RABBITMQ_TEST_URL not set")
	}
	const exchange = "harvestiq.test.events"
	c, err := NewClient(Config{URL: url, Exchange: exchange})
	require.NoError(t, err)
	defer c.Close()

	got := make(chan string, 1)
	err = c.ConsumeEvents(exchange, "harvestiq.test.audit", "order.*", func(msg amqp.Delivery) error {
		got <- msg.RoutingKey
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, c.Publish(exchange, "order.placed", []byte(`{"order_id":"x"}`)))

	select {
	case key := <-got:
		assert.Equal(t, "order.placed", key)
	case <-time.After(5 * time.Second):
		t.Fatal("event not delivered")
	}
}
