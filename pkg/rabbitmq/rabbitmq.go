package rabbitmq

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"
	amqp "github.com/streadway/amqp"
)

var errNoChannel = errors.New("RabbitMQ channel is not available")

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	mu      sync.Mutex // amqp channels are not safe for concurrent publishing
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL      string
	Exchange string // topic exchange declared on connect
}

// NewClient creates a new RabbitMQ client.
// It connects to RabbitMQ, opens a channel and declares the events exchange.
func NewClient(cfg Config) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close() // Close connection if channel creation fails
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		cfg.Exchange, // name
		"topic",      // kind
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", cfg.Exchange, err)
	}

	log.WithField("exchange", cfg.Exchange).Info("RabbitMQ client connected")

	return &Client{
		conn:    conn,
		channel: ch,
	}, nil
}

// Close closes the RabbitMQ channel and connection.
func (c *Client) Close() error {
	var result *multierror.Error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	return result.ErrorOrNil()
}

// Publish sends a persistent JSON message to exchange under routingKey.
func (c *Client) Publish(exchange, routingKey string, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel == nil {
		return errNoChannel
	}

	err := c.channel.Publish(
		exchange,   // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}

	log.WithFields(log.Fields{"exchange": exchange, "routing_key": routingKey}).Debug("Event published")
	return nil
}

// ConsumeEvents binds queue to exchange with bindingKey and hands every delivery
// to handler on a background goroutine. Deliveries whose handler fails are
// dropped rather than requeued.
func (c *Client) ConsumeEvents(exchange, queueName, bindingKey string, handler func(msg amqp.Delivery) error) error {
	if c.channel == nil {
		return errNoChannel
	}

	queue, err := c.channel.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", queueName, err)
	}
	if err := c.channel.QueueBind(queue.Name, bindingKey, exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", queueName, err)
	}

	msgs, err := c.channel.Consume(
		queue.Name, // queue
		"",         // consumer tag
		false,      // auto-ack
		false,      // exclusive
		false,      // no-local
		false,      // no-wait
		nil,        // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	log.WithFields(log.Fields{"queue": queue.Name, "binding": bindingKey}).Info("Waiting for events")

	go func() {
		for msg := range msgs {
			if err := handler(msg); err != nil {
				log.WithError(err).WithField("delivery_tag", msg.DeliveryTag).Error("Error processing event")
				if nackErr := msg.Nack(false, false); nackErr != nil {
					log.WithError(nackErr).Error("Error nacking event")
				}
				continue
			}
			if ackErr := msg.Ack(false); ackErr != nil {
				log.WithError(ackErr).Error("Error acking event")
			}
		}
		log.WithField("queue", queue.Name).Info("Event consumer stopped")
	}()

	return nil
}

// AuditEvent writes a structured log line for a marketplace event. It is the
// handler behind the optional audit consumer.
func AuditEvent(msg amqp.Delivery) error {
	var payload map[string]interface{}
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		return fmt.Errorf("event %s is not JSON: %w", msg.RoutingKey, err)
	}
	fields := log.Fields{"event": msg.RoutingKey}
	for k, v := range payload {
		fields[k] = v
	}
	log.WithFields(fields).Info("Audit")
	return nil
}
