package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"estatehub/internal/middleware"
	"estatehub/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
)

// InquiryRoutingKey is the routing key new inquiries are published with.
const InquiryRoutingKey = "inquiry.created"

// InquiryPublisher fans new inquiries out to a RabbitMQ topic exchange so
// dealers and mail workers can react to them.
type InquiryPublisher struct {
	mu         sync.Mutex
	exchange   string
	connection *amqp.Connection
	channel    *amqp.Channel
}

// NewInquiryPublisher dials url and declares a durable topic exchange.
func NewInquiryPublisher(url, exchange string) (*InquiryPublisher, error) {
	if url == "" {
		return nil, errors.New("inquiry publisher: AMQP_URL is empty")
	}
	if exchange == "" {
		return nil, errors.New("inquiry publisher: exchange name is required")
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("inquiry publisher: failed to dial RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("inquiry publisher: failed to open a channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("inquiry publisher: failed to declare exchange %q: %w", exchange, err)
	}

	middleware.Logger.Info("Inquiry publisher connected", "exchange", exchange)
	return &InquiryPublisher{exchange: exchange, connection: conn, channel: ch}, nil
}

// PublishInquiry sends msg as a persistent JSON message.
func (p *InquiryPublisher) PublishInquiry(ctx context.Context, msg *models.Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("inquiry publisher: marshal: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel == nil || p.connection == nil || p.connection.IsClosed() {
		return errors.New("inquiry publisher: not connected or channel/connection is closed")
	}

	err = p.channel.PublishWithContext(ctx, p.exchange, InquiryRoutingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ID,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("inquiry publisher: failed to publish message: %w", err)
	}
	return nil
}

// Close closes the channel and connection.
func (p *InquiryPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			firstErr = err
		}
		p.channel = nil
	}
	if p.connection != nil {
		if err := p.connection.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		p.connection = nil
	}
	return firstErr
}
