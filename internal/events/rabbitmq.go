package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/bryan-buckman/donorhub/internal/model"
)

const (
	publishTimeout = 5 * time.Second
	redialDelay    = 5 * time.Second
)

// connection is the part of *amqp.Connection the publisher needs.
type connection interface {
	NotifyClose(receiver chan *amqp.Error) chan *amqp.Error
	Close() error
}

// channel is the part of *amqp.Channel the publisher needs.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	NotifyClose(receiver chan *amqp.Error) chan *amqp.Error
	Close() error
}

type dialFunc func() (connection, channel, error)

// RabbitMQPublisher publishes events to a durable topic exchange.
type RabbitMQPublisher struct {
	mu          sync.RWMutex
	conn        connection
	channel     channel
	closed      bool
	exchange    string
	dial        dialFunc
	redialDelay time.Duration
	done        chan struct{}
}

var _ Publisher = (*RabbitMQPublisher)(nil)

// NewRabbitMQPublisher connects to url and declares exchange.
func NewRabbitMQPublisher(url, exchange string) (*RabbitMQPublisher, error) {
	d := func() (connection, channel, error) { return dial(url, exchange) }
	conn, ch, err := d()
	if err != nil {
		return nil, err
	}
	p := &RabbitMQPublisher{
		conn:        conn,
		channel:     ch,
		exchange:    exchange,
		dial:        d,
		redialDelay: redialDelay,
		done:        make(chan struct{}),
	}
	go p.handleReconnect(conn, ch)

	log.Info().Str("exchange", exchange).Msg("RabbitMQ publisher initialized")
	return p, nil
}

func dial(url, exchange string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("declare exchange: %w", err)
	}
	return conn, ch, nil
}

func (p *RabbitMQPublisher) UrgentPosted(ctx context.Context, req model.UrgentRequest) error {
	return p.publish(ctx, KeyUrgentPosted, urgentEnvelope(req))
}

func (p *RabbitMQPublisher) DonorRegistered(ctx context.Context, donor model.Donor) error {
	return p.publish(ctx, KeyDonorRegistered, donorEnvelope(donor))
}

func (p *RabbitMQPublisher) AppointmentScheduled(ctx context.Context, appt model.Appointment, camp model.Camp) error {
	return p.publish(ctx, KeyAppointmentScheduled, appointmentEnvelope(appt, camp))
}

func (p *RabbitMQPublisher) publish(ctx context.Context, routingKey string, env Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	p.mu.RLock()
	ch := p.channel
	p.mu.RUnlock()
	if ch == nil {
		return errors.New("RabbitMQ channel is closed")
	}

	err = ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
		Timestamp:    env.OccurredAt,
		Type:         env.Type,
		MessageId:    fmt.Sprintf("%d", time.Now().UnixNano()),
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}

	log.Debug().
		Str("routing_key", routingKey).
		Str("exchange", p.exchange).
		Int("body_size", len(body)).
		Msg("Event published")
	return nil
}

// handleReconnect redials when the broker drops the connection or just the
// channel, until Close is called.
func (p *RabbitMQPublisher) handleReconnect(conn connection, ch channel) {
	for {
		connClosed := conn.NotifyClose(make(chan *amqp.Error, 1))
		chClosed := ch.NotifyClose(make(chan *amqp.Error, 1))

		var cause *amqp.Error
		select {
		case <-p.done:
			return
		case cause = <-connClosed:
		case cause = <-chClosed:
		}
		if p.isClosed() {
			return
		}
		ev := log.Error()
		if cause != nil {
			ev = ev.Str("reason", cause.Reason).Int("code", cause.Code)
		}
		ev.Msg("RabbitMQ connection lost, reconnecting")

		p.mu.Lock()
		p.channel = nil
		p.mu.Unlock()
		// The connection may still be open when only the channel died.
		if err := conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			log.Debug().Err(err).Msg("Closing stale RabbitMQ connection")
		}

		var ok bool
		conn, ch, ok = p.redial()
		if !ok {
			return
		}
		log.Info().Msg("Reconnected to RabbitMQ")
	}
}

// redial dials until it succeeds or the publisher is closed. ok is false
// in the latter case; a connection that completes after Close is released.
func (p *RabbitMQPublisher) redial() (connection, channel, bool) {
	for {
		select {
		case <-p.done:
			return nil, nil, false
		case <-time.After(p.redialDelay):
		}
		conn, ch, err := p.dial()
		if err != nil {
			log.Error().Err(err).Msg("Failed to reconnect to RabbitMQ")
			continue
		}

		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			ch.Close()
			conn.Close()
			return nil, nil, false
		}
		p.conn = conn
		p.channel = ch
		p.mu.Unlock()
		return conn, ch, true
	}
}

func (p *RabbitMQPublisher) isClosed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

// Close stops reconnecting and closes the connection.
func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	close(p.done)

	p.channel = nil
	conn := p.conn
	p.conn = nil
	if conn == nil {
		return nil
	}
	if err := conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		return fmt.Errorf("close RabbitMQ connection: %w", err)
	}
	log.Info().Msg("RabbitMQ publisher closed")
	return nil
}
