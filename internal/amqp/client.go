// Package amqp carries analysis requests and results through RabbitMQ.
package amqp

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"irpfscan/internal/log"
)

// Circuit breaker states.
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures    = 5
	openTimeout    = 60 * time.Second
	publishTimeout = 5 * time.Second
)

// Client wraps one AMQP connection with a direct exchange and the two
// analysis queues bound to it. Publishing goes through a circuit breaker
// so a dead broker fails fast instead of stalling every request.
type Client struct {
	url          string
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	logger       *log.Logger

	failureCount int64
	state        int32
	lastFailure  int64 // UnixNano of the most recent failure
}

// NewClient connects, declares the exchange and the given queues, and
// binds each queue under its own name as routing key.
func NewClient(url, exchangeName string, queues []string, logger *log.Logger) (*Client, error) {
	client := &Client{
		url:          url,
		exchangeName: exchangeName,
		logger:       logger.WithComponent(log.ComponentAMQP),
	}

	if err := client.connect(); err != nil {
		return nil, err
	}
	if err := client.setup(queues); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queues: %w", err)
	}
	return client, nil
}

func (c *Client) connect() error {
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	c.conn = conn
	c.channel = channel
	return nil
}

func (c *Client) setup(queues []string) error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	for _, queue := range queues {
		_, err = c.channel.QueueDeclare(
			queue,
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", queue, err)
		}
		// Routing key equals the queue name on a direct exchange.
		if err := c.channel.QueueBind(queue, queue, c.exchangeName, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", queue, err)
		}
	}
	return nil
}

// Qos limits unacked deliveries per consumer.
func (c *Client) Qos(prefetch int) error {
	if err := c.channel.Qos(prefetch, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	return nil
}

// Publish sends one persistent message to a queue through the exchange.
func (c *Client) Publish(ctx context.Context, queue string, body []byte) error {
	if c.isCircuitOpen() {
		return fmt.Errorf("publish to %s: circuit breaker is open", queue)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err := c.channel.PublishWithContext(
		ctx,
		c.exchangeName,
		queue, // routing key
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		c.recordFailure()
		return fmt.Errorf("publish message: %w", err)
	}

	c.recordSuccess()
	c.logger.Debug("message published",
		"exchange", c.exchangeName,
		"queue", queue,
		"bytes", len(body),
	)
	return nil
}

// Consume delivers queue messages to the handler until the context is
// cancelled. Handler errors requeue the message once; malformed or
// twice-failed deliveries are dropped. Lost connections are re-dialed
// with exponential backoff.
func (c *Client) Consume(ctx context.Context, queue string, handler func(context.Context, []byte) error) error {
	attempt := 0
	for {
		err := c.consumeLoop(ctx, queue, handler)
		switch {
		case err == nil || ctx.Err() != nil:
			return ctx.Err()
		case isConnectionError(err):
			delay := exponentialBackoff(attempt)
			attempt++
			c.logger.Warn("connection lost, reconnecting",
				"queue", queue,
				"attempt", attempt,
				"delay", delay.String(),
				log.FieldError, err.Error(),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			if err := c.reconnect(queue); err != nil {
				continue
			}
			attempt = 0
		default:
			return err
		}
	}
}

func (c *Client) consumeLoop(ctx context.Context, queue string, handler func(context.Context, []byte) error) error {
	msgs, err := c.channel.Consume(
		queue,
		"",    // consumer tag
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	c.logger.Info("consuming", "queue", queue)

	for {
		select {
		case <-ctx.Done():
			return nil
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel closed: connection closed")
			}
			if err := handler(ctx, delivery.Body); err != nil {
				c.logger.Error("message handling failed",
					"queue", queue,
					"redelivered", delivery.Redelivered,
					log.FieldError, err.Error(),
				)
				// One requeue attempt, then drop.
				delivery.Nack(false, !delivery.Redelivered)
				continue
			}
			delivery.Ack(false)
		}
	}
}

func (c *Client) reconnect(queue string) error {
	c.closeChannels()
	if err := c.connect(); err != nil {
		return err
	}
	return c.setup([]string{queue})
}

// Close releases the channel and connection.
func (c *Client) Close() error {
	c.closeChannels()
	return nil
}

func (c *Client) closeChannels() {
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) isCircuitOpen() bool {
	state := atomic.LoadInt32(&c.state)
	if state != StateOpen {
		return false
	}
	last := time.Unix(0, atomic.LoadInt64(&c.lastFailure))
	if time.Since(last) > openTimeout {
		atomic.StoreInt32(&c.state, StateHalfOpen)
		return false
	}
	return true
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

func (c *Client) recordFailure() {
	atomic.StoreInt64(&c.lastFailure, time.Now().UnixNano())
	if atomic.AddInt64(&c.failureCount, 1) >= maxFailures {
		atomic.StoreInt32(&c.state, StateOpen)
	}
}

// exponentialBackoff doubles from one second and caps at 30 seconds.
func exponentialBackoff(attempt int) time.Duration {
	if attempt > 4 {
		return 30 * time.Second
	}
	return time.Duration(1<<attempt) * time.Second
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range []string{
		"connection refused",
		"connection closed",
		"EOF",
		"broken pipe",
		"use of closed network connection",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
