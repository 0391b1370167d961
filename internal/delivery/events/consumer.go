package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Pesokrava/product_catalog/internal/config"
	"github.com/Pesokrava/product_catalog/internal/pkg/logger"
	"github.com/Pesokrava/product_catalog/internal/usecase/product"
)

const (
	fetchBatch   = 10
	fetchMaxWait = 5 * time.Second
)

// Handler processes a single event payload
type Handler func(data []byte) error

// Consumer pulls catalog events from the durable notifier consumer
type Consumer struct {
	nc     *nats.Conn
	js     nats.JetStreamContext
	logger *logger.Logger
}

// NewConsumer connects to NATS and ensures the stream and consumer exist
func NewConsumer(cfg *config.Config, log *logger.Logger) (*Consumer, error) {
	nc, err := nats.Connect(cfg.NATS.URL, nats.Name("product-catalog-notifier"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	streams := NewStreamManager(js, log)
	if err := streams.EnsureStream(); err != nil {
		nc.Close()
		return nil, err
	}
	if err := streams.EnsureNotifierConsumer(); err != nil {
		nc.Close()
		return nil, err
	}

	log.Infof("Connected to NATS at %s", cfg.NATS.URL)

	return &Consumer{
		nc:     nc,
		js:     js,
		logger: log,
	}, nil
}

// Run fetches events until ctx is cancelled. Handled events are acked,
// failed ones are nacked and redelivered with backoff.
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	sub, err := c.js.PullSubscribe(product.EventsSubject, NotifierConsumer, nats.ManualAck())
	if err != nil {
		return fmt.Errorf("failed to subscribe to JetStream consumer: %w", err)
	}
	defer func() {
		if err := sub.Unsubscribe(); err != nil {
			c.logger.Warnf("Failed to unsubscribe from JetStream: %v", err)
		}
	}()

	c.logger.WithFields(map[string]any{
		"stream":   StreamName,
		"consumer": NotifierConsumer,
	}).Info("Subscribed to JetStream consumer")

	for {
		if ctx.Err() != nil {
			return nil
		}

		msgs, err := sub.Fetch(fetchBatch, nats.MaxWait(fetchMaxWait))
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			c.logger.Error("Failed to fetch messages from JetStream", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(fetchMaxWait):
			}
			continue
		}

		for _, msg := range msgs {
			c.dispatch(msg, handle)
		}
	}
}

func (c *Consumer) dispatch(msg *nats.Msg, handle Handler) {
	if err := handle(msg.Data); err != nil {
		c.logger.Error("Failed to handle catalog event", err)
		if nakErr := msg.Nak(); nakErr != nil {
			c.logger.Error("Failed to NAK message", nakErr)
		}
		return
	}

	if err := msg.Ack(); err != nil {
		c.logger.Error("Failed to ACK message", err)
	}
}

// Close closes the NATS connection
func (c *Consumer) Close() {
	if c.nc != nil {
		c.nc.Close()
		c.logger.Info("NATS consumer connection closed")
	}
}

// LoggingHandler logs each catalog event
func LoggingHandler(log *logger.Logger) Handler {
	return func(data []byte) error {
		var event product.ProductEvent
		if err := json.Unmarshal(data, &event); err != nil {
			return fmt.Errorf("failed to unmarshal catalog event: %w", err)
		}
		if event.EventType == "" {
			return errors.New("catalog event without event_type")
		}

		fields := map[string]any{
			"event_type": event.EventType,
			"product_id": event.ProductID,
			"timestamp":  event.Timestamp,
		}
		if event.Product != nil {
			fields["name"] = event.Product.Name
			fields["price"] = event.Product.Price
			fields["stock"] = event.Product.Stock
		}

		log.WithFields(fields).Info("Received catalog event")
		return nil
	}
}
