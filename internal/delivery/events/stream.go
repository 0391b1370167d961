package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Pesokrava/product_catalog/internal/pkg/logger"
	"github.com/Pesokrava/product_catalog/internal/usecase/product"
)

const (
	// StreamName is the JetStream stream holding catalog events
	StreamName = "CATALOG"

	// NotifierConsumer is the durable consumer used by the notifier
	NotifierConsumer = "catalog-notifier"

	// MaxDeliveryAttempts bounds redelivery of a failing event
	MaxDeliveryAttempts = 5

	// AckWait is how long the server waits for an ack before redelivery
	AckWait = 30 * time.Second

	streamMaxAge = 7 * 24 * time.Hour
)

// StreamManager creates the catalog stream and its consumers
type StreamManager struct {
	js     nats.JetStreamContext
	logger *logger.Logger
}

// NewStreamManager creates a new stream manager
func NewStreamManager(js nats.JetStreamContext, log *logger.Logger) *StreamManager {
	return &StreamManager{
		js:     js,
		logger: log,
	}
}

// generateExponentialBackoff returns 1s, 2s, 4s, ... for the redeliveries
// following the first attempt.
func generateExponentialBackoff(maxDeliveryAttempts int) []time.Duration {
	if maxDeliveryAttempts <= 1 {
		return nil
	}

	backoff := make([]time.Duration, maxDeliveryAttempts-1)
	for i := range backoff {
		backoff[i] = time.Duration(1<<i) * time.Second
	}
	return backoff
}

func streamConfig() *nats.StreamConfig {
	return &nats.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{product.EventsSubject},
		Retention:   nats.LimitsPolicy,
		Storage:     nats.FileStorage,
		Replicas:    1,
		MaxAge:      streamMaxAge,
		Discard:     nats.DiscardOld,
		Description: "Product catalog change events",
	}
}

func notifierConsumerConfig() *nats.ConsumerConfig {
	return &nats.ConsumerConfig{
		Durable:       NotifierConsumer,
		AckPolicy:     nats.AckExplicitPolicy,
		AckWait:       AckWait,
		MaxDeliver:    MaxDeliveryAttempts,
		FilterSubject: product.EventsSubject,
		BackOff:       generateExponentialBackoff(MaxDeliveryAttempts),
		Description:   "Notifier consumer for catalog events",
	}
}

// EnsureStream creates the catalog stream if it does not exist yet
func (s *StreamManager) EnsureStream() error {
	stream, err := s.js.StreamInfo(StreamName)

	if errors.Is(err, nats.ErrStreamNotFound) {
		s.logger.WithFields(map[string]any{
			"stream":   StreamName,
			"subjects": product.EventsSubject,
		}).Info("Creating JetStream stream")

		if _, err = s.js.AddStream(streamConfig()); err != nil {
			return fmt.Errorf("failed to create stream: %w", err)
		}
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to get stream info: %w", err)
	}

	s.logger.WithFields(map[string]any{
		"stream":   stream.Config.Name,
		"messages": stream.State.Msgs,
	}).Info("JetStream stream already exists")

	return nil
}

// EnsureNotifierConsumer creates the durable notifier consumer if needed
func (s *StreamManager) EnsureNotifierConsumer() error {
	info, err := s.js.ConsumerInfo(StreamName, NotifierConsumer)

	if errors.Is(err, nats.ErrConsumerNotFound) {
		s.logger.WithFields(map[string]any{
			"stream":   StreamName,
			"consumer": NotifierConsumer,
		}).Info("Creating JetStream consumer")

		if _, err = s.js.AddConsumer(StreamName, notifierConsumerConfig()); err != nil {
			return fmt.Errorf("failed to create consumer: %w", err)
		}
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to get consumer info: %w", err)
	}

	s.logger.WithFields(map[string]any{
		"consumer":    info.Name,
		"pending":     info.NumPending,
		"ack_pending": info.NumAckPending,
	}).Info("JetStream consumer already exists")

	return nil
}
