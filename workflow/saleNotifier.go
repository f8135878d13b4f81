package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/storefront_backend/config"
	"bitbucket.org/mmdatafocus/storefront_backend/models"
	"cloud.google.com/go/pubsub"
	"github.com/google/uuid"
)

const (
	EventSaleCommitted    = "sale.committed"
	defaultPublishTimeout = 10 * time.Second
)

// SaleNotifier announces committed sales. Failures never affect the sale.
type SaleNotifier interface {
	NotifySale(ctx context.Context, record models.SaleRecord) error
}

type PubSubNotifier struct {
	topic   *pubsub.Topic
	Timeout time.Duration
}

// NewPubSubNotifier publishes to topicName, creating the topic when it is missing.
func NewPubSubNotifier(ctx context.Context, client *pubsub.Client, topicName string) (*PubSubNotifier, error) {
	if client == nil {
		return nil, errors.New("pubsub client is nil")
	}
	topic, err := config.CreateTopicIfNotExists(ctx, client, topicName)
	if err != nil {
		return nil, err
	}
	return &PubSubNotifier{topic: topic, Timeout: defaultPublishTimeout}, nil
}

func (n *PubSubNotifier) NotifySale(ctx context.Context, record models.SaleRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal sale: %w", err)
	}

	timeout := n.Timeout
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result := n.topic.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"event":         EventSaleCommitted,
			"eventId":       uuid.NewString(),
			"committedAt":   record.CommittedAt,
			"paymentMethod": string(record.PaymentMethod),
		},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish sale: %w", err)
	}
	return nil
}

// Stop flushes pending publishes.
func (n *PubSubNotifier) Stop() {
	if n != nil && n.topic != nil {
		n.topic.Stop()
	}
}
