// Package pubsub publishes persisted-act notifications to Google Cloud
// Pub/Sub for downstream consumers such as the relevance scorer.
package pubsub

import (
	"context"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

// Config identifies the topic that receives act notifications.
type Config struct {
	ProjectID string
	TopicID   string
}

// Notifier publishes one message per persisted act. The message body is the
// CELEX number; trace context rides along in the attributes.
type Notifier struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
	logger    *zap.Logger
}

func fullTopicName(projectID, topicID string) string {
	return fmt.Sprintf("projects/%s/topics/%s", projectID, topicID)
}

// New connects a Pub/Sub client and verifies the topic is active so a
// misconfigured deployment fails at startup. Authentication is handled via
// Application Default Credentials.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Notifier, error) {
	if cfg.ProjectID == "" || cfg.TopicID == "" {
		return nil, fmt.Errorf("pubsub project and topic are required")
	}
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	name := fullTopicName(cfg.ProjectID, cfg.TopicID)
	topic, err := client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: name})
	if err != nil {
		if closeErr := client.Close(); closeErr != nil && logger != nil {
			logger.Warn("close pubsub client after topic lookup failure", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("get pubsub topic %q: %w", cfg.TopicID, err)
	}
	if topic.State != pubsubpb.Topic_ACTIVE {
		if closeErr := client.Close(); closeErr != nil && logger != nil {
			logger.Warn("close pubsub client after topic state check", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("pubsub topic %q is not active", cfg.TopicID)
	}
	return NewWithClient(client, name, logger), nil
}

// NewWithClient wraps an existing client and topic name (primarily for
// testing against pstest).
func NewWithClient(client *pubsub.Client, topicName string, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{
		client:    client,
		publisher: client.Publisher(topicName),
		logger:    logger,
	}
}

// Publish sends the CELEX number and waits for the server acknowledgement.
func (n *Notifier) Publish(ctx context.Context, celex string) error {
	if celex == "" {
		return fmt.Errorf("celex number is required")
	}
	msg := &pubsub.Message{
		Data:       []byte(celex),
		Attributes: map[string]string{"celex": celex},
	}
	otel.GetTextMapPropagator().Inject(ctx, &pubsubCarrier{attrs: msg.Attributes})

	result := n.publisher.Publish(ctx, msg)
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish act notification: %w", err)
	}
	return nil
}

// Close stops the publisher and closes the underlying client connection.
func (n *Notifier) Close() error {
	if n.publisher != nil {
		n.publisher.Stop()
	}
	if err := n.client.Close(); err != nil {
		return fmt.Errorf("close pubsub client: %w", err)
	}
	return nil
}

// pubsubCarrier implements propagation.TextMapCarrier for Pub/Sub attributes.
type pubsubCarrier struct {
	attrs map[string]string
}

func (c *pubsubCarrier) Get(key string) string {
	return c.attrs[key]
}

func (c *pubsubCarrier) Set(key, value string) {
	c.attrs[key] = value
}

func (c *pubsubCarrier) Keys() []string {
	keys := make([]string, 0, len(c.attrs))
	for k := range c.attrs {
		keys = append(keys, k)
	}
	return keys
}
