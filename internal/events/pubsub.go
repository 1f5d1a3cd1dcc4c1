package events

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"
)

// PubSubPublisher implements Publisher on Google Cloud Pub/Sub.
// Authentication uses Application Default Credentials.
type PubSubPublisher struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

// NewPubSubPublisher creates a client and verifies the topic exists.
func NewPubSubPublisher(ctx context.Context, projectID, topicID string, logger *zap.Logger) (*PubSubPublisher, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}

	topic := client.Topic(topicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		if closeErr := client.Close(); closeErr != nil {
			logger.Warn("closing pubsub client after topic check failure", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("check pubsub topic %q: %w", topicID, err)
	}
	if !exists {
		if closeErr := client.Close(); closeErr != nil {
			logger.Warn("closing pubsub client after topic check failure", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("pubsub topic %q does not exist in project %q", topicID, projectID)
	}

	return &PubSubPublisher{client: client, topic: topic}, nil
}

// PublishRunCompleted publishes the event as JSON and waits for the server
// acknowledgment.
func (p *PubSubPublisher) PublishRunCompleted(ctx context.Context, event RunCompleted) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode run event: %w", err)
	}
	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       payload,
		Attributes: map[string]string{"run_id": event.RunID},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish run event: %w", err)
	}
	return nil
}

// Close stops the topic's publish goroutines and closes the client.
func (p *PubSubPublisher) Close() error {
	p.topic.Stop()
	if err := p.client.Close(); err != nil {
		return fmt.Errorf("close pubsub client: %w", err)
	}
	return nil
}
