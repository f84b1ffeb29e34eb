package revalidate

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// PubSubPublisher publishes revalidation events to a Google Pub/Sub topic.
type PubSubPublisher struct {
	client *pubsub.Client
	topic  string
}

// NewPubSubPublisher creates a client for projectID. An empty project is an error.
// A non-empty emulatorHost targets a local emulator without credentials.
func NewPubSubPublisher(ctx context.Context, projectID, topic, emulatorHost string) (*PubSubPublisher, error) {
	if projectID == "" {
		return nil, fmt.Errorf("failed to create Pub/Sub client: empty project id")
	}
	var opts []option.ClientOption
	if emulatorHost != "" {
		opts = append(opts, option.WithEndpoint(emulatorHost), option.WithoutAuthentication())
	}
	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Pub/Sub client: %w", err)
	}
	return &PubSubPublisher{client: client, topic: topic}, nil
}

// Publish sends payload to the configured topic and returns the message ID.
func (p *PubSubPublisher) Publish(ctx context.Context, payload []byte) (string, error) {
	result := p.client.Topic(p.topic).Publish(ctx, &pubsub.Message{Data: payload})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to publish message to topic %s: %w", p.topic, err)
	}
	return id, nil
}

func (p *PubSubPublisher) Invalidate(ctx context.Context, userID string) error {
	data, err := encodeEvent(userID)
	if err != nil {
		return err
	}
	_, err = p.Publish(ctx, data)
	return err
}

func (p *PubSubPublisher) Close() error {
	return p.client.Close()
}
