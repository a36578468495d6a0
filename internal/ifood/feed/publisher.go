package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
)

type publisher struct {
	topic *pubsub.Publisher
}

// NewPublisher wraps a Pub/Sub publisher as the order feed.
func NewPublisher(topic *pubsub.Publisher) (Publisher, error) {
	if topic == nil {
		return nil, errors.New("feed topic is required")
	}
	return &publisher{topic: topic}, nil
}

func (p *publisher) PublishChange(ctx context.Context, change Change) error {
	data, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("encoding feed change: %w", err)
	}

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"type":          change.Type,
			"restaurant_id": change.RestaurantID.String(),
		},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publishing feed change: %w", err)
	}
	return nil
}
