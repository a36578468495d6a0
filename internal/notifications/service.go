package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"

	ifoodorders "github.com/comandahub/comanda-backend/internal/ifood/orders"
	"github.com/comandahub/comanda-backend/pkg/logger"
)

const typeOrderReceived = "ifood_order_received"

// payload is what frontends consume: enough to raise a toast and decide
// whether to loop the new-order sound.
type payload struct {
	Type         string    `json:"type"`
	RestaurantID string    `json:"restaurant_id"`
	OrderID      string    `json:"order_id"`
	DisplayID    string    `json:"display_id,omitempty"`
	Title        string    `json:"title"`
	Message      string    `json:"message"`
	PlaySound    bool      `json:"play_sound"`
	SentAt       time.Time `json:"sent_at"`
}

type service struct {
	topic *pubsub.Publisher
	logg  *logger.Logger
}

// ServiceParams wires the notification publisher.
type ServiceParams struct {
	Topic  *pubsub.Publisher
	Logger *logger.Logger
}

// NewService builds the Pub/Sub backed notifier.
func NewService(params ServiceParams) (Notifier, error) {
	if params.Topic == nil {
		return nil, errors.New("notification topic is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	return &service{topic: params.Topic, logg: params.Logger}, nil
}

func (s *service) OrderReceived(ctx context.Context, order ifoodorders.OrderView) {
	message := "New iFood order received"
	if order.DisplayID != "" {
		message = "New iFood order #" + order.DisplayID
	}

	data, err := json.Marshal(payload{
		Type:         typeOrderReceived,
		RestaurantID: order.RestaurantID.String(),
		OrderID:      order.IFoodOrderID,
		DisplayID:    order.DisplayID,
		Title:        "New order",
		Message:      message,
		PlaySound:    true,
		SentAt:       time.Now().UTC(),
	})
	if err != nil {
		s.logg.Error(ctx, "encoding order notification", err)
		return
	}

	result := s.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{"type": typeOrderReceived},
	})
	if _, err := result.Get(ctx); err != nil {
		s.logg.Error(ctx, "publishing order notification", err)
	}
}
