package feed

import (
	"context"

	"github.com/google/uuid"

	ifoodorders "github.com/comandahub/comanda-backend/internal/ifood/orders"
)

// Change types carried on the order feed.
const (
	TypeInsert = "INSERT"
	TypeUpdate = "UPDATE"
	TypeDelete = "DELETE"
)

// Change is one mirror mutation broadcast to connected clients.
type Change struct {
	Type         string                `json:"type"`
	RestaurantID uuid.UUID             `json:"restaurant_id"`
	Order        ifoodorders.OrderView `json:"order"`
}

// Publisher broadcasts mirror changes. Implementations must not block the
// webhook path on delivery; failures are the caller's to log, never to
// propagate into webhook acknowledgment.
type Publisher interface {
	PublishChange(ctx context.Context, change Change) error
}
