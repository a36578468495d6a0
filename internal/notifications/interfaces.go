package notifications

import (
	"context"

	ifoodorders "github.com/comandahub/comanda-backend/internal/ifood/orders"
)

// Notifier emits user-facing notifications. Delivery failures must never
// block or fail the order pipeline; implementations log and move on.
type Notifier interface {
	OrderReceived(ctx context.Context, order ifoodorders.OrderView)
}
