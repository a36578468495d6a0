package commands

import (
	"context"

	"github.com/comandahub/comanda-backend/internal/ifood/events"
	"github.com/comandahub/comanda-backend/pkg/ifood"
)

// MarketplaceClient is the slice of the iFood API the command gateway drives.
type MarketplaceClient interface {
	Confirm(ctx context.Context, token, orderID string) error
	Reject(ctx context.Context, token, orderID string, params ifood.RejectParams) error
	StartPreparation(ctx context.Context, token, orderID string) error
	ReadyToPickup(ctx context.Context, token, orderID string) error
	Dispatch(ctx context.Context, token, orderID string) error
	RequestCancellation(ctx context.Context, token, orderID string, params ifood.RejectParams) error
	CancellationReasons(ctx context.Context, token, orderID string) ([]ifood.CancellationReason, error)
	Tracking(ctx context.Context, token, orderID string) (*ifood.Tracking, error)
	VerifyPickupCode(ctx context.Context, token, orderID, code string) (bool, error)
	PollEvents(ctx context.Context, token string) ([]ifood.PollingEvent, error)
	AcknowledgeEvents(ctx context.Context, token string, eventIDs []string) error
}

// EventPipeline runs normalized events through the same sync path webhooks
// use, so polled events cannot drift from pushed ones.
type EventPipeline interface {
	ProcessBatch(ctx context.Context, batch []events.Event) (int, error)
}
