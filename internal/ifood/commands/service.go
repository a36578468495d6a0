package commands

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/comandahub/comanda-backend/internal/ifood/events"
	"github.com/comandahub/comanda-backend/internal/ifood/feed"
	"github.com/comandahub/comanda-backend/internal/ifood/lifecycle"
	ifoodorders "github.com/comandahub/comanda-backend/internal/ifood/orders"
	"github.com/comandahub/comanda-backend/internal/ifood/settings"
	localorders "github.com/comandahub/comanda-backend/internal/orders"
	"github.com/comandahub/comanda-backend/pkg/db/models"
	"github.com/comandahub/comanda-backend/pkg/enums"
	pkgerrors "github.com/comandahub/comanda-backend/pkg/errors"
	"github.com/comandahub/comanda-backend/pkg/ifood"
	"github.com/comandahub/comanda-backend/pkg/logger"
)

type ServiceParams struct {
	SettingsRepo settings.Repository
	OrdersRepo   ifoodorders.Repository
	LocalOrders  localorders.Repository
	Marketplace  MarketplaceClient
	Pipeline     EventPipeline
	Feed         feed.Publisher
	Logger       *logger.Logger

	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

// Service is the outbound command gateway: every operator action against a
// marketplace order flows through here, marketplace-first. Local state only
// changes after the marketplace accepted the command.
type Service struct {
	settingsRepo settings.Repository
	ordersRepo   ifoodorders.Repository
	localOrders  localorders.Repository
	marketplace  MarketplaceClient
	pipeline     EventPipeline
	feed         feed.Publisher
	logg         *logger.Logger
	now          func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.SettingsRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "settings repo required")
	}
	if params.OrdersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repo required")
	}
	if params.LocalOrders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "local orders repo required")
	}
	if params.Marketplace == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "marketplace client required")
	}
	if params.Pipeline == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "event pipeline required")
	}
	if params.Feed == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "feed publisher required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &Service{
		settingsRepo: params.SettingsRepo,
		ordersRepo:   params.OrdersRepo,
		localOrders:  params.LocalOrders,
		marketplace:  params.Marketplace,
		pipeline:     params.Pipeline,
		feed:         params.Feed,
		logg:         params.Logger,
		now:          params.Now,
	}, nil
}

// tenantForCommand gates every outbound command: the integration must be
// configured, enabled, and hold a live token. An expired token also flips
// the stored sync status so the dashboard surfaces it.
func (s *Service) tenantForCommand(ctx context.Context, restaurantID uuid.UUID) (*models.IFoodSettings, string, error) {
	tenant, err := s.settingsRepo.FindByRestaurantID(ctx, restaurantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", pkgerrors.New(pkgerrors.CodePrecondition, "ifood integration not configured")
		}
		return nil, "", err
	}
	if !tenant.IsEnabled {
		return nil, "", pkgerrors.New(pkgerrors.CodePrecondition, "ifood integration disabled")
	}
	if !tenant.HasValidToken(s.now()) {
		if err := s.settingsRepo.UpdateSyncStatus(ctx, restaurantID, enums.SyncStatusTokenExpired); err != nil {
			s.logg.Error(ctx, "flagging expired token", err)
		}
		return nil, "", pkgerrors.New(pkgerrors.CodePrecondition, "ifood access token expired")
	}
	return tenant, *tenant.AccessToken, nil
}

func (s *Service) orderInStatus(ctx context.Context, restaurantID uuid.UUID, orderID string, allowed ...enums.IFoodOrderStatus) (*models.IFoodOrder, error) {
	row, err := s.ordersRepo.FindByMarketplaceID(ctx, restaurantID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "ifood order not found")
		}
		return nil, err
	}
	for _, status := range allowed {
		if row.Status == status {
			return row, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodePrecondition, "order status does not allow this action").
		WithDetails(map[string]any{"status": row.Status})
}

// Accept confirms a pending order. The mirror row must already exist; the
// gateway never creates orders of its own.
func (s *Service) Accept(ctx context.Context, restaurantID uuid.UUID, orderID string) (ifoodorders.OrderView, error) {
	_, token, err := s.tenantForCommand(ctx, restaurantID)
	if err != nil {
		return ifoodorders.OrderView{}, err
	}
	row, err := s.orderInStatus(ctx, restaurantID, orderID, enums.IFoodOrderStatusPending)
	if err != nil {
		return ifoodorders.OrderView{}, err
	}

	if err := s.marketplace.Confirm(ctx, token, orderID); err != nil {
		return ifoodorders.OrderView{}, err
	}

	row.Status = enums.IFoodOrderStatusConfirmed
	return s.persist(ctx, row)
}

// Reject declines a pending order, defaulting to the generic
// restaurant-cancelled reason.
func (s *Service) Reject(ctx context.Context, restaurantID uuid.UUID, orderID string, input RejectInput) (ifoodorders.OrderView, error) {
	_, token, err := s.tenantForCommand(ctx, restaurantID)
	if err != nil {
		return ifoodorders.OrderView{}, err
	}
	row, err := s.orderInStatus(ctx, restaurantID, orderID, enums.IFoodOrderStatusPending)
	if err != nil {
		return ifoodorders.OrderView{}, err
	}

	params := input.withDefaults()
	if err := s.marketplace.Reject(ctx, token, orderID, params); err != nil {
		return ifoodorders.OrderView{}, err
	}

	row.Status = enums.IFoodOrderStatusRejected
	row.RejectionReason = &params.Reason
	return s.persist(ctx, row)
}

// StartPreparation moves a confirmed order into the kitchen.
func (s *Service) StartPreparation(ctx context.Context, restaurantID uuid.UUID, orderID string) (ifoodorders.OrderView, error) {
	_, token, err := s.tenantForCommand(ctx, restaurantID)
	if err != nil {
		return ifoodorders.OrderView{}, err
	}
	row, err := s.orderInStatus(ctx, restaurantID, orderID, enums.IFoodOrderStatusConfirmed)
	if err != nil {
		return ifoodorders.OrderView{}, err
	}

	if err := s.marketplace.StartPreparation(ctx, token, orderID); err != nil {
		return ifoodorders.OrderView{}, err
	}

	startedAt := s.now().UTC()
	row.Status = enums.IFoodOrderStatusPreparing
	row.PreparationStartedAt = &startedAt
	return s.persist(ctx, row)
}

// Ready marks the order ready for pickup. Takeout orders may skip the
// explicit preparation step.
func (s *Service) Ready(ctx context.Context, restaurantID uuid.UUID, orderID string) (ifoodorders.OrderView, error) {
	_, token, err := s.tenantForCommand(ctx, restaurantID)
	if err != nil {
		return ifoodorders.OrderView{}, err
	}
	row, err := s.orderInStatus(ctx, restaurantID, orderID,
		enums.IFoodOrderStatusConfirmed, enums.IFoodOrderStatusPreparing)
	if err != nil {
		return ifoodorders.OrderView{}, err
	}

	if err := s.marketplace.ReadyToPickup(ctx, token, orderID); err != nil {
		return ifoodorders.OrderView{}, err
	}

	row.Status = enums.IFoodOrderStatusReady
	return s.persist(ctx, row)
}

// Dispatch marks a merchant-delivered order as out for delivery. Orders the
// marketplace delivers itself are dispatched by driver events instead.
func (s *Service) Dispatch(ctx context.Context, restaurantID uuid.UUID, orderID string) (ifoodorders.OrderView, error) {
	_, token, err := s.tenantForCommand(ctx, restaurantID)
	if err != nil {
		return ifoodorders.OrderView{}, err
	}
	row, err := s.orderInStatus(ctx, restaurantID, orderID, enums.IFoodOrderStatusReady)
	if err != nil {
		return ifoodorders.OrderView{}, err
	}
	if row.DeliveredBy != enums.DeliveredByMerchant {
		return ifoodorders.OrderView{}, pkgerrors.New(pkgerrors.CodePrecondition,
			"dispatch applies only to merchant-delivered orders")
	}

	if err := s.marketplace.Dispatch(ctx, token, orderID); err != nil {
		return ifoodorders.OrderView{}, err
	}

	row.Status = enums.IFoodOrderStatusDispatched
	return s.persist(ctx, row)
}

// RequestCancellation asks the marketplace to cancel an in-flight order.
// The final outcome arrives later as a webhook event.
func (s *Service) RequestCancellation(ctx context.Context, restaurantID uuid.UUID, orderID string, input RejectInput) (ifoodorders.OrderView, error) {
	_, token, err := s.tenantForCommand(ctx, restaurantID)
	if err != nil {
		return ifoodorders.OrderView{}, err
	}
	row, err := s.orderInStatus(ctx, restaurantID, orderID,
		enums.IFoodOrderStatusConfirmed,
		enums.IFoodOrderStatusPreparing)
	if err != nil {
		return ifoodorders.OrderView{}, err
	}

	if err := s.marketplace.RequestCancellation(ctx, token, orderID, input.withDefaults()); err != nil {
		return ifoodorders.OrderView{}, err
	}

	row.Status = enums.IFoodOrderStatusCancellationRequested
	return s.persist(ctx, row)
}

// CancellationReasons lists the codes the marketplace accepts for an order.
func (s *Service) CancellationReasons(ctx context.Context, restaurantID uuid.UUID, orderID string) ([]ifood.CancellationReason, error) {
	_, token, err := s.tenantForCommand(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	return s.marketplace.CancellationReasons(ctx, token, orderID)
}

// Tracking returns the driver position for an order, when available.
func (s *Service) Tracking(ctx context.Context, restaurantID uuid.UUID, orderID string) (TrackingView, error) {
	_, token, err := s.tenantForCommand(ctx, restaurantID)
	if err != nil {
		return TrackingView{}, err
	}
	row, err := s.ordersRepo.FindByMarketplaceID(ctx, restaurantID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TrackingView{}, pkgerrors.New(pkgerrors.CodeNotFound, "ifood order not found")
		}
		return TrackingView{}, err
	}
	if !row.TrackingAvailable {
		return TrackingView{Available: false}, nil
	}

	tracking, err := s.marketplace.Tracking(ctx, token, orderID)
	if err != nil {
		return TrackingView{}, err
	}
	if tracking == nil {
		return TrackingView{Available: false}, nil
	}
	return TrackingView{
		Available:        true,
		Latitude:         tracking.Latitude,
		Longitude:        tracking.Longitude,
		ExpectedDelivery: tracking.ExpectedDelivery,
		PickupEtaStart:   tracking.PickupEtaStart,
		DeliveryEtaEnd:   tracking.DeliveryEtaEnd,
		TrackDate:        tracking.TrackDate,
	}, nil
}

// ValidatePickupCode checks a customer's pickup code, preferring the code
// already mirrored locally and falling back to the marketplace.
func (s *Service) ValidatePickupCode(ctx context.Context, restaurantID uuid.UUID, orderID string, input PickupCodeInput) (PickupCodeResult, error) {
	_, token, err := s.tenantForCommand(ctx, restaurantID)
	if err != nil {
		return PickupCodeResult{}, err
	}
	row, err := s.ordersRepo.FindByMarketplaceID(ctx, restaurantID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PickupCodeResult{}, pkgerrors.New(pkgerrors.CodeNotFound, "ifood order not found")
		}
		return PickupCodeResult{}, err
	}

	if row.PickupCode != nil && *row.PickupCode != "" {
		return PickupCodeResult{Valid: *row.PickupCode == input.Code}, nil
	}

	valid, err := s.marketplace.VerifyPickupCode(ctx, token, orderID, input.Code)
	if err != nil {
		return PickupCodeResult{}, err
	}
	return PickupCodeResult{Valid: valid}, nil
}

// Poll pulls pending events over the polling fallback, runs them through
// the same pipeline webhooks use, and acknowledges what was fetched.
func (s *Service) Poll(ctx context.Context, restaurantID uuid.UUID) (PollResult, error) {
	tenant, token, err := s.tenantForCommand(ctx, restaurantID)
	if err != nil {
		return PollResult{}, err
	}

	polled, err := s.marketplace.PollEvents(ctx, token)
	if err != nil {
		return PollResult{}, err
	}

	batch := make([]events.Event, 0, len(polled))
	ids := make([]string, 0, len(polled))
	for _, raw := range polled {
		merchantID := raw.MerchantID
		if merchantID == "" && tenant.MerchantID != nil {
			merchantID = *tenant.MerchantID
		}
		action, _ := events.ParseAction(raw.Code, raw.FullCode)
		code := raw.FullCode
		if code == "" {
			code = raw.Code
		}
		batch = append(batch, events.Event{
			ID:         raw.ID,
			Code:       code,
			Action:     action,
			OrderID:    raw.OrderID,
			MerchantID: merchantID,
			CreatedAt:  raw.CreatedAt,
			Metadata:   raw.Metadata,
		})
		ids = append(ids, raw.ID)
	}

	processed, pipelineErr := s.pipeline.ProcessBatch(ctx, batch)
	if pipelineErr != nil {
		s.logg.Error(ctx, "processing polled events", pipelineErr)
	}

	// Acknowledge everything fetched; unprocessable events would only be
	// redelivered forever otherwise.
	if err := s.marketplace.AcknowledgeEvents(ctx, token, ids); err != nil {
		return PollResult{}, err
	}
	if err := s.settingsRepo.TouchLastSync(ctx, restaurantID, s.now().UTC()); err != nil {
		s.logg.Error(ctx, "updating last sync timestamp", err)
	}

	return PollResult{Fetched: len(polled), Processed: processed}, nil
}

// ListOrders returns the pending or active slice of the mirror.
func (s *Service) ListOrders(ctx context.Context, restaurantID uuid.UUID, view string) ([]ifoodorders.OrderView, error) {
	switch view {
	case "", "active":
		rows, err := s.ordersRepo.ListActive(ctx, restaurantID)
		if err != nil {
			return nil, err
		}
		return ifoodorders.NewOrderViews(rows), nil
	case "pending":
		rows, err := s.ordersRepo.ListPending(ctx, restaurantID)
		if err != nil {
			return nil, err
		}
		return ifoodorders.NewOrderViews(rows), nil
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "view must be pending or active")
	}
}

func (s *Service) persist(ctx context.Context, row *models.IFoodOrder) (ifoodorders.OrderView, error) {
	saved, err := s.ordersRepo.Save(ctx, row)
	if err != nil {
		return ifoodorders.OrderView{}, err
	}

	if native, ok := lifecycle.Project(saved.Status); ok && saved.LocalOrderID != nil {
		if err := s.localOrders.PatchStatus(ctx, *saved.LocalOrderID, native); err != nil {
			s.logg.Error(ctx, "patching linked local order", err)
		}
	}

	view := ifoodorders.NewOrderView(*saved)
	if err := s.feed.PublishChange(ctx, feed.Change{
		Type:         feed.TypeUpdate,
		RestaurantID: view.RestaurantID,
		Order:        view,
	}); err != nil {
		s.logg.Error(ctx, "publishing order feed change", err)
	}
	return view, nil
}
