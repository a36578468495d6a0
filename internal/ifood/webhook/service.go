package webhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/comandahub/comanda-backend/internal/ifood/events"
	"github.com/comandahub/comanda-backend/internal/ifood/feed"
	"github.com/comandahub/comanda-backend/internal/ifood/lifecycle"
	ifoodorders "github.com/comandahub/comanda-backend/internal/ifood/orders"
	"github.com/comandahub/comanda-backend/internal/ifood/settings"
	"github.com/comandahub/comanda-backend/internal/notifications"
	localorders "github.com/comandahub/comanda-backend/internal/orders"
	pkgdb "github.com/comandahub/comanda-backend/pkg/db"
	"github.com/comandahub/comanda-backend/pkg/db/models"
	"github.com/comandahub/comanda-backend/pkg/enums"
	pkgerrors "github.com/comandahub/comanda-backend/pkg/errors"
	"github.com/comandahub/comanda-backend/pkg/ifood"
	"github.com/comandahub/comanda-backend/pkg/logger"
	"github.com/comandahub/comanda-backend/pkg/metrics"
	"github.com/comandahub/comanda-backend/pkg/types"
)

// DetailFetcher is the slice of the marketplace client the webhook path uses.
type DetailFetcher interface {
	GetOrder(ctx context.Context, token, orderID string) (*ifood.OrderDetail, error)
}

type ServiceParams struct {
	SettingsRepo settings.Repository
	OrdersRepo   ifoodorders.Repository
	LocalOrders  localorders.Repository
	Marketplace  DetailFetcher
	Feed         feed.Publisher
	Notifier     notifications.Notifier
	Metrics      *metrics.WebhookMetrics
	Logger       *logger.Logger

	// AcceptanceWindow is the deadline applied to placed orders that carry
	// no explicit expiry of their own.
	AcceptanceWindow time.Duration

	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

type Service struct {
	settingsRepo settings.Repository
	ordersRepo   ifoodorders.Repository
	localOrders  localorders.Repository
	marketplace  DetailFetcher
	feed         feed.Publisher
	notifier     notifications.Notifier
	metrics      *metrics.WebhookMetrics
	logg         *logger.Logger
	window       time.Duration
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
	if params.Feed == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "feed publisher required")
	}
	if params.Notifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "notifier required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	if params.AcceptanceWindow <= 0 {
		params.AcceptanceWindow = 8 * time.Minute
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &Service{
		settingsRepo: params.SettingsRepo,
		ordersRepo:   params.OrdersRepo,
		localOrders:  params.LocalOrders,
		marketplace:  params.Marketplace,
		feed:         params.Feed,
		notifier:     params.Notifier,
		metrics:      params.Metrics,
		logg:         params.Logger,
		window:       params.AcceptanceWindow,
		now:          params.Now,
	}, nil
}

// statusByAction maps reconcilable actions to their target status. Actions
// absent here either create orders (placed) or mutate fields without a
// status change.
var statusByAction = map[events.Action]enums.IFoodOrderStatus{
	events.ActionConfirmed:             enums.IFoodOrderStatusConfirmed,
	events.ActionPreparationStarted:    enums.IFoodOrderStatusPreparing,
	events.ActionReady:                 enums.IFoodOrderStatusReady,
	events.ActionDispatched:            enums.IFoodOrderStatusDispatched,
	events.ActionConcluded:             enums.IFoodOrderStatusConcluded,
	events.ActionCancelled:             enums.IFoodOrderStatusCancelled,
	events.ActionCancellationRequested: enums.IFoodOrderStatusCancellationRequested,
	events.ActionReturningToOrigin:     enums.IFoodOrderStatusReturning,
	events.ActionReturnCodeRequested:   enums.IFoodOrderStatusReturnCodeRequested,
	events.ActionReturnedToOrigin:      enums.IFoodOrderStatusReturned,
}

// ProcessBatch runs every event through the sync pipeline. One bad event
// never poisons the rest: failures are aggregated and returned alongside
// the count of events taken off the marketplace's hands. Skips and
// duplicates count too; per-outcome detail lives in the metrics.
func (s *Service) ProcessBatch(ctx context.Context, batch []events.Event) (int, error) {
	processed := 0
	var errs error
	settingsCache := map[string]*models.IFoodSettings{}

	for _, evt := range batch {
		processed++

		ectx := s.logg.WithFields(ctx, map[string]any{
			"event_id":       evt.ID,
			"event_code":     evt.Code,
			"ifood_order_id": evt.OrderID,
		})

		outcome, err := s.handle(ectx, settingsCache, evt)
		if err != nil {
			s.metrics.IncEvent(string(evt.Action), metrics.OutcomeFailed)
			s.logg.Error(ectx, "processing webhook event", err)
			errs = multierr.Append(errs, fmt.Errorf("event %s (%s): %w", evt.ID, evt.Code, err))
			continue
		}

		s.metrics.IncEvent(string(evt.Action), outcome)
	}
	return processed, errs
}

func (s *Service) handle(ctx context.Context, cache map[string]*models.IFoodSettings, evt events.Event) (string, error) {
	if evt.Action == "" {
		s.logg.Warn(ctx, "unknown event code; skipping")
		return metrics.OutcomeSkipped, nil
	}

	tenant, err := s.resolveTenant(ctx, cache, evt.MerchantID)
	if err != nil {
		return "", err
	}
	if tenant == nil || !tenant.IsEnabled {
		s.logg.Info(ctx, "merchant not configured or integration disabled; skipping")
		return metrics.OutcomeSkipped, nil
	}

	ctx = s.logg.WithRestaurantID(ctx, tenant.RestaurantID.String())
	if evt.Action == events.ActionPlaced {
		return s.handlePlaced(ctx, tenant, evt)
	}
	return s.reconcile(ctx, tenant, evt)
}

func (s *Service) resolveTenant(ctx context.Context, cache map[string]*models.IFoodSettings, merchantID string) (*models.IFoodSettings, error) {
	if tenant, ok := cache[merchantID]; ok {
		return tenant, nil
	}
	tenant, err := s.settingsRepo.FindByMerchantID(ctx, merchantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			cache[merchantID] = nil
			return nil, nil
		}
		return nil, err
	}
	cache[merchantID] = tenant
	return tenant, nil
}

func (s *Service) handlePlaced(ctx context.Context, tenant *models.IFoodSettings, evt events.Event) (string, error) {
	if _, err := s.ordersRepo.FindByMarketplaceID(ctx, tenant.RestaurantID, evt.OrderID); err == nil {
		return metrics.OutcomeDuplicate, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	now := s.now().UTC()
	row := &models.IFoodOrder{
		RestaurantID: tenant.RestaurantID,
		IFoodOrderID: evt.OrderID,
		Status:       enums.IFoodOrderStatusPending,
		OrderTiming:  enums.OrderTimingImmediate,
		OrderType:    enums.OrderTypeDelivery,
		DeliveredBy:  enums.DeliveredByIFood,
	}

	detail := s.fetchDetail(ctx, tenant, evt.OrderID, now)
	if detail != nil {
		s.applyDetail(row, detail)
		row.ExpiresAt = s.acceptanceDeadline(row, detail, now)
	} else {
		// Degraded create: the webhook metadata is all we have. The order
		// still shows up for the staff instead of silently vanishing.
		row.OrderData.Snapshot = evt.Metadata.Clone()
		deadline := now.Add(s.window)
		row.ExpiresAt = &deadline
	}

	created, err := s.ordersRepo.Create(ctx, row)
	if err != nil {
		// A concurrent redelivery won the insert race.
		if pkgdb.IsUniqueViolation(err, "ux_ifood_orders_restaurant_order") {
			return metrics.OutcomeDuplicate, nil
		}
		return "", err
	}

	view := ifoodorders.NewOrderView(*created)
	s.publishChange(ctx, feed.TypeInsert, view)
	s.notifier.OrderReceived(ctx, view)
	return metrics.OutcomeProcessed, nil
}

func (s *Service) fetchDetail(ctx context.Context, tenant *models.IFoodSettings, orderID string, now time.Time) *ifood.OrderDetail {
	if !tenant.HasValidToken(now) {
		s.metrics.IncDetailFetchFailure()
		s.logg.Warn(ctx, "no valid access token; creating order from webhook metadata")
		return nil
	}
	detail, err := s.marketplace.GetOrder(ctx, *tenant.AccessToken, orderID)
	if err != nil {
		s.metrics.IncDetailFetchFailure()
		s.logg.Warn(ctx, "order detail fetch failed; creating order from webhook metadata")
		return nil
	}
	return detail
}

func (s *Service) applyDetail(row *models.IFoodOrder, detail *ifood.OrderDetail) {
	row.OrderData.Snapshot = detail.Raw
	row.DisplayID = detail.DisplayID

	if timing, err := enums.ParseOrderTiming(detail.OrderTiming); err == nil {
		row.OrderTiming = timing
	}
	if orderType, err := enums.ParseOrderType(detail.OrderType); err == nil {
		row.OrderType = orderType
	}
	if detail.Delivery != nil {
		if deliveredBy, err := enums.ParseDeliveredBy(detail.Delivery.DeliveredBy); err == nil {
			row.DeliveredBy = deliveredBy
		}
	}
	if detail.Schedule != nil {
		row.ScheduledTo = detail.Schedule.DeliveryDateTimeStart
		row.PreparationStart = detail.Schedule.PreparationStartDateTime
	}
	if detail.PickupCode != "" {
		code := detail.PickupCode
		row.PickupCode = &code
	}
}

// acceptanceDeadline picks the instant the pending order stops being
// acceptable: an explicit marketplace expiry wins; scheduled orders run
// off their preparation start; immediate orders off receipt time.
func (s *Service) acceptanceDeadline(row *models.IFoodOrder, detail *ifood.OrderDetail, now time.Time) *time.Time {
	if detail.ExpiresAt != nil {
		return detail.ExpiresAt
	}
	if row.OrderTiming == enums.OrderTimingScheduled && row.PreparationStart != nil {
		deadline := row.PreparationStart.Add(s.window)
		return &deadline
	}
	deadline := now.Add(s.window)
	return &deadline
}

func (s *Service) reconcile(ctx context.Context, tenant *models.IFoodSettings, evt events.Event) (string, error) {
	row, err := s.ordersRepo.FindByMarketplaceID(ctx, tenant.RestaurantID, evt.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logg.Warn(ctx, "event for unknown order; skipping")
			return metrics.OutcomeSkipped, nil
		}
		return "", err
	}

	now := s.now().UTC()

	switch evt.Action {
	case events.ActionStartPreparationRecommended:
		s.logg.Info(ctx, "marketplace recommends starting preparation")
		return metrics.OutcomeProcessed, nil

	case events.ActionDriverAssigned:
		driver := metadataObject(evt.Metadata, "driver")
		if name := firstString(metadataString(driver, "name"), metadataString(evt.Metadata, "driverName", "name")); name != "" {
			row.DriverName = &name
		}
		if phone := firstString(metadataString(driver, "phone"), metadataString(evt.Metadata, "driverPhone", "phone")); phone != "" {
			row.DriverPhone = &phone
		}
		row.TrackingAvailable = true
		return s.persist(ctx, row, nil)

	case events.ActionPickupCodeRequested:
		if code := metadataString(evt.Metadata, "pickupCode", "code"); code != "" {
			row.PickupCode = &code
		}
		return s.persist(ctx, row, nil)

	case events.ActionOrderPatched:
		patchType := metadataString(evt.Metadata, "patchType", "type")
		if patchType == "" {
			patchType = evt.Code
		}
		row.OrderData.AppendPatch(patchType, evt.Metadata, now)
		return s.persist(ctx, row, nil)

	case events.ActionCancellationRequestFailed:
		// Applied even without a stored cancellation_requested status: the
		// request may have been made outside this system, and the staff still
		// needs the failure reason on the ticket.
		rollback := lifecycle.RollbackStatus(row.PreparationStartedAt != nil)
		reason := "Cancellation failed"
		if detail := metadataString(evt.Metadata, "reason", "message"); detail != "" {
			reason = "Cancellation failed: " + detail
		}
		row.Status = rollback
		row.RejectionReason = &reason
		return s.persist(ctx, row, projectedStatus(rollback))
	}

	target, ok := statusByAction[evt.Action]
	if !ok {
		s.logg.Warn(ctx, "unroutable event action; skipping")
		return metrics.OutcomeSkipped, nil
	}
	if !lifecycle.CanTransition(row.Status, target) {
		s.logg.Warn(ctx, fmt.Sprintf("transition %s -> %s not allowed; skipping", row.Status, target))
		return metrics.OutcomeSkipped, nil
	}

	switch evt.Action {
	case events.ActionPreparationStarted:
		row.PreparationStartedAt = &now
	case events.ActionCancelled:
		// Cancelled rows always carry a rejection reason, empty when the
		// marketplace omitted one.
		reason := metadataString(evt.Metadata, "reason", "cancellationDescription", "cancellationCode")
		row.RejectionReason = &reason
	case events.ActionReturnCodeRequested:
		row.OrderData.ReturnCode = metadataString(evt.Metadata, "returnCode", "code")
	}
	row.Status = target

	return s.persist(ctx, row, projectedStatus(target))
}

// persist saves the mirror row, patches the linked local order when the new
// status has a local projection, and broadcasts the update.
func (s *Service) persist(ctx context.Context, row *models.IFoodOrder, localStatus *enums.OrderStatus) (string, error) {
	saved, err := s.ordersRepo.Save(ctx, row)
	if err != nil {
		return "", err
	}

	if localStatus != nil && saved.LocalOrderID != nil {
		if err := s.localOrders.PatchStatus(ctx, *saved.LocalOrderID, *localStatus); err != nil {
			s.logg.Error(ctx, "patching linked local order", err)
		}
	}

	s.publishChange(ctx, feed.TypeUpdate, ifoodorders.NewOrderView(*saved))
	return metrics.OutcomeProcessed, nil
}

func (s *Service) publishChange(ctx context.Context, changeType string, view ifoodorders.OrderView) {
	change := feed.Change{
		Type:         changeType,
		RestaurantID: view.RestaurantID,
		Order:        view,
	}
	if err := s.feed.PublishChange(ctx, change); err != nil {
		s.logg.Error(ctx, "publishing order feed change", err)
	}
}

func projectedStatus(status enums.IFoodOrderStatus) *enums.OrderStatus {
	if native, ok := lifecycle.Project(status); ok {
		return &native
	}
	return nil
}

func metadataString(m types.JSONMap, keys ...string) string {
	for _, key := range keys {
		if value, ok := m[key].(string); ok && value != "" {
			return value
		}
	}
	return ""
}

func metadataObject(m types.JSONMap, key string) types.JSONMap {
	if nested, ok := m[key].(map[string]any); ok {
		return types.JSONMap(nested)
	}
	return nil
}

func firstString(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
