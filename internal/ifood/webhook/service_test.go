package webhook

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/comandahub/comanda-backend/internal/ifood/events"
	"github.com/comandahub/comanda-backend/internal/ifood/feed"
	ifoodorders "github.com/comandahub/comanda-backend/internal/ifood/orders"
	"github.com/comandahub/comanda-backend/internal/ifood/settings"
	localorders "github.com/comandahub/comanda-backend/internal/orders"
	"github.com/comandahub/comanda-backend/pkg/db/models"
	"github.com/comandahub/comanda-backend/pkg/enums"
	"github.com/comandahub/comanda-backend/pkg/ifood"
	"github.com/comandahub/comanda-backend/pkg/logger"
	"github.com/comandahub/comanda-backend/pkg/types"
)

type stubSettingsRepo struct {
	byMerchant map[string]*models.IFoodSettings
}

func (s *stubSettingsRepo) WithTx(tx *gorm.DB) settings.Repository { return s }

func (s *stubSettingsRepo) FindByRestaurantID(ctx context.Context, restaurantID uuid.UUID) (*models.IFoodSettings, error) {
	for _, tenant := range s.byMerchant {
		if tenant.RestaurantID == restaurantID {
			return tenant, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubSettingsRepo) FindByMerchantID(ctx context.Context, merchantID string) (*models.IFoodSettings, error) {
	if tenant, ok := s.byMerchant[merchantID]; ok {
		return tenant, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubSettingsRepo) UpdateSyncStatus(ctx context.Context, restaurantID uuid.UUID, status enums.SyncStatus) error {
	return nil
}

func (s *stubSettingsRepo) TouchLastSync(ctx context.Context, restaurantID uuid.UUID, at time.Time) error {
	return nil
}

type stubOrdersRepo struct {
	rows      map[string]*models.IFoodOrder
	createErr error
	saveErr   error
	saved     int
}

func newStubOrdersRepo() *stubOrdersRepo {
	return &stubOrdersRepo{rows: map[string]*models.IFoodOrder{}}
}

func mirrorKey(restaurantID uuid.UUID, orderID string) string {
	return restaurantID.String() + "/" + orderID
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) ifoodorders.Repository { return s }

func (s *stubOrdersRepo) Create(ctx context.Context, order *models.IFoodOrder) (*models.IFoodOrder, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	key := mirrorKey(order.RestaurantID, order.IFoodOrderID)
	if _, exists := s.rows[key]; exists {
		return nil, errors.New("UNIQUE constraint failed: ifood_orders.restaurant_id, ifood_orders.ifood_order_id")
	}
	order.ID = uuid.New()
	s.rows[key] = order
	return order, nil
}

func (s *stubOrdersRepo) FindByMarketplaceID(ctx context.Context, restaurantID uuid.UUID, ifoodOrderID string) (*models.IFoodOrder, error) {
	if row, ok := s.rows[mirrorKey(restaurantID, ifoodOrderID)]; ok {
		copied := *row
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrdersRepo) Save(ctx context.Context, order *models.IFoodOrder) (*models.IFoodOrder, error) {
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	s.saved++
	s.rows[mirrorKey(order.RestaurantID, order.IFoodOrderID)] = order
	return order, nil
}

func (s *stubOrdersRepo) ListPending(ctx context.Context, restaurantID uuid.UUID) ([]models.IFoodOrder, error) {
	return nil, nil
}

func (s *stubOrdersRepo) ListActive(ctx context.Context, restaurantID uuid.UUID) ([]models.IFoodOrder, error) {
	return nil, nil
}

func (s *stubOrdersRepo) ListByStatus(ctx context.Context, restaurantID uuid.UUID, statuses []enums.IFoodOrderStatus) ([]models.IFoodOrder, error) {
	return nil, nil
}

func (s *stubOrdersRepo) ListAllActive(ctx context.Context) ([]models.IFoodOrder, error) {
	return nil, nil
}

type stubLocalOrders struct {
	patched map[uuid.UUID]enums.OrderStatus
}

func newStubLocalOrders() *stubLocalOrders {
	return &stubLocalOrders{patched: map[uuid.UUID]enums.OrderStatus{}}
}

func (s *stubLocalOrders) WithTx(tx *gorm.DB) localorders.Repository { return s }

func (s *stubLocalOrders) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubLocalOrders) PatchStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error {
	s.patched[id] = status
	return nil
}

type stubFetcher struct {
	detail *ifood.OrderDetail
	err    error
	calls  int
}

func (s *stubFetcher) GetOrder(ctx context.Context, token, orderID string) (*ifood.OrderDetail, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.detail, nil
}

type stubFeed struct {
	changes []feed.Change
}

func (s *stubFeed) PublishChange(ctx context.Context, change feed.Change) error {
	s.changes = append(s.changes, change)
	return nil
}

type stubNotifier struct {
	received []ifoodorders.OrderView
}

func (s *stubNotifier) OrderReceived(ctx context.Context, order ifoodorders.OrderView) {
	s.received = append(s.received, order)
}

type fixture struct {
	service      *Service
	settingsRepo *stubSettingsRepo
	ordersRepo   *stubOrdersRepo
	localOrders  *stubLocalOrders
	fetcher      *stubFetcher
	feed         *stubFeed
	notifier     *stubNotifier
	tenant       *models.IFoodSettings
	now          time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	token := "token-1"
	merchantID := "mrc-1"
	tokenExpiry := time.Date(2026, 1, 16, 0, 0, 0, 0, time.UTC)
	tenant := &models.IFoodSettings{
		ID:             uuid.New(),
		RestaurantID:   uuid.New(),
		IsEnabled:      true,
		MerchantID:     &merchantID,
		AccessToken:    &token,
		TokenExpiresAt: &tokenExpiry,
	}

	f := &fixture{
		settingsRepo: &stubSettingsRepo{byMerchant: map[string]*models.IFoodSettings{merchantID: tenant}},
		ordersRepo:   newStubOrdersRepo(),
		localOrders:  newStubLocalOrders(),
		fetcher:      &stubFetcher{},
		feed:         &stubFeed{},
		notifier:     &stubNotifier{},
		tenant:       tenant,
		now:          time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
	}

	service, err := NewService(ServiceParams{
		SettingsRepo:     f.settingsRepo,
		OrdersRepo:       f.ordersRepo,
		LocalOrders:      f.localOrders,
		Marketplace:      f.fetcher,
		Feed:             f.feed,
		Notifier:         f.notifier,
		Logger:           logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		AcceptanceWindow: 8 * time.Minute,
		Now:              func() time.Time { return f.now },
	})
	require.NoError(t, err)
	f.service = service
	return f
}

func (f *fixture) seedOrder(status enums.IFoodOrderStatus) *models.IFoodOrder {
	row := &models.IFoodOrder{
		ID:           uuid.New(),
		RestaurantID: f.tenant.RestaurantID,
		IFoodOrderID: "ord-1",
		Status:       status,
		OrderTiming:  enums.OrderTimingImmediate,
		OrderType:    enums.OrderTypeDelivery,
		DeliveredBy:  enums.DeliveredByIFood,
	}
	f.ordersRepo.rows[mirrorKey(row.RestaurantID, row.IFoodOrderID)] = row
	return row
}

func placedEvent() events.Event {
	return events.Event{
		ID:         "evt-1",
		Code:       "PLACED",
		Action:     events.ActionPlaced,
		OrderID:    "ord-1",
		MerchantID: "mrc-1",
	}
}

func eventFor(action events.Action, metadata types.JSONMap) events.Event {
	return events.Event{
		ID:         "evt-x",
		Code:       string(action),
		Action:     action,
		OrderID:    "ord-1",
		MerchantID: "mrc-1",
		Metadata:   metadata,
	}
}

func TestService_PlacedCreatesOrder(t *testing.T) {
	f := newFixture(t)
	f.fetcher.detail = &ifood.OrderDetail{
		ID:          "ord-1",
		DisplayID:   "4821",
		OrderTiming: "IMMEDIATE",
		OrderType:   "TAKEOUT",
		Delivery:    &ifood.OrderDelivery{DeliveredBy: "MERCHANT"},
		Raw:         types.JSONMap{"id": "ord-1", "customer": map[string]any{"name": "Ana"}},
	}

	processed, err := f.service.ProcessBatch(context.Background(), []events.Event{placedEvent()})
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	row, err := f.ordersRepo.FindByMarketplaceID(context.Background(), f.tenant.RestaurantID, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, enums.IFoodOrderStatusPending, row.Status)
	assert.Equal(t, "4821", row.DisplayID)
	assert.Equal(t, enums.OrderTypeTakeout, row.OrderType)
	assert.Equal(t, enums.DeliveredByMerchant, row.DeliveredBy)
	assert.Equal(t, "ord-1", row.OrderData.Snapshot["id"])

	// No explicit expiry: deadline runs off receipt time.
	require.NotNil(t, row.ExpiresAt)
	assert.Equal(t, f.now.Add(8*time.Minute), *row.ExpiresAt)

	require.Len(t, f.feed.changes, 1)
	assert.Equal(t, feed.TypeInsert, f.feed.changes[0].Type)
	require.Len(t, f.notifier.received, 1)
	assert.Equal(t, "ord-1", f.notifier.received[0].IFoodOrderID)
}

func TestService_PlacedDeadlineDerivation(t *testing.T) {
	t.Run("explicit expiry wins", func(t *testing.T) {
		f := newFixture(t)
		explicit := f.now.Add(3 * time.Minute)
		f.fetcher.detail = &ifood.OrderDetail{
			ID:        "ord-1",
			ExpiresAt: &explicit,
			Raw:       types.JSONMap{"id": "ord-1"},
		}

		_, err := f.service.ProcessBatch(context.Background(), []events.Event{placedEvent()})
		require.NoError(t, err)

		row, err := f.ordersRepo.FindByMarketplaceID(context.Background(), f.tenant.RestaurantID, "ord-1")
		require.NoError(t, err)
		require.NotNil(t, row.ExpiresAt)
		assert.Equal(t, explicit, *row.ExpiresAt)
	})

	t.Run("scheduled orders run off preparation start", func(t *testing.T) {
		f := newFixture(t)
		prepStart := f.now.Add(2 * time.Hour)
		f.fetcher.detail = &ifood.OrderDetail{
			ID:          "ord-1",
			OrderTiming: "SCHEDULED",
			Schedule: &ifood.OrderSchedule{
				PreparationStartDateTime: &prepStart,
			},
			Raw: types.JSONMap{"id": "ord-1"},
		}

		_, err := f.service.ProcessBatch(context.Background(), []events.Event{placedEvent()})
		require.NoError(t, err)

		row, err := f.ordersRepo.FindByMarketplaceID(context.Background(), f.tenant.RestaurantID, "ord-1")
		require.NoError(t, err)
		assert.Equal(t, enums.OrderTimingScheduled, row.OrderTiming)
		require.NotNil(t, row.ExpiresAt)
		assert.Equal(t, prepStart.Add(8*time.Minute), *row.ExpiresAt)
	})
}

func TestService_PlacedDegradedWhenDetailFails(t *testing.T) {
	f := newFixture(t)
	f.fetcher.err = errors.New("upstream down")

	processed, err := f.service.ProcessBatch(context.Background(), []events.Event{
		eventFor(events.ActionPlaced, types.JSONMap{"displayId": "999"}),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	row, err := f.ordersRepo.FindByMarketplaceID(context.Background(), f.tenant.RestaurantID, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, enums.IFoodOrderStatusPending, row.Status)
	assert.Equal(t, "999", row.OrderData.Snapshot["displayId"])
	require.NotNil(t, row.ExpiresAt)
	assert.Equal(t, f.now.Add(8*time.Minute), *row.ExpiresAt)
}

func TestService_PlacedSkipsDetailFetchWithExpiredToken(t *testing.T) {
	f := newFixture(t)
	expired := f.now.Add(-time.Hour)
	f.tenant.TokenExpiresAt = &expired

	processed, err := f.service.ProcessBatch(context.Background(), []events.Event{placedEvent()})
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.Zero(t, f.fetcher.calls)
}

func TestService_PlacedDuplicateIsIgnored(t *testing.T) {
	f := newFixture(t)
	f.seedOrder(enums.IFoodOrderStatusPending)

	processed, err := f.service.ProcessBatch(context.Background(), []events.Event{placedEvent()})
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.Empty(t, f.notifier.received)
	assert.Empty(t, f.feed.changes)
}

func TestService_PlacedInsertRaceIsIgnored(t *testing.T) {
	f := newFixture(t)
	f.ordersRepo.createErr = errors.New(`duplicate key value violates unique constraint "ux_ifood_orders_restaurant_order"`)
	f.fetcher.detail = &ifood.OrderDetail{ID: "ord-1", Raw: types.JSONMap{"id": "ord-1"}}

	processed, err := f.service.ProcessBatch(context.Background(), []events.Event{placedEvent()})
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.Empty(t, f.notifier.received)
}

func TestService_UnknownMerchantIsSkipped(t *testing.T) {
	f := newFixture(t)
	evt := placedEvent()
	evt.MerchantID = "mrc-unknown"

	// Nothing is stored, but the event is still acknowledged as processed
	// so the marketplace does not redeliver it.
	processed, err := f.service.ProcessBatch(context.Background(), []events.Event{evt})
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.Empty(t, f.feed.changes)
}

func TestService_DisabledIntegrationIsSkipped(t *testing.T) {
	f := newFixture(t)
	f.tenant.IsEnabled = false

	processed, err := f.service.ProcessBatch(context.Background(), []events.Event{placedEvent()})
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	_, err = f.ordersRepo.FindByMarketplaceID(context.Background(), f.tenant.RestaurantID, "ord-1")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestService_StatusTransitions(t *testing.T) {
	t.Run("confirmed moves a pending order", func(t *testing.T) {
		f := newFixture(t)
		f.seedOrder(enums.IFoodOrderStatusPending)

		processed, err := f.service.ProcessBatch(context.Background(), []events.Event{
			eventFor(events.ActionConfirmed, nil),
		})
		require.NoError(t, err)
		assert.Equal(t, 1, processed)

		row, _ := f.ordersRepo.FindByMarketplaceID(context.Background(), f.tenant.RestaurantID, "ord-1")
		assert.Equal(t, enums.IFoodOrderStatusConfirmed, row.Status)
		require.Len(t, f.feed.changes, 1)
		assert.Equal(t, feed.TypeUpdate, f.feed.changes[0].Type)
	})

	t.Run("out-of-order event leaves the row untouched", func(t *testing.T) {
		f := newFixture(t)
		f.seedOrder(enums.IFoodOrderStatusDispatched)

		processed, err := f.service.ProcessBatch(context.Background(), []events.Event{
			eventFor(events.ActionConfirmed, nil),
		})
		require.NoError(t, err)
		assert.Equal(t, 1, processed)

		row, _ := f.ordersRepo.FindByMarketplaceID(context.Background(), f.tenant.RestaurantID, "ord-1")
		assert.Equal(t, enums.IFoodOrderStatusDispatched, row.Status)
		assert.Empty(t, f.feed.changes)
	})

	t.Run("terminal orders never move", func(t *testing.T) {
		f := newFixture(t)
		f.seedOrder(enums.IFoodOrderStatusCancelled)

		_, err := f.service.ProcessBatch(context.Background(), []events.Event{
			eventFor(events.ActionConcluded, nil),
		})
		require.NoError(t, err)

		row, _ := f.ordersRepo.FindByMarketplaceID(context.Background(), f.tenant.RestaurantID, "ord-1")
		assert.Equal(t, enums.IFoodOrderStatusCancelled, row.Status)
	})

	t.Run("event for unknown order is skipped", func(t *testing.T) {
		f := newFixture(t)

		processed, err := f.service.ProcessBatch(context.Background(), []events.Event{
			eventFor(events.ActionConfirmed, nil),
		})
		require.NoError(t, err)
		assert.Equal(t, 1, processed)
		assert.Empty(t, f.feed.changes)
	})
}

func TestService_PreparationStartedStampsAndProjects(t *testing.T) {
	f := newFixture(t)
	localID := uuid.New()
	row := f.seedOrder(enums.IFoodOrderStatusConfirmed)
	row.LocalOrderID = &localID

	processed, err := f.service.ProcessBatch(context.Background(), []events.Event{
		eventFor(events.ActionPreparationStarted, nil),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	updated, _ := f.ordersRepo.FindByMarketplaceID(context.Background(), f.tenant.RestaurantID, "ord-1")
	assert.Equal(t, enums.IFoodOrderStatusPreparing, updated.Status)
	require.NotNil(t, updated.PreparationStartedAt)
	assert.Equal(t, f.now, *updated.PreparationStartedAt)
	assert.Equal(t, enums.OrderStatusPreparing, f.localOrders.patched[localID])
}

func TestService_CancelledRecordsReason(t *testing.T) {
	t.Run("reason from metadata", func(t *testing.T) {
		f := newFixture(t)
		f.seedOrder(enums.IFoodOrderStatusPreparing)

		processed, err := f.service.ProcessBatch(context.Background(), []events.Event{
			eventFor(events.ActionCancelled, types.JSONMap{"reason": "ITEM_UNAVAILABLE"}),
		})
		require.NoError(t, err)
		assert.Equal(t, 1, processed)

		row, _ := f.ordersRepo.FindByMarketplaceID(context.Background(), f.tenant.RestaurantID, "ord-1")
		assert.Equal(t, enums.IFoodOrderStatusCancelled, row.Status)
		require.NotNil(t, row.RejectionReason)
		assert.Equal(t, "ITEM_UNAVAILABLE", *row.RejectionReason)
	})

	t.Run("absent reason is stored as empty", func(t *testing.T) {
		f := newFixture(t)
		f.seedOrder(enums.IFoodOrderStatusPreparing)

		_, err := f.service.ProcessBatch(context.Background(), []events.Event{
			eventFor(events.ActionCancelled, nil),
		})
		require.NoError(t, err)

		row, _ := f.ordersRepo.FindByMarketplaceID(context.Background(), f.tenant.RestaurantID, "ord-1")
		assert.Equal(t, enums.IFoodOrderStatusCancelled, row.Status)
		require.NotNil(t, row.RejectionReason)
		assert.Empty(t, *row.RejectionReason)
	})
}

func TestService_CancellationRequestFailedRollsBack(t *testing.T) {
	t.Run("back to preparing when the kitchen already started", func(t *testing.T) {
		f := newFixture(t)
		started := f.now.Add(-10 * time.Minute)
		row := f.seedOrder(enums.IFoodOrderStatusCancellationRequested)
		row.PreparationStartedAt = &started

		processed, err := f.service.ProcessBatch(context.Background(), []events.Event{
			eventFor(events.ActionCancellationRequestFailed, types.JSONMap{"reason": "too late"}),
		})
		require.NoError(t, err)
		assert.Equal(t, 1, processed)

		updated, _ := f.ordersRepo.FindByMarketplaceID(context.Background(), f.tenant.RestaurantID, "ord-1")
		assert.Equal(t, enums.IFoodOrderStatusPreparing, updated.Status)
		require.NotNil(t, updated.RejectionReason)
		assert.Equal(t, "Cancellation failed: too late", *updated.RejectionReason)
	})

	t.Run("back to confirmed otherwise", func(t *testing.T) {
		f := newFixture(t)
		f.seedOrder(enums.IFoodOrderStatusCancellationRequested)

		_, err := f.service.ProcessBatch(context.Background(), []events.Event{
			eventFor(events.ActionCancellationRequestFailed, nil),
		})
		require.NoError(t, err)

		updated, _ := f.ordersRepo.FindByMarketplaceID(context.Background(), f.tenant.RestaurantID, "ord-1")
		assert.Equal(t, enums.IFoodOrderStatusConfirmed, updated.Status)
	})

	t.Run("without a stored pending request the reason still lands", func(t *testing.T) {
		f := newFixture(t)
		started := f.now.Add(-5 * time.Minute)
		row := f.seedOrder(enums.IFoodOrderStatusPreparing)
		row.PreparationStartedAt = &started

		processed, err := f.service.ProcessBatch(context.Background(), []events.Event{
			eventFor(events.ActionCancellationRequestFailed, nil),
		})
		require.NoError(t, err)
		assert.Equal(t, 1, processed)

		updated, _ := f.ordersRepo.FindByMarketplaceID(context.Background(), f.tenant.RestaurantID, "ord-1")
		assert.Equal(t, enums.IFoodOrderStatusPreparing, updated.Status)
		require.NotNil(t, updated.RejectionReason)
		assert.Equal(t, "Cancellation failed", *updated.RejectionReason)
	})
}

func TestService_DriverAssigned(t *testing.T) {
	t.Run("flat metadata", func(t *testing.T) {
		f := newFixture(t)
		f.seedOrder(enums.IFoodOrderStatusDispatched)

		processed, err := f.service.ProcessBatch(context.Background(), []events.Event{
			eventFor(events.ActionDriverAssigned, types.JSONMap{"driverName": "Carlos", "driverPhone": "+5511999999999"}),
		})
		require.NoError(t, err)
		assert.Equal(t, 1, processed)

		row, _ := f.ordersRepo.FindByMarketplaceID(context.Background(), f.tenant.RestaurantID, "ord-1")
		assert.Equal(t, enums.IFoodOrderStatusDispatched, row.Status)
		require.NotNil(t, row.DriverName)
		assert.Equal(t, "Carlos", *row.DriverName)
		assert.True(t, row.TrackingAvailable)
	})

	t.Run("nested driver object", func(t *testing.T) {
		f := newFixture(t)
		f.seedOrder(enums.IFoodOrderStatusDispatched)

		_, err := f.service.ProcessBatch(context.Background(), []events.Event{
			eventFor(events.ActionDriverAssigned, types.JSONMap{
				"driver": map[string]any{"name": "Bia", "phone": "+5511888888888"},
			}),
		})
		require.NoError(t, err)

		row, _ := f.ordersRepo.FindByMarketplaceID(context.Background(), f.tenant.RestaurantID, "ord-1")
		require.NotNil(t, row.DriverName)
		assert.Equal(t, "Bia", *row.DriverName)
		require.NotNil(t, row.DriverPhone)
		assert.Equal(t, "+5511888888888", *row.DriverPhone)
	})

	t.Run("tracking flips on regardless of who delivers", func(t *testing.T) {
		f := newFixture(t)
		row := f.seedOrder(enums.IFoodOrderStatusDispatched)
		row.DeliveredBy = enums.DeliveredByMerchant

		_, err := f.service.ProcessBatch(context.Background(), []events.Event{
			eventFor(events.ActionDriverAssigned, nil),
		})
		require.NoError(t, err)

		updated, _ := f.ordersRepo.FindByMarketplaceID(context.Background(), f.tenant.RestaurantID, "ord-1")
		assert.True(t, updated.TrackingAvailable)
	})
}

func TestService_OrderPatchedAnnotates(t *testing.T) {
	f := newFixture(t)
	f.seedOrder(enums.IFoodOrderStatusConfirmed)

	_, err := f.service.ProcessBatch(context.Background(), []events.Event{
		eventFor(events.ActionOrderPatched, types.JSONMap{"patchType": "ITEM_REMOVED", "itemId": "it-1"}),
		eventFor(events.ActionOrderPatched, types.JSONMap{"patchType": "ITEM_ADDED", "itemId": "it-2"}),
	})
	require.NoError(t, err)

	row, _ := f.ordersRepo.FindByMarketplaceID(context.Background(), f.tenant.RestaurantID, "ord-1")
	require.Len(t, row.OrderData.Patches, 2)
	assert.Equal(t, "ITEM_REMOVED", row.OrderData.Patches[0].Type)
	assert.Equal(t, "ITEM_ADDED", row.OrderData.Patches[1].Type)
	assert.Equal(t, enums.IFoodOrderStatusConfirmed, row.Status)
}

func TestService_ReturnFlow(t *testing.T) {
	f := newFixture(t)
	f.seedOrder(enums.IFoodOrderStatusDispatched)

	processed, err := f.service.ProcessBatch(context.Background(), []events.Event{
		eventFor(events.ActionReturningToOrigin, nil),
		eventFor(events.ActionReturnCodeRequested, types.JSONMap{"returnCode": "7777"}),
		eventFor(events.ActionReturnedToOrigin, nil),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, processed)

	row, _ := f.ordersRepo.FindByMarketplaceID(context.Background(), f.tenant.RestaurantID, "ord-1")
	assert.Equal(t, enums.IFoodOrderStatusReturned, row.Status)
	assert.Equal(t, "7777", row.OrderData.ReturnCode)
}

func TestService_BatchIsolatesFailures(t *testing.T) {
	f := newFixture(t)
	f.seedOrder(enums.IFoodOrderStatusPending)
	f.ordersRepo.saveErr = errors.New("write failed")

	confirm := eventFor(events.ActionConfirmed, nil)
	unknown := eventFor("", nil)
	unknown.Code = "MYSTERY"

	// Both events count as processed: the failed one is surfaced through the
	// aggregated error, not the count.
	processed, err := f.service.ProcessBatch(context.Background(), []events.Event{confirm, unknown})
	require.Error(t, err)
	assert.Equal(t, 2, processed)
	assert.Contains(t, err.Error(), "write failed")
}
