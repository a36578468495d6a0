package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	pkgdb "github.com/comandahub/comanda-backend/pkg/db"
	"github.com/comandahub/comanda-backend/pkg/db/models"
	"github.com/comandahub/comanda-backend/pkg/enums"
	"github.com/comandahub/comanda-backend/pkg/types"
)

func setupIFoodOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	ifoodOrders := `
CREATE TABLE IF NOT EXISTS ifood_orders (
  id TEXT PRIMARY KEY,
  restaurant_id TEXT NOT NULL,
  ifood_order_id TEXT NOT NULL,
  ifood_display_id TEXT,
  order_data TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  expires_at DATETIME,
  order_timing TEXT NOT NULL DEFAULT 'IMMEDIATE',
  order_type TEXT NOT NULL DEFAULT 'DELIVERY',
  delivered_by TEXT NOT NULL DEFAULT 'IFOOD',
  scheduled_to DATETIME,
  preparation_start_datetime DATETIME,
  preparation_started_at DATETIME,
  pickup_code TEXT,
  driver_name TEXT,
  driver_phone TEXT,
  tracking_available INTEGER NOT NULL DEFAULT 0,
  rejection_reason TEXT,
  local_order_id TEXT,
  created_at DATETIME,
  updated_at DATETIME,
  CONSTRAINT ux_ifood_orders_restaurant_order UNIQUE (restaurant_id, ifood_order_id)
);`
	require.NoError(t, db.Exec(ifoodOrders).Error)
	return db
}

func newMirrorRow(restaurantID uuid.UUID, marketplaceID string, status enums.IFoodOrderStatus) *models.IFoodOrder {
	return &models.IFoodOrder{
		ID:           uuid.New(),
		RestaurantID: restaurantID,
		IFoodOrderID: marketplaceID,
		DisplayID:    "1234",
		Status:       status,
		OrderTiming:  enums.OrderTimingImmediate,
		OrderType:    enums.OrderTypeDelivery,
		DeliveredBy:  enums.DeliveredByIFood,
		OrderData: types.OrderDocument{
			Snapshot: types.JSONMap{"id": marketplaceID},
		},
	}
}

func TestIFoodOrdersRepository(t *testing.T) {
	db := setupIFoodOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	t.Run("create and find by marketplace id", func(t *testing.T) {
		restaurantID := uuid.New()
		created, err := repo.Create(ctx, newMirrorRow(restaurantID, "ord-1", enums.IFoodOrderStatusPending))
		require.NoError(t, err)

		found, err := repo.FindByMarketplaceID(ctx, restaurantID, "ord-1")
		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)
		assert.Equal(t, "ord-1", found.OrderData.Snapshot["id"])
	})

	t.Run("duplicate marketplace id is a unique violation", func(t *testing.T) {
		restaurantID := uuid.New()
		_, err := repo.Create(ctx, newMirrorRow(restaurantID, "ord-dup", enums.IFoodOrderStatusPending))
		require.NoError(t, err)

		_, err = repo.Create(ctx, newMirrorRow(restaurantID, "ord-dup", enums.IFoodOrderStatusPending))
		require.Error(t, err)
		assert.True(t, pkgdb.IsUniqueViolation(err, "ux_ifood_orders_restaurant_order"))
	})

	t.Run("same marketplace id under another tenant is fine", func(t *testing.T) {
		first := uuid.New()
		second := uuid.New()
		_, err := repo.Create(ctx, newMirrorRow(first, "ord-shared", enums.IFoodOrderStatusPending))
		require.NoError(t, err)
		_, err = repo.Create(ctx, newMirrorRow(second, "ord-shared", enums.IFoodOrderStatusPending))
		require.NoError(t, err)
	})

	t.Run("save persists reconciled fields", func(t *testing.T) {
		restaurantID := uuid.New()
		row, err := repo.Create(ctx, newMirrorRow(restaurantID, "ord-save", enums.IFoodOrderStatusConfirmed))
		require.NoError(t, err)

		startedAt := time.Now().UTC().Truncate(time.Second)
		row.Status = enums.IFoodOrderStatusPreparing
		row.PreparationStartedAt = &startedAt
		_, err = repo.Save(ctx, row)
		require.NoError(t, err)

		found, err := repo.FindByMarketplaceID(ctx, restaurantID, "ord-save")
		require.NoError(t, err)
		assert.Equal(t, enums.IFoodOrderStatusPreparing, found.Status)
		require.NotNil(t, found.PreparationStartedAt)
		assert.WithinDuration(t, startedAt, *found.PreparationStartedAt, time.Second)
	})

	t.Run("pending and active views", func(t *testing.T) {
		restaurantID := uuid.New()
		for i, status := range []enums.IFoodOrderStatus{
			enums.IFoodOrderStatusPending,
			enums.IFoodOrderStatusPreparing,
			enums.IFoodOrderStatusDispatched,
			enums.IFoodOrderStatusConcluded,
			enums.IFoodOrderStatusCancelled,
		} {
			_, err := repo.Create(ctx, newMirrorRow(restaurantID, "ord-view-"+string(rune('a'+i)), status))
			require.NoError(t, err)
		}

		pending, err := repo.ListPending(ctx, restaurantID)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, enums.IFoodOrderStatusPending, pending[0].Status)

		active, err := repo.ListActive(ctx, restaurantID)
		require.NoError(t, err)
		assert.Len(t, active, 3)
		for _, order := range active {
			assert.False(t, order.Status.IsTerminal())
		}
	})

	t.Run("missing row returns gorm not found", func(t *testing.T) {
		_, err := repo.FindByMarketplaceID(ctx, uuid.New(), "ord-missing")
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}
