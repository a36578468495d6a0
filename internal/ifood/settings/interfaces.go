package settings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/comandahub/comanda-backend/pkg/db/models"
	"github.com/comandahub/comanda-backend/pkg/enums"
)

// Repository reads and maintains per-tenant marketplace integration rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByRestaurantID(ctx context.Context, restaurantID uuid.UUID) (*models.IFoodSettings, error)
	FindByMerchantID(ctx context.Context, merchantID string) (*models.IFoodSettings, error)
	UpdateSyncStatus(ctx context.Context, restaurantID uuid.UUID, status enums.SyncStatus) error
	TouchLastSync(ctx context.Context, restaurantID uuid.UUID, at time.Time) error
}
