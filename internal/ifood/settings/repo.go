package settings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/comandahub/comanda-backend/pkg/db/models"
	"github.com/comandahub/comanda-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a settings repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByRestaurantID(ctx context.Context, restaurantID uuid.UUID) (*models.IFoodSettings, error) {
	var settings models.IFoodSettings
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).
		First(&settings).Error
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *repository) FindByMerchantID(ctx context.Context, merchantID string) (*models.IFoodSettings, error) {
	var settings models.IFoodSettings
	err := r.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		First(&settings).Error
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *repository) UpdateSyncStatus(ctx context.Context, restaurantID uuid.UUID, status enums.SyncStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.IFoodSettings{}).
		Where("restaurant_id = ?", restaurantID).
		Update("sync_status", status).Error
}

func (r *repository) TouchLastSync(ctx context.Context, restaurantID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.IFoodSettings{}).
		Where("restaurant_id = ?", restaurantID).
		Updates(map[string]any{
			"last_sync_at": at,
			"sync_status":  enums.SyncStatusConnected,
		}).Error
}
