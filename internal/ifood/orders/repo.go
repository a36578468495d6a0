package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/comandahub/comanda-backend/pkg/db/models"
	"github.com/comandahub/comanda-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a marketplace order repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.IFoodOrder) (*models.IFoodOrder, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindByMarketplaceID(ctx context.Context, restaurantID uuid.UUID, ifoodOrderID string) (*models.IFoodOrder, error) {
	var order models.IFoodOrder
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ? AND ifood_order_id = ?", restaurantID, ifoodOrderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) Save(ctx context.Context, order *models.IFoodOrder) (*models.IFoodOrder, error) {
	if err := r.db.WithContext(ctx).Save(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) ListPending(ctx context.Context, restaurantID uuid.UUID) ([]models.IFoodOrder, error) {
	return r.ListByStatus(ctx, restaurantID, []enums.IFoodOrderStatus{enums.IFoodOrderStatusPending})
}

func (r *repository) ListActive(ctx context.Context, restaurantID uuid.UUID) ([]models.IFoodOrder, error) {
	var orders []models.IFoodOrder
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ? AND status NOT IN ?", restaurantID, enums.TerminalIFoodOrderStatuses).
		Order("created_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// ListAllActive returns every non-terminal mirror row across tenants. The
// mirror consumer uses it to rebuild its snapshot on startup.
func (r *repository) ListAllActive(ctx context.Context) ([]models.IFoodOrder, error) {
	var orders []models.IFoodOrder
	err := r.db.WithContext(ctx).
		Where("status NOT IN ?", enums.TerminalIFoodOrderStatuses).
		Order("created_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) ListByStatus(ctx context.Context, restaurantID uuid.UUID, statuses []enums.IFoodOrderStatus) ([]models.IFoodOrder, error) {
	var orders []models.IFoodOrder
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ? AND status IN ?", restaurantID, statuses).
		Order("created_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}
