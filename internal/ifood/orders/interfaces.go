package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/comandahub/comanda-backend/pkg/db/models"
	"github.com/comandahub/comanda-backend/pkg/enums"
)

// Repository persists marketplace order mirror rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.IFoodOrder) (*models.IFoodOrder, error)
	FindByMarketplaceID(ctx context.Context, restaurantID uuid.UUID, ifoodOrderID string) (*models.IFoodOrder, error)
	Save(ctx context.Context, order *models.IFoodOrder) (*models.IFoodOrder, error)
	ListPending(ctx context.Context, restaurantID uuid.UUID) ([]models.IFoodOrder, error)
	ListActive(ctx context.Context, restaurantID uuid.UUID) ([]models.IFoodOrder, error)
	ListByStatus(ctx context.Context, restaurantID uuid.UUID, statuses []enums.IFoodOrderStatus) ([]models.IFoodOrder, error)
	ListAllActive(ctx context.Context) ([]models.IFoodOrder, error)
}
