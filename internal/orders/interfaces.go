package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/comandahub/comanda-backend/pkg/db/models"
	"github.com/comandahub/comanda-backend/pkg/enums"
)

// Repository is the slice of the POS order store the marketplace sync is
// allowed to touch: status patches on rows other flows created.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	PatchStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error
}
