package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/comandahub/comanda-backend/pkg/enums"
	"github.com/comandahub/comanda-backend/pkg/types"
)

// IFoodOrder mirrors one marketplace order locally. Rows are created only
// when a placed event arrives and are never hard-deleted; terminal statuses
// fall out of the active views instead.
type IFoodOrder struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RestaurantID uuid.UUID `gorm:"column:restaurant_id;type:uuid;not null;uniqueIndex:ux_ifood_orders_restaurant_order"`
	IFoodOrderID string    `gorm:"column:ifood_order_id;not null;uniqueIndex:ux_ifood_orders_restaurant_order"`

	DisplayID string                 `gorm:"column:ifood_display_id"`
	OrderData types.OrderDocument    `gorm:"column:order_data;type:jsonb;serializer:json"`
	Status    enums.IFoodOrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`

	ExpiresAt            *time.Time        `gorm:"column:expires_at"`
	OrderTiming          enums.OrderTiming `gorm:"column:order_timing;type:text;not null;default:'IMMEDIATE'"`
	OrderType            enums.OrderType   `gorm:"column:order_type;type:text;not null;default:'DELIVERY'"`
	DeliveredBy          enums.DeliveredBy `gorm:"column:delivered_by;type:text;not null;default:'IFOOD'"`
	ScheduledTo          *time.Time        `gorm:"column:scheduled_to"`
	PreparationStart     *time.Time        `gorm:"column:preparation_start_datetime"`
	PreparationStartedAt *time.Time        `gorm:"column:preparation_started_at"`
	PickupCode           *string           `gorm:"column:pickup_code"`
	DriverName           *string           `gorm:"column:driver_name"`
	DriverPhone          *string           `gorm:"column:driver_phone"`
	TrackingAvailable    bool              `gorm:"column:tracking_available;not null;default:false"`
	RejectionReason      *string           `gorm:"column:rejection_reason"`
	LocalOrderID         *uuid.UUID        `gorm:"column:local_order_id;type:uuid"`
	CreatedAt            time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (IFoodOrder) TableName() string {
	return "ifood_orders"
}
