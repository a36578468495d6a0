package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/comandahub/comanda-backend/pkg/enums"
)

// Order is the restaurant's own (native) order record, owned by the POS
// flows. The marketplace core only patches its status and only when a mirror
// row has already been linked to it.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RestaurantID    uuid.UUID         `gorm:"column:restaurant_id;type:uuid;not null;index"`
	OrderNumber     *int64            `gorm:"column:order_number"`
	OrderType       string            `gorm:"column:order_type;not null;default:'dine_in'"`
	Status          enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	CustomerName    *string           `gorm:"column:customer_name"`
	DeliveryPhone   *string           `gorm:"column:delivery_phone"`
	DeliveryAddress *string           `gorm:"column:delivery_address"`
	DeliveryFee     decimal.Decimal   `gorm:"column:delivery_fee;type:numeric(10,2);not null;default:0"`
	Total           decimal.Decimal   `gorm:"column:total;type:numeric(10,2);not null;default:0"`
	PaymentMethod   *string           `gorm:"column:payment_method"`
	Notes           *string           `gorm:"column:notes"`
	PrintStatus     string            `gorm:"column:print_status;not null;default:'pending'"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string {
	return "orders"
}
