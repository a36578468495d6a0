package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/comandahub/comanda-backend/pkg/db/models"
	"github.com/comandahub/comanda-backend/pkg/enums"
	"github.com/comandahub/comanda-backend/pkg/types"
)

// OrderView is the wire representation of a marketplace order mirror row.
// It is what the listing endpoints return and what the change feed carries.
type OrderView struct {
	ID                   uuid.UUID              `json:"id"`
	RestaurantID         uuid.UUID              `json:"restaurant_id"`
	IFoodOrderID         string                 `json:"ifood_order_id"`
	DisplayID            string                 `json:"display_id,omitempty"`
	Status               enums.IFoodOrderStatus `json:"status"`
	OrderTiming          enums.OrderTiming      `json:"order_timing"`
	OrderType            enums.OrderType        `json:"order_type"`
	DeliveredBy          enums.DeliveredBy      `json:"delivered_by"`
	ExpiresAt            *time.Time             `json:"expires_at,omitempty"`
	ScheduledTo          *time.Time             `json:"scheduled_to,omitempty"`
	PreparationStart     *time.Time             `json:"preparation_start_datetime,omitempty"`
	PreparationStartedAt *time.Time             `json:"preparation_started_at,omitempty"`
	PickupCode           *string                `json:"pickup_code,omitempty"`
	DriverName           *string                `json:"driver_name,omitempty"`
	DriverPhone          *string                `json:"driver_phone,omitempty"`
	TrackingAvailable    bool                   `json:"tracking_available"`
	RejectionReason      *string                `json:"rejection_reason,omitempty"`
	LocalOrderID         *uuid.UUID             `json:"local_order_id,omitempty"`
	OrderData            types.OrderDocument    `json:"order_data"`
	CreatedAt            time.Time              `json:"created_at"`
	UpdatedAt            time.Time              `json:"updated_at"`
}

// NewOrderView maps a mirror row to its wire representation.
func NewOrderView(m models.IFoodOrder) OrderView {
	return OrderView{
		ID:                   m.ID,
		RestaurantID:         m.RestaurantID,
		IFoodOrderID:         m.IFoodOrderID,
		DisplayID:            m.DisplayID,
		Status:               m.Status,
		OrderTiming:          m.OrderTiming,
		OrderType:            m.OrderType,
		DeliveredBy:          m.DeliveredBy,
		ExpiresAt:            m.ExpiresAt,
		ScheduledTo:          m.ScheduledTo,
		PreparationStart:     m.PreparationStart,
		PreparationStartedAt: m.PreparationStartedAt,
		PickupCode:           m.PickupCode,
		DriverName:           m.DriverName,
		DriverPhone:          m.DriverPhone,
		TrackingAvailable:    m.TrackingAvailable,
		RejectionReason:      m.RejectionReason,
		LocalOrderID:         m.LocalOrderID,
		OrderData:            m.OrderData,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}

// NewOrderViews maps a slice of mirror rows.
func NewOrderViews(rows []models.IFoodOrder) []OrderView {
	views := make([]OrderView, 0, len(rows))
	for _, row := range rows {
		views = append(views, NewOrderView(row))
	}
	return views
}
