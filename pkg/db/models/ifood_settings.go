package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/comandahub/comanda-backend/pkg/enums"
)

// IFoodSettings is the per-tenant marketplace integration row. The webhook
// path only ever reads it; connect/save flows own the writes.
type IFoodSettings struct {
	ID               uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RestaurantID     uuid.UUID        `gorm:"column:restaurant_id;type:uuid;not null;uniqueIndex"`
	IsEnabled        bool             `gorm:"column:is_enabled;not null;default:false"`
	MerchantID       *string          `gorm:"column:merchant_id;index"`
	AccessToken      *string          `gorm:"column:access_token"`
	RefreshToken     *string          `gorm:"column:refresh_token"`
	TokenExpiresAt   *time.Time       `gorm:"column:token_expires_at"`
	AutoAcceptOrders bool             `gorm:"column:auto_accept_orders;not null;default:false"`
	SyncStatus       enums.SyncStatus `gorm:"column:sync_status;type:text;not null;default:'disconnected'"`
	WebhookSecret    *string          `gorm:"column:webhook_secret"`
	LastSyncAt       *time.Time       `gorm:"column:last_sync_at"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (IFoodSettings) TableName() string {
	return "ifood_settings"
}

// HasValidToken reports whether an access token is present and not expired.
func (s *IFoodSettings) HasValidToken(now time.Time) bool {
	if s == nil || s.AccessToken == nil || *s.AccessToken == "" {
		return false
	}
	if s.TokenExpiresAt != nil && s.TokenExpiresAt.Before(now) {
		return false
	}
	return true
}
