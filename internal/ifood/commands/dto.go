package commands

import (
	"time"

	"github.com/comandahub/comanda-backend/pkg/ifood"
)

// RejectInput carries an operator-chosen rejection or cancellation reason.
// Empty fields fall back to the marketplace's generic restaurant-cancelled
// reason.
type RejectInput struct {
	Reason           string `json:"reason" validate:"omitempty,max=500"`
	CancellationCode string `json:"cancellation_code" validate:"omitempty,max=10"`
}

const (
	defaultRejectReason = "RESTAURANT_CANCELLED"
	defaultRejectCode   = "501"
)

func (in RejectInput) withDefaults() ifood.RejectParams {
	params := ifood.RejectParams{
		Reason:           in.Reason,
		CancellationCode: in.CancellationCode,
	}
	if params.Reason == "" {
		params.Reason = defaultRejectReason
	}
	if params.CancellationCode == "" {
		params.CancellationCode = defaultRejectCode
	}
	return params
}

// PickupCodeInput is the code handed over by the customer at the counter.
type PickupCodeInput struct {
	Code string `json:"code" validate:"required,min=2,max=16"`
}

// PickupCodeResult reports whether the presented code matched.
type PickupCodeResult struct {
	Valid bool `json:"valid"`
}

// TrackingView is the tracking payload returned to clients.
type TrackingView struct {
	Available        bool       `json:"available"`
	Latitude         *float64   `json:"latitude,omitempty"`
	Longitude        *float64   `json:"longitude,omitempty"`
	ExpectedDelivery *time.Time `json:"expected_delivery,omitempty"`
	PickupEtaStart   *time.Time `json:"pickup_eta_start,omitempty"`
	DeliveryEtaEnd   *time.Time `json:"delivery_eta_end,omitempty"`
	TrackDate        *time.Time `json:"track_date,omitempty"`
}

// PollResult summarizes one polling fallback pass.
type PollResult struct {
	Fetched   int `json:"fetched"`
	Processed int `json:"processed"`
}
