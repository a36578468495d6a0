package events

import (
	"bytes"
	"encoding/json"
	"strings"

	pkgerrors "github.com/comandahub/comanda-backend/pkg/errors"
	"github.com/comandahub/comanda-backend/pkg/types"
)

// Action is the canonical lifecycle action behind a marketplace event code.
type Action string

const (
	ActionPlaced                      Action = "placed"
	ActionConfirmed                   Action = "confirmed"
	ActionPreparationStarted          Action = "preparation_started"
	ActionReady                       Action = "ready"
	ActionDispatched                  Action = "dispatched"
	ActionConcluded                   Action = "concluded"
	ActionCancelled                   Action = "cancelled"
	ActionCancellationRequested       Action = "cancellation_requested"
	ActionCancellationRequestFailed   Action = "cancellation_request_failed"
	ActionDriverAssigned              Action = "driver_assigned"
	ActionPickupCodeRequested         Action = "pickup_code_requested"
	ActionOrderPatched                Action = "order_patched"
	ActionReturningToOrigin           Action = "returning_to_origin"
	ActionReturnCodeRequested         Action = "return_code_requested"
	ActionReturnedToOrigin            Action = "returned_to_origin"
	ActionStartPreparationRecommended Action = "start_preparation_recommended"
)

// The marketplace sends both short and full codes for the same action,
// depending on delivery channel. Both spellings map to one Action.
var actionByCode = map[string]Action{
	"PLC":                            ActionPlaced,
	"PLACED":                         ActionPlaced,
	"CFM":                            ActionConfirmed,
	"CONFIRMED":                      ActionConfirmed,
	"PRS":                            ActionPreparationStarted,
	"PREPARATION_STARTED":            ActionPreparationStarted,
	"RTP":                            ActionReady,
	"READY_TO_PICKUP":                ActionReady,
	"DSP":                            ActionDispatched,
	"DISPATCHED":                     ActionDispatched,
	"CON":                            ActionConcluded,
	"CONCLUDED":                      ActionConcluded,
	"CAN":                            ActionCancelled,
	"CANCELLED":                      ActionCancelled,
	"CCR":                            ActionCancellationRequested,
	"CANCELLATION_REQUESTED":         ActionCancellationRequested,
	"CARF":                           ActionCancellationRequestFailed,
	"CANCELLATION_REQUEST_FAILED":    ActionCancellationRequestFailed,
	"ADR":                            ActionDriverAssigned,
	"ASSIGN_DRIVER":                  ActionDriverAssigned,
	"DELIVERY_PICKUP_CODE_REQUESTED": ActionPickupCodeRequested,
	"ORDER_PATCHED":                  ActionOrderPatched,
	"DELIVERY_RETURNING_TO_ORIGIN":   ActionReturningToOrigin,
	"DELIVERY_RETURN_CODE_REQUESTED": ActionReturnCodeRequested,
	"DELIVERY_RETURNED_TO_ORIGIN":    ActionReturnedToOrigin,
	"RECOMMENDED_START_PREPARATION":  ActionStartPreparationRecommended,
}

// ParseAction resolves the canonical action for a raw event code. The
// fullCode wins when both are present and disagree, matching the
// marketplace's own precedence.
func ParseAction(code, fullCode string) (Action, bool) {
	if action, ok := actionByCode[strings.ToUpper(strings.TrimSpace(fullCode))]; ok {
		return action, true
	}
	if action, ok := actionByCode[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return action, true
	}
	return "", false
}

// Event is a normalized marketplace event ready for the sync pipeline.
// Action is empty when the code is unknown; such events are kept so the
// caller can count and log them.
type Event struct {
	ID         string
	Code       string
	Action     Action
	OrderID    string
	MerchantID string
	CreatedAt  string
	Metadata   types.JSONMap
}

type rawEvent struct {
	ID         string        `json:"id"`
	Code       string        `json:"code"`
	FullCode   string        `json:"fullCode"`
	OrderID    string        `json:"orderId"`
	MerchantID string        `json:"merchantId"`
	CreatedAt  string        `json:"createdAt"`
	Metadata   types.JSONMap `json:"metadata"`
}

// Normalize decodes a webhook body into canonical events. The marketplace
// delivers either a single event object or an array of them; both shapes
// are accepted. Events missing orderId or merchantId are dropped and
// counted, since nothing downstream can route them.
func Normalize(body []byte) (kept []Event, dropped int, err error) {
	raws, err := decode(body)
	if err != nil {
		return nil, 0, err
	}

	kept = make([]Event, 0, len(raws))
	for _, raw := range raws {
		if strings.TrimSpace(raw.OrderID) == "" || strings.TrimSpace(raw.MerchantID) == "" {
			dropped++
			continue
		}

		code := raw.FullCode
		if code == "" {
			code = raw.Code
		}
		action, _ := ParseAction(raw.Code, raw.FullCode)

		kept = append(kept, Event{
			ID:         raw.ID,
			Code:       code,
			Action:     action,
			OrderID:    raw.OrderID,
			MerchantID: raw.MerchantID,
			CreatedAt:  raw.CreatedAt,
			Metadata:   raw.Metadata,
		})
	}
	return kept, dropped, nil
}

func decode(body []byte) ([]rawEvent, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "empty webhook body")
	}

	if trimmed[0] == '[' {
		var raws []rawEvent
		if err := json.Unmarshal(trimmed, &raws); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode webhook events")
		}
		return raws, nil
	}

	var raw rawEvent
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode webhook event")
	}
	return []rawEvent{raw}, nil
}
