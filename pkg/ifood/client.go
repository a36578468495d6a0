package ifood

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/comandahub/comanda-backend/pkg/config"
	pkgerrors "github.com/comandahub/comanda-backend/pkg/errors"
	"github.com/comandahub/comanda-backend/pkg/types"
)

var errTokenRequired = errors.New("ifood access token is required")

// Client talks to the iFood merchant API. Tokens are per-tenant, so every
// call takes the tenant's bearer token explicitly.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient builds the merchant API client from configuration.
func NewClient(cfg config.IFoodConfig) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    base,
	}
}

// OrderDetail is the subset of the order resource the sync pipeline reads,
// alongside the raw payload kept as the stored snapshot.
type OrderDetail struct {
	ID          string         `json:"id"`
	DisplayID   string         `json:"displayId"`
	OrderTiming string         `json:"orderTiming"`
	OrderType   string         `json:"orderType"`
	ExpiresAt   *time.Time     `json:"expiresAt"`
	Schedule    *OrderSchedule `json:"schedule"`
	Delivery    *OrderDelivery `json:"delivery"`
	PickupCode  string         `json:"pickupCode"`
	Raw         types.JSONMap  `json:"-"`
}

type OrderSchedule struct {
	DeliveryDateTimeStart    *time.Time `json:"deliveryDateTimeStart"`
	PreparationStartDateTime *time.Time `json:"preparationStartDateTime"`
}

type OrderDelivery struct {
	DeliveredBy      string     `json:"deliveredBy"`
	DeliveryDateTime *time.Time `json:"deliveryDateTime"`
}

// CancellationReason is one marketplace-accepted cancellation code.
type CancellationReason struct {
	Code        string `json:"cancelCodeId"`
	Description string `json:"description"`
}

// RejectParams carries the reject/cancellation request body.
type RejectParams struct {
	Reason           string `json:"reason,omitempty"`
	CancellationCode string `json:"cancellationCode,omitempty"`
}

// Tracking is the driver position payload for deliveries run by iFood.
type Tracking struct {
	Latitude         *float64   `json:"latitude"`
	Longitude        *float64   `json:"longitude"`
	ExpectedDelivery *time.Time `json:"expectedDelivery"`
	PickupEtaStart   *time.Time `json:"etaToOrigin"`
	DeliveryEtaEnd   *time.Time `json:"etaToDestination"`
	TrackDate        *time.Time `json:"trackDate"`
}

// PollingEvent is one entry from the events:polling fallback endpoint.
type PollingEvent struct {
	ID         string        `json:"id"`
	Code       string        `json:"code"`
	FullCode   string        `json:"fullCode"`
	OrderID    string        `json:"orderId"`
	MerchantID string        `json:"merchantId"`
	CreatedAt  string        `json:"createdAt"`
	Metadata   types.JSONMap `json:"metadata"`
}

// GetOrder fetches the full order resource for snapshot enrichment.
func (c *Client) GetOrder(ctx context.Context, token, orderID string) (*OrderDetail, error) {
	body, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/order/v1.0/orders/%s", orderID), token, nil)
	if err != nil {
		return nil, err
	}

	var detail OrderDetail
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode order detail")
	}
	if err := json.Unmarshal(body, &detail.Raw); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode order snapshot")
	}
	return &detail, nil
}

// Confirm accepts a placed order on the marketplace.
func (c *Client) Confirm(ctx context.Context, token, orderID string) error {
	_, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/order/v1.0/orders/%s/confirm", orderID), token, nil)
	return err
}

// Reject declines a placed order.
func (c *Client) Reject(ctx context.Context, token, orderID string, params RejectParams) error {
	_, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/order/v1.0/orders/%s/reject", orderID), token, params)
	return err
}

// StartPreparation signals the kitchen began working on the order.
func (c *Client) StartPreparation(ctx context.Context, token, orderID string) error {
	_, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/order/v1.0/orders/%s/startPreparation", orderID), token, nil)
	return err
}

// ReadyToPickup marks the order ready for the driver/customer.
func (c *Client) ReadyToPickup(ctx context.Context, token, orderID string) error {
	_, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/order/v1.0/orders/%s/readyToPickup", orderID), token, nil)
	return err
}

// Dispatch marks a merchant-delivered order as out for delivery.
func (c *Client) Dispatch(ctx context.Context, token, orderID string) error {
	_, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/order/v1.0/orders/%s/dispatch", orderID), token, nil)
	return err
}

// CancellationReasons lists the codes the marketplace accepts for this order.
func (c *Client) CancellationReasons(ctx context.Context, token, orderID string) ([]CancellationReason, error) {
	body, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/order/v1.0/orders/%s/cancellationReasons", orderID), token, nil)
	if err != nil {
		return nil, err
	}
	var reasons []CancellationReason
	if err := json.Unmarshal(body, &reasons); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode cancellation reasons")
	}
	return reasons, nil
}

// RequestCancellation asks the marketplace to cancel an in-flight order.
func (c *Client) RequestCancellation(ctx context.Context, token, orderID string, params RejectParams) error {
	_, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/order/v1.0/orders/%s/requestCancellation", orderID), token, params)
	return err
}

// Tracking fetches the current driver position, when available.
func (c *Client) Tracking(ctx context.Context, token, orderID string) (*Tracking, error) {
	body, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/order/v1.0/orders/%s/tracking", orderID), token, nil)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, nil
	}
	var tracking Tracking
	if err := json.Unmarshal(body, &tracking); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode tracking")
	}
	return &tracking, nil
}

// VerifyPickupCode validates a customer pickup code. A marketplace rejection
// means the code is wrong, not that the call failed.
func (c *Client) VerifyPickupCode(ctx context.Context, token, orderID, code string) (bool, error) {
	_, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/order/v1.0/orders/%s/verifyDeliveryCode", orderID), token, map[string]string{"code": code})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeUpstream {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// PollEvents pulls pending events from the polling fallback endpoint.
func (c *Client) PollEvents(ctx context.Context, token string) ([]PollingEvent, error) {
	body, err := c.do(ctx, http.MethodGet, "/order/v1.0/events:polling", token, nil)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, nil
	}
	var events []PollingEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode polling events")
	}
	return events, nil
}

// AcknowledgeEvents confirms receipt of polled events so the marketplace
// stops redelivering them.
func (c *Client) AcknowledgeEvents(ctx context.Context, token string, eventIDs []string) error {
	if len(eventIDs) == 0 {
		return nil
	}
	payload := make([]map[string]string, 0, len(eventIDs))
	for _, id := range eventIDs {
		payload = append(payload, map[string]string{"id": id})
	}
	_, err := c.do(ctx, http.MethodPost, "/order/v1.0/events/acknowledgment", token, payload)
	return err
}

func (c *Client) do(ctx context.Context, method, path, token string, payload any) ([]byte, error) {
	if strings.TrimSpace(token) == "" {
		return nil, pkgerrors.Wrap(pkgerrors.CodePrecondition, errTokenRequired, "missing access token")
	}

	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode request body")
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "call ifood api")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read ifood response")
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = resp.Status
		}
		return nil, pkgerrors.New(pkgerrors.CodeUpstream, fmt.Sprintf("ifood %s %s: %s", method, path, msg))
	}
	return body, nil
}
