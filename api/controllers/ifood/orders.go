package ifood

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/comandahub/comanda-backend/api/middleware"
	"github.com/comandahub/comanda-backend/api/responses"
	"github.com/comandahub/comanda-backend/api/validators"
	"github.com/comandahub/comanda-backend/internal/ifood/commands"
	ifoodorders "github.com/comandahub/comanda-backend/internal/ifood/orders"
	pkgerrors "github.com/comandahub/comanda-backend/pkg/errors"
	pkgifood "github.com/comandahub/comanda-backend/pkg/ifood"
	"github.com/comandahub/comanda-backend/pkg/logger"
)

// CommandService is the slice of the command gateway the HTTP layer needs.
type CommandService interface {
	Accept(ctx context.Context, restaurantID uuid.UUID, orderID string) (ifoodorders.OrderView, error)
	Reject(ctx context.Context, restaurantID uuid.UUID, orderID string, input commands.RejectInput) (ifoodorders.OrderView, error)
	StartPreparation(ctx context.Context, restaurantID uuid.UUID, orderID string) (ifoodorders.OrderView, error)
	Ready(ctx context.Context, restaurantID uuid.UUID, orderID string) (ifoodorders.OrderView, error)
	Dispatch(ctx context.Context, restaurantID uuid.UUID, orderID string) (ifoodorders.OrderView, error)
	RequestCancellation(ctx context.Context, restaurantID uuid.UUID, orderID string, input commands.RejectInput) (ifoodorders.OrderView, error)
	CancellationReasons(ctx context.Context, restaurantID uuid.UUID, orderID string) ([]pkgifood.CancellationReason, error)
	Tracking(ctx context.Context, restaurantID uuid.UUID, orderID string) (commands.TrackingView, error)
	ValidatePickupCode(ctx context.Context, restaurantID uuid.UUID, orderID string, input commands.PickupCodeInput) (commands.PickupCodeResult, error)
	Poll(ctx context.Context, restaurantID uuid.UUID) (commands.PollResult, error)
	ListOrders(ctx context.Context, restaurantID uuid.UUID, view string) ([]ifoodorders.OrderView, error)
}

// ListOrders serves the operator dashboard's order board.
func ListOrders(svc CommandService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		restaurantID, err := tenantFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view := strings.TrimSpace(r.URL.Query().Get("view"))
		list, err := svc.ListOrders(r.Context(), restaurantID, view)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func Accept(svc CommandService, logg *logger.Logger) http.HandlerFunc {
	return command(logg, func(r *http.Request, restaurantID uuid.UUID, orderID string) (any, error) {
		return svc.Accept(r.Context(), restaurantID, orderID)
	})
}

func Reject(svc CommandService, logg *logger.Logger) http.HandlerFunc {
	return command(logg, func(r *http.Request, restaurantID uuid.UUID, orderID string) (any, error) {
		var input commands.RejectInput
		if err := validators.DecodeOptionalJSONBody(r, &input); err != nil {
			return nil, err
		}
		return svc.Reject(r.Context(), restaurantID, orderID, input)
	})
}

func StartPreparation(svc CommandService, logg *logger.Logger) http.HandlerFunc {
	return command(logg, func(r *http.Request, restaurantID uuid.UUID, orderID string) (any, error) {
		return svc.StartPreparation(r.Context(), restaurantID, orderID)
	})
}

func Ready(svc CommandService, logg *logger.Logger) http.HandlerFunc {
	return command(logg, func(r *http.Request, restaurantID uuid.UUID, orderID string) (any, error) {
		return svc.Ready(r.Context(), restaurantID, orderID)
	})
}

func Dispatch(svc CommandService, logg *logger.Logger) http.HandlerFunc {
	return command(logg, func(r *http.Request, restaurantID uuid.UUID, orderID string) (any, error) {
		return svc.Dispatch(r.Context(), restaurantID, orderID)
	})
}

func RequestCancellation(svc CommandService, logg *logger.Logger) http.HandlerFunc {
	return command(logg, func(r *http.Request, restaurantID uuid.UUID, orderID string) (any, error) {
		var input commands.RejectInput
		if err := validators.DecodeOptionalJSONBody(r, &input); err != nil {
			return nil, err
		}
		return svc.RequestCancellation(r.Context(), restaurantID, orderID, input)
	})
}

func CancellationReasons(svc CommandService, logg *logger.Logger) http.HandlerFunc {
	return command(logg, func(r *http.Request, restaurantID uuid.UUID, orderID string) (any, error) {
		return svc.CancellationReasons(r.Context(), restaurantID, orderID)
	})
}

func Tracking(svc CommandService, logg *logger.Logger) http.HandlerFunc {
	return command(logg, func(r *http.Request, restaurantID uuid.UUID, orderID string) (any, error) {
		return svc.Tracking(r.Context(), restaurantID, orderID)
	})
}

func ValidatePickupCode(svc CommandService, logg *logger.Logger) http.HandlerFunc {
	return command(logg, func(r *http.Request, restaurantID uuid.UUID, orderID string) (any, error) {
		var input commands.PickupCodeInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			return nil, err
		}
		return svc.ValidatePickupCode(r.Context(), restaurantID, orderID, input)
	})
}

// Poll triggers the polling fallback for tenants whose webhook delivery is
// degraded.
func Poll(svc CommandService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		restaurantID, err := tenantFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Poll(r.Context(), restaurantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type commandFunc func(r *http.Request, restaurantID uuid.UUID, orderID string) (any, error)

func command(logg *logger.Logger, fn commandFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		restaurantID, err := tenantFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := orderIDFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := fn(r, restaurantID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func tenantFrom(r *http.Request) (uuid.UUID, error) {
	restaurantID, ok := middleware.RestaurantIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "restaurant context missing")
	}
	return restaurantID, nil
}

func orderIDFrom(r *http.Request) (string, error) {
	orderID := strings.TrimSpace(chi.URLParam(r, "orderId"))
	if orderID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	return orderID, nil
}
