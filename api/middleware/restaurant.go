package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/comandahub/comanda-backend/api/responses"
	pkgerrors "github.com/comandahub/comanda-backend/pkg/errors"
	"github.com/comandahub/comanda-backend/pkg/logger"
)

const restaurantIDHeader = "X-Restaurant-Id"

type restaurantIDKey struct{}

// RestaurantContext resolves the acting tenant from the X-Restaurant-Id
// header and rejects requests that don't carry a valid one.
func RestaurantContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(restaurantIDHeader)
			if raw == "" {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "X-Restaurant-Id header required"))
				return
			}

			restaurantID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "X-Restaurant-Id must be a valid uuid"))
				return
			}

			ctx := context.WithValue(r.Context(), restaurantIDKey{}, restaurantID)
			if logg != nil {
				ctx = logg.WithRestaurantID(ctx, restaurantID.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RestaurantIDFromContext returns the tenant set by RestaurantContext.
func RestaurantIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(restaurantIDKey{}).(uuid.UUID)
	return id, ok
}
