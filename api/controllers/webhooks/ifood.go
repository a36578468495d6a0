package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/comandahub/comanda-backend/api/responses"
	"github.com/comandahub/comanda-backend/internal/ifood/events"
	"github.com/comandahub/comanda-backend/pkg/db/models"
	"github.com/comandahub/comanda-backend/pkg/logger"
)

const ifoodSignatureHeader = "X-IFood-Signature"

type IFoodEventPipeline interface {
	ProcessBatch(ctx context.Context, batch []events.Event) (int, error)
}

type IFoodSecretResolver interface {
	FindByMerchantID(ctx context.Context, merchantID string) (*models.IFoodSettings, error)
}

// IFoodWebhook ingests marketplace push events. The response contract is
// iFood's, not the platform envelope: anything accepted for processing gets a
// 202 even when individual events fail, because a non-2xx would make the
// marketplace redeliver the whole batch.
func IFoodWebhook(pipeline IFoodEventPipeline, settings IFoodSecretResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if pipeline == nil || settings == nil {
			responses.WriteWebhookError(w, http.StatusInternalServerError, "webhook pipeline unavailable")
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			logError(ctx, logg, "reading webhook body", err)
			responses.WriteWebhookError(w, http.StatusInternalServerError, "read request body")
			return
		}

		batch, dropped, err := events.Normalize(payload)
		if err != nil {
			logError(ctx, logg, "unparseable webhook payload", err)
			responses.WriteWebhookError(w, http.StatusBadRequest, "invalid event payload")
			return
		}
		if dropped > 0 && logg != nil {
			logg.Warn(logg.WithField(ctx, "dropped", dropped),
				"webhook events dropped for missing identifiers")
		}
		if len(batch) == 0 {
			responses.WriteWebhookAck(w, 0)
			return
		}

		// Signature verification is per tenant; all events in one delivery
		// come from the same merchant.
		secret := resolveSecret(ctx, settings, batch[0].MerchantID, logg)
		if secret != "" && !validSignature(payload, secret, r.Header.Get(ifoodSignatureHeader)) {
			responses.WriteWebhookError(w, http.StatusUnauthorized, "invalid signature")
			return
		}

		processed, err := pipeline.ProcessBatch(ctx, batch)
		if err != nil {
			logError(ctx, logg, "webhook batch partially failed", err)
		}
		responses.WriteWebhookAck(w, processed)
	}
}

// resolveSecret returns the tenant's webhook secret, or empty when the
// merchant is unknown or never configured one. Unknown merchants still get a
// 202 so the pipeline can log and skip them consistently.
func resolveSecret(ctx context.Context, settings IFoodSecretResolver, merchantID string, logg *logger.Logger) string {
	if merchantID == "" {
		return ""
	}
	tenant, err := settings.FindByMerchantID(ctx, merchantID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logError(ctx, logg, "resolving webhook secret", err)
		}
		return ""
	}
	if tenant.WebhookSecret == nil {
		return ""
	}
	return strings.TrimSpace(*tenant.WebhookSecret)
}

func validSignature(payload []byte, secret, header string) bool {
	header = strings.TrimSpace(header)
	if header == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(header)))
}

func logError(ctx context.Context, logg *logger.Logger, msg string, err error) {
	if logg == nil {
		return
	}
	logg.Error(ctx, msg, err)
}
