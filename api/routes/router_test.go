package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comandahub/comanda-backend/internal/ifood/commands"
	"github.com/comandahub/comanda-backend/internal/ifood/events"
	ifoodorders "github.com/comandahub/comanda-backend/internal/ifood/orders"
	"github.com/comandahub/comanda-backend/pkg/config"
	"github.com/comandahub/comanda-backend/pkg/db/models"
	pkgifood "github.com/comandahub/comanda-backend/pkg/ifood"
	"github.com/comandahub/comanda-backend/pkg/logger"
)

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

type memoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}}
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return value, nil
}

func (m *memoryStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value.(string)
	return nil
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	return true, nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return "test:" + scope + ":" + id
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

type routerPipeline struct {
	batches int
}

func (p *routerPipeline) ProcessBatch(_ context.Context, batch []events.Event) (int, error) {
	p.batches++
	return len(batch), nil
}

type routerSettings struct{}

func (routerSettings) FindByMerchantID(context.Context, string) (*models.IFoodSettings, error) {
	return &models.IFoodSettings{}, nil
}

type routerCommands struct {
	accepts int
}

func (s *routerCommands) Accept(_ context.Context, _ uuid.UUID, orderID string) (ifoodorders.OrderView, error) {
	s.accepts++
	return ifoodorders.OrderView{IFoodOrderID: orderID, Status: "confirmed"}, nil
}

func (s *routerCommands) Reject(_ context.Context, _ uuid.UUID, orderID string, _ commands.RejectInput) (ifoodorders.OrderView, error) {
	return ifoodorders.OrderView{IFoodOrderID: orderID}, nil
}

func (s *routerCommands) StartPreparation(_ context.Context, _ uuid.UUID, orderID string) (ifoodorders.OrderView, error) {
	return ifoodorders.OrderView{IFoodOrderID: orderID}, nil
}

func (s *routerCommands) Ready(_ context.Context, _ uuid.UUID, orderID string) (ifoodorders.OrderView, error) {
	return ifoodorders.OrderView{IFoodOrderID: orderID}, nil
}

func (s *routerCommands) Dispatch(_ context.Context, _ uuid.UUID, orderID string) (ifoodorders.OrderView, error) {
	return ifoodorders.OrderView{IFoodOrderID: orderID}, nil
}

func (s *routerCommands) RequestCancellation(_ context.Context, _ uuid.UUID, orderID string, _ commands.RejectInput) (ifoodorders.OrderView, error) {
	return ifoodorders.OrderView{IFoodOrderID: orderID}, nil
}

func (s *routerCommands) CancellationReasons(context.Context, uuid.UUID, string) ([]pkgifood.CancellationReason, error) {
	return nil, nil
}

func (s *routerCommands) Tracking(context.Context, uuid.UUID, string) (commands.TrackingView, error) {
	return commands.TrackingView{}, nil
}

func (s *routerCommands) ValidatePickupCode(context.Context, uuid.UUID, string, commands.PickupCodeInput) (commands.PickupCodeResult, error) {
	return commands.PickupCodeResult{}, nil
}

func (s *routerCommands) Poll(context.Context, uuid.UUID) (commands.PollResult, error) {
	return commands.PollResult{}, nil
}

func (s *routerCommands) ListOrders(context.Context, uuid.UUID, string) ([]ifoodorders.OrderView, error) {
	return []ifoodorders.OrderView{}, nil
}

func newRouterUnderTest(commandsSvc *routerCommands, pipeline *routerPipeline) http.Handler {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	return NewRouter(cfg, logg, okPinger{}, okPinger{}, newMemoryStore(), pipeline, routerSettings{}, commandsSvc)
}

func TestRouterHealthEndpoints(t *testing.T) {
	router := newRouterUnderTest(&routerCommands{}, &routerPipeline{})

	for _, path := range []string{"/health/live", "/health/ready"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRouterExposesMetrics(t *testing.T) {
	router := newRouterUnderTest(&routerCommands{}, &routerPipeline{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterWebhookSkipsTenantHeader(t *testing.T) {
	pipeline := &routerPipeline{}
	router := newRouterUnderTest(&routerCommands{}, pipeline)

	payload := []byte(`[{"id":"evt-1","fullCode":"PLACED","orderId":"ord-1","merchantId":"mrc-1","createdAt":"2026-01-15T12:00:00Z"}]`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/ifood", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 1, pipeline.batches)
}

func TestRouterCommandsRequireIdempotencyKey(t *testing.T) {
	svc := &routerCommands{}
	router := newRouterUnderTest(svc, &routerPipeline{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ifood/orders/ord-1/accept", bytes.NewReader(nil))
	req.Header.Set("X-Restaurant-Id", uuid.NewString())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, svc.accepts)
}

func TestRouterReplaysIdempotentCommand(t *testing.T) {
	svc := &routerCommands{}
	router := newRouterUnderTest(svc, &routerPipeline{})
	restaurantID := uuid.NewString()

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/ifood/orders/ord-1/accept", bytes.NewReader(nil))
		req.Header.Set("X-Restaurant-Id", restaurantID)
		req.Header.Set("Idempotency-Key", "key-1")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	first := send()
	require.Equal(t, http.StatusOK, first.Code)
	second := send()
	require.Equal(t, http.StatusOK, second.Code)

	assert.Equal(t, 1, svc.accepts)
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	var envelope struct {
		Data ifoodorders.OrderView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &envelope))
	assert.Equal(t, "ord-1", envelope.Data.IFoodOrderID)
}

func TestRouterUnknownRoute(t *testing.T) {
	router := newRouterUnderTest(&routerCommands{}, &routerPipeline{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/unknown", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
