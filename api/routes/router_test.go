package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopfront/retail-backend/api/controllers"
	"github.com/shopfront/retail-backend/internal/cart"
	"github.com/shopfront/retail-backend/internal/catalog"
	"github.com/shopfront/retail-backend/internal/orders"
	"github.com/shopfront/retail-backend/internal/reviews"
	"github.com/shopfront/retail-backend/internal/users"
	"github.com/shopfront/retail-backend/pkg/auth/authtest"
	"github.com/shopfront/retail-backend/pkg/config"
	"github.com/shopfront/retail-backend/pkg/enums"
	"github.com/shopfront/retail-backend/pkg/metrics"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type memoryStore struct {
	mu     sync.Mutex
	values map[string]string
	counts map[string]int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}, counts: map[string]int64{}}
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key], nil
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

func (m *memoryStore) IdempotencyKey(scope, id string) string { return "idem:" + scope + ":" + id }

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func (m *memoryStore) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[key]++
	return m.counts[key], nil
}

func (m *memoryStore) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[scope]++
	return m.counts[scope] <= limit, m.counts[scope], nil
}

// Unimplemented methods of the embedded interfaces panic; the tests below only
// reach the overridden ones.
type stubUsers struct{ users.Service }

func (stubUsers) Profile(ctx context.Context, userID uuid.UUID) (*users.ProfileDTO, error) {
	return &users.ProfileDTO{UserDTO: users.UserDTO{ID: userID}}, nil
}

type stubCatalog struct{ catalog.Service }

func (stubCatalog) ListCategories(ctx context.Context) ([]catalog.NamedView, error) {
	return []catalog.NamedView{{ID: uuid.New(), Name: "Phones"}}, nil
}

func (stubCatalog) SetShopState(ctx context.Context, ownerID uuid.UUID, state bool) (*catalog.ShopView, error) {
	return &catalog.ShopView{ID: uuid.New(), State: state}, nil
}

type stubCart struct{ cart.Service }

func (stubCart) Get(ctx context.Context, userID uuid.UUID) (*orders.OrderView, error) {
	return &orders.OrderView{UserID: userID, Status: enums.OrderStatusNew}, nil
}

type countingOrders struct {
	orders.Service
	mu        sync.Mutex
	checkouts int
}

func (c *countingOrders) Checkout(ctx context.Context, input orders.CheckoutInput) (*orders.OrderView, error) {
	c.mu.Lock()
	c.checkouts++
	c.mu.Unlock()
	return &orders.OrderView{ID: uuid.New(), UserID: input.UserID, Status: enums.OrderStatusOrdered}, nil
}

type stubReviews struct{}

func (stubReviews) AddComment(ctx context.Context, userID, productID uuid.UUID, input reviews.AddCommentInput) (*reviews.CommentView, error) {
	return &reviews.CommentView{ID: uuid.New(), UserID: userID, Text: input.Text, Rating: input.Rating}, nil
}

func (stubReviews) ListComments(ctx context.Context, productID uuid.UUID, cursor string, limit int) (*reviews.CommentList, error) {
	return &reviews.CommentList{Comments: []reviews.CommentView{}}, nil
}

type harness struct {
	handler http.Handler
	cfg     *config.Config
	orders  *countingOrders
}

func newHarness(t *testing.T, opts ...func(*config.Config)) *harness {
	t.Helper()
	cfg := &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: authtest.Config(),
		RateLimit: config.RateLimitConfig{
			AnonPerSecond:      100,
			UserPerSecond:      100,
			RegisterWindow:     time.Minute,
			RegisterIPLimit:    100,
			RegisterEmailLimit: 100,
		},
		Shop: config.ShopConfig{IdempotencyTTL: time.Hour},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	reg := prometheus.NewRegistry()
	ordersSvc := &countingOrders{}
	handler := NewRouter(
		cfg,
		nil,
		map[string]controllers.Pinger{"db": stubPinger{}, "redis": stubPinger{}},
		newMemoryStore(),
		metrics.NewHTTPMetrics(reg),
		reg,
		stubUsers{},
		stubCatalog{},
		stubCart{},
		ordersSvc,
		stubReviews{},
	)
	return &harness{handler: handler, cfg: cfg, orders: ordersSvc}
}

func (h *harness) do(t *testing.T, method, target, body, token string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp := httptest.NewRecorder()
	h.handler.ServeHTTP(resp, req)
	return resp
}

func (h *harness) token(t *testing.T, userType enums.UserType) string {
	return authtest.Mint(t, h.cfg.JWT, uuid.New(), userType, time.Hour)
}

func TestHealthRoutes(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/health/live", "", "", nil).Code)
	assert.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/health/ready", "", "", nil).Code)
}

func TestMetricsEndpointExposesRequestCounter(t *testing.T) {
	h := newHarness(t)
	h.do(t, http.MethodGet, "/api/v1/catalog/categories", "", "", nil)

	resp := h.do(t, http.MethodGet, "/metrics", "", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `retail_http_requests_total{method="GET",route="/api/v1/catalog/categories",status="200"}`)
}

func TestPublicCatalogNeedsNoToken(t *testing.T) {
	h := newHarness(t)
	resp := h.do(t, http.MethodGet, "/api/v1/catalog/categories", "", "", nil)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Phones")
}

func TestPublicRouteRejectsInvalidToken(t *testing.T) {
	h := newHarness(t)
	resp := h.do(t, http.MethodGet, "/api/v1/catalog/categories", "", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAuthenticatedRoutesRequireToken(t *testing.T) {
	h := newHarness(t)

	for _, target := range []string{"/api/v1/cart", "/api/v1/profile", "/api/v1/orders"} {
		resp := h.do(t, http.MethodGet, target, "", "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.Code, target)
	}

	resp := h.do(t, http.MethodGet, "/api/v1/cart", "", h.token(t, enums.UserTypeBuyer), nil)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestPartnerRoutesRequireShopUser(t *testing.T) {
	h := newHarness(t)

	resp := h.do(t, http.MethodPut, "/api/v1/partner/state", `{"state":true}`, h.token(t, enums.UserTypeBuyer), nil)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = h.do(t, http.MethodPut, "/api/v1/partner/state", `{"state":true}`, h.token(t, enums.UserTypeShop), nil)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestCheckoutRequiresIdempotencyKeyAndReplays(t *testing.T) {
	h := newHarness(t)
	token := h.token(t, enums.UserTypeBuyer)

	resp := h.do(t, http.MethodPost, "/api/v1/checkout", `{}`, token, nil)
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, 0, h.orders.checkouts)

	headers := map[string]string{"Idempotency-Key": "checkout-1"}
	first := h.do(t, http.MethodPost, "/api/v1/checkout", `{}`, token, headers)
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	second := h.do(t, http.MethodPost, "/api/v1/checkout", `{}`, token, headers)
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, h.orders.checkouts)
}

func TestPostCommentNeedsAuthButListIsPublic(t *testing.T) {
	h := newHarness(t)
	target := "/api/v1/products/" + uuid.NewString() + "/comments"

	assert.Equal(t, http.StatusOK, h.do(t, http.MethodGet, target, "", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, h.do(t, http.MethodPost, target, `{"text":"ok","rating":4}`, "", nil).Code)
	assert.Equal(t, http.StatusCreated, h.do(t, http.MethodPost, target, `{"text":"ok","rating":4}`, h.token(t, enums.UserTypeBuyer), nil).Code)
}

func TestAnonymousRateLimit(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) { cfg.RateLimit.AnonPerSecond = 1 })
	first := h.do(t, http.MethodGet, "/api/v1/catalog/categories", "", "", nil)
	second := h.do(t, http.MethodGet, "/api/v1/catalog/categories", "", "", nil)

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "1", second.Header().Get("Retry-After"))
}
