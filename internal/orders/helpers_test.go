package orders

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shopfront/retail-backend/internal/inventory"
	"github.com/shopfront/retail-backend/internal/notifications"
	"github.com/shopfront/retail-backend/pkg/db/models"
	"github.com/shopfront/retail-backend/pkg/enums"
	"github.com/shopfront/retail-backend/pkg/logger"
)

type gormTx struct {
	db *gorm.DB
}

func (g gormTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.db.WithContext(ctx).Transaction(fn)
}

type recordingNotifier struct {
	mu     sync.Mutex
	placed []notifications.OrderNotice
	status []notifications.OrderNotice
	err    error
}

func (r *recordingNotifier) EnqueueOrderPlaced(_ context.Context, _ *gorm.DB, notice notifications.OrderNotice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.placed = append(r.placed, notice)
	return nil
}

func (r *recordingNotifier) EnqueueOrderStatus(_ context.Context, _ *gorm.DB, notice notifications.OrderNotice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.status = append(r.status, notice)
	return nil
}

type recordingMetrics struct {
	checkouts   map[string]int
	transitions map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{checkouts: map[string]int{}, transitions: map[string]int{}}
}

func (m *recordingMetrics) IncCheckout(outcome string)  { m.checkouts[outcome]++ }
func (m *recordingMetrics) IncTransition(status string) { m.transitions[status]++ }

type serviceHarness struct {
	db       *gorm.DB
	repo     Repository
	notifier *recordingNotifier
	metrics  *recordingMetrics
	svc      Service
}

func newServiceHarness(t *testing.T, db *gorm.DB) *serviceHarness {
	t.Helper()
	h := &serviceHarness{
		db:       db,
		repo:     NewRepository(db),
		notifier: &recordingNotifier{},
		metrics:  newRecordingMetrics(),
	}
	svc, err := NewService(ServiceParams{
		Repo:     h.repo,
		Tx:       gormTx{db: db},
		Stock:    inventory.NewAdjuster(),
		Notifier: h.notifier,
		Metrics:  h.metrics,
		Logger:   logger.New(logger.Options{ServiceName: "orders-test", Output: io.Discard}),
	})
	require.NoError(t, err)
	h.svc = svc
	return h
}

// addLine puts qty of the listing into the order the way the cart does.
func addLine(t *testing.T, db *gorm.DB, order *models.Order, info *models.ProductInfo, qty int) *models.OrderItem {
	t.Helper()
	item := &models.OrderItem{
		OrderID:       order.ID,
		ProductInfoID: info.ID,
		ProductID:     info.ProductID,
		ShopID:        info.ShopID,
		ProductName:   info.Product.Name,
		Model:         info.Model,
		Quantity:      qty,
		PricePerItem:  info.Price,
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

func activeCart(t *testing.T, repo Repository, user *models.User) *models.Order {
	t.Helper()
	cart, err := repo.GetOrCreateActiveCart(context.Background(), user.ID)
	require.NoError(t, err)
	return cart
}

func reloadOrder(t *testing.T, db *gorm.DB, id any) models.Order {
	t.Helper()
	var order models.Order
	require.NoError(t, db.Where("id = ?", id).Take(&order).Error)
	return order
}

func placedStatus(t *testing.T, db *gorm.DB, order *models.Order) enums.OrderStatus {
	t.Helper()
	return reloadOrder(t, db, order.ID).Status
}

// placeOrder inserts an order already past checkout with one line per
// listing. Stock is left untouched.
func placeOrder(t *testing.T, db *gorm.DB, user *models.User, status enums.OrderStatus, createdAt time.Time, lines map[*models.ProductInfo]int) *models.Order {
	t.Helper()
	order := &models.Order{
		UserID:    user.ID,
		Status:    status,
		IsActive:  true,
		CreatedAt: createdAt.UTC(),
		UpdatedAt: createdAt.UTC(),
	}
	require.NoError(t, db.Create(order).Error)
	for info, qty := range lines {
		addLine(t, db, order, info, qty)
	}
	return order
}
