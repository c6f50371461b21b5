package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopfront/retail-backend/internal/inventory"
	"github.com/shopfront/retail-backend/internal/notifications"
	"github.com/shopfront/retail-backend/pkg/db/models"
	"github.com/shopfront/retail-backend/pkg/enums"
	"github.com/shopfront/retail-backend/pkg/pagination"
)

// Repository defines persistence operations for orders and their items. The
// cart is the user's order in status new.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindActiveCart(ctx context.Context, userID uuid.UUID) (*models.Order, error)
	GetOrCreateActiveCart(ctx context.Context, userID uuid.UUID) (*models.Order, error)
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)
	FindItem(ctx context.Context, orderID, itemID uuid.UUID) (*models.OrderItem, error)
	FindItemByListing(ctx context.Context, orderID, productInfoID uuid.UUID) (*models.OrderItem, error)
	CreateItem(ctx context.Context, item *models.OrderItem) error
	UpdateItem(ctx context.Context, item *models.OrderItem) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	ItemTotals(ctx context.Context, orderID uuid.UUID) (Totals, error)
	UpdateItemsCount(ctx context.Context, orderID uuid.UUID, count int) error
	UpdateStatus(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus) error
	SetContact(ctx context.Context, orderID uuid.UUID, contactID *uuid.UUID) error
	FindContact(ctx context.Context, userID, contactID uuid.UUID) (*models.Contact, error)
	FindShopIDByOwner(ctx context.Context, ownerID uuid.UUID) (uuid.UUID, error)
	HasShopItems(ctx context.Context, orderID, shopID uuid.UUID) (bool, error)
	ListPlaced(ctx context.Context, scope ListScope, limit int, cursor *pagination.Cursor) ([]models.Order, *pagination.Cursor, error)
	DeactivateStaleCarts(ctx context.Context, cutoff time.Time) (int64, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// StockAdjuster reads and moves listing stock on the caller's transaction.
type StockAdjuster interface {
	Shortages(ctx context.Context, tx *gorm.DB, lines []inventory.Line) ([]inventory.Shortage, error)
	Decrement(ctx context.Context, tx *gorm.DB, lines []inventory.Line) error
	Restore(ctx context.Context, tx *gorm.DB, lines []inventory.Line) error
}

// Notifier queues the order emails on the caller's transaction.
type Notifier interface {
	EnqueueOrderPlaced(ctx context.Context, tx *gorm.DB, notice notifications.OrderNotice) error
	EnqueueOrderStatus(ctx context.Context, tx *gorm.DB, notice notifications.OrderNotice) error
}

type outcomeRecorder interface {
	IncCheckout(outcome string)
	IncTransition(status string)
}
