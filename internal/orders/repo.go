package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shopfront/retail-backend/pkg/db/models"
	"github.com/shopfront/retail-backend/pkg/enums"
	"github.com/shopfront/retail-backend/pkg/pagination"
)

// ErrStatusChanged is returned when a conditional status update matched no
// row because another request moved the order first.
var ErrStatusChanged = errors.New("order status changed concurrently")

// ListScope narrows which placed orders a listing returns. Nil fields do not
// filter.
type ListScope struct {
	UserID *uuid.UUID
	ShopID *uuid.UUID
	Status *enums.OrderStatus
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindActiveCart(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ? AND is_active = ?", userID, enums.OrderStatusNew, true).
		Take(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrCreateActiveCart returns the user's cart, creating it on first use.
// Concurrent creators collide on ux_orders_active_cart; the loser's insert is
// dropped by ON CONFLICT DO NOTHING and it reads the winner's row.
func (r *repository) GetOrCreateActiveCart(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	cart, err := r.FindActiveCart(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	fresh := &models.Order{
		UserID:   userID,
		Status:   enums.OrderStatusNew,
		IsActive: true,
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(fresh).Error; err != nil {
		return nil, err
	}
	return r.FindActiveCart(ctx, userID)
}

func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Preload("Contact").
		Preload("User").
		Where("id = ?", orderID).
		Take(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Find(&items).Error
	return items, err
}

func (r *repository) FindItem(ctx context.Context, orderID, itemID uuid.UUID) (*models.OrderItem, error) {
	var item models.OrderItem
	err := r.db.WithContext(ctx).
		Where("id = ? AND order_id = ?", itemID, orderID).
		Take(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindItemByListing(ctx context.Context, orderID, productInfoID uuid.UUID) (*models.OrderItem, error) {
	var item models.OrderItem
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND product_info_id = ?", orderID, productInfoID).
		Take(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) CreateItem(ctx context.Context, item *models.OrderItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// UpdateItem writes the quantity and the price fixed at this moment.
func (r *repository) UpdateItem(ctx context.Context, item *models.OrderItem) error {
	return r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{
			"quantity":       item.Quantity,
			"price_per_item": item.PricePerItem,
			"updated_at":     time.Now().UTC(),
		}).Error
}

func (r *repository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", itemID).Delete(&models.OrderItem{}).Error
}

// ItemTotals sums the order's lines. Prices are added in decimal so the total
// is exact.
func (r *repository) ItemTotals(ctx context.Context, orderID uuid.UUID) (Totals, error) {
	var items []models.OrderItem
	if err := r.db.WithContext(ctx).
		Select("quantity", "price_per_item").
		Where("order_id = ?", orderID).
		Find(&items).Error; err != nil {
		return Totals{}, err
	}
	return sumItems(items), nil
}

// UpdateItemsCount stores the item count and touches updated_at, which the
// stale-cart job reads.
func (r *repository) UpdateItemsCount(ctx context.Context, orderID uuid.UUID, count int) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]any{
			"total_items_count": count,
			"updated_at":        time.Now().UTC(),
		}).Error
}

func (r *repository) UpdateStatus(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(map[string]any{
			"status":     to,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStatusChanged
	}
	return nil
}

func (r *repository) SetContact(ctx context.Context, orderID uuid.UUID, contactID *uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		UpdateColumn("contact_id", contactID).Error
}

func (r *repository) FindContact(ctx context.Context, userID, contactID uuid.UUID) (*models.Contact, error) {
	var contact models.Contact
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", contactID, userID).
		Take(&contact).Error
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

func (r *repository) FindShopIDByOwner(ctx context.Context, ownerID uuid.UUID) (uuid.UUID, error) {
	var shop models.Shop
	err := r.db.WithContext(ctx).
		Select("id").
		Where("user_id = ?", ownerID).
		Take(&shop).Error
	if err != nil {
		return uuid.Nil, err
	}
	return shop.ID, nil
}

func (r *repository) HasShopItems(ctx context.Context, orderID, shopID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("order_id = ? AND shop_id = ?", orderID, shopID).
		Count(&count).Error
	return count > 0, err
}

// ListPlaced returns orders past checkout, newest first, one page at a time.
func (r *repository) ListPlaced(ctx context.Context, scope ListScope, limit int, cursor *pagination.Cursor) ([]models.Order, *pagination.Cursor, error) {
	normalized := pagination.NormalizeLimit(limit)
	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("status <> ?", enums.OrderStatusNew)
	if scope.UserID != nil {
		query = query.Where("user_id = ?", *scope.UserID)
	}
	if scope.ShopID != nil {
		query = query.Where("EXISTS (SELECT 1 FROM order_items oi WHERE oi.order_id = orders.id AND oi.shop_id = ?)", *scope.ShopID)
	}
	if scope.Status != nil {
		query = query.Where("status = ?", *scope.Status)
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var orders []models.Order
	if err := query.
		Preload("Items").
		Order("created_at DESC, id DESC").
		Limit(normalized + 1).
		Find(&orders).Error; err != nil {
		return nil, nil, err
	}
	if len(orders) > normalized {
		last := orders[normalized-1]
		return orders[:normalized], &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return orders, nil, nil
}

// DeactivateStaleCarts retires carts not touched since cutoff. Carts hold no
// stock so nothing else changes.
func (r *repository) DeactivateStaleCarts(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("status = ? AND is_active = ? AND updated_at < ?", enums.OrderStatusNew, true, cutoff).
		UpdateColumn("is_active", false)
	return res.RowsAffected, res.Error
}

func sumItems(items []models.OrderItem) Totals {
	totals := Totals{TotalPrice: decimal.Zero}
	for _, item := range items {
		totals.ItemsCount += item.Quantity
		totals.TotalPrice = totals.TotalPrice.Add(item.TotalPrice())
	}
	return totals
}
