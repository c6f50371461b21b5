package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/retail-backend/pkg/enums"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order is both the cart (status new) and a placed order. At most one
// active cart exists per user (ux_orders_active_cart).
type Order struct {
	ID              uuid.UUID         `gorm:"type:uuid;primaryKey"`
	UserID          uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	User            *User             `gorm:"foreignKey:UserID"`
	ContactID       *uuid.UUID        `gorm:"column:contact_id;type:uuid"`
	Contact         *Contact          `gorm:"foreignKey:ContactID"`
	Status          enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:new"`
	TotalItemsCount int               `gorm:"column:total_items_count;not null;default:0"`
	IsActive        bool              `gorm:"column:is_active;not null"`
	Items           []OrderItem       `gorm:"foreignKey:OrderID"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// TotalPrice sums the line totals of the loaded items.
func (o *Order) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for i := range o.Items {
		total = total.Add(o.Items[i].TotalPrice())
	}
	return total
}

// OrderItem is a cart or order line. Descriptive fields are copied from the
// listing when the line is written so the order survives catalog edits.
type OrderItem struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID       uuid.UUID       `gorm:"column:order_id;type:uuid;not null;uniqueIndex:ux_order_items_order_info"`
	ProductInfoID uuid.UUID       `gorm:"column:product_info_id;type:uuid;not null;uniqueIndex:ux_order_items_order_info"`
	ProductID     uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	ShopID        uuid.UUID       `gorm:"column:shop_id;type:uuid;not null;index"`
	CategoryID    *uuid.UUID      `gorm:"column:category_id;type:uuid"`
	BrandID       *uuid.UUID      `gorm:"column:brand_id;type:uuid"`
	ProductName   string          `gorm:"column:product_name;not null"`
	Model         string          `gorm:"column:model;not null;default:''"`
	ExternalID    string          `gorm:"column:external_id;not null;default:''"`
	Quantity      int             `gorm:"column:quantity;not null;check:ck_order_items_quantity,quantity > 0"`
	PricePerItem  decimal.Decimal `gorm:"column:price_per_item;type:numeric(10,2);not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// TotalPrice is the line total, price_per_item times quantity.
func (i OrderItem) TotalPrice() decimal.Decimal {
	return i.PricePerItem.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
