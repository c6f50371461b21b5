package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopfront/retail-backend/pkg/db/models"
	"github.com/shopfront/retail-backend/pkg/enums"
)

// Actor is the authenticated caller of an order operation.
type Actor struct {
	UserID   uuid.UUID
	UserType enums.UserType
}

// CheckoutInput places the caller's cart.
type CheckoutInput struct {
	UserID    uuid.UUID
	UserType  enums.UserType
	ContactID *uuid.UUID
}

// ChangeStatusInput moves a placed order along its lifecycle.
type ChangeStatusInput struct {
	Actor   Actor
	OrderID uuid.UUID
	Status  enums.OrderStatus
}

// ListParams pages through the caller's placed orders.
type ListParams struct {
	Actor  Actor
	Status *enums.OrderStatus
	Limit  int
	Cursor string
}

// ItemView is an order line as returned to clients.
type ItemView struct {
	ID            uuid.UUID       `json:"id"`
	ProductInfoID uuid.UUID       `json:"product_info_id"`
	ProductID     uuid.UUID       `json:"product_id"`
	ShopID        uuid.UUID       `json:"shop_id"`
	CategoryID    *uuid.UUID      `json:"category_id,omitempty"`
	BrandID       *uuid.UUID      `json:"brand_id,omitempty"`
	ProductName   string          `json:"product_name"`
	Model         string          `json:"model"`
	ExternalID    string          `json:"external_id,omitempty"`
	Quantity      int             `json:"quantity"`
	PricePerItem  decimal.Decimal `json:"price_per_item"`
	TotalPrice    decimal.Decimal `json:"total_price"`
}

// ContactView is the delivery contact attached at checkout.
type ContactView struct {
	ID        uuid.UUID `json:"id"`
	City      string    `json:"city"`
	Street    string    `json:"street"`
	House     string    `json:"house,omitempty"`
	Structure string    `json:"structure,omitempty"`
	Building  string    `json:"building,omitempty"`
	Apartment string    `json:"apartment,omitempty"`
	Phone     string    `json:"phone"`
}

// OrderView is an order or cart with computed totals.
type OrderView struct {
	ID              uuid.UUID         `json:"id"`
	UserID          uuid.UUID         `json:"user_id"`
	Status          enums.OrderStatus `json:"status"`
	TotalItemsCount int               `json:"total_items_count"`
	TotalPrice      decimal.Decimal   `json:"total_price"`
	Contact         *ContactView      `json:"contact,omitempty"`
	Items           []ItemView        `json:"items"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// OrderSummary is one row of the orders list.
type OrderSummary struct {
	ID              uuid.UUID         `json:"id"`
	Status          enums.OrderStatus `json:"status"`
	TotalItemsCount int               `json:"total_items_count"`
	TotalPrice      decimal.Decimal   `json:"total_price"`
	CreatedAt       time.Time         `json:"created_at"`
}

// OrderList wraps a page of orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// NewItemView maps an order line.
func NewItemView(item models.OrderItem) ItemView {
	return ItemView{
		ID:            item.ID,
		ProductInfoID: item.ProductInfoID,
		ProductID:     item.ProductID,
		ShopID:        item.ShopID,
		CategoryID:    item.CategoryID,
		BrandID:       item.BrandID,
		ProductName:   item.ProductName,
		Model:         item.Model,
		ExternalID:    item.ExternalID,
		Quantity:      item.Quantity,
		PricePerItem:  item.PricePerItem,
		TotalPrice:    item.TotalPrice(),
	}
}

// NewOrderView maps an order with its loaded items. Totals are computed from
// the items, not read from the row.
func NewOrderView(order *models.Order) OrderView {
	totals := sumItems(order.Items)
	view := OrderView{
		ID:              order.ID,
		UserID:          order.UserID,
		Status:          order.Status,
		TotalItemsCount: totals.ItemsCount,
		TotalPrice:      totals.TotalPrice,
		Items:           make([]ItemView, 0, len(order.Items)),
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
	for _, item := range order.Items {
		view.Items = append(view.Items, NewItemView(item))
	}
	if c := order.Contact; c != nil {
		view.Contact = &ContactView{
			ID:        c.ID,
			City:      c.City,
			Street:    c.Street,
			House:     c.House,
			Structure: c.Structure,
			Building:  c.Building,
			Apartment: c.Apartment,
			Phone:     c.Phone,
		}
	}
	return view
}

func newOrderSummary(order models.Order) OrderSummary {
	totals := sumItems(order.Items)
	return OrderSummary{
		ID:              order.ID,
		Status:          order.Status,
		TotalItemsCount: totals.ItemsCount,
		TotalPrice:      totals.TotalPrice,
		CreatedAt:       order.CreatedAt,
	}
}
