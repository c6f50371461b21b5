package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopfront/retail-backend/pkg/db/models"
)

// Sort keys accepted by ListProducts. A leading '-' sorts descending.
const (
	SortByID        = "id"
	SortByName      = "name"
	SortByNameDesc  = "-name"
	SortByPrice     = "price"
	SortByPriceDesc = "-price"
)

// ProductFilter narrows the product listing. Zero values do not filter.
type ProductFilter struct {
	CategoryIDs []uuid.UUID
	BrandIDs    []uuid.UUID
	ShopID      *uuid.UUID
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	Query       string
	SortBy      string
	Page        int
	PageSize    int
}

// ShopView is a shop as listed publicly.
type ShopView struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	URL   *string   `json:"url,omitempty"`
	State bool      `json:"state"`
}

// NamedView is a category or brand.
type NamedView struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// ProductSummary is one product row of the listing, priced at its cheapest
// in-stock listing.
type ProductSummary struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	ImageURL    *string         `json:"image_url,omitempty"`
	CategoryID  *uuid.UUID      `json:"category_id,omitempty"`
	BrandID     *uuid.UUID      `json:"brand_id,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

// ProductList is a numbered page of products plus catalog-wide price bounds
// for the price filter.
type ProductList struct {
	Items      []ProductSummary `json:"items"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
	MinPrice   decimal.Decimal  `json:"min_price"`
	MaxPrice   decimal.Decimal  `json:"max_price"`
}

// ListingView is one shop's offer of a product.
type ListingView struct {
	ID         uuid.UUID         `json:"id"`
	ShopID     uuid.UUID         `json:"shop_id"`
	ShopName   string            `json:"shop_name"`
	ExternalID string            `json:"external_id,omitempty"`
	Model      string            `json:"model"`
	Price      decimal.Decimal   `json:"price"`
	PriceRRC   decimal.Decimal   `json:"price_rrc"`
	Quantity   int               `json:"quantity"`
	Parameters map[string]string `json:"parameters"`
}

// CommentView is a review shown on the product page.
type CommentView struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Text     string    `json:"text"`
	Rating   int       `json:"rating"`
	PostedAt time.Time `json:"posted_at"`
}

// ProductDetail is the product page.
type ProductDetail struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	ImageURL    *string       `json:"image_url,omitempty"`
	Category    *NamedView    `json:"category,omitempty"`
	Brand       *NamedView    `json:"brand,omitempty"`
	Listings    []ListingView `json:"listings"`
	Comments    []CommentView `json:"comments"`
	CartCount   int           `json:"cart_count"`
}

// ImportResult counts what a price list import touched.
type ImportResult struct {
	ShopID     uuid.UUID `json:"shop_id"`
	Categories int       `json:"categories"`
	Products   int       `json:"products"`
	Listings   int       `json:"listings"`
	Retired    int64     `json:"retired"`
}

func newShopView(shop models.Shop) ShopView {
	return ShopView{ID: shop.ID, Name: shop.Name, URL: shop.URL, State: shop.State}
}

func newListingView(info models.ProductInfo) ListingView {
	view := ListingView{
		ID:         info.ID,
		ShopID:     info.ShopID,
		ExternalID: info.ExternalID,
		Model:      info.Model,
		Price:      info.Price,
		PriceRRC:   info.PriceRRC,
		Quantity:   info.Quantity,
		Parameters: make(map[string]string, len(info.Parameters)),
	}
	if info.Shop != nil {
		view.ShopName = info.Shop.Name
	}
	for _, param := range info.Parameters {
		if param.Parameter != nil {
			view.Parameters[param.Parameter.Name] = param.Value
		}
	}
	return view
}

func newCommentView(comment models.Comment) CommentView {
	view := CommentView{
		ID:       comment.ID,
		UserID:   comment.UserID,
		Text:     comment.Text,
		Rating:   comment.Rating,
		PostedAt: comment.PostedAt,
	}
	if comment.User != nil {
		view.Username = comment.User.Username
	}
	return view
}
