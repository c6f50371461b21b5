package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopfront/retail-backend/internal/inventory"
	"github.com/shopfront/retail-backend/internal/orders"
	"github.com/shopfront/retail-backend/pkg/db/models"
	"github.com/shopfront/retail-backend/pkg/enums"
	pkgerrors "github.com/shopfront/retail-backend/pkg/errors"
	"github.com/shopfront/retail-backend/pkg/logger"
)

// Service exposes the buyer's cart. Every mutation recalculates the cart
// totals before the transaction commits.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*orders.OrderView, error)
	Add(ctx context.Context, userID uuid.UUID, input AddItemInput) (*orders.OrderView, error)
	SetQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*orders.OrderView, error)
	Remove(ctx context.Context, userID, itemID uuid.UUID) (*orders.OrderView, error)
}

// AddItemInput puts quantity units of a listing into the cart.
type AddItemInput struct {
	ProductInfoID uuid.UUID
	Quantity      int
}

type service struct {
	repo  orders.Repository
	tx    txRunner
	stock listingStock
	logg  *logger.Logger
}

// NewService builds a cart service backed by the orders repository.
func NewService(repo orders.Repository, tx txRunner, stock listingStock, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if stock == nil {
		return nil, fmt.Errorf("listing stock required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, stock: stock, logg: logg}, nil
}

// Get returns the active cart, or an empty one when the user has none yet.
func (s *service) Get(ctx context.Context, userID uuid.UUID) (*orders.OrderView, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	cart, err := s.repo.FindActiveCart(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return emptyCart(userID), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	order, err := s.repo.FindOrder(ctx, cart.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart items")
	}
	view := orders.NewOrderView(order)
	return &view, nil
}

// Add creates the cart on first use and raises the line quantity. The
// resulting quantity must fit current stock; stock itself is only taken at
// checkout.
func (s *service) Add(ctx context.Context, userID uuid.UUID, input AddItemInput) (*orders.OrderView, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.ProductInfoID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_info_id is required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	var view *orders.OrderView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		listing, err := s.loadListing(ctx, tx, input.ProductInfoID)
		if err != nil {
			return err
		}
		if listing.Shop == nil || !listing.Shop.State {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "shop is not accepting orders")
		}

		cart, err := repo.GetOrCreateActiveCart(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		item, err := repo.FindItemByListing(ctx, cart.ID, listing.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
		}

		requested := input.Quantity
		if item != nil {
			requested += item.Quantity
		}
		if err := checkStock(listing, requested); err != nil {
			return err
		}

		if item == nil {
			fresh := snapshot(cart.ID, listing, requested)
			if err := repo.CreateItem(ctx, fresh); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart item")
			}
		} else {
			item.Quantity = requested
			item.PricePerItem = listing.Price
			if err := repo.UpdateItem(ctx, item); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
			}
		}

		view, err = recalculated(ctx, repo, cart.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// SetQuantity replaces a line's quantity and refreshes its price from the
// listing.
func (s *service) SetQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*orders.OrderView, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	var view *orders.OrderView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, item, err := loadCartItem(ctx, repo, userID, itemID)
		if err != nil {
			return err
		}
		listing, err := s.loadListing(ctx, tx, item.ProductInfoID)
		if err != nil {
			return err
		}
		if err := checkStock(listing, quantity); err != nil {
			return err
		}
		item.Quantity = quantity
		item.PricePerItem = listing.Price
		if err := repo.UpdateItem(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
		}
		view, err = recalculated(ctx, repo, cart.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// Remove deletes the line and returns its quantity to the listing's stock.
func (s *service) Remove(ctx context.Context, userID, itemID uuid.UUID) (*orders.OrderView, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var view *orders.OrderView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, item, err := loadCartItem(ctx, repo, userID, itemID)
		if err != nil {
			return err
		}
		if err := repo.DeleteItem(ctx, item.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
		}
		if err := s.stock.Restore(ctx, tx, []inventory.Line{{ProductInfoID: item.ProductInfoID, Quantity: item.Quantity}}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore stock")
		}
		view, err = recalculated(ctx, repo, cart.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithOrderID(ctx, view.ID.String())
	logCtx = s.logg.WithField(logCtx, "item_id", itemID.String())
	s.logg.Debug(logCtx, "cart item removed")
	return view, nil
}

func (s *service) loadListing(ctx context.Context, tx *gorm.DB, productInfoID uuid.UUID) (*models.ProductInfo, error) {
	listing, err := s.stock.FindListing(ctx, tx, productInfoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return listing, nil
}

func loadCartItem(ctx context.Context, repo orders.Repository, userID, itemID uuid.UUID) (*models.Order, *models.OrderItem, error) {
	if itemID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	cart, err := repo.FindActiveCart(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	item, err := repo.FindItem(ctx, cart.ID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}
	return cart, item, nil
}

func checkStock(listing *models.ProductInfo, requested int) error {
	if requested <= listing.Quantity {
		return nil
	}
	name := ""
	if listing.Product != nil {
		name = listing.Product.Name
	}
	return inventory.InsufficientStockError([]inventory.Shortage{{
		ProductInfoID: listing.ID,
		ProductName:   name,
		Requested:     requested,
		Available:     listing.Quantity,
	}})
}

// snapshot copies the listing fields an order line keeps even if the
// listing later changes.
func snapshot(orderID uuid.UUID, listing *models.ProductInfo, quantity int) *models.OrderItem {
	item := &models.OrderItem{
		OrderID:       orderID,
		ProductInfoID: listing.ID,
		ProductID:     listing.ProductID,
		ShopID:        listing.ShopID,
		Model:         listing.Model,
		ExternalID:    listing.ExternalID,
		Quantity:      quantity,
		PricePerItem:  listing.Price,
	}
	if p := listing.Product; p != nil {
		item.ProductName = p.Name
		item.CategoryID = p.CategoryID
		item.BrandID = p.BrandID
	}
	return item
}

func recalculated(ctx context.Context, repo orders.Repository, cartID uuid.UUID) (*orders.OrderView, error) {
	if _, err := orders.Recalculate(ctx, repo, cartID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recalculate cart")
	}
	order, err := repo.FindOrder(ctx, cartID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
	}
	view := orders.NewOrderView(order)
	return &view, nil
}

func emptyCart(userID uuid.UUID) *orders.OrderView {
	return &orders.OrderView{
		UserID: userID,
		Status: enums.OrderStatusNew,
		Items:  []orders.ItemView{},
	}
}
