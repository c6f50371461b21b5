package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopfront/retail-backend/internal/inventory"
	"github.com/shopfront/retail-backend/internal/notifications"
	"github.com/shopfront/retail-backend/pkg/db/models"
	"github.com/shopfront/retail-backend/pkg/enums"
	pkgerrors "github.com/shopfront/retail-backend/pkg/errors"
	"github.com/shopfront/retail-backend/pkg/logger"
	"github.com/shopfront/retail-backend/pkg/metrics"
	"github.com/shopfront/retail-backend/pkg/outbox"
	"github.com/shopfront/retail-backend/pkg/pagination"
)

// Service defines order placement and lifecycle operations.
type Service interface {
	Checkout(ctx context.Context, input CheckoutInput) (*OrderView, error)
	ChangeStatus(ctx context.Context, input ChangeStatusInput) (*OrderView, error)
	List(ctx context.Context, params ListParams) (*OrderList, error)
	Detail(ctx context.Context, actor Actor, orderID uuid.UUID) (*OrderView, error)
}

// ServiceParams wires the order service.
type ServiceParams struct {
	Repo     Repository
	Tx       txRunner
	Stock    StockAdjuster
	Notifier Notifier
	Metrics  outcomeRecorder
	Logger   *logger.Logger
}

type service struct {
	repo     Repository
	tx       txRunner
	stock    StockAdjuster
	notifier Notifier
	metrics  outcomeRecorder
	logg     *logger.Logger
}

// NewService builds the order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Stock == nil {
		return nil, fmt.Errorf("stock adjuster required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	recorder := params.Metrics
	if recorder == nil {
		recorder = (*metrics.OrderMetrics)(nil)
	}
	return &service{
		repo:     params.Repo,
		tx:       params.Tx,
		stock:    params.Stock,
		notifier: params.Notifier,
		metrics:  recorder,
		logg:     params.Logger,
	}, nil
}

// Checkout turns the caller's cart into a placed order. Every line is checked
// against current stock first; stock is only taken when all lines pass, and
// the decrement, the status change and the order email commit together.
func (s *service) Checkout(ctx context.Context, input CheckoutInput) (*OrderView, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	outcome := metrics.CheckoutFailed
	defer func() { s.metrics.IncCheckout(outcome) }()

	var view *OrderView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := repo.FindActiveCart(ctx, input.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		items, err := repo.FindItems(ctx, cart.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart items")
		}
		if len(items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
		if input.ContactID != nil {
			if _, err := repo.FindContact(ctx, input.UserID, *input.ContactID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "contact not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load contact")
			}
		}

		lines := linesFor(items)
		shortages, err := s.stock.Shortages(ctx, tx, lines)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check stock")
		}
		if len(shortages) > 0 {
			outcome = metrics.CheckoutInsufficient
			return inventory.InsufficientStockError(shortages)
		}
		if err := s.stock.Decrement(ctx, tx, lines); err != nil {
			if errors.Is(err, inventory.ErrInsufficientStock) {
				// Another checkout took the stock between the check and the update.
				outcome = metrics.CheckoutInsufficient
				shortages, _ = s.stock.Shortages(ctx, tx, lines)
				return inventory.InsufficientStockError(shortages)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
		}

		totals, err := Recalculate(ctx, repo, cart.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recalculate order")
		}
		if input.ContactID != nil {
			if err := repo.SetContact(ctx, cart.ID, input.ContactID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach contact")
			}
		}
		if err := repo.UpdateStatus(ctx, cart.ID, enums.OrderStatusNew, enums.OrderStatusOrdered); err != nil {
			if errors.Is(err, ErrStatusChanged) {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "cart was checked out concurrently")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "place order")
		}

		order, err := repo.FindOrder(ctx, cart.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		if err := s.notifier.EnqueueOrderPlaced(ctx, tx, notifications.OrderNotice{
			OrderID:    order.ID,
			UserID:     order.UserID,
			Email:      userEmail(order),
			From:       enums.OrderStatusNew,
			To:         enums.OrderStatusOrdered,
			ItemsCount: totals.ItemsCount,
			TotalPrice: totals.TotalPrice,
			Actor:      &outbox.ActorRef{UserID: input.UserID, UserType: input.UserType},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue order email")
		}
		placed := NewOrderView(order)
		view = &placed
		return nil
	})
	if err != nil {
		return nil, err
	}

	outcome = metrics.CheckoutPlaced
	logCtx := s.logg.WithOrderID(ctx, view.ID.String())
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"items_count": view.TotalItemsCount,
		"total_price": view.TotalPrice.StringFixed(2),
	})
	s.logg.Info(logCtx, "order placed")
	return view, nil
}

// ChangeStatus moves a placed order to the requested status. Canceling an
// order that still holds stock returns the stock.
func (s *service) ChangeStatus(ctx context.Context, input ChangeStatusInput) (*OrderView, error) {
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Status.IsValid() || input.Status == enums.OrderStatusNew {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid target status")
	}

	var view *OrderView
	var from enums.OrderStatus
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := loadPlacedOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		if err := s.authorizeTransition(ctx, repo, input.Actor, order, input.Status); err != nil {
			return err
		}
		from = order.Status
		if !from.CanTransitionTo(input.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "status transition not allowed").
				WithDetails(map[string]any{"from": from, "to": input.Status})
		}
		if err := repo.UpdateStatus(ctx, order.ID, from, input.Status); err != nil {
			if errors.Is(err, ErrStatusChanged) {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if input.Status == enums.OrderStatusCanceled && from.HoldsStock() {
			if err := s.stock.Restore(ctx, tx, linesFor(order.Items)); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore stock")
			}
		}
		if err := s.notifier.EnqueueOrderStatus(ctx, tx, notifications.OrderNotice{
			OrderID: order.ID,
			UserID:  order.UserID,
			Email:   userEmail(order),
			From:    from,
			To:      input.Status,
			Actor:   &outbox.ActorRef{UserID: input.Actor.UserID, UserType: input.Actor.UserType},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue status email")
		}
		order.Status = input.Status
		changed := NewOrderView(order)
		view = &changed
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(string(input.Status))
	logCtx := s.logg.WithOrderID(ctx, input.OrderID.String())
	logCtx = s.logg.WithFields(logCtx, map[string]any{"from": from, "to": input.Status})
	s.logg.Info(logCtx, "order status changed")
	return view, nil
}

func (s *service) authorizeTransition(ctx context.Context, repo Repository, actor Actor, order *models.Order, target enums.OrderStatus) error {
	switch {
	case actor.UserType.IsStaff():
		return nil
	case order.UserID == actor.UserID && target == enums.OrderStatusCanceled && order.Status == enums.OrderStatusOrdered:
		return nil
	case actor.UserType == enums.UserTypeShop:
		return requireShopItems(ctx, repo, actor.UserID, order.ID)
	case order.UserID == actor.UserID:
		return pkgerrors.New(pkgerrors.CodeForbidden, "buyers may only cancel orders not yet confirmed")
	default:
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
}

func (s *service) List(ctx context.Context, params ListParams) (*OrderList, error) {
	if params.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if params.Status != nil && !params.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	scope := ListScope{Status: params.Status}
	switch {
	case params.Actor.UserType.IsStaff():
	case params.Actor.UserType == enums.UserTypeShop:
		shopID, err := s.repo.FindShopIDByOwner(ctx, params.Actor.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeForbidden, "no shop linked to this account")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shop")
		}
		scope.ShopID = &shopID
	default:
		userID := params.Actor.UserID
		scope.UserID = &userID
	}

	rows, next, err := s.repo.ListPlaced(ctx, scope, params.Limit, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	list := &OrderList{Orders: make([]OrderSummary, 0, len(rows))}
	for _, row := range rows {
		list.Orders = append(list.Orders, newOrderSummary(row))
	}
	if next != nil {
		list.NextCursor = pagination.EncodeCursor(*next)
	}
	return list, nil
}

func (s *service) Detail(ctx context.Context, actor Actor, orderID uuid.UUID) (*OrderView, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	order, err := loadPlacedOrder(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}
	switch {
	case order.UserID == actor.UserID, actor.UserType.IsStaff():
	case actor.UserType == enums.UserTypeShop:
		if err := requireShopItems(ctx, s.repo, actor.UserID, order.ID); err != nil {
			return nil, err
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	view := NewOrderView(order)
	return &view, nil
}

func loadPlacedOrder(ctx context.Context, repo Repository, orderID uuid.UUID) (*models.Order, error) {
	order, err := repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.Status == enums.OrderStatusNew {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func requireShopItems(ctx context.Context, repo Repository, ownerID, orderID uuid.UUID) error {
	shopID, err := repo.FindShopIDByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "no shop linked to this account")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shop")
	}
	ok, err := repo.HasShopItems(ctx, orderID, shopID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check order items")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return nil
}

func linesFor(items []models.OrderItem) []inventory.Line {
	lines := make([]inventory.Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, inventory.Line{ProductInfoID: item.ProductInfoID, Quantity: item.Quantity})
	}
	return lines
}

func userEmail(order *models.Order) string {
	if order.User == nil {
		return ""
	}
	return order.User.Email
}
