package cart

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/shopfront/retail-backend/api/middleware"
	"github.com/shopfront/retail-backend/api/responses"
	"github.com/shopfront/retail-backend/api/validators"
	cartsvc "github.com/shopfront/retail-backend/internal/cart"
	internalorders "github.com/shopfront/retail-backend/internal/orders"
	"github.com/shopfront/retail-backend/pkg/logger"
)

type cartService interface {
	Get(ctx context.Context, userID uuid.UUID) (*internalorders.OrderView, error)
	Add(ctx context.Context, userID uuid.UUID, input cartsvc.AddItemInput) (*internalorders.OrderView, error)
	SetQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*internalorders.OrderView, error)
	Remove(ctx context.Context, userID, itemID uuid.UUID) (*internalorders.OrderView, error)
}

type addItemRequest struct {
	ProductInfoID uuid.UUID `json:"product_info_id" validate:"required"`
	Quantity      int       `json:"quantity" validate:"required,gt=0"`
}

type setQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

// CartFetch returns the caller's active cart; an empty view when none exists.
func CartFetch(svc cartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := middleware.RequireActor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Get(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CartAddItem puts a listing into the cart and returns the recalculated cart.
func CartAddItem(svc cartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := middleware.RequireActor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req addItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Add(r.Context(), userID, cartsvc.AddItemInput{
			ProductInfoID: req.ProductInfoID,
			Quantity:      req.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

func CartSetQuantity(svc cartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := middleware.RequireActor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := validators.PathUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req setQuantityRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.SetQuantity(r.Context(), userID, itemID, req.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func CartRemoveItem(svc cartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := middleware.RequireActor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := validators.PathUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Remove(r.Context(), userID, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}
