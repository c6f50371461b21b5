package orders

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/shopfront/retail-backend/api/middleware"
	"github.com/shopfront/retail-backend/api/responses"
	"github.com/shopfront/retail-backend/api/validators"
	internalorders "github.com/shopfront/retail-backend/internal/orders"
	"github.com/shopfront/retail-backend/pkg/enums"
	pkgerrors "github.com/shopfront/retail-backend/pkg/errors"
	"github.com/shopfront/retail-backend/pkg/logger"
	"github.com/shopfront/retail-backend/pkg/pagination"
)

type orderReader interface {
	List(ctx context.Context, params internalorders.ListParams) (*internalorders.OrderList, error)
	Detail(ctx context.Context, actor internalorders.Actor, orderID uuid.UUID) (*internalorders.OrderView, error)
}

type statusChanger interface {
	ChangeStatus(ctx context.Context, input internalorders.ChangeStatusInput) (*internalorders.OrderView, error)
}

type checkoutService interface {
	Checkout(ctx context.Context, input internalorders.CheckoutInput) (*internalorders.OrderView, error)
}

type checkoutRequest struct {
	ContactID *uuid.UUID `json:"contact_id,omitempty"`
}

type changeStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// List returns placed orders visible to the caller, newest first.
func List(svc orderReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := internalorders.ListParams{
			Actor:  actor,
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			params.Status = &status
		}

		list, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func Detail(svc orderReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.PathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Detail(r.Context(), actor, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// ChangeStatus moves a placed order along its lifecycle. Who may apply which
// transition is decided by the service.
func ChangeStatus(svc statusChanger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.PathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req changeStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(strings.ToLower(strings.TrimSpace(req.Status)))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		view, err := svc.ChangeStatus(r.Context(), internalorders.ChangeStatusInput{
			Actor:   actor,
			OrderID: orderID,
			Status:  status,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// Checkout places the caller's cart. The body is optional; an empty body
// checks out without a delivery contact.
func Checkout(svc checkoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req checkoutRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &req); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		view, err := svc.Checkout(r.Context(), internalorders.CheckoutInput{
			UserID:    actor.UserID,
			UserType:  actor.UserType,
			ContactID: req.ContactID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

func actorFromRequest(r *http.Request) (internalorders.Actor, error) {
	userID, userType, err := middleware.RequireActor(r.Context())
	if err != nil {
		return internalorders.Actor{}, err
	}
	return internalorders.Actor{UserID: userID, UserType: userType}, nil
}
