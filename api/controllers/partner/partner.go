package partner

import (
	"context"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/shopfront/retail-backend/api/middleware"
	"github.com/shopfront/retail-backend/api/responses"
	"github.com/shopfront/retail-backend/api/validators"
	internalcatalog "github.com/shopfront/retail-backend/internal/catalog"
	pkgerrors "github.com/shopfront/retail-backend/pkg/errors"
	"github.com/shopfront/retail-backend/pkg/logger"
)

const maxPriceListBytes = 5 << 20

type shopService interface {
	SetShopState(ctx context.Context, ownerID uuid.UUID, state bool) (*internalcatalog.ShopView, error)
	ImportPriceList(ctx context.Context, ownerID uuid.UUID, data []byte) (*internalcatalog.ImportResult, error)
}

type stateRequest struct {
	State *bool `json:"state" validate:"required"`
}

// SetState opens or closes the caller's shop for new orders.
func SetState(svc shopService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, _, err := middleware.RequireActor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req stateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		shop, err := svc.SetShopState(r.Context(), ownerID, *req.State)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, shop)
	}
}

// ImportPriceList takes a YAML price list as the raw request body.
func ImportPriceList(svc shopService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, _, err := middleware.RequireActor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		data, err := io.ReadAll(io.LimitReader(r.Body, maxPriceListBytes+1))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read price list"))
			return
		}
		if len(data) == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "price list body is required"))
			return
		}
		if len(data) > maxPriceListBytes {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "price list too large").
				WithDetails(map[string]any{"max_bytes": maxPriceListBytes}))
			return
		}
		result, err := svc.ImportPriceList(r.Context(), ownerID, data)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
