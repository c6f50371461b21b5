package reviews

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/shopfront/retail-backend/api/middleware"
	"github.com/shopfront/retail-backend/api/responses"
	"github.com/shopfront/retail-backend/api/validators"
	internalreviews "github.com/shopfront/retail-backend/internal/reviews"
	"github.com/shopfront/retail-backend/pkg/logger"
	"github.com/shopfront/retail-backend/pkg/pagination"
)

type commentService interface {
	AddComment(ctx context.Context, userID, productID uuid.UUID, input internalreviews.AddCommentInput) (*internalreviews.CommentView, error)
	ListComments(ctx context.Context, productID uuid.UUID, cursor string, limit int) (*internalreviews.CommentList, error)
}

// ListComments pages a product's reviews newest first.
func ListComments(svc commentService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.PathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListComments(r.Context(), productID, strings.TrimSpace(r.URL.Query().Get("cursor")), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func AddComment(svc commentService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := middleware.RequireActor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.PathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req internalreviews.AddCommentInput
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		comment, err := svc.AddComment(r.Context(), userID, productID, req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, comment)
	}
}
