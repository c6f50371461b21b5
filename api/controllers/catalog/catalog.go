package catalog

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/shopfront/retail-backend/api/middleware"
	"github.com/shopfront/retail-backend/api/responses"
	"github.com/shopfront/retail-backend/api/validators"
	internalcatalog "github.com/shopfront/retail-backend/internal/catalog"
	pkgerrors "github.com/shopfront/retail-backend/pkg/errors"
	"github.com/shopfront/retail-backend/pkg/logger"
	"github.com/shopfront/retail-backend/pkg/pagination"
)

const maxPage = 100000

type shopLister interface {
	ListShops(ctx context.Context, state *bool) ([]internalcatalog.ShopView, error)
}

type taxonomyLister interface {
	ListCategories(ctx context.Context) ([]internalcatalog.NamedView, error)
	ListBrands(ctx context.Context) ([]internalcatalog.NamedView, error)
}

type productLister interface {
	ListProducts(ctx context.Context, filter internalcatalog.ProductFilter) (*internalcatalog.ProductList, error)
	Search(ctx context.Context, query string, page, pageSize int) (*internalcatalog.ProductList, error)
}

type productReader interface {
	ProductDetail(ctx context.Context, productID uuid.UUID, viewerID *uuid.UUID) (*internalcatalog.ProductDetail, error)
}

// ListShops returns shops, optionally filtered by ?state=true|false.
func ListShops(svc shopLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := validators.ParseQueryBool(r, "state")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		shops, err := svc.ListShops(r.Context(), state)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, shops)
	}
}

func ListCategories(svc taxonomyLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := svc.ListCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, categories)
	}
}

func ListBrands(svc taxonomyLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		brands, err := svc.ListBrands(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, brands)
	}
}

// ListProducts serves the filtered product catalog.
func ListProducts(svc productLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseProductFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListProducts(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// Search matches ?q= against product names and descriptions.
func Search(svc productLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, size, err := parsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		query := validators.SanitizeString(r.URL.Query().Get("q"), 200)
		list, err := svc.Search(r.Context(), query, page, size)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ProductDetail renders the product page. Signed-in viewers also get their
// cart count.
func ProductDetail(svc productReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.PathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var viewerID *uuid.UUID
		if id, _ := middleware.ActorFromContext(r.Context()); id != uuid.Nil {
			viewerID = &id
		}

		detail, err := svc.ProductDetail(r.Context(), productID, viewerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

func parseProductFilter(r *http.Request) (internalcatalog.ProductFilter, error) {
	var (
		filter internalcatalog.ProductFilter
		err    error
	)
	if filter.CategoryIDs, err = validators.ParseQueryUUIDs(r, "categories"); err != nil {
		return filter, err
	}
	if filter.BrandIDs, err = validators.ParseQueryUUIDs(r, "brands"); err != nil {
		return filter, err
	}
	if filter.ShopID, err = validators.ParseQueryUUID(r, "shop"); err != nil {
		return filter, err
	}
	if filter.MinPrice, err = validators.ParseQueryDecimal(r, "min_price"); err != nil {
		return filter, err
	}
	if filter.MaxPrice, err = validators.ParseQueryDecimal(r, "max_price"); err != nil {
		return filter, err
	}
	if filter.Page, filter.PageSize, err = parsePage(r); err != nil {
		return filter, err
	}
	filter.Query = validators.SanitizeString(r.URL.Query().Get("q"), 200)
	filter.SortBy = strings.TrimSpace(r.URL.Query().Get("sort_by"))
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		return filter, pkgerrors.New(pkgerrors.CodeValidation, "min_price must not exceed max_price")
	}
	return filter, nil
}

func parsePage(r *http.Request) (int, int, error) {
	page, err := validators.ParseQueryInt(r, "page", 1, 1, maxPage)
	if err != nil {
		return 0, 0, err
	}
	size, err := validators.ParseQueryInt(r, "page_size", pagination.DefaultPageSize, 1, pagination.MaxPageSize)
	if err != nil {
		return 0, 0, err
	}
	return page, size, nil
}
