package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopfront/retail-backend/pkg/db/models"
	pkgerrors "github.com/shopfront/retail-backend/pkg/errors"
	"github.com/shopfront/retail-backend/pkg/logger"
	"github.com/shopfront/retail-backend/pkg/pagination"
)

// commentsOnDetail caps the reviews embedded in the product page; the full
// list is paged by the reviews endpoint.
const commentsOnDetail = 20

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// cartLookup reads the viewer's active cart for the cart badge.
type cartLookup interface {
	FindActiveCart(ctx context.Context, userID uuid.UUID) (*models.Order, error)
}

// Service exposes the public catalog and shop-owner maintenance.
type Service interface {
	ListShops(ctx context.Context, state *bool) ([]ShopView, error)
	SetShopState(ctx context.Context, ownerID uuid.UUID, state bool) (*ShopView, error)
	ListCategories(ctx context.Context) ([]NamedView, error)
	ListBrands(ctx context.Context) ([]NamedView, error)
	ListProducts(ctx context.Context, filter ProductFilter) (*ProductList, error)
	Search(ctx context.Context, query string, page, pageSize int) (*ProductList, error)
	ProductDetail(ctx context.Context, productID uuid.UUID, viewerID *uuid.UUID) (*ProductDetail, error)
	ImportPriceList(ctx context.Context, ownerID uuid.UUID, data []byte) (*ImportResult, error)
}

type service struct {
	repo  Repository
	tx    txRunner
	carts cartLookup
	logg  *logger.Logger
}

// NewService builds the catalog service.
func NewService(repo Repository, tx txRunner, carts cartLookup, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart lookup required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, carts: carts, logg: logg}, nil
}

func (s *service) ListShops(ctx context.Context, state *bool) ([]ShopView, error) {
	shops, err := s.repo.ListShops(ctx, state)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shops")
	}
	views := make([]ShopView, 0, len(shops))
	for _, shop := range shops {
		views = append(views, newShopView(shop))
	}
	return views, nil
}

// SetShopState opens or closes the caller's shop for new cart lines.
func (s *service) SetShopState(ctx context.Context, ownerID uuid.UUID, state bool) (*ShopView, error) {
	shop, err := s.ownedShop(ctx, s.repo, ownerID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateShop(ctx, shop.ID, map[string]any{"state": state}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update shop state")
	}
	shop.State = state
	view := newShopView(*shop)

	logCtx := s.logg.WithFields(ctx, map[string]any{"shop_id": shop.ID.String(), "state": state})
	s.logg.Info(logCtx, "shop state changed")
	return &view, nil
}

func (s *service) ListCategories(ctx context.Context) ([]NamedView, error) {
	rows, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	views := make([]NamedView, 0, len(rows))
	for _, row := range rows {
		views = append(views, NamedView{ID: row.ID, Name: row.Name})
	}
	return views, nil
}

func (s *service) ListBrands(ctx context.Context) ([]NamedView, error) {
	rows, err := s.repo.ListBrands(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list brands")
	}
	views := make([]NamedView, 0, len(rows))
	for _, row := range rows {
		views = append(views, NamedView{ID: row.ID, Name: row.Name})
	}
	return views, nil
}

func (s *service) ListProducts(ctx context.Context, filter ProductFilter) (*ProductList, error) {
	if filter.SortBy != "" {
		if _, ok := productOrder[filter.SortBy]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported sort_by").
				WithDetails(map[string]any{"sort_by": filter.SortBy})
		}
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "min_price must not exceed max_price")
	}

	page := pagination.NormalizePage(filter.Page, filter.PageSize)
	items, total, err := s.repo.ListProducts(ctx, filter, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	minPrice, maxPrice, err := s.repo.PriceRange(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load price range")
	}
	return &ProductList{
		Items:      items,
		Total:      total,
		Page:       page.Number,
		PageSize:   page.Size,
		TotalPages: page.TotalPages(total),
		MinPrice:   minPrice,
		MaxPrice:   maxPrice,
	}, nil
}

func (s *service) Search(ctx context.Context, query string, page, pageSize int) (*ProductList, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "search query is required")
	}
	return s.ListProducts(ctx, ProductFilter{Query: query, Page: page, PageSize: pageSize})
}

func (s *service) ProductDetail(ctx context.Context, productID uuid.UUID, viewerID *uuid.UUID) (*ProductDetail, error) {
	product, err := s.repo.FindProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	comments, err := s.repo.RecentComments(ctx, productID, commentsOnDetail)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load comments")
	}

	detail := &ProductDetail{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		ImageURL:    product.ImageURL,
		Listings:    make([]ListingView, 0, len(product.Infos)),
		Comments:    make([]CommentView, 0, len(comments)),
	}
	if product.Category != nil {
		detail.Category = &NamedView{ID: product.Category.ID, Name: product.Category.Name}
	}
	if product.Brand != nil {
		detail.Brand = &NamedView{ID: product.Brand.ID, Name: product.Brand.Name}
	}
	for _, info := range product.Infos {
		detail.Listings = append(detail.Listings, newListingView(info))
	}
	for _, comment := range comments {
		detail.Comments = append(detail.Comments, newCommentView(comment))
	}

	if viewerID != nil && *viewerID != uuid.Nil {
		cart, err := s.carts.FindActiveCart(ctx, *viewerID)
		switch {
		case err == nil:
			detail.CartCount = cart.TotalItemsCount
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
	}
	return detail, nil
}

// ImportPriceList replaces the owner's shop offer with the uploaded price
// list. Categories, products and parameters are shared and only ever added;
// listings the file no longer carries drop to zero stock.
func (s *service) ImportPriceList(ctx context.Context, ownerID uuid.UUID, data []byte) (*ImportResult, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	list, err := ParsePriceList(data)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price list")
	}

	result := &ImportResult{}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		shop, err := s.ensureShop(ctx, repo, ownerID, list.Shop)
		if err != nil {
			return err
		}
		result.ShopID = shop.ID

		categoryIDs := make(map[scalar]uuid.UUID, len(list.Categories))
		linked := make([]models.Category, 0, len(list.Categories))
		for _, entry := range list.Categories {
			category, err := repo.EnsureCategory(ctx, strings.TrimSpace(entry.Name))
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save category")
			}
			categoryIDs[entry.ID] = category.ID
			linked = append(linked, *category)
		}
		if err := repo.LinkShopCategories(ctx, shop, linked); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "link shop categories")
		}
		result.Categories = len(linked)

		keep := make([]uuid.UUID, 0, len(list.Goods))
		for _, good := range list.Goods {
			var categoryID *uuid.UUID
			if id, ok := categoryIDs[good.Category]; ok {
				categoryID = &id
			}
			product, created, err := repo.EnsureProduct(ctx, strings.TrimSpace(good.Name), categoryID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save product")
			}
			if created {
				result.Products++
			}

			info := &models.ProductInfo{
				ProductID:  product.ID,
				ShopID:     shop.ID,
				ExternalID: string(good.ID),
				Model:      good.Model,
				Quantity:   good.Quantity,
				Price:      good.Price.Decimal,
				PriceRRC:   good.rrc(),
			}
			if err := repo.UpsertListing(ctx, info); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save listing")
			}
			keep = append(keep, info.ID)

			for _, name := range good.parameterNames() {
				param, err := repo.EnsureParameter(ctx, name)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save parameter")
				}
				if err := repo.SetListingParameter(ctx, info.ID, param.ID, string(good.Parameters[name])); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save listing parameter")
				}
			}
		}
		result.Listings = len(keep)

		retired, err := repo.RetireListings(ctx, shop.ID, keep)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "retire listings")
		}
		result.Retired = retired
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"shop_id":  result.ShopID.String(),
		"listings": result.Listings,
		"retired":  result.Retired,
	})
	s.logg.Info(logCtx, "price list imported")
	return result, nil
}

// ensureShop returns the owner's shop, creating it from the price list on the
// first upload and renaming it on later ones.
func (s *service) ensureShop(ctx context.Context, repo Repository, ownerID uuid.UUID, name string) (*models.Shop, error) {
	shop, err := repo.FindShopByOwner(ctx, ownerID)
	if err == nil {
		if shop.Name != name {
			if err := repo.UpdateShop(ctx, shop.ID, map[string]any{"name": name}); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rename shop")
			}
			shop.Name = name
		}
		return shop, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shop")
	}
	shop = &models.Shop{Name: name, UserID: &ownerID, State: true}
	if err := repo.CreateShop(ctx, shop); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create shop")
	}
	return shop, nil
}

func (s *service) ownedShop(ctx context.Context, repo Repository, ownerID uuid.UUID) (*models.Shop, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	shop, err := repo.FindShopByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no shop linked to this account")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shop")
	}
	return shop, nil
}
