package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shopfront/retail-backend/pkg/db/models"
	"github.com/shopfront/retail-backend/pkg/pagination"
)

// Repository defines persistence operations for shops, the product tree and
// listings.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListShops(ctx context.Context, state *bool) ([]models.Shop, error)
	FindShopByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Shop, error)
	CreateShop(ctx context.Context, shop *models.Shop) error
	UpdateShop(ctx context.Context, shopID uuid.UUID, fields map[string]any) error
	LinkShopCategories(ctx context.Context, shop *models.Shop, categories []models.Category) error
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListBrands(ctx context.Context) ([]models.Brand, error)
	ListProducts(ctx context.Context, filter ProductFilter, page pagination.Page) ([]ProductSummary, int64, error)
	PriceRange(ctx context.Context) (decimal.Decimal, decimal.Decimal, error)
	FindProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	RecentComments(ctx context.Context, productID uuid.UUID, limit int) ([]models.Comment, error)
	EnsureCategory(ctx context.Context, name string) (*models.Category, error)
	EnsureParameter(ctx context.Context, name string) (*models.Parameter, error)
	EnsureProduct(ctx context.Context, name string, categoryID *uuid.UUID) (*models.Product, bool, error)
	UpsertListing(ctx context.Context, info *models.ProductInfo) error
	SetListingParameter(ctx context.Context, productInfoID, parameterID uuid.UUID, value string) error
	RetireListings(ctx context.Context, shopID uuid.UUID, keep []uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListShops(ctx context.Context, state *bool) ([]models.Shop, error) {
	query := r.db.WithContext(ctx).Model(&models.Shop{})
	if state != nil {
		query = query.Where("state = ?", *state)
	}
	var shops []models.Shop
	err := query.Order("name ASC").Find(&shops).Error
	return shops, err
}

func (r *repository) FindShopByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Shop, error) {
	var shop models.Shop
	if err := r.db.WithContext(ctx).Where("user_id = ?", ownerID).Take(&shop).Error; err != nil {
		return nil, err
	}
	return &shop, nil
}

func (r *repository) CreateShop(ctx context.Context, shop *models.Shop) error {
	return r.db.WithContext(ctx).Omit("Categories").Create(shop).Error
}

func (r *repository) UpdateShop(ctx context.Context, shopID uuid.UUID, fields map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.Shop{}).Where("id = ?", shopID).Updates(fields).Error
}

func (r *repository) LinkShopCategories(ctx context.Context, shop *models.Shop, categories []models.Category) error {
	if len(categories) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(shop).Omit("Categories.*").Association("Categories").Append(&categories)
}

func (r *repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var rows []models.Category
	err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *repository) ListBrands(ctx context.Context) ([]models.Brand, error) {
	var rows []models.Brand
	err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error
	return rows, err
}

// likeEscaper makes user input match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// productsBase joins products to the in-stock listings of shops accepting
// orders and applies the filter. Price bounds apply per listing.
func (r *repository) productsBase(ctx context.Context, filter ProductFilter) *gorm.DB {
	qb := r.db.WithContext(ctx).
		Table("products p").
		Joins("JOIN product_infos pi ON pi.product_id = p.id").
		Joins("JOIN shops s ON s.id = pi.shop_id").
		Where("s.state = ? AND pi.quantity > 0", true)

	if len(filter.CategoryIDs) > 0 {
		qb = qb.Where("p.category_id IN ?", filter.CategoryIDs)
	}
	if len(filter.BrandIDs) > 0 {
		qb = qb.Where("p.brand_id IN ?", filter.BrandIDs)
	}
	if filter.ShopID != nil {
		qb = qb.Where("pi.shop_id = ?", *filter.ShopID)
	}
	if filter.MinPrice != nil {
		qb = qb.Where("pi.price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		qb = qb.Where("pi.price <= ?", *filter.MaxPrice)
	}
	if search := strings.TrimSpace(filter.Query); search != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(search)) + "%"
		qb = qb.Where(`(LOWER(p.name) LIKE ? ESCAPE '\' OR LOWER(p.description) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	return qb
}

var productOrder = map[string]string{
	SortByID:        "p.created_at ASC, p.id ASC",
	SortByName:      "p.name ASC, p.id ASC",
	SortByNameDesc:  "p.name DESC, p.id ASC",
	SortByPrice:     "price ASC, p.id ASC",
	SortByPriceDesc: "price DESC, p.id ASC",
}

type productRecord struct {
	ID          uuid.UUID
	Name        string
	Description string
	ImageURL    *string
	CategoryID  *uuid.UUID
	BrandID     *uuid.UUID
	Price       decimal.Decimal
	Quantity    int
}

func (r *repository) ListProducts(ctx context.Context, filter ProductFilter, page pagination.Page) ([]ProductSummary, int64, error) {
	var total int64
	if err := r.productsBase(ctx, filter).
		Distinct("p.id").
		Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []ProductSummary{}, 0, nil
	}

	order, ok := productOrder[filter.SortBy]
	if !ok {
		order = productOrder[SortByID]
	}
	var records []productRecord
	if err := r.productsBase(ctx, filter).
		Select(strings.Join([]string{
			"p.id",
			"p.name",
			"p.description",
			"p.image_url",
			"p.category_id",
			"p.brand_id",
			"MIN(pi.price) AS price",
			"SUM(pi.quantity) AS quantity",
		}, ", ")).
		Group("p.id").
		Order(order).
		Offset(page.Offset()).
		Limit(page.Size).
		Scan(&records).Error; err != nil {
		return nil, 0, err
	}

	items := make([]ProductSummary, 0, len(records))
	for _, rec := range records {
		items = append(items, ProductSummary(rec))
	}
	return items, total, nil
}

// PriceRange returns the lowest and highest listing price in the catalog.
func (r *repository) PriceRange(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
	var row struct {
		MinPrice decimal.NullDecimal
		MaxPrice decimal.NullDecimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.ProductInfo{}).
		Select("MIN(price) AS min_price, MAX(price) AS max_price").
		Scan(&row).Error; err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return row.MinPrice.Decimal, row.MaxPrice.Decimal, nil
}

func (r *repository) FindProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Brand").
		Preload("Infos", func(db *gorm.DB) *gorm.DB {
			return db.Order("price ASC, id ASC")
		}).
		Preload("Infos.Shop").
		Preload("Infos.Parameters.Parameter").
		Where("id = ?", productID).
		Take(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) RecentComments(ctx context.Context, productID uuid.UUID, limit int) ([]models.Comment, error) {
	var rows []models.Comment
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("product_id = ?", productID).
		Order("posted_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// EnsureCategory returns the category with the given name, creating it when
// missing. Concurrent importers collide on the unique name and read the
// winner's row.
func (r *repository) EnsureCategory(ctx context.Context, name string) (*models.Category, error) {
	row := &models.Category{Name: name}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(row).Error; err != nil {
		return nil, err
	}
	var stored models.Category
	if err := r.db.WithContext(ctx).Where("name = ?", name).Take(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *repository) EnsureParameter(ctx context.Context, name string) (*models.Parameter, error) {
	row := &models.Parameter{Name: name}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(row).Error; err != nil {
		return nil, err
	}
	var stored models.Parameter
	if err := r.db.WithContext(ctx).Where("name = ?", name).Take(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

// EnsureProduct finds a product by name within its category or creates it.
// The bool reports whether a row was created.
func (r *repository) EnsureProduct(ctx context.Context, name string, categoryID *uuid.UUID) (*models.Product, bool, error) {
	query := r.db.WithContext(ctx).Where("name = ?", name)
	if categoryID != nil {
		query = query.Where("category_id = ?", *categoryID)
	} else {
		query = query.Where("category_id IS NULL")
	}
	var product models.Product
	err := query.Take(&product).Error
	if err == nil {
		return &product, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}
	product = models.Product{Name: name, CategoryID: categoryID}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&product).Error; err != nil {
		return nil, false, err
	}
	return &product, true, nil
}

// UpsertListing writes the listing for (product, shop), keeping the existing
// id when one is present. info.ID holds the stored id afterwards.
func (r *repository) UpsertListing(ctx context.Context, info *models.ProductInfo) error {
	var existing models.ProductInfo
	err := r.db.WithContext(ctx).
		Select("id").
		Where("product_id = ? AND shop_id = ?", info.ProductID, info.ShopID).
		Take(&existing).Error
	switch {
	case err == nil:
		info.ID = existing.ID
		return r.db.WithContext(ctx).
			Model(&models.ProductInfo{}).
			Where("id = ?", existing.ID).
			Updates(map[string]any{
				"external_id": info.ExternalID,
				"model":       info.Model,
				"quantity":    info.Quantity,
				"price":       info.Price,
				"price_rrc":   info.PriceRRC,
			}).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		return r.db.WithContext(ctx).Omit(clause.Associations).Create(info).Error
	default:
		return err
	}
}

func (r *repository) SetListingParameter(ctx context.Context, productInfoID, parameterID uuid.UUID, value string) error {
	row := &models.ProductParameter{ProductInfoID: productInfoID, ParameterID: parameterID, Value: value}
	return r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_info_id"}, {Name: "parameter_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).
		Create(row).Error
}

// RetireListings zeroes the stock of the shop's listings that the latest
// price list no longer carries. Rows stay because order lines reference them.
func (r *repository) RetireListings(ctx context.Context, shopID uuid.UUID, keep []uuid.UUID) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ProductInfo{}).
		Where("shop_id = ? AND quantity > 0", shopID)
	if len(keep) > 0 {
		query = query.Where("id NOT IN ?", keep)
	}
	res := query.UpdateColumn("quantity", 0)
	return res.RowsAffected, res.Error
}
