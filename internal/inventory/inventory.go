package inventory

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopfront/retail-backend/pkg/db/models"
	pkgerrors "github.com/shopfront/retail-backend/pkg/errors"
)

// Line is a requested quantity of one listing.
type Line struct {
	ProductInfoID uuid.UUID
	Quantity      int
}

// Shortage reports a listing that cannot cover the requested quantity.
type Shortage struct {
	ProductInfoID uuid.UUID `json:"product_info_id"`
	ProductName   string    `json:"product_name"`
	Requested     int       `json:"requested"`
	Available     int       `json:"available"`
}

// ErrInsufficientStock is returned when a conditional decrement matched no row.
var ErrInsufficientStock = errors.New("insufficient stock")

var errTxRequired = pkgerrors.New(pkgerrors.CodeDependency, "transaction required for inventory change")

// FindListing loads a listing with its product and shop.
func FindListing(ctx context.Context, tx *gorm.DB, productInfoID uuid.UUID) (*models.ProductInfo, error) {
	if tx == nil {
		return nil, errTxRequired
	}
	var info models.ProductInfo
	err := tx.WithContext(ctx).
		Preload("Product").
		Preload("Shop").
		Where("id = ?", productInfoID).
		Take(&info).Error
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// Shortages reads current stock for every line and reports the ones whose
// requested quantity exceeds it. Nothing is written.
func Shortages(ctx context.Context, tx *gorm.DB, lines []Line) ([]Shortage, error) {
	if tx == nil {
		return nil, errTxRequired
	}
	requested := merge(lines)
	if len(requested) == 0 {
		return nil, nil
	}
	ids := sortedIDs(requested)

	var infos []models.ProductInfo
	if err := tx.WithContext(ctx).
		Preload("Product").
		Where("id IN ?", ids).
		Find(&infos).Error; err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.ProductInfo, len(infos))
	for _, info := range infos {
		byID[info.ID] = info
	}

	var shortages []Shortage
	for _, id := range ids {
		qty := requested[id]
		info, ok := byID[id]
		if ok && info.Quantity >= qty {
			continue
		}
		shortage := Shortage{ProductInfoID: id, Requested: qty}
		if ok {
			shortage.Available = info.Quantity
			if info.Product != nil {
				shortage.ProductName = info.Product.Name
			}
		}
		shortages = append(shortages, shortage)
	}
	return shortages, nil
}

// Decrement removes stock for every line with a conditional update. A line
// whose listing no longer has enough stock stops with ErrInsufficientStock;
// the caller rolls back so earlier lines are undone too.
func Decrement(ctx context.Context, tx *gorm.DB, lines []Line) error {
	if tx == nil {
		return errTxRequired
	}
	merged := merge(lines)
	for _, id := range sortedIDs(merged) {
		qty := merged[id]
		res := tx.WithContext(ctx).
			Model(&models.ProductInfo{}).
			Where("id = ? AND quantity >= ?", id, qty).
			UpdateColumn("quantity", gorm.Expr("quantity - ?", qty))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInsufficientStock
		}
	}
	return nil
}

// Restore returns stock for every line.
func Restore(ctx context.Context, tx *gorm.DB, lines []Line) error {
	if tx == nil {
		return errTxRequired
	}
	merged := merge(lines)
	for _, id := range sortedIDs(merged) {
		if err := tx.WithContext(ctx).
			Model(&models.ProductInfo{}).
			Where("id = ?", id).
			UpdateColumn("quantity", gorm.Expr("quantity + ?", merged[id])).Error; err != nil {
			return err
		}
	}
	return nil
}

// InsufficientStockError builds the client-facing error carrying the shortages.
func InsufficientStockError(shortages []Shortage) error {
	return pkgerrors.New(pkgerrors.CodeInsufficient, "not enough stock for one or more products").
		WithDetails(map[string]any{"shortages": shortages})
}

// Adjuster exposes the package functions to services that take it as a
// dependency.
type Adjuster struct{}

func NewAdjuster() Adjuster {
	return Adjuster{}
}

func (Adjuster) FindListing(ctx context.Context, tx *gorm.DB, productInfoID uuid.UUID) (*models.ProductInfo, error) {
	return FindListing(ctx, tx, productInfoID)
}

func (Adjuster) Shortages(ctx context.Context, tx *gorm.DB, lines []Line) ([]Shortage, error) {
	return Shortages(ctx, tx, lines)
}

func (Adjuster) Decrement(ctx context.Context, tx *gorm.DB, lines []Line) error {
	return Decrement(ctx, tx, lines)
}

func (Adjuster) Restore(ctx context.Context, tx *gorm.DB, lines []Line) error {
	return Restore(ctx, tx, lines)
}

func merge(lines []Line) map[uuid.UUID]int {
	out := make(map[uuid.UUID]int, len(lines))
	for _, line := range lines {
		if line.ProductInfoID == uuid.Nil || line.Quantity <= 0 {
			continue
		}
		out[line.ProductInfoID] += line.Quantity
	}
	return out
}

// sortedIDs returns the listing ids in a stable order so concurrent updates
// acquire row locks in the same sequence.
func sortedIDs(merged map[uuid.UUID]int) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(merged))
	for id := range merged {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}
