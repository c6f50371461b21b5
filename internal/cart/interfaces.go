package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopfront/retail-backend/internal/inventory"
	"github.com/shopfront/retail-backend/pkg/db/models"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// listingStock loads listings and returns stock on the caller's transaction.
type listingStock interface {
	FindListing(ctx context.Context, tx *gorm.DB, productInfoID uuid.UUID) (*models.ProductInfo, error)
	Restore(ctx context.Context, tx *gorm.DB, lines []inventory.Line) error
}
