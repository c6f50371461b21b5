package reviews

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopfront/retail-backend/pkg/db/models"
	"github.com/shopfront/retail-backend/pkg/pagination"
)

// Repository persists product comments.
type Repository interface {
	ProductExists(ctx context.Context, productID uuid.UUID) (bool, error)
	Create(ctx context.Context, comment *models.Comment) error
	List(ctx context.Context, productID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Comment, *pagination.Cursor, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ProductExists(ctx context.Context, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

// List returns comments newest first with the author preloaded. The returned
// cursor is nil on the last page.
func (r *repository) List(ctx context.Context, productID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Comment, *pagination.Cursor, error) {
	normalized := pagination.NormalizeLimit(limit)
	query := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("product_id = ?", productID)
	if cursor != nil {
		query = query.Where("(posted_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Comment
	if err := query.
		Preload("User").
		Order("posted_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(normalized)).
		Find(&rows).Error; err != nil {
		return nil, nil, err
	}
	if len(rows) > normalized {
		last := rows[normalized-1]
		return rows[:normalized], &pagination.Cursor{CreatedAt: last.PostedAt, ID: last.ID}, nil
	}
	return rows, nil, nil
}
