package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopfront/retail-backend/pkg/db/models"
	"github.com/shopfront/retail-backend/pkg/enums"
)

// Repository exposes user, token and contact persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error
	CreateToken(ctx context.Context, token *models.ConfirmEmailToken) error
	FindToken(ctx context.Context, key string, purpose enums.TokenPurpose) (*models.ConfirmEmailToken, error)
	ConsumeToken(ctx context.Context, tokenID uuid.UUID) (bool, error)
	DeleteStaleTokens(ctx context.Context, expiredBefore time.Time) (int64, error)
	ListContacts(ctx context.Context, userID uuid.UUID) ([]models.Contact, error)
	FindContact(ctx context.Context, userID, contactID uuid.UUID) (*models.Contact, error)
	CreateContact(ctx context.Context, contact *models.Contact) error
	SaveContact(ctx context.Context, contact *models.Contact) error
	DeleteContact(ctx context.Context, userID, contactID uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// FindByEmail retrieves the user matching the normalized email.
func (r *repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).Take(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	fields["updated_at"] = time.Now().UTC()
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields).Error
}

func (r *repository) CreateToken(ctx context.Context, token *models.ConfirmEmailToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *repository) FindToken(ctx context.Context, key string, purpose enums.TokenPurpose) (*models.ConfirmEmailToken, error) {
	var token models.ConfirmEmailToken
	err := r.db.WithContext(ctx).
		Where("key = ? AND purpose = ?", key, purpose).
		Take(&token).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// ConsumeToken marks the token used. It reports false when another request
// consumed it first.
func (r *repository) ConsumeToken(ctx context.Context, tokenID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ConfirmEmailToken{}).
		Where("id = ? AND used = ?", tokenID, false).
		UpdateColumn("used", true)
	return res.RowsAffected == 1, res.Error
}

// DeleteStaleTokens removes used tokens and tokens created before
// expiredBefore.
func (r *repository) DeleteStaleTokens(ctx context.Context, expiredBefore time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("used = ? OR created_at < ?", true, expiredBefore).
		Delete(&models.ConfirmEmailToken{})
	return res.RowsAffected, res.Error
}

func (r *repository) ListContacts(ctx context.Context, userID uuid.UUID) ([]models.Contact, error) {
	var rows []models.Contact
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindContact(ctx context.Context, userID, contactID uuid.UUID) (*models.Contact, error) {
	var contact models.Contact
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", contactID, userID).
		Take(&contact).Error
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

func (r *repository) CreateContact(ctx context.Context, contact *models.Contact) error {
	return r.db.WithContext(ctx).Create(contact).Error
}

func (r *repository) SaveContact(ctx context.Context, contact *models.Contact) error {
	return r.db.WithContext(ctx).Save(contact).Error
}

func (r *repository) DeleteContact(ctx context.Context, userID, contactID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", contactID, userID).
		Delete(&models.Contact{})
	return res.RowsAffected == 1, res.Error
}
