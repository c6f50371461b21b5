package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopfront/retail-backend/pkg/config"
	"github.com/shopfront/retail-backend/pkg/db"
	"github.com/shopfront/retail-backend/pkg/db/models"
	"github.com/shopfront/retail-backend/pkg/enums"
	pkgerrors "github.com/shopfront/retail-backend/pkg/errors"
	"github.com/shopfront/retail-backend/pkg/logger"
	"github.com/shopfront/retail-backend/pkg/security"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Mailer queues account emails on the caller's transaction.
type Mailer interface {
	EnqueueEmailConfirmation(ctx context.Context, tx *gorm.DB, user *models.User, key string) error
	EnqueuePasswordReset(ctx context.Context, tx *gorm.DB, user *models.User, key string) error
}

type cartLookup interface {
	FindActiveCart(ctx context.Context, userID uuid.UUID) (*models.Order, error)
}

// Service covers account lifecycle, profile and contacts.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*UserDTO, error)
	ConfirmEmail(ctx context.Context, key string) (*UserDTO, error)
	Profile(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*UserDTO, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, req ChangePasswordRequest) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, key string, req ResetPasswordRequest) error
	ListContacts(ctx context.Context, userID uuid.UUID) ([]ContactDTO, error)
	GetOrCreateContact(ctx context.Context, userID uuid.UUID, input ContactInput) (*ContactDTO, error)
	CreateContact(ctx context.Context, userID uuid.UUID, input ContactInput) (*ContactDTO, error)
	UpdateContact(ctx context.Context, userID, contactID uuid.UUID, input ContactInput) (*ContactDTO, error)
	DeleteContact(ctx context.Context, userID, contactID uuid.UUID) error
}

// ServiceParams wires the users service.
type ServiceParams struct {
	Repo     Repository
	Tx       txRunner
	Mailer   Mailer
	Carts    cartLookup
	Password config.PasswordConfig
	TokenTTL time.Duration
	Logger   *logger.Logger
	Now      func() time.Time
}

type service struct {
	repo     Repository
	tx       txRunner
	mailer   Mailer
	carts    cartLookup
	password config.PasswordConfig
	tokenTTL time.Duration
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Mailer == nil {
		return nil, fmt.Errorf("mailer required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart lookup required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.TokenTTL <= 0 {
		return nil, fmt.Errorf("token ttl must be positive")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:     params.Repo,
		tx:       params.Tx,
		mailer:   params.Mailer,
		carts:    params.Carts,
		password: params.Password,
		tokenTTL: params.TokenTTL,
		logg:     params.Logger,
		now:      now,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an inactive account and queues the confirmation email in
// the same transaction.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*UserDTO, error) {
	email := normalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if strings.TrimSpace(req.Username) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}
	if req.Password != req.Password2 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "passwords do not match")
	}
	userType := req.Type
	if userType == "" {
		userType = enums.UserTypeBuyer
	}
	if !userType.CanSelfRegister() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid user type").
			WithDetails(map[string]any{"type": req.Type})
	}

	passwordHash, err := security.HashPassword(req.Password, s.password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		Email:        email,
		Username:     strings.TrimSpace(req.Username),
		PasswordHash: passwordHash,
		Type:         userType,
		Company:      strings.TrimSpace(req.Company),
		Position:     strings.TrimSpace(req.Position),
	}
	resent := false
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.FindByEmail(ctx, email)
		switch {
		case err == nil && existing.IsActive:
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		case err == nil:
			// Unconfirmed account: mail a fresh key and leave the stored
			// credentials alone until the address is proven.
			user, resent = existing, true
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check user email")
		default:
			if err := repo.Create(ctx, user); err != nil {
				if db.IsUniqueViolation(err, "idx_users_email") {
					return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
			}
		}

		key, err := s.issueToken(ctx, repo, user.ID, enums.TokenPurposeConfirmEmail)
		if err != nil {
			return err
		}
		if err := s.mailer.EnqueueEmailConfirmation(ctx, tx, user, key); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue confirmation email")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithUserID(ctx, user.ID.String())
	logCtx = s.logg.WithUserType(logCtx, string(user.Type))
	if resent {
		s.logg.Info(logCtx, "confirmation resent to unconfirmed user")
	} else {
		s.logg.Info(logCtx, "user registered")
	}
	return FromModel(user), nil
}

// ConfirmEmail consumes a confirmation key and activates its user.
func (s *service) ConfirmEmail(ctx context.Context, key string) (*UserDTO, error) {
	var user *models.User
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		token, err := s.consumeToken(ctx, repo, key, enums.TokenPurposeConfirmEmail)
		if err != nil {
			return err
		}
		if err := repo.UpdateFields(ctx, token.UserID, map[string]any{"is_active": true}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "activate user")
		}
		user, err = repo.FindByID(ctx, token.UserID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "email confirmed")
	return FromModel(user), nil
}

func (s *service) Profile(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error) {
	user, err := s.loadUser(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}
	profile := &ProfileDTO{UserDTO: *FromModel(user), Contacts: []ContactDTO{}}

	cart, err := s.carts.FindActiveCart(ctx, userID)
	switch {
	case err == nil:
		profile.CartCount = cart.TotalItemsCount
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	contacts, err := s.ListContacts(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile.Contacts = contacts
	return profile, nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*UserDTO, error) {
	fields := map[string]any{}
	if req.Username != nil {
		name := strings.TrimSpace(*req.Username)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "username must not be empty")
		}
		fields["username"] = name
	}
	if req.Company != nil {
		fields["company"] = strings.TrimSpace(*req.Company)
	}
	if req.Position != nil {
		fields["position"] = strings.TrimSpace(*req.Position)
	}

	user, err := s.loadUser(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return FromModel(user), nil
	}
	if err := s.repo.UpdateFields(ctx, userID, fields); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile")
	}
	user, err = s.loadUser(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) ChangePassword(ctx context.Context, userID uuid.UUID, req ChangePasswordRequest) error {
	if req.NewPassword != req.NewPassword2 {
		return pkgerrors.New(pkgerrors.CodeValidation, "passwords do not match")
	}
	user, err := s.loadUser(ctx, s.repo, userID)
	if err != nil {
		return err
	}
	ok, err := security.VerifyPassword(req.OldPassword, user.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "old password is incorrect")
	}
	return s.setPassword(ctx, s.repo, userID, req.NewPassword)
}

// RequestPasswordReset mails a reset key to active accounts. Unknown or
// inactive emails succeed silently so the endpoint does not reveal which accounts exist.
func (s *service) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		user, err := repo.FindByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
		}
		if !user.IsActive {
			return nil
		}
		key, err := s.issueToken(ctx, repo, user.ID, enums.TokenPurposePasswordReset)
		if err != nil {
			return err
		}
		if err := s.mailer.EnqueuePasswordReset(ctx, tx, user, key); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue reset email")
		}
		return nil
	})
}

func (s *service) ResetPassword(ctx context.Context, key string, req ResetPasswordRequest) error {
	if req.Password != req.Password2 {
		return pkgerrors.New(pkgerrors.CodeValidation, "passwords do not match")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		token, err := s.consumeToken(ctx, repo, key, enums.TokenPurposePasswordReset)
		if err != nil {
			return err
		}
		return s.setPassword(ctx, repo, token.UserID, req.Password)
	})
}

func (s *service) setPassword(ctx context.Context, repo Repository, userID uuid.UUID, password string) error {
	hash, err := security.HashPassword(password, s.password)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := repo.UpdateFields(ctx, userID, map[string]any{"password_hash": hash}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update password")
	}
	s.logg.Info(s.logg.WithUserID(ctx, userID.String()), "password changed")
	return nil
}

func (s *service) issueToken(ctx context.Context, repo Repository, userID uuid.UUID, purpose enums.TokenPurpose) (string, error) {
	key, err := security.NewConfirmationKey()
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate key")
	}
	token := &models.ConfirmEmailToken{UserID: userID, Key: key, Purpose: purpose, CreatedAt: s.now().UTC()}
	if err := repo.CreateToken(ctx, token); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store token")
	}
	return key, nil
}

// consumeToken validates a mailed key and marks it used. Unknown, used and
// wrong-purpose keys look the same to the caller.
func (s *service) consumeToken(ctx context.Context, repo Repository, key string, purpose enums.TokenPurpose) (*models.ConfirmEmailToken, error) {
	key = strings.TrimSpace(key)
	if len(key) != security.ConfirmationKeyLen {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invalid or used key")
	}
	token, err := repo.FindToken(ctx, key, purpose)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invalid or used key")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load token")
	}
	if token.Used {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invalid or used key")
	}
	if s.now().Sub(token.CreatedAt) > s.tokenTTL {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "key has expired")
	}
	ok, err := repo.ConsumeToken(ctx, token.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume token")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invalid or used key")
	}
	return token, nil
}

func (s *service) loadUser(ctx context.Context, repo Repository, userID uuid.UUID) (*models.User, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	user, err := repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}
