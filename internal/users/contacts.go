package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopfront/retail-backend/pkg/db/models"
	pkgerrors "github.com/shopfront/retail-backend/pkg/errors"
)

// maxContacts caps how many delivery contacts one account keeps.
const maxContacts = 5

func (s *service) ListContacts(ctx context.Context, userID uuid.UUID) ([]ContactDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	rows, err := s.repo.ListContacts(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list contacts")
	}
	out := make([]ContactDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, contactFromModel(row))
	}
	return out, nil
}

// GetOrCreateContact returns the user's first contact, creating one from
// input when the user has none yet.
func (s *service) GetOrCreateContact(ctx context.Context, userID uuid.UUID, input ContactInput) (*ContactDTO, error) {
	contacts, err := s.ListContacts(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(contacts) > 0 {
		return &contacts[0], nil
	}
	return s.CreateContact(ctx, userID, input)
}

func (s *service) CreateContact(ctx context.Context, userID uuid.UUID, input ContactInput) (*ContactDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if err := validateContact(input); err != nil {
		return nil, err
	}
	var created ContactDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.ListContacts(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list contacts")
		}
		if len(existing) >= maxContacts {
			return pkgerrors.New(pkgerrors.CodeConflict, "contact limit reached").
				WithDetails(map[string]any{"max": maxContacts})
		}
		contact := &models.Contact{UserID: userID}
		input.apply(contact)
		if err := repo.CreateContact(ctx, contact); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create contact")
		}
		created = contactFromModel(*contact)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *service) UpdateContact(ctx context.Context, userID, contactID uuid.UUID, input ContactInput) (*ContactDTO, error) {
	if err := validateContact(input); err != nil {
		return nil, err
	}
	contact, err := s.repo.FindContact(ctx, userID, contactID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "contact not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load contact")
	}
	input.apply(contact)
	if err := s.repo.SaveContact(ctx, contact); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update contact")
	}
	out := contactFromModel(*contact)
	return &out, nil
}

// DeleteContact removes the contact. Placed orders keep their rows; the
// contact reference on them is cleared by the foreign key.
func (s *service) DeleteContact(ctx context.Context, userID, contactID uuid.UUID) error {
	ok, err := s.repo.DeleteContact(ctx, userID, contactID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete contact")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "contact not found")
	}
	return nil
}

func validateContact(input ContactInput) error {
	if input.City == "" || input.Street == "" || input.Phone == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "city, street and phone are required")
	}
	return nil
}
