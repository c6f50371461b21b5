package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/shopfront/retail-backend/pkg/db/models"
	"github.com/shopfront/retail-backend/pkg/enums"
)

// RegisterRequest is the sign-up payload.
type RegisterRequest struct {
	Email     string         `json:"email" validate:"required,email"`
	Username  string         `json:"username" validate:"required,max=150"`
	Password  string         `json:"password" validate:"required,min=8"`
	Password2 string         `json:"password2" validate:"required"`
	Type      enums.UserType `json:"type,omitempty"`
	Company   string         `json:"company,omitempty" validate:"max=200"`
	Position  string         `json:"position,omitempty" validate:"max=200"`
}

// UpdateProfileRequest changes the editable profile fields. Nil fields are
// left as they are.
type UpdateProfileRequest struct {
	Username *string `json:"username,omitempty" validate:"omitempty,min=1,max=150"`
	Company  *string `json:"company,omitempty" validate:"omitempty,max=200"`
	Position *string `json:"position,omitempty" validate:"omitempty,max=200"`
}

// ChangePasswordRequest replaces the password of a signed-in user.
type ChangePasswordRequest struct {
	OldPassword  string `json:"old_password" validate:"required"`
	NewPassword  string `json:"new_password" validate:"required,min=8"`
	NewPassword2 string `json:"new_password2" validate:"required"`
}

// ResetPasswordRequest sets a new password with a mailed reset key.
type ResetPasswordRequest struct {
	Password  string `json:"password" validate:"required,min=8"`
	Password2 string `json:"password2" validate:"required"`
}

// ContactInput is the delivery contact payload.
type ContactInput struct {
	City      string `json:"city" validate:"required,max=50"`
	Street    string `json:"street" validate:"required,max=100"`
	House     string `json:"house,omitempty" validate:"max=15"`
	Structure string `json:"structure,omitempty" validate:"max=15"`
	Building  string `json:"building,omitempty" validate:"max=15"`
	Apartment string `json:"apartment,omitempty" validate:"max=15"`
	Phone     string `json:"phone" validate:"required,max=20"`
}

// UserDTO is the transport shape that omits credentials.
type UserDTO struct {
	ID         uuid.UUID      `json:"id"`
	Email      string         `json:"email"`
	Username   string         `json:"username"`
	Type       enums.UserType `json:"type"`
	Company    string         `json:"company,omitempty"`
	Position   string         `json:"position,omitempty"`
	IsActive   bool           `json:"is_active"`
	DateJoined time.Time      `json:"date_joined"`
}

// ProfileDTO is the signed-in user's profile with the cart badge count.
type ProfileDTO struct {
	UserDTO
	CartCount int          `json:"cart_count"`
	Contacts  []ContactDTO `json:"contacts"`
}

// ContactDTO is a stored delivery contact.
type ContactDTO struct {
	ID        uuid.UUID `json:"id"`
	City      string    `json:"city"`
	Street    string    `json:"street"`
	House     string    `json:"house,omitempty"`
	Structure string    `json:"structure,omitempty"`
	Building  string    `json:"building,omitempty"`
	Apartment string    `json:"apartment,omitempty"`
	Phone     string    `json:"phone"`
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:         u.ID,
		Email:      u.Email,
		Username:   u.Username,
		Type:       u.Type,
		Company:    u.Company,
		Position:   u.Position,
		IsActive:   u.IsActive,
		DateJoined: u.DateJoined,
	}
}

func contactFromModel(c models.Contact) ContactDTO {
	return ContactDTO{
		ID:        c.ID,
		City:      c.City,
		Street:    c.Street,
		House:     c.House,
		Structure: c.Structure,
		Building:  c.Building,
		Apartment: c.Apartment,
		Phone:     c.Phone,
	}
}

func (in ContactInput) apply(c *models.Contact) {
	c.City = in.City
	c.Street = in.Street
	c.House = in.House
	c.Structure = in.Structure
	c.Building = in.Building
	c.Apartment = in.Apartment
	c.Phone = in.Phone
}
