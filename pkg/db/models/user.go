package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/retail-backend/pkg/enums"
	"gorm.io/gorm"
)

// User represents a storefront account. Buyers place orders, shop users own a
// Shop, managers and admins run the order pipeline.
type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Email        string         `gorm:"type:text;not null;uniqueIndex"`
	Username     string         `gorm:"column:username;not null"`
	PasswordHash string         `gorm:"column:password_hash;not null"`
	Type         enums.UserType `gorm:"column:type;type:user_type;not null;default:buyer"`
	Company      string         `gorm:"column:company;not null;default:''"`
	Position     string         `gorm:"column:position;not null;default:''"`
	IsActive     bool           `gorm:"column:is_active;not null;default:false"`
	IsStaff      bool           `gorm:"column:is_staff;not null;default:false"`
	IsSuperuser  bool           `gorm:"column:is_superuser;not null;default:false"`
	DateJoined   time.Time      `gorm:"column:date_joined;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}

// Contact is a delivery address and phone number owned by a user.
type Contact struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	City      string    `gorm:"column:city;not null"`
	Street    string    `gorm:"column:street;not null"`
	House     string    `gorm:"column:house;not null;default:''"`
	Structure string    `gorm:"column:structure;not null;default:''"`
	Building  string    `gorm:"column:building;not null;default:''"`
	Apartment string    `gorm:"column:apartment;not null;default:''"`
	Phone     string    `gorm:"column:phone;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Contact) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// ConfirmEmailToken is a single-use key mailed to a user, either to confirm
// the address after registration or to reset the password.
type ConfirmEmailToken struct {
	ID        uuid.UUID          `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID          `gorm:"column:user_id;type:uuid;not null;index"`
	Key       string             `gorm:"column:key;type:varchar(64);not null;uniqueIndex"`
	Purpose   enums.TokenPurpose `gorm:"column:purpose;type:token_purpose;not null"`
	Used      bool               `gorm:"column:used;not null;default:false"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
}

func (t *ConfirmEmailToken) BeforeCreate(*gorm.DB) error {
	ensureID(&t.ID)
	return nil
}
