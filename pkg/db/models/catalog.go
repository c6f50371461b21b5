package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Shop is a seller. A shop may be owned by at most one shop user and only
// accepts orders while State is true.
type Shop struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Name       string     `gorm:"column:name;not null"`
	URL        *string    `gorm:"column:url"`
	UserID     *uuid.UUID `gorm:"column:user_id;type:uuid;uniqueIndex"`
	State      bool       `gorm:"column:state;not null"`
	Categories []Category `gorm:"many2many:shop_categories;"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *Shop) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

type Category struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name string    `gorm:"column:name;not null;uniqueIndex"`
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

type Brand struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name string    `gorm:"column:name;not null;uniqueIndex"`
}

func (b *Brand) BeforeCreate(*gorm.DB) error {
	ensureID(&b.ID)
	return nil
}

// Product is the shop-independent catalog entry. Shops sell it through
// ProductInfo listings.
type Product struct {
	ID          uuid.UUID     `gorm:"type:uuid;primaryKey"`
	Name        string        `gorm:"column:name;not null"`
	CategoryID  *uuid.UUID    `gorm:"column:category_id;type:uuid;index"`
	Category    *Category     `gorm:"foreignKey:CategoryID"`
	BrandID     *uuid.UUID    `gorm:"column:brand_id;type:uuid;index"`
	Brand       *Brand        `gorm:"foreignKey:BrandID"`
	Description string        `gorm:"column:description;not null;default:''"`
	ImageURL    *string       `gorm:"column:image_url"`
	Infos       []ProductInfo `gorm:"foreignKey:ProductID"`
	CreatedAt   time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// ProductInfo is one shop's listing of a product: its price and the stock
// available for sale.
type ProductInfo struct {
	ID         uuid.UUID          `gorm:"type:uuid;primaryKey"`
	ProductID  uuid.UUID          `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_product_infos_product_shop"`
	Product    *Product           `gorm:"foreignKey:ProductID"`
	ShopID     uuid.UUID          `gorm:"column:shop_id;type:uuid;not null;uniqueIndex:ux_product_infos_product_shop"`
	Shop       *Shop              `gorm:"foreignKey:ShopID"`
	ExternalID string             `gorm:"column:external_id;not null;default:''"`
	Model      string             `gorm:"column:model;not null;default:''"`
	Quantity   int                `gorm:"column:quantity;not null;default:0;check:ck_product_infos_quantity,quantity >= 0"`
	Price      decimal.Decimal    `gorm:"column:price;type:numeric(10,2);not null"`
	PriceRRC   decimal.Decimal    `gorm:"column:price_rrc;type:numeric(10,2);not null"`
	Parameters []ProductParameter `gorm:"foreignKey:ProductInfoID"`
	UpdatedAt  time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *ProductInfo) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

type Parameter struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name string    `gorm:"column:name;not null;uniqueIndex"`
}

func (p *Parameter) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

type ProductParameter struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ProductInfoID uuid.UUID  `gorm:"column:product_info_id;type:uuid;not null;uniqueIndex:ux_product_parameters_info_param"`
	ParameterID   uuid.UUID  `gorm:"column:parameter_id;type:uuid;not null;uniqueIndex:ux_product_parameters_info_param"`
	Parameter     *Parameter `gorm:"foreignKey:ParameterID"`
	Value         string     `gorm:"column:value;not null"`
}

func (p *ProductParameter) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// Comment is a product review.
type Comment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	User      *User     `gorm:"foreignKey:UserID"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	Text      string    `gorm:"column:text;not null"`
	Rating    int       `gorm:"column:rating;not null;check:ck_comments_rating,rating BETWEEN 1 AND 5"`
	PostedAt  time.Time `gorm:"column:posted_at;autoCreateTime"`
}

func (c *Comment) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
