package dbtest

import (
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shopfront/retail-backend/pkg/db/models"
	"github.com/shopfront/retail-backend/pkg/enums"
)

// CreateUser inserts an active user of the given type.
func CreateUser(t testing.TB, db *gorm.DB, email string, userType enums.UserType) *models.User {
	t.Helper()
	user := &models.User{
		Email:        email,
		Username:     email,
		PasswordHash: "hash",
		Type:         userType,
		IsActive:     true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// CreateShop inserts a shop accepting orders, optionally owned by owner.
func CreateShop(t testing.TB, db *gorm.DB, name string, owner *models.User) *models.Shop {
	t.Helper()
	shop := &models.Shop{Name: name, State: true}
	if owner != nil {
		shop.UserID = &owner.ID
	}
	if err := db.Create(shop).Error; err != nil {
		t.Fatalf("create shop: %v", err)
	}
	return shop
}

// CreateListing inserts a product and its listing in shop with the given
// price and stock.
func CreateListing(t testing.TB, db *gorm.DB, shop *models.Shop, name, price string, quantity int) *models.ProductInfo {
	t.Helper()
	product := &models.Product{Name: name}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	info := &models.ProductInfo{
		ProductID: product.ID,
		ShopID:    shop.ID,
		Model:     name + "-model",
		Quantity:  quantity,
		Price:     decimal.RequireFromString(price),
		PriceRRC:  decimal.RequireFromString(price),
	}
	if err := db.Create(info).Error; err != nil {
		t.Fatalf("create listing: %v", err)
	}
	info.Product = product
	return info
}

// Stock reads the current stock of a listing.
func Stock(t testing.TB, db *gorm.DB, info *models.ProductInfo) int {
	t.Helper()
	var row models.ProductInfo
	if err := db.Select("quantity").Where("id = ?", info.ID).Take(&row).Error; err != nil {
		t.Fatalf("read stock: %v", err)
	}
	return row.Quantity
}
