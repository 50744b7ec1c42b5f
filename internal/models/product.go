package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryFreshEggs   Category = "Fresh Eggs"
	CategoryLivePoultry Category = "Live Poultry"
	CategoryGoats       Category = "Goats"
	CategoryLivestock   Category = "Livestock"
	CategoryServices    Category = "Services"
)

// CategoryAll is the listing filter value that disables category filtering.
const CategoryAll = "all"

func AllCategories() []Category {
	return []Category{CategoryFreshEggs, CategoryLivePoultry, CategoryGoats, CategoryLivestock, CategoryServices}
}

// ParseCategory matches case and spacing insensitively, so "live-poultry",
// "LIVE POULTRY" and "Live Poultry" all resolve to CategoryLivePoultry.
func ParseCategory(s string) (Category, bool) {
	key := normalizeCategoryKey(s)
	for _, c := range AllCategories() {
		if normalizeCategoryKey(string(c)) == key {
			return c, true
		}
	}
	return "", false
}

func normalizeCategoryKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("-", "", "_", "", " ", "").Replace(s)
	return s
}

type Product struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	Name          string          `json:"name" gorm:"not null"`
	Category      Category        `json:"category" gorm:"type:varchar(32);not null;index"`
	Price         decimal.Decimal `json:"price" gorm:"type:numeric(12,2);not null"`
	Description   string          `json:"description" gorm:"type:text;not null"`
	ImageURL      string          `json:"image_url" gorm:"not null"`
	StockQuantity int             `json:"stock_quantity" gorm:"not null;default:0;check:stock_quantity >= 0"`
	IsActive      bool            `json:"is_active" gorm:"not null;default:true;index"`
	AddOnName     string          `json:"add_on_name,omitempty"`
	AddOnFee      decimal.Decimal `json:"add_on_fee" gorm:"type:numeric(12,2);not null;default:0"`
	CreatedAt     time.Time       `json:"created_at" gorm:"index"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// OffersAddOn reports whether customers may attach the add-on service to this product.
func (p *Product) OffersAddOn() bool {
	return p.AddOnFee.IsPositive()
}

// ProductDraft is the admin form payload for creating a product.
type ProductDraft struct {
	Name          string           `json:"name"`
	Category      string           `json:"category"`
	Price         *decimal.Decimal `json:"price"`
	Description   string           `json:"description"`
	ImageURL      string           `json:"image_url"`
	StockQuantity *int             `json:"stock_quantity"`
	IsActive      *bool            `json:"is_active"`
	AddOnName     string           `json:"add_on_name"`
	AddOnFee      *decimal.Decimal `json:"add_on_fee"`
}

// ProductPatch is a partial update; nil fields are left untouched.
type ProductPatch struct {
	Name          *string          `json:"name"`
	Category      *string          `json:"category"`
	Price         *decimal.Decimal `json:"price"`
	Description   *string          `json:"description"`
	ImageURL      *string          `json:"image_url"`
	StockQuantity *int             `json:"stock_quantity"`
	IsActive      *bool            `json:"is_active"`
	AddOnName     *string          `json:"add_on_name"`
	AddOnFee      *decimal.Decimal `json:"add_on_fee"`
}
