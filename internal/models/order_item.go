package models

import (
	"github.com/shopspring/decimal"
)

// OrderItem snapshots a cart line at checkout time.
type OrderItem struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	OrderID       uint            `json:"-" gorm:"not null;index"`
	ProductID     uint            `json:"product_id" gorm:"not null"`
	Name          string          `json:"name" gorm:"not null"`
	Quantity      int             `json:"quantity" gorm:"not null"`
	Price         decimal.Decimal `json:"price" gorm:"type:numeric(12,2);not null"`
	AddOnIncluded bool            `json:"add_on_included" gorm:"not null;default:false"`
	AddOnFee      decimal.Decimal `json:"add_on_fee" gorm:"type:numeric(12,2);not null;default:0"`
}

// LineTotal is price × quantity plus the add-on fee × quantity when the add-on is included.
func (i OrderItem) LineTotal() decimal.Decimal {
	qty := decimal.NewFromInt(int64(i.Quantity))
	total := i.Price.Mul(qty)
	if i.AddOnIncluded {
		total = total.Add(i.AddOnFee.Mul(qty))
	}
	return total
}
