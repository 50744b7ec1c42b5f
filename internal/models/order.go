package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	OrderNumber     string          `json:"order_number" gorm:"uniqueIndex;not null"`
	CustomerName    string          `json:"customer_name" gorm:"not null"`
	CustomerEmail   string          `json:"customer_email" gorm:"not null"`
	CustomerPhone   string          `json:"customer_phone" gorm:"not null"`
	DeliveryMethod  DeliveryMethod  `json:"delivery_method" gorm:"type:varchar(16);not null"`
	DeliveryAddress string          `json:"delivery_address"`
	Notes           string          `json:"notes" gorm:"type:text"`
	Items           []OrderItem     `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Subtotal        decimal.Decimal `json:"subtotal" gorm:"type:numeric(12,2);not null"`
	AddOnTotal      decimal.Decimal `json:"add_on_total" gorm:"type:numeric(12,2);not null;default:0"`
	DeliveryFee     decimal.Decimal `json:"delivery_fee" gorm:"type:numeric(12,2);not null;default:0"`
	Total           decimal.Decimal `json:"total" gorm:"type:numeric(12,2);not null"`
	PaymentMethod   PaymentMethod   `json:"payment_method" gorm:"type:varchar(16);not null;default:'cash'"`
	PaymentID       string          `json:"payment_id" gorm:"default:'pending'"`
	Status          OrderStatus     `json:"status" gorm:"type:varchar(16);not null;default:'pending';index"`
	PaymentStatus   PaymentStatus   `json:"payment_status" gorm:"type:varchar(16);not null;default:'pending'"`
	Archived        bool            `json:"archived" gorm:"not null;default:false;index"`
	CreatedAt       time.Time       `json:"created_at" gorm:"index"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type DeliveryMethod string

const (
	DeliveryHome   DeliveryMethod = "delivery"
	DeliveryPickup DeliveryMethod = "pickup"
)

func (m DeliveryMethod) Valid() bool {
	return m == DeliveryHome || m == DeliveryPickup
}

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentPayPal PaymentMethod = "paypal"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCash || m == PaymentPayPal
}

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderProcessing, OrderCancelled},
	OrderProcessing: {OrderCompleted, OrderCancelled},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

// Terminal statuses accept no further transitions.
func (s OrderStatus) Terminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

func (s PaymentStatus) Valid() bool {
	return s == PaymentPending || s == PaymentPaid || s == PaymentFailed
}

func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	return s == PaymentPending && (next == PaymentPaid || next == PaymentFailed)
}

// OrderFilter narrows the admin listing. A nil Archived means non-archived only.
type OrderFilter struct {
	Status   OrderStatus
	Archived *bool
}
