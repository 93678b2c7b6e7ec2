package models

import (
	"fmt"
	"time"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string    `gorm:"unique;not null"          json:"email"`
	Name         string    `gorm:"not null"                 json:"name"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	Street       string    `json:"street"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	Zip          string    `json:"zip"`
	IsAdmin      bool      `gorm:"default:false"            json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

type Product struct {
	ID              uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name            string  `gorm:"not null"                 json:"name"`
	Description     string  `json:"description"`
	Price           float64 `gorm:"not null"                 json:"price"`
	StockQty        int     `gorm:"not null;default:0"       json:"stock"`
	ImageURL        string  `json:"imageURL"`
	LocalPickupOnly bool    `gorm:"default:false"            json:"localPickupOnly"`
	DisplayOrder    int     `gorm:"default:0"                json:"displayOrder"`
	IsArchived      bool    `gorm:"default:false"            json:"isArchived"`
	WeightOz        float64 `json:"weight"`
	LengthIn        float64 `json:"length"`
	WidthIn         float64 `json:"width"`
	HeightIn        float64 `json:"height"`
}

// ShippingDetail is written once per checkout and never updated after.
type ShippingDetail struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	FullName  string    `gorm:"not null"                 json:"fullName"`
	Street    string    `gorm:"not null"                 json:"street"`
	City      string    `gorm:"not null"                 json:"city"`
	State     string    `gorm:"not null"                 json:"state"`
	Zip       string    `gorm:"not null"                 json:"zip"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"createdAt"`
}

type OrderStatus string

const (
	StatusPending   OrderStatus = "Pending"
	StatusShipped   OrderStatus = "Shipped"
	StatusDelivered OrderStatus = "Delivered"
	StatusCancelled OrderStatus = "Cancelled"
)

func ParseStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case StatusPending, StatusShipped, StatusDelivered, StatusCancelled:
		return OrderStatus(s), nil
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

// Terminal reports whether no further transitions are allowed from s.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransition enforces the legal moves of the order state machine.
// Re-saving the same status is allowed (tracking corrections happen that way),
// terminal states accept nothing new.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	if s == to {
		return true
	}
	return !s.Terminal()
}

type Order struct {
	ID                uint        `gorm:"primaryKey;autoIncrement" json:"orderId"`
	ShippingID        uint        `gorm:"index;not null"           json:"shippingId"`
	Status            OrderStatus `gorm:"not null"                 json:"orderStatus"`
	TrackingNumber    string      `json:"trackingNumber"`
	ShippingMethod    string      `json:"shippingMethod"`
	ShippingCost      float64     `json:"shippingCost"`
	ShippedAt         *time.Time  `json:"shippedAt"`
	ShippingEmailSent bool        `gorm:"default:false"            json:"-"`
	CreatedAt         time.Time   `json:"createdAt"`

	Lines    []OrderLine     `gorm:"foreignKey:OrderID"    json:"lines"`
	Shipping *ShippingDetail `gorm:"foreignKey:ShippingID" json:"shipping,omitempty"`
}

// OrderLine snapshots the unit price at purchase time, decoupled from
// Product.Price so later price edits do not rewrite history.
type OrderLine struct {
	ID        uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   uint    `gorm:"index;not null"           json:"orderId"`
	ProductID uint    `gorm:"not null"                 json:"productId"`
	Quantity  int     `gorm:"not null"                 json:"quantity"`
	UnitPrice float64 `gorm:"not null"                 json:"price"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}
