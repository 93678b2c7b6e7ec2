package checkout

import (
	"context"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/farmstead/storefront/internal/events"
	"github.com/farmstead/storefront/internal/logging"
	"github.com/farmstead/storefront/internal/mail"
	"github.com/farmstead/storefront/internal/models"
	"github.com/farmstead/storefront/internal/service"
)

type ShippingInfo struct {
	FullName string `json:"fullName" validate:"required"`
	Street   string `json:"street"   validate:"required"`
	City     string `json:"city"     validate:"required"`
	State    string `json:"state"    validate:"required"`
	Zip      string `json:"zip"      validate:"required"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

type CartLine struct {
	ProductID uint    `json:"productId" validate:"required"`
	Quantity  int     `json:"quantity"  validate:"required,gt=0"`
	Price     float64 `json:"price"     validate:"gte=0"`
}

type PlaceOrderRequest struct {
	ShippingInfo   ShippingInfo `json:"shippingInfo"`
	ShippingMethod string       `json:"shippingMethod"`
	ShippingCost   float64      `json:"shippingCost"`
	CartItems      []CartLine   `json:"cartItems"`
	// SessionEmail wins over the guest shipping email for the confirmation.
	SessionEmail string `json:"-"`
}

// Service sequences the checkout write path: one transaction for shipping
// detail + order + lines + stock decrements, then a best-effort confirmation
// email and store event. Payment is authorized and confirmed before this runs;
// a failed transaction does not void it (reconciled manually, known gap).
type Service struct {
	DB       *gorm.DB
	Mailer   mail.Sender
	Producer *events.Producer
	ReplyTo  string
	BCC      string
}

// OrderTotalCents converts the cart subtotal plus shipping into the smallest
// currency unit for payment authorization.
func OrderTotalCents(lines []CartLine, shippingCost float64) int64 {
	var subtotal float64
	for _, line := range lines {
		subtotal += float64(line.Quantity) * line.Price
	}
	return int64(math.Round((subtotal + shippingCost) * 100))
}

func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*models.Order, error) {
	l := logging.FromContext(ctx).With("component", "checkout")

	if len(req.CartItems) == 0 {
		return nil, fmt.Errorf("%w: missing shipping info or cart items", service.ErrValidation)
	}
	si := req.ShippingInfo
	if si.FullName == "" || si.Street == "" || si.City == "" || si.State == "" || si.Zip == "" {
		return nil, fmt.Errorf("%w: missing shipping info or cart items", service.ErrValidation)
	}
	for _, line := range req.CartItems {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be > 0", service.ErrValidation)
		}
		if line.Price < 0 {
			return nil, fmt.Errorf("%w: price must be >= 0", service.ErrValidation)
		}
	}

	email := req.SessionEmail
	if email == "" {
		email = si.Email
	}

	var orderID uint
	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		detail := models.ShippingDetail{
			FullName:  si.FullName,
			Street:    si.Street,
			City:      si.City,
			State:     si.State,
			Zip:       si.Zip,
			Email:     email,
			Phone:     si.Phone,
			CreatedAt: time.Now(),
		}
		if err := tx.Create(&detail).Error; err != nil {
			return err
		}

		order := models.Order{
			ShippingID:     detail.ID,
			Status:         models.StatusPending,
			ShippingMethod: req.ShippingMethod,
			ShippingCost:   req.ShippingCost,
			CreatedAt:      time.Now(),
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		for _, item := range req.CartItems {
			line := models.OrderLine{
				OrderID:   order.ID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				UnitPrice: item.Price,
			}
			if err := tx.Create(&line).Error; err != nil {
				return err
			}

			// Guarded decrement: zero rows affected means the product is
			// missing or short on stock, and the whole checkout rolls back.
			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock_qty >= ?", item.ProductID, item.Quantity).
				UpdateColumn("stock_qty", gorm.Expr("stock_qty - ?", item.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("%w: product %d", service.ErrStock, item.ProductID)
			}
		}

		orderID = order.ID
		return nil
	})
	if txErr != nil {
		l.Error("checkout_failed", "error", txErr)
		return nil, txErr
	}

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		l.Error("checkout_reload_failed", "order_id", orderID, "error", err)
		return nil, err
	}

	// Post-commit effects are best-effort: the order is already durable.
	if email != "" {
		msg, err := mail.OrderConfirmation(order, email, s.ReplyTo, s.BCC)
		if err == nil {
			err = s.Mailer.Send(ctx, msg)
		}
		if err != nil {
			l.Error("confirmation_email_failed", "order_id", order.ID, "error", err)
		}
	}

	event := map[string]interface{}{
		"type":    "order_created",
		"orderID": order.ID,
		"lines":   len(order.Lines),
	}
	if err := s.Producer.PublishEvent(ctx, events.TopicOrders, fmt.Sprint(order.ID), event); err != nil {
		l.Error("event_publish_failed", "order_id", order.ID, "error", err)
	}

	l.Info("order_placed", "order_id", order.ID, "lines", len(order.Lines))
	return order, nil
}

func (s *Service) loadOrder(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := s.DB.WithContext(ctx).
		Preload("Lines").
		Preload("Lines.Product").
		Preload("Shipping").
		First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}
