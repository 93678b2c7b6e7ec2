package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/farmstead/storefront/internal/logging"
	"github.com/farmstead/storefront/internal/mail"
	"github.com/farmstead/storefront/internal/models"
	"github.com/farmstead/storefront/internal/service"
)

// Service owns the order ledger's read and status-update paths.
type Service struct {
	DB      *gorm.DB
	Mailer  mail.Sender
	ReplyTo string
	BCC     string
}

func (s *Service) byID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := s.DB.WithContext(ctx).
		Preload("Lines").
		Preload("Lines.Product").
		Preload("Shipping").
		First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: order %d", service.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListAll returns every order joined with shipping and product data, newest
// first. Admin only, enforced by the route.
func (s *Service) ListAll(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := s.DB.WithContext(ctx).
		Preload("Lines").
		Preload("Lines.Product").
		Preload("Shipping").
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

// ListByEmail returns the orders whose shipping record carries the given
// customer email, newest first.
func (s *Service) ListByEmail(ctx context.Context, email string) ([]models.Order, error) {
	var orders []models.Order
	err := s.DB.WithContext(ctx).
		Preload("Lines").
		Preload("Lines.Product").
		Preload("Shipping").
		Joins("JOIN shipping_details ON shipping_details.id = orders.shipping_id").
		Where("shipping_details.email = ?", email).
		Order("orders.created_at DESC").
		Find(&orders).Error
	return orders, err
}

func (s *Service) Latest(ctx context.Context, email string) (*models.Order, error) {
	orders, err := s.ListByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, fmt.Errorf("%w: no orders for this user", service.ErrNotFound)
	}
	return &orders[0], nil
}

// UpdateStatus sets a new status and tracking number. The shipped-at timestamp
// is assigned only on the first transition into Shipped. The shipment notice
// is sent at most once per order: a successful send sets the sent flag and
// suppresses every later Shipped save, while a failed send leaves the flag
// unset so the next Shipped save retries. The email body reflects the order
// as of the triggering save.
func (s *Service) UpdateStatus(ctx context.Context, id uint, status models.OrderStatus, tracking string) (*models.Order, error) {
	l := logging.FromContext(ctx).With("component", "order_ledger", "order_id", id)

	order, err := s.byID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !order.Status.CanTransition(status) {
		return nil, fmt.Errorf("%w: cannot move %s order to %s", service.ErrConflict, order.Status, status)
	}

	alreadyEmailed := order.ShippingEmailSent

	order.Status = status
	order.TrackingNumber = tracking
	if status == models.StatusShipped && order.ShippedAt == nil {
		now := time.Now()
		order.ShippedAt = &now
	}
	if err := s.DB.WithContext(ctx).Save(order).Error; err != nil {
		return nil, err
	}

	if status == models.StatusShipped && !alreadyEmailed {
		s.sendShipmentNotice(ctx, l, order)
	}

	return order, nil
}

func (s *Service) sendShipmentNotice(ctx context.Context, l *slog.Logger, order *models.Order) {
	if order.Shipping == nil || order.Shipping.Email == "" {
		return
	}

	msg, err := mail.ShipmentNotice(order, order.Shipping.Email, s.ReplyTo, s.BCC)
	if err == nil {
		err = s.Mailer.Send(ctx, msg)
	}
	if err != nil {
		// Best effort: the status update already stuck, the flag stays unset
		// so a later Shipped save may retry.
		l.Error("shipment_email_failed", "error", err)
		return
	}

	if err := s.DB.WithContext(ctx).Model(order).UpdateColumn("shipping_email_sent", true).Error; err != nil {
		l.Error("shipment_email_flag_failed", "error", err)
		return
	}
	order.ShippingEmailSent = true
	l.Info("shipment_email_sent", "to", order.Shipping.Email)
}
