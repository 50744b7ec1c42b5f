package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"farm_store/internal/models"
	"farm_store/pkg/sendgrid"
)

// Notifier is the contract the order flow consumes; every call is best-effort.
type Notifier interface {
	SendOrderConfirmation(ctx context.Context, order *models.Order) error
	SendStatusUpdate(ctx context.Context, order *models.Order) error
	SendContactAlert(ctx context.Context, msg *models.ContactMessage) error
}

type Mailer interface {
	Send(ctx context.Context, msg sendgrid.Message) error
}

// Texter delivers short messages to a phone number.
type Texter interface {
	SendText(ctx context.Context, phone, message string) error
}

type NotificationConfig struct {
	StoreName     string
	AdminEmail    string
	PickupAddress string
}

type notificationService struct {
	mailer Mailer
	texter Texter
	cfg    NotificationConfig
}

// NewNotificationService builds a Notifier. texter may be nil.
func NewNotificationService(mailer Mailer, texter Texter, cfg NotificationConfig) Notifier {
	return &notificationService{mailer: mailer, texter: texter, cfg: cfg}
}

func (s *notificationService) SendOrderConfirmation(ctx context.Context, order *models.Order) error {
	body := s.orderSummary(order)

	var errList []error
	err := s.mailer.Send(ctx, sendgrid.Message{
		To:      order.CustomerEmail,
		Subject: fmt.Sprintf("%s order %s received", s.cfg.StoreName, order.OrderNumber),
		Text:    fmt.Sprintf("Hi %s,\n\nThank you for your order.\n\n%s", order.CustomerName, body),
		HTML:    asHTML(fmt.Sprintf("Hi %s,\n\nThank you for your order.\n\n%s", order.CustomerName, body)),
	})
	if err != nil {
		errList = append(errList, fmt.Errorf("customer confirmation: %w", err))
	}

	if s.cfg.AdminEmail != "" {
		err = s.mailer.Send(ctx, sendgrid.Message{
			To:      s.cfg.AdminEmail,
			Subject: fmt.Sprintf("New order %s from %s", order.OrderNumber, order.CustomerName),
			Text:    fmt.Sprintf("Customer: %s <%s> %s\n\n%s", order.CustomerName, order.CustomerEmail, order.CustomerPhone, body),
		})
		if err != nil {
			errList = append(errList, fmt.Errorf("admin copy: %w", err))
		}
	}

	if s.texter != nil && order.CustomerPhone != "" {
		msg := fmt.Sprintf("%s: order %s received, total $%s.", s.cfg.StoreName, order.OrderNumber, order.Total.StringFixed(2))
		if err := s.texter.SendText(ctx, order.CustomerPhone, msg); err != nil {
			errList = append(errList, fmt.Errorf("text message: %w", err))
		}
	}
	return errors.Join(errList...)
}

func (s *notificationService) SendStatusUpdate(ctx context.Context, order *models.Order) error {
	text := fmt.Sprintf("Hi %s,\n\nYour order %s is now %s.\n", order.CustomerName, order.OrderNumber, order.Status)
	if order.Status == models.OrderCompleted && order.DeliveryMethod == models.DeliveryPickup && s.cfg.PickupAddress != "" {
		text += fmt.Sprintf("\nPickup address: %s\n", s.cfg.PickupAddress)
	}
	return s.mailer.Send(ctx, sendgrid.Message{
		To:      order.CustomerEmail,
		Subject: fmt.Sprintf("Order %s: %s", order.OrderNumber, order.Status),
		Text:    text,
		HTML:    asHTML(text),
	})
}

func (s *notificationService) SendContactAlert(ctx context.Context, msg *models.ContactMessage) error {
	if s.cfg.AdminEmail == "" {
		return nil
	}
	return s.mailer.Send(ctx, sendgrid.Message{
		To:      s.cfg.AdminEmail,
		Subject: fmt.Sprintf("New message from %s", msg.Name),
		Text:    fmt.Sprintf("From: %s <%s>\n\n%s", msg.Name, msg.Email, msg.Message),
	})
}

func (s *notificationService) orderSummary(order *models.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order number: %s\n\n", order.OrderNumber)
	for _, item := range order.Items {
		fmt.Fprintf(&b, "%d x %s @ $%s", item.Quantity, item.Name, item.Price.StringFixed(2))
		if item.AddOnIncluded {
			fmt.Fprintf(&b, " + add-on $%s", item.AddOnFee.StringFixed(2))
		}
		fmt.Fprintf(&b, " = $%s\n", item.LineTotal().StringFixed(2))
	}
	fmt.Fprintf(&b, "\nSubtotal: $%s\n", order.Subtotal.StringFixed(2))
	if order.AddOnTotal.IsPositive() {
		fmt.Fprintf(&b, "Add-on services: $%s\n", order.AddOnTotal.StringFixed(2))
	}
	fmt.Fprintf(&b, "Delivery fee: $%s\n", order.DeliveryFee.StringFixed(2))
	fmt.Fprintf(&b, "Total: $%s\n\n", order.Total.StringFixed(2))

	if order.DeliveryMethod == models.DeliveryHome {
		fmt.Fprintf(&b, "Delivering to: %s\n", order.DeliveryAddress)
	} else if s.cfg.PickupAddress != "" {
		fmt.Fprintf(&b, "Pickup at: %s\n", s.cfg.PickupAddress)
	}
	fmt.Fprintf(&b, "Payment: %s (%s)\n", order.PaymentMethod, order.PaymentStatus)
	return b.String()
}

func asHTML(text string) string {
	return "<p>" + strings.ReplaceAll(html.EscapeString(text), "\n", "<br>") + "</p>"
}
