package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"farm_store/internal/cart"
	"farm_store/internal/errs"
	"farm_store/internal/events"
	"farm_store/internal/models"
	"farm_store/internal/repository"
	"farm_store/pkg/paypal"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const maxOrderNumberAttempts = 5

type CheckoutRequest struct {
	CustomerName    string                `json:"customer_name"`
	CustomerEmail   string                `json:"customer_email"`
	CustomerPhone   string                `json:"customer_phone"`
	DeliveryMethod  models.DeliveryMethod `json:"delivery_method"`
	DeliveryAddress string                `json:"delivery_address"`
	Notes           string                `json:"notes"`
	PaymentMethod   models.PaymentMethod  `json:"payment_method"`
	// PayPalOrderID is the approved PayPal order to capture when paying by PayPal.
	PayPalOrderID string `json:"paypal_order_id"`
}

type Quote struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	AddOnTotal  decimal.Decimal `json:"add_on_total"`
	CartTotal   decimal.Decimal `json:"cart_total"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	Total       decimal.Decimal `json:"total"`
}

type PaymentIntent struct {
	ID       string          `json:"id"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

type CheckoutResult struct {
	Order *models.Order `json:"order"`
	// ClearCart tells the caller the cart has been turned into an order.
	ClearCart bool `json:"clear_cart"`
}

// PaymentGateway is the external payment provider.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amount decimal.Decimal, currency, reference string) (string, error)
	GetOrder(ctx context.Context, orderID string) (*paypal.Order, error)
	CaptureOrder(ctx context.Context, orderID string) (*paypal.Capture, error)
}

type CheckoutConfig struct {
	DeliveryFee decimal.Decimal
	Currency    string
}

type CheckoutService interface {
	Quote(c *cart.Cart, method models.DeliveryMethod) (Quote, error)
	CreatePaymentIntent(ctx context.Context, c *cart.Cart, method models.DeliveryMethod) (*PaymentIntent, error)
	// Checkout turns the cart into a pending order. It never touches the cart;
	// on success the result asks the caller to clear it.
	Checkout(ctx context.Context, req CheckoutRequest, c *cart.Cart) (*CheckoutResult, error)
}

type checkoutService struct {
	orders     repository.OrderRepository
	catalog    CatalogService
	payments   PaymentGateway
	notifier   Notifier
	publisher  events.Publisher
	dispatcher *Dispatcher
	nextNumber OrderNumberFunc
	cfg        CheckoutConfig
	log        zerolog.Logger
}

func NewCheckoutService(
	orders repository.OrderRepository,
	catalog CatalogService,
	payments PaymentGateway,
	notifier Notifier,
	publisher events.Publisher,
	dispatcher *Dispatcher,
	nextNumber OrderNumberFunc,
	cfg CheckoutConfig,
	log zerolog.Logger,
) CheckoutService {
	return &checkoutService{
		orders:     orders,
		catalog:    catalog,
		payments:   payments,
		notifier:   notifier,
		publisher:  publisher,
		dispatcher: dispatcher,
		nextNumber: nextNumber,
		cfg:        cfg,
		log:        log,
	}
}

func (s *checkoutService) Quote(c *cart.Cart, method models.DeliveryMethod) (Quote, error) {
	const op = "checkoutService.Quote"
	if c == nil || c.IsEmpty() {
		return Quote{}, errs.Validation(op, "cart is empty")
	}
	if !method.Valid() {
		return Quote{}, errs.Validation(op, "delivery method must be delivery or pickup")
	}
	q := Quote{
		Subtotal:    c.Subtotal(),
		AddOnTotal:  c.AddOnTotal(),
		CartTotal:   c.Total(),
		DeliveryFee: decimal.Zero,
	}
	if method == models.DeliveryHome {
		q.DeliveryFee = s.cfg.DeliveryFee
	}
	q.Total = q.CartTotal.Add(q.DeliveryFee)
	return q, nil
}

func (s *checkoutService) CreatePaymentIntent(ctx context.Context, c *cart.Cart, method models.DeliveryMethod) (*PaymentIntent, error) {
	const op = "checkoutService.CreatePaymentIntent"
	q, err := s.Quote(c, method)
	if err != nil {
		return nil, err
	}
	if s.payments == nil {
		return nil, errs.Validation(op, "online payment is not available")
	}
	id, err := s.payments.CreateOrder(ctx, q.Total, s.cfg.Currency, "")
	if err != nil {
		return nil, errs.Dependency(op, err)
	}
	return &PaymentIntent{ID: id, Amount: q.Total, Currency: s.cfg.Currency}, nil
}

func (s *checkoutService) Checkout(ctx context.Context, req CheckoutRequest, c *cart.Cart) (*CheckoutResult, error) {
	const op = "checkoutService.Checkout"

	req, err := s.validate(req, c)
	if err != nil {
		return nil, err
	}
	q, err := s.Quote(c, req.DeliveryMethod)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		DeliveryMethod:  req.DeliveryMethod,
		DeliveryAddress: req.DeliveryAddress,
		Notes:           req.Notes,
		Subtotal:        q.Subtotal,
		AddOnTotal:      q.AddOnTotal,
		DeliveryFee:     q.DeliveryFee,
		Total:           q.Total,
		PaymentMethod:   req.PaymentMethod,
		PaymentID:       "pending",
		Status:          models.OrderPending,
		PaymentStatus:   models.PaymentPending,
	}
	for _, line := range c.Items {
		item := models.OrderItem{
			ProductID:     line.ProductID,
			Name:          line.Name,
			Quantity:      line.Quantity,
			Price:         line.Price,
			AddOnIncluded: line.AddOnIncluded,
		}
		if line.AddOnIncluded {
			item.AddOnFee = line.AddOnFee
		}
		order.Items = append(order.Items, item)
	}

	if req.PaymentMethod == models.PaymentPayPal {
		if err := s.capture(ctx, req.PayPalOrderID, order); err != nil {
			return nil, err
		}
	}

	if err := s.place(ctx, order); err != nil {
		if order.PaymentStatus == models.PaymentPaid {
			s.log.Error().Err(err).
				Str("paypal_transaction", order.PaymentID).
				Str("customer_email", order.CustomerEmail).
				Msg("payment captured but order was not placed; refund required")
		}
		return nil, err
	}

	s.log.Info().
		Str("order_number", order.OrderNumber).
		Str("total", order.Total.StringFixed(2)).
		Str("payment_status", string(order.PaymentStatus)).
		Msg("order placed")

	s.catalog.InvalidateListings(ctx)
	placed := *order
	s.dispatcher.Go(ctx, "order confirmation "+order.OrderNumber, func(ctx context.Context) error {
		return s.notifier.SendOrderConfirmation(ctx, &placed)
	})
	s.dispatcher.Go(ctx, "publish "+string(events.OrderPlaced), func(ctx context.Context) error {
		return s.publisher.Publish(ctx, events.FromOrder(events.OrderPlaced, &placed))
	})

	return &CheckoutResult{Order: order, ClearCart: true}, nil
}

func (s *checkoutService) validate(req CheckoutRequest, c *cart.Cart) (CheckoutRequest, error) {
	const op = "checkoutService.Checkout"

	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.CustomerEmail = strings.TrimSpace(req.CustomerEmail)
	req.CustomerPhone = strings.TrimSpace(req.CustomerPhone)
	req.DeliveryAddress = strings.TrimSpace(req.DeliveryAddress)
	req.Notes = strings.TrimSpace(req.Notes)
	if req.PaymentMethod == "" {
		req.PaymentMethod = models.PaymentCash
	}

	switch {
	case c == nil || c.IsEmpty():
		return req, errs.Validation(op, "cart is empty")
	case req.CustomerName == "":
		return req, errs.Validation(op, "name is required")
	case req.CustomerEmail == "":
		return req, errs.Validation(op, "email is required")
	case req.CustomerPhone == "":
		return req, errs.Validation(op, "phone is required")
	case !req.DeliveryMethod.Valid():
		return req, errs.Validation(op, "delivery method must be delivery or pickup")
	case req.DeliveryMethod == models.DeliveryHome && req.DeliveryAddress == "":
		return req, errs.Validation(op, "delivery address is required for delivery")
	case !req.PaymentMethod.Valid():
		return req, errs.Validation(op, "payment method must be cash or paypal")
	case req.PaymentMethod == models.PaymentPayPal && strings.TrimSpace(req.PayPalOrderID) == "":
		return req, errs.Validation(op, "paypal order id is required")
	}
	if _, err := mail.ParseAddress(req.CustomerEmail); err != nil {
		return req, errs.Validation(op, "email is invalid")
	}
	for _, line := range c.Items {
		if line.Quantity < 1 {
			return req, errs.Validation(op, "every cart line needs a quantity of at least 1")
		}
	}
	if req.DeliveryMethod == models.DeliveryPickup {
		req.DeliveryAddress = ""
	}
	return req, nil
}

// capture settles the PayPal order before anything is persisted. The approved
// amount is checked first so a cart changed after approval is never charged;
// only a completed capture for the full total lets the order through, as paid.
func (s *checkoutService) capture(ctx context.Context, paypalOrderID string, order *models.Order) error {
	const op = "checkoutService.capture"
	if s.payments == nil {
		return errs.Validation(op, "online payment is not available")
	}
	paypalOrderID = strings.TrimSpace(paypalOrderID)

	approved, err := s.payments.GetOrder(ctx, paypalOrderID)
	if err != nil {
		return paymentError(op, err)
	}
	if !approved.Amount.Equal(order.Total) || !strings.EqualFold(approved.Currency, s.cfg.Currency) {
		s.log.Warn().
			Str("paypal_order", paypalOrderID).
			Str("approved", approved.Amount.StringFixed(2)+" "+approved.Currency).
			Str("expected", order.Total.StringFixed(2)+" "+s.cfg.Currency).
			Msg("approved amount does not match cart; capture skipped")
		return errs.Payment(op, "payment amount no longer matches your cart, please pay again")
	}

	capture, err := s.payments.CaptureOrder(ctx, paypalOrderID)
	if err != nil {
		return paymentError(op, err)
	}
	if !capture.Completed() {
		return errs.Payment(op, "payment was not completed")
	}
	if !capture.Amount.IsZero() && !capture.Amount.Equal(order.Total) {
		s.log.Error().
			Str("paypal_order", capture.OrderID).
			Str("captured", capture.Amount.StringFixed(2)).
			Str("expected", order.Total.StringFixed(2)).
			Msg("captured amount does not match order total; refund required")
		return errs.Payment(op, "captured amount does not match order total")
	}

	order.PaymentStatus = models.PaymentPaid
	order.Status = models.OrderProcessing
	order.PaymentID = capture.TransactionID
	if order.PaymentID == "" {
		order.PaymentID = capture.OrderID
	}
	return nil
}

// paymentError treats a 4xx from PayPal as a refused payment and anything
// else as the provider being unavailable.
func paymentError(op string, err error) error {
	var apiErr *paypal.APIError
	if errors.As(err, &apiErr) && apiErr.Declined() {
		return &errs.Error{Kind: errs.KindPayment, Op: op, Message: "payment was not completed", Err: err}
	}
	return errs.Dependency(op, err)
}

// place retries with a fresh number while the unique index reports a collision.
func (s *checkoutService) place(ctx context.Context, order *models.Order) error {
	const op = "checkoutService.place"
	for attempt := 1; attempt <= maxOrderNumberAttempts; attempt++ {
		number, err := s.nextNumber()
		if err != nil {
			return errs.Dependency(op, err)
		}
		order.ID = 0
		for i := range order.Items {
			order.Items[i].ID = 0
			order.Items[i].OrderID = 0
		}
		order.OrderNumber = number

		err = s.orders.Place(ctx, order)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicateOrderNumber) {
			return err
		}
		s.log.Warn().Str("order_number", number).Int("attempt", attempt).Msg("order number collision, regenerating")
	}
	return errs.Conflict(op, "could not allocate a unique order number")
}
