package services

import (
	"context"
	"errors"
	"fmt"

	"farm_store/internal/errs"
	"farm_store/internal/events"
	"farm_store/internal/models"
	"farm_store/internal/repository"

	"github.com/rs/zerolog"
)

// OrderService is the admin order console plus the public lookup by number.
type OrderService interface {
	List(ctx context.Context, filter models.OrderFilter) ([]models.Order, error)
	Get(ctx context.Context, id uint) (*models.Order, error)
	GetByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	// SetStatus moves the order from whatever status it holds now.
	SetStatus(ctx context.Context, id uint, to models.OrderStatus) (*models.Order, error)
	// SetStatusFrom applies only if the order is still in status from.
	SetStatusFrom(ctx context.Context, id uint, from, to models.OrderStatus) (*models.Order, error)
	// SetPaymentStatus records a payment outcome, e.g. cash taken at pickup.
	// Marking a pending order paid also advances it to processing.
	SetPaymentStatus(ctx context.Context, id uint, to models.PaymentStatus, paymentID string) (*models.Order, error)
	Archive(ctx context.Context, id uint) (*models.Order, error)
	Restore(ctx context.Context, id uint) (*models.Order, error)
	Delete(ctx context.Context, id uint) error
}

type orderService struct {
	orders     repository.OrderRepository
	notifier   Notifier
	publisher  events.Publisher
	dispatcher *Dispatcher
	log        zerolog.Logger
}

func NewOrderService(orders repository.OrderRepository, notifier Notifier, publisher events.Publisher, dispatcher *Dispatcher, log zerolog.Logger) OrderService {
	return &orderService{orders: orders, notifier: notifier, publisher: publisher, dispatcher: dispatcher, log: log}
}

func (s *orderService) List(ctx context.Context, filter models.OrderFilter) ([]models.Order, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, errs.Validation("orderService.List", "unknown status "+string(filter.Status))
	}
	orders, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

func (s *orderService) Get(ctx context.Context, id uint) (*models.Order, error) {
	return s.orders.GetByID(ctx, id)
}

func (s *orderService) GetByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	if orderNumber == "" {
		return nil, errs.Validation("orderService.GetByNumber", "order number is required")
	}
	return s.orders.GetByNumber(ctx, orderNumber)
}

func (s *orderService) SetStatus(ctx context.Context, id uint, to models.OrderStatus) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, order, order.Status, to)
}

func (s *orderService) SetStatusFrom(ctx context.Context, id uint, from, to models.OrderStatus) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, order, from, to)
}

func (s *orderService) transition(ctx context.Context, order *models.Order, from, to models.OrderStatus) (*models.Order, error) {
	const op = "orderService.SetStatus"
	if !to.Valid() {
		return nil, errs.Validation(op, "unknown status "+string(to))
	}
	if order.Status != from {
		return nil, &errs.Error{Kind: errs.KindConflict, Op: op, Message: "order was changed by another request", Err: repository.ErrStaleStatus}
	}
	if !from.CanTransitionTo(to) {
		return nil, errs.Conflict(op, fmt.Sprintf("cannot move an order from %s to %s", from, to))
	}
	if err := s.orders.UpdateStatus(ctx, order.ID, from, to); err != nil {
		return nil, err
	}
	order.Status = to

	s.log.Info().Str("order_number", order.OrderNumber).Str("from", string(from)).Str("to", string(to)).Msg("order status changed")
	s.statusChanged(ctx, order)
	return order, nil
}

func (s *orderService) statusChanged(ctx context.Context, order *models.Order) {
	snapshot := *order
	s.dispatcher.Go(ctx, "status update "+order.OrderNumber, func(ctx context.Context) error {
		return s.notifier.SendStatusUpdate(ctx, &snapshot)
	})
	s.publish(ctx, events.OrderStatusChanged, &snapshot)
}

func (s *orderService) SetPaymentStatus(ctx context.Context, id uint, to models.PaymentStatus, paymentID string) (*models.Order, error) {
	const op = "orderService.SetPaymentStatus"
	if !to.Valid() {
		return nil, errs.Validation(op, "unknown payment status "+string(to))
	}
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.PaymentStatus.CanTransitionTo(to) {
		return nil, errs.Conflict(op, fmt.Sprintf("cannot move payment from %s to %s", order.PaymentStatus, to))
	}
	if err := s.orders.UpdatePaymentStatus(ctx, id, order.PaymentStatus, to, paymentID); err != nil {
		return nil, err
	}
	order.PaymentStatus = to
	if paymentID != "" {
		order.PaymentID = paymentID
	}
	s.publish(ctx, events.OrderPaymentChanged, order)

	if to == models.PaymentPaid && order.Status == models.OrderPending {
		err := s.orders.UpdateStatus(ctx, id, models.OrderPending, models.OrderProcessing)
		switch {
		case err == nil:
			order.Status = models.OrderProcessing
			s.statusChanged(ctx, order)
		case errors.Is(err, repository.ErrStaleStatus):
			// an admin moved it first; keep their status
		default:
			return nil, err
		}
	}
	return order, nil
}

func (s *orderService) Archive(ctx context.Context, id uint) (*models.Order, error) {
	return s.setArchived(ctx, id, true, events.OrderArchived)
}

func (s *orderService) Restore(ctx context.Context, id uint) (*models.Order, error) {
	return s.setArchived(ctx, id, false, events.OrderRestored)
}

func (s *orderService) setArchived(ctx context.Context, id uint, archived bool, evt events.Type) (*models.Order, error) {
	if err := s.orders.SetArchived(ctx, id, archived); err != nil {
		return nil, err
	}
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, evt, order)
	return order, nil
}

func (s *orderService) Delete(ctx context.Context, id uint) error {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.orders.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("order_number", order.OrderNumber).Msg("order deleted")
	s.publish(ctx, events.OrderDeleted, order)
	return nil
}

func (s *orderService) publish(ctx context.Context, t events.Type, order *models.Order) {
	evt := events.FromOrder(t, order)
	s.dispatcher.Go(ctx, "publish "+string(t), func(ctx context.Context) error {
		return s.publisher.Publish(ctx, evt)
	})
}
