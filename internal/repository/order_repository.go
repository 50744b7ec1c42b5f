package repository

import (
	"context"
	"errors"
	"fmt"

	"farm_store/internal/errs"
	"farm_store/internal/models"

	"gorm.io/gorm"
)

type OrderRepository interface {
	// Place decrements stock for every line and inserts the order in one
	// transaction. A line without enough active stock fails with
	// ErrInsufficientStock; a taken order number with ErrDuplicateOrderNumber.
	Place(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uint) (*models.Order, error)
	GetByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	List(ctx context.Context, filter models.OrderFilter) ([]models.Order, error)
	// UpdateStatus applies only while the stored status still equals from;
	// otherwise it fails with ErrStaleStatus. Cancelling puts the items back
	// into stock in the same transaction.
	UpdateStatus(ctx context.Context, id uint, from, to models.OrderStatus) error
	UpdatePaymentStatus(ctx context.Context, id uint, from, to models.PaymentStatus, paymentID string) error
	SetArchived(ctx context.Context, id uint, archived bool) error
	// Delete removes the order and its items, restocking them unless the
	// order was already completed or cancelled.
	Delete(ctx context.Context, id uint) error
}

// errNoRows marks a conditional update that matched nothing.
var errNoRows = errors.New("no rows affected")

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Place(ctx context.Context, order *models.Order) error {
	const op = "orderRepository.Place"
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range order.Items {
			res := tx.Model(&models.Product{}).
				Where("id = ? AND is_active = ? AND stock_quantity >= ?", item.ProductID, true, item.Quantity).
				Update("stock_quantity", gorm.Expr("stock_quantity - ?", item.Quantity))
			if res.Error != nil {
				return errs.Dependency(op, res.Error)
			}
			if res.RowsAffected == 0 {
				return &errs.Error{
					Kind:    errs.KindConflict,
					Op:      op,
					Message: fmt.Sprintf("not enough stock for %s", item.Name),
					Err:     ErrInsufficientStock,
				}
			}
		}

		if err := tx.Create(order).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return &errs.Error{Kind: errs.KindConflict, Op: op, Message: "order number collision", Err: ErrDuplicateOrderNumber}
			}
			return errs.Dependency(op, err)
		}
		return nil
	})
}

func (r *orderRepository) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("Items").First(&order, id).Error
	if err != nil {
		return nil, translate("orderRepository.GetByID", err)
	}
	return &order, nil
}

func (r *orderRepository) GetByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("Items").Where("order_number = ?", orderNumber).First(&order).Error
	if err != nil {
		return nil, translate("orderRepository.GetByNumber", err)
	}
	return &order, nil
}

func (r *orderRepository) List(ctx context.Context, filter models.OrderFilter) ([]models.Order, error) {
	var orders []models.Order
	archived := false
	if filter.Archived != nil {
		archived = *filter.Archived
	}
	query := r.db.WithContext(ctx).Preload("Items").Where("archived = ?", archived)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	err := query.Order("created_at DESC").Find(&orders).Error
	return orders, translate("orderRepository.List", err)
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uint, from, to models.OrderStatus) error {
	const op = "orderRepository.UpdateStatus"
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", id, from).
			Update("status", to)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errNoRows
		}
		if to == models.OrderCancelled {
			return restock(tx, id)
		}
		return nil
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errNoRows):
		return r.missOrStale(ctx, op, id)
	default:
		return errs.Dependency(op, err)
	}
}

func (r *orderRepository) UpdatePaymentStatus(ctx context.Context, id uint, from, to models.PaymentStatus, paymentID string) error {
	const op = "orderRepository.UpdatePaymentStatus"
	updates := map[string]interface{}{"payment_status": to}
	if paymentID != "" {
		updates["payment_id"] = paymentID
	}
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND payment_status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return errs.Dependency(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return r.missOrStale(ctx, op, id)
	}
	return nil
}

func (r *orderRepository) SetArchived(ctx context.Context, id uint, archived bool) error {
	const op = "orderRepository.SetArchived"
	res := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Update("archived", archived)
	if res.Error != nil {
		return errs.Dependency(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NotFound(op, "order not found")
	}
	return nil
}

func (r *orderRepository) Delete(ctx context.Context, id uint) error {
	const op = "orderRepository.Delete"
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Select("id", "status").First(&order, id).Error; err != nil {
			return translate(op, err)
		}
		if !order.Status.Terminal() {
			if err := restock(tx, id); err != nil {
				return errs.Dependency(op, err)
			}
		}
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return errs.Dependency(op, err)
		}
		res := tx.Delete(&models.Order{}, id)
		if res.Error != nil {
			return errs.Dependency(op, res.Error)
		}
		if res.RowsAffected == 0 {
			return errs.NotFound(op, "order not found")
		}
		return nil
	})
}

// restock returns every item of the order to its product. Items whose
// product was deleted are skipped.
func restock(tx *gorm.DB, orderID uint) error {
	var items []models.OrderItem
	if err := tx.Where("order_id = ?", orderID).Find(&items).Error; err != nil {
		return err
	}
	for _, item := range items {
		err := tx.Model(&models.Product{}).
			Where("id = ?", item.ProductID).
			Update("stock_quantity", gorm.Expr("stock_quantity + ?", item.Quantity)).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *orderRepository) missOrStale(ctx context.Context, op string, id uint) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return errs.Dependency(op, err)
	}
	if count == 0 {
		return errs.NotFound(op, "order not found")
	}
	return &errs.Error{Kind: errs.KindConflict, Op: op, Message: "order was changed by another request", Err: ErrStaleStatus}
}
