package repository

import (
	"errors"

	"farm_store/internal/errs"

	"gorm.io/gorm"
)

var (
	ErrDuplicateOrderNumber = errors.New("order number already exists")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrStaleStatus          = errors.New("status changed concurrently")
)

// translate maps gorm errors onto the error taxonomy.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errs.NotFound(op, "record not found")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &errs.Error{Kind: errs.KindConflict, Op: op, Message: "duplicate key", Err: err}
	default:
		return errs.Dependency(op, err)
	}
}
