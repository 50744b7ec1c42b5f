package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"farm_store/internal/errs"
	"farm_store/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	return db, mock
}

func pendingOrder() *models.Order {
	return &models.Order{
		OrderNumber:    "BF-LX2K-ABC123",
		CustomerName:   "Jo",
		CustomerEmail:  "jo@example.com",
		CustomerPhone:  "555-0100",
		DeliveryMethod: models.DeliveryPickup,
		Subtotal:       decimal.RequireFromString("13.98"),
		Total:          decimal.RequireFromString("13.98"),
		PaymentMethod:  models.PaymentCash,
		PaymentID:      "pending",
		Status:         models.OrderPending,
		PaymentStatus:  models.PaymentPending,
		Items: []models.OrderItem{
			{ProductID: 7, Name: "Dozen Eggs", Quantity: 2, Price: decimal.RequireFromString("6.99")},
		},
	}
}

const decrementSQL = `UPDATE "products" SET "stock_quantity"=stock_quantity - \$1,"updated_at"=\$2 ` +
	`WHERE id = \$3 AND is_active = \$4 AND stock_quantity >= \$5`

func TestPlaceDecrementsStockAndInsertsOrder(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(decrementSQL).
		WithArgs(2, sqlmock.AnyArg(), 7, true, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "orders"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
	mock.ExpectQuery(`INSERT INTO "order_items"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	order := pendingOrder()
	require.NoError(t, repo.Place(context.Background(), order))
	assert.Equal(t, uint(42), order.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceInsufficientStockRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(decrementSQL).
		WithArgs(2, sqlmock.AnyArg(), 7, true, 2).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Place(context.Background(), pendingOrder())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.True(t, errs.Is(err, errs.KindConflict))
	assert.Equal(t, "not enough stock for Dozen Eggs", errs.PublicMessage(err))
	assert.NoError(t, mock.ExpectationsWereMet(), "no order insert after a failed decrement")
}

func TestPlaceDuplicateOrderNumber(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(decrementSQL).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "orders"`).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})
	mock.ExpectRollback()

	err := repo.Place(context.Background(), pendingOrder())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateOrderNumber))
	assert.True(t, errs.Is(err, errs.KindConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

const statusSQL = `UPDATE "orders" SET "status"=\$1,"updated_at"=\$2 WHERE id = \$3 AND status = \$4`

func TestUpdateStatusIsConditional(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(statusSQL).
		WithArgs("processing", sqlmock.AnyArg(), 5, "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.UpdateStatus(context.Background(), 5, models.OrderPending, models.OrderProcessing))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusStaleAndMissing(t *testing.T) {
	cases := []struct {
		name  string
		count int
		check func(t *testing.T, err error)
	}{
		{"stale", 1, func(t *testing.T, err error) {
			assert.True(t, errors.Is(err, ErrStaleStatus))
			assert.True(t, errs.Is(err, errs.KindConflict))
		}},
		{"missing", 0, func(t *testing.T, err error) {
			assert.True(t, errs.Is(err, errs.KindNotFound))
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewOrderRepository(db)

			mock.ExpectBegin()
			mock.ExpectExec(statusSQL).
				WithArgs("completed", sqlmock.AnyArg(), 5, "processing").
				WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectRollback()
			mock.ExpectQuery(`SELECT count\(\*\) FROM "orders" WHERE id = \$1`).
				WithArgs(5).
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(tc.count))

			err := repo.UpdateStatus(context.Background(), 5, models.OrderProcessing, models.OrderCompleted)
			require.Error(t, err)
			tc.check(t, err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

const restockSQL = `UPDATE "products" SET "stock_quantity"=stock_quantity \+ \$1,"updated_at"=\$2 WHERE id = \$3`

func TestCancelRestocksInSameTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(statusSQL).
		WithArgs("cancelled", sqlmock.AnyArg(), 5, "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM "order_items" WHERE order_id = \$1`).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "product_id", "quantity"}).
			AddRow(1, 5, 7, 2).
			AddRow(2, 5, 9, 1))
	mock.ExpectExec(restockSQL).WithArgs(2, sqlmock.AnyArg(), 7).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(restockSQL).WithArgs(1, sqlmock.AnyArg(), 9).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, repo.UpdateStatus(context.Background(), 5, models.OrderPending, models.OrderCancelled))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteRestocksOpenOrders(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT "id","status" FROM "orders" WHERE "orders"."id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).AddRow(5, "processing"))
	mock.ExpectQuery(`SELECT \* FROM "order_items" WHERE order_id = \$1`).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "product_id", "quantity"}).AddRow(1, 5, 7, 2))
	mock.ExpectExec(restockSQL).WithArgs(2, sqlmock.AnyArg(), 7).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "order_items" WHERE order_id = \$1`).WithArgs(5).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "orders" WHERE "orders"."id" = \$1`).WithArgs(5).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), 5))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCompletedOrderKeepsStock(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT "id","status" FROM "orders" WHERE "orders"."id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).AddRow(5, "completed"))
	mock.ExpectExec(`DELETE FROM "order_items" WHERE order_id = \$1`).WithArgs(5).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "orders" WHERE "orders"."id" = \$1`).WithArgs(5).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), 5))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListActiveFiltersAndOrders(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)
	created := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT \* FROM "products" WHERE is_active = \$1 AND category = \$2 ORDER BY created_at DESC`).
		WithArgs(true, "Goats").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "category", "price", "stock_quantity", "is_active", "created_at"}).
			AddRow(3, "Nubian Doeling", "Goats", "250.00", 1, true, created))

	products, err := repo.ListActive(context.Background(), models.CategoryGoats)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Nubian Doeling", products[0].Name)
	assert.True(t, decimal.RequireFromString("250").Equal(products[0].Price))

	mock.ExpectQuery(`SELECT \* FROM "products" WHERE is_active = \$1 ORDER BY created_at DESC`).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	products, err = repo.ListActive(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, products)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateColumnsWritesOnlyPatchedColumns(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)

	// the SET list is pinned, so stock_quantity cannot ride along
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "products" SET "name"=\$1,"updated_at"=\$2 WHERE id = \$3$`).
		WithArgs("Renamed", sqlmock.AnyArg(), 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.UpdateColumns(context.Background(), 7, map[string]interface{}{"name": "Renamed"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateColumnsMissingProduct(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "products" SET "is_active"=\$1`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.UpdateColumns(context.Background(), 99, map[string]interface{}{"is_active": false})
	assert.True(t, errs.Is(err, errs.KindNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}
