package product

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warimas/backoffice/internal/apperr"
	"github.com/warimas/backoffice/internal/utils"
)

func validInput() Input {
	return Input{
		Name:     "  Coffee beans ",
		SKU:      utils.StrPtr("CB-1"),
		Cost:     decimal.RequireFromString("4.50"),
		Price:    decimal.RequireFromString("10.00"),
		Quantity: 12,
	}
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Success writes audit in the same tx", func(t *testing.T) {
		sqlDB, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer sqlDB.Close()

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO products").
			WithArgs(int64(7), nil, "Coffee beans", "CB-1", nil, sqlmock.AnyArg(), sqlmock.AnyArg(), 12).
			WillReturnRows(productRow(1, 12))
		mock.ExpectExec("INSERT INTO audits").
			WithArgs(int64(7), sqlmock.AnyArg(), "product", int64(1), "created", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		p, err := NewService(sqlDB).Create(ctx, 7, validInput())
		require.NoError(t, err)
		assert.Equal(t, int64(1), p.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Category of another team", func(t *testing.T) {
		sqlDB, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer sqlDB.Close()

		cat := int64(9)
		in := validInput()
		in.CategoryID = &cat

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs(int64(7), cat).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectRollback()

		_, err = NewService(sqlDB).Create(ctx, 7, in)
		assert.ErrorIs(t, err, ErrCategoryNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Audit failure rolls back", func(t *testing.T) {
		sqlDB, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer sqlDB.Close()

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO products").WillReturnRows(productRow(1, 12))
		mock.ExpectExec("INSERT INTO audits").WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()

		_, err = NewService(sqlDB).Create(ctx, 7, validInput())
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestService_Validation(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	svc := NewService(sqlDB)

	tests := []struct {
		name   string
		mutate func(in *Input)
	}{
		{"short name", func(in *Input) { in.Name = "a" }},
		{"short sku", func(in *Input) { in.SKU = utils.StrPtr("x") }},
		{"negative cost", func(in *Input) { in.Cost = decimal.NewFromInt(-1) }},
		{"zero price", func(in *Input) { in.Price = decimal.Zero }},
		{"negative quantity", func(in *Input) { in.Quantity = -1 }},
		{"price below a cent", func(in *Input) { in.Price = decimal.RequireFromString("0.001") }},
		{"zero category id", func(in *Input) { zero := int64(0); in.CategoryID = &zero }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)

			_, err := svc.Create(context.Background(), 7, in)
			assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
		})
	}

	// validation happens before any statement
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Update(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	svc := NewService(sqlDB)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT .* FROM products").
			WithArgs(int64(7), int64(1)).
			WillReturnRows(productRow(1, 12))
		mock.ExpectQuery("UPDATE products").
			WithArgs(nil, "Coffee beans", "CB-1", nil, sqlmock.AnyArg(), sqlmock.AnyArg(), int64(7), int64(1)).
			WillReturnRows(productRow(1, 9))
		mock.ExpectExec("INSERT INTO audits").
			WithArgs(int64(7), sqlmock.AnyArg(), "product", int64(1), "updated", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		// a stale client copy of the stock does not overwrite the current count
		in := validInput()
		in.Quantity = 20
		p, err := svc.Update(context.Background(), 7, 1, in)
		require.NoError(t, err)
		assert.Equal(t, 9, p.Quantity)
	})

	t.Run("Not found", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT .* FROM products").
			WithArgs(int64(7), int64(2)).
			WillReturnRows(sqlmock.NewRows(productCols))
		mock.ExpectRollback()

		_, err := svc.Update(context.Background(), 7, 2, validInput())
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_AdjustStock(t *testing.T) {
	ctx := context.Background()

	t.Run("Restock applies a delta under the row lock", func(t *testing.T) {
		sqlDB, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer sqlDB.Close()

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT .* FROM products\\s+WHERE team_id = \\$1 AND id = \\$2\\s+FOR UPDATE").
			WithArgs(int64(7), int64(1)).
			WillReturnRows(productRow(1, 3))
		mock.ExpectExec("UPDATE products\\s+SET quantity = quantity \\+ \\$1").
			WithArgs(5, int64(7), int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("SELECT .* FROM products WHERE team_id = \\$1 AND id = \\$2 AND deleted_at IS NULL").
			WithArgs(int64(7), int64(1)).
			WillReturnRows(productRow(1, 8))
		mock.ExpectExec("INSERT INTO audits").
			WithArgs(int64(7), sqlmock.AnyArg(), "product", int64(1), "updated", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		p, err := NewService(sqlDB).AdjustStock(ctx, 7, 1, StockAdjustment{Delta: 5})
		require.NoError(t, err)
		assert.Equal(t, 8, p.Quantity)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Write-off below zero", func(t *testing.T) {
		sqlDB, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer sqlDB.Close()

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT .* FROM products").
			WithArgs(int64(7), int64(1)).
			WillReturnRows(productRow(1, 3))
		mock.ExpectRollback()

		_, err = NewService(sqlDB).AdjustStock(ctx, 7, 1, StockAdjustment{Delta: -4})
		assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Zero delta", func(t *testing.T) {
		sqlDB, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer sqlDB.Close()

		_, err = NewService(sqlDB).AdjustStock(ctx, 7, 1, StockAdjustment{})
		assert.ErrorIs(t, err, apperr.ErrInvalidInput)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Deleted product", func(t *testing.T) {
		sqlDB, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer sqlDB.Close()

		now := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT .* FROM products").
			WithArgs(int64(7), int64(1)).
			WillReturnRows(sqlmock.NewRows(productCols).
				AddRow(int64(1), int64(7), nil, "Coffee beans", "CB-1", nil, "4.50", "10.00", 3, now, now, now))
		mock.ExpectRollback()

		_, err = NewService(sqlDB).AdjustStock(ctx, 7, 1, StockAdjustment{Delta: 2})
		assert.ErrorIs(t, err, ErrProductNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestService_Delete(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM products").
		WithArgs(int64(7), int64(1)).
		WillReturnRows(productRow(1, 12))
	mock.ExpectExec("UPDATE products SET deleted_at").
		WithArgs(int64(7), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO audits").
		WithArgs(int64(7), sqlmock.AnyArg(), "product", int64(1), "deleted", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	assert.NoError(t, NewService(sqlDB).Delete(context.Background(), 7, 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_List(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT .* FROM products").
		WithArgs(int64(7), int32(100), int32(0)).
		WillReturnRows(productRow(1, 3))

	res, err := NewService(sqlDB).List(context.Background(), 7, ListFilter{Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, int32(1), res.Page)
	assert.Equal(t, int32(100), res.Limit)
	assert.Len(t, res.Items, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
