package audit

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/warimas/backoffice/internal/utils"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// jsonArg matches a JSON column argument by decoded value.
type jsonArg struct {
	want map[string]any
}

func (a jsonArg) Match(v driver.Value) bool {
	b, ok := v.([]byte)
	if !ok {
		return false
	}
	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		return false
	}
	for k, want := range a.want {
		if got[k] != want {
			return false
		}
	}
	return true
}

func TestRepository_Record(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	repo := NewRepository(sqlDB)

	t.Run("Created with user", func(t *testing.T) {
		ctx := utils.SetUserContext(context.Background(), 3, 7, "owner@example.com", "owner")
		after := map[string]any{"num": "A007000001", "total_price": "20.00"}

		mock.ExpectExec("INSERT INTO audits").
			WithArgs(int64(7), int64(3), "order", int64(10), "created", sqlmock.AnyArg(),
				jsonArg{want: map[string]any{"num": "A007000001"}}).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := repo.Record(ctx, 7, Subject{Kind: KindOrder, ID: 10}, EventCreated, nil, after)
		assert.NoError(t, err)
	})

	t.Run("Anonymous user stores NULL", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO audits").
			WithArgs(int64(7), nil, "product", int64(4), "deleted", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(2, 1))

		err := repo.Record(context.Background(), 7, Subject{Kind: KindProduct, ID: 4}, EventDeleted,
			map[string]any{"quantity": 3}, nil)
		assert.NoError(t, err)
	})

	t.Run("Unmarshalable snapshot", func(t *testing.T) {
		err := repo.Record(context.Background(), 7, Subject{Kind: KindOrder, ID: 1}, EventUpdated,
			map[string]any{"bad": make(chan int)}, nil)
		assert.ErrorContains(t, err, "marshal before snapshot")
	})

	t.Run("DB error", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO audits").WillReturnError(errors.New("db down"))

		err := repo.Record(context.Background(), 7, Subject{Kind: KindCustomer, ID: 2}, EventCreated, nil, map[string]any{})
		assert.ErrorContains(t, err, "record audit")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_History(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	repo := NewRepository(sqlDB)
	now := time.Now()

	t.Run("Success", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "team_id", "user_id", "entity_kind", "entity_id", "event", "before", "after", "created_at"}).
			AddRow(2, 7, 3, "order", 10, "updated", []byte(`{"notes":""}`), []byte(`{"notes":"rush"}`), now).
			AddRow(1, 7, nil, "order", 10, "created", nil, []byte(`{"notes":""}`), now.Add(-time.Hour))

		mock.ExpectQuery(`SELECT .* FROM audits WHERE team_id = \$1 AND entity_kind = \$2 AND entity_id = \$3 ORDER BY created_at DESC`).
			WithArgs(int64(7), "order", int64(10)).
			WillReturnRows(rows)

		entries, err := repo.History(context.Background(), 7, Subject{Kind: KindOrder, ID: 10})
		require.NoError(t, err)
		require.Len(t, entries, 2)

		assert.Equal(t, EventUpdated, entries[0].Event)
		require.NotNil(t, entries[0].UserID)
		assert.Equal(t, int64(3), *entries[0].UserID)
		assert.JSONEq(t, `{"notes":"rush"}`, string(entries[0].After))

		assert.Nil(t, entries[1].UserID)
		assert.Nil(t, entries[1].Before)
	})

	t.Run("Query error", func(t *testing.T) {
		mock.ExpectQuery("SELECT .* FROM audits").WillReturnError(errors.New("db down"))

		_, err := repo.History(context.Background(), 7, Subject{Kind: KindOrder, ID: 10})
		assert.Error(t, err)
	})
}

func TestParseKind(t *testing.T) {
	k, ok := ParseKind("customer")
	assert.True(t, ok)
	assert.Equal(t, KindCustomer, k)

	_, ok = ParseKind("team")
	assert.False(t, ok)
}
