package utils

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserContext(t *testing.T) {
	t.Run("SetUserContext and getters", func(t *testing.T) {
		ctx := SetUserContext(context.Background(), 100, 7, "user@example.com", "owner")

		id, ok := GetUserIDFromContext(ctx)
		assert.True(t, ok)
		assert.Equal(t, int64(100), id)

		teamID, ok := GetTeamIDFromContext(ctx)
		assert.True(t, ok)
		assert.Equal(t, int64(7), teamID)

		assert.Equal(t, "user@example.com", GetUserEmailFromContext(ctx))
		assert.Equal(t, "owner", GetUserRoleFromContext(ctx))
	})

	t.Run("Empty context", func(t *testing.T) {
		_, ok := GetUserIDFromContext(context.Background())
		assert.False(t, ok)

		_, ok = GetTeamIDFromContext(context.Background())
		assert.False(t, ok)
	})

	t.Run("Zero team is not a team", func(t *testing.T) {
		ctx := SetUserContext(context.Background(), 1, 0, "", "")
		_, ok := GetTeamIDFromContext(ctx)
		assert.False(t, ok)
	})
}

func TestIsInternalRequest(t *testing.T) {
	assert.False(t, IsInternalRequest(context.Background()))
	assert.True(t, IsInternalRequest(WithInternalRequest(context.Background())))
}

func TestParseID(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"42", 42, true},
		{"0", 0, false},
		{"-3", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseID(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestPagination(t *testing.T) {
	page, limit, offset := Pagination(0, 0)
	assert.Equal(t, int32(1), page)
	assert.Equal(t, int32(20), limit)
	assert.Equal(t, int32(0), offset)

	page, limit, offset = Pagination(3, 500)
	assert.Equal(t, int32(3), page)
	assert.Equal(t, int32(100), limit)
	assert.Equal(t, int32(200), offset)
}

func TestTrimPtr(t *testing.T) {
	assert.Nil(t, TrimPtr(nil))
	assert.Nil(t, TrimPtr(StrPtr("   ")))
	assert.Equal(t, "Kyiv", *TrimPtr(StrPtr("  Kyiv ")))
	assert.Equal(t, "", PtrString(nil))
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()

	WriteError(w, http.StatusUnprocessableEntity, "invalid_input", "name is required")

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":{"code":"invalid_input","message":"name is required"}}`, w.Body.String())
}

func TestWriteJSON_NoBody(t *testing.T) {
	w := httptest.NewRecorder()

	WriteJSON(w, http.StatusNoContent, nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}
