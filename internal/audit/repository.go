package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/warimas/backoffice/internal/db"
	"github.com/warimas/backoffice/internal/logger"
	"github.com/warimas/backoffice/internal/utils"

	"go.uber.org/zap"
)

// Repository writes and reads the audit trail. Record runs on whatever
// DBTX it was built with, so callers pass their transaction to keep the
// audit row atomic with the change it describes.
type Repository interface {
	Record(ctx context.Context, teamID int64, subject Subject, event Event, before, after any) error
	History(ctx context.Context, teamID int64, subject Subject) ([]Entry, error)
}

type repository struct {
	db db.DBTX
}

func NewRepository(q db.DBTX) Repository {
	return &repository{db: q}
}

func (r *repository) Record(
	ctx context.Context,
	teamID int64,
	subject Subject,
	event Event,
	before, after any,
) error {
	beforeJSON, err := snapshot(before)
	if err != nil {
		return fmt.Errorf("marshal before snapshot: %w", err)
	}
	afterJSON, err := snapshot(after)
	if err != nil {
		return fmt.Errorf("marshal after snapshot: %w", err)
	}

	var userID sql.NullInt64
	if id, ok := utils.GetUserIDFromContext(ctx); ok {
		userID = sql.NullInt64{Int64: id, Valid: true}
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO audits (team_id, user_id, entity_kind, entity_id, event, before, after)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, teamID, userID, string(subject.Kind), subject.ID, string(event), beforeJSON, afterJSON)
	if err != nil {
		logger.FromCtx(ctx).Error("audit insert failed",
			zap.String("entity", string(subject.Kind)),
			zap.Int64("entity_id", subject.ID),
			zap.Error(err),
		)
		return fmt.Errorf("record audit: %w", err)
	}
	return nil
}

func (r *repository) History(ctx context.Context, teamID int64, subject Subject) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, team_id, user_id, entity_kind, entity_id, event, before, after, created_at
		FROM audits
		WHERE team_id = $1 AND entity_kind = $2 AND entity_id = $3
		ORDER BY created_at DESC, id DESC
	`, teamID, string(subject.Kind), subject.ID)
	if err != nil {
		return nil, fmt.Errorf("query audits: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e             Entry
			userID        sql.NullInt64
			before, after []byte
		)
		if err := rows.Scan(&e.ID, &e.TeamID, &userID, &e.Kind, &e.EntityID, &e.Event, &before, &after, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit: %w", err)
		}
		if userID.Valid {
			e.UserID = &userID.Int64
		}
		e.Before = nullableJSON(before)
		e.After = nullableJSON(after)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// snapshot returns an untyped nil for an absent side so the column stays NULL.
func snapshot(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func nullableJSON(b []byte) json.RawMessage {
	if len(b) == 0 {
		return nil
	}
	return json.RawMessage(b)
}
