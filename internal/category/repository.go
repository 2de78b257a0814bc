package category

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/warimas/backoffice/internal/db"
	"github.com/warimas/backoffice/internal/logger"

	"go.uber.org/zap"
)

const nameConstraint = "product_categories_team_name_key"

type Repository interface {
	FindByID(ctx context.Context, teamID, id int64) (*Category, error)
	List(ctx context.Context, teamID int64, filter ListFilter) ([]Category, int, error)
	Create(ctx context.Context, teamID int64, name string) (*Category, error)
	Rename(ctx context.Context, teamID, id int64, name string) (*Category, error)
	Delete(ctx context.Context, teamID, id int64) error
}

type repository struct {
	db db.DBTX
}

func NewRepository(q db.DBTX) Repository {
	return &repository{db: q}
}

func (r *repository) FindByID(ctx context.Context, teamID, id int64) (*Category, error) {
	var c Category
	err := r.db.QueryRowContext(ctx, `
		SELECT id, team_id, name, created_at
		FROM product_categories
		WHERE team_id = $1 AND id = $2
	`, teamID, id).Scan(&c.ID, &c.TeamID, &c.Name, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find category %d: %w", id, err)
	}
	return &c, nil
}

func (r *repository) List(ctx context.Context, teamID int64, filter ListFilter) ([]Category, int, error) {
	offset := (filter.Page - 1) * filter.Limit

	log := logger.FromCtx(ctx).With(
		zap.String("filter", filter.Search),
		zap.Int32("limit", filter.Limit),
		zap.Int32("page", filter.Page),
		zap.Int32("offset", offset),
	)

	where := []string{"c.team_id = $1"}
	args := []interface{}{teamID}

	// ---------- FILTER ----------
	if s := strings.TrimSpace(filter.Search); s != "" {
		where = append(where, fmt.Sprintf("c.name ILIKE $%d", len(args)+1))
		args = append(args, "%"+s+"%")
	}

	whereSQL := " WHERE " + strings.Join(where, " AND ")

	// ---------- COUNT ----------
	var total int
	countQuery := "SELECT COUNT(*) FROM product_categories c" + whereSQL
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		log.Error("count categories failed", zap.Error(err))
		return nil, 0, fmt.Errorf("count categories: %w", err)
	}

	// ---------- DATA ----------
	query := "SELECT c.id, c.team_id, c.name, c.created_at FROM product_categories c" + whereSQL +
		" ORDER BY c.name ASC" +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, filter.Limit, offset)

	log.Debug("executing list categories query", zap.String("query", query), zap.Any("args", args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("query categories failed", zap.Error(err))
		return nil, 0, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	categories := []Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.TeamID, &c.Name, &c.CreatedAt); err != nil {
			log.Error("row scan failed", zap.Error(err))
			return nil, 0, err
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		log.Error("rows iteration failed", zap.Error(err))
		return nil, 0, err
	}

	return categories, total, nil
}

func (r *repository) Create(ctx context.Context, teamID int64, name string) (*Category, error) {
	var c Category
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO product_categories (team_id, name)
		VALUES ($1, $2)
		RETURNING id, team_id, name, created_at
	`, teamID, name).Scan(&c.ID, &c.TeamID, &c.Name, &c.CreatedAt)
	if db.IsUniqueViolation(err, nameConstraint) {
		return nil, ErrDuplicateName
	}
	if err != nil {
		return nil, fmt.Errorf("insert category: %w", err)
	}
	return &c, nil
}

func (r *repository) Rename(ctx context.Context, teamID, id int64, name string) (*Category, error) {
	var c Category
	err := r.db.QueryRowContext(ctx, `
		UPDATE product_categories SET name = $1
		WHERE team_id = $2 AND id = $3
		RETURNING id, team_id, name, created_at
	`, name, teamID, id).Scan(&c.ID, &c.TeamID, &c.Name, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCategoryNotFound
	}
	if db.IsUniqueViolation(err, nameConstraint) {
		return nil, ErrDuplicateName
	}
	if err != nil {
		return nil, fmt.Errorf("rename category %d: %w", id, err)
	}
	return &c, nil
}

// Delete removes the category. Products keep existing with a NULL
// category_id (ON DELETE SET NULL).
func (r *repository) Delete(ctx context.Context, teamID, id int64) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM product_categories WHERE team_id = $1 AND id = $2
	`, teamID, id)
	if err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCategoryNotFound
	}
	return nil
}
