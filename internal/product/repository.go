package product

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

const skuConstraint = "products_team_sku_key"

// Repository is the team-scoped product store. FindForUpdate and the two
// quantity methods form the stock ledger used by order reconciliation.
type Repository interface {
	FindByID(ctx context.Context, teamID, id int64) (*Product, error)
	FindForUpdate(ctx context.Context, teamID, id int64) (*Product, error)
	List(ctx context.Context, teamID int64, filter ListFilter) ([]Product, int, error)
	Create(ctx context.Context, teamID int64, in Input) (*Product, error)
	Update(ctx context.Context, teamID, id int64, in Input) (*Product, error)
	SoftDelete(ctx context.Context, teamID, id int64) error
	CategoryExists(ctx context.Context, teamID, categoryID int64) (bool, error)

	DecrementQuantity(ctx context.Context, teamID, productID int64, amount int) error
	IncrementQuantity(ctx context.Context, teamID, productID int64, amount int) error
}

type repository struct {
	db db.DBTX
}

func NewRepository(q db.DBTX) Repository {
	return &repository{db: q}
}

const productColumns = `id, team_id, category_id, name, sku, description, cost, price, quantity, created_at, updated_at, deleted_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*Product, error) {
	var (
		p          Product
		categoryID sql.NullInt64
		sku        sql.NullString
		desc       sql.NullString
		deletedAt  sql.NullTime
	)
	err := row.Scan(
		&p.ID, &p.TeamID, &categoryID, &p.Name, &sku, &desc,
		&p.Cost, &p.Price, &p.Quantity, &p.CreatedAt, &p.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}
	if categoryID.Valid {
		p.CategoryID = &categoryID.Int64
	}
	if sku.Valid {
		p.SKU = &sku.String
	}
	if desc.Valid {
		p.Description = &desc.String
	}
	if deletedAt.Valid {
		p.DeletedAt = &deletedAt.Time
	}
	return &p, nil
}

func (r *repository) FindByID(ctx context.Context, teamID, id int64) (*Product, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE team_id = $1 AND id = $2 AND deleted_at IS NULL
	`, teamID, id)

	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find product %d: %w", id, err)
	}
	return p, nil
}

// FindForUpdate row-locks the product for the rest of the transaction.
// Soft-deleted rows are returned too: an order may still hold stock of a
// product that was removed from the catalogue.
func (r *repository) FindForUpdate(ctx context.Context, teamID, id int64) (*Product, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE team_id = $1 AND id = $2
		FOR UPDATE
	`, teamID, id)

	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("product %d: %w", id, ErrProductNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("lock product %d: %w", id, err)
	}
	return p, nil
}

func (r *repository) List(ctx context.Context, teamID int64, filter ListFilter) ([]Product, int, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ListProducts"),
	)

	where := []string{"team_id = $1", "deleted_at IS NULL"}
	args := []any{teamID}

	if s := strings.TrimSpace(filter.Search); s != "" {
		where = append(where, fmt.Sprintf("(sku ILIKE $%d OR name ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, s+"%")
	}
	if filter.CategoryID != nil {
		where = append(where, fmt.Sprintf("category_id = $%d", len(args)+1))
		args = append(args, *filter.CategoryID)
	}

	whereSQL := " WHERE " + strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products"+whereSQL, args...).Scan(&total); err != nil {
		log.Error("count products failed", zap.Error(err))
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query := "SELECT " + productColumns + " FROM products" + whereSQL +
		" ORDER BY created_at DESC, id DESC" +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	log.Debug("executing list products query", zap.String("query", query), zap.Any("args", args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("query products failed", zap.Error(err))
		return nil, 0, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	items := make([]Product, 0, filter.Limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func (r *repository) Create(ctx context.Context, teamID int64, in Input) (*Product, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO products (team_id, category_id, name, sku, description, cost, price, quantity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+productColumns,
		teamID, in.CategoryID, in.Name, in.SKU, in.Description, in.Cost, in.Price, in.Quantity,
	)

	p, err := scanProduct(row)
	if db.IsUniqueViolation(err, skuConstraint) {
		return nil, ErrDuplicateSKU
	}
	if err != nil {
		return nil, fmt.Errorf("insert product: %w", err)
	}
	return p, nil
}

// Update rewrites the catalogue fields. Quantity is left to the stock ledger.
func (r *repository) Update(ctx context.Context, teamID, id int64, in Input) (*Product, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE products
		SET category_id = $1, name = $2, sku = $3, description = $4,
			cost = $5, price = $6, updated_at = NOW()
		WHERE team_id = $7 AND id = $8 AND deleted_at IS NULL
		RETURNING `+productColumns,
		in.CategoryID, in.Name, in.SKU, in.Description, in.Cost, in.Price, teamID, id,
	)

	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if db.IsUniqueViolation(err, skuConstraint) {
		return nil, ErrDuplicateSKU
	}
	if err != nil {
		return nil, fmt.Errorf("update product %d: %w", id, err)
	}
	return p, nil
}

func (r *repository) SoftDelete(ctx context.Context, teamID, id int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE products SET deleted_at = NOW()
		WHERE team_id = $1 AND id = $2 AND deleted_at IS NULL
	`, teamID, id)
	if err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}
	return expectOneRow(res, ErrProductNotFound)
}

func (r *repository) CategoryExists(ctx context.Context, teamID, categoryID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM product_categories WHERE team_id = $1 AND id = $2)
	`, teamID, categoryID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check category %d: %w", categoryID, err)
	}
	return exists, nil
}

// DecrementQuantity consumes amount units of stock. It does not clamp at
// zero; availability is checked by the caller under the row lock.
func (r *repository) DecrementQuantity(ctx context.Context, teamID, productID int64, amount int) error {
	if amount < 0 {
		return ErrNegativeAmount
	}
	return r.adjustQuantity(ctx, teamID, productID, -amount)
}

// IncrementQuantity returns amount units to stock.
func (r *repository) IncrementQuantity(ctx context.Context, teamID, productID int64, amount int) error {
	if amount < 0 {
		return ErrNegativeAmount
	}
	return r.adjustQuantity(ctx, teamID, productID, amount)
}

func (r *repository) adjustQuantity(ctx context.Context, teamID, productID int64, delta int) error {
	if delta == 0 {
		return nil
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET quantity = quantity + $1, updated_at = NOW()
		WHERE team_id = $2 AND id = $3
	`, delta, teamID, productID)
	if err != nil {
		logger.FromCtx(ctx).Error("stock adjustment failed",
			zap.Int64("product_id", productID),
			zap.Int("delta", delta),
			zap.Error(err),
		)
		return fmt.Errorf("adjust stock of product %d: %w", productID, err)
	}
	if err := expectOneRow(res, ErrProductNotFound); err != nil {
		return fmt.Errorf("adjust stock of product %d: %w", productID, err)
	}
	return nil
}

func expectOneRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
