package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warimas/backoffice/internal/db"
	"github.com/warimas/backoffice/internal/logger"
)

const numConstraint = "orders_team_num_key"

// Repository covers order headers, their lines, the numbering sequence and
// the status lookup table. Every method runs on the DBTX it was built with.
type Repository interface {
	FindByID(ctx context.Context, teamID, id int64) (*Order, error)
	LockByID(ctx context.Context, teamID, id int64) (*Order, error)
	List(ctx context.Context, teamID int64, filter ListFilter) ([]Order, int, error)
	Insert(ctx context.Context, o *Order) error
	UpdateHeader(ctx context.Context, o *Order) error
	SetTotals(ctx context.Context, teamID, id int64, cost, price decimal.Decimal) error
	SoftDelete(ctx context.Context, teamID, id int64) error

	Lines(ctx context.Context, orderID int64) ([]Line, error)
	InsertLine(ctx context.Context, l *Line) error
	UpdateLine(ctx context.Context, l *Line) error
	DeleteLine(ctx context.Context, lineID int64) error
	DeleteLines(ctx context.Context, orderID int64) error

	LockNumbering(ctx context.Context, teamID int64) error
	LastSequence(ctx context.Context, teamID int64, prefix string) (int, error)

	StatusByName(ctx context.Context, name string) (*Status, error)
	StatusByID(ctx context.Context, id int64) (*Status, error)
	Statuses(ctx context.Context) ([]Status, error)
}

type repository struct {
	db db.DBTX
}

func NewRepository(q db.DBTX) Repository {
	return &repository{db: q}
}

const orderColumns = `id, team_id, customer_id, status_id, num, total_cost, total_price,
	first_name, last_name, phone, address, notes, created_at, updated_at, deleted_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var (
		o                                     Order
		customerID                            sql.NullInt64
		firstName, lastName, phone, addr, nts sql.NullString
		deletedAt                             sql.NullTime
	)
	err := row.Scan(
		&o.ID, &o.TeamID, &customerID, &o.StatusID, &o.Num, &o.TotalCost, &o.TotalPrice,
		&firstName, &lastName, &phone, &addr, &nts, &o.CreatedAt, &o.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}
	if customerID.Valid {
		o.CustomerID = &customerID.Int64
	}
	o.FirstName = nullString(firstName)
	o.LastName = nullString(lastName)
	o.Phone = nullString(phone)
	o.Address = nullString(addr)
	o.Notes = nullString(nts)
	if deletedAt.Valid {
		o.DeletedAt = &deletedAt.Time
	}
	return &o, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func (r *repository) FindByID(ctx context.Context, teamID, id int64) (*Order, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE team_id = $1 AND id = $2 AND deleted_at IS NULL
	`, teamID, id)

	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find order %d: %w", id, err)
	}
	return o, nil
}

// LockByID row-locks the header so concurrent edits of the same order
// serialise.
func (r *repository) LockByID(ctx context.Context, teamID, id int64) (*Order, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE team_id = $1 AND id = $2 AND deleted_at IS NULL
		FOR UPDATE
	`, teamID, id)

	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock order %d: %w", id, err)
	}
	return o, nil
}

func (r *repository) List(ctx context.Context, teamID int64, filter ListFilter) ([]Order, int, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ListOrders"),
	)

	where := []string{"team_id = $1", "deleted_at IS NULL"}
	args := []interface{}{teamID}

	// ---------- FILTER ----------
	if s := strings.TrimSpace(filter.Search); s != "" {
		where = append(where, fmt.Sprintf("num ILIKE $%d", len(args)+1))
		args = append(args, s+"%")
	}
	if filter.StatusID != nil {
		where = append(where, fmt.Sprintf("status_id = $%d", len(args)+1))
		args = append(args, *filter.StatusID)
	}
	if filter.From != nil {
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		where = append(where, fmt.Sprintf("created_at < $%d", len(args)+1))
		args = append(args, *filter.To)
	}

	whereSQL := " WHERE " + strings.Join(where, " AND ")

	// ---------- COUNT ----------
	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders"+whereSQL, args...).Scan(&total); err != nil {
		log.Error("count orders failed", zap.Error(err))
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	// ---------- DATA ----------
	query := "SELECT " + orderColumns + " FROM orders" + whereSQL +
		" ORDER BY created_at DESC, id DESC" +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	log.Debug("executing list orders query", zap.String("query", query), zap.Any("args", args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("query orders failed", zap.Error(err))
		return nil, 0, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			log.Error("row scan failed", zap.Error(err))
			return nil, 0, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *repository) Insert(ctx context.Context, o *Order) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO orders (
			team_id, customer_id, status_id, num, total_cost, total_price,
			first_name, last_name, phone, address, notes
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING id, created_at, updated_at
	`,
		o.TeamID, o.CustomerID, o.StatusID, o.Num, o.TotalCost, o.TotalPrice,
		o.FirstName, o.LastName, o.Phone, o.Address, o.Notes,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)

	if db.IsUniqueViolation(err, numConstraint) {
		return fmt.Errorf("%q: %w", o.Num, ErrNumberConflict)
	}
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *repository) UpdateHeader(ctx context.Context, o *Order) error {
	err := r.db.QueryRowContext(ctx, `
		UPDATE orders
		SET customer_id = $1, status_id = $2, num = $3,
			first_name = $4, last_name = $5, phone = $6, address = $7, notes = $8,
			updated_at = NOW()
		WHERE team_id = $9 AND id = $10 AND deleted_at IS NULL
		RETURNING updated_at
	`,
		o.CustomerID, o.StatusID, o.Num,
		o.FirstName, o.LastName, o.Phone, o.Address, o.Notes,
		o.TeamID, o.ID,
	).Scan(&o.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return ErrOrderNotFound
	}
	if db.IsUniqueViolation(err, numConstraint) {
		return fmt.Errorf("%q: %w", o.Num, ErrNumberConflict)
	}
	if err != nil {
		return fmt.Errorf("update order %d: %w", o.ID, err)
	}
	return nil
}

func (r *repository) SetTotals(ctx context.Context, teamID, id int64, cost, price decimal.Decimal) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET total_cost = $1, total_price = $2, updated_at = NOW()
		WHERE team_id = $3 AND id = $4
	`, cost, price, teamID, id)
	if err != nil {
		return fmt.Errorf("set totals of order %d: %w", id, err)
	}
	return oneRow(res, ErrOrderNotFound)
}

func (r *repository) SoftDelete(ctx context.Context, teamID, id int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET deleted_at = NOW()
		WHERE team_id = $1 AND id = $2 AND deleted_at IS NULL
	`, teamID, id)
	if err != nil {
		return fmt.Errorf("delete order %d: %w", id, err)
	}
	return oneRow(res, ErrOrderNotFound)
}

func (r *repository) Lines(ctx context.Context, orderID int64) ([]Line, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, quantity, unit_cost, unit_price, created_at, updated_at
		FROM order_lines
		WHERE order_id = $1
		ORDER BY product_id ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query lines of order %d: %w", orderID, err)
	}
	defer rows.Close()

	lines := []Line{}
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Quantity,
			&l.UnitCost, &l.UnitPrice, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *repository) InsertLine(ctx context.Context, l *Line) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO order_lines (order_id, product_id, quantity, unit_cost, unit_price)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, l.OrderID, l.ProductID, l.Quantity, l.UnitCost, l.UnitPrice).
		Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert line for product %d: %w", l.ProductID, err)
	}
	return nil
}

func (r *repository) UpdateLine(ctx context.Context, l *Line) error {
	err := r.db.QueryRowContext(ctx, `
		UPDATE order_lines
		SET quantity = $1, unit_cost = $2, unit_price = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at
	`, l.Quantity, l.UnitCost, l.UnitPrice, l.ID).Scan(&l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update line %d: %w", l.ID, err)
	}
	return nil
}

func (r *repository) DeleteLine(ctx context.Context, lineID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM order_lines WHERE id = $1`, lineID)
	if err != nil {
		return fmt.Errorf("delete line %d: %w", lineID, err)
	}
	return nil
}

func (r *repository) DeleteLines(ctx context.Context, orderID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM order_lines WHERE order_id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("delete lines of order %d: %w", orderID, err)
	}
	return nil
}

// LockNumbering takes the team's numbering lock until the transaction ends.
func (r *repository) LockNumbering(ctx context.Context, teamID int64) error {
	if _, err := r.db.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, teamID); err != nil {
		return fmt.Errorf("lock numbering for team %d: %w", teamID, err)
	}
	return nil
}

// LastSequence reads the highest generated-format suffix under prefix,
// soft-deleted orders included. Numbers typed in another format are ignored.
func (r *repository) LastSequence(ctx context.Context, teamID int64, prefix string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(RIGHT(num, 6)::int), 0)
		FROM orders
		WHERE team_id = $1 AND num ~ $2
	`, teamID, sequencePattern(prefix)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("read last order number: %w", err)
	}
	return n, nil
}

// sequencePattern matches <prefix> followed by exactly six digits. Prefixes
// are a letter and digits, so they need no escaping.
func sequencePattern(prefix string) string {
	return "^" + prefix + "[0-9]{6}$"
}

func (r *repository) StatusByName(ctx context.Context, name string) (*Status, error) {
	var s Status
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, label FROM order_statuses WHERE name = $1
	`, name).Scan(&s.ID, &s.Name, &s.Label)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", name, ErrStatusNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find status %s: %w", name, err)
	}
	return &s, nil
}

func (r *repository) StatusByID(ctx context.Context, id int64) (*Status, error) {
	var s Status
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, label FROM order_statuses WHERE id = $1
	`, id).Scan(&s.ID, &s.Name, &s.Label)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStatusNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find status %d: %w", id, err)
	}
	return &s, nil
}

func (r *repository) Statuses(ctx context.Context) ([]Status, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, label FROM order_statuses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query statuses: %w", err)
	}
	defer rows.Close()

	statuses := []Status{}
	for rows.Next() {
		var s Status
		if err := rows.Scan(&s.ID, &s.Name, &s.Label); err != nil {
			return nil, err
		}
		statuses = append(statuses, s)
	}
	return statuses, rows.Err()
}

func oneRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
