package customer

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

type Repository interface {
	FindByID(ctx context.Context, teamID, id int64) (*Customer, error)
	List(ctx context.Context, teamID int64, filter ListFilter) ([]Customer, int, error)
	Create(ctx context.Context, teamID int64, in Input) (*Customer, error)
	Update(ctx context.Context, teamID, id int64, in Input) (*Customer, error)
	UpdateContact(ctx context.Context, teamID, id int64, c Contact) (*Customer, error)
	SoftDelete(ctx context.Context, teamID, id int64) error
}

type repository struct {
	db db.DBTX
}

func NewRepository(q db.DBTX) Repository {
	return &repository{db: q}
}

const customerColumns = `id, team_id, first_name, last_name, patronymic_name, email, phone, address, city, zip, notes, created_at, updated_at, deleted_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomer(row rowScanner) (*Customer, error) {
	var (
		c                                 Customer
		patronymic, email, phone, address sql.NullString
		city, zip, notes                  sql.NullString
		deletedAt                         sql.NullTime
	)
	err := row.Scan(
		&c.ID, &c.TeamID, &c.FirstName, &c.LastName, &patronymic, &email, &phone,
		&address, &city, &zip, &notes, &c.CreatedAt, &c.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}
	c.PatronymicName = nullString(patronymic)
	c.Email = nullString(email)
	c.Phone = nullString(phone)
	c.Address = nullString(address)
	c.City = nullString(city)
	c.Zip = nullString(zip)
	c.Notes = nullString(notes)
	if deletedAt.Valid {
		c.DeletedAt = &deletedAt.Time
	}
	return &c, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func (r *repository) FindByID(ctx context.Context, teamID, id int64) (*Customer, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+customerColumns+`
		FROM customers
		WHERE team_id = $1 AND id = $2 AND deleted_at IS NULL
	`, teamID, id)

	c, err := scanCustomer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find customer %d: %w", id, err)
	}
	return c, nil
}

func (r *repository) List(ctx context.Context, teamID int64, filter ListFilter) ([]Customer, int, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ListCustomers"),
	)

	where := []string{"team_id = $1", "deleted_at IS NULL"}
	args := []any{teamID}

	if s := strings.TrimSpace(filter.Search); s != "" {
		n := len(args) + 1
		where = append(where, fmt.Sprintf(
			"(first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d OR phone ILIKE $%d)", n, n, n, n))
		args = append(args, "%"+s+"%")
	}

	whereSQL := " WHERE " + strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM customers"+whereSQL, args...).Scan(&total); err != nil {
		log.Error("count customers failed", zap.Error(err))
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}

	query := "SELECT " + customerColumns + " FROM customers" + whereSQL +
		" ORDER BY last_name ASC, first_name ASC, id ASC" +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("query customers failed", zap.Error(err))
		return nil, 0, fmt.Errorf("query customers: %w", err)
	}
	defer rows.Close()

	customers := []Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return customers, total, nil
}

func (r *repository) Create(ctx context.Context, teamID int64, in Input) (*Customer, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO customers (team_id, first_name, last_name, patronymic_name, email, phone, address, city, zip, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+customerColumns,
		teamID, in.FirstName, in.LastName, in.PatronymicName, in.Email, in.Phone,
		in.Address, in.City, in.Zip, in.Notes,
	)

	c, err := scanCustomer(row)
	if err != nil {
		return nil, fmt.Errorf("insert customer: %w", err)
	}
	return c, nil
}

func (r *repository) Update(ctx context.Context, teamID, id int64, in Input) (*Customer, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE customers
		SET first_name = $1, last_name = $2, patronymic_name = $3, email = $4, phone = $5,
			address = $6, city = $7, zip = $8, notes = $9, updated_at = NOW()
		WHERE team_id = $10 AND id = $11 AND deleted_at IS NULL
		RETURNING `+customerColumns,
		in.FirstName, in.LastName, in.PatronymicName, in.Email, in.Phone,
		in.Address, in.City, in.Zip, in.Notes, teamID, id,
	)

	c, err := scanCustomer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update customer %d: %w", id, err)
	}
	return c, nil
}

// UpdateContact overwrites only the fields an order form carries.
func (r *repository) UpdateContact(ctx context.Context, teamID, id int64, ct Contact) (*Customer, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE customers
		SET first_name = $1, last_name = $2, phone = $3, address = $4, updated_at = NOW()
		WHERE team_id = $5 AND id = $6 AND deleted_at IS NULL
		RETURNING `+customerColumns,
		ct.FirstName, ct.LastName, ct.Phone, ct.Address, teamID, id,
	)

	c, err := scanCustomer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update customer %d contact: %w", id, err)
	}
	return c, nil
}

func (r *repository) SoftDelete(ctx context.Context, teamID, id int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE customers SET deleted_at = NOW()
		WHERE team_id = $1 AND id = $2 AND deleted_at IS NULL
	`, teamID, id)
	if err != nil {
		return fmt.Errorf("delete customer %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCustomerNotFound
	}
	return nil
}
