package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	appErrors "github.com/unclebandit/crowdfund-backend/internal/errors"
	"github.com/unclebandit/crowdfund-backend/internal/model"
)

// CustomerRepositoryInterface defines methods used by service
type CustomerRepositoryInterface interface {
	GetByID(ctx context.Context, id int) (*model.Customer, error)
	GetByEmail(ctx context.Context, email string) (*model.Customer, error)
	List(ctx context.Context, offset, limit int) ([]*model.Customer, int, error)
}

// CustomerRepository is the concrete implementation
type CustomerRepository struct {
	DB *sql.DB
}

// NormalizeEmail is the canonical form emails are stored and compared in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// GetByID fetches a customer by ID
func (r *CustomerRepository) GetByID(ctx context.Context, id int) (*model.Customer, error) {
	query := `
        SELECT id, email, first_name, last_name, external_id, created_at
        FROM customers
        WHERE id = $1
    `
	var c model.Customer
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Email, &c.FirstName, &c.LastName, &c.ExternalID, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewNotFound("customer", id)
		}
		return nil, err
	}
	return &c, nil
}

func (r *CustomerRepository) GetByEmail(ctx context.Context, email string) (*model.Customer, error) {
	query := `
        SELECT id, email, first_name, last_name, external_id, created_at
        FROM customers
        WHERE email = $1
    `
	var c model.Customer
	err := r.DB.QueryRowContext(ctx, query, NormalizeEmail(email)).Scan(&c.ID, &c.Email, &c.FirstName, &c.LastName, &c.ExternalID, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewNotFound("customer", email)
		}
		return nil, err
	}
	return &c, nil
}

// List returns one page of customers, newest first, and the total count.
func (r *CustomerRepository) List(ctx context.Context, offset, limit int) ([]*model.Customer, int, error) {
	query := `
        SELECT id, email, first_name, last_name, external_id, created_at
        FROM customers
        ORDER BY id DESC
        LIMIT $1 OFFSET $2
    `
	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	customers := []*model.Customer{}
	for rows.Next() {
		var c model.Customer
		if err := rows.Scan(&c.ID, &c.Email, &c.FirstName, &c.LastName, &c.ExternalID, &c.CreatedAt); err != nil {
			return nil, 0, err
		}
		customers = append(customers, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM customers`).Scan(&total); err != nil {
		return nil, 0, err
	}
	return customers, total, nil
}

// upsertCustomer keeps the first non-empty names seen for an email.
func upsertCustomer(ctx context.Context, q querier, c *model.Customer) error {
	c.Email = NormalizeEmail(c.Email)
	query := `
        INSERT INTO customers (email, first_name, last_name, external_id)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (email) DO UPDATE
        SET first_name = COALESCE(NULLIF(customers.first_name, ''), EXCLUDED.first_name),
            last_name = COALESCE(NULLIF(customers.last_name, ''), EXCLUDED.last_name),
            external_id = COALESCE(NULLIF(customers.external_id, ''), EXCLUDED.external_id)
        RETURNING id, first_name, last_name, external_id, created_at
    `
	return q.QueryRowContext(ctx, query, c.Email, c.FirstName, c.LastName, c.ExternalID).
		Scan(&c.ID, &c.FirstName, &c.LastName, &c.ExternalID, &c.CreatedAt)
}

var _ CustomerRepositoryInterface = (*CustomerRepository)(nil)
