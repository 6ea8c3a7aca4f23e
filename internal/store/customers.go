package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/safar/go-crm-backend/internal/database"
	"github.com/safar/go-crm-backend/internal/models"
)

type CustomerInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// CustomerFilter narrows customer listings. Zero-valued fields are ignored,
// so the empty filter returns all records.
type CustomerFilter struct {
	Name          string     `json:"name,omitempty"`
	Email         string     `json:"email,omitempty"`
	CreatedAtFrom *time.Time `json:"created_at_from,omitempty"`
	CreatedAtTo   *time.Time `json:"created_at_to,omitempty"`
}

func CreateCustomer(ctx context.Context, db *sql.DB, input CustomerInput) (*models.Customer, error) {
	if err := validateCustomerInput(input); err != nil {
		return nil, err
	}

	customer := &models.Customer{}

	query := `
		INSERT INTO customers (name, email, phone, created_at)
		VALUES ($1, $2, NULLIF($3, ''), NOW())
		RETURNING id, name, email, COALESCE(phone, ''), created_at`

	err := db.QueryRowContext(ctx, query, input.Name, input.Email, input.Phone).Scan(
		&customer.ID,
		&customer.Name,
		&customer.Email,
		&customer.Phone,
		&customer.CreatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err, "customers_email_key") {
			return nil, database.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create customer: %w", err)
	}

	return customer, nil
}

// BulkCreateCustomers inserts each input inside one enclosing transaction.
// A failed item is rolled back to its savepoint and collected as an error
// string; later items still proceed. The whole batch fails only if the
// transaction itself does.
func BulkCreateCustomers(ctx context.Context, db *sql.DB, inputs []CustomerInput) ([]models.Customer, []string, error) {
	var customers []models.Customer
	var itemErrors []string

	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		for i, input := range inputs {
			if err := validateCustomerInput(input); err != nil {
				itemErrors = append(itemErrors, fmt.Sprintf("Failed to create customer %s: %v", input.Name, err))
				continue
			}

			savepoint := fmt.Sprintf("bulk_customer_%d", i)
			if _, err := tx.ExecContext(ctx, "SAVEPOINT "+savepoint); err != nil {
				return fmt.Errorf("create savepoint: %w", err)
			}

			var customer models.Customer
			err := tx.QueryRowContext(ctx, `
				INSERT INTO customers (name, email, phone, created_at)
				VALUES ($1, $2, NULLIF($3, ''), NOW())
				RETURNING id, name, email, COALESCE(phone, ''), created_at`,
				input.Name, input.Email, input.Phone).Scan(
				&customer.ID,
				&customer.Name,
				&customer.Email,
				&customer.Phone,
				&customer.CreatedAt,
			)
			if err != nil {
				if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+savepoint); rbErr != nil {
					return fmt.Errorf("rollback to savepoint: %w", rbErr)
				}
				if database.IsUniqueViolation(err, "customers_email_key") {
					itemErrors = append(itemErrors, fmt.Sprintf("Failed to create customer %s: %v", input.Name, database.ErrDuplicateEmail))
				} else {
					itemErrors = append(itemErrors, fmt.Sprintf("Unexpected error for %s: %v", input.Name, err))
				}
				continue
			}

			if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT "+savepoint); err != nil {
				return fmt.Errorf("release savepoint: %w", err)
			}
			customers = append(customers, customer)
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("bulk create customers: %w", err)
	}

	return customers, itemErrors, nil
}

func ListCustomers(ctx context.Context, db *sql.DB, filter CustomerFilter) ([]models.Customer, error) {
	var conditions []string
	var args []interface{}

	if filter.Name != "" {
		args = append(args, "%"+filter.Name+"%")
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if filter.Email != "" {
		args = append(args, "%"+filter.Email+"%")
		conditions = append(conditions, fmt.Sprintf("email ILIKE $%d", len(args)))
	}
	if filter.CreatedAtFrom != nil {
		args = append(args, *filter.CreatedAtFrom)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedAtTo != nil {
		args = append(args, *filter.CreatedAtTo)
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	query := `SELECT id, name, email, COALESCE(phone, ''), created_at FROM customers`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var customers []models.Customer
	for rows.Next() {
		var customer models.Customer
		err := rows.Scan(
			&customer.ID,
			&customer.Name,
			&customer.Email,
			&customer.Phone,
			&customer.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, customer)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return customers, nil
}
