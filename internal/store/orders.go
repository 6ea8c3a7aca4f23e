package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/safar/go-crm-backend/internal/database"
	"github.com/safar/go-crm-backend/internal/models"
	"github.com/shopspring/decimal"
)

type OrderInput struct {
	CustomerID int64      `json:"customer_id"`
	ProductIDs []int64    `json:"product_ids"`
	OrderDate  *time.Time `json:"order_date,omitempty"`
}

type OrderFilter struct {
	CustomerID    *int64           `json:"customer_id,omitempty"`
	OrderDateFrom *time.Time       `json:"order_date_from,omitempty"`
	OrderDateTo   *time.Time       `json:"order_date_to,omitempty"`
	TotalMin      *decimal.Decimal `json:"total_min,omitempty"`
	TotalMax      *decimal.Decimal `json:"total_max,omitempty"`
}

// recentOrderWindow is the rolling lookback used by the recentOrders query
// and, through it, the reminder job.
const recentOrderWindow = 7 * 24 * time.Hour

// CreateOrder validates the customer and product references, persists the
// order, attaches the products, and then recomputes the stored total exactly
// once from the attached product prices. The whole sequence runs in one
// transaction so a partially attached order is never visible.
func CreateOrder(ctx context.Context, db *sql.DB, input OrderInput) (*models.Order, error) {
	var order *models.Order

	err := database.WithRetry(ctx, db, database.TxOptions{
		IsolationLevel: sql.LevelSerializable,
		MaxRetries:     3,
	}, func(tx *sql.Tx) error {
		var exists bool
		err := tx.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM customers WHERE id = $1)",
			input.CustomerID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check customer exists: %w", err)
		}
		if !exists {
			return database.ErrCustomerNotFound
		}

		if len(input.ProductIDs) == 0 {
			return database.ErrEmptyProductList
		}

		// Strict reference check: every requested id must resolve.
		var resolved int
		err = tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM products WHERE id = ANY($1)",
			pq.Array(input.ProductIDs)).Scan(&resolved)
		if err != nil {
			return fmt.Errorf("resolve products: %w", err)
		}
		if resolved != len(input.ProductIDs) {
			return database.ErrProductNotFound
		}

		var orderID int64
		var orderDate time.Time
		err = tx.QueryRowContext(ctx,
			`INSERT INTO orders (customer_id, total_amount, order_date)
			 VALUES ($1, 0, COALESCE($2, NOW()))
			 RETURNING id, order_date`,
			input.CustomerID, input.OrderDate).Scan(&orderID, &orderDate)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		for _, productID := range input.ProductIDs {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO order_products (order_id, product_id) VALUES ($1, $2)`,
				orderID, productID)
			if err != nil {
				return fmt.Errorf("attach product %d: %w", productID, err)
			}
		}

		total, err := RecomputeTotal(ctx, tx, orderID)
		if err != nil {
			return err
		}

		products, err := orderProducts(ctx, tx, orderID)
		if err != nil {
			return err
		}

		order = &models.Order{
			ID:          orderID,
			CustomerID:  input.CustomerID,
			TotalAmount: total,
			OrderDate:   orderDate,
			Products:    products,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

// RecomputeTotal sets the order's total_amount to the sum of its attached
// product prices and returns the new total. Callers invoke it exactly once,
// after the product attachment step.
func RecomputeTotal(ctx context.Context, tx *sql.Tx, orderID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := tx.QueryRowContext(ctx,
		`UPDATE orders
		 SET total_amount = (
		 	SELECT COALESCE(SUM(p.price), 0)
		 	FROM order_products op
		 	JOIN products p ON p.id = op.product_id
		 	WHERE op.order_id = $1
		 )
		 WHERE id = $1
		 RETURNING total_amount`,
		orderID).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("recompute order total: %w", err)
	}
	return total, nil
}

func orderProducts(ctx context.Context, tx *sql.Tx, orderID int64) ([]models.Product, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT p.id, p.name, p.price, p.stock, p.created_at
		 FROM order_products op
		 JOIN products p ON p.id = op.product_id
		 WHERE op.order_id = $1
		 ORDER BY p.id`,
		orderID)
	if err != nil {
		return nil, fmt.Errorf("get order products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var product models.Product
		err := rows.Scan(
			&product.ID,
			&product.Name,
			&product.Price,
			&product.Stock,
			&product.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order product: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return products, nil
}

func GetOrder(ctx context.Context, db *sql.DB, id int64) (*models.Order, error) {
	order := &models.Order{}

	err := db.QueryRowContext(ctx,
		`SELECT id, customer_id, total_amount, order_date FROM orders WHERE id = $1`,
		id).Scan(
		&order.ID,
		&order.CustomerID,
		&order.TotalAmount,
		&order.OrderDate,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT p.id, p.name, p.price, p.stock, p.created_at
		 FROM order_products op
		 JOIN products p ON p.id = op.product_id
		 WHERE op.order_id = $1
		 ORDER BY p.id`,
		id)
	if err != nil {
		return nil, fmt.Errorf("get order products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var product models.Product
		err := rows.Scan(
			&product.ID,
			&product.Name,
			&product.Price,
			&product.Stock,
			&product.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order product: %w", err)
		}
		order.Products = append(order.Products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return order, nil
}

func ListOrders(ctx context.Context, db *sql.DB, filter OrderFilter) ([]models.Order, error) {
	var conditions []string
	var args []interface{}

	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		conditions = append(conditions, fmt.Sprintf("o.customer_id = $%d", len(args)))
	}
	if filter.OrderDateFrom != nil {
		args = append(args, *filter.OrderDateFrom)
		conditions = append(conditions, fmt.Sprintf("o.order_date >= $%d", len(args)))
	}
	if filter.OrderDateTo != nil {
		args = append(args, *filter.OrderDateTo)
		conditions = append(conditions, fmt.Sprintf("o.order_date <= $%d", len(args)))
	}
	if filter.TotalMin != nil {
		args = append(args, *filter.TotalMin)
		conditions = append(conditions, fmt.Sprintf("o.total_amount >= $%d", len(args)))
	}
	if filter.TotalMax != nil {
		args = append(args, *filter.TotalMax)
		conditions = append(conditions, fmt.Sprintf("o.total_amount <= $%d", len(args)))
	}

	query := `
		SELECT o.id, o.customer_id, o.total_amount, o.order_date, c.email
		FROM orders o
		JOIN customers c ON c.id = o.customer_id`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY o.id"

	return scanOrders(ctx, db, query, args...)
}

// RecentOrders returns orders placed within the rolling seven-day window,
// with the customer email joined in for the reminder job.
func RecentOrders(ctx context.Context, db *sql.DB) ([]models.Order, error) {
	query := `
		SELECT o.id, o.customer_id, o.total_amount, o.order_date, c.email
		FROM orders o
		JOIN customers c ON c.id = o.customer_id
		WHERE o.order_date >= $1
		ORDER BY o.order_date DESC, o.id DESC`

	return scanOrders(ctx, db, query, time.Now().Add(-recentOrderWindow))
}

func scanOrders(ctx context.Context, db *sql.DB, query string, args ...interface{}) ([]models.Order, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var order models.Order
		err := rows.Scan(
			&order.ID,
			&order.CustomerID,
			&order.TotalAmount,
			&order.OrderDate,
			&order.CustomerEmail,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return orders, nil
}
