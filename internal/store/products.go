package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/safar/go-crm-backend/internal/database"
	"github.com/safar/go-crm-backend/internal/models"
	"github.com/shopspring/decimal"
)

type ProductInput struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock *int            `json:"stock,omitempty"`
}

type ProductFilter struct {
	Name     string           `json:"name,omitempty"`
	PriceMin *decimal.Decimal `json:"price_min,omitempty"`
	PriceMax *decimal.Decimal `json:"price_max,omitempty"`
	StockMin *int             `json:"stock_min,omitempty"`
	StockMax *int             `json:"stock_max,omitempty"`
}

func CreateProduct(ctx context.Context, db *sql.DB, input ProductInput) (*models.Product, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	stock := 0
	if input.Stock != nil {
		stock = *input.Stock
	}

	product := &models.Product{}

	query := `
		INSERT INTO products (name, price, stock, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, name, price, stock, created_at`

	err := db.QueryRowContext(ctx, query, input.Name, input.Price, stock).Scan(
		&product.ID,
		&product.Name,
		&product.Price,
		&product.Stock,
		&product.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	return product, nil
}

// UpdateLowStockProducts restocks every product below the low-stock threshold
// by ten units inside one transaction. There is no upper bound: this is a
// blunt top-up, not a reorder policy.
func UpdateLowStockProducts(ctx context.Context, db *sql.DB) ([]models.Product, string, error) {
	var updated []models.Product

	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx,
			`SELECT id FROM products WHERE stock < $1 ORDER BY id FOR UPDATE`,
			models.LowStockThreshold)
		if err != nil {
			return fmt.Errorf("select low stock products: %w", err)
		}

		var ids []int64
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("scan product id: %w", err)
			}
			ids = append(ids, id)
		}
		if err := rows.Close(); err != nil {
			return fmt.Errorf("close rows: %w", err)
		}

		for _, id := range ids {
			var product models.Product
			err := tx.QueryRowContext(ctx,
				`UPDATE products
				 SET stock = stock + 10
				 WHERE id = $1
				 RETURNING id, name, price, stock, created_at`,
				id).Scan(
				&product.ID,
				&product.Name,
				&product.Price,
				&product.Stock,
				&product.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("restock product %d: %w", id, err)
			}
			updated = append(updated, product)
		}
		return nil
	})
	if err != nil {
		return nil, "", fmt.Errorf("update low stock products: %w", err)
	}

	message := fmt.Sprintf("Updated %d low stock products", len(updated))
	return updated, message, nil
}

func ListProducts(ctx context.Context, db *sql.DB, filter ProductFilter) ([]models.Product, error) {
	var conditions []string
	var args []interface{}

	if filter.Name != "" {
		args = append(args, "%"+filter.Name+"%")
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if filter.PriceMin != nil {
		args = append(args, *filter.PriceMin)
		conditions = append(conditions, fmt.Sprintf("price >= $%d", len(args)))
	}
	if filter.PriceMax != nil {
		args = append(args, *filter.PriceMax)
		conditions = append(conditions, fmt.Sprintf("price <= $%d", len(args)))
	}
	if filter.StockMin != nil {
		args = append(args, *filter.StockMin)
		conditions = append(conditions, fmt.Sprintf("stock >= $%d", len(args)))
	}
	if filter.StockMax != nil {
		args = append(args, *filter.StockMax)
		conditions = append(conditions, fmt.Sprintf("stock <= $%d", len(args)))
	}

	query := `SELECT id, name, price, stock, created_at FROM products`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
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
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return products, nil
}
