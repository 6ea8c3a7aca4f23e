package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/safar/go-crm-backend/internal/models"
)

// GetCRMReport aggregates customer and order counts plus total revenue.
// Revenue is coalesced to zero so an empty database reports 0, never null.
func GetCRMReport(ctx context.Context, db *sql.DB) (*models.CRMReport, error) {
	report := &models.CRMReport{}

	query := `
		SELECT
			(SELECT COUNT(*) FROM customers),
			(SELECT COUNT(*) FROM orders),
			(SELECT COALESCE(SUM(total_amount), 0) FROM orders)`

	err := db.QueryRowContext(ctx, query).Scan(
		&report.TotalCustomers,
		&report.TotalOrders,
		&report.TotalRevenue,
	)
	if err != nil {
		return nil, fmt.Errorf("get crm report: %w", err)
	}

	return report, nil
}
