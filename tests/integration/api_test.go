package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/safar/go-crm-backend/internal/api"
	"github.com/safar/go-crm-backend/internal/crmclient"
	"github.com/safar/go-crm-backend/internal/jobs"
	"github.com/safar/go-crm-backend/internal/store"
	"github.com/shopspring/decimal"
)

func startAPIServer(t *testing.T, db *sql.DB) (*httptest.Server, string) {
	t.Helper()

	mux := http.NewServeMux()
	mux.Handle("/graphql", api.NewHandler(db))
	srv := httptest.NewServer(api.RequestID(mux))
	t.Cleanup(srv.Close)

	return srv, srv.URL + "/graphql"
}

func postDocument(t *testing.T, endpoint, body string) (int, api.OperationResponse) {
	t.Helper()

	resp, err := http.Post(endpoint, "application/json", bytes.NewReader([]byte(body)))
	if err != nil {
		t.Fatalf("Post operation: %v", err)
	}
	defer resp.Body.Close()

	var result api.OperationResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Decode response: %v", err)
	}
	return resp.StatusCode, result
}

func TestAPIEndToEnd(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	_, endpoint := startAPIServer(t, db)

	status, resp := postDocument(t, endpoint,
		`{"operation": "createCustomer", "input": {"name": "Alice", "email": "alice@example.com"}}`)
	if status != http.StatusOK {
		t.Fatalf("Create customer: status %d, errors %v", status, resp.Errors)
	}
	if resp.Message != "Customer created successfully" {
		t.Errorf("Unexpected message: %q", resp.Message)
	}

	status, resp = postDocument(t, endpoint,
		`{"operation": "createCustomer", "input": {"name": "Alice Again", "email": "alice@example.com"}}`)
	if status != http.StatusBadRequest {
		t.Fatalf("Expected 400 for duplicate email, got %d", status)
	}
	if len(resp.Errors) != 1 || !strings.Contains(resp.Errors[0], "email already exists") {
		t.Errorf("Expected duplicate email message, got %v", resp.Errors)
	}

	status, resp = postDocument(t, endpoint,
		`{"operation": "createProduct", "input": {"name": "Widget", "price": "12.50", "stock": 4}}`)
	if status != http.StatusOK {
		t.Fatalf("Create product: status %d, errors %v", status, resp.Errors)
	}

	status, resp = postDocument(t, endpoint,
		`{"operation": "createOrder", "input": {"customer_id": 1, "product_ids": [1]}}`)
	if status != http.StatusOK {
		t.Fatalf("Create order: status %d, errors %v", status, resp.Errors)
	}

	status, resp = postDocument(t, endpoint, `{"operation": "updateLowStockProducts"}`)
	if status != http.StatusOK {
		t.Fatalf("Update low stock: status %d, errors %v", status, resp.Errors)
	}
	if resp.Message != "Updated 1 low stock products" {
		t.Errorf("Unexpected restock message: %q", resp.Message)
	}

	status, resp = postDocument(t, endpoint, `{"operation": "crmReport"}`)
	if status != http.StatusOK {
		t.Fatalf("CRM report: status %d, errors %v", status, resp.Errors)
	}
}

func TestReminderJobEndToEnd(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	customer := createTestCustomer(t, db, "Alice", "alice@example.com")
	product := createTestProduct(t, db, "Product", decimal.NewFromInt(10), 5)
	order, err := store.CreateOrder(ctx, db, store.OrderInput{
		CustomerID: customer.ID,
		ProductIDs: []int64{product.ID},
	})
	if err != nil {
		t.Fatalf("Create order: %v", err)
	}

	_, endpoint := startAPIServer(t, db)

	logPath := filepath.Join(t.TempDir(), "reminders.txt")
	job := jobs.NewReminderJob(crmclient.New(endpoint), logPath)

	// Two runs inside the same window: the order must be logged twice.
	if err := job.Run(ctx); err != nil {
		t.Fatalf("First reminder run: %v", err)
	}
	if err := job.Run(ctx); err != nil {
		t.Fatalf("Second reminder run: %v", err)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Read reminder log: %v", err)
	}

	if got := strings.Count(string(content), "Customer Email: alice@example.com"); got != 2 {
		t.Errorf("Expected order %d logged on both runs, found %d lines", order.ID, got)
	}
}

func TestReportJobEndToEnd(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	_, endpoint := startAPIServer(t, db)

	logPath := filepath.Join(t.TempDir(), "report.txt")
	job := jobs.NewReportJob(crmclient.New(endpoint), logPath)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Report run: %v", err)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Read report log: %v", err)
	}

	if !strings.Contains(string(content), "Report: 0 customers, 0 orders, 0 revenue") {
		t.Errorf("Expected empty-database report line, got: %s", content)
	}
}
