// Package crmclient is a thin HTTP client for the CRM operation endpoint,
// used by the scheduled jobs.
package crmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/safar/go-crm-backend/internal/models"
)

type Client struct {
	endpoint   string
	httpClient *http.Client
}

func New(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type operationDocument struct {
	Operation string      `json:"operation"`
	Input     interface{} `json:"input,omitempty"`
}

type operationResult struct {
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
	Errors  []string        `json:"errors,omitempty"`
}

// RecentOrders returns the orders placed within the server's rolling
// seven-day window, customer email included.
func (c *Client) RecentOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := c.execute(ctx, "recentOrders", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// CRMReport returns the aggregate customer/order/revenue report.
func (c *Client) CRMReport(ctx context.Context) (*models.CRMReport, error) {
	var report models.CRMReport
	if err := c.execute(ctx, "crmReport", nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (c *Client) execute(ctx context.Context, operation string, input, out interface{}) error {
	body, err := json.Marshal(operationDocument{Operation: operation, Input: input})
	if err != nil {
		return fmt.Errorf("marshal operation: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute %s: %w", operation, err)
	}
	defer resp.Body.Close()

	var result operationResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}

	if len(result.Errors) > 0 {
		return fmt.Errorf("%s failed: %s", operation, strings.Join(result.Errors, "; "))
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s failed: unexpected status %d", operation, resp.StatusCode)
	}

	if out != nil && len(result.Data) > 0 {
		if err := json.Unmarshal(result.Data, out); err != nil {
			return fmt.Errorf("decode %s data: %w", operation, err)
		}
	}
	return nil
}
