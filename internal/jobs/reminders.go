// Package jobs holds the two scheduled jobs: the order reminder scanner and
// the CRM report generator. Both are stateless single-shot runs that talk to
// the API endpoint over HTTP and append lines to a fixed log file.
package jobs

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/safar/go-crm-backend/internal/crmclient"
)

const (
	ReminderLogPath = "/tmp/order_reminders_log.txt"
	ReportLogPath   = "/tmp/crm_report_log.txt"

	timestampLayout = "2006-01-02 15:04:05"
)

// ReminderJob logs every order from the rolling seven-day window as a
// reminder candidate. It never sends anything, and it does not dedup across
// runs: an order still inside the window is logged again on every run.
type ReminderJob struct {
	client  *crmclient.Client
	logPath string
}

func NewReminderJob(client *crmclient.Client, logPath string) *ReminderJob {
	return &ReminderJob{client: client, logPath: logPath}
}

func (j *ReminderJob) Run(ctx context.Context) error {
	orders, err := j.client.RecentOrders(ctx)
	if err != nil {
		return fmt.Errorf("query recent orders: %w", err)
	}

	f, err := os.OpenFile(j.logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open reminder log: %w", err)
	}
	defer f.Close()

	timestamp := time.Now().Format(timestampLayout)
	for _, order := range orders {
		_, err := fmt.Fprintf(f, "[%s] Order ID: %d, Customer Email: %s\n",
			timestamp, order.ID, order.CustomerEmail)
		if err != nil {
			return fmt.Errorf("write reminder line: %w", err)
		}
	}

	return nil
}
