package jobs

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/safar/go-crm-backend/internal/crmclient"
)

// ReportJob appends one aggregate summary line per run. A failed query is
// recorded as an error line in the same file instead of crashing the run.
type ReportJob struct {
	client  *crmclient.Client
	logPath string
}

func NewReportJob(client *crmclient.Client, logPath string) *ReportJob {
	return &ReportJob{client: client, logPath: logPath}
}

func (j *ReportJob) Run(ctx context.Context) error {
	f, err := os.OpenFile(j.logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open report log: %w", err)
	}
	defer f.Close()

	timestamp := time.Now().Format(timestampLayout)

	report, err := j.client.CRMReport(ctx)
	if err != nil {
		if _, wErr := fmt.Fprintf(f, "%s - Error: %v\n", timestamp, err); wErr != nil {
			return fmt.Errorf("write error line: %w", wErr)
		}
		return nil
	}

	_, err = fmt.Fprintf(f, "%s - Report: %d customers, %d orders, %s revenue\n",
		timestamp, report.TotalCustomers, report.TotalOrders, report.TotalRevenue)
	if err != nil {
		return fmt.Errorf("write report line: %w", err)
	}

	return nil
}
