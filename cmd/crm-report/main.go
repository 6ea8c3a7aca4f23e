package main

import (
	"context"
	"fmt"

	"github.com/safar/go-crm-backend/internal/crmclient"
	"github.com/safar/go-crm-backend/internal/jobs"
)

const endpoint = "http://localhost:8080/graphql"

func main() {
	client := crmclient.New(endpoint)
	job := jobs.NewReportJob(client, jobs.ReportLogPath)

	if err := job.Run(context.Background()); err != nil {
		fmt.Printf("Error generating report: %v\n", err)
		return
	}

	fmt.Println("CRM report logged!")
}
