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
	job := jobs.NewReminderJob(client, jobs.ReminderLogPath)

	if err := job.Run(context.Background()); err != nil {
		fmt.Printf("Error processing reminders: %v\n", err)
		return
	}

	fmt.Println("Order reminders processed!")
}
