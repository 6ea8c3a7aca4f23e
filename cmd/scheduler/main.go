// The scheduler daemon runs both CRM jobs on cron schedules. The jobs stay
// independently runnable as single-shot binaries; this process only supplies
// the clock.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/safar/go-crm-backend/internal/config"
	"github.com/safar/go-crm-backend/internal/crmclient"
	"github.com/safar/go-crm-backend/internal/jobs"
)

func main() {
	log := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("load config")
	}

	client := crmclient.New(cfg.Scheduler.APIURL)
	reminderJob := jobs.NewReminderJob(client, jobs.ReminderLogPath)
	reportJob := jobs.NewReportJob(client, jobs.ReportLogPath)

	c := cron.New()

	_, err = c.AddFunc(cfg.Scheduler.ReminderSpec, func() {
		if err := reminderJob.Run(context.Background()); err != nil {
			log.WithError(err).Error("order reminder run failed")
			return
		}
		log.Info("order reminders processed")
	})
	if err != nil {
		log.WithError(err).Fatal("schedule reminder job")
	}

	_, err = c.AddFunc(cfg.Scheduler.ReportSpec, func() {
		if err := reportJob.Run(context.Background()); err != nil {
			log.WithError(err).Error("crm report run failed")
			return
		}
		log.Info("crm report logged")
	})
	if err != nil {
		log.WithError(err).Fatal("schedule report job")
	}

	c.Start()
	log.WithFields(logrus.Fields{
		"reminders": cfg.Scheduler.ReminderSpec,
		"report":    cfg.Scheduler.ReportSpec,
		"endpoint":  cfg.Scheduler.APIURL,
	}).Info("scheduler started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("scheduler stopping")
	<-c.Stop().Done()
}
