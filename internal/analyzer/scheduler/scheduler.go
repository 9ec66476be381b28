package scheduler

import (
	"context"
	"time"

	analyzercfg "forex-sentiment-analyzer/internal/analyzer/config"
	"forex-sentiment-analyzer/internal/analyzer/notifier"
	"forex-sentiment-analyzer/internal/analyzer/service"
	"forex-sentiment-analyzer/pkg/logger"
	"forex-sentiment-analyzer/pkg/utils"

	"github.com/robfig/cron/v3"
)

// jobTimeout bounds any single scheduled job.
const jobTimeout = 30 * time.Minute

// Scheduler runs the recurring pipeline jobs: calendar scrape, weekly
// analysis, actual-value reconciliation, and the health check.
type Scheduler struct {
	cron      *cron.Cron
	schedules analyzercfg.Schedules
	ingest    service.IngestService
	sentiment service.SentimentService
	reconcile service.ReconcilerService
	monitor   service.MonitorService
	notify    notifier.Notifier
	logger    *logger.Logger
}

func New(
	schedules analyzercfg.Schedules,
	ingest service.IngestService,
	sentiment service.SentimentService,
	reconcile service.ReconcilerService,
	monitor service.MonitorService,
	notify notifier.Notifier,
	log *logger.Logger,
) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithLocation(time.UTC)),
		schedules: schedules,
		ingest:    ingest,
		sentiment: sentiment,
		reconcile: reconcile,
		monitor:   monitor,
		notify:    notify,
		logger:    log,
	}
}

// Start registers all jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	jobs := []struct {
		name string
		spec string
		run  func(ctx context.Context) error
	}{
		{"calendar_scrape", s.schedules.Scrape, s.runScrape},
		{"weekly_analysis", s.schedules.WeeklyAnalysis, s.runWeeklyAnalysis},
		{"actual_collection", s.schedules.ActualCollection, s.runReconciliation},
		{"health_check", s.schedules.HealthCheck, s.runHealthCheck},
	}

	for _, job := range jobs {
		job := job
		_, err := s.cron.AddFunc(job.spec, func() {
			utils.GoSafe(func() {
				ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
				defer cancel()

				s.logger.Info("Running scheduled job", logger.StringField("job", job.name))
				if err := job.run(ctx); err != nil {
					s.logger.Error("Scheduled job failed",
						logger.StringField("job", job.name),
						logger.ErrorField(err))
				}
			})
		})
		if err != nil {
			return err
		}
		s.logger.Info("Registered job",
			logger.StringField("job", job.name),
			logger.StringField("schedule", job.spec))
	}

	s.cron.Start()
	return nil
}

// Stop stops the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runScrape(ctx context.Context) error {
	_, err := s.ingest.IngestCalendar(ctx)
	return err
}

func (s *Scheduler) runWeeklyAnalysis(ctx context.Context) error {
	weekStart, weekEnd := utils.CurrentWeekBounds(time.Now().UTC())
	verdicts, err := s.sentiment.CalculateWeeklySentiments(ctx, weekStart, weekEnd)
	if err != nil {
		return err
	}
	if s.notify == nil {
		return nil
	}
	return s.notify.Send(ctx, notifier.FormatWeeklyVerdicts(
		verdicts, weekStart.Format("2006-01-02"), weekEnd.Format("2006-01-02")))
}

func (s *Scheduler) runReconciliation(ctx context.Context) error {
	_, _, err := s.reconcile.Run(ctx)
	return err
}

func (s *Scheduler) runHealthCheck(ctx context.Context) error {
	return s.monitor.RunHealthCheck(ctx)
}
