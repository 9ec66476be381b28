package service

import (
	"context"
	"fmt"

	"forex-sentiment-analyzer/internal/analyzer/dto"
	"forex-sentiment-analyzer/internal/analyzer/notifier"
	"forex-sentiment-analyzer/internal/analyzer/repository"
	"forex-sentiment-analyzer/pkg/logger"

	"github.com/jonboulle/clockwork"
)

const (
	// healthRunWindow is how many recent collection runs the check examines.
	healthRunWindow = 10

	// minSuccessRate is the success fraction below which the pipeline is
	// considered degraded.
	minSuccessRate = 0.5

	// maxRunStalenessHours flags a pipeline whose last run is older than this.
	maxRunStalenessHours = 8.0
)

// MonitorService evaluates collection-pipeline health and alerts operators
// when it degrades.
type MonitorService interface {
	CheckHealth(ctx context.Context) (dto.HealthReport, error)
	RunHealthCheck(ctx context.Context) error
}

// NewMonitorService creates a pipeline health monitor. alerter may be nil to
// disable alert delivery.
func NewMonitorService(
	runRepo repository.CollectionRunRepository,
	auditRepo repository.AuditFailureRepository,
	alerter notifier.Notifier,
	log *logger.Logger,
	clock clockwork.Clock,
) MonitorService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &monitorService{
		runRepo:   runRepo,
		auditRepo: auditRepo,
		alerter:   alerter,
		logger:    log,
		clock:     clock,
	}
}

type monitorService struct {
	runRepo   repository.CollectionRunRepository
	auditRepo repository.AuditFailureRepository
	alerter   notifier.Notifier
	logger    *logger.Logger
	clock     clockwork.Clock
}

// CheckHealth inspects the most recent collection runs and unresolved parse
// failures and classifies the pipeline as healthy or degraded.
func (s *monitorService) CheckHealth(ctx context.Context) (dto.HealthReport, error) {
	report := dto.HealthReport{Healthy: true}

	runs, err := s.runRepo.FindRecent(ctx, healthRunWindow)
	if err != nil {
		return report, fmt.Errorf("failed to query collection runs: %w", err)
	}
	report.RunsExamined = len(runs)

	if len(runs) == 0 {
		report.Healthy = false
		report.Issues = append(report.Issues, "no collection runs recorded yet")
	} else {
		succeeded := 0
		for _, run := range runs {
			if run.Success {
				succeeded++
			}
		}
		report.SuccessRate = float64(succeeded) / float64(len(runs))
		if report.SuccessRate < minSuccessRate {
			report.Healthy = false
			report.Issues = append(report.Issues,
				fmt.Sprintf("success rate %.0f%% below %.0f%%", report.SuccessRate*100, minSuccessRate*100))
		}

		hours := s.clock.Now().UTC().Sub(runs[0].CreatedAt).Hours()
		report.HoursSinceLastRun = &hours
		if hours > maxRunStalenessHours {
			report.Healthy = false
			report.Issues = append(report.Issues,
				fmt.Sprintf("last run %.1f hours ago exceeds %.0f hour limit", hours, maxRunStalenessHours))
		}
	}

	failures, err := s.auditRepo.FindUnresolved(ctx, 100)
	if err != nil {
		return report, fmt.Errorf("failed to query audit failures: %w", err)
	}
	report.UnresolvedParseFailures = len(failures)

	return report, nil
}

// RunHealthCheck evaluates health and dispatches an alert when degraded.
func (s *monitorService) RunHealthCheck(ctx context.Context) error {
	report, err := s.CheckHealth(ctx)
	if err != nil {
		return err
	}

	if report.Healthy {
		s.logger.Info("Collection pipeline healthy",
			logger.Field("success_rate", report.SuccessRate),
			logger.IntField("runs_examined", report.RunsExamined))
		return nil
	}

	s.logger.Warn("Collection pipeline degraded",
		logger.Field("issues", report.Issues))
	if s.alerter != nil {
		return s.alerter.Send(ctx, notifier.FormatHealthAlert(report))
	}
	return nil
}
