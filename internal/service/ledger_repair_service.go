package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-admissions-api/internal/models"
	"github.com/noah-isme/campus-admissions-api/internal/workflow"
	"github.com/noah-isme/campus-admissions-api/pkg/jobs"
)

const ledgerRepairKind = "ledger_repair"

type stepRepairStore interface {
	ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.EnrollmentStep, error)
	InsertMissing(ctx context.Context, steps []models.EnrollmentStep) error
}

// LedgerRepairConfig sizes the repair worker pool.
type LedgerRepairConfig struct {
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

// LedgerRepairService reseeds step ledgers that lost entries. Repairs run on
// a background queue so reads never block on them.
type LedgerRepairService struct {
	steps   stepRepairStore
	queue   *jobs.Queue
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewLedgerRepairService constructs the service and its queue. Start must be
// called before scheduled repairs run.
func NewLedgerRepairService(steps stepRepairStore, metrics *MetricsService, logger *zap.Logger, cfg LedgerRepairConfig) *LedgerRepairService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &LedgerRepairService{
		steps:   steps,
		metrics: metrics,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
	s.queue = jobs.NewQueue(ledgerRepairKind, func(ctx context.Context, job jobs.Job) error {
		_, err := s.Repair(ctx, job.Key)
		return err
	}, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the repair workers.
func (s *LedgerRepairService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the repair workers.
func (s *LedgerRepairService) Stop() {
	s.queue.Stop()
}

// Schedule queues a repair for enrollmentID. Duplicate requests coalesce.
func (s *LedgerRepairService) Schedule(enrollmentID string) {
	if s == nil {
		return
	}
	accepted, err := s.queue.Enqueue(jobs.Job{Key: enrollmentID, Kind: ledgerRepairKind})
	if err != nil {
		s.logger.Warn("failed to schedule ledger repair", zap.String("enrollment_id", enrollmentID), zap.Error(err))
		return
	}
	if accepted {
		s.logger.Info("ledger repair scheduled", zap.String("enrollment_id", enrollmentID))
	}
}

// Repair inserts the missing ledger entries and returns how many were added.
func (s *LedgerRepairService) Repair(ctx context.Context, enrollmentID string) (int, error) {
	steps, err := s.steps.ListByEnrollment(ctx, enrollmentID)
	if err != nil {
		s.metrics.RecordLedgerRepair("error")
		return 0, fmt.Errorf("load ledger %s: %w", enrollmentID, err)
	}
	missing := workflow.MissingStages(steps)
	if len(missing) == 0 {
		s.metrics.RecordLedgerRepair("noop")
		return 0, nil
	}

	seed := workflow.NewLedger(enrollmentID, s.now())
	entries := make([]models.EnrollmentStep, 0, len(missing))
	for _, n := range missing {
		entries = append(entries, seed[n-workflow.FirstStage])
	}
	if err := s.steps.InsertMissing(ctx, entries); err != nil {
		s.metrics.RecordLedgerRepair("error")
		return 0, fmt.Errorf("repair ledger %s: %w", enrollmentID, err)
	}
	s.metrics.RecordLedgerRepair("repaired")
	s.logger.Info("ledger repaired", zap.String("enrollment_id", enrollmentID), zap.Ints("steps", missing))
	return len(entries), nil
}
