package watch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	ferrors "git.home.luguber.info/inful/commentlink/internal/foundation/errors"
	"git.home.luguber.info/inful/commentlink/internal/logfields"
	"git.home.luguber.info/inful/commentlink/internal/scan"
)

// WorkspaceScanner runs a full batch.
type WorkspaceScanner interface {
	ScanWorkspace(ctx context.Context) (*scan.Batch, error)
}

// Scheduler wraps a gocron scheduler running periodic full rescans.
type Scheduler struct {
	scheduler gocron.Scheduler
	scanner   WorkspaceScanner
	onBatch   BatchFunc
	logger    *slog.Logger
}

// NewScheduler creates a scheduler; onBatch and logger may be nil.
func NewScheduler(scanner WorkspaceScanner, onBatch BatchFunc, logger *slog.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryRuntime, "failed to create scheduler").Build()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{scheduler: s, scanner: scanner, onBatch: onBatch, logger: logger}, nil
}

// ScheduleRescan runs a full workspace scan every interval, bound to ctx.
// A run that is still going when the next one is due is not overlapped.
// Returns the job ID.
func (s *Scheduler) ScheduleRescan(ctx context.Context, interval time.Duration, opts ...gocron.JobOption) (string, error) {
	if interval <= 0 {
		return "", ferrors.ValidationError("rescan interval must be positive").
			WithContext("interval", interval.String()).
			Build()
	}
	opts = append([]gocron.JobOption{
		gocron.WithName("workspace-rescan"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}, opts...)
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { s.rescan(ctx) }),
		opts...,
	)
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryRuntime, "failed to create rescan job").Build()
	}
	return job.ID().String(), nil
}

// Start begins running scheduled jobs.
func (s *Scheduler) Start() {
	s.logger.Info("Starting rescan scheduler")
	s.scheduler.Start()
}

// Stop waits for running jobs and shuts the scheduler down.
func (s *Scheduler) Stop() error {
	s.logger.Info("Stopping rescan scheduler")
	return s.scheduler.Shutdown()
}

func (s *Scheduler) rescan(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s.logger.Info("Executing scheduled rescan", logfields.Job("workspace-rescan"))
	batch, err := s.scanner.ScanWorkspace(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("Scheduled rescan failed", logfields.Error(err))
	}
	if s.onBatch != nil {
		s.onBatch(batch, err)
	}
}
