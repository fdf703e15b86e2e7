// Package scheduler triggers engine runs on a cron schedule and tracks
// their outcome for the status endpoint.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"travel-price-watch/internal/domain"
	"travel-price-watch/internal/logging"
	"travel-price-watch/internal/observability"
)

// ErrRunInProgress is returned by Trigger when a run is already executing.
var ErrRunInProgress = errors.New("run already in progress")

// Job executes one engine run.
type Job func(ctx context.Context) (domain.RunSummary, error)

// Options for creating a Scheduler.
type Options struct {
	Spec     string // standard 5-field cron expression
	Timezone string // IANA name, default UTC
	Job      Job

	Metrics *observability.Metrics
	Logger  *zap.Logger
}

// Status is a snapshot of the scheduler state.
type Status struct {
	Running      bool               `json:"running"`
	Runs         int                `json:"runs"`
	FailedRuns   int                `json:"failed_runs"`
	SkippedRuns  int                `json:"skipped_runs"`
	LastStarted  time.Time          `json:"last_started,omitempty"`
	LastFinished time.Time          `json:"last_finished,omitempty"`
	LastSummary  *domain.RunSummary `json:"last_summary,omitempty"`
	LastError    string             `json:"last_error,omitempty"`
	NextRun      time.Time          `json:"next_run,omitempty"`
}

// Scheduler runs Job on a cron schedule. Overlapping runs are skipped:
// only one Job executes at a time.
type Scheduler struct {
	cron    *cron.Cron
	entryID cron.EntryID
	job     Job
	metrics *observability.Metrics
	logger  *zap.Logger

	baseCtx context.Context

	mu     sync.Mutex
	status Status
}

// New creates a scheduler. It does not start until Start is called.
func New(opts Options) (*Scheduler, error) {
	if opts.Job == nil {
		return nil, errors.New("scheduler: job is required")
	}
	tz := opts.Timezone
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}

	s := &Scheduler{
		job:     opts.Job,
		metrics: opts.Metrics,
		logger:  opts.Logger,
		baseCtx: context.Background(),
	}
	s.logger = logging.OrNop(s.logger)

	s.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cronLogger{s.logger.Sugar()})),
	)
	id, err := s.cron.AddFunc(opts.Spec, s.tick)
	if err != nil {
		return nil, fmt.Errorf("add cron %q: %w", opts.Spec, err)
	}
	s.entryID = id
	return s, nil
}

// Start begins cron execution. Scheduled runs and RunNow use ctx; cancelling it
// cancels an in-flight run but does not stop the cron loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.baseCtx = ctx
	s.mu.Unlock()

	s.cron.Start()
	s.logger.Info("scheduler started",
		zap.String("op", "scheduler.Start"),
		zap.Time("next_run", s.cron.Entry(s.entryID).Next),
	)
}

// Stop stops the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped", zap.String("op", "scheduler.Stop"))
}

// Trigger runs the job now unless a run is in progress, in which case it
// returns ErrRunInProgress.
func (s *Scheduler) Trigger(ctx context.Context) (domain.RunSummary, error) {
	s.mu.Lock()
	if s.status.Running {
		s.status.SkippedRuns++
		s.mu.Unlock()
		s.metrics.RecordRun(observability.RunStatusSkipped, 0, time.Time{})
		s.logger.Info("run already in progress, skipping", zap.String("op", "scheduler.Trigger"))
		return domain.RunSummary{}, ErrRunInProgress
	}
	s.status.Running = true
	s.status.LastStarted = time.Now()
	s.mu.Unlock()

	summary, err := s.runJob(ctx)

	s.mu.Lock()
	s.status.Running = false
	s.status.Runs++
	s.status.LastFinished = time.Now()
	if err != nil {
		s.status.FailedRuns++
		s.status.LastError = err.Error()
	} else {
		s.status.LastError = ""
		s.status.LastSummary = &summary
	}
	s.mu.Unlock()

	return summary, err
}

// RunNow triggers a run on the scheduler's context and waits for its
// result while ctx is live. Cancelling ctx abandons the wait, not the run.
func (s *Scheduler) RunNow(ctx context.Context) (domain.RunSummary, error) {
	type result struct {
		summary domain.RunSummary
		err     error
	}
	done := make(chan result, 1)
	base := s.base()
	go func() {
		summary, err := s.Trigger(base)
		done <- result{summary, err}
	}()

	select {
	case r := <-done:
		return r.summary, r.err
	case <-ctx.Done():
		return domain.RunSummary{}, ctx.Err()
	}
}

// runJob calls the job and turns a panic into an error so the running
// flag is always released.
func (s *Scheduler) runJob(ctx context.Context) (summary domain.RunSummary, err error) {
	started := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("run panicked: %v", rec)
			summary = domain.RunSummary{}
			s.metrics.RecordRun(observability.RunStatusFailed, time.Since(started), time.Now())
			s.logger.Error("run panicked",
				zap.String("op", "scheduler.runJob"),
				zap.Any("panic", rec),
				zap.Stack("stack"),
			)
		}
	}()
	return s.job(ctx)
}

// Status returns a snapshot of the scheduler state.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	st := s.status
	s.mu.Unlock()

	if st.LastSummary != nil {
		summary := *st.LastSummary
		st.LastSummary = &summary
	}
	st.NextRun = s.cron.Entry(s.entryID).Next
	return st
}

func (s *Scheduler) base() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseCtx
}

func (s *Scheduler) tick() {
	if _, err := s.Trigger(s.base()); err != nil && !errors.Is(err, ErrRunInProgress) {
		s.logger.Error("scheduled run failed",
			zap.String("op", "scheduler.tick"),
			zap.Error(err),
		)
	}
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Infow(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
