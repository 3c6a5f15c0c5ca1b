// Package jobs runs periodic maintenance work on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"anoa.com/housecup/internal/logger"
)

// Job is a named unit of background work.
type Job interface {
	Name() string
	// Schedule is a cron spec. An empty schedule registers the job for
	// on-demand runs only.
	Schedule() string
	Run(ctx context.Context) error
}

// Scheduler owns the cron runner and the registered jobs.
type Scheduler struct {
	cron    *cron.Cron
	jobs    []Job
	timeout time.Duration
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewScheduler builds a scheduler whose runs are each bounded by timeout.
// Overlapping runs of the same job are skipped.
func NewScheduler(timeout time.Duration) *Scheduler {
	cl := cronLogger{log: logger.Default().Sugar()}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		timeout: timeout,
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (s *Scheduler) Register(job Job) error {
	s.jobs = append(s.jobs, job)

	schedule := job.Schedule()
	if schedule == "" {
		logger.Info("job registered for on-demand runs", zap.String("job", job.Name()))
		return nil
	}

	if _, err := s.cron.AddFunc(schedule, func() { _ = s.execute(s.ctx, job) }); err != nil {
		return fmt.Errorf("schedule job %s (%q): %w", job.Name(), schedule, err)
	}
	logger.Info("job scheduled", zap.String("job", job.Name()), zap.String("schedule", schedule))
	return nil
}

func (s *Scheduler) execute(parent context.Context, job Job) error {
	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()

	started := time.Now()
	if err := job.Run(ctx); err != nil {
		logger.Error(err, zap.String("job", job.Name()), zap.Duration("took", time.Since(started)))
		return err
	}
	logger.Debug("job completed", zap.String("job", job.Name()), zap.Duration("took", time.Since(started)))
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Info("job scheduler started", zap.Int("jobs", len(s.jobs)))
}

// Stop cancels running jobs and waits for them to return or for ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	s.cancel()
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		logger.Warn("job scheduler stop timed out")
	}
}

// RunByName runs a registered job immediately.
func (s *Scheduler) RunByName(ctx context.Context, name string) error {
	for _, job := range s.jobs {
		if job.Name() == name {
			return s.execute(ctx, job)
		}
	}
	return fmt.Errorf("job %q is not registered", name)
}

func (s *Scheduler) Names() []string {
	names := make([]string, len(s.jobs))
	for i, job := range s.jobs {
		names[i] = job.Name()
	}
	return names
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
