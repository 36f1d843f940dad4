package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is a periodic monitoring cycle.
type Job interface {
	Name() string
	Check(ctx context.Context)
}

// Scheduler runs monitoring jobs on fixed intervals. Overlapping runs of
// the same job are skipped, so a slow cycle never stacks up behind itself.
type Scheduler struct {
	cron   *cron.Cron
	logger zerolog.Logger
	ctx    context.Context
}

// NewScheduler creates a scheduler. Jobs registered with Add receive ctx
// on every cycle; cancelling it aborts in-flight work.
func NewScheduler(ctx context.Context, logger zerolog.Logger) *Scheduler {
	cl := cronLogger{logger: logger.With().Str("component", "scheduler").Logger()}
	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cl))),
		logger: logger.With().Str("component", "scheduler").Logger(),
		ctx:    ctx,
	}
}

// Add registers a job to run every interval.
func (s *Scheduler) Add(job Job, interval time.Duration) error {
	spec := fmt.Sprintf("@every %s", interval)
	_, err := s.cron.AddFunc(spec, func() {
		job.Check(s.ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to register %s job: %w", job.Name(), err)
	}
	s.logger.Info().Str("job", job.Name()).Dur("interval", interval).Msg("job registered")
	return nil
}

// Start starts the scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info().Msg("scheduler started")
}

// Stop stops the scheduler and waits for in-flight cycles to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")
}

// cronLogger adapts zerolog to the cron logger interface.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
