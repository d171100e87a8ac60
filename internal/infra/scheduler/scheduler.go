package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Job is the minimal interface the scheduler needs. RunOnce returns how many
// items it touched, for logging.
type Job interface {
	RunOnce(ctx context.Context) (int, error)
}

// JobFunc adapts a plain function to Job.
type JobFunc func(ctx context.Context) (int, error)

func (f JobFunc) RunOnce(ctx context.Context) (int, error) { return f(ctx) }

// Scheduler periodically runs a Job.
type Scheduler struct {
	name     string
	interval time.Duration
	timeout  time.Duration
	job      Job
	log      *zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler runs job every interval. If interval <= 0 it defaults to 1 minute.
func NewScheduler(name string, interval time.Duration, job Job, logger *zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	l := logger.With().Str("job", name).Logger()
	return &Scheduler{
		name:     name,
		interval: interval,
		timeout:  30 * time.Second,
		job:      job,
		log:      &l,
		done:     make(chan struct{}),
	}
}

// Start begins the loop in a background goroutine. Calling Start twice has no effect.
func (s *Scheduler) Start(parentCtx context.Context) {
	if s.ctx != nil {
		return
	}
	ctx, cancel := context.WithCancel(parentCtx)
	s.ctx = ctx
	s.cancel = cancel

	go s.loop()
}

func (s *Scheduler) loop() {
	ticker := time.NewTicker(s.interval)
	defer func() {
		ticker.Stop()
		close(s.done)
	}()

	s.log.Info().Dur("interval", s.interval).Msg("scheduler started")
	for {
		select {
		case <-s.ctx.Done():
			s.log.Debug().Msg("scheduler context cancelled")
			return
		case <-ticker.C:
			s.runOnce()
		}
	}
}

func (s *Scheduler) runOnce() {
	runCtx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()
	n, err := s.job.RunOnce(runCtx)
	if err != nil {
		s.log.Error().Err(err).Msg("scheduled job failed")
		return
	}
	if n > 0 {
		s.log.Info().Int("count", n).Msg("scheduled job done")
	}
}

// Stop cancels the loop and waits for it to finish. It is idempotent.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.ctx = nil
	s.cancel = nil
	s.done = make(chan struct{})
	s.log.Info().Msg("scheduler stopped")
}
