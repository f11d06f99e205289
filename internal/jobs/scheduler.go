package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	cronlib "github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	// MaxInterval is the longest tick interval that still observes every
	// matching minute.
	MaxInterval = 60 * time.Second
	// DefaultBootDelay lets the HTTP server come up before the first tick.
	DefaultBootDelay = 5 * time.Second
)

// Runner is the unit of work the scheduler fires.
type Runner interface {
	RunOnce(ctx context.Context) Result
	RecordManualTrigger(ctx context.Context, source string)
}

// FailureReporter is told about ticks that ended with errors.
type FailureReporter interface {
	ReportFailures(ctx context.Context, trigger string, res Result) error
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithInterval sets the tick interval. Values above MaxInterval are clamped.
func WithInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) { s.interval = d }
}

// WithBootDelay sets the grace period before the first tick.
func WithBootDelay(d time.Duration) SchedulerOption {
	return func(s *Scheduler) { s.bootDelay = d }
}

// WithFailureReporter sets who is told about ticks with errors.
func WithFailureReporter(r FailureReporter) SchedulerOption {
	return func(s *Scheduler) { s.reporter = r }
}

// Scheduler owns the process-wide repeating timer. Start is effective once;
// later calls are no-ops.
type Scheduler struct {
	runner    Runner
	reporter  FailureReporter
	logger    *zap.Logger
	interval  time.Duration
	bootDelay time.Duration

	cron      *cronlib.Cron
	startOnce sync.Once
	stopOnce  sync.Once

	mu      sync.Mutex
	boot    *time.Timer
	started bool
	stopped bool
}

func NewScheduler(runner Runner, logger *zap.Logger, opts ...SchedulerOption) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scheduler{
		runner:    runner,
		logger:    logger,
		interval:  MaxInterval,
		bootDelay: DefaultBootDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.interval <= 0 || s.interval > MaxInterval {
		logger.Warn("tick interval out of range, using maximum",
			zap.Duration("requested", s.interval),
			zap.Duration("interval", MaxInterval),
		)
		s.interval = MaxInterval
	}
	if s.bootDelay < 0 {
		s.bootDelay = 0
	}
	s.cron = cronlib.New(cronlib.WithLogger(cronLogger{logger.Sugar()}))
	return s
}

// Start arms the boot timer. After the boot delay one tick runs immediately
// and then every interval until Stop.
func (s *Scheduler) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.stopped {
			return
		}
		s.boot = time.AfterFunc(s.bootDelay, func() { s.begin(ctx) })
		s.logger.Info("cron scheduler registered",
			zap.Duration("boot_delay", s.bootDelay),
			zap.Duration("interval", s.interval),
		)
	})
}

func (s *Scheduler) begin(ctx context.Context) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.cron.Schedule(cronlib.Every(s.interval), cronlib.FuncJob(func() {
		s.run(ctx, "scheduled")
	}))
	s.cron.Start()
	s.started = true
	s.mu.Unlock()

	s.logger.Info("cron scheduler started", zap.Duration("interval", s.interval))
	s.run(ctx, "scheduled")
}

// Stop cancels a pending boot timer and stops the repeating timer, waiting
// for a running tick to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true
		if s.boot != nil {
			s.boot.Stop()
		}
		started := s.started
		s.started = false
		s.mu.Unlock()

		if !started {
			return
		}
		select {
		case <-s.cron.Stop().Done():
		case <-ctx.Done():
		}
		s.logger.Info("cron scheduler stopped")
	})
}

// Started reports whether the repeating timer is running.
func (s *Scheduler) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// Trigger runs one tick on demand with the same semantics as a periodic one.
// It is not serialized against the periodic timer. An error is returned only
// when the run itself aborted.
func (s *Scheduler) Trigger(ctx context.Context, source string) (Result, error) {
	s.runner.RecordManualTrigger(ctx, source)
	return s.run(ctx, "manual")
}

func (s *Scheduler) run(ctx context.Context, trigger string) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("cron run panicked", zap.String("trigger", trigger), zap.Any("panic", r))
			err = fmt.Errorf("cron run aborted: %v", r)
		}
	}()

	res = s.runner.RunOnce(ctx)
	if res.Errors > 0 && s.reporter != nil {
		if err := s.reporter.ReportFailures(ctx, trigger, res); err != nil {
			s.logger.Warn("failed to report cron failures", zap.Error(err))
		}
	}
	return res, nil
}

// cronLogger adapts zap to robfig/cron's logger.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
