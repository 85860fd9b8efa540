package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/jsamuelsen/quote-client/internal/platform/config"
)

// Refresher is anything that can refresh the current quote.
type Refresher interface {
	Refresh(ctx context.Context)
}

// RefreshScheduler rotates the quote on a cron schedule.
type RefreshScheduler struct {
	cron     *cron.Cron
	schedule cron.Schedule
	target   Refresher
	spec     string
	logger   *slog.Logger
}

// NewRefreshScheduler parses spec ("@every 10m", "0 * * * *") and returns a
// scheduler that calls target.Refresh on each tick once Run is called.
// A tick that fires while the previous one is still refreshing is skipped.
func NewRefreshScheduler(spec string, target Refresher, logger *slog.Logger) (*RefreshScheduler, error) {
	if target == nil {
		return nil, errors.New("refresh scheduler: target is required")
	}

	schedule, err := config.CronParser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("parsing refresh schedule %q: %w", spec, err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	logger = logger.With(slog.String("component", "app.RefreshScheduler"))
	cronLog := cronLogger{logger: logger}

	c := cron.New(
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	return &RefreshScheduler{
		cron:     c,
		schedule: schedule,
		target:   target,
		spec:     spec,
		logger:   logger,
	}, nil
}

// Run starts the schedule and blocks until ctx is done. Refreshes started by
// the schedule use ctx, so they are cancelled on shutdown. Run waits for a
// running refresh to return before it does.
func (s *RefreshScheduler) Run(ctx context.Context) error {
	s.cron.Schedule(s.schedule, cron.FuncJob(func() {
		s.logger.DebugContext(ctx, "scheduled refresh")
		s.target.Refresh(ctx)
	}))

	s.cron.Start()
	s.logger.InfoContext(ctx, "refresh schedule started", slog.String("schedule", s.spec))

	<-ctx.Done()

	<-s.cron.Stop().Done()

	return nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, slog.Any("error", err))...)
}
