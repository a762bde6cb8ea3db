package scheduler

import (
	"context"
	"time"

	"go-timeclock/internal/reminder"
	"go-timeclock/internal/shift"

	"go.uber.org/zap"
)

type ReminderRunner interface {
	RunReminderTick(ctx context.Context, now time.Time) (reminder.TickResult, error)
	RunWeeklySummaryTick(ctx context.Context, now time.Time) (reminder.TickResult, error)
}

type StaleSweeper interface {
	MarkStale(ctx context.Context, now time.Time, threshold time.Duration) (shift.SweepResult, error)
}

type RequestExpirer interface {
	ExpirePending(ctx context.Context, now time.Time, maxAge time.Duration) (int64, error)
}

type Specs struct {
	ReminderTick   string
	WeeklySummary  string
	StaleSweep     string
	CheckInExpiry  string
	StaleThreshold time.Duration
	CheckInMaxAge  time.Duration
}

func DefaultSpecs() Specs {
	return Specs{
		ReminderTick:  "* * * * *",
		WeeklySummary: "0 * * * *",
		StaleSweep:    "0 * * * *",
		CheckInExpiry: "*/30 * * * *",
	}
}

// Timeclock builds the four periodic jobs of the worker. Empty specs fall back to
// DefaultSpecs.
func Timeclock(specs Specs, reminders ReminderRunner, shifts StaleSweeper, requests RequestExpirer, logger *zap.Logger) []Job {
	if logger == nil {
		logger = zap.L()
	}
	def := DefaultSpecs()
	pick := func(v, d string) string {
		if v == "" {
			return d
		}
		return v
	}

	ticks := func(name string, run func(context.Context, time.Time) (reminder.TickResult, error)) func(context.Context, time.Time) error {
		return func(ctx context.Context, now time.Time) error {
			res, err := run(ctx, now)
			if err != nil {
				return err
			}
			logger.Info(name+" tick done",
				zap.Int("processed", res.Processed),
				zap.Int("sent", res.Sent),
				zap.Int("skipped", res.Skipped),
				zap.Int("errors", res.Errors),
			)
			return nil
		}
	}

	return []Job{
		{
			Name:    "reminder_tick",
			Spec:    pick(specs.ReminderTick, def.ReminderTick),
			Timeout: 50 * time.Second,
			Run:     ticks("reminder", reminders.RunReminderTick),
		},
		{
			Name:    "weekly_summary",
			Spec:    pick(specs.WeeklySummary, def.WeeklySummary),
			Timeout: 10 * time.Minute,
			Run:     ticks("weekly summary", reminders.RunWeeklySummaryTick),
		},
		{
			Name:    "stale_sweep",
			Spec:    pick(specs.StaleSweep, def.StaleSweep),
			Timeout: 10 * time.Minute,
			Run: func(ctx context.Context, now time.Time) error {
				res, err := shifts.MarkStale(ctx, now, specs.StaleThreshold)
				if err != nil {
					return err
				}
				logger.Info("stale sweep done",
					zap.Int("processed", res.Processed),
					zap.Int("marked", res.Marked),
					zap.Int("errors", res.Errors),
				)
				return nil
			},
		},
		{
			Name:    "checkin_request_expiry",
			Spec:    pick(specs.CheckInExpiry, def.CheckInExpiry),
			Timeout: 5 * time.Minute,
			Run: func(ctx context.Context, now time.Time) error {
				n, err := requests.ExpirePending(ctx, now, specs.CheckInMaxAge)
				if err != nil {
					return err
				}
				if n > 0 {
					logger.Info("check-in requests expired", zap.Int64("count", n))
				}
				return nil
			},
		},
	}
}
