package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-timeclock/internal/reminder"
	"go-timeclock/internal/shift"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeReminders struct {
	tickAt   []time.Time
	weeklyAt []time.Time
	err      error
}

func (f *fakeReminders) RunReminderTick(_ context.Context, now time.Time) (reminder.TickResult, error) {
	f.tickAt = append(f.tickAt, now)
	return reminder.TickResult{Processed: 3, Sent: 2, Skipped: 1}, f.err
}

func (f *fakeReminders) RunWeeklySummaryTick(_ context.Context, now time.Time) (reminder.TickResult, error) {
	f.weeklyAt = append(f.weeklyAt, now)
	return reminder.TickResult{}, f.err
}

type fakeSweeper struct {
	threshold time.Duration
}

func (f *fakeSweeper) MarkStale(_ context.Context, _ time.Time, threshold time.Duration) (shift.SweepResult, error) {
	f.threshold = threshold
	return shift.SweepResult{Processed: 1, Marked: 1}, nil
}

type fakeExpirer struct {
	maxAge time.Duration
}

func (f *fakeExpirer) ExpirePending(_ context.Context, _ time.Time, maxAge time.Duration) (int64, error) {
	f.maxAge = maxAge
	return 2, nil
}

func TestAdd(t *testing.T) {
	s := New(zap.NewNop())

	t.Run("valid cron expression", func(t *testing.T) {
		err := s.Add(Job{Name: "ok", Spec: "*/5 * * * *", Run: func(context.Context, time.Time) error { return nil }})
		assert.NoError(t, err)
	})

	t.Run("invalid cron expression", func(t *testing.T) {
		err := s.Add(Job{Name: "bad", Spec: "every minute", Run: func(context.Context, time.Time) error { return nil }})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "bad")
	})

	t.Run("missing run func", func(t *testing.T) {
		assert.Error(t, s.Add(Job{Name: "empty", Spec: "* * * * *"}))
	})

	assert.Len(t, s.cron.Entries(), 1)
}

func TestRunJob_TimeoutAndInstant(t *testing.T) {
	s := New(zap.NewNop())
	fixed := time.Date(2026, 10, 6, 8, 45, 0, 0, time.FixedZone("SGT", 8*3600))
	s.now = func() time.Time { return fixed }

	var (
		gotNow      time.Time
		hasDeadline bool
	)
	s.runJob(Job{
		Name:    "probe",
		Timeout: time.Minute,
		Run: func(ctx context.Context, now time.Time) error {
			gotNow = now
			_, hasDeadline = ctx.Deadline()
			return errors.New("boom")
		},
	})

	assert.True(t, hasDeadline)
	assert.Equal(t, time.UTC, gotNow.Location())
	assert.True(t, gotNow.Equal(fixed))
}

func TestStop_WaitsForRunningJob(t *testing.T) {
	s := New(zap.NewNop())
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	require.NoError(t, s.Add(Job{
		Name: "slow",
		Spec: "@every 1s",
		Run: func(context.Context, time.Time) error {
			select {
			case started <- struct{}{}:
			default:
			}
			<-release
			return nil
		},
	}))
	s.Start()

	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("job never started")
	}

	short, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Stop(short), context.DeadlineExceeded)

	close(release)
	assert.NoError(t, s.Stop(context.Background()))
}

func TestTimeclockJobs(t *testing.T) {
	rem := &fakeReminders{}
	sweeper := &fakeSweeper{}
	expirer := &fakeExpirer{}
	specs := Specs{StaleThreshold: 16 * time.Hour, CheckInMaxAge: 72 * time.Hour, WeeklySummary: "15 * * * *"}

	jobs := Timeclock(specs, rem, sweeper, expirer, zap.NewNop())
	require.Len(t, jobs, 4)

	byName := map[string]Job{}
	for _, j := range jobs {
		byName[j.Name] = j
		assert.Positive(t, j.Timeout, j.Name)
	}
	assert.Equal(t, "* * * * *", byName["reminder_tick"].Spec)
	assert.Equal(t, "15 * * * *", byName["weekly_summary"].Spec)
	assert.Equal(t, "0 * * * *", byName["stale_sweep"].Spec)
	assert.Equal(t, "*/30 * * * *", byName["checkin_request_expiry"].Spec)

	now := time.Date(2026, 10, 6, 0, 45, 0, 0, time.UTC)
	ctx := context.Background()
	require.NoError(t, byName["reminder_tick"].Run(ctx, now))
	require.NoError(t, byName["weekly_summary"].Run(ctx, now))
	require.NoError(t, byName["stale_sweep"].Run(ctx, now))
	require.NoError(t, byName["checkin_request_expiry"].Run(ctx, now))

	assert.Equal(t, []time.Time{now}, rem.tickAt)
	assert.Equal(t, []time.Time{now}, rem.weeklyAt)
	assert.Equal(t, 16*time.Hour, sweeper.threshold)
	assert.Equal(t, 72*time.Hour, expirer.maxAge)

	rem.err = errors.New("db down")
	assert.Error(t, byName["reminder_tick"].Run(ctx, now))

	s := New(zap.NewNop())
	for _, j := range jobs {
		require.NoError(t, s.Add(j))
	}
	assert.Len(t, s.cron.Entries(), 4)
}
