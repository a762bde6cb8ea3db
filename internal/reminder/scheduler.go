package reminder

import (
	"context"
	"errors"
	"sync"
	"time"

	"go-timeclock/internal/employee"
	"go-timeclock/internal/notification"
	"go-timeclock/internal/organization"
	"go-timeclock/internal/schedule"
	"go-timeclock/internal/shared/lock"
	"go-timeclock/internal/shift"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type OrganizationSource interface {
	FindAllActive(ctx context.Context) ([]organization.Organization, error)
}

type ShiftSource interface {
	FindOpenByOrganization(ctx context.Context, organizationID string) ([]shift.Shift, error)
	FindCompletedInRange(ctx context.Context, organizationID string, from, to time.Time) ([]shift.Shift, error)
}

type Notifier interface {
	Send(ctx context.Context, reqs []notification.Request) (notification.Result, error)
}

// TickResult counts one tick. Processed is every reminder whose window was open;
// each of those ends up sent, skipped, or as an error.
type TickResult struct {
	Processed int
	Sent      int
	Skipped   int
	Errors    int
}

func (r *TickResult) add(o TickResult) {
	r.Processed += o.Processed
	r.Sent += o.Sent
	r.Skipped += o.Skipped
	r.Errors += o.Errors
}

type Deps struct {
	Organizations OrganizationSource
	Zones         organization.Locator
	Employees     employee.Repository
	Resolver      schedule.Resolver
	Shifts        ShiftSource
	Ledger        Ledger
	Notifier      Notifier
	// Locker is optional. Without it every worker processes every organization and
	// the ledger alone prevents duplicates.
	Locker lock.Locker
}

type Config struct {
	Parallelism int
	LeaseTTL    time.Duration
}

type Scheduler struct {
	deps   Deps
	cfg    Config
	logger *zap.Logger
}

func NewScheduler(deps Deps, cfg Config, logger ...*zap.Logger) *Scheduler {
	l := zap.L().Named("reminder.scheduler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("reminder.scheduler")
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 4
	}
	if cfg.LeaseTTL <= 0 {
		cfg.LeaseTTL = 55 * time.Second
	}
	return &Scheduler{deps: deps, cfg: cfg, logger: l}
}

type orgFunc func(ctx context.Context, org organization.Organization, now time.Time, loc *time.Location) TickResult

// RunReminderTick sends the clock-in, late and clock-out reminders due at now.
func (s *Scheduler) RunReminderTick(ctx context.Context, now time.Time) (TickResult, error) {
	return s.forEachOrg(ctx, "reminder", now, s.remindOrg)
}

// RunWeeklySummaryTick sends last week's totals during the first day of each
// organization's week.
func (s *Scheduler) RunWeeklySummaryTick(ctx context.Context, now time.Time) (TickResult, error) {
	return s.forEachOrg(ctx, "weekly_summary", now, s.summarizeOrg)
}

func (s *Scheduler) forEachOrg(ctx context.Context, tick string, now time.Time, fn orgFunc) (TickResult, error) {
	started := time.Now()
	orgs, err := s.deps.Organizations.FindAllActive(ctx)
	if err != nil {
		s.logger.Error("tick: list organizations failed", zap.String("tick", tick), zap.Error(err))
		return TickResult{}, err
	}

	var (
		mu    sync.Mutex
		total TickResult
		g     errgroup.Group
	)
	g.SetLimit(s.cfg.Parallelism)
	for _, org := range orgs {
		org := org
		g.Go(func() error {
			res := s.runOrg(ctx, tick, org, now.UTC(), fn)
			mu.Lock()
			total.add(res)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Info("tick finished",
		zap.String("tick", tick),
		zap.Time("now", now.UTC()),
		zap.Int("organizations", len(orgs)),
		zap.Int("processed", total.Processed),
		zap.Int("sent", total.Sent),
		zap.Int("skipped", total.Skipped),
		zap.Int("errors", total.Errors),
		zap.Duration("elapsed", time.Since(started)),
	)
	return total, nil
}

func (s *Scheduler) runOrg(ctx context.Context, tick string, org organization.Organization, now time.Time, fn orgFunc) TickResult {
	log := s.logger.With(zap.String("tick", tick), zap.String("organization_id", org.ID.String()))

	if s.deps.Locker != nil {
		lease, err := s.deps.Locker.Acquire(ctx, tick+":"+org.ID.String(), s.cfg.LeaseTTL)
		switch {
		case errors.Is(err, lock.ErrNotAcquired):
			log.Debug("organization leased by another worker")
			return TickResult{}
		case err != nil:
			log.Warn("lease unavailable; continuing on ledger guard", zap.Error(err))
		default:
			defer func() {
				if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
					log.Warn("lease release failed", zap.Error(err))
				}
			}()
		}
	}

	loc, err := s.deps.Zones.ZoneOf(org)
	if err != nil {
		log.Error("organization timezone invalid", zap.String("timezone", org.Timezone), zap.Error(err))
		return TickResult{Errors: 1}
	}
	return fn(ctx, org, now, loc)
}

// deliver claims key and sends reqs. The ledger row ends sent or failed.
func (s *Scheduler) deliver(ctx context.Context, org organization.Organization, key Key, scheduledFor time.Time, reqs []notification.Request) TickResult {
	log := s.logger.With(
		zap.String("employee_id", key.EmployeeID.String()),
		zap.String("subtype", string(key.Subtype)),
		zap.String("date", key.Date.Format("2006-01-02")),
	)

	id, claimed, err := s.deps.Ledger.Claim(ctx, org.ID, key, scheduledFor)
	if err != nil {
		log.Error("ledger claim failed", zap.Error(err))
		return TickResult{Errors: 1}
	}
	if !claimed {
		return TickResult{Skipped: 1}
	}

	if _, err := s.deps.Notifier.Send(ctx, reqs); err != nil {
		log.Error("reminder delivery failed", zap.Error(err))
		if markErr := s.deps.Ledger.MarkFailed(ctx, id, err.Error()); markErr != nil {
			log.Error("ledger mark failed", zap.Error(markErr))
		}
		return TickResult{Errors: 1}
	}
	if err := s.deps.Ledger.MarkSent(ctx, id); err != nil {
		log.Error("ledger mark sent failed", zap.Error(err))
	}
	log.Debug("reminder sent", zap.Int("recipients", len(reqs)))
	return TickResult{Sent: 1}
}
