package app

import (
	"database/sql"
	"time"

	"go-timeclock/internal/checkinrequest"
	"go-timeclock/internal/config"
	"go-timeclock/internal/employee"
	"go-timeclock/internal/messaging/kafka"
	"go-timeclock/internal/middleware"
	"go-timeclock/internal/notification"
	"go-timeclock/internal/organization"
	"go-timeclock/internal/reminder"
	"go-timeclock/internal/schedule"
	"go-timeclock/internal/shared/lock"
	"go-timeclock/internal/shared/tzcache"
	"go-timeclock/internal/shift"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

const leasePrefix = "timeclock:lease:"

// modules holds every service of the process. The api, worker and consumer
// build the same graph and use the part they need.
type modules struct {
	shifts        shift.Service
	checkIns      checkinrequest.Service
	schedules     schedule.Service
	notifications notification.Service
	reminders     *reminder.Scheduler
}

func shiftPolicy(cfg *config.AppConfig) shift.Policy {
	p := shift.DefaultPolicy()
	p.Break = shift.BreakPolicy{
		ThresholdMinutes: cfg.AutoBreakThresholdHours * 60,
		DeductMinutes:    cfg.AutoBreakMinutes,
	}
	p.StaleThreshold = time.Duration(cfg.StaleThresholdHours) * time.Hour
	p.ForgotNominal = time.Duration(cfg.ForgotNominalMinutes) * time.Minute
	p.MinReasonLength = cfg.MinReasonLength
	p.RevisionWindow = time.Duration(cfg.HistoricalWindowDays) * 24 * time.Hour
	return p
}

func checkInPolicy(cfg *config.AppConfig) checkinrequest.Policy {
	return checkinrequest.Policy{
		MinReasonLength:  cfg.MinReasonLength,
		HistoricalWindow: time.Duration(cfg.HistoricalWindowDays) * 24 * time.Hour,
		MaxPendingAge:    cfg.CheckInRequestMaxAge,
	}
}

func newNotificationService(cfg *config.AppConfig, gormDB *gorm.DB, logger *zap.Logger) notification.Service {
	transport := notification.NewExpoClient(cfg.ExpoPushURL, cfg.ExpoAccessToken, cfg.PushBatchSize)
	return notification.NewService(notification.NewRepository(gormDB), transport, cfg.PushRatePerSecond, logger)
}

// buildModules wires repositories and services. rdb may be nil, in which case
// reminder ticks run without leases.
func buildModules(
	cfg *config.AppConfig,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
	logger *zap.Logger,
) *modules {
	// --- Repositories ---
	employeeRepo := employee.NewRepository(gormDB)
	organizationRepo := organization.NewRepository(gormDB)
	scheduleRepo := schedule.NewRepository(gormDB)
	shiftRepo := shift.NewRepository(gormDB)
	checkInRepo := checkinrequest.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)
	ledger := reminder.NewLedgerRepository(db)

	zones := organization.NewLocator(organizationRepo, tzcache.New())

	// --- Services ---
	notificationService := newNotificationService(cfg, gormDB, logger)
	scheduleService := schedule.NewService(db, scheduleRepo, employeeRepo, logger)
	shiftService := shift.NewService(db, shiftRepo, employeeRepo, zones, outboxRepo, shiftPolicy(cfg), logger)
	checkInService := checkinrequest.NewService(checkInRepo, shiftService, employeeRepo, shiftRepo, checkInPolicy(cfg), logger)

	var locker lock.Locker
	if rdb != nil {
		locker = lock.NewRedisLocker(rdb, leasePrefix)
	}
	reminders := reminder.NewScheduler(reminder.Deps{
		Organizations: organizationRepo,
		Zones:         zones,
		Employees:     employeeRepo,
		Resolver:      schedule.NewResolver(scheduleRepo, logger),
		Shifts:        shiftRepo,
		Ledger:        ledger,
		Notifier:      notificationService,
		Locker:        locker,
	}, reminder.Config{
		Parallelism: cfg.TickParallelism,
		LeaseTTL:    cfg.TickLeaseTTL,
	}, logger)

	return &modules{
		shifts:        shiftService,
		checkIns:      checkInService,
		schedules:     scheduleService,
		notifications: notificationService,
		reminders:     reminders,
	}
}

func registerRoutes(router *gin.Engine, m *modules, rdb *redis.Client, logger *zap.Logger) {
	// --- Handlers ---
	shiftHandler := shift.NewHandler(m.shifts, logger)
	checkInHandler := checkinrequest.NewHandler(m.checkIns, logger)
	scheduleHandler := schedule.NewHandler(m.schedules, logger)
	notificationHandler := notification.NewHandler(m.notifications, logger)

	clockGuards := []gin.HandlerFunc{middleware.RateLimitByUser(rate.Every(2*time.Second), 5)}
	if rdb != nil {
		clockGuards = append(clockGuards, middleware.Idempotency(rdb, logger))
	}

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	api.Use(middleware.Identity(), middleware.ContextLogger(logger))
	{
		shift.RegisterRoutes(api, shiftHandler, clockGuards...)
		checkinrequest.RegisterRoutes(api, checkInHandler)
		schedule.RegisterRoutes(api, scheduleHandler)
		notification.RegisterRoutes(api, notificationHandler)
	}
}
