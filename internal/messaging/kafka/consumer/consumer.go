package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"go-timeclock/internal/events"
	"go-timeclock/internal/notification"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is the subset of *kafkago.Reader the consumers use.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

type Notifier interface {
	Send(ctx context.Context, reqs []notification.Request) (notification.Result, error)
}

// ConsumeShiftLifecycle tells employees to resolve shifts the sweep marked stale.
// Other lifecycle events are committed without action. A message is left
// uncommitted when the inbox write fails so it is redelivered.
func ConsumeShiftLifecycle(
	ctx context.Context,
	reader MessageReader,
	notifier Notifier,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.shift_lifecycle")
	log.Info("shift lifecycle consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("shift lifecycle consumer stopped")
				return
			}
			log.Error("fetch shift lifecycle message failed", zap.Error(err))
			continue
		}

		var event events.ShiftLifecycleEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode shift lifecycle event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		if event.EventType != events.ShiftStale {
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		req, err := staleShiftNotification(event)
		if err != nil {
			log.Error("invalid shift.stale event", zap.String("shift_id", event.ShiftID), zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		if _, err := notifier.Send(ctx, []notification.Request{req}); err != nil {
			log.Error("notify stale shift failed",
				zap.String("shift_id", event.ShiftID),
				zap.String("employee_id", event.EmployeeID),
				zap.Error(err),
			)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit shift lifecycle message failed", zap.Error(err))
			continue
		}

		log.Info("stale shift notification sent",
			zap.String("shift_id", event.ShiftID),
			zap.String("employee_id", event.EmployeeID),
		)
	}
}

func staleShiftNotification(event events.ShiftLifecycleEvent) (notification.Request, error) {
	employeeID, err := uuid.Parse(event.EmployeeID)
	if err != nil {
		return notification.Request{}, fmt.Errorf("employee_id: %w", err)
	}
	organizationID, err := uuid.Parse(event.OrganizationID)
	if err != nil {
		return notification.Request{}, fmt.Errorf("organization_id: %w", err)
	}

	return notification.Request{
		UserID:         employeeID,
		OrganizationID: organizationID,
		Type:           notification.TypeShiftStale,
		Title:          "Resolve your shift",
		Body: fmt.Sprintf("You clocked in on %s and never clocked out. Tell us when you finished.",
			event.ClockInAt.UTC().Format("2006-01-02 15:04 UTC")),
		Data: notification.Data{
			ShiftID:    event.ShiftID,
			EmployeeID: event.EmployeeID,
		},
	}, nil
}
