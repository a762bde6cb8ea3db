package reminder

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// A row left pending by a worker that died mid-send may be claimed again once it
// is older than the reclaim window. Windows must outlast the longest job timeout,
// and the weekly one also outlasts summaryGrace so a summary whose MarkSent failed
// is never sent twice.
const (
	staleClaimAfter   = 30 * time.Minute
	summaryClaimAfter = summaryGrace + time.Hour
)

func reclaimAfter(subtype Subtype) time.Duration {
	if subtype == SubtypeWeeklySummary {
		return summaryClaimAfter
	}
	return staleClaimAfter
}

type Ledger interface {
	// Claim reserves key for delivery. It reports false when the key is already
	// sent, skipped, or being delivered.
	Claim(ctx context.Context, organizationID uuid.UUID, key Key, scheduledFor time.Time) (uuid.UUID, bool, error)
	MarkSent(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
	// Skip records key as skipped unless a row for it already exists.
	Skip(ctx context.Context, organizationID uuid.UUID, key Key, scheduledFor time.Time, reason string) (bool, error)
}

type ledgerRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewLedgerRepository(db *sql.DB) Ledger {
	return &ledgerRepository{db: db, now: time.Now}
}

func (r *ledgerRepository) Claim(ctx context.Context, organizationID uuid.UUID, key Key, scheduledFor time.Time) (uuid.UUID, bool, error) {
	const q = `
		INSERT INTO scheduled_notifications (
			id, organization_id, employee_id, schedule_slot_id, subtype, calendar_date,
			status, scheduled_for, attempts, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, 'pending', $7, 1, NOW(), NOW())
		ON CONFLICT (employee_id, schedule_slot_id, subtype, calendar_date) DO UPDATE
		SET status = 'pending',
			attempts = scheduled_notifications.attempts + 1,
			skip_reason = NULL,
			updated_at = NOW()
		WHERE scheduled_notifications.status = 'failed'
			OR (scheduled_notifications.status = 'pending' AND scheduled_notifications.updated_at < $8)
		RETURNING id
	`
	var id uuid.UUID
	err := r.db.QueryRowContext(ctx, q,
		uuid.New(),
		organizationID,
		key.EmployeeID,
		key.SlotID,
		string(key.Subtype),
		key.Date.Format("2006-01-02"),
		scheduledFor.UTC(),
		r.now().UTC().Add(-reclaimAfter(key.Subtype)),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	return id, true, nil
}

func (r *ledgerRepository) MarkSent(ctx context.Context, id uuid.UUID) error {
	const q = `
		UPDATE scheduled_notifications
		SET status = 'sent', processed_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

func (r *ledgerRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	const q = `
		UPDATE scheduled_notifications
		SET status = 'failed', skip_reason = $2, processed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`
	_, err := r.db.ExecContext(ctx, q, id, reason)
	return err
}

func (r *ledgerRepository) Skip(ctx context.Context, organizationID uuid.UUID, key Key, scheduledFor time.Time, reason string) (bool, error) {
	const q = `
		INSERT INTO scheduled_notifications (
			id, organization_id, employee_id, schedule_slot_id, subtype, calendar_date,
			status, scheduled_for, skip_reason, processed_at, attempts, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, 'skipped', $7, $8, NOW(), 0, NOW(), NOW())
		ON CONFLICT (employee_id, schedule_slot_id, subtype, calendar_date) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, q,
		uuid.New(),
		organizationID,
		key.EmployeeID,
		key.SlotID,
		string(key.Subtype),
		key.Date.Format("2006-01-02"),
		scheduledFor.UTC(),
		reason,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
