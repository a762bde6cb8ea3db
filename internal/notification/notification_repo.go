package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	CreateNotifications(ctx context.Context, rows []Notification) error
	MarkPushSent(ctx context.Context, ids []uuid.UUID) error
	ListInbox(ctx context.Context, userID string, limit int) ([]Notification, error)
	RegisterToken(ctx context.Context, t *PushToken) error
	FindActiveTokens(ctx context.Context, userIDs []uuid.UUID) ([]PushToken, error)
	DeactivateToken(ctx context.Context, id uuid.UUID) error
	// RecordTokenFailure bumps the failure count and reports whether the token is still active.
	RecordTokenFailure(ctx context.Context, id uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateNotifications(ctx context.Context, rows []Notification) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(rows, 200).Error
}

func (r *repository) MarkPushSent(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&Notification{}).
		Where("id IN ?", ids).
		Update("push_sent", true).Error
}

func (r *repository) ListInbox(ctx context.Context, userID string, limit int) ([]Notification, error) {
	var rows []Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// RegisterToken re-binds an existing device token to the caller and revives it.
func (r *repository) RegisterToken(ctx context.Context, t *PushToken) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "token"}},
			DoUpdates: clause.Assignments(map[string]any{
				"user_id":         t.UserID,
				"platform":        t.Platform,
				"is_active":       true,
				"failure_count":   0,
				"last_failure_at": nil,
				"updated_at":      time.Now().UTC(),
			}),
		}).
		Create(t).Error
}

func (r *repository) FindActiveTokens(ctx context.Context, userIDs []uuid.UUID) ([]PushToken, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var tokens []PushToken
	err := r.db.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Where("is_active = ?", true).
		Order("user_id, created_at").
		Find(&tokens).Error
	return tokens, err
}

func (r *repository) DeactivateToken(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&PushToken{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_active":       false,
			"last_failure_at": time.Now().UTC(),
		}).Error
}

func (r *repository) RecordTokenFailure(ctx context.Context, id uuid.UUID) (bool, error) {
	var active bool
	err := r.db.WithContext(ctx).Raw(`
UPDATE push_tokens
SET failure_count = failure_count + 1,
	last_failure_at = NOW(),
	is_active = is_active AND failure_count + 1 < ?,
	updated_at = NOW()
WHERE id = ?
RETURNING is_active`, MaxTokenFailures, id).Scan(&active).Error
	return active, err
}
