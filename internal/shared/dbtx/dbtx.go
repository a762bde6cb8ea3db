// Package dbtx lets gorm repositories join a transaction opened on the shared *sql.DB.
package dbtx

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

// Bind returns a gorm handle whose statements run on tx. The returned handle owns
// a cloned statement, so the root db keeps its own connection pool.
func Bind(db *gorm.DB, tx *sql.Tx) *gorm.DB {
	if tx == nil {
		return db
	}
	bound := db.Session(&gorm.Session{Context: context.Background(), SkipDefaultTransaction: true})
	bound.Statement.ConnPool = tx
	return bound
}

// AdvisoryLock takes a transaction-scoped postgres advisory lock keyed by key.
// The lock is released on commit or rollback.
func AdvisoryLock(ctx context.Context, db *gorm.DB, key string) error {
	return db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key).Error
}
