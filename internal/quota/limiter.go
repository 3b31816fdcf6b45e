// Package quota enforces per-user rate quotas with store-backed counters.
// State lives in the shared database, never in process memory, so limits
// hold across service instances.
package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emberapp/discovery/internal/config"
	"github.com/emberapp/discovery/internal/db"
)

// SuperlikeDaily is the quota gating superlike swipes.
const SuperlikeDaily = "superlike_daily"

// Windows are fixed: every quota resets at 00:00 UTC.
const windowLength = 24 * time.Hour

// WindowStart returns the start of the window containing now.
func WindowStart(now time.Time) time.Time {
	return now.UTC().Truncate(windowLength)
}

// WindowEnd returns when the window containing now resets.
func WindowEnd(now time.Time) time.Time {
	return WindowStart(now).Add(windowLength)
}

// Limiter consumes units from named quotas.
type Limiter struct {
	db     *gorm.DB
	limits map[string]int
}

func NewLimiter(database *gorm.DB, cfg *config.Config) *Limiter {
	return &Limiter{
		db: database,
		limits: map[string]int{
			SuperlikeDaily: cfg.Quota.SuperlikeDailyLimit,
		},
	}
}

// WithTx returns a copy of the limiter bound to the given transaction, so
// consumption commits or rolls back with the write it gates.
func (l *Limiter) WithTx(tx *gorm.DB) *Limiter {
	return &Limiter{db: tx, limits: l.limits}
}

// Consume takes one unit from the user's quota for the current window.
//
// Returns true when a unit was consumed. Returns false, without
// incrementing, when the limit is already reached. The increment is a
// conditional UPDATE guarded by the limit, so concurrent consumers on
// different instances can never push the counter past it.
func (l *Limiter) Consume(ctx context.Context, userID uint64, quotaName string, now time.Time) (bool, error) {
	limit, ok := l.limits[quotaName]
	if !ok {
		return false, fmt.Errorf("unknown quota %q", quotaName)
	}
	if limit <= 0 {
		return false, nil
	}

	start := WindowStart(now)

	// First unit of the window: plain insert, ignored if the row exists.
	counter := db.RateLimitCounter{
		UserID:      userID,
		Quota:       quotaName,
		WindowStart: start,
		Count:       1,
	}
	res := l.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "quota"}, {Name: "window_start"}},
			DoNothing: true,
		}).
		Create(&counter)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	// Row exists: increment only while below the limit.
	res = l.db.WithContext(ctx).
		Model(&db.RateLimitCounter{}).
		Where("user_id = ? AND quota = ? AND window_start = ? AND count < ?",
			userID, quotaName, start, limit).
		Update("count", gorm.Expr("count + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Remaining reports how many units are left in the current window.
func (l *Limiter) Remaining(ctx context.Context, userID uint64, quotaName string, now time.Time) (int, error) {
	limit, ok := l.limits[quotaName]
	if !ok {
		return 0, fmt.Errorf("unknown quota %q", quotaName)
	}

	var counter db.RateLimitCounter
	err := l.db.WithContext(ctx).
		Where("user_id = ? AND quota = ? AND window_start = ?",
			userID, quotaName, WindowStart(now)).
		First(&counter).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return limit, nil
	}
	if err != nil {
		return 0, err
	}

	remaining := limit - counter.Count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}
