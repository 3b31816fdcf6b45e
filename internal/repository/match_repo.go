package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emberapp/discovery/internal/db"
)

// MatchRepository provides data access for canonical match rows.
type MatchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *MatchRepository) WithTx(tx *gorm.DB) *MatchRepository {
	return &MatchRepository{db: tx}
}

// CreateIfAbsent inserts the canonical match row for the unordered pair,
// succeeding silently when it already exists. This insert-or-ignore is what
// makes concurrent reciprocal swipes safe: whichever side lands second
// still observes exactly one row.
//
// Returns the match (existing or new) and whether this call created it, so
// the caller can fire the match notification exactly once.
func (r *MatchRepository) CreateIfAbsent(
	ctx context.Context,
	a, b uint64,
) (db.Match, bool, error) {
	match := db.NewMatch(a, b)

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_low_id"}, {Name: "user_high_id"}},
			DoNothing: true,
		}).
		Create(&match)
	if res.Error != nil {
		// A raw unique-constraint violation should be unreachable here, but
		// some drivers surface it anyway; fold it into "already exists".
		if !isDuplicateKey(res.Error) {
			return db.Match{}, false, res.Error
		}
	} else if res.RowsAffected > 0 {
		return match, true, nil
	}

	// row existed already; load it for its original CreatedAt
	existing, err := r.Get(ctx, a, b)
	if err != nil {
		return db.Match{}, false, err
	}
	return existing, false, nil
}

// Get returns the match for the unordered pair, or gorm.ErrRecordNotFound.
func (r *MatchRepository) Get(ctx context.Context, a, b uint64) (db.Match, error) {
	canonical := db.NewMatch(a, b)
	var match db.Match
	err := r.db.WithContext(ctx).
		Where("user_low_id = ? AND user_high_id = ?", canonical.UserLowID, canonical.UserHighID).
		First(&match).Error
	return match, err
}

// ListForUser returns all matches involving the given user.
func (r *MatchRepository) ListForUser(ctx context.Context, userID uint64) ([]db.Match, error) {
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Where("user_low_id = ? OR user_high_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&matches).Error
	return matches, err
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint")
}
