package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emberapp/discovery/internal/db"
	"github.com/emberapp/discovery/internal/utils/pagination"
)

// InteractionRepository provides data access methods for the Interaction
// model. It encapsulates all queries about swipes between users.
type InteractionRepository struct {
	db *gorm.DB
}

// NewInteractionRepository creates a new repository bound to the given DB connection.
func NewInteractionRepository(database *gorm.DB) *InteractionRepository {
	return &InteractionRepository{db: database}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *InteractionRepository) WithTx(tx *gorm.DB) *InteractionRepository {
	return &InteractionRepository{db: tx}
}

// Upsert inserts or overwrites the interaction actor -> target.
//
// Behavior:
//   - If no row exists for (actor_id, target_id) → a new row is inserted.
//   - If a row exists → it is updated with the new type, last write wins.
//   - If the existing row is terminal (block/report) → the call is accepted
//     but the row is left untouched; returns recorded=false.
//
// prev reports the overwritten type, nil for a first interaction.
//
// Example:
//
//	repo.Upsert(ctx, 1, 2, db.TypeLike) // user 1 liked user 2
func (r *InteractionRepository) Upsert(
	ctx context.Context,
	actorID, targetID uint64,
	kind db.InteractionType,
) (recorded bool, prev *db.InteractionType, err error) {
	var existing db.Interaction
	err = r.db.WithContext(ctx).
		Where("actor_id = ? AND target_id = ?", actorID, targetID).
		First(&existing).Error
	switch {
	case err == nil:
		if existing.Type.Terminal() && !kind.Terminal() {
			return false, nil, nil
		}
		prev = &existing.Type
	case errors.Is(err, gorm.ErrRecordNotFound):
		// first interaction for the pair
	default:
		return false, nil, err
	}

	interaction := db.Interaction{
		ActorID:  actorID,
		TargetID: targetID,
		Type:     kind,
	}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "actor_id"}, {Name: "target_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"type", "updated_at"}),
		}).
		Create(&interaction).Error
	if err != nil {
		return false, nil, err
	}
	return true, prev, nil
}

// Get returns the interaction actor -> target, or gorm.ErrRecordNotFound.
func (r *InteractionRepository) Get(
	ctx context.Context,
	actorID, targetID uint64,
) (db.Interaction, error) {
	var interaction db.Interaction
	err := r.db.WithContext(ctx).
		Where("actor_id = ? AND target_id = ?", actorID, targetID).
		First(&interaction).Error
	return interaction, err
}

// HasPositive reports whether actor has a live like/superlike on target.
//
// Used for the reciprocity check in match detection. A single row per
// ordered pair means a later block by the actor overwrites the like, so
// a positive row here is by definition current.
func (r *InteractionRepository) HasPositive(
	ctx context.Context,
	actorID, targetID uint64,
) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("interactions").
		Where("actor_id = ? AND target_id = ? AND type IN ?",
			actorID, targetID, []db.InteractionType{db.TypeLike, db.TypeSuperlike}).
		Count(&count).Error
	return count > 0, err
}

// HasTerminalBetween reports whether either side has a block/report row
// against the other.
func (r *InteractionRepository) HasTerminalBetween(
	ctx context.Context,
	a, b uint64,
) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("interactions").
		Where("((actor_id = ? AND target_id = ?) OR (actor_id = ? AND target_id = ?)) AND type IN ?",
			a, b, b, a, []db.InteractionType{db.TypeBlock, db.TypeReport}).
		Count(&count).Error
	return count > 0, err
}

// negativeTypes are viewer rows that exclude an actor from liked-by lists:
// the viewer already declined or shut the pair down.
var negativeTypes = []db.InteractionType{db.TypePass, db.TypeBlock, db.TypeReport}

// GetLikedBy returns all users with a live like/superlike on the given user.
//
// Behavior:
//   - Only rows where target_id = X and type is positive are returned.
//   - Excludes actors the user passed, blocked or reported.
//   - Ordered by updated_at DESC, actor_id DESC.
//   - Supports cursor-based pagination via paginationToken.
//
// Example:
//
//	repo.GetLikedBy(ctx, 42, nil, 20) // first 20 people who liked user 42
func (r *InteractionRepository) GetLikedBy(
	ctx context.Context,
	userID uint64,
	paginationToken *string,
	limit int,
) ([]db.Interaction, *string, error) {
	query := r.likedByQuery(ctx, userID)
	return r.paginate(query, paginationToken, limit)
}

// GetNewLikedBy returns users who liked the given user without a like back.
//
// Behavior:
//   - Same exclusions as GetLikedBy.
//   - Additionally excludes mutual likes (the user already liked them back).
//
// Example:
//
//	repo.GetNewLikedBy(ctx, 42, nil, 20) // first 20 one-way likes for user 42
func (r *InteractionRepository) GetNewLikedBy(
	ctx context.Context,
	userID uint64,
	paginationToken *string,
	limit int,
) ([]db.Interaction, *string, error) {
	// subquery to exclude mutual likes
	subQuery := r.db.
		Table("interactions").
		Select("1").
		Where("actor_id = i.target_id AND target_id = i.actor_id AND type IN ?",
			[]db.InteractionType{db.TypeLike, db.TypeSuperlike})

	query := r.likedByQuery(ctx, userID).
		Where("NOT EXISTS (?)", subQuery)

	return r.paginate(query, paginationToken, limit)
}

// CountLikedBy returns how many users have a live like on the given user.
// Used in conjunction with the Redis counter (DB is the fallback).
func (r *InteractionRepository) CountLikedBy(
	ctx context.Context,
	userID uint64,
) (int64, error) {
	var count int64
	err := r.likedByQuery(ctx, userID).Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *InteractionRepository) likedByQuery(ctx context.Context, userID uint64) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("interactions i").
		Where("i.target_id = ? AND i.type IN ?",
			userID, []db.InteractionType{db.TypeLike, db.TypeSuperlike}).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM interactions i2
				WHERE i2.actor_id = ?
				  AND i2.target_id = i.actor_id
				  AND i2.type IN ?
			)`, userID, negativeTypes)
}

func (r *InteractionRepository) paginate(
	query *gorm.DB,
	paginationToken *string,
	limit int,
) ([]db.Interaction, *string, error) {
	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query = query.
		Order("i.updated_at DESC, i.actor_id DESC").
		Limit(limit + 1)

	if cursor.ActorID > 0 && cursor.UpdatedUnix > 0 {
		ts := time.UnixMilli(cursor.UpdatedUnix)
		query = query.Where(
			"(i.updated_at < ? OR (i.updated_at = ? AND i.actor_id < ?))",
			ts, ts, cursor.ActorID,
		)
	}

	var interactions []db.Interaction
	if err := query.Find(&interactions).Error; err != nil {
		return nil, nil, err
	}

	var nextToken *string
	if len(interactions) > limit {
		last := interactions[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			ActorID:     last.ActorID,
			UpdatedUnix: last.UpdatedAt.UnixMilli(),
		})
		nextToken = &token
		interactions = interactions[:limit]
	}

	return interactions, nextToken, nil
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
