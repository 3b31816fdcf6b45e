package discovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/emberapp/discovery/internal/db"
	svcErr "github.com/emberapp/discovery/internal/errors"
	"github.com/emberapp/discovery/internal/notify"
	"github.com/emberapp/discovery/internal/quota"
)

// errTerminalPair aborts the swipe transaction when the ordered pair is
// already shut down by a block/report row. The call is still a success
// for the client; nothing is written, quota included.
var errTerminalPair = errors.New("pair has terminal interaction")

// SwipeResult is the outcome of recording one swipe.
type SwipeResult struct {
	Matched bool
	MatchID string
	// NewMatch distinguishes "this call created the match" from "the pair
	// was already matched", for notification dedup.
	NewMatch bool
}

// Swipe records actor's interaction with target and detects a mutual match.
//
// Behavior:
//   - Rejects self-swipes and unknown types with ErrInvalidOperation.
//   - Superlikes consume the daily quota inside the same transaction as
//     the interaction write; an exhausted quota fails with ErrQuotaExceeded
//     and writes nothing.
//   - The interaction is upserted keyed on (actor, target): repeating a
//     swipe is idempotent, changing it is last-write-wins. A prior
//     block/report is terminal; later swipes are accepted but inert.
//   - After a like/superlike lands, a reciprocal like triggers canonical
//     insert-or-ignore match creation. Concurrent reciprocal swipes both
//     report matched=true with exactly one match row between them.
func (s *Service) Swipe(ctx context.Context, actorID, targetID uint64, kind db.InteractionType) (SwipeResult, error) {
	s.appCtx.Logger.Debug("swipe", "actor", actorID, "target", targetID, "type", kind)

	if actorID == targetID {
		return SwipeResult{}, svcErr.InvalidOperation("cannot swipe on yourself")
	}
	if !kind.IsValid() {
		return SwipeResult{}, svcErr.InvalidOperation(fmt.Sprintf("unknown interaction type %q", kind))
	}

	if _, err := s.profiles.GetProfile(ctx, actorID); err != nil {
		return SwipeResult{}, err
	}
	if _, err := s.profiles.GetProfile(ctx, targetID); err != nil {
		return SwipeResult{}, err
	}

	now := s.now()

	var prev *db.InteractionType
	err := s.appCtx.DB.Transaction(func(tx *gorm.DB) error {
		if kind == db.TypeSuperlike {
			ok, err := s.limiter.WithTx(tx).Consume(ctx, actorID, quota.SuperlikeDaily, now)
			if err != nil {
				return fmt.Errorf("consume quota: %w", err)
			}
			if !ok {
				return &svcErr.QuotaError{Quota: quota.SuperlikeDaily, ResetsAt: quota.WindowEnd(now)}
			}
		}

		recorded, previous, err := s.interactions.WithTx(tx).Upsert(ctx, actorID, targetID, kind)
		if err != nil {
			return fmt.Errorf("record interaction: %w", err)
		}
		if !recorded {
			return errTerminalPair
		}
		prev = previous
		return nil
	})
	if errors.Is(err, errTerminalPair) {
		// terminal row wins; accepted, no surfacing effect
		return SwipeResult{}, nil
	}
	if err != nil {
		return SwipeResult{}, err
	}

	s.adjustLikedByCounter(ctx, targetID, prev, kind)

	if !kind.Positive() {
		return SwipeResult{}, nil
	}
	return s.detectMatch(ctx, actorID, targetID)
}

// detectMatch checks reciprocity and creates the canonical match row.
func (s *Service) detectMatch(ctx context.Context, actorID, targetID uint64) (SwipeResult, error) {
	reciprocal, err := s.interactions.HasPositive(ctx, targetID, actorID)
	if err != nil {
		return SwipeResult{}, fmt.Errorf("reciprocity check: %w", err)
	}
	if !reciprocal {
		return SwipeResult{}, nil
	}

	// a block in either direction vetoes the match even with mutual likes
	terminal, err := s.interactions.HasTerminalBetween(ctx, actorID, targetID)
	if err != nil {
		return SwipeResult{}, fmt.Errorf("block check: %w", err)
	}
	if terminal {
		return SwipeResult{}, nil
	}

	match, created, err := s.matches.CreateIfAbsent(ctx, actorID, targetID)
	if err != nil {
		return SwipeResult{}, fmt.Errorf("create match: %w", err)
	}

	if created {
		s.appCtx.Logger.Info("match created",
			"match", notify.MatchID(match), "user_a", actorID, "user_b", targetID)
		s.notifyMatch(match, actorID, targetID)
	}

	return SwipeResult{
		Matched:  true,
		MatchID:  notify.MatchID(match),
		NewMatch: created,
	}, nil
}

// notifyMatch hands the match to the notification gateway without blocking
// the request. Failure to notify never rolls back the match.
func (s *Service) notifyMatch(match db.Match, actorID, targetID uint64) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.notifier.NotifyMatch(ctx, match, actorID, targetID); err != nil {
			s.appCtx.Logger.Warn("match notification failed",
				"match", notify.MatchID(match), "err", err)
		}
	}()
}

// adjustLikedByCounter keeps the cached liked-by count in step with the
// transition between the previous and new interaction type. Best effort;
// an absent counter stays absent so the next read reloads the DB count
// instead of drifting from a zero seeded mid-stream.
func (s *Service) adjustLikedByCounter(ctx context.Context, targetID uint64, prev *db.InteractionType, kind db.InteractionType) {
	wasPositive := prev != nil && prev.Positive()
	isPositive := kind.Positive()

	var delta int64
	switch {
	case isPositive && !wasPositive:
		delta = 1
	case !isPositive && wasPositive:
		delta = -1
	default:
		return
	}
	if err := s.appCtx.RedisCache.AdjustLikedByCount(ctx, targetID, delta); err != nil {
		s.appCtx.Logger.Warn("liked-by counter adjust failed", "err", err)
	}
}
