package discovery

import (
	"context"
	"time"
)

// LikerView is one entry of a liked-by listing.
type LikerView struct {
	UserID  uint64    `json:"user_id"`
	LikedAt time.Time `json:"liked_at"`
}

// LikedByPage is a cursor-paginated liked-by listing.
type LikedByPage struct {
	Likers    []LikerView `json:"likers"`
	NextToken *string     `json:"next_token,omitempty"`
}

// LikedBy lists users with a live like on the given user, newest first.
// With newOnly, mutual likes are filtered out, leaving the ones awaiting
// an answer. Users the subject passed or blocked never appear.
func (s *Service) LikedBy(ctx context.Context, userID uint64, token *string, limit int, newOnly bool) (LikedByPage, error) {
	if _, err := s.profiles.GetProfile(ctx, userID); err != nil {
		return LikedByPage{}, err
	}
	if limit <= 0 {
		limit = s.appCtx.Config.Discovery.DefaultPageSize
	}

	fetch := s.interactions.GetLikedBy
	if newOnly {
		fetch = s.interactions.GetNewLikedBy
	}
	interactions, nextToken, err := fetch(ctx, userID, token, limit)
	if err != nil {
		return LikedByPage{}, err
	}

	page := LikedByPage{Likers: make([]LikerView, 0, len(interactions)), NextToken: nextToken}
	for _, i := range interactions {
		page.Likers = append(page.Likers, LikerView{UserID: i.ActorID, LikedAt: i.UpdatedAt})
	}
	return page, nil
}

// CountLikedBy returns how many users have a live like on the given user.
// Cache-first: the Redis counter is served when present and repopulated
// from the store with a TTL on a miss.
func (s *Service) CountLikedBy(ctx context.Context, userID uint64) (int64, error) {
	if _, err := s.profiles.GetProfile(ctx, userID); err != nil {
		return 0, err
	}

	if count, ok, err := s.appCtx.RedisCache.GetLikedByCount(ctx, userID); err == nil && ok {
		return count, nil
	}

	count, err := s.interactions.CountLikedBy(ctx, userID)
	if err != nil {
		return 0, err
	}

	if err := s.appCtx.RedisCache.SetLikedByCount(ctx, userID, count); err != nil {
		s.appCtx.Logger.Warn("liked-by counter cache write failed", "err", err)
	}

	return count, nil
}
