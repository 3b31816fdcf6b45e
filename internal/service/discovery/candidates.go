package discovery

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/emberapp/discovery/internal/db"
	"github.com/emberapp/discovery/internal/geo"
	"github.com/emberapp/discovery/internal/repository"
)

// candidateOverscan bounds how many pre-ranking rows the store query may
// return per requested candidate. Distance filtering happens after the
// query, so the scan needs headroom.
const candidateOverscan = 10

// CandidateView is what the API layer shows for one candidate. Distance
// and age honor the hide flags; the filter itself always ran on the
// unrounded/unhidden values.
type CandidateView struct {
	UserID        uint64   `json:"user_id"`
	DisplayName   string   `json:"display_name"`
	Age           *int     `json:"age,omitempty"`
	DistanceKM    *int     `json:"distance_km,omitempty"`
	DistanceLabel string   `json:"distance_label,omitempty"`
	Interests     []string `json:"interests"`
	Goal          string   `json:"goal,omitempty"`
	Score         int      `json:"score"`
}

// GetCandidates returns up to pageSize ranked candidates for the viewer.
//
// Pipeline: resolve preferences → store query with predicate push-down →
// distance filter → compatibility ranking → page → render views. The
// rendered page is cached in Redis for a few seconds only, so block-list
// and quota changes surface promptly.
//
// The pool shrinks as interactions accumulate, so two calls are not
// guaranteed to see overlapping pools; repeated calls are always safe.
func (s *Service) GetCandidates(ctx context.Context, viewerID uint64, pageSize int) ([]CandidateView, error) {
	cfg := s.appCtx.Config.Discovery
	if pageSize <= 0 {
		pageSize = cfg.DefaultPageSize
	}
	if pageSize > cfg.MaxPageSize {
		pageSize = cfg.MaxPageSize
	}

	cacheTTL := time.Duration(cfg.CandidateCacheTTLSec) * time.Second
	cacheKey := s.appCtx.RedisCache.KeyForCandidatePage(viewerID, pageSize)
	if cacheTTL > 0 {
		if cached, err := s.appCtx.RedisCache.Get(ctx, cacheKey); err == nil && cached != "" {
			var views []CandidateView
			if err := json.Unmarshal([]byte(cached), &views); err == nil {
				s.appCtx.Logger.Debug("candidate page served from cache", "viewer", viewerID)
				return views, nil
			}
		}
	}

	viewer, err := s.profiles.GetProfile(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	settings, err := s.ResolvePreferences(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	pool, err := s.profiles.QueryCandidates(ctx, repository.CandidateSpec{
		ViewerID:        viewerID,
		ViewerGender:    viewer.Gender,
		PreferredGender: settings.PreferredGender,
		MinAge:          settings.MinAge,
		MaxAge:          settings.MaxAge,
		Now:             now,
		Limit:           pageSize * candidateOverscan,
	})
	if err != nil {
		return nil, err
	}

	ranked := s.rankByDistance(&viewer, settings, pool, now)
	if len(ranked) > pageSize {
		ranked = ranked[:pageSize]
	}

	views, err := s.renderViews(ctx, settings, ranked)
	if err != nil {
		return nil, err
	}

	if cacheTTL > 0 {
		if payload, err := json.Marshal(views); err == nil {
			if err := s.appCtx.RedisCache.Set(ctx, cacheKey, payload, cacheTTL); err != nil {
				s.appCtx.Logger.Warn("candidate page cache write failed", "err", err)
			}
		}
	}

	s.appCtx.Logger.Debug("candidates computed",
		"viewer", viewerID, "pool", len(pool), "returned", len(views))

	return views, nil
}

type rankedCandidate struct {
	profile    db.Profile
	distanceKM float64
	score      int
}

// rankByDistance drops candidates beyond the viewer's distance bound and
// orders the rest by score, then profile freshness, then id. The full
// ordering is deterministic so pagination and tests are reproducible.
func (s *Service) rankByDistance(viewer *db.Profile, settings db.DiscoverySettings, pool []db.Profile, now time.Time) []rankedCandidate {
	ranked := make([]rankedCandidate, 0, len(pool))
	for i := range pool {
		candidate := pool[i]
		// no location on either side: keep the candidate, omit distance
		distance := -1.0
		if viewer.Geohash != "" && candidate.Geohash != "" {
			distance = geo.DistanceKM(viewer.Geohash, candidate.Geohash)
			if distance > settings.MaxDistanceKM {
				continue
			}
		}
		ranked = append(ranked, rankedCandidate{
			profile:    candidate,
			distanceKM: distance,
			score:      s.scorer.Score(viewer, &candidate, now),
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		if !ranked[i].profile.CreatedAt.Equal(ranked[j].profile.CreatedAt) {
			return ranked[i].profile.CreatedAt.After(ranked[j].profile.CreatedAt)
		}
		return ranked[i].profile.ID < ranked[j].profile.ID
	})

	return ranked
}

func (s *Service) renderViews(ctx context.Context, viewerSettings db.DiscoverySettings, ranked []rankedCandidate) ([]CandidateView, error) {
	ids := make([]uint64, len(ranked))
	for i, rc := range ranked {
		ids[i] = rc.profile.ID
	}
	candidateSettings, err := s.profiles.GetSettingsBulk(ctx, ids)
	if err != nil {
		return nil, err
	}

	now := s.now()
	views := make([]CandidateView, 0, len(ranked))
	for _, rc := range ranked {
		cs := candidateSettings[rc.profile.ID]

		view := CandidateView{
			UserID:      rc.profile.ID,
			DisplayName: rc.profile.DisplayName,
			Interests:   splitInterests(rc.profile.Interests),
			Goal:        rc.profile.Goal,
			Score:       rc.score,
		}

		if !cs.HideAge {
			age := rc.profile.Age(now)
			view.Age = &age
		}

		switch {
		case rc.distanceKM < 0:
			// unknown location, nothing to show
		case viewerSettings.HideDistance || cs.HideDistance:
			view.DistanceLabel = geo.NearbyLabel
		default:
			km := geo.DisplayKM(rc.distanceKM)
			view.DistanceKM = &km
		}

		views = append(views, view)
	}
	return views, nil
}

func splitInterests(joined string) []string {
	out := []string{}
	for _, s := range strings.Split(joined, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
