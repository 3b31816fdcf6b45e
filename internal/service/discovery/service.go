// Package discovery implements the matching engine: candidate selection,
// swipe recording and mutual-match detection. It contains the business
// logic on top of the repository, quota and cache layers; transport lives
// in internal/server.
package discovery

import (
	"time"

	"github.com/emberapp/discovery/internal/app"
	"github.com/emberapp/discovery/internal/notify"
	"github.com/emberapp/discovery/internal/quota"
	"github.com/emberapp/discovery/internal/repository"
	"github.com/emberapp/discovery/internal/scoring"
)

// Service answers "give me candidates" and "record this swipe". It is
// stateless between requests; all correctness is enforced at the store.
type Service struct {
	appCtx       *app.AppContext
	profiles     *repository.ProfileRepository
	interactions *repository.InteractionRepository
	matches      *repository.MatchRepository
	limiter      *quota.Limiter
	scorer       *scoring.Scorer
	notifier     notify.MatchNotifier

	now func() time.Time
}

// NewService creates the discovery service with dependencies from AppContext.
func NewService(appCtx *app.AppContext, notifier notify.MatchNotifier) *Service {
	return &Service{
		appCtx:       appCtx,
		profiles:     repository.NewProfileRepository(appCtx.DB),
		interactions: repository.NewInteractionRepository(appCtx.DB),
		matches:      repository.NewMatchRepository(appCtx.DB),
		limiter:      quota.NewLimiter(appCtx.DB, appCtx.Config),
		scorer:       scoring.NewScorer(scoring.WeightsFromConfig(appCtx.Config)),
		notifier:     notifier,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the service clock. Test hook.
func (s *Service) SetClock(now func() time.Time) { s.now = now }
