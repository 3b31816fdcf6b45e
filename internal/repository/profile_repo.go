package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/emberapp/discovery/internal/db"
	svcErr "github.com/emberapp/discovery/internal/errors"
)

// ProfileRepository reads profiles and discovery settings. The engine never
// writes either table outside dev seeding; ownership sits with the
// profile-management service.
type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: database}
}

// GetProfile returns the profile for the given id.
func (r *ProfileRepository) GetProfile(ctx context.Context, id uint64) (db.Profile, error) {
	var profile db.Profile
	err := r.db.WithContext(ctx).First(&profile, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.Profile{}, svcErr.NotFound(fmt.Sprintf("profile %d", id))
	}
	return profile, err
}

// GetSettings returns the discovery settings row for the given user.
// A missing row is reported as gorm.ErrRecordNotFound; defaulting is the
// preference resolver's job, not the repository's.
func (r *ProfileRepository) GetSettings(ctx context.Context, userID uint64) (db.DiscoverySettings, error) {
	var settings db.DiscoverySettings
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&settings).Error
	return settings, err
}

// GetSettingsBulk loads settings rows for a set of users. Users without a
// row are simply absent from the result map.
func (r *ProfileRepository) GetSettingsBulk(ctx context.Context, userIDs []uint64) (map[uint64]db.DiscoverySettings, error) {
	out := make(map[uint64]db.DiscoverySettings, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	var rows []db.DiscoverySettings
	if err := r.db.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.UserID] = row
	}
	return out, nil
}

// UpsertSettings writes a user's discovery settings (preference updates).
func (r *ProfileRepository) UpsertSettings(ctx context.Context, settings *db.DiscoverySettings) error {
	return r.db.WithContext(ctx).Save(settings).Error
}

// CandidateSpec is the push-down filter for candidate queries.
type CandidateSpec struct {
	ViewerID        uint64
	ViewerGender    string
	PreferredGender string // db.GenderAny admits all
	MinAge          int
	MaxAge          int
	Now             time.Time
	Limit           int
}

// QueryCandidates returns profiles eligible to be shown to the viewer,
// pushing every predicate that SQL can express down to the store:
//
//  1. Not the viewer, visible, not banned.
//  2. No interaction of any kind viewer -> candidate (no swipe undo).
//  3. No block/report candidate -> viewer. The opposite direction is
//     already covered by (2): any viewer row, terminal included, excludes.
//  4. Mutual orientation: viewer's preferred gender admits the candidate,
//     and the candidate's settings admit the viewer. Candidates without a
//     settings row default to "any".
//  5. Candidate age within the viewer's [min_age, max_age].
//
// Distance cannot be pushed down (locations are geohashes) and is
// post-filtered by the caller, as is ranking. Limit bounds the scan.
func (r *ProfileRepository) QueryCandidates(ctx context.Context, spec CandidateSpec) ([]db.Profile, error) {
	// age n means born at most n years ago, age <= max means born after
	// the (max+1)-year boundary
	youngestBirth := spec.Now.AddDate(-spec.MinAge, 0, 0)
	oldestBirth := spec.Now.AddDate(-spec.MaxAge-1, 0, 0)

	query := r.db.WithContext(ctx).
		Table("profiles p").
		Select("p.*").
		Joins("LEFT JOIN discovery_settings s ON s.user_id = p.id").
		Where("p.id != ?", spec.ViewerID).
		Where("p.visible = ? AND p.banned = ?", true, false).
		Where("p.birth_date <= ? AND p.birth_date > ?", youngestBirth, oldestBirth).
		Where("(s.user_id IS NULL OR s.preferred_gender = ? OR s.preferred_gender = ?)",
			db.GenderAny, spec.ViewerGender).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM interactions iv
				WHERE iv.actor_id = ? AND iv.target_id = p.id
			)`, spec.ViewerID).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM interactions ic
				WHERE ic.actor_id = p.id
				  AND ic.target_id = ?
				  AND ic.type IN ?
			)`, spec.ViewerID, []db.InteractionType{db.TypeBlock, db.TypeReport})

	if spec.PreferredGender != db.GenderAny {
		query = query.Where("p.gender = ?", spec.PreferredGender)
	}

	// deterministic scan order so repeated calls page stably
	query = query.Order("p.created_at DESC, p.id ASC")
	if spec.Limit > 0 {
		query = query.Limit(spec.Limit)
	}

	var profiles []db.Profile
	if err := query.Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}
