package discovery

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/emberapp/discovery/internal/db"
	svcErr "github.com/emberapp/discovery/internal/errors"
)

// ResolvePreferences loads the user's discovery settings, falling back to
// system defaults for users who never touched theirs.
//
// A user with a profile but no settings row gets defaults. A user without
// a profile at all is ErrNotFound; the two cases are distinct on purpose.
func (s *Service) ResolvePreferences(ctx context.Context, userID uint64) (db.DiscoverySettings, error) {
	if _, err := s.profiles.GetProfile(ctx, userID); err != nil {
		return db.DiscoverySettings{}, err
	}

	settings, err := s.profiles.GetSettings(ctx, userID)
	switch {
	case err == nil:
		s.applyCeilings(&settings)
		return settings, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return s.defaultSettings(userID), nil
	default:
		return db.DiscoverySettings{}, fmt.Errorf("load settings: %w", err)
	}
}

// UpdatePreferences stores a user's discovery settings.
func (s *Service) UpdatePreferences(ctx context.Context, settings db.DiscoverySettings) error {
	if _, err := s.profiles.GetProfile(ctx, settings.UserID); err != nil {
		return err
	}
	if settings.MinAge > settings.MaxAge {
		return svcErr.InvalidOperation("min_age must not exceed max_age")
	}
	if settings.PreferredGender == "" {
		settings.PreferredGender = db.GenderAny
	}
	s.applyCeilings(&settings)
	return s.profiles.UpsertSettings(ctx, &settings)
}

func (s *Service) defaultSettings(userID uint64) db.DiscoverySettings {
	d := s.appCtx.Config.Discovery
	return db.DiscoverySettings{
		UserID:          userID,
		MinAge:          d.DefaultMinAge,
		MaxAge:          d.DefaultMaxAge,
		MaxDistanceKM:   d.MaxDistanceCeilingKM,
		PreferredGender: db.GenderAny,
	}
}

// applyCeilings clamps stored values to the configured system bounds.
func (s *Service) applyCeilings(settings *db.DiscoverySettings) {
	d := s.appCtx.Config.Discovery
	if settings.MinAge < d.DefaultMinAge {
		settings.MinAge = d.DefaultMinAge
	}
	if settings.MaxDistanceKM <= 0 || settings.MaxDistanceKM > d.MaxDistanceCeilingKM {
		settings.MaxDistanceKM = d.MaxDistanceCeilingKM
	}
}
