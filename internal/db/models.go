package db

import (
	"strings"
	"time"
)

// InteractionType is the closed set of swipe actions.
type InteractionType string

const (
	TypeLike      InteractionType = "like"
	TypePass      InteractionType = "pass"
	TypeSuperlike InteractionType = "superlike"
	TypeBlock     InteractionType = "block"
	TypeReport    InteractionType = "report"
)

// IsValid reports whether t is a recognized interaction type.
func (t InteractionType) IsValid() bool {
	switch t {
	case TypeLike, TypePass, TypeSuperlike, TypeBlock, TypeReport:
		return true
	default:
		return false
	}
}

// Positive reports whether t expresses interest (can form a match).
func (t InteractionType) Positive() bool {
	return t == TypeLike || t == TypeSuperlike
}

// Terminal reports whether t permanently suppresses the pair.
// A terminal row is never overwritten by later swipes.
func (t InteractionType) Terminal() bool {
	return t == TypeBlock || t == TypeReport
}

// Profile is the read-only view of a user held by the engine.
// Ownership and mutation belong to the profile-management service;
// the engine only queries it (plus dev seeding).
type Profile struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement"`
	DisplayName   string    `gorm:"size:64;not null"`
	BirthDate     time.Time `gorm:"not null"`
	Gender        string    `gorm:"size:16;not null"`
	Geohash       string    `gorm:"size:12;not null"`
	Interests     string    `gorm:"size:512"` // comma-joined, see InterestSet
	Goal          string    `gorm:"size:32"`
	Smoking       bool      `gorm:"not null;default:false"`
	Drinking      bool      `gorm:"not null;default:false"`
	WantsChildren bool      `gorm:"not null;default:false"`
	Visible       bool      `gorm:"not null;default:true"`
	Banned        bool      `gorm:"not null;default:false"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

// InterestSet splits the stored interest list into a set.
func (p *Profile) InterestSet() map[string]struct{} {
	set := make(map[string]struct{})
	for _, s := range strings.Split(p.Interests, ",") {
		s = strings.TrimSpace(strings.ToLower(s))
		if s != "" {
			set[s] = struct{}{}
		}
	}
	return set
}

// Age returns the profile's age in whole years at the given time.
func (p *Profile) Age(now time.Time) int {
	years := now.Year() - p.BirthDate.Year()
	anniversary := p.BirthDate.AddDate(years, 0, 0)
	if anniversary.After(now) {
		years--
	}
	return years
}

// JoinInterests is the inverse of InterestSet for writes from seeding.
func JoinInterests(interests []string) string {
	return strings.Join(interests, ",")
}

// DiscoverySettings holds a user's candidate filters, one row per user.
// Missing rows fall back to system defaults in the preference resolver.
type DiscoverySettings struct {
	UserID          uint64    `gorm:"primaryKey"`
	MinAge          int       `gorm:"not null"`
	MaxAge          int       `gorm:"not null"`
	MaxDistanceKM   float64   `gorm:"not null"`
	PreferredGender string    `gorm:"size:16;not null;default:any"`
	HideDistance    bool      `gorm:"not null;default:false"`
	HideAge         bool      `gorm:"not null;default:false"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

// GenderAny matches every candidate gender.
const GenderAny = "any"

// Admits reports whether the preferred gender admits the given one.
func (s *DiscoverySettings) Admits(gender string) bool {
	return s.PreferredGender == GenderAny || s.PreferredGender == gender
}

// Interaction represents an actor's swipe on a target.
//
// Composite PK: (ActorID, TargetID)
//   - Ensures a single row per ordered pair (overwrite guarantee).
//   - Terminal types (block/report) are never overwritten; see repository.
//
// Indexes:
//   - idx_target_type_updated_actor(target_id, type, updated_at DESC, actor_id)
//     Optimizes "who liked me" lists with pagination.
//   - idx_actor_target_type(actor_id, target_id, type)
//     Optimizes O(1) reciprocity and block checks.
type Interaction struct {
	ActorID   uint64          `gorm:"primaryKey;index:idx_actor_target_type,priority:1"`
	TargetID  uint64          `gorm:"primaryKey;index:idx_target_type_updated_actor,priority:1;index:idx_actor_target_type,priority:2"`
	Type      InteractionType `gorm:"size:16;not null;index:idx_target_type_updated_actor,priority:2;index:idx_actor_target_type,priority:3"`
	CreatedAt time.Time       `gorm:"autoCreateTime"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime;index:idx_target_type_updated_actor,priority:3,sort:desc"`
}

// Match joins two users who liked each other.
// Canonical ordering UserLowID < UserHighID makes the unordered pair unique
// regardless of whose like completed it. Never deleted by the engine.
type Match struct {
	UserLowID  uint64    `gorm:"primaryKey"`
	UserHighID uint64    `gorm:"primaryKey"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

// NewMatch builds the canonical match row for an unordered user pair.
func NewMatch(a, b uint64) Match {
	if a > b {
		a, b = b, a
	}
	return Match{UserLowID: a, UserHighID: b}
}

// Contains reports whether the match involves the given user.
func (m *Match) Contains(userID uint64) bool {
	return m.UserLowID == userID || m.UserHighID == userID
}

// RateLimitCounter tracks consumption of a bounded resource in a fixed
// window. Incremented in the same transaction as the write it gates.
type RateLimitCounter struct {
	UserID      uint64    `gorm:"primaryKey"`
	Quota       string    `gorm:"primaryKey;size:32"`
	WindowStart time.Time `gorm:"primaryKey"`
	Count       int       `gorm:"not null;default:0"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}
