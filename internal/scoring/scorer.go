// Package scoring computes a deterministic 0-100 compatibility score
// between two profiles from shared attributes. The score is symmetric:
// every factor depends only on the unordered pair.
package scoring

import (
	"math"
	"time"

	"github.com/emberapp/discovery/internal/config"
	"github.com/emberapp/discovery/internal/db"
)

// Weights partition the 100-point scale between factors.
type Weights struct {
	Interests int
	Goal      int
	Age       int
	Lifestyle int
}

// WeightsFromConfig reads the configured factor weights.
func WeightsFromConfig(cfg *config.Config) Weights {
	return Weights{
		Interests: cfg.Score.InterestsWeight,
		Goal:      cfg.Score.GoalWeight,
		Age:       cfg.Score.AgeWeight,
		Lifestyle: cfg.Score.LifestyleWeight,
	}
}

// Breakdown carries the per-factor contributions of a score.
type Breakdown struct {
	Interests int
	Goal      int
	Age       int
	Lifestyle int
}

// Total sums the factor contributions, clamped to [0, 100].
func (b Breakdown) Total() int {
	total := b.Interests + b.Goal + b.Age + b.Lifestyle
	if total < 0 {
		return 0
	}
	if total > 100 {
		return 100
	}
	return total
}

type Scorer struct {
	w Weights
}

func NewScorer(w Weights) *Scorer {
	return &Scorer{w: w}
}

// Score returns the compatibility score for a pair of profiles at the
// given time. Time only enters through ages, so identical inputs always
// produce identical scores.
func (s *Scorer) Score(a, b *db.Profile, now time.Time) int {
	return s.ScoreBreakdown(a, b, now).Total()
}

// ScoreBreakdown computes the per-factor contributions.
func (s *Scorer) ScoreBreakdown(a, b *db.Profile, now time.Time) Breakdown {
	return Breakdown{
		Interests: scale(jaccard(a.InterestSet(), b.InterestSet()), s.w.Interests),
		Goal:      scale(goalAlignment(a.Goal, b.Goal), s.w.Goal),
		Age:       scale(ageProximity(a.Age(now), b.Age(now)), s.w.Age),
		Lifestyle: scale(lifestyleOverlap(a, b), s.w.Lifestyle),
	}
}

// jaccard is |A∩B| / |A∪B|; empty sets score zero.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared := 0
	for k := range a {
		if _, ok := b[k]; ok {
			shared++
		}
	}
	union := len(a) + len(b) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}

// goalAlignment gives full credit when stated goals coincide and partial
// credit otherwise, so one mismatched goal never zeroes the pair out.
func goalAlignment(a, b string) float64 {
	if a != "" && a == b {
		return 1
	}
	return 0.4
}

// ageProximity decays linearly with the absolute age gap, reaching the
// floor of zero at ten years apart.
func ageProximity(ageA, ageB int) float64 {
	gap := math.Abs(float64(ageA - ageB))
	v := 1 - gap/10
	if v < 0 {
		return 0
	}
	return v
}

// lifestyleOverlap grants equal partial credit per matching axis.
func lifestyleOverlap(a, b *db.Profile) float64 {
	matches := 0
	if a.Smoking == b.Smoking {
		matches++
	}
	if a.Drinking == b.Drinking {
		matches++
	}
	if a.WantsChildren == b.WantsChildren {
		matches++
	}
	return float64(matches) / 3
}

func scale(fraction float64, weight int) int {
	return int(math.Round(fraction * float64(weight)))
}
