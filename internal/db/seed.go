package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/mmcloughlin/geohash"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var seedInterests = [][]string{
	{"hiking", "jazz", "cooking"},
	{"hiking", "travel"},
	{"film", "jazz"},
	{"running", "cooking", "travel"},
	{"film", "board games"},
	{"climbing", "travel", "jazz"},
	{"yoga", "cooking"},
	{"running", "film"},
}

var seedGoals = []string{"serious", "casual", "friends"}

// SeedTestData resets the database and populates it with demo profiles,
// discovery settings and interactions.
//
// Behavior:
//  1. Clears existing data in all engine tables.
//  2. Creates 20 profiles (10 male, 10 female) scattered around one city
//     so distance filters have something to bite on.
//  3. Creates default-ish discovery settings per profile.
//  4. Generates ~200 interactions with ~70% likes, and every 3rd ensures
//     a mutual like so matches exist out of the box.
//
// Compatible with both MySQL and SQLite.
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	// --- Fresh start ---
	for _, table := range []string{"rate_limit_counters", "matches", "interactions", "discovery_settings", "profiles"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	switch db.Dialector.Name() {
	case "mysql":
		db.Exec("ALTER TABLE profiles AUTO_INCREMENT = 1")
	case "sqlite":
		db.Exec("DELETE FROM sqlite_sequence WHERE name = 'profiles'")
	}

	log.Println("Cleared existing data")

	// --- Seed profiles around central London ---
	const baseLat, baseLng = 51.5074, -0.1278
	for i := 1; i <= 20; i++ {
		gender := "male"
		if i > 10 {
			gender = "female"
		}

		// jitter up to roughly +-20km
		lat := baseLat + (r.Float64()-0.5)*0.36
		lng := baseLng + (r.Float64()-0.5)*0.58

		age := 21 + r.Intn(20)
		profile := Profile{
			DisplayName:   fmt.Sprintf("demo%d", i),
			BirthDate:     time.Now().UTC().AddDate(-age, 0, -r.Intn(300)),
			Gender:        gender,
			Geohash:       geohash.Encode(lat, lng),
			Interests:     JoinInterests(seedInterests[r.Intn(len(seedInterests))]),
			Goal:          seedGoals[r.Intn(len(seedGoals))],
			Smoking:       r.Intn(100) < 20,
			Drinking:      r.Intn(100) < 60,
			WantsChildren: r.Intn(100) < 50,
			Visible:       true,
		}
		if err := db.Create(&profile).Error; err != nil {
			return fmt.Errorf("failed to seed profile: %w", err)
		}

		preferred := "female"
		if gender == "female" {
			preferred = "male"
		}
		settings := DiscoverySettings{
			UserID:          profile.ID,
			MinAge:          18,
			MaxAge:          55,
			MaxDistanceKM:   50,
			PreferredGender: preferred,
		}
		if err := db.Create(&settings).Error; err != nil {
			return fmt.Errorf("failed to seed settings: %w", err)
		}
	}
	log.Println("Seeded 20 profiles with settings.")

	// --- Seed interactions (~200) ---
	upsert := clause.OnConflict{
		Columns:   []clause.Column{{Name: "actor_id"}, {Name: "target_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"type", "updated_at"}),
	}

	counter := 0
	for actorID := 1; actorID <= 20; actorID++ {
		for j := 0; j < 12; j++ {
			targetID := uint64(r.Intn(20) + 1)
			if uint64(actorID) == targetID {
				continue
			}

			var actor, target Profile
			if err := db.First(&actor, actorID).Error; err != nil {
				continue
			}
			if err := db.First(&target, targetID).Error; err != nil {
				continue
			}
			if actor.Gender == target.Gender {
				continue
			}

			// like probability 70%
			kind := TypePass
			if r.Intn(100) < 70 {
				kind = TypeLike
			}

			// guarantee mutual likes every 3rd pair
			if counter%3 == 0 {
				kind = TypeLike
				recip := Interaction{
					ActorID:  targetID,
					TargetID: uint64(actorID),
					Type:     TypeLike,
				}
				db.Clauses(upsert).Create(&recip)
			}

			interaction := Interaction{
				ActorID:  uint64(actorID),
				TargetID: targetID,
				Type:     kind,
			}
			if err := db.Clauses(upsert).Create(&interaction).Error; err != nil {
				return fmt.Errorf("failed to seed interaction: %w", err)
			}

			counter++
		}
	}

	return nil
}
