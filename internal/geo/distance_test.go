package geo_test

import (
	"testing"

	"github.com/mmcloughlin/geohash"
	"github.com/stretchr/testify/assert"

	"github.com/emberapp/discovery/internal/geo"
)

func TestDistanceSymmetric(t *testing.T) {
	london := geohash.Encode(51.5074, -0.1278)
	paris := geohash.Encode(48.8566, 2.3522)

	ab := geo.DistanceKM(london, paris)
	ba := geo.DistanceKM(paris, london)

	assert.Equal(t, ab, ba)
	assert.Greater(t, ab, 300.0)
	assert.Less(t, ab, 400.0) // London-Paris is ~344 km
}

func TestDistanceSameGeohashNearZero(t *testing.T) {
	h := geohash.Encode(51.5074, -0.1278)
	assert.InDelta(t, 0, geo.DistanceKM(h, h), 0.001)
}

func TestDistanceNonNegative(t *testing.T) {
	a := geohash.Encode(35.6762, 139.6503)
	b := geohash.Encode(-33.8688, 151.2093)
	assert.GreaterOrEqual(t, geo.DistanceKM(a, b), 0.0)
}

func TestDisplayKMRoundsUp(t *testing.T) {
	assert.Equal(t, 0, geo.DisplayKM(0))
	assert.Equal(t, 1, geo.DisplayKM(0.2))
	assert.Equal(t, 3, geo.DisplayKM(2.01))
	assert.Equal(t, 3, geo.DisplayKM(3.0))
}
