// Package geo computes approximate separation between geohash-encoded
// locations. Geohash precision caps the resolution, which is the point:
// profiles never expose exact coordinates to the engine.
package geo

import (
	"math"

	"github.com/mmcloughlin/geohash"
)

const earthRadiusKM = 6371

// DistanceKM returns the great-circle distance in kilometers between the
// centers of two geohash cells. Symmetric in its arguments; two points
// sharing the full geohash evaluate to zero.
func DistanceKM(hashA, hashB string) float64 {
	latA, lngA := geohash.DecodeCenter(hashA)
	latB, lngB := geohash.DecodeCenter(hashB)
	return haversineKM(latA, lngA, latB, lngB)
}

func haversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKM * c
}

// DisplayKM rounds a distance up to the nearest whole kilometer for
// presentation. Threshold comparisons always use the unrounded value.
func DisplayKM(km float64) int {
	if km <= 0 {
		return 0
	}
	return int(math.Ceil(km))
}

// NearbyLabel is shown instead of a number when either party hides distance.
const NearbyLabel = "nearby"
