package geofence

import (
	"math"

	"github.com/FACorreiaa/go-family-journey/internal/types"
)

// earthRadiusMeters is the mean Earth radius used by the haversine formula.
const earthRadiusMeters = 6371000.0

// Detector classifies physical arrival at a POI from raw GPS coordinates.
// It is deterministic and does no I/O.
type Detector struct{}

func NewDetector() *Detector {
	return &Detector{}
}

// DistanceMeters computes the great-circle distance between two coordinates
// with the haversine formula. Standard haversine behaves correctly near the
// poles and across the ±180° meridian, so there is no special-casing here.
func (d *Detector) DistanceMeters(a, b types.Coordinates) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lon1 := a.Longitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	lon2 := b.Longitude * math.Pi / 180

	dLat := lat2 - lat1
	dLon := lon2 - lon1

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Asin(math.Sqrt(h))

	return earthRadiusMeters * c
}

// CheckArrival reports whether current is within the POI's arrival radius,
// boundary inclusive. Malformed coordinates are rejected before any distance
// computation and no state is touched.
func (d *Detector) CheckArrival(current types.Coordinates, poi types.POI) (types.ArrivalCheck, error) {
	if err := current.Validate(); err != nil {
		return types.ArrivalCheck{}, err
	}

	distance := d.DistanceMeters(current, poi.Coordinates)
	return types.ArrivalCheck{
		Arrived:        distance <= poi.ArrivalRadiusMeters,
		POIID:          poi.ID,
		POIName:        poi.Name,
		POIIndex:       poi.Order,
		DistanceMeters: distance,
	}, nil
}

// Nearest scans all POIs and returns the closest one with its distance.
// Returns false when the slice is empty.
func (d *Detector) Nearest(current types.Coordinates, pois []types.POI) (types.POI, float64, bool) {
	if err := current.Validate(); err != nil {
		return types.POI{}, 0, false
	}

	var closest types.POI
	minDistance := math.Inf(1)
	found := false
	for _, poi := range pois {
		distance := d.DistanceMeters(current, poi.Coordinates)
		if distance < minDistance {
			minDistance = distance
			closest = poi
			found = true
		}
	}
	return closest, minDistance, found
}
