// Package geofence classifies a device position against circular work-site zones.
package geofence

import "math"

const earthRadiusMeters = 6371000.0

type Point struct {
	Latitude       float64
	Longitude      float64
	AccuracyMeters float64
}

type Zone struct {
	ID           string
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
}

type ZoneDistance struct {
	Zone           Zone
	DistanceMeters float64
	WithinRange    bool
}

type Result struct {
	Zones   []ZoneDistance
	InRange bool
	// Nearest is nil when no zones were evaluated.
	Nearest *ZoneDistance
}

// DistanceMeters returns the great-circle distance between two coordinates using
// the haversine formula on a spherical earth.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := toRadians(lat1)
	phi2 := toRadians(lat2)
	dPhi := toRadians(lat2 - lat1)
	dLambda := toRadians(lon2 - lon1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}

// Evaluate measures p against every zone. A point exactly on the boundary is in range.
func Evaluate(p Point, zones []Zone) Result {
	res := Result{Zones: make([]ZoneDistance, 0, len(zones))}
	nearest := -1

	for _, z := range zones {
		d := DistanceMeters(p.Latitude, p.Longitude, z.Latitude, z.Longitude)
		zd := ZoneDistance{
			Zone:           z,
			DistanceMeters: d,
			WithinRange:    d <= z.RadiusMeters,
		}
		res.Zones = append(res.Zones, zd)
		if zd.WithinRange {
			res.InRange = true
		}
		if nearest < 0 || d < res.Zones[nearest].DistanceMeters {
			nearest = len(res.Zones) - 1
		}
	}

	if nearest >= 0 {
		n := res.Zones[nearest]
		res.Nearest = &n
	}
	return res
}

// DistanceOutside is how far p is beyond the closest zone edge, which need not
// belong to the zone with the closest centre. Zero when in range or without zones.
func (r Result) DistanceOutside() float64 {
	if len(r.Zones) == 0 || r.InRange {
		return 0
	}
	best := math.Inf(1)
	for _, zd := range r.Zones {
		best = math.Min(best, zd.DistanceMeters-zd.Zone.RadiusMeters)
	}
	return math.Max(best, 0)
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
