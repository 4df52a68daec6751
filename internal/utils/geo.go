package utils

import (
	"time"

	"github.com/bradfitz/latlong"
	"github.com/umahmood/haversine"
)

/*────────────────────────────────────────────────────────────────────────────
  DistanceMiles uses Haversine for a direct “as-the-crow-flies” distance.
────────────────────────────────────────────────────────────────────────────*/
func DistanceMiles(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := haversine.Coord{Lat: lat1, Lon: lon1}
	p2 := haversine.Coord{Lat: lat2, Lon: lon2}
	mi, _ := haversine.Distance(p1, p2)
	return mi
}

// LocationForCoordinates resolves the IANA zone for a coordinate pair.
// Falls back to the named zone, then UTC, when the lookup misses.
func LocationForCoordinates(lat, lng float64, fallbackTZ string) *time.Location {
	if lat != 0 || lng != 0 {
		if tzName := latlong.LookupZoneName(lat, lng); tzName != "" {
			if loc, err := time.LoadLocation(tzName); err == nil {
				return loc
			}
		}
	}
	return LoadLocation(fallbackTZ)
}

func LoadLocation(tz string) *time.Location {
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DateOnly returns midnight UTC of t's calendar day as seen in t's own location.
// All appointment and slot dates are stored this way.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateOnlyInLocation is DateOnly for the calendar day t falls on in loc.
func DateOnlyInLocation(t time.Time, loc *time.Location) time.Time {
	return DateOnly(t.In(loc))
}
