// Package geofence validates where a clock request comes from: the client
// network origin against an allow-list and the reported coordinates against
// a radius around the office reference point.
package geofence

import (
	"fmt"
	"math"
)

const earthRadiusMeters = 6371000

// Policy is the effective geo policy at request time. It is loaded fresh per
// request from settings storage and never mutated by the attendance core.
type Policy struct {
	Latitude     float64  `json:"latitude"`
	Longitude    float64  `json:"longitude"`
	RadiusMeters float64  `json:"radius"`
	AllowedIPs   []string `json:"-"`
}

// OriginError reports a client address outside the allow-list.
type OriginError struct {
	Address string
}

func (e *OriginError) Error() string {
	return fmt.Sprintf("access denied, IP %s not allowed", e.Address)
}

// GeofenceError reports coordinates outside the accepted radius. Distance is
// rounded to two decimals for user feedback.
type GeofenceError struct {
	DistanceMeters float64
	RadiusMeters   float64
}

func (e *GeofenceError) Error() string {
	return fmt.Sprintf("you are %.2fm away, must be within %.0fm", e.DistanceMeters, e.RadiusMeters)
}

// DistanceMeters computes the great-circle distance between two coordinates
// using the haversine formula. Inputs are in degrees.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// CheckOrigin reports whether addr is an exact member of the allow-list.
// No CIDR matching: ranges must be expanded into individual entries.
func CheckOrigin(addr string, allowList []string) bool {
	for _, allowed := range allowList {
		if addr == allowed {
			return true
		}
	}
	return false
}

// CheckGeofence reports whether the distance is within the radius.
// The boundary itself is inside.
func CheckGeofence(distanceMeters, radiusMeters float64) bool {
	return distanceMeters <= radiusMeters
}

// Check runs the composed gate: origin first (the cheap check), then the
// geofence. On success it returns the measured distance from the reference
// point, rounded to two decimals.
func (p *Policy) Check(addr string, lat, lon float64) (float64, error) {
	if !CheckOrigin(addr, p.AllowedIPs) {
		return 0, &OriginError{Address: addr}
	}

	distance := DistanceMeters(p.Latitude, p.Longitude, lat, lon)
	rounded := math.Round(distance*100) / 100
	if !CheckGeofence(distance, p.RadiusMeters) {
		return rounded, &GeofenceError{DistanceMeters: rounded, RadiusMeters: p.RadiusMeters}
	}
	return rounded, nil
}
