// Package timeutil provides Unix-timestamp conversion helpers.
// The Steam Web API reports every timestamp as Unix seconds, often in
// optional fields; these helpers keep the nil/zero handling in one place.
// No external dependencies - uses only standard library.
package timeutil

import "time"

// FromUnix converts Unix seconds to a UTC time.
func FromUnix(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

// FromUnixPtr converts optional Unix seconds to an optional UTC time.
// nil and zero both map to nil: Steam uses 0 for "not set".
func FromUnixPtr(sec *int64) *time.Time {
	if sec == nil || *sec == 0 {
		return nil
	}
	t := FromUnix(*sec)
	return &t
}

// MinutesToHours converts playtime minutes to fractional hours.
func MinutesToHours(minutes int64) float64 {
	return float64(minutes) / 60.0
}

// RoundHours rounds hours to one decimal, the precision the SPA
// renders.
func RoundHours(hours float64) float64 {
	return float64(int64(hours*10+0.5)) / 10
}
