package suggest

import (
	"regexp"
	"strconv"
)

// The free-text heuristics are approximate by nature; they live behind the
// Sanitizer's policy fields so they can be tuned without touching the
// resolution or costing code.

// realTimePattern matches vocabulary that implies continuous, low-latency
// usage: indexing, subscriptions, streaming, websockets, push delivery.
var realTimePattern = regexp.MustCompile(`(?i)indexer|subscribe|subscription|stream|streaming|websocket|laserstream|real[- ]?time`)

// entityCountPattern captures "<integer> <countable noun>" phrases such as
// "track 20 wallets". The integer feeds the call-rate fallback.
var entityCountPattern = regexp.MustCompile(`(?i)\b(\d{1,6})\s*(wallets?|addresses?|accounts?|users?|collections?|mints?|tokens?)\b`)

// prefersMinuteFrequency reports whether the request text implies per-minute
// usage rather than scheduled or batch workloads.
func prefersMinuteFrequency(message string) bool {
	return realTimePattern.MatchString(message)
}

// extractEntityCount returns the integer of the first "<n> <entities>"
// phrase in the request text. Returns (0, false) when no positive count is
// present.
func extractEntityCount(message string) (float64, bool) {
	match := entityCountPattern.FindStringSubmatch(message)
	if match == nil {
		return 0, false
	}
	value, err := strconv.Atoi(match[1])
	if err != nil || value <= 0 {
		return 0, false
	}
	return float64(value), true
}
