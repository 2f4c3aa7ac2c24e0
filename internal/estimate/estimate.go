// Package estimate computes credit consumption projections for a list of
// usage entries. All functions are pure arithmetic over in-memory values:
// no I/O, no randomness, safe to call concurrently.
package estimate

import "github.com/rpcmeter/rpcmeter/internal/catalog"

// Frequency is the unit of a usage entry's call rate.
type Frequency string

const (
	FrequencyMinute Frequency = "minute"
	FrequencyDay    Frequency = "day"
)

const (
	minutesPerHour = 60
	hoursPerDay    = 24
	daysPerWeek    = 7

	// Planning estimates use fixed day multipliers rather than calendar
	// months. Downstream plan comparisons depend on these exact factors.
	daysPerMonth = 30
	daysPerYear  = 365
)

// UsageEntry is one line of projected usage against a resolved catalog
// method. MB is the estimated data volume per call and is meaningful only
// when Cost.PerMB is true; it is nil otherwise.
type UsageEntry struct {
	catalog.MethodKey
	Cost          catalog.CostModel `json:"cost"`
	CallRate      float64           `json:"callRate"`
	CallFrequency Frequency         `json:"callFrequency"`
	MB            *float64          `json:"mb"`
}

// CostBreakdown is the projected credit consumption across six windows.
// Purely derived, never stored.
type CostBreakdown struct {
	PerMinute float64 `json:"perMinute"`
	PerHour   float64 `json:"perHour"`
	PerDay    float64 `json:"perDay"`
	PerWeek   float64 `json:"perWeek"`
	PerMonth  float64 `json:"perMonth"`
	PerYear   float64 `json:"perYear"`
}

// CreditsPerCall returns the credits one call to the entry's method
// consumes. Per-MB methods scale by estimated data volume; a missing or
// non-positive volume or unit yields 0, never a negative value or a
// division by zero.
func CreditsPerCall(entry UsageEntry) float64 {
	if !entry.Cost.PerMB {
		return entry.Cost.CreditsPerCall
	}

	usageMB := 0.0
	if entry.MB != nil {
		usageMB = *entry.MB
	}
	if usageMB <= 0 || entry.Cost.UnitMB <= 0 {
		return 0
	}

	// If 0.1 MB costs 3 credits, 5 MB costs (5 / 0.1) * 3 = 150 credits.
	return (usageMB / entry.Cost.UnitMB) * entry.Cost.CostPerMB
}

// CreditsPerDay returns the credits the entry consumes over a day at its
// configured call rate.
func CreditsPerDay(entry UsageEntry) float64 {
	callsPerDay := entry.CallRate
	if entry.CallFrequency == FrequencyMinute {
		callsPerDay = entry.CallRate * minutesPerHour * hoursPerDay
	}
	return CreditsPerCall(entry) * callsPerDay
}

// ProjectTotals sums the daily credit consumption of every entry and
// derives the remaining windows from it. An empty entry list yields an
// all-zero breakdown.
func ProjectTotals(entries []UsageEntry) CostBreakdown {
	perDay := 0.0
	for _, entry := range entries {
		perDay += CreditsPerDay(entry)
	}

	perHour := perDay / hoursPerDay
	return CostBreakdown{
		PerMinute: perHour / minutesPerHour,
		PerHour:   perHour,
		PerDay:    perDay,
		PerWeek:   perDay * daysPerWeek,
		PerMonth:  perDay * daysPerMonth,
		PerYear:   perDay * daysPerYear,
	}
}
