// Package suggest turns untrusted method suggestions produced by an
// external LLM into catalog-valid usage entries. Unsalvageable suggestions
// are dropped silently so a partially useful batch still goes through.
package suggest

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/rpcmeter/rpcmeter/internal/catalog"
	"github.com/rpcmeter/rpcmeter/internal/estimate"
)

// RawSuggestion is one untrusted suggestion from the LLM collaborator.
// Every field may be malformed or missing; numeric pointers are nil when
// the upstream response omitted or garbled them. RawSuggestions live for a
// single sanitization pass and are never persisted.
type RawSuggestion struct {
	MethodType    string   `json:"methodType"`
	MethodName    string   `json:"methodName"`
	CallRate      *float64 `json:"callRate,omitempty"`
	CallFrequency string   `json:"callFrequency,omitempty"`
	MB            *float64 `json:"mb,omitempty"`
}

// Batch is the sanitized result of one LLM turn. Covered echoes the
// methods that were already selected upstream so callers can keep their
// lists deduplicated; ReplaceExisting is propagated from the LLM response
// and tells the caller to swap rather than append.
type Batch struct {
	Entries         []estimate.UsageEntry `json:"suggestedMethods"`
	Covered         []catalog.MethodKey   `json:"coveredMethods,omitempty"`
	ReplaceExisting bool                  `json:"replaceExistingMethods"`
}

// Sanitizer validates raw suggestions against the catalog and fills gaps
// with domain heuristics. The heuristic hooks default to the package
// policies and are swappable for tuning.
type Sanitizer struct {
	catalog *catalog.Catalog
	logger  zerolog.Logger

	prefersMinute func(message string) bool
	entityCount   func(message string) (float64, bool)
}

// NewSanitizer creates a Sanitizer bound to a catalog.
func NewSanitizer(c *catalog.Catalog, logger zerolog.Logger) *Sanitizer {
	return &Sanitizer{
		catalog:       c,
		logger:        logger,
		prefersMinute: prefersMinuteFrequency,
		entityCount:   extractEntityCount,
	}
}

// Sanitize converts a raw suggestion batch into catalog-valid usage
// entries. message is the user's original free-text request and drives the
// frequency and call-rate heuristics; selected lists methods the caller
// already has, echoed back in the result; replaceExisting is propagated
// unchanged.
//
// Per suggestion: the name must be non-empty and the (type, name) pair must
// resolve against the catalog, otherwise the suggestion is dropped. An
// invalid call rate falls back to a count extracted from the request text,
// then to 1. An invalid frequency defaults to "day", and real-time request
// vocabulary upgrades "day" to "minute" (an explicit "minute" is never
// downgraded). Streaming suggestions without a bandwidth estimate receive
// the catalog's default unit size so their cost is never silently zero.
func (s *Sanitizer) Sanitize(message string, raw []RawSuggestion, selected []catalog.MethodKey, replaceExisting bool) Batch {
	preferMinute := s.prefersMinute(message)
	fallbackRate, hasFallbackRate := s.entityCount(message)

	batch := Batch{
		Covered:         selected,
		ReplaceExisting: replaceExisting,
	}

	for _, suggestion := range raw {
		if suggestion.MethodName == "" {
			s.logger.Debug().Str("method_type", suggestion.MethodType).
				Msg("dropping suggestion without a method name")
			continue
		}

		key, ok := s.catalog.Resolve(suggestion.MethodType, suggestion.MethodName)
		if !ok {
			s.logger.Debug().
				Str("method_type", suggestion.MethodType).
				Str("method_name", suggestion.MethodName).
				Msg("dropping unresolvable suggestion")
			continue
		}
		cost, ok := s.catalog.Lookup(key)
		if !ok {
			// Resolve only returns catalog keys; a miss here is a bug.
			s.logger.Error().
				Str("method_type", key.Type).
				Str("method_name", key.Name).
				Msg("resolved method missing from catalog")
			continue
		}

		callRate := 1.0
		switch {
		case isPositiveFinite(suggestion.CallRate):
			callRate = *suggestion.CallRate
		case hasFallbackRate:
			callRate = fallbackRate
		}

		frequency := estimate.FrequencyDay
		if suggestion.CallFrequency == string(estimate.FrequencyMinute) {
			frequency = estimate.FrequencyMinute
		}
		if preferMinute && frequency == estimate.FrequencyDay {
			frequency = estimate.FrequencyMinute
		}

		var mb *float64
		if isPositiveFinite(suggestion.MB) {
			value := *suggestion.MB
			mb = &value
		} else if key.Type == catalog.StreamingType {
			if unit, ok := s.catalog.DefaultStreamingMB(); ok {
				mb = &unit
			}
		}

		batch.Entries = append(batch.Entries, estimate.UsageEntry{
			MethodKey:     key,
			Cost:          cost,
			CallRate:      callRate,
			CallFrequency: frequency,
			MB:            mb,
		})
	}

	s.logger.Debug().
		Int("raw", len(raw)).
		Int("kept", len(batch.Entries)).
		Bool("replace_existing", batch.ReplaceExisting).
		Msg("suggestion batch sanitized")

	return batch
}

func isPositiveFinite(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0) && *v > 0
}
