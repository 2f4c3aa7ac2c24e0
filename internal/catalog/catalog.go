// Package catalog holds the immutable credit cost catalog for the metered
// RPC API and resolves loosely-formatted method identifiers against it.
package catalog

import (
	"fmt"
	"sort"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// StreamingType is the catalog category billed per MB of transferred data.
const StreamingType = "data_streaming"

// Catalog provides lookups over the embedded credit cost table.
// All indexes are built once at construction; a Catalog is immutable
// afterwards and safe for concurrent use.
type Catalog struct {
	logger zerolog.Logger

	// canonical type -> canonical name -> cost model
	costs map[string]map[string]CostModel
	notes map[string]any

	// exact (type, name) membership for O(1) verbatim checks
	exact map[MethodKey]struct{}

	// normalized type -> canonical type
	typeIndex map[string]string

	// canonical type -> normalized name -> canonical name
	nameIndexByType map[string]map[string]string

	// normalized name -> every (type, name) sharing it, for cross-type
	// disambiguation when only the name is recognizable
	nameIndex map[string][]MethodKey

	typeOrder []string
}

// New parses the embedded catalog data and builds the lookup indexes.
func New(logger zerolog.Logger) (*Catalog, error) {
	var data rawCatalog
	if err := json.Unmarshal(rawCatalogJSON, &data); err != nil {
		return nil, fmt.Errorf("failed to parse catalog data: %w", err)
	}
	if len(data.CreditCosts) == 0 {
		return nil, fmt.Errorf("catalog data contains no credit costs")
	}

	c := &Catalog{
		logger:          logger,
		costs:           make(map[string]map[string]CostModel, len(data.CreditCosts)),
		notes:           data.Notes,
		exact:           make(map[MethodKey]struct{}),
		typeIndex:       make(map[string]string, len(data.CreditCosts)),
		nameIndexByType: make(map[string]map[string]string, len(data.CreditCosts)),
		nameIndex:       make(map[string][]MethodKey),
	}

	for methodType, methods := range data.CreditCosts {
		c.typeOrder = append(c.typeOrder, methodType)
		c.typeIndex[NormalizeKey(methodType)] = methodType

		models := make(map[string]CostModel, len(methods))
		nameMap := make(map[string]string, len(methods))
		for methodName, raw := range methods {
			model := CostModel{CreditsPerCall: raw.flat}
			if raw.perMB != nil {
				model = CostModel{
					PerMB:     true,
					CostPerMB: raw.perMB.CostPerMB,
					UnitMB:    raw.perMB.MB,
				}
			}
			models[methodName] = model

			key := MethodKey{Type: methodType, Name: methodName}
			c.exact[key] = struct{}{}

			normalized := NormalizeKey(methodName)
			nameMap[normalized] = methodName
			c.nameIndex[normalized] = append(c.nameIndex[normalized], key)
		}
		c.costs[methodType] = models
		c.nameIndexByType[methodType] = nameMap
	}
	sort.Strings(c.typeOrder)
	for _, keys := range c.nameIndex {
		sort.Slice(keys, func(i, j int) bool {
			if keys[i].Type != keys[j].Type {
				return keys[i].Type < keys[j].Type
			}
			return keys[i].Name < keys[j].Name
		})
	}

	logger.Debug().
		Int("types", len(c.costs)).
		Int("methods", len(c.exact)).
		Msg("catalog indexes built")

	return c, nil
}

// Lookup returns the cost model for a canonical (type, name) pair.
// Returns (model, true) if found, (zero, false) if not found.
func (c *Catalog) Lookup(key MethodKey) (CostModel, bool) {
	methods, ok := c.costs[key.Type]
	if !ok {
		return CostModel{}, false
	}
	model, ok := methods[key.Name]
	return model, ok
}

// Types returns the catalog's method types in stable (sorted) order.
func (c *Catalog) Types() []string {
	out := make([]string, len(c.typeOrder))
	copy(out, c.typeOrder)
	return out
}

// MethodNames returns the canonical method names for a type in stable order.
// Returns nil for an unknown type.
func (c *Catalog) MethodNames(methodType string) []string {
	methods, ok := c.costs[methodType]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(methods))
	for name := range methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Notes returns the catalog's billing notes for presentation surfaces.
func (c *Catalog) Notes() map[string]any {
	return c.notes
}

// DefaultStreamingMB returns the unit size of the first streaming catalog
// entry, used as the usage assumption when a streaming suggestion arrives
// without a bandwidth estimate. Returns (0, false) if the catalog has no
// streaming entries.
func (c *Catalog) DefaultStreamingMB() (float64, bool) {
	for _, name := range c.MethodNames(StreamingType) {
		model := c.costs[StreamingType][name]
		if model.PerMB && model.UnitMB > 0 {
			return model.UnitMB, true
		}
	}
	return 0, false
}

// UnmarshalJSON accepts either a bare number (flat credits per call) or a
// {cost_per_mb, mb} object.
func (r *rawCostModel) UnmarshalJSON(data []byte) error {
	var flat float64
	if err := json.Unmarshal(data, &flat); err == nil {
		r.flat = flat
		r.perMB = nil
		return nil
	}
	var perMB rawPerMB
	if err := json.Unmarshal(data, &perMB); err != nil {
		return fmt.Errorf("cost model is neither a number nor a per-MB object: %w", err)
	}
	r.perMB = &perMB
	return nil
}
