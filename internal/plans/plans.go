// Package plans holds the provider's pricing plan table as immutable
// reference data loaded once from the embedded JSON.
package plans

import (
	_ "embed"
	"fmt"
	"sort"

	json "github.com/goccy/go-json"
)

//go:embed data/plans.json
var rawPlansJSON []byte

// RateLimits describes a plan's request rate ceilings.
// nil means unlimited or negotiated per contract.
type RateLimits struct {
	RPCRequestsPerSecond      *float64 `json:"rpc_requests_per_second"`
	SendTransactionsPerSecond *float64 `json:"send_transactions_per_second"`
	DASRequestsPerSecond      *float64 `json:"das_requests_per_second"`
}

// Features lists what a plan tier includes beyond raw credits.
type Features struct {
	StakedConnections       bool   `json:"staked_connections"`
	LaserstreamDevnetAccess bool   `json:"laserstream_devnet_access"`
	LaserstreamMainnet      bool   `json:"laserstream_mainnet_access"`
	EnhancedWebsockets      bool   `json:"enhanced_websockets"`
	SupportLevel            string `json:"support_level"`
}

// Plan is one pricing tier. Plans are ordered by ascending ID, which also
// orders them by capability: a "higher plan" is one with a larger ID.
// MonthlyPriceUSD and MonthlyCredits are nil for custom/contact-sales tiers;
// OverageCostPerMillionUSD is nil when the tier sells no add-on credits.
type Plan struct {
	ID                       int        `json:"id"`
	Name                     string     `json:"name"`
	MonthlyPriceUSD          *float64   `json:"price_per_month_usd"`
	MonthlyCredits           *float64   `json:"monthly_credits"`
	RateLimits               RateLimits `json:"rate_limits"`
	IncludedFeatures         Features   `json:"included_features"`
	OverageCostPerMillionUSD *float64   `json:"additional_credits_cost_per_million_usd"`
	Notes                    string     `json:"notes,omitempty"`
}

// Table is the ordered, immutable plan list.
type Table struct {
	plans []Plan
}

// NewTable builds a table from an explicit plan list, ordered by ID.
func NewTable(list []Plan) *Table {
	plans := make([]Plan, len(list))
	copy(plans, list)
	sort.Slice(plans, func(i, j int) bool { return plans[i].ID < plans[j].ID })
	return &Table{plans: plans}
}

// Load parses the embedded plan table.
func Load() (*Table, error) {
	var plans []Plan
	if err := json.Unmarshal(rawPlansJSON, &plans); err != nil {
		return nil, fmt.Errorf("failed to parse plan data: %w", err)
	}
	if len(plans) == 0 {
		return nil, fmt.Errorf("plan data contains no plans")
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].ID < plans[j].ID })
	return &Table{plans: plans}, nil
}

// All returns every plan in ascending ID order.
func (t *Table) All() []Plan {
	out := make([]Plan, len(t.plans))
	copy(out, t.plans)
	return out
}

// ByID returns the plan with the given ID.
// Returns (plan, true) if found, (zero, false) if not found.
func (t *Table) ByID(id int) (Plan, bool) {
	for _, p := range t.plans {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}

// HigherThan returns every plan with an ID strictly greater than id,
// in ascending ID order.
func (t *Table) HigherThan(id int) []Plan {
	var out []Plan
	for _, p := range t.plans {
		if p.ID > id {
			out = append(out, p)
		}
	}
	return out
}
