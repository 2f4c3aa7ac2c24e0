package catalog

// MethodKey identifies a billable method by its canonical (type, name) pair.
// methodType groups methods sharing a billing category (e.g. "rpc_calls").
type MethodKey struct {
	Type string `json:"methodType"`
	Name string `json:"methodName"`
}

// CostModel describes how calls to a method are billed.
// Flat methods charge CreditsPerCall per invocation. Per-MB methods
// (PerMB true) charge CostPerMB credits for every UnitMB megabytes of
// transferred data instead.
type CostModel struct {
	CreditsPerCall float64 `json:"creditsPerCall"`

	PerMB     bool    `json:"perMB"`
	CostPerMB float64 `json:"costPerMB,omitempty"`
	UnitMB    float64 `json:"unitMB,omitempty"`
}

// rawCatalog represents the embedded catalog JSON.
// Method costs are either a bare number (flat credits per call) or an
// object with cost_per_mb/mb fields, so values decode via rawCostModel.
type rawCatalog struct {
	CreditCosts map[string]map[string]rawCostModel `json:"credit_costs"`
	Notes       map[string]any                     `json:"notes"`
}

// rawCostModel accepts both catalog cost encodings.
type rawCostModel struct {
	flat  float64
	perMB *rawPerMB
}

// rawPerMB is the object form used by data_streaming entries.
type rawPerMB struct {
	CostPerMB float64 `json:"cost_per_mb"`
	MB        float64 `json:"mb"`
}
