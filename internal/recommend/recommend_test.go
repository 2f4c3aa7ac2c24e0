package recommend

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpcmeter/rpcmeter/internal/plans"
)

func f(v float64) *float64 { return &v }

func testPlan(id int, name string, price, credits, overage *float64) plans.Plan {
	return plans.Plan{
		ID:                       id,
		Name:                     name,
		MonthlyPriceUSD:          price,
		MonthlyCredits:           credits,
		OverageCostPerMillionUSD: overage,
	}
}

func TestEvaluatePlan(t *testing.T) {
	tests := []struct {
		name          string
		plan          plans.Plan
		creditsNeeded float64
		wantOK        bool
		wantTotal     string
		wantExtra     float64
		wantExtraUSD  string
	}{
		{
			name:          "within allowance",
			plan:          testPlan(1, "Developer", f(49), f(10_000_000), f(5)),
			creditsNeeded: 1500,
			wantOK:        true,
			wantTotal:     "49",
			wantExtraUSD:  "0",
		},
		{
			name:          "overage billed at marginal rate",
			plan:          testPlan(1, "Developer", f(49), f(1_000_000), f(5)),
			creditsNeeded: 1_500_000,
			wantOK:        true,
			wantTotal:     "51.5",
			wantExtra:     500_000,
			wantExtraUSD:  "2.5",
		},
		{
			name:          "custom tier has no deterministic option",
			plan:          testPlan(4, "Enterprise", nil, nil, nil),
			creditsNeeded: 10,
			wantOK:        false,
		},
		{
			name:          "exceeded allowance without overage support",
			plan:          testPlan(0, "Free", f(0), f(1_000_000), nil),
			creditsNeeded: 2_000_000,
			wantOK:        false,
		},
		{
			name:          "exact allowance boundary needs no overage",
			plan:          testPlan(1, "Developer", f(49), f(1500), f(5)),
			creditsNeeded: 1500,
			wantOK:        true,
			wantTotal:     "49",
			wantExtraUSD:  "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			option, ok := EvaluatePlan(tt.plan, tt.creditsNeeded)
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.True(t, option.TotalMonthlyUSD.Equal(decimal.RequireFromString(tt.wantTotal)),
				"total %s", option.TotalMonthlyUSD)
			assert.InDelta(t, tt.wantExtra, option.AdditionalCreditsNeeded, 1e-9)
			assert.True(t, option.AdditionalCreditsUSD.Equal(decimal.RequireFromString(tt.wantExtraUSD)),
				"extra USD %s", option.AdditionalCreditsUSD)
		})
	}
}

func TestCheapest(t *testing.T) {
	_, ok := Cheapest(nil)
	assert.False(t, ok)

	a, _ := EvaluatePlan(testPlan(1, "A", f(49), f(1_000_000), f(5)), 100)
	b, _ := EvaluatePlan(testPlan(2, "B", f(49), f(2_000_000), f(5)), 100)
	c, _ := EvaluatePlan(testPlan(3, "C", f(20), f(1_000_000), f(5)), 100)

	best, ok := Cheapest([]PlanCostOption{a, b, c})
	require.True(t, ok)
	assert.Equal(t, "C", best.Plan.Name)

	// Exact tie keeps the first (lower tier) option.
	best, ok = Cheapest([]PlanCostOption{a, b})
	require.True(t, ok)
	assert.Equal(t, "A", best.Plan.Name)
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	table, err := plans.Load()
	require.NoError(t, err)
	return NewEngine(table, zerolog.Nop())
}

func TestRecommendNotTriggeredWhenSufficient(t *testing.T) {
	engine := newTestEngine(t)
	dev, ok := engine.table.ByID(1)
	require.True(t, ok)

	// 1500 credits/month against a 10M allowance: nothing to recommend.
	_, triggered := engine.Recommend(dev, 1500)
	assert.False(t, triggered)
}

func TestRecommendStayWithAddOn(t *testing.T) {
	engine := newTestEngine(t)
	dev, ok := engine.table.ByID(1)
	require.True(t, ok)

	// 10.5M needed on Developer (10M allowance, $5/million overage):
	// 500k extra credits at $2.50 beats upgrading to Business at $499.
	rec, triggered := engine.Recommend(dev, 10_500_000)
	require.True(t, triggered)
	assert.Equal(t, ActionStay, rec.Action)
	require.NotNil(t, rec.Option)
	assert.True(t, rec.Option.TotalMonthlyUSD.Equal(decimal.RequireFromString("51.5")))
	assert.InDelta(t, 500_000, rec.Option.AdditionalCreditsNeeded, 1e-6)
	assert.Contains(t, rec.Summary, "stay on Developer")
	assert.Contains(t, rec.Summary, "500,000 extra credits")
	assert.Contains(t, rec.Summary, "$2.50 additional")
	assert.Contains(t, rec.Summary, "$51.50/month total")
}

func TestRecommendUpgrade(t *testing.T) {
	engine := newTestEngine(t)
	free, ok := engine.table.ByID(0)
	require.True(t, ok)

	// Free sells no add-on credits, so exceeding 1M forces an upgrade.
	// 5M needed: Developer at $49 covers it and is the cheapest higher tier.
	rec, triggered := engine.Recommend(free, 5_000_000)
	require.True(t, triggered)
	assert.Equal(t, ActionUpgrade, rec.Action)
	require.NotNil(t, rec.Option)
	assert.Equal(t, "Developer", rec.Option.Plan.Name)
	assert.True(t, rec.Option.TotalMonthlyUSD.Equal(decimal.RequireFromString("49")))
	assert.Contains(t, rec.Summary, "Recommended: Developer at $49.00/month")
}

func TestRecommendUpgradeBeatsExpensiveAddOn(t *testing.T) {
	engine := newTestEngine(t)
	dev, ok := engine.table.ByID(1)
	require.True(t, ok)

	// 110M on Developer: staying costs 49 + 100*5 = $549; Business needs
	// 10M extra for 499 + 50 = $549. Exact tie keeps the current plan.
	rec, triggered := engine.Recommend(dev, 110_000_000)
	require.True(t, triggered)
	assert.Equal(t, ActionStay, rec.Action)

	// Replace Developer's overage rate with an expensive one so upgrading
	// is strictly cheaper.
	pricey := testPlan(1, "Developer", f(49), f(10_000_000), f(100))
	rec, triggered = engine.Recommend(pricey, 110_000_000)
	require.True(t, triggered)
	assert.Equal(t, ActionUpgrade, rec.Action)
	require.NotNil(t, rec.Option)
	assert.Equal(t, "Business", rec.Option.Plan.Name)
}

func TestRecommendContactSales(t *testing.T) {
	// A capped top tier with no overage support and no higher plan leaves
	// only the contact-sales outcome.
	capped := testPlan(0, "Capped", f(10), f(1000), nil)
	engine := NewEngine(plans.NewTable([]plans.Plan{capped}), zerolog.Nop())

	rec, triggered := engine.Recommend(capped, 5000)
	require.True(t, triggered)
	assert.Equal(t, ActionContactSales, rec.Action)
	assert.Nil(t, rec.Option)
	assert.Contains(t, rec.Summary, "contact sales")
}
