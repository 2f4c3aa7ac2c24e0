// Package recommend compares pricing plans against a monthly credit
// requirement and picks the most economical option, including partial
// add-on credit purchases on the current plan.
package recommend

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rpcmeter/rpcmeter/internal/plans"
)

const millionCredits = 1_000_000

// PlanCostOption is the effective monthly cost of one plan for a given
// credit requirement. USD amounts use decimals so add-on arithmetic stays
// exact. Exists only transiently during recommendation computation.
type PlanCostOption struct {
	Plan                    plans.Plan      `json:"plan"`
	TotalMonthlyUSD         decimal.Decimal `json:"totalMonthlyUsd"`
	AdditionalCreditsNeeded float64         `json:"additionalCreditsNeeded"`
	AdditionalCreditsUSD    decimal.Decimal `json:"additionalCreditsUsd"`
}

// EvaluatePlan computes the effective monthly cost of a plan for a credit
// requirement. Returns (option, true) when the plan has deterministic
// pricing that covers the requirement, (zero, false) otherwise: custom
// tiers without a listed price or allowance are excluded, as are plans
// whose allowance is exceeded and which sell no add-on credits.
func EvaluatePlan(plan plans.Plan, creditsNeeded float64) (PlanCostOption, bool) {
	if plan.MonthlyPriceUSD == nil || plan.MonthlyCredits == nil {
		return PlanCostOption{}, false
	}

	basePrice := decimal.NewFromFloat(*plan.MonthlyPriceUSD)
	if creditsNeeded <= *plan.MonthlyCredits {
		return PlanCostOption{
			Plan:            plan,
			TotalMonthlyUSD: basePrice,
		}, true
	}

	if plan.OverageCostPerMillionUSD == nil {
		return PlanCostOption{}, false
	}

	additionalCredits := creditsNeeded - *plan.MonthlyCredits
	additionalUSD := decimal.NewFromFloat(additionalCredits).
		Div(decimal.NewFromInt(millionCredits)).
		Mul(decimal.NewFromFloat(*plan.OverageCostPerMillionUSD))

	return PlanCostOption{
		Plan:                    plan,
		TotalMonthlyUSD:         basePrice.Add(additionalUSD),
		AdditionalCreditsNeeded: additionalCredits,
		AdditionalCreditsUSD:    additionalUSD,
	}, true
}

// Cheapest picks the option with the strictly lowest total cost. Ties keep
// the first encountered, so with ascending plan ID input the lower tier
// wins on exact ties. Returns (zero, false) for an empty option list.
func Cheapest(options []PlanCostOption) (PlanCostOption, bool) {
	if len(options) == 0 {
		return PlanCostOption{}, false
	}
	best := options[0]
	for _, option := range options[1:] {
		if option.TotalMonthlyUSD.LessThan(best.TotalMonthlyUSD) {
			best = option
		}
	}
	return best, true
}

// Action classifies a recommendation outcome.
type Action string

const (
	// ActionStay keeps the current plan and buys add-on credits.
	ActionStay Action = "stay"
	// ActionUpgrade moves to a higher plan tier.
	ActionUpgrade Action = "upgrade"
	// ActionContactSales means no deterministic plan covers the need.
	ActionContactSales Action = "contact_sales"
)

// Recommendation is the engine's verdict for an insufficient current plan.
type Recommendation struct {
	Action  Action          `json:"action"`
	Option  *PlanCostOption `json:"option,omitempty"`
	Summary string          `json:"summary"`
}

// Engine evaluates the plan table against credit requirements.
type Engine struct {
	table  *plans.Table
	logger zerolog.Logger
}

// NewEngine creates a recommendation engine over the given plan table.
func NewEngine(table *plans.Table, logger zerolog.Logger) *Engine {
	return &Engine{table: table, logger: logger}
}

// Options evaluates every plan in the table for the requirement, skipping
// plans without a deterministic option. Result order follows plan IDs.
func (e *Engine) Options(creditsNeeded float64) []PlanCostOption {
	var options []PlanCostOption
	for _, plan := range e.table.All() {
		if option, ok := EvaluatePlan(plan, creditsNeeded); ok {
			options = append(options, option)
		}
	}
	return options
}

// Recommend produces a verdict when the current plan's allowance does not
// cover the monthly requirement. Returns (zero, false) when the allowance
// is sufficient or unknown (custom tier), in which case there is nothing
// to recommend.
func (e *Engine) Recommend(current plans.Plan, creditsNeeded float64) (Recommendation, bool) {
	if current.MonthlyCredits == nil || creditsNeeded <= *current.MonthlyCredits {
		return Recommendation{}, false
	}

	selectedOption, selectedOK := EvaluatePlan(current, creditsNeeded)
	stayViable := selectedOK && selectedOption.AdditionalCreditsNeeded > 0

	var higherOptions []PlanCostOption
	for _, plan := range e.table.HigherThan(current.ID) {
		if option, ok := EvaluatePlan(plan, creditsNeeded); ok {
			higherOptions = append(higherOptions, option)
		}
	}
	cheapestHigher, higherOK := Cheapest(higherOptions)

	var rec Recommendation
	switch {
	case stayViable && (!higherOK || selectedOption.TotalMonthlyUSD.LessThanOrEqual(cheapestHigher.TotalMonthlyUSD)):
		option := selectedOption
		rec = Recommendation{
			Action: ActionStay,
			Option: &option,
			Summary: fmt.Sprintf("Recommended: stay on %s + %s extra credits for %s additional (%s/month total)",
				current.Name,
				formatCredits(option.AdditionalCreditsNeeded),
				formatUSD(option.AdditionalCreditsUSD),
				formatUSD(option.TotalMonthlyUSD)),
		}
	case higherOK:
		option := cheapestHigher
		extra := ""
		if option.AdditionalCreditsNeeded > 0 {
			extra = fmt.Sprintf(" + %s extra credits", formatCredits(option.AdditionalCreditsNeeded))
		}
		rec = Recommendation{
			Action: ActionUpgrade,
			Option: &option,
			Summary: fmt.Sprintf("Recommended: %s%s at %s/month",
				option.Plan.Name, extra, formatUSD(option.TotalMonthlyUSD)),
		}
	default:
		rec = Recommendation{
			Action:  ActionContactSales,
			Summary: "Recommended: Enterprise - contact sales",
		}
	}

	e.logger.Debug().
		Str("current_plan", current.Name).
		Float64("credits_needed", creditsNeeded).
		Str("action", string(rec.Action)).
		Msg("plan recommendation computed")

	return rec, true
}
