package llm

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"

	"github.com/rpcmeter/rpcmeter/internal/catalog"
	"github.com/rpcmeter/rpcmeter/internal/plans"
	"github.com/rpcmeter/rpcmeter/internal/sources"
	"github.com/rpcmeter/rpcmeter/internal/suggest"
)

// PromptBuilder renders the system prompt that grounds the model in the
// method catalog, the plan table, and the fetched reference sources.
type PromptBuilder struct {
	catalog *catalog.Catalog
	plans   *plans.Table
}

// NewPromptBuilder creates a PromptBuilder over the fixed reference tables.
func NewPromptBuilder(c *catalog.Catalog, t *plans.Table) *PromptBuilder {
	return &PromptBuilder{catalog: c, plans: t}
}

// planSummary is the trimmed plan view included in the prompt.
type planSummary struct {
	Name           string           `json:"name"`
	MonthlyCredits *float64         `json:"monthly_credits"`
	PriceUSD       *float64         `json:"price_per_month_usd"`
	RateLimits     plans.RateLimits `json:"rate_limits"`
	Features       plans.Features   `json:"included_features"`
	Notes          string           `json:"notes,omitempty"`
}

// BuildSystemPrompt renders the system prompt for one suggestion turn.
func (b *PromptBuilder) BuildSystemPrompt(selected []catalog.MethodKey, srcs []sources.Source) string {
	methodCatalog := make(map[string][]string)
	for _, methodType := range b.catalog.Types() {
		methodCatalog[methodType] = b.catalog.MethodNames(methodType)
	}
	catalogJSON, _ := json.Marshal(methodCatalog)

	summaries := make([]planSummary, 0)
	for _, plan := range b.plans.All() {
		summaries = append(summaries, planSummary{
			Name:           plan.Name,
			MonthlyCredits: plan.MonthlyCredits,
			PriceUSD:       plan.MonthlyPriceUSD,
			RateLimits:     plan.RateLimits,
			Features:       plan.IncludedFeatures,
			Notes:          plan.Notes,
		})
	}
	plansJSON, _ := json.Marshal(summaries)

	if selected == nil {
		selected = []catalog.MethodKey{}
	}
	selectedJSON, _ := json.Marshal(selected)

	sourcesSection := "No sources provided."
	if len(srcs) > 0 {
		var lines []string
		for i, src := range srcs {
			lines = append(lines, fmt.Sprintf("Source %d (%s): %s", i+1, src.URL, src.Text))
		}
		sourcesSection = strings.Join(lines, "\n\n")
	}

	return strings.Join([]string{
		"You are a concise assistant helping users select RPC API methods for cost estimation.",
		"Only recommend methods from the provided catalog.",
		"Use the provided sources to justify suggestions. If sources are empty, say so and rely on general knowledge.",
		"Return JSON only, with this exact shape:",
		`{"assistant_message": string, "suggested_methods": SuggestedMethod[], "sources_used": string[], "replace_existing_methods": boolean}`,
		"SuggestedMethod = { methodType, methodName, callRate, callFrequency, mb? }.",
		"Set callFrequency based on usage pattern: real-time streaming/indexing/subscription/websocket/laserstream = minute; scheduled or batch workflows = day.",
		"If user says subscribe/stream/indexer, prefer per minute.",
		"Derive callRate from explicit counts in the user's message (e.g. 'track 20 wallets' -> 20 calls per minute if streaming).",
		"If suggesting data_streaming and user did not provide a bandwidth estimate, assume 0.1 MB per call and say it is an estimate.",
		"If the user's follow-up changes the requirements, set replace_existing_methods to true so old suggestions can be replaced.",
		"If you need clarification or cannot recommend, set suggested_methods to an empty array and replace_existing_methods to false.",
		"Avoid recommending methods already selected.",
		"sources_used must include at least two distinct URLs if available; otherwise include all available URLs used.",
		"Do not include markdown, code fences, or extra keys.",
		"",
		"Method catalog (type -> method names):",
		string(catalogJSON),
		"",
		"Plans summary (for rate limits/features context):",
		string(plansJSON),
		"",
		"Already selected methods:",
		string(selectedJSON),
		"",
		"Sources:",
		sourcesSection,
	}, "\n")
}

// FilterHistory keeps only well-formed user/assistant turns with non-blank
// content, in order.
func FilterHistory(history []ChatMessage) []ChatMessage {
	var out []ChatMessage
	for _, msg := range history {
		if msg.Role != RoleUser && msg.Role != RoleAssistant {
			continue
		}
		if strings.TrimSpace(msg.Content) == "" {
			continue
		}
		out = append(out, msg)
	}
	return out
}

// ParseResponse decodes the model's JSON reply tolerantly: missing or
// mistyped optional fields become zero values for the sanitizer to default,
// and only a structurally non-JSON reply is an error.
func ParseResponse(content string) (*SuggestionResponse, error) {
	trimmed := strings.TrimSpace(content)
	// Models occasionally wrap JSON in code fences despite instructions.
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	if !gjson.Valid(trimmed) {
		return nil, fmt.Errorf("model returned non-JSON output")
	}
	root := gjson.Parse(trimmed)

	resp := &SuggestionResponse{
		AssistantMessage: root.Get("assistant_message").String(),
		ReplaceExisting:  root.Get("replace_existing_methods").Bool(),
	}
	if resp.AssistantMessage == "" {
		resp.AssistantMessage = "No response provided."
	}

	for _, used := range root.Get("sources_used").Array() {
		if used.Type == gjson.String {
			resp.SourcesUsed = append(resp.SourcesUsed, used.String())
		}
	}

	for _, item := range root.Get("suggested_methods").Array() {
		if !item.IsObject() {
			continue
		}
		raw := suggest.RawSuggestion{
			MethodType:    item.Get("methodType").String(),
			MethodName:    item.Get("methodName").String(),
			CallFrequency: item.Get("callFrequency").String(),
		}
		if rate := item.Get("callRate"); rate.Type == gjson.Number {
			value := rate.Float()
			raw.CallRate = &value
		}
		if mb := item.Get("mb"); mb.Type == gjson.Number {
			value := mb.Float()
			raw.MB = &value
		}
		resp.Suggestions = append(resp.Suggestions, raw)
	}

	return resp, nil
}
