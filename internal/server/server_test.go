package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpcmeter/rpcmeter/internal/catalog"
	"github.com/rpcmeter/rpcmeter/internal/llm"
	"github.com/rpcmeter/rpcmeter/internal/plans"
	"github.com/rpcmeter/rpcmeter/internal/sources"
	"github.com/rpcmeter/rpcmeter/internal/suggest"
)

// fakeProvider returns a canned response or error.
type fakeProvider struct {
	resp *llm.SuggestionResponse
	err  error

	gotRequest llm.SuggestionRequest
}

func (f *fakeProvider) SuggestMethods(_ context.Context, req llm.SuggestionRequest) (*llm.SuggestionResponse, error) {
	f.gotRequest = req
	return f.resp, f.err
}

func newTestServer(t *testing.T, provider llm.Provider) *Server {
	t.Helper()
	c, err := catalog.New(zerolog.Nop())
	require.NoError(t, err)
	table, err := plans.Load()
	require.NoError(t, err)
	fetcher := sources.NewFetcher(zerolog.Nop(), time.Second)
	return New(zerolog.Nop(), c, table, fetcher, provider, nil)
}

func doJSON(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, nil)
	rec := doJSON(t, s.Handler(), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestCatalogEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/catalog", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		CreditCosts map[string]map[string]catalog.CostModel `json:"creditCosts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.InDelta(t, 10, resp.CreditCosts["rpc_calls"]["getBlock"].CreditsPerCall, 1e-9)
	assert.True(t, resp.CreditCosts["data_streaming"]["laserstream_or_enhanced_websocket_data"].PerMB)
}

func TestPlansEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/plans", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []plans.Plan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 5)
	assert.Equal(t, "Free", got[0].Name)
}

func TestEstimateEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	// 5 calls/day at 10 credits on a 10M-credit plan: $49, no overage.
	body := `{
		"planId": 1,
		"methods": [
			{"methodType": "rpc_calls", "methodName": "getBlock", "callRate": 5, "callFrequency": "day"}
		]
	}`
	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/estimate", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Costs struct {
			PerDay   float64 `json:"perDay"`
			PerMonth float64 `json:"perMonth"`
		} `json:"costs"`
		SelectedPlanOption *struct {
			TotalMonthlyUSD         string  `json:"totalMonthlyUsd"`
			AdditionalCreditsNeeded float64 `json:"additionalCreditsNeeded"`
		} `json:"selectedPlanOption"`
		Recommendation *struct {
			Action string `json:"action"`
		} `json:"recommendation"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.InDelta(t, 50, resp.Costs.PerDay, 1e-9)
	assert.InDelta(t, 1500, resp.Costs.PerMonth, 1e-9)
	require.NotNil(t, resp.SelectedPlanOption)
	assert.Equal(t, "49", resp.SelectedPlanOption.TotalMonthlyUSD)
	assert.Zero(t, resp.SelectedPlanOption.AdditionalCreditsNeeded)
	assert.Nil(t, resp.Recommendation, "allowance covers the need")
}

func TestEstimateEndpointRecommendation(t *testing.T) {
	s := newTestServer(t, nil)

	// ~10.5M credits/month on Free (1M allowance, no overage) forces an
	// upgrade recommendation.
	body := `{
		"planId": 0,
		"methods": [
			{"methodType": "rpc_calls", "methodName": "getTransactionsForAddress", "callRate": 3500, "callFrequency": "day"}
		]
	}`
	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/estimate", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Recommendation *struct {
			Action  string `json:"action"`
			Summary string `json:"summary"`
		} `json:"recommendation"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Recommendation)
	assert.Equal(t, "upgrade", resp.Recommendation.Action)
	assert.Contains(t, resp.Recommendation.Summary, "Developer")
}

func TestEstimateEndpointRejectsContractViolations(t *testing.T) {
	s := newTestServer(t, nil)
	handler := s.Handler()

	tests := []struct {
		name string
		body string
	}{
		{
			name: "unknown method",
			body: `{"planId": 0, "methods": [{"methodType": "rpc_calls", "methodName": "nope", "callRate": 1, "callFrequency": "day"}]}`,
		},
		{
			name: "unknown plan",
			body: `{"planId": 42, "methods": []}`,
		},
		{
			name: "non-positive call rate",
			body: `{"planId": 0, "methods": [{"methodType": "rpc_calls", "methodName": "getBlock", "callRate": 0, "callFrequency": "day"}]}`,
		},
		{
			name: "bad frequency",
			body: `{"planId": 0, "methods": [{"methodType": "rpc_calls", "methodName": "getBlock", "callRate": 1, "callFrequency": "hourly"}]}`,
		},
		{
			name: "invalid JSON",
			body: `{`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, handler, http.MethodPost, "/api/estimate", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestEstimateEndpointEmptyMethods(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/estimate", `{"planId": 0, "methods": []}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Costs struct {
			PerMonth float64 `json:"perMonth"`
		} `json:"costs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Zero(t, resp.Costs.PerMonth, "empty usage yields zero output, not an error")
}

func TestSuggestionsEndpoint(t *testing.T) {
	rate := 4.0
	provider := &fakeProvider{
		resp: &llm.SuggestionResponse{
			AssistantMessage: "Suggested a block fetcher.",
			Suggestions: []suggest.RawSuggestion{
				{MethodType: "RPC calls", MethodName: "get block", CallRate: &rate},
				{MethodType: "bogus", MethodName: "bogus"},
			},
			SourcesUsed:     []string{"https://docs.example.com"},
			ReplaceExisting: true,
		},
	}
	s := newTestServer(t, provider)

	body := `{"message": "subscribe to 20 wallets", "selectedMethods": [{"methodType": "rpc_calls", "methodName": "getTransaction"}]}`
	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/suggestions", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		AssistantMessage string `json:"assistantMessage"`
		SuggestedMethods []struct {
			MethodType    string  `json:"methodType"`
			MethodName    string  `json:"methodName"`
			CallRate      float64 `json:"callRate"`
			CallFrequency string  `json:"callFrequency"`
		} `json:"suggestedMethods"`
		ReplaceExisting bool `json:"replaceExistingMethods"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "Suggested a block fetcher.", resp.AssistantMessage)
	assert.True(t, resp.ReplaceExisting)
	require.Len(t, resp.SuggestedMethods, 1, "unresolvable suggestion dropped")
	assert.Equal(t, "rpc_calls", resp.SuggestedMethods[0].MethodType)
	assert.Equal(t, "getBlock", resp.SuggestedMethods[0].MethodName)
	assert.InDelta(t, 4, resp.SuggestedMethods[0].CallRate, 1e-9)
	assert.Equal(t, "minute", resp.SuggestedMethods[0].CallFrequency, "subscribe vocabulary upgrades the frequency")

	// The already-selected methods ride along to the provider for dedupe.
	require.Len(t, provider.gotRequest.Selected, 1)
	assert.Equal(t, "getTransaction", provider.gotRequest.Selected[0].Name)
}

func TestSuggestionsEndpointErrors(t *testing.T) {
	s := newTestServer(t, &fakeProvider{err: assert.AnError})
	handler := s.Handler()

	rec := doJSON(t, handler, http.MethodPost, "/api/suggestions", `{"message": ""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/api/suggestions", `{"message": "hello"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	unconfigured := newTestServer(t, nil)
	rec = doJSON(t, unconfigured.Handler(), http.MethodPost, "/api/suggestions", `{"message": "hello"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
