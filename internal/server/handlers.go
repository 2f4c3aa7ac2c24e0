package server

import (
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/rpcmeter/rpcmeter/internal/catalog"
	"github.com/rpcmeter/rpcmeter/internal/estimate"
	"github.com/rpcmeter/rpcmeter/internal/llm"
	"github.com/rpcmeter/rpcmeter/internal/recommend"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type catalogResponse struct {
	CreditCosts map[string]map[string]catalog.CostModel `json:"creditCosts"`
	Notes       map[string]any                          `json:"notes,omitempty"`
}

func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	costs := make(map[string]map[string]catalog.CostModel)
	for _, methodType := range s.catalog.Types() {
		methods := make(map[string]catalog.CostModel)
		for _, name := range s.catalog.MethodNames(methodType) {
			if model, ok := s.catalog.Lookup(catalog.MethodKey{Type: methodType, Name: name}); ok {
				methods[name] = model
			}
		}
		costs[methodType] = methods
	}
	s.writeJSON(w, http.StatusOK, catalogResponse{CreditCosts: costs, Notes: s.catalog.Notes()})
}

func (s *Server) handlePlans(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.plans.All())
}

type estimateMethod struct {
	MethodType    string   `json:"methodType"`
	MethodName    string   `json:"methodName"`
	CallRate      float64  `json:"callRate"`
	CallFrequency string   `json:"callFrequency"`
	MB            *float64 `json:"mb,omitempty"`
}

type estimateRequest struct {
	PlanID  int              `json:"planId"`
	Methods []estimateMethod `json:"methods"`
}

type estimateResponse struct {
	Costs              estimate.CostBreakdown     `json:"costs"`
	SelectedPlanOption *recommend.PlanCostOption  `json:"selectedPlanOption"`
	PlanOptions        []recommend.PlanCostOption `json:"planOptions"`
	Recommendation     *recommend.Recommendation  `json:"recommendation,omitempty"`
}

// handleEstimate projects credit consumption for validated usage entries
// and compares plans. Entries referencing methods that cannot exist in the
// catalog are a caller contract violation and are rejected up front; the
// engines themselves never fail on data.
func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var req estimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	plan, ok := s.plans.ByID(req.PlanID)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "unknown plan id")
		return
	}

	entries := make([]estimate.UsageEntry, 0, len(req.Methods))
	for _, method := range req.Methods {
		key := catalog.MethodKey{Type: method.MethodType, Name: method.MethodName}
		cost, ok := s.catalog.Lookup(key)
		if !ok {
			s.writeError(w, http.StatusBadRequest, "unknown method "+method.MethodType+"/"+method.MethodName)
			return
		}
		if method.CallRate <= 0 {
			s.writeError(w, http.StatusBadRequest, "callRate must be positive")
			return
		}
		frequency := estimate.Frequency(method.CallFrequency)
		if frequency != estimate.FrequencyMinute && frequency != estimate.FrequencyDay {
			s.writeError(w, http.StatusBadRequest, `callFrequency must be "minute" or "day"`)
			return
		}

		entries = append(entries, estimate.UsageEntry{
			MethodKey:     key,
			Cost:          cost,
			CallRate:      method.CallRate,
			CallFrequency: frequency,
			MB:            method.MB,
		})
	}

	costs := estimate.ProjectTotals(entries)

	resp := estimateResponse{
		Costs:       costs,
		PlanOptions: s.recommender.Options(costs.PerMonth),
	}
	if option, ok := recommend.EvaluatePlan(plan, costs.PerMonth); ok {
		resp.SelectedPlanOption = &option
	}
	if rec, ok := s.recommender.Recommend(plan, costs.PerMonth); ok {
		resp.Recommendation = &rec
	}

	s.writeJSON(w, http.StatusOK, resp)
}

type suggestionsRequest struct {
	Message         string              `json:"message"`
	History         []llm.ChatMessage   `json:"history,omitempty"`
	SelectedMethods []catalog.MethodKey `json:"selectedMethods,omitempty"`
}

type suggestionsResponse struct {
	AssistantMessage string                `json:"assistantMessage"`
	SuggestedMethods []estimate.UsageEntry `json:"suggestedMethods"`
	SourcesUsed      []string              `json:"sourcesUsed"`
	ReplaceExisting  bool                  `json:"replaceExistingMethods"`
}

// handleSuggestions runs one LLM suggestion turn: fetch grounding sources,
// ask the model, then sanitize its raw suggestions against the catalog.
func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	if s.provider == nil {
		s.writeError(w, http.StatusServiceUnavailable, "suggestion provider not configured")
		return
	}

	var req suggestionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Message == "" {
		s.writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	// Degraded grounding (few or no sources) is fine; the sanitizer still
	// applies its generic heuristics.
	grounding := s.fetcher.Fetch(r.Context(), s.sourceURLs)

	resp, err := s.provider.SuggestMethods(r.Context(), llm.SuggestionRequest{
		Message:  req.Message,
		History:  req.History,
		Selected: req.SelectedMethods,
		Sources:  grounding,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("suggestion turn failed")
		s.writeError(w, http.StatusBadGateway, "suggestion request failed")
		return
	}

	batch := s.sanitizer.Sanitize(req.Message, resp.Suggestions, req.SelectedMethods, resp.ReplaceExisting)

	entries := batch.Entries
	if entries == nil {
		entries = []estimate.UsageEntry{}
	}
	sourcesUsed := resp.SourcesUsed
	if sourcesUsed == nil {
		sourcesUsed = []string{}
	}

	s.writeJSON(w, http.StatusOK, suggestionsResponse{
		AssistantMessage: resp.AssistantMessage,
		SuggestedMethods: entries,
		SourcesUsed:      sourcesUsed,
		ReplaceExisting:  batch.ReplaceExisting,
	})
}
