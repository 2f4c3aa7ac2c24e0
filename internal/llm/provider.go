// Package llm is the boundary to the external model that proposes billable
// methods from free-form text. Its output is untrusted; the suggest package
// owns validation.
package llm

import (
	"context"

	"github.com/rpcmeter/rpcmeter/internal/catalog"
	"github.com/rpcmeter/rpcmeter/internal/sources"
	"github.com/rpcmeter/rpcmeter/internal/suggest"
)

// Message roles in a chat history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one prior turn of the conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SuggestionRequest carries everything the model needs for one turn.
type SuggestionRequest struct {
	Message  string
	History  []ChatMessage
	Selected []catalog.MethodKey
	Sources  []sources.Source
}

// SuggestionResponse is the decoded model output. Suggestions are raw and
// must pass through the sanitizer before use.
type SuggestionResponse struct {
	AssistantMessage string                  `json:"assistantMessage"`
	Suggestions      []suggest.RawSuggestion `json:"suggestedMethods"`
	SourcesUsed      []string                `json:"sourcesUsed"`
	ReplaceExisting  bool                    `json:"replaceExistingMethods"`
}

// Provider abstracts the model backend so the HTTP surface and tests do
// not depend on a specific vendor SDK.
type Provider interface {
	SuggestMethods(ctx context.Context, req SuggestionRequest) (*SuggestionResponse, error)
}
