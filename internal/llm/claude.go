package llm

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-sonnet-4-5-20250929"

const maxOutputTokens = 1200

// ClaudeProvider implements Provider on the Anthropic Messages API.
type ClaudeProvider struct {
	client  anthropic.Client
	model   anthropic.Model
	prompts *PromptBuilder
	logger  zerolog.Logger
}

// NewClaudeProvider creates a provider for the given API key and model.
// An empty model selects DefaultModel.
func NewClaudeProvider(apiKey, model string, prompts *PromptBuilder, logger zerolog.Logger) (*ClaudeProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("missing Anthropic API key")
	}
	if model == "" {
		model = DefaultModel
	}
	return &ClaudeProvider{
		client:  anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:   anthropic.Model(model),
		prompts: prompts,
		logger:  logger,
	}, nil
}

// SuggestMethods runs one suggestion turn against the model. A filtered
// non-empty history replaces the single message as the conversation; the
// reply is decoded tolerantly via ParseResponse.
func (p *ClaudeProvider) SuggestMethods(ctx context.Context, req SuggestionRequest) (*SuggestionResponse, error) {
	systemPrompt := p.prompts.BuildSystemPrompt(req.Selected, req.Sources)

	conversation := FilterHistory(req.History)
	if len(conversation) == 0 {
		conversation = []ChatMessage{{Role: RoleUser, Content: req.Message}}
	}

	messages := make([]anthropic.MessageParam, 0, len(conversation))
	for _, msg := range conversation {
		block := anthropic.NewTextBlock(msg.Content)
		if msg.Role == RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}

	resp, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     p.model,
		MaxTokens: maxOutputTokens,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages:  messages,
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic API call failed: %w", err)
	}

	var content string
	for _, block := range resp.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			content += text.Text
		}
	}
	if content == "" {
		return nil, fmt.Errorf("model returned no text content")
	}

	parsed, err := ParseResponse(content)
	if err != nil {
		return nil, err
	}

	p.logger.Debug().
		Int("suggestions", len(parsed.Suggestions)).
		Int("input_tokens", int(resp.Usage.InputTokens)).
		Int("output_tokens", int(resp.Usage.OutputTokens)).
		Msg("suggestion turn completed")

	return parsed, nil
}
