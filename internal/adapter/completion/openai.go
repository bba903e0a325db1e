package completion

import (
	"context"
	"errors"

	"challenge-solver/internal/domain"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

// OpenAICompleter implements domain.Completer against an
// OpenAI-compatible API, for running without the relay.
type OpenAICompleter struct {
	llm *openai.LLM
}

// NewOpenAICompleter creates a completer for the given model. baseURL is
// optional; when empty the default API endpoint is used.
func NewOpenAICompleter(apiKey, model, baseURL string) (*OpenAICompleter, error) {
	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, domain.NewLLMServiceError(err)
	}
	return &OpenAICompleter{llm: llm}, nil
}

// Complete implements domain.Completer.
func (o *OpenAICompleter) Complete(ctx context.Context, messages []domain.Message) (string, error) {
	content := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		role := schema.ChatMessageTypeHuman
		// The bespoke endpoint uses "developer" for the instruction turn.
		if m.Role == domain.RoleSystem || m.Role == domain.RoleDeveloper {
			role = schema.ChatMessageTypeSystem
		}
		content = append(content, llms.TextParts(role, m.Content))
	}

	resp, err := o.llm.GenerateContent(ctx, content, llms.WithTemperature(0.1))
	if err != nil {
		return "", domain.NewLLMServiceError(err)
	}
	if len(resp.Choices) == 0 {
		return "", domain.NewLLMServiceError(errors.New("empty choices in completion response"))
	}
	return resp.Choices[0].Content, nil
}
