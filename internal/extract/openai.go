package extract

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/rcliao/memory-engine/internal/model"
)

const systemPrompt = `You distill a conversation between a user and an assistant into durable memory.
Respond with a single JSON object and nothing else:
{
  "summary": "one or two sentences describing what the session accomplished",
  "decisions": ["decisions that were made, each a standalone sentence"],
  "lessons": ["lessons learned or mistakes to avoid, each a standalone sentence"],
  "preferences": [{"category": "communication|workflow|tools|code-style|preferences", "key": "short_key", "value": "the preference"}],
  "tags": ["short lowercase topic tags"]
}
Use empty arrays when there is nothing to report. Never include secrets or credentials.`

// OpenAIExtractor extracts session memories with any OpenAI-compatible
// chat completions endpoint.
type OpenAIExtractor struct {
	client *openai.Client
	model  string
}

// NewOpenAIExtractor creates an extractor. An empty baseURL uses the
// OpenAI API; an empty model uses gpt-4o-mini.
func NewOpenAIExtractor(apiKey, baseURL, model string) (*OpenAIExtractor, error) {
	if apiKey == "" {
		return nil, errors.New("API key is required")
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4oMini
	}

	return &OpenAIExtractor{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}, nil
}

// Extract implements Extractor.
func (x *OpenAIExtractor) Extract(ctx context.Context, transcript, label string) (*model.StructuredExtraction, error) {
	resp, err := x.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: x.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Conversation: %s\n\n%s", label, transcript)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("openai extraction failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", ErrInvalidExtraction)
	}
	return ParseExtraction(resp.Choices[0].Message.Content)
}
