package chat

import (
	"context"
	"errors"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

// ErrGenerate indicates the generation upstream failed.
var ErrGenerate = errors.New("generation error")

// Generator streams assistant tokens for a prompt. onToken is called once
// per token in arrival order; returning an error stops the stream.
type Generator interface {
	Generate(ctx context.Context, systemPrompt string, history []Message, onToken func(token string) error) error
}

// OpenAIGenerator implements Generator against the OpenAI chat completions
// API.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator constructs a generator. baseURL may be empty to use
// the default endpoint.
func NewOpenAIGenerator(apiKey, baseURL, model string) *OpenAIGenerator {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Generate relays completion deltas to onToken as they arrive.
func (g *OpenAIGenerator) Generate(ctx context.Context, systemPrompt string, history []Message, onToken func(string) error) error {
	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, m := range history {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	stream, err := g.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    g.model,
		Messages: msgs,
		Stream:   true,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGenerate, err)
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrGenerate, err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		token := resp.Choices[0].Delta.Content
		if token == "" {
			continue
		}
		if err := onToken(token); err != nil {
			return err
		}
	}
}

var _ Generator = (*OpenAIGenerator)(nil)
