package embeddings

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIGateway implements Gateway against the OpenAI embeddings API.
type OpenAIGateway struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// NewOpenAIGateway constructs a gateway. baseURL may be empty to use the
// default endpoint.
func NewOpenAIGateway(apiKey, baseURL, model string) *OpenAIGateway {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIGateway{
		client: openai.NewClientWithConfig(cfg),
		model:  openai.EmbeddingModel(model),
	}
}

// Embed returns the embedding vector for a single text.
func (g *OpenAIGateway) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := g.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: g.model,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("%w: empty embedding response", ErrGateway)
	}
	return resp.Data[0].Embedding, nil
}

var _ Gateway = (*OpenAIGateway)(nil)
