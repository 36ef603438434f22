package embeddings

import (
	"context"
	"errors"
)

// ErrGateway indicates the embedding provider failed or returned an
// unusable response.
var ErrGateway = errors.New("embedding gateway error")

// Gateway turns a piece of text into a dense vector. Implementations must
// return a vector of consistent dimensionality for the lifetime of an index.
type Gateway interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
