package qdrant

import (
	"context"
	"fmt"

	"github.com/evmakarov/knowledge-assistant/internal/core/domain"
	"github.com/evmakarov/knowledge-assistant/internal/core/ports"
)

// Retriever composes an embedder with the qdrant client to satisfy the
// router's passage retrieval port: text query in, scored passages out.
type Retriever struct {
	embedder ports.Embedder
	client   *Client
}

func NewRetriever(embedder ports.Embedder, client *Client) *Retriever {
	return &Retriever{
		embedder: embedder,
		client:   client,
	}
}

func (r *Retriever) Search(ctx context.Context, query string, k int, scoreThreshold *float64) ([]domain.RetrievedPassage, error) {
	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return r.client.SearchPoints(ctx, vector, k, scoreThreshold)
}

func (r *Retriever) IndexSize(ctx context.Context) (uint64, error) {
	return r.client.CountPoints(ctx)
}
