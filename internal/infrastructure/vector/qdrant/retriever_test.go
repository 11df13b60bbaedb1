package qdrant

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type embedderStub struct {
	query string
	err   error
}

func (s *embedderStub) Embed(context.Context, []string) ([][]float32, error) { return nil, nil }
func (s *embedderStub) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	s.query = text
	if s.err != nil {
		return nil, s.err
	}
	return []float32{0.1, 0.2}, nil
}

func TestRetrieverSearchEmbedsQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/docs/points/search" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"result":[{"score":0.8,"payload":{"text":"passage","filename":"f.txt","chunk_index":2}}]}`))
	}))
	defer server.Close()

	embedder := &embedderStub{}
	retriever := NewRetriever(embedder, New(server.URL, "docs"))

	passages, err := retriever.Search(context.Background(), "what is go", 3, nil)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if embedder.query != "what is go" {
		t.Fatalf("embedded query = %q", embedder.query)
	}
	if len(passages) != 1 || passages[0].SourceLabel != "f.txt#2" {
		t.Fatalf("passages = %+v", passages)
	}
}

func TestRetrieverSearchEmbedError(t *testing.T) {
	retriever := NewRetriever(&embedderStub{err: errors.New("embed down")}, New("http://localhost:0", "docs"))
	if _, err := retriever.Search(context.Background(), "q", 3, nil); err == nil {
		t.Fatalf("expected error")
	}
}
