package ports

import (
	"context"
	"io"

	"github.com/evmakarov/knowledge-assistant/internal/core/domain"
)

// Assistant is the caller-facing surface of the query router. Ask never
// returns an error: any internal failure is converted into a CHAT-tagged
// result with a generic error text at the router's own boundary.
type Assistant interface {
	Ask(ctx context.Context, query string, history []domain.ConversationTurn, resultCount int) *domain.AnswerResult
}

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.Document, error)
}

// DocumentReader is the inbound read model for document metadata/state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous document processing.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}
