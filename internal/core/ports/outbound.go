package ports

import (
	"context"
	"io"

	"github.com/evmakarov/knowledge-assistant/internal/core/domain"
)

// TextCompleter is the opaque text-completion service. Calls are synchronous,
// stateless and fallible; the router treats every call as a slow I/O boundary.
type TextCompleter interface {
	Complete(ctx context.Context, template domain.PromptTemplate, vars map[string]string) (string, error)
}

// PassageRetriever searches the local document index. A nil scoreThreshold
// means unfiltered top-k; a non-nil value is expressed in the backend's own
// score convention (cosine similarity here, higher is better).
type PassageRetriever interface {
	Search(ctx context.Context, query string, k int, scoreThreshold *float64) ([]domain.RetrievedPassage, error)
	IndexSize(ctx context.Context) (uint64, error)
}

// WebSearcher performs a live web search. It is absent entirely when no
// credential is configured; "not configured" is a capability flag on the
// router, never a caught call failure.
type WebSearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]domain.WebResult, error)
}

// ConversationStore persists conversation transcripts. The router never
// touches it; the HTTP adapter owns reads and appends around each turn.
type ConversationStore interface {
	EnsureConversation(ctx context.Context, userID, conversationID string) (*domain.Conversation, error)
	AppendMessage(ctx context.Context, message domain.ConversationMessage) error
	ListRecentMessages(ctx context.Context, userID, conversationID string, limit int) ([]domain.ConversationMessage, error)
}

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SaveClassification(ctx context.Context, id string, cls domain.Classification) error
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes ingestion events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor extracts plain text from a stored document.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (string, error)
}

// DocumentClassifier classifies extracted text.
type DocumentClassifier interface {
	Classify(ctx context.Context, text string) (domain.Classification, error)
}

// Embedder builds vectors for chunks and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Chunker splits text into semantically usable chunks.
type Chunker interface {
	Split(text string) []string
}

// VectorStore indexes chunks for later retrieval.
type VectorStore interface {
	IndexChunks(ctx context.Context, doc *domain.Document, chunks []string, vectors [][]float32) error
}
