package usecase

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/evmakarov/knowledge-assistant/internal/core/domain"
	"github.com/evmakarov/knowledge-assistant/internal/core/ports"
)

// IngestDocumentUseCase accepts an upload and hands it off to the async
// pipeline: raw bytes go to object storage, the metadata row is created in
// the uploaded state, and an ingestion event tells a worker to pick it up.
// The caller gets the document back immediately; indexing happens later.
type IngestDocumentUseCase struct {
	repo    ports.DocumentRepository
	storage ports.ObjectStorage
	queue   ports.MessageQueue
}

func NewIngestDocumentUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
) *IngestDocumentUseCase {
	return &IngestDocumentUseCase{
		repo:    repo,
		storage: storage,
		queue:   queue,
	}
}

func (uc *IngestDocumentUseCase) Upload(
	ctx context.Context,
	filename, mimeType string,
	body io.Reader,
) (*domain.Document, error) {
	id := uuid.NewString()

	// Prefix the storage key with the document id so distinct uploads of
	// the same filename never collide in the object store.
	key := id + "_" + sanitizeFilename(filename)

	if err := uc.storage.Save(ctx, key, body); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	doc := domain.NewDocument(id, filename, mimeType, key, time.Now().UTC())
	if err := uc.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document metadata: %w", err)
	}

	if err := uc.queue.PublishDocumentIngested(ctx, doc.ID); err != nil {
		return nil, fmt.Errorf("publish ingestion event: %w", err)
	}
	return doc, nil
}

// sanitizeFilename reduces a client-supplied filename to a safe storage key
// segment: the base name only, spaces underscored, anything outside
// [A-Za-z0-9._-] replaced.
func sanitizeFilename(name string) string {
	base := filepath.Base(name)

	var b strings.Builder
	b.Grow(len(base))
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	out := b.String()
	if out == "" {
		return "document.bin"
	}
	return out
}
