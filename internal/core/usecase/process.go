package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/evmakarov/knowledge-assistant/internal/core/domain"
	"github.com/evmakarov/knowledge-assistant/internal/core/ports"
)

// ProcessDocumentUseCase turns an uploaded file into searchable index
// entries. The worker drives it once per ingestion event: extract text from
// whatever format the file is in, classify it, split it into overlapping
// chunks, embed the chunks and push them into the vector index that the
// query router retrieves from.
type ProcessDocumentUseCase struct {
	repo       ports.DocumentRepository
	extractor  ports.TextExtractor
	classifier ports.DocumentClassifier
	chunker    ports.Chunker
	embedder   ports.Embedder
	index      ports.VectorStore
}

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	extractor ports.TextExtractor,
	classifier ports.DocumentClassifier,
	chunker ports.Chunker,
	embedder ports.Embedder,
	index ports.VectorStore,
) *ProcessDocumentUseCase {
	return &ProcessDocumentUseCase{
		repo:       repo,
		extractor:  extractor,
		classifier: classifier,
		chunker:    chunker,
		embedder:   embedder,
		index:      index,
	}
}

// ProcessByID runs the full pipeline for one document. The document is
// moved to processing up front and to ready only after its chunks are in
// the index and the classification is persisted; any failure in between
// lands it in failed with the cause recorded on the row.
func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, documentID string) error {
	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	if err := uc.indexDocument(ctx, documentID); err != nil {
		return uc.fail(ctx, documentID, err)
	}

	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}
	return nil
}

// indexDocument is the fallible middle of the pipeline, cut out of
// ProcessByID so the caller has a single place to convert an error into the
// failed status.
func (uc *ProcessDocumentUseCase) indexDocument(ctx context.Context, documentID string) error {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("fetch document by id: %w", err)
	}

	text, err := uc.extractor.Extract(ctx, doc)
	if err != nil {
		return fmt.Errorf("extract text: %w", err)
	}
	if text == "" {
		return domain.WrapError(domain.ErrInvalidInput, "extract text", errors.New("document yielded no text"))
	}

	cls, err := uc.classifier.Classify(ctx, text)
	if err != nil {
		return fmt.Errorf("classify document: %w", err)
	}

	chunks, vectors, err := uc.embedChunks(ctx, text)
	if err != nil {
		return err
	}

	// The index payload carries the classification so retrieval can filter
	// by category.
	doc.ApplyClassification(cls)
	if err := uc.index.IndexChunks(ctx, doc, chunks, vectors); err != nil {
		return fmt.Errorf("index chunks: %w", err)
	}

	if err := uc.repo.SaveClassification(ctx, doc.ID, cls); err != nil {
		return fmt.Errorf("save classification: %w", err)
	}
	return nil
}

func (uc *ProcessDocumentUseCase) embedChunks(ctx context.Context, text string) ([]string, [][]float32, error) {
	chunks := uc.chunker.Split(text)
	if len(chunks) == 0 {
		return nil, nil, domain.WrapError(domain.ErrInvalidInput, "chunk document", errors.New("splitter produced zero chunks"))
	}

	vectors, err := uc.embedder.Embed(ctx, chunks)
	if err != nil {
		return nil, nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, nil, domain.WrapError(
			domain.ErrInvalidInput,
			"embed chunks",
			fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks)),
		)
	}
	return chunks, vectors, nil
}

// fail records the pipeline error on the document and returns the original
// error. A failure while recording the failure is attached, not swallowed.
func (uc *ProcessDocumentUseCase) fail(ctx context.Context, documentID string, cause error) error {
	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusFailed, cause.Error()); err != nil {
		return fmt.Errorf("%w; mark failed status: %v", cause, err)
	}
	return cause
}
