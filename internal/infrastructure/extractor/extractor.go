package extractor

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/evmakarov/knowledge-assistant/internal/core/domain"
	"github.com/evmakarov/knowledge-assistant/internal/core/ports"
)

// Extractor turns stored documents into plain text. Format is picked by
// file extension with the mime type as a fallback; unknown binary payloads
// are rejected instead of being indexed as garbage.
type Extractor struct {
	storage ports.ObjectStorage
}

func New(storage ports.ObjectStorage) *Extractor {
	return &Extractor{storage: storage}
}

func (e *Extractor) Extract(ctx context.Context, doc *domain.Document) (string, error) {
	reader, err := e.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return "", fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read source document: %w", err)
	}

	switch detectFormat(doc.Filename, doc.MimeType) {
	case formatPDF:
		return extractPDF(raw)
	case formatXLSX:
		return extractXLSX(raw)
	default:
		return extractPlain(raw, doc.Filename)
	}
}

type format int

const (
	formatPlain format = iota
	formatPDF
	formatXLSX
)

func detectFormat(filename, mimeType string) format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return formatPDF
	case ".xlsx", ".xlsm":
		return formatXLSX
	}

	switch mimeType {
	case "application/pdf":
		return formatPDF
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return formatXLSX
	}
	return formatPlain
}

func extractPlain(raw []byte, filename string) (string, error) {
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("unsupported binary format: %s", filename)
	}
	return strings.TrimSpace(string(raw)), nil
}
