package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/evmakarov/knowledge-assistant/internal/core/domain"
)

type repoFake struct {
	created   *domain.Document
	createErr error

	doc       *domain.Document
	getErr    error
	statuses  []domain.DocumentStatus
	errorMsgs []string
	statusErr error

	classification domain.Classification
	saveClsErr     error
}

func (f *repoFake) Create(_ context.Context, doc *domain.Document) error {
	f.created = doc
	return f.createErr
}

func (f *repoFake) GetByID(context.Context, string) (*domain.Document, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.doc, nil
}

func (f *repoFake) UpdateStatus(_ context.Context, _ string, status domain.DocumentStatus, errMessage string) error {
	f.statuses = append(f.statuses, status)
	f.errorMsgs = append(f.errorMsgs, errMessage)
	return f.statusErr
}

func (f *repoFake) SaveClassification(_ context.Context, _ string, cls domain.Classification) error {
	f.classification = cls
	return f.saveClsErr
}

type storageFake struct {
	key     string
	data    string
	saveErr error
	openErr error
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	f.key = key
	raw, _ := io.ReadAll(data)
	f.data = string(raw)
	return f.saveErr
}

func (f *storageFake) Open(context.Context, string) (io.ReadCloser, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return io.NopCloser(strings.NewReader(f.data)), nil
}

type queueFake struct {
	published  []string
	publishErr error
}

func (f *queueFake) PublishDocumentIngested(_ context.Context, documentID string) error {
	f.published = append(f.published, documentID)
	return f.publishErr
}

func (f *queueFake) SubscribeDocumentIngested(context.Context, func(context.Context, string) error) error {
	return nil
}

func TestIngestUploadHappyPath(t *testing.T) {
	repo := &repoFake{}
	storage := &storageFake{}
	queue := &queueFake{}
	uc := NewIngestDocumentUseCase(repo, storage, queue)

	doc, err := uc.Upload(context.Background(), "my report.pdf", "application/pdf", strings.NewReader("content"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if doc.ID == "" {
		t.Fatalf("expected generated document id")
	}
	if doc.Status != domain.StatusUploaded {
		t.Fatalf("status = %s, want %s", doc.Status, domain.StatusUploaded)
	}
	if !strings.HasSuffix(storage.key, "_my_report.pdf") {
		t.Fatalf("storage key = %q, want sanitized filename suffix", storage.key)
	}
	if storage.data != "content" {
		t.Fatalf("stored data = %q", storage.data)
	}
	if repo.created == nil || repo.created.ID != doc.ID {
		t.Fatalf("document metadata not persisted")
	}
	if len(queue.published) != 1 || queue.published[0] != doc.ID {
		t.Fatalf("published = %v, want one event for %s", queue.published, doc.ID)
	}
}

func TestIngestUploadStorageError(t *testing.T) {
	uc := NewIngestDocumentUseCase(&repoFake{}, &storageFake{saveErr: errors.New("disk full")}, &queueFake{})
	if _, err := uc.Upload(context.Background(), "a.txt", "text/plain", strings.NewReader("x")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestIngestUploadPublishError(t *testing.T) {
	queue := &queueFake{publishErr: errors.New("nats down")}
	uc := NewIngestDocumentUseCase(&repoFake{}, &storageFake{}, queue)
	if _, err := uc.Upload(context.Background(), "a.txt", "text/plain", strings.NewReader("x")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"report.pdf", "report.pdf"},
		{"my file (v2).txt", "my_file__v2_.txt"},
		{"../../etc/passwd", "passwd"},
	}
	for _, tc := range cases {
		if got := sanitizeFilename(tc.in); got != tc.want {
			t.Fatalf("sanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
