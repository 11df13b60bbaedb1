package extractor

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/evmakarov/knowledge-assistant/internal/core/domain"
)

type storageStub struct {
	data map[string][]byte
}

func (s *storageStub) Save(context.Context, string, io.Reader) error { return nil }

func (s *storageStub) Open(_ context.Context, key string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(string(s.data[key]))), nil
}

func TestExtractPlainText(t *testing.T) {
	storage := &storageStub{data: map[string][]byte{
		"k1": []byte("  hello world  \n"),
	}}
	e := New(storage)

	text, err := e.Extract(context.Background(), &domain.Document{
		Filename:    "notes.txt",
		MimeType:    "text/plain",
		StoragePath: "k1",
	})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "hello world" {
		t.Fatalf("text = %q", text)
	}
}

func TestExtractRejectsUnknownBinary(t *testing.T) {
	storage := &storageStub{data: map[string][]byte{
		"k1": {0xff, 0xfe, 0x00, 0x01},
	}}
	e := New(storage)

	_, err := e.Extract(context.Background(), &domain.Document{
		Filename:    "blob.bin",
		MimeType:    "application/octet-stream",
		StoragePath: "k1",
	})
	if err == nil {
		t.Fatalf("expected error for binary payload")
	}
}

func TestDetectFormat(t *testing.T) {
	cases := []struct {
		filename string
		mimeType string
		want     format
	}{
		{"report.PDF", "", formatPDF},
		{"sheet.xlsx", "", formatXLSX},
		{"macro.xlsm", "", formatXLSX},
		{"noext", "application/pdf", formatPDF},
		{"noext", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", formatXLSX},
		{"notes.txt", "text/plain", formatPlain},
		{"noext", "", formatPlain},
	}
	for _, tc := range cases {
		if got := detectFormat(tc.filename, tc.mimeType); got != tc.want {
			t.Fatalf("detectFormat(%q, %q) = %v, want %v", tc.filename, tc.mimeType, got, tc.want)
		}
	}
}

func TestExtractPDFRejectsGarbage(t *testing.T) {
	if _, err := extractPDF([]byte("not a pdf")); err == nil {
		t.Fatalf("expected error for invalid pdf data")
	}
}

func TestExtractXLSXRejectsGarbage(t *testing.T) {
	if _, err := extractXLSX([]byte("not a workbook")); err == nil {
		t.Fatalf("expected error for invalid xlsx data")
	}
}
