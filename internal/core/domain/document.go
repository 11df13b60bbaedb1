package domain

import "time"

// DocumentStatus tracks a document through the ingestion pipeline. Uploaded
// documents become processing once a worker picks them up, then either ready
// (indexed and searchable) or failed.
type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

// Terminal reports whether the pipeline is done with the document.
func (s DocumentStatus) Terminal() bool {
	return s == StatusReady || s == StatusFailed
}

// Document is the metadata record for one uploaded source file. The raw
// bytes live in object storage under StoragePath; the extracted chunks live
// in the vector index keyed by the document id.
type Document struct {
	ID          string         `json:"id"`
	Filename    string         `json:"filename"`
	MimeType    string         `json:"mime_type"`
	StoragePath string         `json:"storage_path"`
	Status      DocumentStatus `json:"status"`
	Error       string         `json:"error,omitempty"`

	// Classification fields, filled in by the worker after upload.
	Category    string   `json:"category,omitempty"`
	Subcategory string   `json:"subcategory,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Confidence  float64  `json:"confidence,omitempty"`
	Summary     string   `json:"summary,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewDocument builds the initial metadata record for a fresh upload.
func NewDocument(id, filename, mimeType, storagePath string, now time.Time) *Document {
	return &Document{
		ID:          id,
		Filename:    filename,
		MimeType:    mimeType,
		StoragePath: storagePath,
		Status:      StatusUploaded,
		Tags:        []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Classification is the model's judgement about a document's content. It is
// stored on the document and copied into the vector index payload so that
// retrieval can filter by category later.
type Classification struct {
	Category    string   `json:"category"`
	Subcategory string   `json:"subcategory"`
	Tags        []string `json:"tags"`
	Confidence  float64  `json:"confidence"`
	Summary     string   `json:"summary"`
}

// ApplyClassification copies the classification onto the document.
func (d *Document) ApplyClassification(cls Classification) {
	d.Category = cls.Category
	d.Subcategory = cls.Subcategory
	d.Tags = cls.Tags
	d.Confidence = cls.Confidence
	d.Summary = cls.Summary
}
