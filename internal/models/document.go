package models

import "time"

// Ledger statuses written to the Document record.
const (
	StatusProcessing = "PROCESSING"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
)

// Document represents the status record for one source object in Firestore.
// It is keyed by a hash of the source URI so redelivery updates the same record.
type Document struct {
	SourceURI    string    `firestore:"sourceUri,omitempty"`
	OutputURI    string    `firestore:"outputUri,omitempty"`
	FileHash     string    `firestore:"fileHash,omitempty"`
	Status       string    `firestore:"status,omitempty"`
	ErrorDetails string    `firestore:"errorDetails,omitempty"`
	FileSize     int64     `firestore:"fileSize,omitempty"`
	PageCount    int       `firestore:"pageCount,omitempty"`
	TextLength   int       `firestore:"textLength,omitempty"`
	MessageID    string    `firestore:"messageId,omitempty"` // For traceability
	CreatedAt    time.Time `firestore:"createdAt,omitempty"`
	UpdatedAt    time.Time `firestore:"updatedAt,omitempty"`
}

// StorageObjectDescriptor identifies one source document within one invocation.
type StorageObjectDescriptor struct {
	Bucket string
	Key    string // already form-decoded
	Size   int64
}

// ExtractedDocument is the Text Extractor's result for one source document.
// On container failure PageTexts holds a single error entry and PageCount is 0.
type ExtractedDocument struct {
	PageTexts       []string
	PageCount       int
	ExtractionError string
}

// OutputArtifact is the composed text object written to the output bucket.
type OutputArtifact struct {
	Key         string
	Content     []byte
	ContentType string
}
