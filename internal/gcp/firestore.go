package gcp

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/Lllllllleong/pdftextworker/internal/models"
)

// NewFirestoreClient creates and returns a new Firestore client for the given project ID.
func NewFirestoreClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return client, nil
}

// FirestoreLedger keeps one status document per source object.
type FirestoreLedger struct {
	client     *firestore.Client
	collection string
}

func NewFirestoreLedger(client *firestore.Client, collection string) *FirestoreLedger {
	return &FirestoreLedger{client: client, collection: collection}
}

// DocumentID derives a stable document ID from the source URI, so every
// redelivery of the same object lands on the same record.
func DocumentID(sourceURI string) string {
	sum := sha256.Sum256([]byte(sourceURI))
	return hex.EncodeToString(sum[:])
}

func (l *FirestoreLedger) docRef(sourceURI string) *firestore.DocumentRef {
	return l.client.Collection(l.collection).Doc(DocumentID(sourceURI))
}

// Begin creates or resets the record with status PROCESSING.
func (l *FirestoreLedger) Begin(ctx context.Context, doc models.Document) error {
	if _, err := l.docRef(doc.SourceURI).Set(ctx, doc); err != nil {
		return fmt.Errorf("failed to write ledger document: %w", err)
	}
	return nil
}

// Complete stores the final metadata of a processed object.
func (l *FirestoreLedger) Complete(ctx context.Context, doc models.Document) error {
	updates := []firestore.Update{
		{Path: "status", Value: models.StatusCompleted},
		{Path: "outputUri", Value: doc.OutputURI},
		{Path: "fileHash", Value: doc.FileHash},
		{Path: "fileSize", Value: doc.FileSize},
		{Path: "pageCount", Value: doc.PageCount},
		{Path: "textLength", Value: doc.TextLength},
		{Path: "errorDetails", Value: firestore.Delete},
		{Path: "updatedAt", Value: time.Now()},
	}
	if _, err := l.docRef(doc.SourceURI).Update(ctx, updates); err != nil {
		return fmt.Errorf("failed to update ledger document: %w", err)
	}
	return nil
}

// Fail marks the record FAILED with the error details.
func (l *FirestoreLedger) Fail(ctx context.Context, sourceURI, details string) error {
	return l.updateStatus(ctx, sourceURI, models.StatusFailed, details)
}

func (l *FirestoreLedger) updateStatus(ctx context.Context, sourceURI, status, errDetails string) error {
	updates := []firestore.Update{
		{Path: "status", Value: status},
		{Path: "updatedAt", Value: time.Now()},
	}
	if errDetails != "" {
		updates = append(updates, firestore.Update{Path: "errorDetails", Value: errDetails})
	}
	_, err := l.docRef(sourceURI).Update(ctx, updates)
	return err
}
