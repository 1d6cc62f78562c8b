package services

import (
	"errors"
	"fmt"

	"github.com/Lllllllleong/pdftextworker/internal/models"
)

// ErrorKind classifies a processing failure for propagation decisions.
type ErrorKind string

const (
	KindDecode     ErrorKind = "decode"
	KindFetch      ErrorKind = "fetch"
	KindExtraction ErrorKind = "extraction"
	KindStore      ErrorKind = "store"
	KindNotify     ErrorKind = "notify"
	KindLedger     ErrorKind = "ledger"
)

// ErrObjectNotFound is re-exported so callers can match store errors without importing models.
var ErrObjectNotFound = models.ErrObjectNotFound

// ProcessingError is a kind-tagged failure for a single message or descriptor.
type ProcessingError struct {
	Kind   ErrorKind
	Bucket string
	Key    string
	Err    error
}

func (e *ProcessingError) Error() string {
	if e.Bucket != "" || e.Key != "" {
		return fmt.Sprintf("[%s] %s/%s: %v", e.Kind, e.Bucket, e.Key, e.Err)
	}
	return fmt.Sprintf("[%s] %v", e.Kind, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// Fatal reports whether the kind escalates to the batch boundary.
// Extraction, notification and ledger failures are recovered locally.
func (k ErrorKind) Fatal() bool {
	switch k {
	case KindDecode, KindFetch, KindStore:
		return true
	default:
		return false
	}
}

func newError(kind ErrorKind, bucket, key string, err error) *ProcessingError {
	return &ProcessingError{Kind: kind, Bucket: bucket, Key: key, Err: err}
}

// IsKind reports whether err is, or wraps, a ProcessingError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var pe *ProcessingError
	if errors.As(err, &pe) {
		return pe.Kind == kind
	}
	return false
}
