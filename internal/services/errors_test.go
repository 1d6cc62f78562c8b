package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProcessingError(t *testing.T) {
	base := fmt.Errorf("s3://b/k.pdf: %w", ErrObjectNotFound)
	err := newError(KindFetch, "b", "k.pdf", base)

	assert.Equal(t, "[fetch] b/k.pdf: s3://b/k.pdf: object not found", err.Error())
	assert.ErrorIs(t, err, ErrObjectNotFound)
	assert.True(t, IsKind(fmt.Errorf("message m1: %w", err), KindFetch))
	assert.False(t, IsKind(err, KindStore))
	assert.False(t, IsKind(errors.New("plain"), KindFetch))

	noObject := newError(KindDecode, "", "", errors.New("bad json"))
	assert.Equal(t, "[decode] bad json", noObject.Error())
}

func TestErrorKind_Fatal(t *testing.T) {
	for _, k := range []ErrorKind{KindDecode, KindFetch, KindStore} {
		assert.True(t, k.Fatal(), k)
	}
	for _, k := range []ErrorKind{KindExtraction, KindNotify, KindLedger} {
		assert.False(t, k.Fatal(), k)
	}
}
