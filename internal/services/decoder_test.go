package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/pdftextworker/internal/models"
)

func TestDecodeNotification(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []models.StorageObjectDescriptor
	}{
		{
			name: "single record",
			body: `{"Records":[{"eventName":"ObjectCreated:Put","s3":{"bucket":{"name":"uploads"},"object":{"key":"docs/a.pdf","size":2048}}}]}`,
			want: []models.StorageObjectDescriptor{{Bucket: "uploads", Key: "docs/a.pdf", Size: 2048}},
		},
		{
			name: "form encoded key",
			body: `{"Records":[{"s3":{"bucket":{"name":"uploads"},"object":{"key":"a+b%20c.pdf"}}}]}`,
			want: []models.StorageObjectDescriptor{{Bucket: "uploads", Key: "a b c.pdf", Size: 0}},
		},
		{
			name: "records keep their order",
			body: `{"Records":[` +
				`{"s3":{"bucket":{"name":"b1"},"object":{"key":"one.pdf","size":1}}},` +
				`{"s3":{"bucket":{"name":"b2"},"object":{"key":"two.pdf","size":2}}}]}`,
			want: []models.StorageObjectDescriptor{
				{Bucket: "b1", Key: "one.pdf", Size: 1},
				{Bucket: "b2", Key: "two.pdf", Size: 2},
			},
		},
		{
			name: "negative size is clamped",
			body: `{"Records":[{"s3":{"bucket":{"name":"b"},"object":{"key":"k.pdf","size":-5}}}]}`,
			want: []models.StorageObjectDescriptor{{Bucket: "b", Key: "k.pdf"}},
		},
		{
			name: "records absent",
			body: `{"Event":"s3:TestEvent"}`,
			want: []models.StorageObjectDescriptor{},
		},
		{
			name: "records empty",
			body: `{"Records":[]}`,
			want: []models.StorageObjectDescriptor{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeNotification(tt.body)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeNotification_EmptyBody(t *testing.T) {
	got, err := DecodeNotification("  ")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDecodeNotification_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"Records": [`},
		{name: "not an object", body: `"hello"`},
		{name: "missing s3 section", body: `{"Records":[{"eventName":"x"}]}`},
		{name: "missing bucket", body: `{"Records":[{"s3":{"object":{"key":"a.pdf"}}}]}`},
		{name: "missing key", body: `{"Records":[{"s3":{"bucket":{"name":"b"},"object":{"size":1}}}]}`},
		{name: "one bad record fails the message", body: `{"Records":[` +
			`{"s3":{"bucket":{"name":"b"},"object":{"key":"ok.pdf"}}},` +
			`{"s3":{"bucket":{"name":"b"}}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeNotification(tt.body)
			require.Error(t, err)
			assert.True(t, IsKind(err, KindDecode), "expected a decode error, got %v", err)
			assert.Nil(t, got)
		})
	}
}

func TestDecodeObjectKey(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "plain.pdf", want: "plain.pdf"},
		{raw: "my+report.pdf", want: "my report.pdf"},
		{raw: "caf%C3%A9.pdf", want: "café.pdf"},
		{raw: "dir%2Fsub%2Ffile.pdf", want: "dir/sub/file.pdf"},
		{raw: "100%+done.pdf", want: "100% done.pdf"},
		{raw: "bad%zzescape+x.pdf", want: "bad%zzescape x.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeObjectKey(tt.raw))
		})
	}
}
