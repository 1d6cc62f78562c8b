package services

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/Lllllllleong/pdftextworker/internal/models"
)

// DecodeNotification parses a queue message body into storage-object descriptors.
// A body without Records is valid and yields no descriptors. Malformed JSON, or a
// record lacking its bucket name or object key, fails the whole message.
func DecodeNotification(body string) ([]models.StorageObjectDescriptor, error) {
	if strings.TrimSpace(body) == "" {
		return nil, nil
	}

	var n models.Notification
	if err := json.Unmarshal([]byte(body), &n); err != nil {
		return nil, newError(KindDecode, "", "", fmt.Errorf("json.Unmarshal: %w", err))
	}

	descriptors := make([]models.StorageObjectDescriptor, 0, len(n.Records))
	for i, rec := range n.Records {
		if rec.S3 == nil || rec.S3.Bucket == nil || rec.S3.Bucket.Name == "" {
			return nil, newError(KindDecode, "", "", fmt.Errorf("record %d: missing s3.bucket.name", i))
		}
		if rec.S3.Object == nil || rec.S3.Object.Key == nil {
			return nil, newError(KindDecode, rec.S3.Bucket.Name, "", fmt.Errorf("record %d: missing s3.object.key", i))
		}
		size := rec.S3.Object.Size
		if size < 0 {
			size = 0
		}
		descriptors = append(descriptors, models.StorageObjectDescriptor{
			Bucket: rec.S3.Bucket.Name,
			Key:    DecodeObjectKey(*rec.S3.Object.Key),
			Size:   size,
		})
	}
	return descriptors, nil
}

// DecodeObjectKey form-decodes a storage event key ("+" is a space).
// Invalid escapes are kept verbatim rather than rejected.
func DecodeObjectKey(raw string) string {
	if decoded, err := url.QueryUnescape(raw); err == nil {
		return decoded
	}
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		switch {
		case raw[i] == '+':
			b.WriteByte(' ')
		case raw[i] == '%' && i+2 < len(raw) && isHex(raw[i+1]) && isHex(raw[i+2]):
			v, _ := url.QueryUnescape(raw[i : i+3])
			b.WriteString(v)
			i += 2
		default:
			b.WriteByte(raw[i])
		}
	}
	return b.String()
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}
