package services

import (
	"fmt"
	"strings"

	"github.com/Lllllllleong/pdftextworker/internal/models"
)

const (
	outputPrefix      = "processed/"
	outputContentType = "text/plain"
	separatorWidth    = 60
)

// OutputKey derives the artifact key from a source key: the directory path and
// final extension are dropped, then the name is placed under processed/ as .txt.
// Two sources sharing a basename map to the same key.
func OutputKey(sourceKey string) string {
	base := sourceKey[strings.LastIndex(sourceKey, "/")+1:]

	// A leading run of dots is part of the name, not an extension.
	nameStart := 0
	for nameStart < len(base) && base[nameStart] == '.' {
		nameStart++
	}
	if dot := strings.LastIndex(base, "."); dot >= nameStart && nameStart < len(base) {
		base = base[:dot]
	}
	return outputPrefix + base + ".txt"
}

// ObjectURI renders bucket and key with the storage scheme, e.g. s3://bucket/key.
func ObjectURI(scheme, bucket, key string) string {
	return fmt.Sprintf("%s://%s/%s", scheme, bucket, key)
}

// ComposeArtifact builds the text artifact: a fixed header with the source URI,
// byte and KB size, and page count, a separator line, then the extracted text.
func ComposeArtifact(scheme, sourceBucket, sourceKey string, fileSize int64, pageCount int, text string) models.OutputArtifact {
	var b strings.Builder
	fmt.Fprintf(&b, "Source: %s\n", ObjectURI(scheme, sourceBucket, sourceKey))
	fmt.Fprintf(&b, "File Size: %d bytes (%.1f KB)\n", fileSize, float64(fileSize)/1024)
	fmt.Fprintf(&b, "Pages: %d\n", pageCount)
	b.WriteString(strings.Repeat("=", separatorWidth))
	b.WriteString("\n\n")
	b.WriteString(text)

	return models.OutputArtifact{
		Key:         OutputKey(sourceKey),
		Content:     []byte(b.String()),
		ContentType: outputContentType,
	}
}
