package services

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/pdftextworker/internal/models"
)

func TestExtract_Pages(t *testing.T) {
	content := buildPDF("First page", "Second page", "Third page")

	tests := []struct {
		name      string
		normalize bool
	}{
		{name: "original bytes", normalize: false},
		{name: "repaired bytes", normalize: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := NewTextExtractor(tt.normalize).Extract(content)

			require.Empty(t, doc.ExtractionError)
			assert.Equal(t, 3, doc.PageCount)
			assert.Equal(t, []string{
				"--- Page 1 ---\nFirst page",
				"--- Page 2 ---\nSecond page",
				"--- Page 3 ---\nThird page",
			}, doc.PageTexts)
		})
	}
}

func TestExtract_UnreadablePageKeepsOthers(t *testing.T) {
	content := buildPDFWithMissingContents(1, "One", "Two", "Three")

	for _, normalize := range []bool{false, true} {
		doc := NewTextExtractor(normalize).Extract(content)

		require.Empty(t, doc.ExtractionError)
		assert.Equal(t, 3, doc.PageCount)
		assert.Equal(t, []string{
			"--- Page 1 ---\nOne",
			"--- Page 2 ---\n",
			"--- Page 3 ---\nThree",
		}, doc.PageTexts)
	}
}

func TestExtract_RepairFallsBackToOriginal(t *testing.T) {
	content := buildPDF("kept")

	tests := []struct {
		name   string
		repair func([]byte) ([]byte, error)
	}{
		{
			name:   "repair fails",
			repair: func([]byte) ([]byte, error) { return nil, errors.New("xref damaged beyond repair") },
		},
		{
			name:   "repaired bytes unreadable",
			repair: func([]byte) ([]byte, error) { return []byte("garbage"), nil },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewTextExtractor(true)
			e.repair = tt.repair

			doc := e.Extract(content)

			require.Empty(t, doc.ExtractionError)
			assert.Equal(t, 1, doc.PageCount)
			assert.Equal(t, []string{"--- Page 1 ---\nkept"}, doc.PageTexts)
		})
	}
}

func TestExtract_KeepsPageWhitespace(t *testing.T) {
	doc := NewTextExtractor(false).Extract(buildPDF("  padded  "))

	require.Empty(t, doc.ExtractionError)
	assert.Equal(t, []string{"--- Page 1 ---\n  padded  "}, doc.PageTexts)
}

func TestExtract_Corrupt(t *testing.T) {
	for _, normalize := range []bool{false, true} {
		doc := NewTextExtractor(normalize).Extract([]byte("this is not a pdf"))

		assert.Equal(t, 0, doc.PageCount)
		assert.NotEmpty(t, doc.ExtractionError)
		require.Len(t, doc.PageTexts, 1)
		assert.True(t, strings.HasPrefix(doc.PageTexts[0], "[ERROR extracting text: "), doc.PageTexts[0])
		assert.True(t, strings.HasSuffix(doc.PageTexts[0], "]"))
	}
}

func TestExtract_Empty(t *testing.T) {
	doc := NewTextExtractor(false).Extract(nil)

	assert.Equal(t, 0, doc.PageCount)
	assert.Equal(t, []string{"[ERROR extracting text: empty document]"}, doc.PageTexts)
}

func TestJoinPages(t *testing.T) {
	doc := models.ExtractedDocument{PageTexts: []string{"--- Page 1 ---\na", "--- Page 2 ---\n"}}
	assert.Equal(t, "--- Page 1 ---\na\n\n--- Page 2 ---\n", JoinPages(doc))
	assert.Equal(t, "", JoinPages(models.ExtractedDocument{}))
}
