package services

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/Lllllllleong/pdftextworker/internal/models"
)

const extractionErrorFormat = "[ERROR extracting text: %s]"

// TextExtractor turns raw PDF bytes into per-page text blocks.
type TextExtractor struct {
	normalize bool
	repair    func([]byte) ([]byte, error)
}

// pageResult is the outcome of reading one page. A failed page contributes empty text.
type pageResult struct {
	Number int
	Text   string
	Err    error
}

// NewTextExtractor creates a TextExtractor. With normalize set, documents are first
// rewritten by pdfcpu in relaxed validation mode to repair damaged cross-reference data.
func NewTextExtractor(normalize bool) *TextExtractor {
	if normalize {
		// No user fonts or config files are needed for a rewrite.
		api.DisableConfigDir()
	}
	return &TextExtractor{normalize: normalize, repair: normalizePDF}
}

// Extract never fails: a container-level error is recorded in the result as a
// single error entry with a page count of 0.
func (e *TextExtractor) Extract(content []byte) models.ExtractedDocument {
	reader, err := e.open(content)
	if err != nil {
		return models.ExtractedDocument{
			PageTexts:       []string{fmt.Sprintf(extractionErrorFormat, err.Error())},
			PageCount:       0,
			ExtractionError: err.Error(),
		}
	}

	numPages := reader.NumPage()
	texts := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		res := readPage(reader, i)
		if res.Err != nil {
			slog.Debug("Page text unavailable, using empty text.", "page", res.Number, "error", res.Err)
		}
		texts = append(texts, fmt.Sprintf("--- Page %d ---\n%s", res.Number, res.Text))
	}

	return models.ExtractedDocument{
		PageTexts: texts,
		PageCount: numPages,
	}
}

// JoinPages renders the page blocks of a document as one text body.
func JoinPages(doc models.ExtractedDocument) string {
	return strings.Join(doc.PageTexts, "\n\n")
}

// open parses the document container, preferring the repaired bytes when the
// repair pass succeeds and falling back to the original bytes otherwise.
func (e *TextExtractor) open(content []byte) (*pdf.Reader, error) {
	if len(content) == 0 {
		return nil, errors.New("empty document")
	}
	if e.normalize {
		if repaired, err := e.repair(content); err != nil {
			slog.Debug("PDF repair pass failed, using original bytes.", "error", err)
		} else if r, err := newReader(repaired); err == nil {
			return r, nil
		} else {
			slog.Debug("Repaired PDF could not be opened, using original bytes.", "error", err)
		}
	}
	return newReader(content)
}

func newReader(content []byte) (r *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r, err = nil, fmt.Errorf("malformed PDF: %v", rec)
		}
	}()
	r, err = pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, err
	}
	if r.NumPage() < 0 {
		return nil, errors.New("malformed PDF: negative page count")
	}
	return r, nil
}

func readPage(reader *pdf.Reader, number int) (res pageResult) {
	res.Number = number
	defer func() {
		if rec := recover(); rec != nil {
			res.Text, res.Err = "", fmt.Errorf("page %d: %v", number, rec)
		}
	}()
	page := reader.Page(number)
	if page.V.IsNull() {
		res.Err = fmt.Errorf("page %d: not found in page tree", number)
		return res
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		res.Err = fmt.Errorf("page %d: %w", number, err)
		return res
	}
	// GetPlainText opens every text object with a newline; only the first one is dropped.
	res.Text = strings.TrimPrefix(text, "\n")
	return res
}

func normalizePDF(content []byte) (out []byte, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out, err = nil, fmt.Errorf("pdf repair: %v", rec)
		}
	}()
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	conf.WriteObjectStream = false
	conf.WriteXRefStream = false

	var buf bytes.Buffer
	if err := api.Optimize(bytes.NewReader(content), &buf, conf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
