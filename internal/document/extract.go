package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	pdfcpu "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/ledongthuc/pdf"
)

// ErrNoExtractableText is returned for structurally valid documents that
// yield no text, e.g. scanned image-only PDFs.
var ErrNoExtractableText = errors.New("document contains no extractable text")

// Extractor turns a staged artifact into the plain text handed to the AI
// provider.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// PDFExtractor validates the document with pdfcpu and pulls plain text from
// every page.
type PDFExtractor struct {
	conf *model.Configuration
}

func NewPDFExtractor() *PDFExtractor {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &PDFExtractor{conf: conf}
}

func (e *PDFExtractor) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := pdfcpu.ValidateFile(path, e.conf); err != nil {
		return "", fmt.Errorf("validate pdf: %w", err)
	}

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(textReader); err != nil {
		return "", fmt.Errorf("read extracted text: %w", err)
	}

	text := strings.TrimSpace(buf.String())
	if text == "" {
		return "", ErrNoExtractableText
	}
	return text, nil
}

var _ Extractor = (*PDFExtractor)(nil)
