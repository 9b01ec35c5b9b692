package reader

import (
	"context"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/tsawler/tabula"
)

// PDFInspector validates PDFs with pdfcpu.
type PDFInspector struct {
	conf *model.Configuration
}

// NewPDFInspector returns an inspector using relaxed validation, which
// accepts the slightly malformed files many producers emit.
func NewPDFInspector() *PDFInspector {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &PDFInspector{conf: conf}
}

// Inspect validates the file at path and returns its page count.
func (i *PDFInspector) Inspect(ctx context.Context, path string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := api.ValidateFile(path, i.conf); err != nil {
		return 0, fmt.Errorf("validate PDF: %w", err)
	}
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("count PDF pages: %w", err)
	}
	return n, nil
}

// TabulaParagraphs extracts paragraphs in reading order with tabula.
type TabulaParagraphs struct{}

// NewTabulaParagraphs returns the default ParagraphSource.
func NewTabulaParagraphs() *TabulaParagraphs {
	return &TabulaParagraphs{}
}

// Paragraphs returns the text of every detected paragraph across all pages.
func (TabulaParagraphs) Paragraphs(ctx context.Context, path string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	paras, err := tabula.Open(path).Paragraphs()
	if err != nil {
		return nil, fmt.Errorf("extract paragraphs: %w", err)
	}

	out := make([]string, 0, len(paras))
	for _, p := range paras {
		out = append(out, p.Text)
	}
	return out, nil
}
