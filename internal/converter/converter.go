// Package converter turns an uploaded PDF or scanned image into a Word document.
package converter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/akashicode/docforge/internal/config"
	"github.com/akashicode/docforge/internal/document"
	"github.com/akashicode/docforge/internal/ocr"
	"github.com/akashicode/docforge/internal/reader"
	"github.com/akashicode/docforge/internal/rowgroup"
)

// ErrUnsupportedType is returned for uploads that are neither PDF nor an accepted image.
var ErrUnsupportedType = reader.ErrUnsupportedFormat

// ErrPDFOnly is returned for non-PDF uploads when image conversion is disabled.
var ErrPDFOnly = errors.New("only PDF files are supported")

// ErrEmptyUpload is returned when the upload has no content.
var ErrEmptyUpload = errors.New("uploaded file is empty")

// sniffLen is how many leading bytes are used to guess a missing content type.
const sniffLen = 512

// Input is a single file to convert.
type Input struct {
	// Name is the original file name; its extension helps when ContentType is missing.
	Name string
	// ContentType is the type declared by the client, if any.
	ContentType string
	Data        io.Reader
}

// Stats describes what went into a converted document.
type Stats struct {
	Pages      int
	Paragraphs int
	Tables     int
	Words      int
	Rows       int
}

// Result is a converted document held in memory.
type Result struct {
	ID          string
	FileName    string
	ContentType string
	// SourceType is the detected MIME type of the input.
	SourceType string
	Data       []byte
	Stats      Stats
}

// Converter runs the conversion pipeline. It holds no per-request state and
// may be shared between goroutines as long as its collaborators can.
type Converter struct {
	paragraphs reader.ParagraphSource
	tables     reader.TableSource
	inspector  reader.Inspector
	engine     ocr.Engine

	font          document.FontPolicy
	grouper       *rowgroup.Grouper
	imagesEnabled bool
	outputName    string
	tempDir       string
	logger        *slog.Logger
}

// Option customizes a Converter.
type Option func(*Converter)

// WithParagraphSource replaces the PDF paragraph extractor.
func WithParagraphSource(s reader.ParagraphSource) Option {
	return func(c *Converter) { c.paragraphs = s }
}

// WithTableSource replaces the PDF table extractor.
func WithTableSource(s reader.TableSource) Option {
	return func(c *Converter) { c.tables = s }
}

// WithInspector replaces the PDF validator. A nil inspector skips validation.
func WithInspector(i reader.Inspector) Option {
	return func(c *Converter) { c.inspector = i }
}

// WithOCREngine replaces the OCR engine.
func WithOCREngine(e ocr.Engine) Option {
	return func(c *Converter) { c.engine = e }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Converter) { c.logger = l }
}

// New creates a Converter from configuration. Without options it uses tabula
// for paragraphs and tables, pdfcpu for validation and Tesseract for OCR.
func New(cfg *config.Config, opts ...Option) (*Converter, error) {
	if cfg == nil {
		return nil, config.ErrNilConfig
	}

	c := &Converter{
		paragraphs:    reader.NewTabulaParagraphs(),
		tables:        reader.NewTabulaTables(),
		inspector:     reader.NewPDFInspector(),
		engine:        ocr.NewTesseractEngine(cfg.OCR.Languages...),
		font:          document.FontFromConfig(cfg.Font),
		grouper:       rowgroup.New(cfg.OCR.RowThreshold),
		imagesEnabled: cfg.Convert.ImagesEnabled,
		outputName:    cfg.Convert.OutputName,
		tempDir:       cfg.Convert.TempDir,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.paragraphs == nil || c.tables == nil {
		return nil, errors.New("paragraph and table sources are required")
	}
	if c.engine == nil {
		return nil, errors.New("ocr engine is required")
	}
	if c.outputName == "" {
		c.outputName = config.Default().Convert.OutputName
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

// ImagesEnabled reports whether PNG/JPEG uploads are converted.
func (c *Converter) ImagesEnabled() bool {
	return c.imagesEnabled
}

// Font returns the font applied to the generated documents.
func (c *Converter) Font() document.FontPolicy {
	return c.font
}

// Convert dispatches in to the PDF or image pipeline based on its type.
func (c *Converter) Convert(ctx context.Context, in Input) (*Result, error) {
	if in.Data == nil {
		return nil, ErrEmptyUpload
	}
	data, err := io.ReadAll(in.Data)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyUpload
	}

	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	contentType := reader.DetectType(in.Name, in.ContentType, head)

	switch {
	case reader.IsPDF(contentType):
		return c.ConvertPDF(ctx, data)
	case !c.imagesEnabled:
		return nil, fmt.Errorf("%w: got %s", ErrPDFOnly, describe(contentType))
	case reader.IsImage(contentType):
		return c.ConvertImage(ctx, data, contentType)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, describe(contentType))
	}
}

// ConvertFile converts the file at path, detecting its type from the
// extension and content.
func (c *Converter) ConvertFile(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}
	defer f.Close()

	return c.Convert(ctx, Input{Name: filepath.Base(path), Data: f})
}

// ConvertPDF converts PDF bytes. The bytes are spooled to a temporary file
// because the extractors work on paths; the file is removed on every exit.
func (c *Converter) ConvertPDF(ctx context.Context, data []byte) (*Result, error) {
	id := uuid.NewString()
	log := c.logger.With("conversion_id", id, "type", reader.TypePDF)
	log.Info("converting PDF", "bytes", len(data))

	path, cleanup, err := c.spool(id, ".pdf", data)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	var stats Stats
	if c.inspector != nil {
		pages, err := c.inspector.Inspect(ctx, path)
		if err != nil {
			return nil, err
		}
		stats.Pages = pages
	}

	paragraphs, err := c.paragraphs.Paragraphs(ctx, path)
	if err != nil {
		return nil, err
	}
	tables, err := c.tables.Tables(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc := document.New(c.font)
	for _, p := range paragraphs {
		doc.AddParagraph(p)
	}
	for _, t := range tables {
		doc.AddSpacer()
		doc.AddTable(t)
	}

	stats.Paragraphs = doc.Paragraphs()
	stats.Tables = doc.Tables()
	res, err := c.finish(id, reader.TypePDF, doc, stats)
	if err != nil {
		return nil, err
	}
	log.Info("converted PDF", "pages", stats.Pages, "paragraphs", stats.Paragraphs, "tables", stats.Tables)
	return res, nil
}

// ConvertImage OCRs a PNG or JPEG image. The full text becomes one paragraph;
// the recognized words are regrouped into rows and rendered as a table when
// any were found.
func (c *Converter) ConvertImage(ctx context.Context, data []byte, contentType string) (*Result, error) {
	id := uuid.NewString()
	log := c.logger.With("conversion_id", id, "type", contentType)
	log.Info("converting image", "bytes", len(data))

	recognized, err := c.engine.Recognize(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("ocr: %w", err)
	}

	doc := document.New(c.font)
	doc.AddParagraph(recognized.Text)

	rows := c.grouper.Group(recognized.Words)
	if len(rows) > 0 {
		doc.AddSpacer()
		doc.AddTable(rows)
	}

	stats := Stats{
		Paragraphs: doc.Paragraphs(),
		Tables:     doc.Tables(),
		Words:      countWords(rows),
		Rows:       len(rows),
	}
	res, err := c.finish(id, contentType, doc, stats)
	if err != nil {
		return nil, err
	}
	log.Info("converted image", "words", stats.Words, "rows", stats.Rows)
	return res, nil
}

func (c *Converter) finish(id, sourceType string, doc *document.Document, stats Stats) (*Result, error) {
	data, err := doc.Bytes()
	if err != nil {
		return nil, err
	}
	return &Result{
		ID:          id,
		FileName:    c.outputName,
		ContentType: document.ContentType,
		SourceType:  sourceType,
		Data:        data,
		Stats:       stats,
	}, nil
}

// spool writes data to a new temporary file and returns its path together
// with a function that removes it.
func (c *Converter) spool(id, ext string, data []byte) (string, func(), error) {
	f, err := os.CreateTemp(c.tempDir, "docforge-"+id+"-*"+ext)
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}
	path := f.Name()
	cleanup := func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			c.logger.Warn("failed to remove temp file", "path", path, "error", err)
		}
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close temp file: %w", err)
	}
	return path, cleanup, nil
}

func countWords(rows [][]string) int {
	n := 0
	for _, r := range rows {
		n += len(r)
	}
	return n
}

func describe(contentType string) string {
	if strings.TrimSpace(contentType) == "" {
		return "unknown type"
	}
	return contentType
}
