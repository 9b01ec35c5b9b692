// Package document assembles the output Word document.
//
// Every text run written through this package carries the same font: the
// configured family on the ascii, hAnsi and eastAsia slots, the configured
// size, and a font hint naming the script override. Word otherwise maps
// Devanagari and other complex scripts to its own default font.
package document

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	docx "github.com/fumiama/go-docx"
	"golang.org/x/text/unicode/norm"

	"github.com/akashicode/docforge/internal/config"
)

// ContentType is the MIME type of a serialized document.
const ContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// FontPolicy is the font applied unconditionally to every run.
type FontPolicy struct {
	Family         string
	Size           float64
	ScriptOverride string
}

// DefaultFont is Mangal 12pt with an eastAsia override.
var DefaultFont = FontPolicy{Family: "Mangal", Size: 12, ScriptOverride: "eastAsia"}

// FontFromConfig builds a FontPolicy from configuration, filling blanks from DefaultFont.
func FontFromConfig(cfg config.FontConfig) FontPolicy {
	p := FontPolicy{Family: cfg.Family, Size: cfg.Size, ScriptOverride: cfg.ScriptOverride}
	if strings.TrimSpace(p.Family) == "" {
		p.Family = DefaultFont.Family
	}
	if p.Size <= 0 {
		p.Size = DefaultFont.Size
	}
	if p.ScriptOverride == "" {
		p.ScriptOverride = DefaultFont.ScriptOverride
	}
	return p
}

// halfPoints renders the size the way WordprocessingML stores it.
func (p FontPolicy) halfPoints() string {
	return strconv.Itoa(int(math.Round(p.Size * 2)))
}

// Document is an output document under construction. It is not safe for
// concurrent use.
type Document struct {
	doc  *docx.Docx
	font FontPolicy

	paragraphs int
	tables     int
}

// New creates an empty document that applies font to every run.
func New(font FontPolicy) *Document {
	return &Document{
		doc:  docx.New().WithDefaultTheme(),
		font: font,
	}
}

// AddParagraph appends a paragraph holding text. Line breaks inside text are
// kept as breaks within the paragraph.
func (d *Document) AddParagraph(text string) {
	p := d.doc.AddParagraph()
	d.writeRun(p, text)
	d.paragraphs++
}

// AddSpacer appends an empty paragraph, used to separate a table from what
// comes before it.
func (d *Document) AddSpacer() {
	d.doc.AddParagraph()
}

// AddTable appends rows as a bordered grid and reports whether a table was
// written. Nothing is written when rows is empty or its first row is empty.
// The grid is as wide as the first row; see normalizeRows for ragged input.
func (d *Document) AddTable(rows [][]string) bool {
	grid := normalizeRows(rows)
	if grid == nil {
		return false
	}

	tbl := d.doc.AddTable(len(grid), len(grid[0]), 0, nil)
	for i, row := range tbl.TableRows {
		for j, cell := range row.TableCells {
			d.writeRun(cell.AddParagraph(), grid[i][j])
		}
	}
	d.tables++
	return true
}

// Paragraphs returns the number of text paragraphs written, spacers excluded.
func (d *Document) Paragraphs() int {
	return d.paragraphs
}

// Tables returns the number of tables written.
func (d *Document) Tables() int {
	return d.tables
}

// WriteTo serializes the document to w.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	n, err := d.doc.WriteTo(w)
	if err != nil {
		return n, fmt.Errorf("write docx: %w", err)
	}
	return n, nil
}

// Bytes serializes the document into memory.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (d *Document) writeRun(p *docx.Paragraph, text string) {
	lines := strings.Split(normalizeText(text), "\n")
	run := p.AddText(lines[0])
	for _, line := range lines[1:] {
		run.Children = append(run.Children, &docx.BarterRabbet{}, &docx.Text{Text: line})
	}
	run.Size(d.font.halfPoints()).
		Font(d.font.Family, d.font.Family, d.font.Family, d.font.ScriptOverride)
}

// normalizeText composes decomposed sequences (common in Devanagari pulled
// out of PDFs and OCR) and unifies line endings.
func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return norm.NFC.String(s)
}

// normalizeRows turns possibly ragged rows into a rectangular grid as wide as
// the first row. Short rows are padded with empty cells. Cells past the last
// column are joined onto the last cell with a space so no text is dropped.
// It returns nil when there is nothing to render.
func normalizeRows(rows [][]string) [][]string {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil
	}
	cols := len(rows[0])

	grid := make([][]string, len(rows))
	for i, row := range rows {
		out := make([]string, cols)
		copy(out, row)
		if len(row) > cols {
			out[cols-1] = strings.Join(row[cols-1:], " ")
		}
		grid[i] = out
	}
	return grid
}
