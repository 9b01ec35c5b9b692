package reader

import (
	"context"
	"fmt"
	"strings"

	"github.com/tsawler/tabula/model"
	tabreader "github.com/tsawler/tabula/reader"
	"github.com/tsawler/tabula/tables"
	"github.com/tsawler/tabula/text"
)

// TabulaTables finds tables with tabula's geometric detector.
type TabulaTables struct {
	config tables.Config
}

// minConfidence admits ruleless tables. Without drawn lines the detector
// scores text-only tables around 0.45, under tabula's 0.5 default.
const minConfidence = 0.3

// NewTabulaTables returns the default TableSource.
func NewTabulaTables() *TabulaTables {
	cfg := tables.DefaultConfig()
	cfg.MinConfidence = minConfidence
	return &TabulaTables{config: cfg}
}

// Tables scans every page and returns each detected table as rows of cell
// text, pages in order.
func (t *TabulaTables) Tables(ctx context.Context, path string) ([][][]string, error) {
	r, err := tabreader.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}
	defer r.Close()

	count, err := r.PageCount()
	if err != nil {
		return nil, fmt.Errorf("count pages: %w", err)
	}

	detector := tables.NewGeometricDetector()
	if err := detector.Configure(t.config); err != nil {
		return nil, fmt.Errorf("configure table detector: %w", err)
	}

	var out [][][]string
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := r.GetPage(i)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		fragments, err := r.ExtractTextFragments(page)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		width, _ := page.Width()
		height, _ := page.Height()

		found, err := detector.Detect(pageModel(width, height, fragments))
		if err != nil {
			return nil, fmt.Errorf("page %d: detect tables: %w", i+1, err)
		}
		for _, tbl := range found {
			if rows := compactRows(tableRows(tbl)); rows != nil {
				out = append(out, rows)
			}
		}
	}
	return out, nil
}

// pageModel wraps raw fragments in the page type the detector consumes.
func pageModel(width, height float64, fragments []text.TextFragment) *model.Page {
	page := model.NewPage(width, height)
	for _, f := range fragments {
		page.RawText = append(page.RawText, model.TextFragment{
			Text:     f.Text,
			BBox:     model.BBox{X: f.X, Y: f.Y, Width: f.Width, Height: f.Height},
			FontSize: f.FontSize,
			FontName: f.FontName,
		})
	}
	return page
}

// tableRows copies the cell text of tbl. Missing cells become "".
func tableRows(tbl *model.Table) [][]string {
	if tbl == nil {
		return nil
	}
	rows := make([][]string, 0, tbl.RowCount())
	for _, row := range tbl.Rows {
		cells := make([]string, len(row))
		for j, c := range row {
			cells[j] = c.Text
		}
		rows = append(rows, cells)
	}
	return rows
}

// compactRows removes the empty rows and columns the detector leaves between
// text edges, then merges neighbouring columns that never hold text in the
// same row, which is how a left-aligned column with cells of different
// widths gets split. Anything smaller than 2x2 afterwards is not a table.
func compactRows(rows [][]string) [][]string {
	var kept [][]string
	width := 0
	for _, row := range rows {
		if blankRow(row) {
			continue
		}
		kept = append(kept, row)
		width = max(width, len(row))
	}
	if len(kept) < 2 {
		return nil
	}

	var groups [][]int
	var filled []bool
	for c := 0; c < width; c++ {
		col := make([]bool, len(kept))
		used := false
		for i, row := range kept {
			if c < len(row) && strings.TrimSpace(row[c]) != "" {
				col[i] = true
				used = true
			}
		}
		if !used {
			continue
		}
		if len(groups) > 0 && disjoint(filled, col) {
			last := len(groups) - 1
			groups[last] = append(groups[last], c)
			for i := range filled {
				filled[i] = filled[i] || col[i]
			}
			continue
		}
		groups = append(groups, []int{c})
		filled = col
	}
	if len(groups) < 2 {
		return nil
	}

	out := make([][]string, 0, len(kept))
	for _, row := range kept {
		cells := make([]string, len(groups))
		for g, cols := range groups {
			var parts []string
			for _, c := range cols {
				if c < len(row) {
					if v := strings.TrimSpace(row[c]); v != "" {
						parts = append(parts, v)
					}
				}
			}
			cells[g] = strings.Join(parts, " ")
		}
		out = append(out, cells)
	}
	return out
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func disjoint(a, b []bool) bool {
	for i := range a {
		if a[i] && b[i] {
			return false
		}
	}
	return true
}
