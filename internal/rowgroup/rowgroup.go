// Package rowgroup rebuilds approximate table rows from OCR word positions.
package rowgroup

import "strings"

// DefaultThreshold is the vertical distance, in image pixels, above which two
// consecutive words are placed in different rows.
const DefaultThreshold = 10

// Word is a single recognized token and the top edge of its bounding box.
type Word struct {
	Text string
	Top  int
}

// Grouper splits words into rows by vertical proximity.
type Grouper struct {
	threshold int
}

// New creates a Grouper. A non-positive threshold falls back to DefaultThreshold.
func New(threshold int) *Grouper {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Grouper{threshold: threshold}
}

// Threshold returns the row break distance used by the Grouper.
func (g *Grouper) Threshold() int {
	return g.threshold
}

// Group partitions words into rows using DefaultThreshold.
func Group(words []Word) [][]string {
	return New(DefaultThreshold).Group(words)
}

// Group partitions words into rows in input order. Blank words are ignored.
// A new row starts whenever a word's top differs from the previous non-blank
// word's top by more than the threshold. The comparison is always against the
// previous word, not the first word of the row, so slow vertical drift
// across a skewed line never breaks it.
func (g *Grouper) Group(words []Word) [][]string {
	rows := [][]string{}
	var current []string
	lastTop, haveLast := 0, false

	for _, w := range words {
		if strings.TrimSpace(w.Text) == "" {
			continue
		}
		if haveLast && abs(w.Top-lastTop) > g.threshold {
			if len(current) > 0 {
				rows = append(rows, current)
			}
			current = nil
		}
		current = append(current, w.Text)
		lastTop, haveLast = w.Top, true
	}
	if len(current) > 0 {
		rows = append(rows, current)
	}
	return rows
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
