// Package ocr recognizes text in scanned images.
//
// The default engine wraps Tesseract via gosseract and needs the tesseract
// library and the trained data for every configured language installed on
// the host (e.g. apt-get install tesseract-ocr tesseract-ocr-nep).
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/akashicode/docforge/internal/rowgroup"
)

// ErrEmptyImage is returned when no image bytes are supplied.
var ErrEmptyImage = errors.New("image is empty")

// Result is the output of a single recognition.
type Result struct {
	// Text is the full page text as Tesseract lays it out.
	Text string
	// Words are the individual tokens in reading order with their top edge.
	Words []rowgroup.Word
}

// Engine recognizes text in an encoded PNG or JPEG image.
type Engine interface {
	Recognize(ctx context.Context, image []byte) (Result, error)
}

// client is the subset of *gosseract.Client the engine drives.
type client interface {
	SetLanguage(langs ...string) error
	SetImageFromBytes(data []byte) error
	Text() (string, error)
	GetBoundingBoxes(level gosseract.PageIteratorLevel) ([]gosseract.BoundingBox, error)
	Close() error
}

// TesseractEngine is the gosseract-backed Engine.
type TesseractEngine struct {
	languages     []string
	clientFactory func() client
}

// NewTesseractEngine creates an engine for the given Tesseract language codes,
// e.g. "nep", "eng".
func NewTesseractEngine(languages ...string) *TesseractEngine {
	return &TesseractEngine{
		languages:     languages,
		clientFactory: func() client { return gosseract.NewClient() },
	}
}

// Languages returns the languages passed to Tesseract.
func (e *TesseractEngine) Languages() []string {
	return e.languages
}

// Recognize runs Tesseract on img. A fresh client is used per call so the
// engine can be shared between requests.
func (e *TesseractEngine) Recognize(ctx context.Context, img []byte) (Result, error) {
	if err := CheckImage(img); err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	c := e.clientFactory()
	defer c.Close()

	if len(e.languages) > 0 {
		if err := c.SetLanguage(e.languages...); err != nil {
			return Result{}, fmt.Errorf("set languages %s: %w", strings.Join(e.languages, "+"), err)
		}
	}
	if err := c.SetImageFromBytes(img); err != nil {
		return Result{}, fmt.Errorf("set image: %w", err)
	}

	text, err := c.Text()
	if err != nil {
		return Result{}, fmt.Errorf("recognize text: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return Result{}, fmt.Errorf("recognize words: %w", err)
	}

	return Result{Text: text, Words: wordsFromBoxes(boxes)}, nil
}

func wordsFromBoxes(boxes []gosseract.BoundingBox) []rowgroup.Word {
	words := make([]rowgroup.Word, 0, len(boxes))
	for _, b := range boxes {
		words = append(words, rowgroup.Word{Text: b.Word, Top: b.Box.Min.Y})
	}
	return words
}

// CheckImage decodes the image header so corrupt or non-image uploads fail
// before they reach Tesseract.
func CheckImage(img []byte) error {
	if len(img) == 0 {
		return ErrEmptyImage
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(img)); err != nil {
		return fmt.Errorf("decode image: %w", err)
	}
	return nil
}
