// Package reader identifies uploaded files and pulls paragraphs and tables
// out of PDFs on disk.
package reader

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned when a file format is not supported.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// MIME types accepted as input.
const (
	TypePDF  = "application/pdf"
	TypePNG  = "image/png"
	TypeJPEG = "image/jpeg"
	// TypeJPG is not a registered type but some browsers send it.
	TypeJPG = "image/jpg"
)

// ParagraphSource extracts paragraph text from a PDF file.
type ParagraphSource interface {
	Paragraphs(ctx context.Context, path string) ([]string, error)
}

// TableSource extracts zero or more row/column grids from a PDF file.
type TableSource interface {
	Tables(ctx context.Context, path string) ([][][]string, error)
}

// Inspector checks a PDF file before extraction and returns its page count.
type Inspector interface {
	Inspect(ctx context.Context, path string) (int, error)
}

// IsPDF reports whether contentType names a PDF.
func IsPDF(contentType string) bool {
	return contentType == TypePDF
}

// IsImage reports whether contentType names one of the accepted image types.
func IsImage(contentType string) bool {
	switch contentType {
	case TypePNG, TypeJPEG, TypeJPG:
		return true
	default:
		return false
	}
}

// DetectType resolves the MIME type of an upload. The declared type wins
// unless it is empty or generic, in which case the file extension and then
// the leading bytes are consulted. Parameters such as charset are dropped.
func DetectType(name, declared string, head []byte) string {
	if t := baseType(declared); t != "" && t != "application/octet-stream" {
		return t
	}
	if ext := strings.ToLower(filepath.Ext(name)); ext != "" {
		if t := baseType(mime.TypeByExtension(ext)); t != "" {
			return t
		}
	}
	if len(head) > 0 {
		return baseType(http.DetectContentType(head))
	}
	return ""
}

func baseType(v string) string {
	if v == "" {
		return ""
	}
	t, _, err := mime.ParseMediaType(v)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(v))
	}
	return t
}
