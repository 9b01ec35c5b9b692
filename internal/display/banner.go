package display

import (
	"fmt"
	"io"
	"strings"
)

// ANSI color codes
const (
	reset = "\033[0m"
	bold  = "\033[1m"
	dim   = "\033[2m"

	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	cyan   = "\033[36m"
	white  = "\033[37m"

	brightRed     = "\033[91m"
	brightGreen   = "\033[92m"
	brightYellow  = "\033[93m"
	brightBlue    = "\033[94m"
	brightMagenta = "\033[95m"
	brightCyan    = "\033[96m"
	brightWhite   = "\033[97m"
)

const rule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

// ServerInfo holds all the information to display in the startup banner.
type ServerInfo struct {
	Title   string
	Version string

	// Output font
	FontFamily     string
	FontSize       float64
	ScriptOverride string

	// OCR
	ImagesEnabled bool
	OCRLanguages  []string
	RowThreshold  int

	// Limits
	MaxUploadMB int64
	TempDir     string

	Port int
}

// PrintBanner prints the colorful startup banner to stdout.
func PrintBanner(info ServerInfo) {
	WriteBanner(stdout, info)
}

// WriteBanner writes the startup banner to w.
func WriteBanner(w io.Writer, info ServerInfo) {
	host := fmt.Sprintf("http://localhost:%d", info.Port)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s%s📄 %s%s\n", bold, brightCyan, info.Title, reset)
	fmt.Fprintf(w, "  %s%s%s%s\n", dim, cyan, rule, reset)
	fmt.Fprintln(w)

	printSectionHeader(w, "🔤 Output Font")
	printKV(w, "Family", info.FontFamily, brightWhite)
	printKV(w, "Size", fmt.Sprintf("%gpt", info.FontSize), white)
	printKV(w, "Script Override", info.ScriptOverride, white)
	fmt.Fprintln(w)

	printSectionHeader(w, "🔍 Inputs")
	printKVColored(w, "PDF", "✓ paragraphs + tables", brightGreen)
	if info.ImagesEnabled {
		printKVColored(w, "PNG / JPEG", "✓ OCR", brightGreen)
		printKV(w, "OCR Languages", strings.Join(info.OCRLanguages, "+"), brightMagenta)
		printKV(w, "Row Threshold", fmt.Sprintf("%dpx", info.RowThreshold), white)
	} else {
		printKVColored(w, "PNG / JPEG", "✗ disabled (PDF only)", dim+white)
	}
	printKV(w, "Max Upload", fmt.Sprintf("%d MB", info.MaxUploadMB), white)
	printKV(w, "Temp Dir", orDefault(info.TempDir, "(system default)"), dim+white)
	fmt.Fprintln(w)

	printSectionHeader(w, "🌐 Endpoints")
	printEndpoint(w, "Form  ", "GET ", host+"/", brightBlue)
	printEndpoint(w, "Convert", "POST", host+"/convert", brightMagenta)
	printEndpoint(w, "Health", "GET ", host+"/health", green)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  %s%s%s%s\n", dim, cyan, rule, reset)
	if info.Version != "" {
		fmt.Fprintf(w, "  %s%sversion %s%s\n", dim, white, info.Version, reset)
	}
	fmt.Fprintf(w, "  %s%s🚀 Server listening on %s%s%s%s\n", dim, white, reset, bold+brightGreen, host, reset)
	fmt.Fprintf(w, "  %s%s%s%s\n", dim, cyan, rule, reset)
	fmt.Fprintln(w)
}

func printSectionHeader(w io.Writer, title string) {
	fmt.Fprintf(w, "  %s%s%s%s\n", bold, brightYellow, title, reset)
}

func printKV(w io.Writer, key, value, valueColor string) {
	fmt.Fprintf(w, "    %s%s%s  %s%s%s\n", dim, padRight(key, 18), reset, valueColor, value, reset)
}

func printKVColored(w io.Writer, key, value, valueColor string) {
	fmt.Fprintf(w, "    %s%s%s  %s%s%s%s\n", dim, padRight(key, 18), reset, bold, valueColor, value, reset)
}

func printEndpoint(w io.Writer, label, method, url, color string) {
	fmt.Fprintf(w, "    %s%s%s %s%s%-5s%s %s%s%s\n",
		dim, padRight(label, 8), reset,
		bold, brightWhite, method, reset,
		color, url, reset,
	)
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-len(s))
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
