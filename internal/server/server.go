// Package server exposes the converter behind a small web form.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/akashicode/docforge/internal/converter"
	"github.com/akashicode/docforge/internal/display"
	"github.com/akashicode/docforge/internal/document"
)

// User-facing messages.
const (
	TitleWithImages = "PDF/Image to Word Converter with Table Extraction (Supports Nepali Fonts)"
	TitlePDFOnly    = "PDF to Word Converter with Table Extraction (Supports Nepali Fonts)"

	MsgUnsupportedType = "Unsupported file type!"
	MsgPDFOnly         = "Only PDF files are supported in this version!"
	MsgMissingFile     = "Please choose a file to upload."
	errorPrefix        = "An error occurred: "

	introWithImages = "Upload a PDF or scanned image to convert to a Word document with tables preserved and Nepali font support."
	introPDFOnly    = "Upload a PDF to convert to a Word document with tables preserved and Nepali font support. Image support is disabled."
)

// formField is the multipart field carrying the upload.
const formField = "file"

// multipart parts larger than this spill to disk while parsing.
const maxMemory = 32 << 20

//go:embed templates/index.html
var templateFS embed.FS

// Converter is the conversion pipeline the server drives.
type Converter interface {
	Convert(ctx context.Context, in converter.Input) (*converter.Result, error)
	ImagesEnabled() bool
}

// Config holds the server settings.
type Config struct {
	MaxUploadBytes int64
	Font           document.FontPolicy
	Version        string
	Logger         *slog.Logger
}

// Server is the docforge HTTP server.
type Server struct {
	conv   Converter
	cfg    Config
	tmpl   *template.Template
	router chi.Router
	logger *slog.Logger
}

// page is the data rendered into the upload form.
type page struct {
	Title       string
	Intro       string
	Accept      string
	AcceptLabel string
	Message     string
}

// New creates a Server around conv.
func New(conv Converter, cfg Config) (*Server, error) {
	if conv == nil {
		return nil, errors.New("converter is required")
	}
	if cfg.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("max upload bytes must be positive, got %d", cfg.MaxUploadBytes)
	}

	tmpl, err := template.ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		conv:   conv,
		cfg:    cfg,
		tmpl:   tmpl,
		router: chi.NewRouter(),
		logger: logger,
	}
	s.registerRoutes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	r := s.router

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(display.RequestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Post("/convert", s.handleConvert)
	r.Get("/health", s.handleHealth)
}

// handleIndex renders the upload form.
func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	s.render(w, http.StatusOK, "")
}

// handleConvert handles POST /convert. On success the document is returned
// as an attachment; on failure the form is re-rendered with the message.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.render(w, http.StatusRequestEntityTooLarge,
				errorPrefix+fmt.Sprintf("file exceeds the %d MB upload limit", s.cfg.MaxUploadBytes>>20))
			return
		}
		s.render(w, http.StatusBadRequest, errorPrefix+err.Error())
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile(formField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			s.render(w, http.StatusBadRequest, MsgMissingFile)
			return
		}
		s.render(w, http.StatusBadRequest, errorPrefix+err.Error())
		return
	}
	defer file.Close()

	log := s.logger.With("request_id", middleware.GetReqID(r.Context()), "file", header.Filename)
	log.Info("processing upload", "size", header.Size, "content_type", header.Header.Get("Content-Type"))

	res, err := s.convert(r.Context(), converter.Input{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        file,
	})
	if err != nil {
		status, msg := userError(err)
		log.Warn("conversion failed", "status", status, "error", err)
		s.render(w, status, msg)
		return
	}

	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": res.FileName}))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
	w.Header().Set("X-Conversion-Id", res.ID)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.Data); err != nil {
		log.Warn("write response", "error", err)
	}
}

// convert runs the pipeline, turning a panic into an error so the user sees
// the same message as for any other failure.
func (s *Server) convert(ctx context.Context, in converter.Input) (res *converter.Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error("conversion panicked", "panic", p)
			res, err = nil, fmt.Errorf("%v", p)
		}
	}()
	return s.conv.Convert(ctx, in)
}

// userError maps a conversion error to a status code and form message.
func userError(err error) (int, string) {
	switch {
	case errors.Is(err, converter.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType, MsgUnsupportedType
	case errors.Is(err, converter.ErrPDFOnly):
		return http.StatusUnsupportedMediaType, MsgPDFOnly
	case errors.Is(err, converter.ErrEmptyUpload):
		return http.StatusBadRequest, errorPrefix + err.Error()
	default:
		return http.StatusInternalServerError, errorPrefix + err.Error()
	}
}

// handleHealth returns a simple health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":         "ok",
		"version":        s.cfg.Version,
		"images_enabled": s.conv.ImagesEnabled(),
		"font": map[string]interface{}{
			"family": s.cfg.Font.Family,
			"size":   s.cfg.Font.Size,
		},
		"time": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) render(w http.ResponseWriter, status int, message string) {
	p := page{
		Title:       TitleWithImages,
		Intro:       introWithImages,
		Accept:      ".pdf,.png,.jpg,.jpeg",
		AcceptLabel: "PDF, PNG, JPG, JPEG",
		Message:     message,
	}
	if !s.conv.ImagesEnabled() {
		p.Title = TitlePDFOnly
		p.Intro = introPDFOnly
		p.Accept = ".pdf"
		p.AcceptLabel = "PDF"
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.tmpl.ExecuteTemplate(w, "index.html", p); err != nil {
		s.logger.Error("render form", "error", err)
	}
}
