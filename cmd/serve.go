package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/akashicode/docforge/internal/config"
	"github.com/akashicode/docforge/internal/converter"
	"github.com/akashicode/docforge/internal/display"
	"github.com/akashicode/docforge/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the conversion web server",
	Long: `Starts the HTTP server on port 8501 (or $PORT).

Endpoints:
  GET  /         - upload form
  POST /convert  - multipart upload (field "file"), responds with converted_document.docx
  GET  /health   - health check

Image uploads need Tesseract and its language data installed on the host.
Set convert.images_enabled=false (or DOCFORGE_CONVERT_IMAGES_ENABLED=false)
to accept PDFs only.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (overrides server.port)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Use PORT env variable if set (container environments)
	if envPort := os.Getenv("PORT"); envPort != "" {
		p, err := strconv.Atoi(envPort)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", envPort, err)
		}
		cfg.Server.Port = p
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = servePort
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	logger := slog.Default()
	conv, err := converter.New(cfg, converter.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("initialize converter: %w", err)
	}

	srv, err := server.New(conv, server.Config{
		MaxUploadBytes: cfg.MaxUploadBytes(),
		Font:           conv.Font(),
		Version:        version,
		Logger:         logger,
	})
	if err != nil {
		return fmt.Errorf("initialize server: %w", err)
	}

	title := server.TitleWithImages
	if !cfg.Convert.ImagesEnabled {
		title = server.TitlePDFOnly
	}
	display.PrintBanner(display.ServerInfo{
		Title:          title,
		Version:        version,
		FontFamily:     conv.Font().Family,
		FontSize:       conv.Font().Size,
		ScriptOverride: conv.Font().ScriptOverride,
		ImagesEnabled:  cfg.Convert.ImagesEnabled,
		OCRLanguages:   cfg.OCR.Languages,
		RowThreshold:   cfg.OCR.RowThreshold,
		MaxUploadMB:    cfg.Server.MaxUploadMB,
		TempDir:        cfg.Convert.TempDir,
		Port:           cfg.Server.Port,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		// OCR on a large scan can take a while.
		WriteTimeout: 5 * time.Minute,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", httpServer.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	display.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	display.Success("server stopped")
	return nil
}
