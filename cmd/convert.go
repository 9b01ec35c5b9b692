package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/akashicode/docforge/internal/config"
	"github.com/akashicode/docforge/internal/converter"
	"github.com/akashicode/docforge/internal/display"
)

var (
	convertOutput  string
	convertVerbose bool
)

var convertCmd = &cobra.Command{
	Use:   "convert <file>",
	Short: "Convert a local PDF or image into a Word document",
	Long: `Runs the conversion pipeline on a single file:
  1. Loads configuration
  2. Detects the file type (PDF, PNG or JPEG)
  3. Extracts paragraphs and tables (PDF) or runs OCR and rebuilds rows (image)
  4. Writes the .docx with the configured font applied to every run`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "", "Output path (default: convert.output_name next to the working directory)")
	convertCmd.Flags().BoolVarP(&convertVerbose, "verbose", "v", false, "Print structured pipeline logs")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(_ *cobra.Command, args []string) error {
	input := args[0]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	display.Header("docforge convert")

	// Step 1: Load configuration
	display.Step(1, 4, "Loading configuration...")
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	display.StepDetail(fmt.Sprintf("font %s %gpt, OCR languages %v", cfg.Font.Family, cfg.Font.Size, cfg.OCR.Languages))

	// Step 2: Inspect input
	display.Step(2, 4, "Reading "+filepath.Base(input)+"...")
	info, err := os.Stat(input)
	if err != nil {
		return fmt.Errorf("stat %q: %w", input, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%q is a directory", input)
	}
	display.StepResult("Size", fmt.Sprintf("%d bytes", info.Size()))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if convertVerbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	conv, err := converter.New(cfg, converter.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("initialize converter: %w", err)
	}

	// Step 3: Convert
	display.Step(3, 4, "Converting...")
	res, err := conv.ConvertFile(ctx, input)
	if err != nil {
		display.ErrorMsg(err.Error())
		return fmt.Errorf("convert %q: %w", input, err)
	}
	display.StepResult("Source type", res.SourceType)
	if res.Stats.Pages > 0 {
		display.StepResult("Pages", res.Stats.Pages)
	}
	display.StepResult("Paragraphs", res.Stats.Paragraphs)
	display.StepResult("Tables", res.Stats.Tables)
	if res.Stats.Words > 0 {
		display.StepResult("OCR words", fmt.Sprintf("%d in %d rows", res.Stats.Words, res.Stats.Rows))
	}

	// Step 4: Write output
	out := convertOutput
	if out == "" {
		out = res.FileName
	}
	display.Step(4, 4, "Writing "+out+"...")
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory %q: %w", dir, err)
		}
	}
	if err := os.WriteFile(out, res.Data, 0o644); err != nil {
		return fmt.Errorf("write %q: %w", out, err)
	}
	display.FileCreated(out)

	display.Header("Summary")
	display.KeyValue("Conversion ID", res.ID, display.Dim+display.White)
	display.KeyValue("Output", out, display.BrightWhite)
	display.KeyValue("Font", fmt.Sprintf("%s %gpt", conv.Font().Family, conv.Font().Size), display.BrightMagenta)
	display.KeyValue("Size", fmt.Sprintf("%d bytes", len(res.Data)), display.BrightGreen)
	fmt.Println()
	display.Success("Conversion successful!")
	return nil
}
