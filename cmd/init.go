package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/akashicode/docforge/internal/config"
	"github.com/akashicode/docforge/internal/display"
)

var (
	initDir   string
	initForce bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config.yaml",
	Long: `Writes config.yaml with every setting at its default value to
~/.docforge/ (or --dir). Edit it to change the font, OCR languages or
server limits. Environment variables prefixed with DOCFORGE_ still win,
e.g. DOCFORGE_FONT_FAMILY=Kalimati.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVarP(&initDir, "dir", "d", "", "Directory to write config.yaml into (default: ~/.docforge)")
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing config.yaml")
	rootCmd.AddCommand(initCmd)
}

func runInit(_ *cobra.Command, _ []string) error {
	dir := initDir
	if dir == "" {
		d, err := configDir()
		if err != nil {
			return fmt.Errorf("determine config directory: %w", err)
		}
		dir = d
	}

	path, err := writeDefaultConfig(dir, initForce)
	if err != nil {
		return err
	}

	display.FileCreated(path)
	display.NextSteps([]string{
		"Edit " + path + " to adjust the font or OCR languages",
		"Install Tesseract with the nep and eng language data for image uploads",
		"Run 'docforge serve' and open http://localhost:8501",
	})
	return nil
}

// writeDefaultConfig writes config.yaml into dir and returns its path.
func writeDefaultConfig(dir string, force bool) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create directory %q: %w", dir, err)
	}

	path := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(path); err == nil && !force {
		return "", fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("stat %q: %w", path, err)
	}

	data, err := config.DefaultYAML()
	if err != nil {
		return "", fmt.Errorf("render default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %q: %w", path, err)
	}
	return path, nil
}
