package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/akashicode/docforge/internal/config"
	"github.com/akashicode/docforge/internal/display"
)

var (
	cfgFile string
	envFile string
)

var rootCmd = &cobra.Command{
	Use:   "docforge",
	Short: "Convert PDFs and scanned images into Word documents.",
	Long: `docforge converts PDFs and scanned PNG/JPEG images into .docx files,
keeping tables as tables and forcing a Devanagari-capable font (Mangal by
default) onto every run so Nepali text renders correctly in Word.

Run it as a web form with 'docforge serve' or on a single file with
'docforge convert'.`,
	SilenceUsage: true,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.docforge/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "load environment variables from this .env file first")
}

func initConfig() {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			display.Warn("could not load env file: " + err.Error())
		}
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		if dir, err := configDir(); err == nil {
			viper.AddConfigPath(dir)
		} else {
			display.Warn("could not determine home directory: " + err.Error())
		}
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	config.BindEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		// An explicit --config must exist; the default location is optional.
		if cfgFile != "" {
			display.Warn("could not read config file: " + err.Error())
		}
	}
}

// configDir is where 'docforge init' writes config.yaml by default.
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".docforge"), nil
}
