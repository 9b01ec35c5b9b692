package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ErrNilConfig is returned when a nil Config is provided.
var ErrNilConfig = errors.New("config is nil")

// EnvPrefix is prepended to every environment variable viper reads, e.g.
// DOCFORGE_FONT_FAMILY overrides font.family.
const EnvPrefix = "DOCFORGE"

// Config holds the full application configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Font    FontConfig    `mapstructure:"font" yaml:"font"`
	OCR     OCRConfig     `mapstructure:"ocr" yaml:"ocr"`
	Convert ConvertConfig `mapstructure:"convert" yaml:"convert"`
}

// ServerConfig holds the web form server settings.
type ServerConfig struct {
	Port        int           `mapstructure:"port" yaml:"port"`
	MaxUploadMB int64         `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
}

// FontConfig is the font applied to every run of the generated document.
type FontConfig struct {
	Family string `mapstructure:"family" yaml:"family"`
	// Size is in points.
	Size float64 `mapstructure:"size" yaml:"size"`
	// ScriptOverride is the run font hint written next to the family,
	// normally "eastAsia".
	ScriptOverride string `mapstructure:"script_override" yaml:"script_override"`
}

// OCRConfig configures the Tesseract engine and the row grouping of its words.
type OCRConfig struct {
	Languages    []string `mapstructure:"languages" yaml:"languages"`
	RowThreshold int      `mapstructure:"row_threshold" yaml:"row_threshold"`
}

// ConvertConfig holds pipeline settings shared by the CLI and the server.
type ConvertConfig struct {
	ImagesEnabled bool   `mapstructure:"images_enabled" yaml:"images_enabled"`
	OutputName    string `mapstructure:"output_name" yaml:"output_name"`
	// TempDir is where uploads are spooled; empty means os.TempDir().
	TempDir string `mapstructure:"temp_dir" yaml:"temp_dir"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8501,
			MaxUploadMB: 200,
			ReadTimeout: 60 * time.Second,
		},
		Font: FontConfig{
			Family:         "Mangal",
			Size:           12,
			ScriptOverride: "eastAsia",
		},
		OCR: OCRConfig{
			Languages:    []string{"nep", "eng"},
			RowThreshold: 10,
		},
		Convert: ConvertConfig{
			ImagesEnabled: true,
			OutputName:    "converted_document.docx",
		},
	}
}

// SetDefaults registers Default() with v so that unset keys, config files
// and environment variables all resolve against the same values.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.max_upload_mb", d.Server.MaxUploadMB)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("font.family", d.Font.Family)
	v.SetDefault("font.size", d.Font.Size)
	v.SetDefault("font.script_override", d.Font.ScriptOverride)
	v.SetDefault("ocr.languages", d.OCR.Languages)
	v.SetDefault("ocr.row_threshold", d.OCR.RowThreshold)
	v.SetDefault("convert.images_enabled", d.Convert.ImagesEnabled)
	v.SetDefault("convert.output_name", d.Convert.OutputName)
	v.SetDefault("convert.temp_dir", d.Convert.TempDir)
}

// BindEnv makes v read DOCFORGE_* variables for every dotted key.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads the Viper-populated config into a Config struct.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads the config held by v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	if v == nil {
		return nil, ErrNilConfig
	}
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// A comma separated env var arrives as a single element.
	if len(cfg.OCR.Languages) == 1 && strings.ContainsAny(cfg.OCR.Languages[0], ",+") {
		cfg.OCR.Languages = splitLanguages(cfg.OCR.Languages[0])
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the config for values the pipeline cannot work with.
func Validate(cfg *Config) error {
	if cfg == nil {
		return ErrNilConfig
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", cfg.Server.Port)
	}
	if cfg.Server.MaxUploadMB <= 0 {
		return errors.New("server.max_upload_mb must be greater than 0")
	}
	if strings.TrimSpace(cfg.Font.Family) == "" {
		return errors.New("font.family is required")
	}
	if cfg.Font.Size <= 0 {
		return errors.New("font.size must be greater than 0")
	}
	if len(cfg.OCR.Languages) == 0 {
		return errors.New("ocr.languages must list at least one language")
	}
	if cfg.OCR.RowThreshold < 0 {
		return errors.New("ocr.row_threshold must not be negative")
	}
	if !strings.HasSuffix(strings.ToLower(cfg.Convert.OutputName), ".docx") {
		return fmt.Errorf("convert.output_name %q must end in .docx", cfg.Convert.OutputName)
	}
	return nil
}

// MaxUploadBytes returns the upload cap in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.Server.MaxUploadMB << 20
}

// DefaultYAML renders Default() as a config.yaml document.
func DefaultYAML() ([]byte, error) {
	out, err := yaml.Marshal(Default())
	if err != nil {
		return nil, fmt.Errorf("marshal default config: %w", err)
	}
	return out, nil
}

func splitLanguages(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '+' || r == ' '
	})
	langs := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "" {
			langs = append(langs, f)
		}
	}
	return langs
}
