package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, 8501, cfg.Server.Port)
	assert.Equal(t, int64(200), cfg.Server.MaxUploadMB)
	assert.Equal(t, 60*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "Mangal", cfg.Font.Family)
	assert.Equal(t, 12.0, cfg.Font.Size)
	assert.Equal(t, "eastAsia", cfg.Font.ScriptOverride)
	assert.Equal(t, []string{"nep", "eng"}, cfg.OCR.Languages)
	assert.Equal(t, 10, cfg.OCR.RowThreshold)
	assert.True(t, cfg.Convert.ImagesEnabled)
	assert.Equal(t, "converted_document.docx", cfg.Convert.OutputName)
	assert.Equal(t, int64(200<<20), cfg.MaxUploadBytes())
}

func TestLoadFrom_ConfigFile(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewBufferString(`
font:
  family: Kalimati
  size: 14
ocr:
  languages: [hin]
convert:
  images_enabled: false
`)))

	cfg, err := LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, "Kalimati", cfg.Font.Family)
	assert.Equal(t, 14.0, cfg.Font.Size)
	assert.Equal(t, "eastAsia", cfg.Font.ScriptOverride)
	assert.Equal(t, []string{"hin"}, cfg.OCR.Languages)
	assert.False(t, cfg.Convert.ImagesEnabled)
}

func TestLoadFrom_Env(t *testing.T) {
	t.Setenv("DOCFORGE_FONT_FAMILY", "Noto Sans Devanagari")
	t.Setenv("DOCFORGE_OCR_LANGUAGES", "nep+eng+hin")
	t.Setenv("DOCFORGE_SERVER_PORT", "9000")

	v := viper.New()
	BindEnv(v)

	cfg, err := LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, "Noto Sans Devanagari", cfg.Font.Family)
	assert.Equal(t, []string{"nep", "eng", "hin"}, cfg.OCR.Languages)
	assert.Equal(t, 9000, cfg.Server.Port)
}

func TestLoadFrom_Nil(t *testing.T) {
	_, err := LoadFrom(nil)
	assert.ErrorIs(t, err, ErrNilConfig)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "zero port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: true},
		{name: "port too large", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: true},
		{name: "no upload budget", mutate: func(c *Config) { c.Server.MaxUploadMB = 0 }, wantErr: true},
		{name: "blank font", mutate: func(c *Config) { c.Font.Family = "  " }, wantErr: true},
		{name: "zero font size", mutate: func(c *Config) { c.Font.Size = 0 }, wantErr: true},
		{name: "no languages", mutate: func(c *Config) { c.OCR.Languages = nil }, wantErr: true},
		{name: "negative threshold", mutate: func(c *Config) { c.OCR.RowThreshold = -1 }, wantErr: true},
		{name: "output not docx", mutate: func(c *Config) { c.Convert.OutputName = "out.pdf" }, wantErr: true},
		{name: "upper case extension", mutate: func(c *Config) { c.Convert.OutputName = "OUT.DOCX" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}

	assert.ErrorIs(t, Validate(nil), ErrNilConfig)
}

func TestDefaultYAML_RoundTrip(t *testing.T) {
	out, err := DefaultYAML()
	require.NoError(t, err)

	var decoded Config
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	assert.Equal(t, *Default(), decoded)

	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewReader(out)))
	cfg, err := LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
