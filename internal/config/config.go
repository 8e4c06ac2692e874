// Package config loads labelscan settings from defaults, an optional YAML
// file, LABELSCAN_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, so http.addr is
// read from LABELSCAN_HTTP_ADDR.
const EnvPrefix = "LABELSCAN"

type HTTP struct {
	Addr        string `mapstructure:"addr"`
	MaxUploadMB int    `mapstructure:"max_upload_mb"`
}

type Image struct {
	MaxSide      int  `mapstructure:"max_side"`
	DisplayWidth int  `mapstructure:"display_width"`
	Suggest      bool `mapstructure:"suggest"`
}

type OCR struct {
	Backend  string  `mapstructure:"backend"`
	Language string  `mapstructure:"language"`
	Contrast float64 `mapstructure:"contrast"`
	Tessdata string  `mapstructure:"tessdata"`
	Binary   string  `mapstructure:"binary"`
}

type PubChem struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Workers int           `mapstructure:"workers"`
	Rate    float64       `mapstructure:"rate"`
}

type Session struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Config is the complete application configuration.
type Config struct {
	HTTP    HTTP    `mapstructure:"http"`
	Image   Image   `mapstructure:"image"`
	OCR     OCR     `mapstructure:"ocr"`
	PubChem PubChem `mapstructure:"pubchem"`
	Session Session `mapstructure:"session"`
	Log     Log     `mapstructure:"log"`
}

// SetDefaults registers the built-in value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.max_upload_mb", 20)

	v.SetDefault("image.max_side", 1800)
	v.SetDefault("image.display_width", 700)
	v.SetDefault("image.suggest", true)

	v.SetDefault("ocr.backend", "auto")
	v.SetDefault("ocr.language", "eng")
	v.SetDefault("ocr.contrast", 2.0)
	v.SetDefault("ocr.tessdata", "")
	v.SetDefault("ocr.binary", "tesseract")

	v.SetDefault("pubchem.base_url", "https://pubchem.ncbi.nlm.nih.gov/rest/pug")
	v.SetDefault("pubchem.timeout", 10*time.Second)
	v.SetDefault("pubchem.workers", 4)
	v.SetDefault("pubchem.rate", 5.0)

	v.SetDefault("session.ttl", 30*time.Minute)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// FlagKey maps a flag name to its config key. The first dash separates the
// section, later dashes become underscores: --http-max-upload-mb sets
// http.max_upload_mb.
func FlagKey(flag string) string {
	section, rest, ok := strings.Cut(flag, "-")
	if !ok {
		return flag
	}
	return section + "." + strings.ReplaceAll(rest, "-", "_")
}

// BindFlags binds every flag whose FlagKey is a known config key, changed or
// not. Other flags are ignored. An unchanged flag does not override the
// defaults, config file or environment: viper only reads a bound flag's
// default when the key has no other value.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var bindErr error
	flags.VisitAll(func(f *pflag.Flag) {
		key := FlagKey(f.Name)
		if !v.IsSet(key) {
			return
		}
		if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
			bindErr = err
		}
	})
	return bindErr
}

// Load reads the config file at path, or config.yaml in the working
// directory when path is empty, and decodes the merged settings. A missing
// default config file is not an error.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	switch {
	case c.HTTP.MaxUploadMB <= 0:
		return fmt.Errorf("http.max_upload_mb must be positive, got %d", c.HTTP.MaxUploadMB)
	case c.Image.MaxSide <= 0:
		return fmt.Errorf("image.max_side must be positive, got %d", c.Image.MaxSide)
	case c.Image.DisplayWidth <= 0:
		return fmt.Errorf("image.display_width must be positive, got %d", c.Image.DisplayWidth)
	case c.OCR.Contrast < 2.0 || c.OCR.Contrast > 2.5:
		return fmt.Errorf("ocr.contrast must be between 2.0 and 2.5, got %v", c.OCR.Contrast)
	case c.PubChem.Workers <= 0:
		return fmt.Errorf("pubchem.workers must be positive, got %d", c.PubChem.Workers)
	case c.PubChem.Timeout <= 0:
		return fmt.Errorf("pubchem.timeout must be positive, got %v", c.PubChem.Timeout)
	}
	return nil
}

// MaxUploadBytes is the upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.HTTP.MaxUploadMB) << 20
}
