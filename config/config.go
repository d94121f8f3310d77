// Package config loads process configuration from an optional file and
// AUGMENT_* environment variables.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/Skryldev/image-augmentor/core"
	apperrors "github.com/Skryldev/image-augmentor/errors"
	"github.com/Skryldev/image-augmentor/logging"
)

// EnvPrefix namespaces environment overrides, e.g. AUGMENT_WORKER_COUNT.
const EnvPrefix = "AUGMENT"

// PresetBackend selects the preset store.
type PresetBackend string

const (
	PresetsFile   PresetBackend = "file"
	PresetsPebble PresetBackend = "pebble"
)

// Config is the top-level configuration struct. Zero values of optional
// fields mean "use the default".
type Config struct {
	// Batch worker limit; 0 resolves to runtime.NumCPU().
	WorkerCount int `mapstructure:"worker-count" validate:"gte=0"`

	// Non-zero makes every random draw reproducible.
	Seed int64 `mapstructure:"seed"`

	PreviewMaxDim int   `mapstructure:"preview-max-dim" default:"512" validate:"gt=0"`
	MaxImageBytes int64 `mapstructure:"max-image-bytes" validate:"gte=0"` // 0 = no limit

	OutputRoot string `mapstructure:"output-root" default:"."`
	FilePerm   uint32 `mapstructure:"file-perm" default:"420"` // 0644

	Presets PresetsConfig  `mapstructure:"presets"`
	Vips    VipsConfig     `mapstructure:"vips"`
	Log     logging.Config `mapstructure:"log"`

	// Augmentation options used when a request names no preset.
	Defaults core.Options `mapstructure:"defaults"`
}

// PresetsConfig configures the preset store.
type PresetsConfig struct {
	Backend PresetBackend `mapstructure:"backend" default:"file" validate:"oneof=file pebble"`
	// Empty means <user config dir>/image_setakgi (plus /presets.db for pebble).
	Dir string `mapstructure:"dir"`
}

// VipsConfig configures the libvips backend. WebP output requires Enabled.
type VipsConfig struct {
	Enabled bool `mapstructure:"enabled" default:"true"`
	// ReplaceCodecs routes JPEG and PNG through libvips as well.
	ReplaceCodecs    bool `mapstructure:"replace-codecs"`
	MaxCacheSize     int  `mapstructure:"max-cache-size" default:"100" validate:"gte=0"`
	ConcurrencyLevel int  `mapstructure:"concurrency-level" validate:"gte=0"`
	WebPLossless     bool `mapstructure:"webp-lossless"`
	ReportLeaks      bool `mapstructure:"report-leaks"`
}

// Default returns a Config populated with production defaults.
func Default() Config {
	var c Config
	if err := defaults.Set(&c); err != nil {
		// Only reachable through a malformed default tag.
		panic(fmt.Sprintf("config: defaults: %v", err))
	}
	return c
}

// Load reads path (optional; YAML, JSON or TOML by extension) over the
// defaults, then applies AUGMENT_* environment overrides. Nested keys join
// with underscores: AUGMENT_DEFAULTS_NOISE_SIGMA, AUGMENT_LOG_LEVEL.
func Load(path string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	registerKeys(v, "", reflect.ValueOf(cfg))

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return Config{}, apperrors.Wrap(apperrors.CategoryConfig, "config.load", err)
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, apperrors.Wrap(apperrors.CategoryConfig, "config.load", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, apperrors.Wrap(apperrors.CategoryConfig, "config.unmarshal", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// registerKeys declares every leaf key with its default so AutomaticEnv can
// override keys that no config file mentions.
func registerKeys(v *viper.Viper, prefix string, val reflect.Value) {
	t := val.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}
		if field.Type.Kind() == reflect.Struct {
			registerKeys(v, key, val.Field(i))
			continue
		}
		v.SetDefault(key, val.Field(i).Interface())
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate returns a config-category error if c is inconsistent. Nested
// Defaults are checked against the same rules as request options.
func Validate(c Config) error {
	if err := validate.Struct(c); err != nil {
		return apperrors.New(apperrors.CategoryConfig, "config.validate", err)
	}
	return nil
}
