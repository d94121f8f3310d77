// Package augmentor is the entry point of the module: it wires codecs,
// storage, presets, hooks and logging into a ready-to-use Augmentor.
package augmentor

import (
	"context"
	"os"
	"path/filepath"

	"github.com/Skryldev/image-augmentor/adapters/decoder"
	"github.com/Skryldev/image-augmentor/adapters/encoder"
	"github.com/Skryldev/image-augmentor/adapters/presets"
	"github.com/Skryldev/image-augmentor/adapters/storage"
	"github.com/Skryldev/image-augmentor/adapters/vips"
	"github.com/Skryldev/image-augmentor/batch"
	"github.com/Skryldev/image-augmentor/config"
	"github.com/Skryldev/image-augmentor/core"
	apperrors "github.com/Skryldev/image-augmentor/errors"
	"github.com/Skryldev/image-augmentor/hooks"
	"github.com/Skryldev/image-augmentor/preview"
)

// Re-export the public value types for convenience.
type (
	Options       = core.Options
	FileInput     = core.FileInput
	ConvertResult = core.ConvertResult
)

// DefaultOptions returns the stock augmentation settings.
func DefaultOptions() Options { return core.DefaultOptions() }

// DefaultConfig returns a production configuration.
func DefaultConfig() config.Config { return config.Default() }

// Option customises New.
type Option func(*settings)

type settings struct {
	logger  core.Logger
	presets core.PresetStore
	hooks   []core.Hook
}

// WithLogger attaches a structured logger to every component.
func WithLogger(l core.Logger) Option { return func(s *settings) { s.logger = l } }

// WithPresetStore replaces the store selected by the configuration.
func WithPresetStore(p core.PresetStore) Option { return func(s *settings) { s.presets = p } }

// WithHook adds a pipeline observer to batch and preview runs.
func WithHook(h core.Hook) Option { return func(s *settings) { s.hooks = append(s.hooks, h) } }

// Augmentor is safe for concurrent use.
type Augmentor struct {
	cfg      config.Config
	registry *core.DefaultRegistry
	batch    *batch.Orchestrator
	preview  *preview.Generator
	presets  core.PresetStore
	metrics  *hooks.InMemoryMetrics
	logger   core.Logger
	closers  []func() error
}

// New builds an Augmentor from cfg.
func New(cfg config.Config, opts ...Option) (*Augmentor, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	s := settings{logger: hooks.NopLogger{}}
	for _, o := range opts {
		o(&s)
	}

	reg := core.NewRegistry()
	decoder.RegisterDefaults(reg)
	encoder.RegisterDefaults(reg, cfg.Defaults.JPEGQuality)
	if cfg.Vips.Enabled {
		backend := vips.NewBackend(vips.BackendConfig{
			DefaultQuality:   cfg.Defaults.WebPQuality,
			MaxCacheSize:     cfg.Vips.MaxCacheSize,
			ConcurrencyLevel: cfg.Vips.ConcurrencyLevel,
			ReportLeaks:      cfg.Vips.ReportLeaks,
			WebPLossless:     cfg.Vips.WebPLossless,
			Logger:           s.logger,
		})
		if cfg.Vips.ReplaceCodecs {
			vips.RegisterVipsBackend(reg, backend)
		} else {
			vips.RegisterWebP(reg, backend)
		}
	}

	a := &Augmentor{
		cfg:      cfg,
		registry: reg,
		metrics:  hooks.NewInMemoryMetrics(),
		logger:   s.logger,
	}

	stepHooks := append([]core.Hook{
		hooks.NewLoggingHook(s.logger),
		hooks.NewMetricsHook(a.metrics),
	}, s.hooks...)

	a.batch = batch.New(reg, storage.NewLocal(os.FileMode(cfg.FilePerm)), batch.Settings{
		Workers:       cfg.WorkerCount,
		Seed:          cfg.Seed,
		MaxImageBytes: cfg.MaxImageBytes,
	})
	a.batch.SetLogger(s.logger)
	a.batch.SetMetrics(a.metrics)
	for _, h := range stepHooks {
		a.batch.AddHook(h)
	}
	a.preview = preview.New(reg, cfg.PreviewMaxDim, cfg.Seed, stepHooks...)

	a.presets = s.presets
	if a.presets == nil {
		store, closer, err := openPresetStore(cfg.Presets)
		if err != nil {
			return nil, err
		}
		a.presets = store
		if closer != nil {
			a.closers = append(a.closers, closer)
		}
	}

	s.logger.Debug("augmentor.ready",
		"formats", reg.EncodableFormats(),
		"workers", cfg.WorkerCount,
		"presets", string(cfg.Presets.Backend),
	)
	return a, nil
}

func openPresetStore(c config.PresetsConfig) (core.PresetStore, func() error, error) {
	switch c.Backend {
	case config.PresetsPebble:
		dir := c.Dir
		if dir == "" {
			base, err := os.UserConfigDir()
			if err != nil {
				return nil, nil, apperrors.New(apperrors.CategoryConfig, "presets.open", apperrors.ErrStoreUnavailable)
			}
			dir = filepath.Join(base, presets.DirName, "presets.db")
		}
		store, err := presets.OpenPebble(dir)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return presets.NewFileStore(c.Dir), nil, nil
	}
}

// GeneratePreview returns a PNG preview of opts applied to imageBytes,
// bounded by the configured preview size. saturation is optional.
func (a *Augmentor) GeneratePreview(ctx context.Context, opts Options, imageBytes []byte, saturation *float64) ([]byte, error) {
	data, err := a.preview.Generate(ctx, opts, imageBytes, saturation)
	if err != nil {
		a.logger.Warn("preview.failed", "category", string(apperrors.CategoryOf(err)), "error", err.Error())
		return nil, err
	}
	return data, nil
}

// ConvertAll augments files into a new timestamped directory under
// outputRoot. An empty outputRoot uses the configured default.
func (a *Augmentor) ConvertAll(ctx context.Context, opts Options, files []FileInput, outputRoot string, saturation *float64) (*ConvertResult, error) {
	if outputRoot == "" {
		outputRoot = a.cfg.OutputRoot
	}
	return a.batch.ConvertAll(ctx, opts, files, outputRoot, saturation)
}

// SavePreset stores opts under name after validating them.
func (a *Augmentor) SavePreset(name string, opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	return a.presets.Save(name, opts)
}

// LoadPreset returns the options stored under name.
func (a *Augmentor) LoadPreset(name string) (Options, error) {
	return a.presets.Load(name)
}

// PresetNames lists the stored presets.
func (a *Augmentor) PresetNames() ([]string, error) {
	return a.presets.Names()
}

// ResolveOptions returns the preset called name, or the configured defaults
// when name is empty.
func (a *Augmentor) ResolveOptions(name string) (Options, error) {
	if name == "" {
		return a.cfg.Defaults, nil
	}
	return a.LoadPreset(name)
}

// Metrics returns a snapshot of per-stage timings and failure counts.
func (a *Augmentor) Metrics() hooks.MetricsSnapshot { return a.metrics.Snapshot() }

// Formats lists the output formats that currently have an encoder.
func (a *Augmentor) Formats() []core.Format { return a.registry.EncodableFormats() }

// Close releases the preset store. libvips stays up until vips.Shutdown.
func (a *Augmentor) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
