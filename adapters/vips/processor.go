// Package vips adapts libvips (through govips) to the codec registry. It is
// the module's only WebP encoder and can optionally take over JPEG and PNG.
package vips

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"io"
	"runtime"
	"sync"

	govips "github.com/davidbyttow/govips/v2/vips"

	"github.com/Skryldev/image-augmentor/core"
	apperrors "github.com/Skryldev/image-augmentor/errors"
	"github.com/Skryldev/image-augmentor/utils"
)

// BackendConfig configures the libvips backend.
type BackendConfig struct {
	DefaultQuality   int
	MaxCacheSize     int
	ConcurrencyLevel int
	ReportLeaks      bool
	// WebPLossless writes WebP losslessly; quality is then ignored by libvips.
	WebPLossless bool
	// Logger receives libvips warnings and errors. Nil discards them.
	Logger core.Logger
}

// Backend is a libvips-powered Decoder and Encoder.
// Safe for concurrent use across goroutines.
type Backend struct {
	cfg BackendConfig
}

var startOnce sync.Once

// NewBackend initialises libvips on first use and returns a ready Backend.
// libvips cannot be restarted, so Shutdown belongs at process exit only.
func NewBackend(cfg BackendConfig) *Backend {
	if cfg.DefaultQuality <= 0 {
		cfg.DefaultQuality = 90
	}
	if cfg.ConcurrencyLevel <= 0 {
		cfg.ConcurrencyLevel = runtime.NumCPU()
	}
	startOnce.Do(func() {
		govips.LoggingSettings(logHandler(cfg.Logger), govips.LogLevelWarning)
		govips.Startup(&govips.Config{
			ConcurrencyLevel: cfg.ConcurrencyLevel,
			MaxCacheSize:     cfg.MaxCacheSize,
			ReportLeaks:      cfg.ReportLeaks,
		})
	})
	return &Backend{cfg: cfg}
}

// Shutdown releases all libvips resources.
func Shutdown() {
	govips.Shutdown()
}

func logHandler(l core.Logger) govips.LoggingHandlerFunction {
	return func(domain string, level govips.LogLevel, msg string) {
		if l == nil {
			return
		}
		switch level {
		case govips.LogLevelError, govips.LogLevelCritical:
			l.Error("libvips", "domain", domain, "message", msg)
		default:
			l.Warn("libvips", "domain", domain, "message", msg)
		}
	}
}

// ─── Decoder ──────────────────────────────────────────────────────────────────

func (b *Backend) CanDecode(f core.Format) bool {
	switch f {
	case core.FormatJPEG, core.FormatPNG, core.FormatWebP, core.FormatGIF, core.FormatTIFF:
		return true
	}
	return false
}

// Decode loads r through libvips and converts it to a Go image. EXIF fields
// libvips exposes are carried in Meta so a later strip stage has work to do.
func (b *Backend) Decode(ctx context.Context, r io.Reader) (*core.ImageData, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, "vips.decode", err)
	}

	buf := utils.AcquireBuffer()
	if _, err := buf.ReadFrom(r); err != nil {
		utils.ReleaseBuffer(buf)
		return nil, apperrors.Wrap(apperrors.CategoryDecode, "vips.decode.read", err)
	}
	raw := utils.DrainBuffer(buf)
	if len(raw) == 0 {
		return nil, apperrors.New(apperrors.CategoryDecode, "vips.decode", apperrors.ErrEmptyInput)
	}

	ref, err := govips.NewImageFromBuffer(raw)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, "vips.decode", err)
	}
	defer ref.Close()

	format := vipsFormatToCore(ref.Format())
	meta := core.Metadata{
		Width:       ref.Width(),
		Height:      ref.Height(),
		Format:      format,
		HasAlpha:    ref.HasAlpha(),
		Orientation: ref.Orientation(),
	}
	if fields := ref.GetFields(); len(fields) > 0 {
		exif := make(map[string]string, len(fields))
		for _, field := range fields {
			exif[field] = ref.GetString(field)
		}
		meta.EXIF = exif
		meta.HasEXIF = true
	}

	img, err := ref.ToImage(nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, "vips.decode.image", err)
	}
	return &core.ImageData{Image: img, Format: format, Meta: meta}, nil
}

// ─── Encoder ──────────────────────────────────────────────────────────────────

func (b *Backend) CanEncode(f core.Format) bool {
	switch f {
	case core.FormatJPEG, core.FormatPNG, core.FormatWebP:
		return true
	}
	return false
}

// Encode hands the pixels to libvips as lossless PNG and exports them in the
// requested format. Output never carries metadata because the intermediate
// buffer has none.
func (b *Backend) Encode(ctx context.Context, img *core.ImageData, opts core.EncodeOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, "vips.encode", err)
	}
	if img == nil || img.Image == nil {
		return nil, apperrors.New(apperrors.CategoryEncode, "vips.encode", apperrors.ErrEmptyInput)
	}

	ref, err := b.load(img)
	if err != nil {
		return nil, err
	}
	defer ref.Close()

	quality := opts.Quality
	if quality <= 0 {
		quality = b.cfg.DefaultQuality
	}

	var out []byte
	switch img.Format {
	case core.FormatJPEG:
		ep := govips.NewJpegExportParams()
		ep.Quality = quality
		ep.StripMetadata = true
		out, _, err = ref.ExportJpeg(ep)
	case core.FormatPNG:
		ep := govips.NewPngExportParams()
		ep.StripMetadata = true
		out, _, err = ref.ExportPng(ep)
	case core.FormatWebP:
		ep := govips.NewWebpExportParams()
		ep.Quality = quality
		ep.Lossless = b.cfg.WebPLossless
		ep.StripMetadata = true
		out, _, err = ref.ExportWebp(ep)
	default:
		return nil, apperrors.New(apperrors.CategoryEncode, "vips.encode",
			fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFormat, img.Format))
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, "vips.encode."+string(img.Format), err)
	}
	return out, nil
}

func (b *Backend) load(img *core.ImageData) (*govips.ImageRef, error) {
	buf := utils.AcquireBuffer()
	defer utils.ReleaseBuffer(buf)
	enc := png.Encoder{CompressionLevel: png.NoCompression}
	if err := enc.Encode(buf, img.Image); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, "vips.encode.stage", err)
	}
	ref, err := govips.NewImageFromReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, "vips.encode.load", err)
	}
	return ref, nil
}

// ─── Registration ─────────────────────────────────────────────────────────────

// RegisterWebP installs b as the WebP encoder.
func RegisterWebP(reg core.Registry, b *Backend) {
	reg.RegisterEncoder(core.FormatWebP, b)
}

// RegisterVipsBackend replaces the Go codecs with libvips for JPEG, PNG and WebP.
func RegisterVipsBackend(reg core.Registry, b *Backend) {
	for _, f := range []core.Format{core.FormatJPEG, core.FormatPNG, core.FormatWebP} {
		reg.RegisterDecoder(f, b)
		reg.RegisterEncoder(f, b)
	}
}

// ─── helpers ──────────────────────────────────────────────────────────────────

func vipsFormatToCore(f govips.ImageType) core.Format {
	switch f {
	case govips.ImageTypeJPEG:
		return core.FormatJPEG
	case govips.ImageTypePNG:
		return core.FormatPNG
	case govips.ImageTypeWEBP:
		return core.FormatWebP
	case govips.ImageTypeGIF:
		return core.FormatGIF
	case govips.ImageTypeTIFF:
		return core.FormatTIFF
	default:
		return core.FormatUnknown
	}
}

// compile-time interface checks
var _ core.Decoder = (*Backend)(nil)
var _ core.Encoder = (*Backend)(nil)
