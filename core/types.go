package core

import (
	"context"
	"image"
	"math/rand/v2"
	"time"
)

// Format identifies an image codec.
type Format string

const (
	FormatJPEG    Format = "jpeg"
	FormatPNG     Format = "png"
	FormatWebP    Format = "webp"
	FormatGIF     Format = "gif"
	FormatBMP     Format = "bmp"
	FormatTIFF    Format = "tiff"
	FormatUnknown Format = "unknown"
)

// Ext returns the file extension used when writing this format.
func (f Format) Ext() string {
	switch f {
	case FormatJPEG:
		return "jpg"
	case FormatPNG:
		return "png"
	case FormatWebP:
		return "webp"
	}
	return string(f)
}

// Metadata holds image information carried alongside the pixel buffer.
type Metadata struct {
	Width       int
	Height      int
	Format      Format
	HasAlpha    bool
	EXIF        map[string]string // nil when stripped or absent
	HasEXIF     bool
	Orientation int // EXIF orientation tag (1-8)
	// StripMetadata asks the encoder to drop any metadata it would otherwise emit.
	StripMetadata bool
}

// ImageData is the in-memory representation passed through a pipeline.
// Every stage returns a new value; the input is never mutated.
type ImageData struct {
	// Source format as sniffed at decode time.
	Format Format

	// Decoded pixel buffer.
	Image image.Image

	Meta Metadata
}

// WithImage returns a shallow copy of d carrying img, with dimensions refreshed.
func (d *ImageData) WithImage(img image.Image) *ImageData {
	out := *d
	out.Image = img
	b := img.Bounds()
	out.Meta.Width = b.Dx()
	out.Meta.Height = b.Dy()
	return &out
}

// FileInput is one raw item of a batch request: a logical name plus the file
// content in any supported raster format.
type FileInput struct {
	Name  string
	Bytes []byte
}

// ConvertResult is the aggregate outcome of a batch conversion.
type ConvertResult struct {
	OutputDir string `json:"outputDir"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
}

// Transform is one stage of an augmentation pipeline. Implementations hold only
// configuration and must be safe for concurrent use; every random draw comes
// from rng, which the caller owns.
type Transform interface {
	Name() string
	Apply(img *ImageData, rng *rand.Rand) *ImageData
}

// Hook is an optional observer invoked around pipeline steps.
type Hook interface {
	BeforeStep(ctx context.Context, stepName string, img *ImageData)
	AfterStep(ctx context.Context, stepName string, img *ImageData, d time.Duration, err error)
}

// StorageKey identifies a written file: Bucket is the batch directory, Path the
// file name inside it.
type StorageKey struct {
	Bucket string
	Path   string
}
