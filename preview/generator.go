// Package preview renders a fast, downscaled PNG of the augmentation pipeline
// applied to a single image.
package preview

import (
	"context"

	"github.com/nfnt/resize"

	"github.com/Skryldev/image-augmentor/adapters/decoder"
	"github.com/Skryldev/image-augmentor/core"
	apperrors "github.com/Skryldev/image-augmentor/errors"
	"github.com/Skryldev/image-augmentor/pipeline"
)

// DefaultMaxDim bounds both preview dimensions.
const DefaultMaxDim = 512

// Generator renders previews. It holds no per-request state; every call
// builds its own pipeline, so concurrent calls never interfere.
type Generator struct {
	registry core.Registry
	maxDim   int
	seed     int64
	hooks    []core.Hook
}

// New returns a Generator decoding through reg and encoding PNG through it.
// maxDim <= 0 selects DefaultMaxDim.
func New(reg core.Registry, maxDim int, seed int64, hooks ...core.Hook) *Generator {
	if maxDim <= 0 {
		maxDim = DefaultMaxDim
	}
	return &Generator{registry: reg, maxDim: maxDim, seed: seed, hooks: hooks}
}

// Generate decodes data, fits it inside maxDim x maxDim without upscaling,
// runs the pipeline for opts plus optional saturation, and returns PNG bytes.
// Output never exceeds the bound, even when the resize range is above 1.
func (g *Generator) Generate(ctx context.Context, opts core.Options, data []byte, saturation *float64) ([]byte, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	img, err := decoder.Bytes(ctx, g.registry, data)
	if err != nil {
		return nil, err
	}
	img = g.fit(img)

	pl := pipeline.Build(opts, g.hooks...)
	rng := pipeline.NewRand(g.seed, 0)
	img = pl.Run(ctx, img, rng)
	if saturation != nil {
		img = pl.Step(ctx, pipeline.SaturateStep{Amount: *saturation}, img, rng)
	}
	img = g.fit(img)

	enc, ok := g.registry.EncoderFor(core.FormatPNG)
	if !ok || !enc.CanEncode(core.FormatPNG) {
		return nil, apperrors.New(apperrors.CategoryEncode, "preview.encode", apperrors.ErrUnsupportedFormat)
	}
	img.Format = core.FormatPNG
	return enc.Encode(ctx, img, core.EncodeOptions{})
}

// fit shrinks img to fit the preview box, preserving aspect ratio. Images
// already inside the box are returned as is.
func (g *Generator) fit(img *core.ImageData) *core.ImageData {
	b := img.Image.Bounds()
	if b.Dx() <= g.maxDim && b.Dy() <= g.maxDim {
		return img
	}
	return img.WithImage(resize.Thumbnail(uint(g.maxDim), uint(g.maxDim), img.Image, resize.Lanczos3))
}
