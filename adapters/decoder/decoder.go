// Package decoder provides format-specific image decoders.
package decoder

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"

	"github.com/Skryldev/image-augmentor/core"
	apperrors "github.com/Skryldev/image-augmentor/errors"
	"github.com/Skryldev/image-augmentor/utils"
)

// Func is the signature shared by the standard library and x/image decoders.
type Func func(r io.Reader) (image.Image, error)

// Decoder wraps a single-format decode function.
type Decoder struct {
	format core.Format
	decode Func
}

// New returns a Decoder for format backed by fn.
func New(format core.Format, fn Func) *Decoder {
	return &Decoder{format: format, decode: fn}
}

func NewJPEG() *Decoder { return New(core.FormatJPEG, jpeg.Decode) }
func NewPNG() *Decoder  { return New(core.FormatPNG, png.Decode) }
func NewGIF() *Decoder  { return New(core.FormatGIF, gif.Decode) }

// NewWebP decodes WebP via golang.org/x/image/webp (lossy and lossless stills).
func NewWebP() *Decoder { return New(core.FormatWebP, webp.Decode) }
func NewBMP() *Decoder  { return New(core.FormatBMP, bmp.Decode) }
func NewTIFF() *Decoder { return New(core.FormatTIFF, tiff.Decode) }

func (d *Decoder) CanDecode(format core.Format) bool { return format == d.format }

func (d *Decoder) Decode(ctx context.Context, r io.Reader) (*core.ImageData, error) {
	op := string(d.format) + ".decode"
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, op, err)
	}

	img, err := d.decode(r)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, op, err)
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, apperrors.New(apperrors.CategoryDecode, op, apperrors.ErrEmptyInput)
	}
	return &core.ImageData{
		Image:  img,
		Format: d.format,
		Meta: core.Metadata{
			Width:    bounds.Dx(),
			Height:   bounds.Dy(),
			Format:   d.format,
			HasAlpha: hasAlpha(img),
		},
	}, nil
}

// RegisterDefaults registers every built-in decoder on reg.
func RegisterDefaults(reg core.Registry) {
	for _, d := range []*Decoder{NewJPEG(), NewPNG(), NewGIF(), NewWebP(), NewBMP(), NewTIFF()} {
		reg.RegisterDecoder(d.format, d)
	}
}

// Bytes sniffs the format of data and decodes it with the matching decoder
// from reg. Any failure is decode-category.
func Bytes(ctx context.Context, reg core.Registry, data []byte) (*core.ImageData, error) {
	if len(data) == 0 {
		return nil, apperrors.New(apperrors.CategoryDecode, "decode", apperrors.ErrEmptyInput)
	}
	format := utils.DetectFormat(data)
	dec, ok := reg.DecoderFor(format)
	if !ok || !dec.CanDecode(format) {
		return nil, apperrors.New(apperrors.CategoryDecode, "decode",
			fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFormat, format))
	}
	return dec.Decode(ctx, bytes.NewReader(data))
}

// hasAlpha reports whether img has at least one non-opaque pixel. Image types
// without an Opaque method are judged by their color model.
func hasAlpha(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	switch img.ColorModel() {
	case color.RGBAModel, color.NRGBAModel, color.RGBA64Model, color.NRGBA64Model, color.AlphaModel, color.Alpha16Model:
		return true
	}
	return false
}
