// Package encoder provides pure-Go JPEG and PNG encoders. WebP output is
// produced by the libvips backend in adapters/vips.
package encoder

import (
	"context"
	"image/jpeg"

	"github.com/Skryldev/image-augmentor/core"
	apperrors "github.com/Skryldev/image-augmentor/errors"
	"github.com/Skryldev/image-augmentor/utils"
)

// JPEG encodes images to baseline JPEG. JPEG output carries no metadata, so
// StripEXIF needs no extra work here.
type JPEG struct {
	DefaultQuality int // used when EncodeOptions.Quality == 0
}

func NewJPEG(defaultQuality int) *JPEG {
	if defaultQuality <= 0 {
		defaultQuality = 90
	}
	return &JPEG{DefaultQuality: defaultQuality}
}

func (j *JPEG) CanEncode(format core.Format) bool {
	return format == core.FormatJPEG
}

func (j *JPEG) Encode(ctx context.Context, img *core.ImageData, opts core.EncodeOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, "jpeg.encode", err)
	}
	if img == nil || img.Image == nil {
		return nil, apperrors.New(apperrors.CategoryEncode, "jpeg.encode", apperrors.ErrEmptyInput)
	}

	quality := opts.Quality
	if quality <= 0 {
		quality = j.DefaultQuality
	}
	quality = min(quality, 100)

	buf := utils.AcquireBuffer()
	if err := jpeg.Encode(buf, img.Image, &jpeg.Options{Quality: quality}); err != nil {
		utils.ReleaseBuffer(buf)
		return nil, apperrors.Wrap(apperrors.CategoryEncode, "jpeg.encode", err)
	}
	return utils.DrainBuffer(buf), nil
}

// RegisterDefaults registers the pure-Go encoders on reg.
func RegisterDefaults(reg core.Registry, jpegQuality int) {
	reg.RegisterEncoder(core.FormatJPEG, NewJPEG(jpegQuality))
	reg.RegisterEncoder(core.FormatPNG, NewPNG())
}
