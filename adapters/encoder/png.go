package encoder

import (
	"context"
	"image/png"
	"sync"

	"github.com/Skryldev/image-augmentor/core"
	apperrors "github.com/Skryldev/image-augmentor/errors"
	"github.com/Skryldev/image-augmentor/utils"
)

// PNG encodes images to lossless PNG. Quality is ignored.
type PNG struct {
	enc *png.Encoder
}

func NewPNG() *PNG {
	return &PNG{enc: &png.Encoder{
		CompressionLevel: png.DefaultCompression,
		BufferPool:       &encoderPool{},
	}}
}

func (p *PNG) CanEncode(format core.Format) bool { return format == core.FormatPNG }

func (p *PNG) Encode(ctx context.Context, img *core.ImageData, _ core.EncodeOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, "png.encode", err)
	}
	if img == nil || img.Image == nil {
		return nil, apperrors.New(apperrors.CategoryEncode, "png.encode", apperrors.ErrEmptyInput)
	}

	buf := utils.AcquireBuffer()
	if err := p.enc.Encode(buf, img.Image); err != nil {
		utils.ReleaseBuffer(buf)
		return nil, apperrors.Wrap(apperrors.CategoryEncode, "png.encode", err)
	}
	return utils.DrainBuffer(buf), nil
}

// encoderPool shares png.EncoderBuffer values between concurrent encodes.
type encoderPool struct {
	pool sync.Pool
}

func (e *encoderPool) Get() *png.EncoderBuffer {
	b, _ := e.pool.Get().(*png.EncoderBuffer)
	return b
}

func (e *encoderPool) Put(b *png.EncoderBuffer) { e.pool.Put(b) }
