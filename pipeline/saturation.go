package pipeline

import (
	"image"
	"math/rand/v2"

	"github.com/Skryldev/image-augmentor/core"
)

// Rec. 709 luma weights.
const (
	lumaR = 0.2126
	lumaG = 0.7152
	lumaB = 0.0722
)

// Saturate moves every pixel's color channels toward (amount < 1) or away from
// (amount > 1) its luma. 1.0 is the identity and 0.0 yields grayscale.
func Saturate(src image.Image, amount float64) *image.NRGBA {
	dst := toNRGBA(src)
	for i := 0; i < len(dst.Pix); i += 4 {
		r, g, b := float64(dst.Pix[i]), float64(dst.Pix[i+1]), float64(dst.Pix[i+2])
		luma := lumaR*r + lumaG*g + lumaB*b
		dst.Pix[i] = clampRound((r-luma)*amount + luma)
		dst.Pix[i+1] = clampRound((g-luma)*amount + luma)
		dst.Pix[i+2] = clampRound((b-luma)*amount + luma)
	}
	return dst
}

// SaturateStep adapts Saturate to core.Transform so it can run under hooks.
type SaturateStep struct {
	Amount float64
}

func (s SaturateStep) Name() string { return "saturation" }

func (s SaturateStep) Apply(img *core.ImageData, _ *rand.Rand) *core.ImageData {
	return img.WithImage(Saturate(img.Image, s.Amount))
}
