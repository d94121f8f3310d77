package pipeline

import (
	"image"
	"math"
	"math/rand/v2"

	"github.com/nfnt/resize"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/Skryldev/image-augmentor/core"
)

// ── Resize ────────────────────────────────────────────────────────────────────

// Resize scales both axes by one factor drawn uniformly from [Min, Max].
type Resize struct {
	Min, Max float64
}

func (t *Resize) Name() string { return "resize" }

func (t *Resize) Apply(img *core.ImageData, rng *rand.Rand) *core.ImageData {
	scale := uniform(rng, t.Min, t.Max)
	b := img.Image.Bounds()
	w, h := ScaledSize(b.Dx(), b.Dy(), scale)
	return img.WithImage(resize.Resize(uint(w), uint(h), img.Image, resize.Lanczos3))
}

// ScaledSize returns round(w*scale) x round(h*scale), never below 1x1.
func ScaledSize(w, h int, scale float64) (int, int) {
	nw := int(math.Round(float64(w) * scale))
	nh := int(math.Round(float64(h) * scale))
	return max(nw, 1), max(nh, 1)
}

// ── Rotate ────────────────────────────────────────────────────────────────────

// Rotate turns the image about its center by an angle drawn uniformly from
// [-MaxDeg, +MaxDeg]. The canvas keeps its size; uncovered pixels are transparent.
type Rotate struct {
	MaxDeg float64
}

func (t *Rotate) Name() string { return "rotate" }

func (t *Rotate) Apply(img *core.ImageData, rng *rand.Rand) *core.ImageData {
	if t.MaxDeg <= 0 {
		return img
	}
	deg := uniform(rng, -t.MaxDeg, t.MaxDeg)
	out := img.WithImage(RotateImage(img.Image, deg*math.Pi/180))
	out.Meta.HasAlpha = true
	return out
}

// RotateImage rotates src by rad radians about its center using nearest
// neighbour sampling.
func RotateImage(src image.Image, rad float64) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	sin, cos := math.Sincos(rad)
	// Source center and destination center coincide after translating the
	// source origin to (0,0).
	cx := float64(b.Min.X) + float64(b.Dx())/2
	cy := float64(b.Min.Y) + float64(b.Dy())/2
	dx := float64(b.Dx()) / 2
	dy := float64(b.Dy()) / 2
	s2d := f64.Aff3{
		cos, -sin, dx - cos*cx + sin*cy,
		sin, cos, dy - sin*cx - cos*cy,
	}
	xdraw.NearestNeighbor.Transform(dst, s2d, src, b, xdraw.Src, nil)
	return dst
}

// ── Brightness / contrast ─────────────────────────────────────────────────────

// BrightnessContrast shifts brightness by an integer in [-⌊Brightness⌋, +⌊Brightness⌋]
// and then remaps contrast around mid-gray by a delta in [-Contrast, +Contrast].
type BrightnessContrast struct {
	Brightness float64
	Contrast   float64
}

func (t *BrightnessContrast) Name() string { return "brightness_contrast" }

func (t *BrightnessContrast) Apply(img *core.ImageData, rng *rand.Rand) *core.ImageData {
	delta := 0
	if span := int(math.Floor(t.Brightness)); span > 0 {
		delta = rng.IntN(2*span+1) - span
	}
	c := 0.0
	if t.Contrast > 0 {
		c = uniform(rng, -t.Contrast, t.Contrast)
	}
	return img.WithImage(AdjustBrightnessContrast(img.Image, delta, c))
}

// AdjustBrightnessContrast adds delta to each color channel, then applies the
// contrast factor ((100+c)/100)^2 centered on mid-gray. Alpha is preserved.
func AdjustBrightnessContrast(src image.Image, delta int, c float64) *image.NRGBA {
	factor := math.Pow((100+c)/100, 2)
	var lut [256]uint8
	for v := range lut {
		bright := float64(clampInt(v + delta))
		lut[v] = clampRound(((bright/255-0.5)*factor + 0.5) * 255)
	}

	dst := toNRGBA(src)
	for i := 0; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = lut[dst.Pix[i]]
		dst.Pix[i+1] = lut[dst.Pix[i+1]]
		dst.Pix[i+2] = lut[dst.Pix[i+2]]
	}
	return dst
}

// ── Noise ─────────────────────────────────────────────────────────────────────

// Noise adds independent uniform noise in [-Sigma, +Sigma] to every color
// channel of every pixel.
type Noise struct {
	Sigma float64
}

func (t *Noise) Name() string { return "noise" }

func (t *Noise) Apply(img *core.ImageData, rng *rand.Rand) *core.ImageData {
	if t.Sigma <= 0 {
		return img
	}
	dst := toNRGBA(img.Image)
	for i := 0; i < len(dst.Pix); i += 4 {
		for ch := i; ch < i+3; ch++ {
			dst.Pix[ch] = clampRound(float64(dst.Pix[ch]) + uniform(rng, -t.Sigma, t.Sigma))
		}
	}
	return img.WithImage(dst)
}

// ── EXIF strip ────────────────────────────────────────────────────────────────

// StripEXIF drops metadata and flags the image so encoders emit none.
type StripEXIF struct{}

func (StripEXIF) Name() string { return "strip_exif" }

func (StripEXIF) Apply(img *core.ImageData, _ *rand.Rand) *core.ImageData {
	out := *img
	out.Meta.EXIF = nil
	out.Meta.HasEXIF = false
	out.Meta.Orientation = 0
	out.Meta.StripMetadata = true
	return &out
}

// ── helpers ───────────────────────────────────────────────────────────────────

// uniform draws from [lo, hi]; a degenerate range returns lo exactly.
func uniform(rng *rand.Rand, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + rng.Float64()*(hi-lo)
}

// toNRGBA returns a fresh, zero-origin NRGBA copy of src.
func toNRGBA(src image.Image) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(dst, dst.Bounds(), src, b.Min, xdraw.Src)
	return dst
}

func clampRound(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(math.Round(v))
}

func clampInt(v int) int {
	return min(max(v, 0), 255)
}
