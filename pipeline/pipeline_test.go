package pipeline

import (
	"context"
	"image"
	"image/color"
	"math/rand/v2"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/Skryldev/image-augmentor/core"
)

// ── Test helpers ──────────────────────────────────────────────────────────────

func gradient(w, h int) *core.ImageData {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / max(w-1, 1)),
				G: uint8(y * 255 / max(h-1, 1)),
				B: 128,
				A: 255,
			})
		}
	}
	return &core.ImageData{
		Image:  img,
		Format: core.FormatPNG,
		Meta:   core.Metadata{Width: w, Height: h, Format: core.FormatPNG},
	}
}

func fixedRand() *rand.Rand { return NewRand(42, 0) }

func samePixels(t *testing.T, a, b image.Image) bool {
	t.Helper()
	if a.Bounds().Size() != b.Bounds().Size() {
		return false
	}
	ab, bb := a.Bounds(), b.Bounds()
	for y := 0; y < ab.Dy(); y++ {
		for x := 0; x < ab.Dx(); x++ {
			c1 := color.NRGBAModel.Convert(a.At(ab.Min.X+x, ab.Min.Y+y))
			c2 := color.NRGBAModel.Convert(b.At(bb.Min.X+x, bb.Min.Y+y))
			if c1 != c2 {
				return false
			}
		}
	}
	return true
}

type recordingHook struct {
	mu     sync.Mutex
	before []string
	after  []string
}

func (h *recordingHook) BeforeStep(_ context.Context, name string, _ *core.ImageData) {
	h.mu.Lock()
	h.before = append(h.before, name)
	h.mu.Unlock()
}

func (h *recordingHook) AfterStep(_ context.Context, name string, _ *core.ImageData, _ time.Duration, _ error) {
	h.mu.Lock()
	h.after = append(h.after, name)
	h.mu.Unlock()
}

// ── Build / Run ───────────────────────────────────────────────────────────────

func TestBuild_StageOrder(t *testing.T) {
	opts := core.DefaultOptions()

	got := Build(opts).Stages()
	want := []string{"resize", "rotate", "brightness_contrast", "noise", "strip_exif"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("stages: got %v, want %v", got, want)
	}

	opts.StripEXIF = false
	got = Build(opts).Stages()
	if !reflect.DeepEqual(got, want[:4]) {
		t.Errorf("stages without strip: got %v, want %v", got, want[:4])
	}
}

func TestRun_HooksObserveEveryStage(t *testing.T) {
	hook := &recordingHook{}
	p := Build(core.DefaultOptions(), hook)

	p.Run(context.Background(), gradient(20, 10), fixedRand())

	if !reflect.DeepEqual(hook.before, p.Stages()) {
		t.Errorf("before: got %v, want %v", hook.before, p.Stages())
	}
	if !reflect.DeepEqual(hook.after, p.Stages()) {
		t.Errorf("after: got %v, want %v", hook.after, p.Stages())
	}
}

func TestRun_FixedSeedIsDeterministic(t *testing.T) {
	p := Build(core.DefaultOptions())
	in := gradient(40, 30)

	a := p.Run(context.Background(), in, NewRand(7, 3))
	b := p.Run(context.Background(), in, NewRand(7, 3))
	if !samePixels(t, a.Image, b.Image) {
		t.Error("same seed and stream produced different output")
	}
}

func TestRun_StreamsDiffer(t *testing.T) {
	opts := core.DefaultOptions()
	opts.NoiseSigma = 40
	p := Build(opts)
	in := gradient(40, 30)

	a := p.Run(context.Background(), in, NewRand(7, 0))
	b := p.Run(context.Background(), in, NewRand(7, 1))
	if samePixels(t, a.Image, b.Image) {
		t.Error("different streams produced identical noisy output")
	}
}

func TestRun_DoesNotMutateInput(t *testing.T) {
	opts := core.DefaultOptions()
	opts.NoiseSigma = 30
	in := gradient(16, 16)
	before := append([]uint8(nil), in.Image.(*image.NRGBA).Pix...)

	Build(opts).Run(context.Background(), in, fixedRand())

	if !reflect.DeepEqual(before, in.Image.(*image.NRGBA).Pix) {
		t.Error("pipeline modified its input image")
	}
}

func TestRun_ConcurrentSharedPipeline(t *testing.T) {
	p := Build(core.DefaultOptions())
	in := gradient(32, 32)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(stream uint64) {
			defer wg.Done()
			out := p.Run(context.Background(), in, NewRand(1, stream))
			if out.Meta.Width < 1 || out.Meta.Height < 1 {
				t.Errorf("stream %d: empty output", stream)
			}
		}(uint64(i))
	}
	wg.Wait()
}

// ── Transforms ────────────────────────────────────────────────────────────────

func TestScaledSize(t *testing.T) {
	tests := []struct {
		w, h   int
		scale  float64
		wW, wH int
	}{
		{100, 50, 1.0, 100, 50},
		{100, 50, 0.5, 50, 25},
		{101, 51, 0.5, 51, 26},
		{10, 10, 1.1, 11, 11},
		{3, 1, 0.1, 1, 1},
		{1, 1, 0.01, 1, 1},
	}
	for _, tt := range tests {
		gw, gh := ScaledSize(tt.w, tt.h, tt.scale)
		if gw != tt.wW || gh != tt.wH {
			t.Errorf("ScaledSize(%d,%d,%v) = %dx%d, want %dx%d",
				tt.w, tt.h, tt.scale, gw, gh, tt.wW, tt.wH)
		}
	}
}

func TestResize_DegenerateRange(t *testing.T) {
	out := (&Resize{Min: 0.5, Max: 0.5}).Apply(gradient(100, 50), fixedRand())
	if out.Meta.Width != 50 || out.Meta.Height != 25 {
		t.Errorf("got %dx%d, want 50x25", out.Meta.Width, out.Meta.Height)
	}
	if b := out.Image.Bounds(); b.Dx() != 50 || b.Dy() != 25 {
		t.Errorf("image bounds %v do not match metadata", b)
	}
}

func TestResize_FloorsAtOnePixel(t *testing.T) {
	out := (&Resize{Min: 0.1, Max: 0.1}).Apply(gradient(3, 1), fixedRand())
	if out.Meta.Width != 1 || out.Meta.Height != 1 {
		t.Errorf("got %dx%d, want 1x1", out.Meta.Width, out.Meta.Height)
	}
}

func TestResize_WithinRange(t *testing.T) {
	r := &Resize{Min: 0.5, Max: 1.5}
	rng := fixedRand()
	for i := 0; i < 50; i++ {
		out := r.Apply(gradient(100, 100), rng)
		if out.Meta.Width < 50 || out.Meta.Width > 150 {
			t.Fatalf("width %d outside [50,150]", out.Meta.Width)
		}
	}
}

func TestRotate_ZeroIsIdentity(t *testing.T) {
	in := gradient(20, 10)
	out := (&Rotate{MaxDeg: 0}).Apply(in, fixedRand())
	if out != in {
		t.Error("Rotate with MaxDeg 0 should return its input unchanged")
	}
}

func TestRotateImage_KeepsSizeAndClearsCorners(t *testing.T) {
	in := gradient(40, 20)
	out := RotateImage(in.Image, 0.5)

	if out.Bounds().Dx() != 40 || out.Bounds().Dy() != 20 {
		t.Fatalf("rotated size %v, want 40x20", out.Bounds())
	}
	if a := out.NRGBAAt(0, 0).A; a != 0 {
		t.Errorf("corner alpha = %d, want 0", a)
	}
	if a := out.NRGBAAt(20, 10).A; a != 255 {
		t.Errorf("center alpha = %d, want 255", a)
	}
}

func TestBrightnessContrast_ZeroRangeIsIdentity(t *testing.T) {
	in := gradient(32, 8)
	out := (&BrightnessContrast{}).Apply(in, fixedRand())
	if !samePixels(t, in.Image, out.Image) {
		t.Error("zero brightness and contrast changed pixels")
	}
}

func TestAdjustBrightnessContrast(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 100, G: 250, B: 0, A: 77})

	tests := []struct {
		name  string
		delta int
		c     float64
		want  color.NRGBA
	}{
		{"brighten clamps", 10, 0, color.NRGBA{R: 110, G: 255, B: 10, A: 77}},
		{"darken clamps", -10, 0, color.NRGBA{R: 90, G: 240, B: 0, A: 77}},
		// factor (150/100)^2 = 2.25 around 127.5
		{"contrast stretch", 0, 50, color.NRGBA{R: 66, G: 255, B: 0, A: 77}},
		// factor 0 collapses to mid-gray
		{"contrast flatten", 0, -100, color.NRGBA{R: 128, G: 128, B: 128, A: 77}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AdjustBrightnessContrast(src, tt.delta, tt.c).NRGBAAt(0, 0)
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNoise_ZeroIsIdentity(t *testing.T) {
	in := gradient(10, 10)
	out := (&Noise{Sigma: 0}).Apply(in, fixedRand())
	if out != in {
		t.Error("Noise with sigma 0 should return its input unchanged")
	}
}

func TestNoise_BoundedAndAlphaUntouched(t *testing.T) {
	in := gradient(16, 16)
	out := (&Noise{Sigma: 3}).Apply(in, fixedRand()).Image.(*image.NRGBA)
	src := in.Image.(*image.NRGBA)
	for i := range src.Pix {
		d := int(out.Pix[i]) - int(src.Pix[i])
		if i%4 == 3 {
			if d != 0 {
				t.Fatalf("alpha changed at byte %d", i)
			}
			continue
		}
		if d < -3 || d > 3 {
			t.Fatalf("channel delta %d exceeds sigma at byte %d", d, i)
		}
	}
}

func TestStripEXIF(t *testing.T) {
	in := gradient(4, 4)
	in.Meta.EXIF = map[string]string{"Make": "test"}
	in.Meta.HasEXIF = true
	in.Meta.Orientation = 6

	out := StripEXIF{}.Apply(in, nil)
	if out.Meta.EXIF != nil || out.Meta.HasEXIF || out.Meta.Orientation != 0 {
		t.Errorf("metadata not cleared: %+v", out.Meta)
	}
	if !out.Meta.StripMetadata {
		t.Error("StripMetadata flag not set")
	}
	if in.Meta.EXIF == nil {
		t.Error("input metadata was modified")
	}
	if out.Image != in.Image {
		t.Error("strip_exif should not touch pixels")
	}
}

// ── Saturation ────────────────────────────────────────────────────────────────

func TestSaturate_OneIsIdentity(t *testing.T) {
	in := gradient(32, 32)
	if !samePixels(t, in.Image, Saturate(in.Image, 1.0)) {
		t.Error("saturation 1.0 changed pixels")
	}
}

func TestSaturate_ZeroIsGray(t *testing.T) {
	out := Saturate(gradient(16, 16).Image, 0)
	for i := 0; i < len(out.Pix); i += 4 {
		if out.Pix[i] != out.Pix[i+1] || out.Pix[i+1] != out.Pix[i+2] {
			t.Fatalf("pixel %d not gray: %v", i/4, out.Pix[i:i+3])
		}
	}
}

func TestSaturateStep(t *testing.T) {
	hook := &recordingHook{}
	p := New(nil, hook)
	out := p.Step(context.Background(), SaturateStep{Amount: 0}, gradient(8, 8), nil)

	if out.Meta.Width != 8 {
		t.Errorf("width: got %d, want 8", out.Meta.Width)
	}
	if !reflect.DeepEqual(hook.after, []string{"saturation"}) {
		t.Errorf("hook saw %v", hook.after)
	}
}

// ── Benchmarks ────────────────────────────────────────────────────────────────

func BenchmarkPipeline_Defaults(b *testing.B) {
	p := Build(core.DefaultOptions())
	in := gradient(256, 256)
	rng := NewRand(1, 0)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.Run(context.Background(), in, rng)
	}
}
