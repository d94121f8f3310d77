package output

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/Skryldev/image-augmentor/adapters/encoder"
	"github.com/Skryldev/image-augmentor/adapters/storage"
	"github.com/Skryldev/image-augmentor/core"
	apperrors "github.com/Skryldev/image-augmentor/errors"
	"github.com/Skryldev/image-augmentor/utils"
)

func newWriter() *Writer {
	reg := core.NewRegistry()
	encoder.RegisterDefaults(reg, 90)
	return NewWriter(reg, storage.NewLocal(0))
}

func testImage() *core.ImageData {
	img := image.NewNRGBA(image.Rect(0, 0, 12, 9))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 30, 60, 90, 255
	}
	return &core.ImageData{Image: img, Format: core.FormatJPEG, Meta: core.Metadata{Width: 12, Height: 9}}
}

func TestWrite_FormatByName(t *testing.T) {
	w := newWriter()
	tests := []struct {
		name     string
		wantFile string
		wantFmt  core.Format
	}{
		{"cat.PNG", "cat.PNG_mod_001.png", core.FormatPNG},
		{"dog.jpeg", "dog.jpeg_mod_001.jpg", core.FormatJPEG},
		{"scan.bmp", "scan.bmp_mod_001.jpg", core.FormatJPEG},
		{"noext", "noext_mod_001.jpg", core.FormatJPEG},
		{"dir/sub/pic.png", "pic.png_mod_001.png", core.FormatPNG},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path, err := w.Write(context.Background(), dir, testImage(), tt.name, 1, core.DefaultOptions())
			if err != nil {
				t.Fatalf("Write: %v", err)
			}
			if path != filepath.Join(dir, tt.wantFile) {
				t.Errorf("path: got %s, want %s", path, tt.wantFile)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if got := utils.DetectFormat(data); got != tt.wantFmt {
				t.Errorf("content format: got %s, want %s", got, tt.wantFmt)
			}
		})
	}
}

func TestEncode_PNGNameIgnoresSourceFormat(t *testing.T) {
	data, format, err := newWriter().Encode(context.Background(), testImage(), "really-a-jpeg.png", core.DefaultOptions())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if format != core.FormatPNG {
		t.Fatalf("format: got %s, want png", format)
	}
	out, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if got := color.NRGBAModel.Convert(out.At(3, 3)); got != (color.NRGBA{R: 30, G: 60, B: 90, A: 255}) {
		t.Errorf("pixel: got %v", got)
	}
}

func TestEncode_MissingEncoder(t *testing.T) {
	_, _, err := newWriter().Encode(context.Background(), testImage(), "x.webp", core.DefaultOptions())
	if !errors.Is(err, apperrors.ErrUnsupportedFormat) {
		t.Errorf("want ErrUnsupportedFormat, got %v", err)
	}
	if !apperrors.IsCategory(err, apperrors.CategoryEncode) {
		t.Errorf("want encode category, got %v", err)
	}
}

func TestWrite_SequencePadding(t *testing.T) {
	dir := t.TempDir()
	path, err := newWriter().Write(context.Background(), dir, testImage(), "a.png", 42, core.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "a.png_mod_042.png" {
		t.Errorf("got %s", filepath.Base(path))
	}
}

func TestEncode_RegisteredEncoderMustHandleFormat(t *testing.T) {
	reg := core.NewRegistry()
	reg.RegisterEncoder(core.FormatPNG, encoder.NewJPEG(90))
	w := NewWriter(reg, storage.NewLocal(0))

	_, _, err := w.Encode(context.Background(), testImage(), "x.png", core.DefaultOptions())
	if !errors.Is(err, apperrors.ErrUnsupportedFormat) {
		t.Errorf("want ErrUnsupportedFormat, got %v", err)
	}
}
