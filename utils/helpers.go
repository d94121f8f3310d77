package utils

import (
	"bytes"
	"net/http"

	"github.com/Skryldev/image-augmentor/core"
)

// DetectFormat sniffs the leading magic bytes of data and returns the image
// format, or core.FormatUnknown.
func DetectFormat(data []byte) core.Format {
	if len(data) < 4 {
		return core.FormatUnknown
	}
	switch {
	// JPEG: FF D8 FF
	case data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return core.FormatJPEG
	// PNG: 89 50 4E 47
	case bytes.HasPrefix(data, []byte{0x89, 'P', 'N', 'G'}):
		return core.FormatPNG
	case bytes.HasPrefix(data, []byte("GIF87a")), bytes.HasPrefix(data, []byte("GIF89a")):
		return core.FormatGIF
	// WebP: RIFF....WEBP
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return core.FormatWebP
	case data[0] == 'B' && data[1] == 'M':
		return core.FormatBMP
	// TIFF: little-endian II*\0 or big-endian MM\0*
	case bytes.HasPrefix(data, []byte{'I', 'I', 0x2A, 0x00}), bytes.HasPrefix(data, []byte{'M', 'M', 0x00, 0x2A}):
		return core.FormatTIFF
	}
	// Fallback to net/http sniffing.
	switch http.DetectContentType(data) {
	case "image/jpeg":
		return core.FormatJPEG
	case "image/png":
		return core.FormatPNG
	case "image/gif":
		return core.FormatGIF
	case "image/webp":
		return core.FormatWebP
	case "image/bmp":
		return core.FormatBMP
	}
	return core.FormatUnknown
}

// CloneBytes returns a copy of b (safe for use after the source buffer is released).
func CloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
