package core

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// BatchDirLayout is the time layout of batch output directory names.
const BatchDirLayout = "output_20060102_150405"

// BatchDirName returns the output directory name for a batch started at t.
func BatchDirName(t time.Time) string { return t.Format(BatchDirLayout) }

// FormatForName picks the output format from the extension of the original
// file name, case-insensitively. The file content is never consulted.
func FormatForName(name string) Format {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".webp"):
		return FormatWebP
	case strings.HasSuffix(lower, ".png"):
		return FormatPNG
	default:
		return FormatJPEG
	}
}

// QualityFor returns the encode quality o configures for f. PNG is lossless
// and reports 0.
func (o Options) QualityFor(f Format) int {
	switch f {
	case FormatWebP:
		return o.WebPQuality
	case FormatJPEG:
		return o.JPEGQuality
	}
	return 0
}

// OutputFilename builds "{name}_mod_{seq:03}.{ext}". Directory components of
// name are dropped so outputs always land inside the batch directory.
func OutputFilename(name string, seq int, f Format) string {
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))
	switch base {
	case ".", "..", "/":
		base = "image"
	}
	return fmt.Sprintf("%s_mod_%03d.%s", base, seq, f.Ext())
}
