package core

import (
	"context"
	"io"
	"time"
)

// Decoder converts raw bytes into an in-memory ImageData.
// Implementations live in adapters/decoder/.
type Decoder interface {
	Decode(ctx context.Context, r io.Reader) (*ImageData, error)
	CanDecode(format Format) bool
}

// Encoder serialises an ImageData to bytes in a target format.
// Implementations live in adapters/encoder/ and adapters/vips/.
type Encoder interface {
	Encode(ctx context.Context, img *ImageData, opts EncodeOptions) ([]byte, error)
	CanEncode(format Format) bool
}

// EncodeOptions carries format-specific encoding parameters.
type EncodeOptions struct {
	Quality   int // 1-100; 0 = use encoder default
	StripEXIF bool
}

// StorageAdapter persists encoded output files.
// Implementations live in adapters/storage/.
type StorageAdapter interface {
	// CreateBatchDir creates a fresh, timestamp-named directory under root.
	CreateBatchDir(ctx context.Context, root string, now time.Time) (string, error)
	// Put writes r to key and returns the written path.
	Put(ctx context.Context, key StorageKey, r io.Reader) (string, error)
}

// PresetStore persists named Options.
// Implementations live in adapters/presets/.
type PresetStore interface {
	Save(name string, opts Options) error
	Load(name string) (Options, error)
	// Names lists stored presets in lexical order.
	Names() ([]string, error)
}

// MetricsCollector receives performance observations from the pipeline.
type MetricsCollector interface {
	RecordProcessingTime(stepName string, d interface{ Seconds() float64 })
	RecordThroughput(bytes int64)
	RecordError(stepName string, category string)
}

// Logger is a minimal structured logging interface.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// Registry maps Format values to Decoder/Encoder implementations.
type Registry interface {
	DecoderFor(format Format) (Decoder, bool)
	EncoderFor(format Format) (Encoder, bool)
	RegisterDecoder(format Format, d Decoder)
	RegisterEncoder(format Format, e Encoder)
}
