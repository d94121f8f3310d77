// Package output encodes augmented images and writes them into a batch
// directory under their deterministic names.
package output

import (
	"bytes"
	"context"
	"fmt"

	"github.com/Skryldev/image-augmentor/core"
	apperrors "github.com/Skryldev/image-augmentor/errors"
)

// Writer turns a processed image into a named file. It holds no per-batch
// state and is safe for concurrent use.
type Writer struct {
	registry core.Registry
	storage  core.StorageAdapter
}

// NewWriter returns a Writer that encodes through reg and writes to store.
func NewWriter(reg core.Registry, store core.StorageAdapter) *Writer {
	return &Writer{registry: reg, storage: store}
}

// Encode serialises img in the format chosen by the original name's
// extension, using the matching quality from opts.
func (w *Writer) Encode(ctx context.Context, img *core.ImageData, name string, opts core.Options) ([]byte, core.Format, error) {
	format := core.FormatForName(name)
	enc, ok := w.registry.EncoderFor(format)
	if !ok || !enc.CanEncode(format) {
		return nil, format, apperrors.New(apperrors.CategoryEncode, "output.encode",
			fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFormat, format))
	}

	target := *img
	target.Format = format
	data, err := enc.Encode(ctx, &target, core.EncodeOptions{
		Quality:   opts.QualityFor(format),
		StripEXIF: img.Meta.StripMetadata,
	})
	if err != nil {
		return nil, format, apperrors.Wrap(apperrors.CategoryEncode, "output.encode", err)
	}
	return data, format, nil
}

// Write encodes img and stores it in dir as {name}_mod_{seq:03}.{ext},
// returning the written path.
func (w *Writer) Write(ctx context.Context, dir string, img *core.ImageData, name string, seq int, opts core.Options) (string, error) {
	data, format, err := w.Encode(ctx, img, name, opts)
	if err != nil {
		return "", err
	}
	key := core.StorageKey{Bucket: dir, Path: core.OutputFilename(name, seq, format)}
	return w.storage.Put(ctx, key, bytes.NewReader(data))
}
