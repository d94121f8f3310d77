// Package presets persists named augmentation Options.
package presets

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/Skryldev/image-augmentor/core"
	apperrors "github.com/Skryldev/image-augmentor/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DirName is the directory created under the user config dir for presets.
const DirName = "image_setakgi"

// ValidateName rejects names that cannot map to a single file: empty names,
// path separators and dot segments.
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "",
		strings.ContainsAny(name, `/\`),
		name == "." || name == "..",
		strings.ContainsRune(name, 0):
		return apperrors.New(apperrors.CategoryConfig, "preset.name",
			fmt.Errorf("%w: %q", apperrors.ErrInvalidPresetName, name))
	}
	return nil
}

func marshal(opts core.Options) ([]byte, error) {
	data, err := json.MarshalIndent(opts, "", "  ")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryConfig, "preset.marshal", err)
	}
	return data, nil
}

// unmarshal decodes a preset over the defaults so a preset written by an
// older build that lacks a field still loads. The result must validate.
func unmarshal(name string, data []byte) (core.Options, error) {
	opts := core.DefaultOptions()
	if err := json.Unmarshal(data, &opts); err != nil {
		return core.Options{}, apperrors.New(apperrors.CategoryConfig, "preset.load",
			fmt.Errorf("%w: %s: %v", apperrors.ErrMalformedPreset, name, err))
	}
	if err := opts.Validate(); err != nil {
		return core.Options{}, apperrors.New(apperrors.CategoryConfig, "preset.load",
			fmt.Errorf("%w: %s: %v", apperrors.ErrMalformedPreset, name, err))
	}
	return opts, nil
}

func notFound(name string) error {
	return apperrors.New(apperrors.CategoryConfig, "preset.load",
		fmt.Errorf("%w: %s", apperrors.ErrPresetNotFound, name))
}
