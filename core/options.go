package core

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/Skryldev/image-augmentor/errors"
)

// Options is the augmentation configuration for one request. It is a plain
// value: build it once, then share it read-only across workers.
type Options struct {
	ResizeMin       float64 `json:"resizeMin" mapstructure:"resize-min" default:"0.9" validate:"gt=0"`
	ResizeMax       float64 `json:"resizeMax" mapstructure:"resize-max" default:"1.1" validate:"gt=0,gtefield=ResizeMin"`
	RotateMaxDeg    float64 `json:"rotateMaxDeg" mapstructure:"rotate-max-deg" default:"2" validate:"gte=0"`
	BrightnessRange float64 `json:"brightnessRange" mapstructure:"brightness-range" default:"5" validate:"gte=0"`
	ContrastRange   float64 `json:"contrastRange" mapstructure:"contrast-range" default:"5" validate:"gte=0"`
	NoiseSigma      float64 `json:"noiseSigma" mapstructure:"noise-sigma" default:"1" validate:"gte=0"`
	JPEGQuality     int     `json:"jpegQuality" mapstructure:"jpeg-quality" default:"90" validate:"min=1,max=100"`
	WebPQuality     int     `json:"webpQuality" mapstructure:"webp-quality" default:"90" validate:"min=1,max=100"`
	StripEXIF       bool    `json:"stripExif" mapstructure:"strip-exif" default:"true"`
}

// DefaultOptions returns the stock augmentation settings.
func DefaultOptions() Options {
	return Options{
		ResizeMin:       0.9,
		ResizeMax:       1.1,
		RotateMaxDeg:    2,
		BrightnessRange: 5,
		ContrastRange:   5,
		NoiseSigma:      1,
		JPEGQuality:     90,
		WebPQuality:     90,
		StripEXIF:       true,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate reports whether o is usable. The returned error is config-category
// and wraps ErrInvalidOptions.
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return apperrors.New(apperrors.CategoryConfig, "options.validate",
			fmt.Errorf("%w: %v", apperrors.ErrInvalidOptions, err))
	}
	return nil
}
