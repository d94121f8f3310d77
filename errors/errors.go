package errors

import (
	"errors"
	"fmt"
)

// Category classifies error types for targeted handling and monitoring.
type Category string

const (
	CategoryDecode   Category = "decode"
	CategoryEncode   Category = "encode"
	CategoryIO       Category = "io"
	CategoryConfig   Category = "config"
	CategoryPipeline Category = "pipeline"
	CategoryInput    Category = "input"
)

// ProcessingError is the structured error type used throughout the module.
type ProcessingError struct {
	Category Category
	Op       string // operation name
	Err      error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Category, e.Op, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// New creates a ProcessingError.
func New(category Category, op string, err error) *ProcessingError {
	return &ProcessingError{Category: category, Op: op, Err: err}
}

// Wrap wraps an existing error with context. A nil err stays nil.
func Wrap(category Category, op string, err error) error {
	if err == nil {
		return nil
	}
	return New(category, op, err)
}

// IsCategory reports whether err belongs to the given category.
func IsCategory(err error, cat Category) bool {
	var pe *ProcessingError
	if errors.As(err, &pe) {
		return pe.Category == cat
	}
	return false
}

// CategoryOf returns the category of err, or CategoryPipeline for errors that
// did not originate in this module.
func CategoryOf(err error) Category {
	var pe *ProcessingError
	if errors.As(err, &pe) {
		return pe.Category
	}
	return CategoryPipeline
}

// Sentinel errors for common failure modes.
var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrEmptyInput        = errors.New("empty input")
	ErrInputTooLarge     = errors.New("input exceeds size limit")
	ErrInvalidOptions    = errors.New("invalid augmentation options")
	ErrStoreUnavailable  = errors.New("preset store unavailable")
	ErrPresetNotFound    = errors.New("preset not found")
	ErrMalformedPreset   = errors.New("malformed preset")
	ErrInvalidPresetName = errors.New("invalid preset name")
)
