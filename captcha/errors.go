package captcha

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure returned by this package wraps exactly one of them.
var (
	// ErrInvalidConfig is returned before any rendering starts.
	ErrInvalidConfig = errors.New("captcha: invalid configuration")
	// ErrEntropy means the random source could not be seeded. It is never retried.
	ErrEntropy = errors.New("captcha: entropy source failure")
	// ErrRendering covers font and drawing failures.
	ErrRendering = errors.New("captcha: rendering failure")
)

// ConfigError describes a rejected configuration field.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("captcha: invalid %s: %s", e.Field, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

func configErrorf(field, format string, args ...any) error {
	return &ConfigError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// StageError records the pipeline stage a Generate call failed in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("captcha: %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
