package config

import (
	"errors"
	"fmt"

	"squash/internal/capture"
	"squash/internal/logging"
)

// ValidationError collects every invalid field so a user can fix a file
// in one pass.
type ValidationError struct {
	Errs []error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %v", errors.Join(e.Errs...))
}

func (e *ValidationError) Unwrap() []error {
	return e.Errs
}

func Validate(cfg *Config) error {
	var errs []error

	if _, ok := logging.ParseLevel(cfg.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("log_level: unknown level %q", cfg.LogLevel))
	}
	if err := cfg.Search.Schedule().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("search: %w", err))
	}
	if q := cfg.Compress.DefaultQuality; q < 1 || q > 100 {
		errs = append(errs, fmt.Errorf("compress.default_quality: must be within 1..100, got %d", q))
	}

	c := cfg.Capture
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("capture: width and height must be positive, got %dx%d", c.Width, c.Height))
	}
	if _, err := capture.ParseFacing(c.Facing); err != nil {
		errs = append(errs, fmt.Errorf("capture.%w", err))
	}
	if c.ReadyTimeout <= 0 {
		errs = append(errs, fmt.Errorf("capture.ready_timeout: must be positive, got %s", c.ReadyTimeout))
	}
	if q := c.SnapshotQuality; q < 1 || q > 100 {
		errs = append(errs, fmt.Errorf("capture.snapshot_quality: must be within 1..100, got %d", q))
	}

	if len(errs) > 0 {
		return &ValidationError{Errs: errs}
	}
	return nil
}
