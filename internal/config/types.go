// Package config loads squash settings from config.yaml, SQUASH_*
// environment variables and built-in defaults.
package config

import (
	"time"

	"squash/internal/capture"
	"squash/internal/search"
)

type Config struct {
	LogLevel string         `mapstructure:"log_level"`
	LogFile  string         `mapstructure:"log_file"`
	Search   SearchConfig   `mapstructure:"search"`
	Compress CompressConfig `mapstructure:"compress"`
	Capture  CaptureConfig  `mapstructure:"capture"`
}

type SearchConfig struct {
	StartQuality  int     `mapstructure:"start_quality"`
	QualityStep   int     `mapstructure:"quality_step"`
	MinQuality    int     `mapstructure:"min_quality"`
	MaxIterations int     `mapstructure:"max_iterations"`
	ScaleFactor   float64 `mapstructure:"scale_factor"`
	MinDimension  int     `mapstructure:"min_dimension"`
}

type CompressConfig struct {
	DefaultQuality int `mapstructure:"default_quality"`
}

type CaptureConfig struct {
	URL             string        `mapstructure:"url"`
	Width           int           `mapstructure:"width"`
	Height          int           `mapstructure:"height"`
	Facing          string        `mapstructure:"facing"`
	ReadyTimeout    time.Duration `mapstructure:"ready_timeout"`
	SnapshotQuality int           `mapstructure:"snapshot_quality"`
}

func (s SearchConfig) Schedule() search.Schedule {
	return search.Schedule{
		StartQuality:  s.StartQuality,
		QualityStep:   s.QualityStep,
		MinQuality:    s.MinQuality,
		MaxIterations: s.MaxIterations,
		ScaleFactor:   s.ScaleFactor,
		MinDimension:  s.MinDimension,
	}
}

func (c CaptureConfig) Constraints() capture.Constraints {
	return capture.Constraints{Width: c.Width, Height: c.Height, Facing: capture.Facing(c.Facing)}
}
