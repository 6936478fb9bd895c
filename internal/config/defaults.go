package config

import (
	"time"

	"github.com/spf13/viper"

	"squash/internal/capture"
	"squash/internal/search"
)

const (
	DefaultLogLevel        = "info"
	DefaultLogFile         = ""
	DefaultQuality         = 50
	DefaultReadyTimeout    = 5 * time.Second
	DefaultSnapshotQuality = 95
)

func NewDefaultConfig() Config {
	s := search.DefaultSchedule()
	c := capture.DefaultConstraints()
	return Config{
		LogLevel: DefaultLogLevel,
		LogFile:  DefaultLogFile,
		Search: SearchConfig{
			StartQuality:  s.StartQuality,
			QualityStep:   s.QualityStep,
			MinQuality:    s.MinQuality,
			MaxIterations: s.MaxIterations,
			ScaleFactor:   s.ScaleFactor,
			MinDimension:  s.MinDimension,
		},
		Compress: CompressConfig{DefaultQuality: DefaultQuality},
		Capture: CaptureConfig{
			Width:           c.Width,
			Height:          c.Height,
			Facing:          string(c.Facing),
			ReadyTimeout:    DefaultReadyTimeout,
			SnapshotQuality: DefaultSnapshotQuality,
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_file", d.LogFile)

	v.SetDefault("search.start_quality", d.Search.StartQuality)
	v.SetDefault("search.quality_step", d.Search.QualityStep)
	v.SetDefault("search.min_quality", d.Search.MinQuality)
	v.SetDefault("search.max_iterations", d.Search.MaxIterations)
	v.SetDefault("search.scale_factor", d.Search.ScaleFactor)
	v.SetDefault("search.min_dimension", d.Search.MinDimension)

	v.SetDefault("compress.default_quality", d.Compress.DefaultQuality)

	v.SetDefault("capture.url", d.Capture.URL)
	v.SetDefault("capture.width", d.Capture.Width)
	v.SetDefault("capture.height", d.Capture.Height)
	v.SetDefault("capture.facing", d.Capture.Facing)
	v.SetDefault("capture.ready_timeout", d.Capture.ReadyTimeout)
	v.SetDefault("capture.snapshot_quality", d.Capture.SnapshotQuality)
}
