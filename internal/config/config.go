// Package config handles meshprep configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/Faultbox/meshprep/internal/logger"
	"github.com/Faultbox/meshprep/pkg/formats"
	"github.com/Faultbox/meshprep/pkg/geometry"
	"github.com/Faultbox/meshprep/pkg/projection"
	"github.com/Faultbox/meshprep/pkg/tipsify"
)

// Config holds all meshprep settings.
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline"`
	Output   OutputConfig   `yaml:"output"`
	Logging  LoggingConfig  `yaml:"logging"`

	// Source is the file the config was loaded from, empty for defaults only.
	Source string `yaml:"-"`
}

// PipelineConfig selects the preparation stages and their parameters.
type PipelineConfig struct {
	CacheSize          int           `yaml:"cache_size"` // Post-transform cache entries simulated by tipsify
	PreVertexCache     bool          `yaml:"pre_vertex_cache"`
	PostVertexCache    bool          `yaml:"post_vertex_cache"`
	FitToUnsignedShort bool          `yaml:"fit_to_unsigned_short"`
	ComputeNormals     bool          `yaml:"compute_normals"`
	ComputeTangents    bool          `yaml:"compute_tangents"`
	ProjectTo2D        bool          `yaml:"project_to_2d"`
	Projection         string        `yaml:"projection"`        // geographic or webmercator
	EncodeAttributes   []string      `yaml:"encode_attributes"` // Attributes split into High/Low pairs
	Wireframe          bool          `yaml:"wireframe"`
	Workers            int           `yaml:"workers"`
	Timeout            time.Duration `yaml:"timeout"` // 0 means no limit
}

// OutputConfig holds where and how prepared meshes are written.
type OutputConfig struct {
	Format string `yaml:"format"` // geom or yaml
	Dir    string `yaml:"dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
	JSON    bool   `yaml:"json"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			CacheSize:          tipsify.DefaultCacheSize,
			PreVertexCache:     true,
			PostVertexCache:    true,
			FitToUnsignedShort: true,
			Projection:         "geographic",
			Workers:            runtime.NumCPU(),
		},
		Output: OutputConfig{
			Format: string(formats.GEOM),
			Dir:    "out",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Pipeline.CacheSize < 3 {
		errs = append(errs, fmt.Errorf("pipeline.cache_size must be at least 3, got %d", c.Pipeline.CacheSize))
	}
	if c.Pipeline.Workers < 1 {
		errs = append(errs, fmt.Errorf("pipeline.workers must be positive, got %d", c.Pipeline.Workers))
	}
	if c.Pipeline.Timeout < 0 {
		errs = append(errs, fmt.Errorf("pipeline.timeout must not be negative, got %s", c.Pipeline.Timeout))
	}
	if c.Pipeline.ProjectTo2D {
		for _, name := range c.Pipeline.EncodeAttributes {
			if name == "" || name == geometry.Position {
				errs = append(errs, errors.New("pipeline.encode_attributes: position is replaced by position3D and position2D when project_to_2d is set"))
				break
			}
		}
	}
	if _, err := projection.ByName(c.Pipeline.Projection); err != nil {
		errs = append(errs, fmt.Errorf("pipeline.projection: %w", err))
	}
	if _, err := formats.ParseFormat(c.Output.Format); err != nil {
		errs = append(errs, fmt.Errorf("output.format: %w", err))
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	return errors.Join(errs...)
}

// LoggerOptions converts the logging section to logger options.
func (c *Config) LoggerOptions() logger.Options {
	opts := logger.Options{Level: c.Logging.Level, Console: true, JSON: c.Logging.JSON}
	if c.Logging.LogFile != "" {
		opts.File = logger.DefaultFileConfig(c.Logging.LogFile)
	}
	return opts
}
