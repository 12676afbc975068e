package config

import (
	"time"
)

// Loader handles loading configuration from multiple sources
type Loader struct {
	config *Config
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{
		config: NewConfig(),
	}
}

// Load loads configuration using the cascading strategy:
// defaults, then environment variables, then validation.
// Command line flags are applied by LoadWithOverrides.
func (l *Loader) Load() (*Config, error) {
	if err := l.config.LoadFromEnvironment(); err != nil {
		return nil, err
	}

	if err := l.config.Validate(); err != nil {
		return nil, err
	}

	return l.config, nil
}

// LoadWithOverrides loads configuration and applies command line overrides
func (l *Loader) LoadWithOverrides(overrides *ConfigOverrides) (*Config, error) {
	if err := l.config.LoadFromEnvironment(); err != nil {
		return nil, err
	}

	if overrides != nil {
		overrides.Apply(l.config)
	}

	if err := l.config.Validate(); err != nil {
		return nil, err
	}

	return l.config, nil
}

// ConfigOverrides holds command line flag overrides.
// A nil field means the flag was not set.
type ConfigOverrides struct {
	DBDir         *string
	DBFilename    *string
	DBBusyTimeout *time.Duration

	QueueCapacity *int

	TitleMaxLength       *int
	DescriptionMaxLength *int

	LogLevel  *string
	LogFormat *string

	Environment *Environment
	Timeout     *time.Duration
	Verbose     *bool
}

// Apply copies every set override onto config
func (o *ConfigOverrides) Apply(config *Config) {
	if o.DBDir != nil {
		config.Database.Dir = *o.DBDir
	}
	if o.DBFilename != nil {
		config.Database.Filename = *o.DBFilename
	}
	if o.DBBusyTimeout != nil {
		config.Database.BusyTimeout = *o.DBBusyTimeout
	}

	if o.QueueCapacity != nil {
		config.Queue.Capacity = *o.QueueCapacity
	}

	if o.TitleMaxLength != nil {
		config.Validation.TitleMaxLength = *o.TitleMaxLength
	}
	if o.DescriptionMaxLength != nil {
		config.Validation.DescriptionMaxLength = *o.DescriptionMaxLength
	}

	if o.LogLevel != nil {
		config.Logging.Level = *o.LogLevel
	}
	if o.LogFormat != nil {
		config.Logging.Format = *o.LogFormat
	}

	if o.Environment != nil {
		config.Application.Environment = *o.Environment
	}
	if o.Timeout != nil {
		config.Application.Timeout = *o.Timeout
	}
	if o.Verbose != nil {
		config.Application.Verbose = *o.Verbose
	}
}
