package config

import (
	errspkg "github.com/drblury/flowscope/internal/runtime/errors"
)

// DefaultNamePadWidth is the column width stage names are padded to in debug
// dumps.
const DefaultNamePadWidth = 20

// Config groups the overlay settings for a Scope. Zero values fall back to
// library defaults.
type Config struct {
	// DefaultHighWatermark is used for stages the scope creates itself, such
	// as the outward buffer of a composite pipeline stage.
	DefaultHighWatermark int

	// NamePadWidth is the column width for stage names in DumpDebug output.
	NamePadWidth int

	// Metrics configuration.
	MetricsEnabled bool
	// MetricsPort is the port where Prometheus metrics will be exposed.
	MetricsPort int

	// DebugServerPort exposes JSON pipeline snapshots over HTTP when set.
	DebugServerPort int
}

// WithDefaults returns a copy of c with zero values replaced by defaults.
func (c Config) WithDefaults() Config {
	if c.DefaultHighWatermark <= 0 {
		c.DefaultHighWatermark = 16
	}
	if c.NamePadWidth <= 0 {
		c.NamePadWidth = DefaultNamePadWidth
	}
	return c
}

// ValidateConfig rejects settings that cannot be defaulted away.
func ValidateConfig(c Config) error {
	if c.DefaultHighWatermark < 0 {
		return &errspkg.ConfigValidationError{Field: "DefaultHighWatermark", Reason: "must not be negative"}
	}
	if c.MetricsEnabled && c.MetricsPort <= 0 {
		return &errspkg.ConfigValidationError{Field: "MetricsPort", Reason: "required when metrics are enabled"}
	}
	if c.MetricsPort < 0 || c.MetricsPort > 65535 {
		return &errspkg.ConfigValidationError{Field: "MetricsPort", Reason: "must be a valid port"}
	}
	if c.DebugServerPort < 0 || c.DebugServerPort > 65535 {
		return &errspkg.ConfigValidationError{Field: "DebugServerPort", Reason: "must be a valid port"}
	}
	return nil
}
