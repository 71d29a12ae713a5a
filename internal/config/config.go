// Package config loads Redpiler's tunables from a YAML file, the same
// "read file, yaml.Unmarshal, wrap the error" shape the rest of the pack
// uses for its tuning config.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the knobs exposed by the control surface and the CLI.
type Config struct {
	// RTPSUnlimited runs the scheduler as fast as possible; otherwise
	// RTPS sets a fixed redstone-ticks-per-second cadence.
	RTPSUnlimited bool `yaml:"rtps_unlimited"`
	RTPS          int  `yaml:"rtps"`

	// WorldSendRate bounds how many times per real second accumulated
	// WorldSink writes are flushed, independent of simulation RTPS.
	WorldSendRate int `yaml:"world_send_rate"`

	// MaxNodes is the TooLarge threshold: a compile touching more nodes
	// than this is rejected and the graph discarded.
	MaxNodes int `yaml:"max_nodes"`

	// SchedulerHorizon is the number of ring slots (H in spec terms);
	// must exceed the maximum permitted schedule delay.
	SchedulerHorizon int `yaml:"scheduler_horizon"`

	Optimize         bool `yaml:"optimize"`
	IOOnly           bool `yaml:"io_only"`
	WireDotOut       bool `yaml:"wire_dot_out"`
	UpdateAfterReset bool `yaml:"update_after_reset"`

	AutoRedpiler bool `yaml:"auto_redpiler"`

	ExportPath     string `yaml:"export_path"`
	ExportDotPath  string `yaml:"export_dot_path"`
	ExportCompress bool   `yaml:"export_compress"`

	AuditDir string `yaml:"audit_dir"`
}

// Default returns the configuration the CLI falls back to when no
// redpiler.yaml is present.
func Default() Config {
	return Config{
		RTPSUnlimited:    false,
		RTPS:             10,
		WorldSendRate:    20,
		MaxNodes:         100000,
		SchedulerHorizon: 16,
		AuditDir:         "./data/audit",
	}
}

// Load reads path and unmarshals it over Default(), so a partial override
// file only needs to specify the fields it changes.
func Load(path string) (Config, error) {
	c := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("redpiler.yaml: %w", err)
	}
	return c, nil
}
