// Package config loads the core's tunable thresholds and checkpoint
// backend connection settings from YAML, following the teacher's
// database.Config/ParseGeneratorConfig pattern of a plain struct
// decoded with gopkg.in/yaml.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Config holds the configuration enumerated in spec §6.
type Config struct {
	// RestorationMinTokens is the content length, in tokens, that a
	// removal must exceed to be eligible for restoration detection (spec
	// §4.7).
	RestorationMinTokens int `yaml:"restoration_min_tokens"`

	// RearrangementMinTokens is the content length, in tokens, that a
	// removal must exceed to be eligible for rearrangement detection (spec
	// §4.4 Phase B).
	RearrangementMinTokens int `yaml:"rearrangement_min_tokens"`

	// BreakBoundaryRequired gates whether Phase A's break-boundary test
	// is enforced for new-comment classification.
	BreakBoundaryRequired bool `yaml:"break_boundary_required"`

	// DeletedRetentionRevisions bounds how many revisions a DeletedIndex
	// entry survives without being touched again (spec §5).
	DeletedRetentionRevisions int `yaml:"deleted_retention_revisions"`

	// Checkpoint holds the backend the surrounding pipeline uses to
	// persist/load checkpoint blobs (spec §6).
	Checkpoint CheckpointConfig `yaml:"checkpoint"`
}

// CheckpointConfig selects and configures a checkpointstore backend.
type CheckpointConfig struct {
	// Driver is one of "mysql", "postgres", "mssql", "sqlite".
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// Default returns the configuration spec §6 lists as defaults.
func Default() Config {
	return Config{
		RestorationMinTokens:      10,
		RearrangementMinTokens:    10,
		BreakBoundaryRequired:     true,
		DeletedRetentionRevisions: 0, // 0 means unbounded, i.e. memory-bounded only
	}
}

// Load reads and decodes a YAML config file over Default(): a field the
// file does not set keeps its default, and a field the file sets (even
// to a zero value) takes the file's value.
func Load(path string) (Config, error) {
	cfg := Default()
	buf, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
