package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

// fileConfig is the optional rirtool.toml configuration file. All
// fields are optional; flags set on the command line win over file
// values.
type fileConfig struct {
	SampleRate *int     `toml:"sample_rate"`
	Duration   *float64 `toml:"duration"`
	StartFreq  *float64 `toml:"start_freq"`
	EndFreq    *float64 `toml:"end_freq"`
	Method     *string  `toml:"method"`
	Epsilon    *float64 `toml:"epsilon"`
	OutDir     *string  `toml:"out_dir"`
	Database   *string  `toml:"database"`
	Pattern    *string  `toml:"pattern"`

	Bands  []float64     `toml:"bands"`
	Ranges []rangeConfig `toml:"ranges"`
}

// rangeConfig is one named fit window in the config file.
type rangeConfig struct {
	Name  string  `toml:"name"`
	Start float64 `toml:"start"`
	End   float64 `toml:"end"`
}

// loadFileConfig reads the TOML config at path. A missing file is not
// an error: every field has a flag default.
func loadFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to stat config: %w", err)
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}
