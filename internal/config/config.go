// Package config loads interpreter settings for the CLI tools from a TOML
// file. The interpreter core never touches the filesystem; everything here
// funnels into an aml.Config.
package config

import (
	"github.com/BurntSushi/toml"

	"github.com/amlgo/aml/internal/aml"
)

// File mirrors the on-disk TOML shape:
//
//	verbosity = 1          # 0=none, 1=scopes, 2=all scopes, 3=everything
//	max_call_depth = 255
//
//	[osi]
//	"Windows 2022" = true  # extend or override the _OSI allow-list
//	"Darwin" = false
type File struct {
	Verbosity    int             `toml:"verbosity"`
	MaxCallDepth int             `toml:"max_call_depth"`
	OSI          map[string]bool `toml:"osi"`
}

// Load parses path into an aml.Config, applying defaults for anything the
// file leaves unset.
func Load(path string) (aml.Config, error) {
	f := File{MaxCallDepth: aml.DefaultConfig().MaxCallDepth}
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return aml.Config{}, err
	}
	return aml.Config{
		Verbosity:    aml.Verbosity(f.Verbosity),
		MaxCallDepth: f.MaxCallDepth,
		OSIOverrides: f.OSI,
	}, nil
}
