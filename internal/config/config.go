// Package config handles application configuration and setup
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/retroenv/pydisasm/internal/options"
	"github.com/retroenv/retrogolib/log"
)

// CreateLogger creates a logger with appropriate settings
func CreateLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	if debug {
		cfg.Level = log.DebugLevel
	} else if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}

// File is the TOML config file content. Every field is optional, flags
// passed on the command line take precedence over file values.
type File struct {
	Format  string `toml:"format"`
	Version string `toml:"version"`
	Output  string `toml:"output"`
	Quiet   bool   `toml:"quiet"`
}

// LoadFile reads a TOML config file and merges its values into the
// options, file values only fill options still set to their defaults.
func LoadFile(path string, opts *options.Program) error {
	var file File
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return fmt.Errorf("decoding config file %s: %w", path, err)
	}

	if file.Format != "" && opts.Format == options.DefaultFormat {
		opts.Format = file.Format
	}
	if file.Version != "" && opts.Version == options.DefaultVersion {
		opts.Version = file.Version
	}
	if file.Output != "" && opts.Output == "" {
		opts.Output = file.Output
	}
	if file.Quiet {
		opts.Quiet = true
	}
	return nil
}
