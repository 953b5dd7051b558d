// Package config holds the run configuration and the command-line flag
// surface that produces it.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

const (
	// DefaultExtension matches the all-caps extension most action cameras write.
	DefaultExtension = ".MP4"
	DefaultToolPath  = "ffmpeg"

	// OutputSubdir is created inside Directory to receive every output video.
	OutputSubdir = "stabilized"
)

var (
	ErrInvalidArguments    = errors.New("invalid arguments")
	ErrMissingRequiredPath = errors.New("missing path argument: -p <folder_path> must be specified")
)

// Config is built once from the command line and is not modified afterwards.
type Config struct {
	Directory         string
	Extension         string
	ExtraArgs         string // "" or "=" + the raw -a value, spliced into the transform filter
	ComparisonEnabled bool

	ToolPath  string
	Overwrite bool
	DryRun    bool
	Verbose   bool
	NoTUI     bool
}

func DefaultConfig() Config {
	return Config{
		Extension: DefaultExtension,
		ToolPath:  DefaultToolPath,
	}
}

// Validate reports missing or unusable values. It never touches the filesystem.
func (c Config) Validate() error {
	if c.Directory == "" {
		return ErrMissingRequiredPath
	}
	if c.ToolPath == "" {
		return fmt.Errorf("%w: --ffmpeg must not be empty", ErrInvalidArguments)
	}
	return nil
}

// OutputDir is where stabilized and comparison videos are written.
func (c Config) OutputDir() string {
	return strings.TrimRight(c.Directory, "/") + "/" + OutputSubdir
}

// DisplayDir is Directory made absolute when possible, for messages only.
func (c Config) DisplayDir() string {
	if abs, err := filepath.Abs(c.Directory); err == nil {
		return abs
	}
	return c.Directory
}
