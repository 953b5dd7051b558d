package config

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/pflag"
)

// Usage is the one-line synopsis printed above the flag list on argument errors.
const Usage = "Usage: stabilize -p <folder_path> [-c] [-e <extension>] [-a <key=value>]"

// Flags binds the command-line surface onto a flag set. The same binding is
// used by Parse and by the cobra root command.
type Flags struct {
	fs    *pflag.FlagSet
	cfg   Config
	extra string
}

// BindFlags registers every run flag on fs with defaults from DefaultConfig.
func BindFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{fs: fs, cfg: DefaultConfig()}

	fs.StringVarP(&f.cfg.Directory, "path", "p", "", "folder containing the videos to stabilize (required)")
	fs.StringVarP(&f.cfg.Extension, "ext", "e", f.cfg.Extension, "extension of the files to process, matched as a glob suffix")
	fs.BoolVarP(&f.cfg.ComparisonEnabled, "compare", "c", false, "also write a side by side before/after video")
	fs.StringVarP(&f.extra, "args", "a", "", "extra vidstabtransform options, e.g. smoothing=30")

	fs.StringVar(&f.cfg.ToolPath, "ffmpeg", f.cfg.ToolPath, "ffmpeg executable to invoke")
	fs.BoolVarP(&f.cfg.Overwrite, "overwrite", "y", false, "overwrite existing output videos")
	fs.BoolVarP(&f.cfg.DryRun, "dry-run", "n", false, "print the ffmpeg invocations without running them")
	fs.BoolVarP(&f.cfg.Verbose, "verbose", "v", false, "debug logging, including every ffmpeg command line")
	fs.BoolVar(&f.cfg.NoTUI, "no-tui", false, "plain log output instead of the progress view")

	return f
}

// Config returns the parsed configuration once the flag set has been parsed.
func (f *Flags) Config() (Config, error) {
	cfg := f.cfg
	if f.fs.Changed("args") {
		cfg.ExtraArgs = "=" + f.extra
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse turns command-line arguments (without the program name) into a
// Config. Malformed or unknown flags and stray positional arguments yield
// ErrInvalidArguments; an absent -p yields ErrMissingRequiredPath.
// pflag.ErrHelp is returned unchanged for -h/--help.
func Parse(args []string) (Config, error) {
	fs := pflag.NewFlagSet("stabilize", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	f := BindFlags(fs)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return Config{}, err
		}
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	if fs.NArg() > 0 {
		return Config{}, UnexpectedArgs(fs.Args())
	}
	return f.Config()
}

// UnexpectedArgs reports positional arguments, which the tool never accepts.
func UnexpectedArgs(args []string) error {
	return fmt.Errorf("%w: unexpected argument %q", ErrInvalidArguments, args[0])
}

// IsUsageError reports whether err should be answered with the usage text
// and exit status 2.
func IsUsageError(err error) bool {
	return errors.Is(err, ErrInvalidArguments) || errors.Is(err, ErrMissingRequiredPath)
}
