package processor

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"stabilize/internal/ffmpeg"
)

// Stage is the step a file is currently in.
type Stage string

const (
	StageAnalyze   Stage = Stage(ffmpeg.PassAnalyze)
	StageTransform Stage = Stage(ffmpeg.PassTransform)
	StageCompare   Stage = Stage(ffmpeg.PassCompare)
	StageCleanup   Stage = "cleanup"
)

type Options struct {
	// Fs defaults to the OS filesystem.
	Fs      afero.Fs
	// Runner defaults to ffmpeg.ExecRunner with captured output.
	Runner  ffmpeg.Runner
	Logger  zerolog.Logger
	// RunID tags log lines and the scratch directory; generated when empty.
	RunID   string
	// TempDir is the parent of the scratch directory; os.TempDir() when empty.
	TempDir string
}

// Job is one discovered input with everything derived from it.
type Job struct {
	Index        int
	Path         string
	Display      string
	Outputs      OutputPaths
	Intermediate string
}

type Summary struct {
	Files      []string
	Discovered int
	Stabilized int
	Compared   int
	OutputDir  string
	Elapsed    time.Duration
	DryRun     bool
}

type ProgressUpdate struct {
	TotalDelta     int
	ProcessedDelta int
	File           string
	Stage          Stage
}
