package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"stabilize/internal/config"
	"stabilize/internal/ffmpeg"
)

// Run stabilizes every file in cfg.Directory matching cfg.Extension, one at
// a time. The first failing ffmpeg invocation aborts the batch; outputs of
// files finished before it are left in place.
func Run(ctx context.Context, cfg config.Config, opts Options, updates chan<- ProgressUpdate) (Summary, error) {
	started := time.Now()
	summary := Summary{OutputDir: cfg.OutputDir(), DryRun: cfg.DryRun}

	fsys := opts.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	runner := opts.Runner
	if runner == nil {
		runner = ffmpeg.ExecRunner{}
	}
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	log := opts.Logger.With().Str("run", runID).Logger()

	info, err := fsys.Stat(cfg.Directory)
	if err != nil {
		return summary, err
	}
	if !info.IsDir() {
		return summary, fmt.Errorf("%s is not a directory", cfg.Directory)
	}

	outputDir := cfg.OutputDir()
	if !cfg.DryRun {
		if err := fsys.MkdirAll(outputDir, 0o755); err != nil {
			return summary, err
		}
	}

	files, err := ListFiles(fsys, cfg.Directory, cfg.Extension)
	if err != nil {
		return summary, err
	}
	summary.Files = files
	summary.Discovered = len(files)
	log.Info().
		Int("count", len(files)).
		Str("dir", cfg.Directory).
		Str("ext", cfg.Extension).
		Msgf("found %d files", len(files))
	send(updates, ProgressUpdate{TotalDelta: len(files)})

	if len(files) == 0 {
		summary.Elapsed = time.Since(started)
		return summary, nil
	}

	scratchParent := opts.TempDir
	if scratchParent == "" {
		scratchParent = os.TempDir()
	}
	scratch := filepath.Join(scratchParent, "stabilize-"+runID)
	if !cfg.DryRun {
		scratch, err = afero.TempDir(fsys, scratchParent, "stabilize-"+runID+"-")
		if err != nil {
			return summary, err
		}
		defer func() {
			if rmErr := fsys.RemoveAll(scratch); rmErr != nil {
				log.Warn().Err(rmErr).Str("dir", scratch).Msg("could not remove scratch directory")
			}
		}()
	}

	p := &batch{cfg: cfg, fs: fsys, runner: runner, log: log, updates: updates}
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			summary.Elapsed = time.Since(started)
			return summary, err
		}

		outputs, err := deriveOutputPaths(path, outputDir, cfg.ComparisonEnabled)
		if err != nil {
			summary.Elapsed = time.Since(started)
			return summary, err
		}
		job := Job{
			Index:        i,
			Path:         path,
			Display:      filepath.Base(path),
			Outputs:      outputs,
			Intermediate: IntermediatePath(scratch, path),
		}

		log.Info().Str("file", path).Msgf("processing %s", path)
		if err := p.process(ctx, job); err != nil {
			summary.Elapsed = time.Since(started)
			return summary, err
		}

		summary.Stabilized++
		if cfg.ComparisonEnabled {
			summary.Compared++
		}
		send(updates, ProgressUpdate{ProcessedDelta: 1, File: job.Display})
	}

	summary.Elapsed = time.Since(started)
	return summary, nil
}

type batch struct {
	cfg     config.Config
	fs      afero.Fs
	runner  ffmpeg.Runner
	log     zerolog.Logger
	updates chan<- ProgressUpdate
}

// process runs analyze, transform and the optional comparison for one file,
// then removes its transform data.
func (b *batch) process(ctx context.Context, job Job) error {
	tool := b.cfg.ToolPath

	if err := b.invoke(ctx, job, StageAnalyze,
		ffmpeg.AnalyzeArgs(tool, job.Path, job.Intermediate)); err != nil {
		return err
	}

	if err := b.invoke(ctx, job, StageTransform,
		ffmpeg.TransformArgs(tool, job.Path, job.Intermediate, b.cfg.ExtraArgs, job.Outputs.Stabilized, b.cfg.Overwrite)); err != nil {
		return err
	}
	b.log.Info().Str("file", job.Path).Str("output", job.Outputs.Stabilized).Msg("stabilized")

	if b.cfg.ComparisonEnabled {
		if err := b.invoke(ctx, job, StageCompare,
			ffmpeg.CompareArgs(tool, job.Path, job.Outputs.Stabilized, job.Outputs.Comparison, b.cfg.Overwrite)); err != nil {
			return err
		}
		b.log.Info().Str("file", job.Path).Str("output", job.Outputs.Comparison).Msg("comparison written")
	}

	send(b.updates, ProgressUpdate{File: job.Display, Stage: StageCleanup})
	if b.cfg.DryRun {
		return nil
	}
	if err := b.fs.Remove(job.Intermediate); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (b *batch) invoke(ctx context.Context, job Job, stage Stage, args []string) error {
	send(b.updates, ProgressUpdate{File: job.Display, Stage: stage})

	if b.cfg.DryRun {
		b.log.Info().Str("pass", string(stage)).Msg(strings.Join(args, " "))
		return nil
	}
	b.log.Debug().Str("pass", string(stage)).Strs("args", args).Msg("running ffmpeg")

	return b.runner.Run(ctx, ffmpeg.Pass(stage), job.Path, args)
}

func send(updates chan<- ProgressUpdate, update ProgressUpdate) {
	if updates != nil {
		updates <- update
	}
}
