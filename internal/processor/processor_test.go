package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/afero"

	"stabilize/internal/config"
	"stabilize/internal/ffmpeg"
	"stabilize/internal/logger"
)

// fakeRunner stands in for ffmpeg: it records each invocation and writes
// the artifact the real pass would produce into the in-memory filesystem.
type fakeRunner struct {
	mu     sync.Mutex
	fs     afero.Fs
	calls  []call
	failOn ffmpeg.Pass
	failAt string
}

type call struct {
	pass  ffmpeg.Pass
	input string
	args  []string
}

func (r *fakeRunner) Run(ctx context.Context, pass ffmpeg.Pass, input string, args []string) error {
	r.mu.Lock()
	r.calls = append(r.calls, call{pass: pass, input: input, args: args})
	r.mu.Unlock()

	if pass == r.failOn && (r.failAt == "" || r.failAt == input) {
		return &ffmpeg.ToolError{Pass: pass, Input: input, ExitCode: 1, Stderr: "Conversion failed!"}
	}

	switch pass {
	case ffmpeg.PassAnalyze:
		trf := strings.TrimPrefix(args[4], ffmpeg.DetectFilter+"=result=")
		return afero.WriteFile(r.fs, trf, []byte("transforms"), 0o644)
	case ffmpeg.PassTransform:
		filter := strings.TrimPrefix(args[len(args)-2], ffmpeg.TransformFilter+"=input=")
		trf, _, _ := strings.Cut(filter, ":")
		if ok, _ := afero.Exists(r.fs, trf); !ok {
			return fmt.Errorf("transform data %s missing", trf)
		}
		return afero.WriteFile(r.fs, args[len(args)-1], []byte("stabilized"), 0o644)
	case ffmpeg.PassCompare:
		return afero.WriteFile(r.fs, args[len(args)-1], []byte("comparison"), 0o644)
	}
	return nil
}

func (r *fakeRunner) passes() []ffmpeg.Pass {
	out := make([]ffmpeg.Pass, 0, len(r.calls))
	for _, c := range r.calls {
		out = append(out, c.pass)
	}
	return out
}

func newTestBatch(t *testing.T, files ...string) (afero.Fs, *fakeRunner, Options) {
	t.Helper()
	fs := afero.NewMemMapFs()
	mustMkdir(t, fs, "/videos")
	mustMkdir(t, fs, "/scratch")
	for _, f := range files {
		touch(t, fs, f)
	}
	runner := &fakeRunner{fs: fs}
	opts := Options{
		Fs:      fs,
		Runner:  runner,
		Logger:  logger.Discard(),
		RunID:   "test",
		TempDir: "/scratch",
	}
	return fs, runner, opts
}

func testConfig(dir string) config.Config {
	cfg := config.DefaultConfig()
	cfg.Directory = dir
	return cfg
}

func TestRun_StabilizesEveryFile(t *testing.T) {
	fs, runner, opts := newTestBatch(t, "/videos/clip1.MP4", "/videos/clip2.MP4", "/videos/notes.txt")

	summary, err := Run(context.Background(), testConfig("/videos"), opts, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, want := range []string{"/videos/stabilized/clip1-s.MP4", "/videos/stabilized/clip2-s.MP4"} {
		if ok, _ := afero.Exists(fs, want); !ok {
			t.Errorf("expected output %s", want)
		}
	}
	for _, unwanted := range []string{"/videos/stabilized/clip1-c.MP4", "/videos/stabilized/notes-s.MP4"} {
		if ok, _ := afero.Exists(fs, unwanted); ok {
			t.Errorf("unexpected output %s", unwanted)
		}
	}

	wantPasses := []ffmpeg.Pass{ffmpeg.PassAnalyze, ffmpeg.PassTransform, ffmpeg.PassAnalyze, ffmpeg.PassTransform}
	if got := runner.passes(); fmt.Sprint(got) != fmt.Sprint(wantPasses) {
		t.Errorf("passes = %v, want %v", got, wantPasses)
	}
	if summary.Discovered != 2 || summary.Stabilized != 2 || summary.Compared != 0 {
		t.Errorf("summary = %+v", summary)
	}

	leftovers, _ := afero.Glob(fs, "/scratch/*")
	if len(leftovers) != 0 {
		t.Errorf("scratch not cleaned up: %v", leftovers)
	}
}

func TestRun_Comparison(t *testing.T) {
	fs, runner, opts := newTestBatch(t, "/videos/clip1.MP4", "/videos/clip2.MP4")
	cfg := testConfig("/videos")
	cfg.ComparisonEnabled = true

	summary, err := Run(context.Background(), cfg, opts, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, want := range []string{
		"/videos/stabilized/clip1-s.MP4", "/videos/stabilized/clip1-c.MP4",
		"/videos/stabilized/clip2-s.MP4", "/videos/stabilized/clip2-c.MP4",
	} {
		if ok, _ := afero.Exists(fs, want); !ok {
			t.Errorf("expected output %s", want)
		}
	}
	if len(runner.calls) != 6 {
		t.Errorf("got %d invocations, want 6", len(runner.calls))
	}
	compare := runner.calls[2]
	want := []string{"ffmpeg", "-i", "/videos/clip1.MP4", "-i", "/videos/stabilized/clip1-s.MP4",
		"-filter_complex", "hstack", "/videos/stabilized/clip1-c.MP4"}
	if fmt.Sprint(compare.args) != fmt.Sprint(want) {
		t.Errorf("compare args = %q, want %q", compare.args, want)
	}
	if summary.Compared != 2 {
		t.Errorf("Compared = %d, want 2", summary.Compared)
	}
}

func TestRun_IntermediateRemovedPerFile(t *testing.T) {
	fs, runner, opts := newTestBatch(t, "/videos/clip1.MP4", "/videos/clip2.MP4")

	// Observe the scratch dir right before the second file is analyzed.
	var seenBeforeSecond []string
	wrapped := runnerFunc(func(ctx context.Context, pass ffmpeg.Pass, input string, args []string) error {
		if pass == ffmpeg.PassAnalyze && input == "/videos/clip2.MP4" {
			seenBeforeSecond, _ = afero.Glob(fs, "/scratch/*/*.trf")
		}
		return runner.Run(ctx, pass, input, args)
	})
	opts.Runner = wrapped

	if _, err := Run(context.Background(), testConfig("/videos"), opts, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(seenBeforeSecond) != 0 {
		t.Errorf("transform data of the first file still present: %v", seenBeforeSecond)
	}

	first := runner.calls[0].args[4]
	second := runner.calls[2].args[4]
	if first == second {
		t.Errorf("both files analyzed into the same transform file %q", first)
	}
}

func TestRun_ExtraArgsPassedThrough(t *testing.T) {
	_, runner, opts := newTestBatch(t, "/videos/clip1.MP4")
	cfg := testConfig("/videos")
	cfg.ExtraArgs = "=smoothing=30"

	if _, err := Run(context.Background(), cfg, opts, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	filter := runner.calls[1].args[len(runner.calls[1].args)-2]
	if !strings.HasPrefix(filter, "vidstabtransform=input=") || !strings.HasSuffix(filter, ":smoothing=30") {
		t.Errorf("transform filter = %q", filter)
	}
}

func TestRun_EmptyDirectory(t *testing.T) {
	fs, runner, opts := newTestBatch(t, "/videos/readme.txt")

	summary, err := Run(context.Background(), testConfig("/videos"), opts, nil)
	if err != nil {
		t.Fatalf("Run on empty batch: %v", err)
	}
	if len(runner.calls) != 0 {
		t.Errorf("got %d invocations, want 0", len(runner.calls))
	}
	if summary.Discovered != 0 {
		t.Errorf("Discovered = %d, want 0", summary.Discovered)
	}
	if ok, _ := afero.DirExists(fs, "/videos/stabilized"); !ok {
		t.Error("output directory not created")
	}
}

func TestRun_ExistingOutputDir(t *testing.T) {
	fs, _, opts := newTestBatch(t, "/videos/clip1.MP4")
	mustMkdir(t, fs, "/videos/stabilized")

	if _, err := Run(context.Background(), testConfig("/videos"), opts, nil); err != nil {
		t.Fatalf("Run with existing output dir: %v", err)
	}
}

func TestRun_FailFast(t *testing.T) {
	fs, runner, opts := newTestBatch(t, "/videos/clip1.MP4", "/videos/clip2.MP4", "/videos/clip3.MP4")
	runner.failOn = ffmpeg.PassTransform
	runner.failAt = "/videos/clip2.MP4"

	summary, err := Run(context.Background(), testConfig("/videos"), opts, nil)
	if !errors.Is(err, ffmpeg.ErrToolFailed) {
		t.Fatalf("Run error = %v, want ErrToolFailed", err)
	}
	var te *ffmpeg.ToolError
	if !errors.As(err, &te) || te.Input != "/videos/clip2.MP4" {
		t.Errorf("failure attributed to %+v", te)
	}

	for _, c := range runner.calls {
		if c.input == "/videos/clip3.MP4" {
			t.Fatal("batch continued after a failed invocation")
		}
	}
	if ok, _ := afero.Exists(fs, "/videos/stabilized/clip1-s.MP4"); !ok {
		t.Error("output of the file finished before the failure was removed")
	}
	if summary.Stabilized != 1 {
		t.Errorf("Stabilized = %d, want 1", summary.Stabilized)
	}
	leftovers, _ := afero.Glob(fs, "/scratch/*")
	if len(leftovers) != 0 {
		t.Errorf("scratch not cleaned up after failure: %v", leftovers)
	}
}

func TestRun_AnalyzeFailureStopsBeforeTransform(t *testing.T) {
	_, runner, opts := newTestBatch(t, "/videos/clip1.MP4")
	runner.failOn = ffmpeg.PassAnalyze

	if _, err := Run(context.Background(), testConfig("/videos"), opts, nil); err == nil {
		t.Fatal("expected error")
	}
	if len(runner.calls) != 1 {
		t.Errorf("got %d invocations, want 1", len(runner.calls))
	}
}

func TestRun_DryRun(t *testing.T) {
	fs, runner, opts := newTestBatch(t, "/videos/clip1.MP4")
	cfg := testConfig("/videos")
	cfg.DryRun = true
	cfg.ComparisonEnabled = true

	summary, err := Run(context.Background(), cfg, opts, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(runner.calls) != 0 {
		t.Errorf("dry run invoked ffmpeg %d times", len(runner.calls))
	}
	if ok, _ := afero.DirExists(fs, "/videos/stabilized"); ok {
		t.Error("dry run created the output directory")
	}
	if summary.Discovered != 1 || !summary.DryRun {
		t.Errorf("summary = %+v", summary)
	}
}

func TestRun_MissingDirectory(t *testing.T) {
	fs, runner, opts := newTestBatch(t)

	_, err := Run(context.Background(), testConfig("/nope"), opts, nil)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Run error = %v, want not exist", err)
	}
	if ok, _ := afero.DirExists(fs, "/nope/stabilized"); ok {
		t.Error("output directory created for a missing input directory")
	}
	if len(runner.calls) != 0 {
		t.Error("ffmpeg invoked for a missing directory")
	}
}

func TestRun_Cancelled(t *testing.T) {
	_, runner, opts := newTestBatch(t, "/videos/clip1.MP4")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, testConfig("/videos"), opts, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v, want context.Canceled", err)
	}
	if len(runner.calls) != 0 {
		t.Errorf("got %d invocations after cancel", len(runner.calls))
	}
}

func TestRun_ProgressUpdates(t *testing.T) {
	_, _, opts := newTestBatch(t, "/videos/clip1.MP4", "/videos/clip2.MP4")
	cfg := testConfig("/videos")
	cfg.ComparisonEnabled = true

	updates := make(chan ProgressUpdate, 64)
	if _, err := Run(context.Background(), cfg, opts, updates); err != nil {
		t.Fatalf("Run: %v", err)
	}
	close(updates)

	var total, processed int
	stages := map[Stage]int{}
	for u := range updates {
		total += u.TotalDelta
		processed += u.ProcessedDelta
		if u.Stage != "" {
			stages[u.Stage]++
		}
	}
	if total != 2 || processed != 2 {
		t.Errorf("total=%d processed=%d, want 2/2", total, processed)
	}
	for _, s := range []Stage{StageAnalyze, StageTransform, StageCompare, StageCleanup} {
		if stages[s] != 2 {
			t.Errorf("stage %s reported %d times, want 2", s, stages[s])
		}
	}
}

type runnerFunc func(ctx context.Context, pass ffmpeg.Pass, input string, args []string) error

func (f runnerFunc) Run(ctx context.Context, pass ffmpeg.Pass, input string, args []string) error {
	return f(ctx, pass, input, args)
}
