package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"stabilize/internal/config"
	"stabilize/internal/ffmpeg"
	"stabilize/internal/logger"
	"stabilize/internal/processor"
	"stabilize/internal/tui"
)

// Execute runs the command line and returns the process exit status:
// 0 on success, 2 for argument errors, ffmpeg's own status when an
// invocation fails, 1 otherwise.
func Execute() int {
	return run(os.Args[1:], os.Stdout, os.Stderr)
}

func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if err == nil {
		return 0
	}

	fmt.Fprintln(stderr, errorStyle.Render("stabilize: "+err.Error()))
	if config.IsUsageError(err) {
		fmt.Fprintln(stderr, config.Usage)
		fmt.Fprint(stderr, root.Flags().FlagUsages())
		return 2
	}

	var toolErr *ffmpeg.ToolError
	if errors.As(err, &toolErr) {
		if errors.Is(err, exec.ErrNotFound) {
			fmt.Fprintln(stderr, "run `stabilize check` to diagnose the ffmpeg installation")
		} else if tail := toolErr.Tail(); tail != "" {
			fmt.Fprintln(stderr, dimStyle.Render(tail))
		}
		if toolErr.ExitCode > 0 {
			return toolErr.ExitCode
		}
	}
	return 1
}

func newRootCmd() *cobra.Command {
	var flags *config.Flags

	root := &cobra.Command{
		Use:   "stabilize -p <folder_path>",
		Short: "stabilize - batch vidstab stabilization for a folder of videos",
		Long: "stabilize runs ffmpeg's vidstabdetect and vidstabtransform over every matching video in a folder,\n" +
			"writing <name>-s.MP4 (and optionally a side by side <name>-c.MP4) into <folder>/stabilized.",
		Example: "  stabilize -p ~/clips\n" +
			"  stabilize -p ~/clips -c -e .mov\n" +
			"  stabilize -p ~/clips -a smoothing=30",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return config.UnexpectedArgs(args)
			}
			return nil
		},
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.Config()
			if err != nil {
				return err
			}
			return runBatch(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags = config.BindFlags(root.Flags())
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", config.ErrInvalidArguments, err)
	})
	root.SetHelpCommand(&cobra.Command{Hidden: true})
	root.AddCommand(newCheckCmd())

	return root
}

func runBatch(ctx context.Context, cfg config.Config, stdout, stderr io.Writer) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	useTUI := !cfg.NoTUI && !cfg.Verbose && !cfg.DryRun && logger.IsTerminal(stdout)

	log := logger.New(stdout, cfg.Verbose)
	runner := ffmpeg.ExecRunner{Stream: stderr}
	if useTUI {
		log = logger.Discard()
		runner.Stream = nil
	}
	logOptions(log, cfg)

	opts := processor.Options{Runner: runner, Logger: log}

	var (
		summary processor.Summary
		err     error
	)
	if useTUI {
		summary, err = runWithProgress(ctx, cfg, opts, stdout)
	} else {
		summary, err = processor.Run(ctx, cfg, opts, nil)
	}
	if err != nil {
		return err
	}

	printSummary(stdout, cfg, summary)
	return nil
}

// runWithProgress drives the batch while a bubbletea program renders its updates.
func runWithProgress(ctx context.Context, cfg config.Config, opts processor.Options, stdout io.Writer) (processor.Summary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates := make(chan processor.ProgressUpdate, 64)
	program := tea.NewProgram(tui.NewModel(updates, cancel), tea.WithOutput(stdout))
	return withProgram(program, updates, func(updates chan<- processor.ProgressUpdate) (processor.Summary, error) {
		return processor.Run(ctx, cfg, opts, updates)
	})
}

// withProgram runs work alongside program. The program must drain updates
// and quit once it is closed; withProgram returns after both have finished.
func withProgram(
	program *tea.Program,
	updates chan processor.ProgressUpdate,
	work func(chan<- processor.ProgressUpdate) (processor.Summary, error),
) (processor.Summary, error) {
	uiDone := make(chan struct{})
	go func() {
		_, _ = program.Run()
		close(uiDone)
	}()

	summary, err := work(updates)
	close(updates)
	<-uiDone
	return summary, err
}

func logOptions(log zerolog.Logger, cfg config.Config) {
	log.Info().
		Str("path", cfg.Directory).
		Str("ext", cfg.Extension).
		Bool("compare", cfg.ComparisonEnabled).
		Str("args", cfg.ExtraArgs).
		Bool("dry_run", cfg.DryRun).
		Msg("options")
	if cfg.ComparisonEnabled {
		log.Info().Msg("comparison output enabled, an extra side by side video will be generated")
	}
	if cfg.ExtraArgs != "" {
		log.Info().Str("args", cfg.ExtraArgs).Msg("using additional vidstabtransform options")
	}
}

func printSummary(w io.Writer, cfg config.Config, summary processor.Summary) {
	if summary.DryRun {
		fmt.Fprintln(w, tui.RenderFileList("Would process", summary.Files))
		fmt.Fprintln(w, dimStyle.Render("Dry run: nothing was written."))
		return
	}

	rows := []tui.SummaryRow{
		{Label: "Files found", Value: fmt.Sprintf("%d", summary.Discovered)},
		{Label: "Stabilized", Value: fmt.Sprintf("%d", summary.Stabilized)},
	}
	if cfg.ComparisonEnabled {
		rows = append(rows, tui.SummaryRow{Label: "Comparisons", Value: fmt.Sprintf("%d", summary.Compared)})
	}
	rows = append(rows,
		tui.SummaryRow{Label: "Output", Value: summary.OutputDir},
		tui.SummaryRow{Label: "Elapsed", Value: summary.Elapsed.Round(time.Millisecond).String()},
	)
	fmt.Fprintln(w, tui.RenderSummary(rows))
	fmt.Fprintf(w, "completed processing files in %s\n", cfg.DisplayDir())
}

var (
	errorStyle = lipgloss.NewStyle().Foreground(tui.ColorError).Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(tui.ColorDim)
)
