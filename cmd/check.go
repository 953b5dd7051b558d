package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"stabilize/internal/config"
	"stabilize/internal/ffmpeg"
	"stabilize/internal/tui"
)

func newCheckCmd() *cobra.Command {
	tool := config.DefaultToolPath

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify that ffmpeg is installed with the vidstab filters",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return config.UnexpectedArgs(args)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			report, err := ffmpeg.CheckTool(cmd.Context(), tool)

			fmt.Fprintln(out, checkTitleStyle.Render("ffmpeg"))
			fmt.Fprintf(out, "  %s %s\n", checkLabelStyle.Render("path:   "), valueOrNone(report.Path))
			fmt.Fprintf(out, "  %s %s\n", checkLabelStyle.Render("version:"), valueOrNone(report.Version))
			fmt.Fprintln(out, checkTitleStyle.Render("filters"))
			for _, name := range []string{ffmpeg.DetectFilter, ffmpeg.TransformFilter} {
				mark := checkOKStyle.Render("ok")
				if !report.Filters[name] {
					mark = checkBadStyle.Render("missing")
				}
				fmt.Fprintf(out, "  %s %s\n", checkLabelStyle.Render(name), mark)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&tool, "ffmpeg", tool, "ffmpeg executable to check")
	return cmd
}

func valueOrNone(s string) string {
	if s == "" {
		return checkBadStyle.Render("none")
	}
	return checkValueStyle.Render(s)
}

var (
	checkTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(tui.ColorAccent)
	checkLabelStyle = lipgloss.NewStyle().Foreground(tui.ColorAccentAlt)
	checkValueStyle = lipgloss.NewStyle().Foreground(tui.ColorInk)
	checkOKStyle    = lipgloss.NewStyle().Foreground(tui.ColorSuccess)
	checkBadStyle   = lipgloss.NewStyle().Foreground(tui.ColorError)
)
