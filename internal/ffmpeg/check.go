package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var (
	ErrToolNotFound  = errors.New("ffmpeg not found")
	ErrFilterMissing = errors.New("ffmpeg was built without libvidstab")
)

// ToolReport describes the ffmpeg installation found by CheckTool.
type ToolReport struct {
	Path    string
	Version string
	Filters map[string]bool // DetectFilter and TransformFilter -> available
}

// CheckTool resolves tool on PATH, reads its version line and confirms that
// both vidstab filters are compiled in. The report is filled as far as the
// checks got, even when an error is returned.
func CheckTool(ctx context.Context, tool string) (ToolReport, error) {
	report := ToolReport{Filters: map[string]bool{DetectFilter: false, TransformFilter: false}}

	path, err := exec.LookPath(tool)
	if err != nil {
		return report, fmt.Errorf("%w: %v", ErrToolNotFound, err)
	}
	report.Path = path

	out, err := exec.CommandContext(ctx, path, "-hide_banner", "-version").Output()
	if err != nil {
		return report, fmt.Errorf("%s -version: %w", path, err)
	}
	report.Version = firstLine(string(out))

	out, err = exec.CommandContext(ctx, path, "-hide_banner", "-filters").Output()
	if err != nil {
		return report, fmt.Errorf("%s -filters: %w", path, err)
	}
	ParseFilters(string(out), report.Filters)

	var missing []string
	for _, name := range []string{DetectFilter, TransformFilter} {
		if !report.Filters[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return report, fmt.Errorf("%w: missing %s", ErrFilterMissing, strings.Join(missing, ", "))
	}
	return report, nil
}

// ParseFilters marks every key of want that appears as a filter name in the
// output of `ffmpeg -filters`. Lines look like " T.. vidstabdetect  V->V  ...".
func ParseFilters(listing string, want map[string]bool) {
	sc := bufio.NewScanner(strings.NewReader(listing))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		if _, ok := want[fields[1]]; ok {
			want[fields[1]] = true
		}
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return s
}
