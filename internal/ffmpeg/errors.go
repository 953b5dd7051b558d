package ffmpeg

import (
	"errors"
	"fmt"
	"strings"
)

// ErrToolFailed matches any *ToolError via errors.Is.
var ErrToolFailed = errors.New("ffmpeg invocation failed")

// stderrTailLines is how much of ffmpeg's stderr is kept on a ToolError.
const stderrTailLines = 5

// ToolError reports a non-zero exit (or a failure to start) of one pass.
type ToolError struct {
	Pass     Pass
	Input    string
	ExitCode int // -1 when the process never ran or was killed
	Stderr   string
	Err      error
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("ffmpeg %s pass failed for %s", e.Pass, e.Input)
	if e.ExitCode >= 0 {
		msg += fmt.Sprintf(" (exit status %d)", e.ExitCode)
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if tail := lastLines(e.Stderr, 1); tail != "" {
		msg += ": " + tail
	}
	return msg
}

func (e *ToolError) Unwrap() error { return e.Err }

func (e *ToolError) Is(target error) bool { return target == ErrToolFailed }

// Tail returns the last few stderr lines, for logging.
func (e *ToolError) Tail() string {
	return lastLines(e.Stderr, stderrTailLines)
}

// lastLines returns the last n non-empty lines of s. ffmpeg redraws its
// progress line with '\r', so those count as line breaks too.
func lastLines(s string, n int) string {
	s = strings.ReplaceAll(s, "\r", "\n")
	var out []string
	lines := strings.Split(s, "\n")
	for i := len(lines) - 1; i >= 0 && len(out) < n; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			out = append(out, line)
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return strings.Join(out, "\n")
}
