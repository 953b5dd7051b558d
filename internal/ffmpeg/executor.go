package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
)

// Runner executes one ffmpeg invocation. args[0] is the executable.
type Runner interface {
	Run(ctx context.Context, pass Pass, input string, args []string) error
}

// ExecRunner runs ffmpeg as a child process and waits for it.
// When Stream is set, ffmpeg's output is tee'd to it in real time;
// stderr is always captured for the ToolError.
type ExecRunner struct {
	Stream io.Writer
}

func (r ExecRunner) Run(ctx context.Context, pass Pass, input string, args []string) error {
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)

	var stderrBuf bytes.Buffer
	if r.Stream != nil {
		cmd.Stdout = r.Stream
		cmd.Stderr = io.MultiWriter(&stderrBuf, r.Stream)
	} else {
		cmd.Stderr = &stderrBuf
	}

	err := cmd.Run()
	if err == nil {
		return nil
	}

	toolErr := &ToolError{
		Pass:     pass,
		Input:    input,
		ExitCode: -1,
		Stderr:   stderrBuf.String(),
		Err:      err,
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		toolErr.ExitCode = exitErr.ExitCode()
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		toolErr.Err = ctxErr
	}
	return toolErr
}
