package procexec

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os/exec"
	"strings"
	"time"

	"pixy/internal/services"
)

const waitDelay = 5 * time.Second

// Command is one external tool invocation. Name is the logical tool name used
// in diagnostics; Path is the resolved executable.
type Command struct {
	Name string
	Path string
	Args []string
}

// String renders the command line the way it would be typed in a shell.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	exe := c.Path
	if exe == "" {
		exe = c.Name
	}
	parts = append(parts, quoteArg(exe))
	for _, arg := range c.Args {
		parts = append(parts, quoteArg(arg))
	}
	return strings.Join(parts, " ")
}

// Output holds the captured streams of a finished command.
type Output struct {
	Stdout  []byte
	Stderr  []byte
	Elapsed time.Duration
}

// Runner starts a command and blocks until it exits.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Output, error)
}

// ExecRunner runs commands through os/exec. Stderr is always captured; when
// StderrTee is set it also receives the live stream.
type ExecRunner struct {
	StderrTee io.Writer
}

// Run executes cmd. A non-zero exit yields *services.ProcessError carrying the
// full command line, the exit code, and captured stderr. A cancelled context
// kills the child and the returned error matches both the context error and
// services.ErrProcessFailed.
func (r ExecRunner) Run(ctx context.Context, cmd Command) (Output, error) {
	path := cmd.Path
	if path == "" {
		path = cmd.Name
	}
	c := exec.CommandContext(ctx, path, cmd.Args...)
	c.WaitDelay = waitDelay
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	if r.StderrTee != nil {
		c.Stderr = io.MultiWriter(&stderr, r.StderrTee)
	} else {
		c.Stderr = &stderr
	}

	start := time.Now()
	err := c.Run()
	out := Output{Stdout: stdout.Bytes(), Stderr: stderr.Bytes(), Elapsed: time.Since(start)}
	if err == nil {
		return out, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		procErr := &services.ProcessError{Cmd: cmd.String(), Stderr: stderr.String()}
		if code := exitErr.ExitCode(); code >= 0 {
			procErr.Code = &code
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return out, errors.Join(ctxErr, procErr)
		}
		return out, procErr
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return out, ctxErr
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return out, &services.CommandNotFoundError{Tool: cmd.Name}
	}
	return out, services.Wrap(services.ErrIO, "", "start "+cmd.Name, "", err)
}

func quoteArg(arg string) string {
	if arg == "" {
		return "''"
	}
	if !strings.ContainsAny(arg, " \t\n'\"\\$`&|;<>()*?[]{}!#~") {
		return arg
	}
	return "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
}
