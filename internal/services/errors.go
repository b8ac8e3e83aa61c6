package services

import (
	"errors"
	"fmt"
	"strings"
)

// Error markers used to classify pipeline failures. Every error produced by
// the pipeline packages matches exactly one of them via errors.Is.
var (
	ErrCommandNotFound = errors.New("command not found")
	ErrIO              = errors.New("io error")
	ErrJSON            = errors.New("json error")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrProcessFailed   = errors.New("process failed")
)

// CommandNotFoundError reports a tool that no resolution step could locate.
type CommandNotFoundError struct {
	Tool string
}

func (e *CommandNotFoundError) Error() string {
	return fmt.Sprintf("command not found: %s", e.Tool)
}

// Is lets errors.Is match the ErrCommandNotFound marker.
func (e *CommandNotFoundError) Is(target error) bool {
	return target == ErrCommandNotFound
}

// ProcessError reports a subprocess that exited unsuccessfully. Code is nil
// when the process was terminated by a signal.
type ProcessError struct {
	Cmd    string
	Code   *int
	Stderr string
}

func (e *ProcessError) Error() string {
	code := "signal"
	if e.Code != nil {
		code = fmt.Sprintf("%d", *e.Code)
	}
	msg := fmt.Sprintf("process failed: %s (exit %s)", e.Cmd, code)
	if stderr := lastLines(e.Stderr, 5); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

// Is lets errors.Is match the ErrProcessFailed marker.
func (e *ProcessError) Is(target error) bool {
	return target == ErrProcessFailed
}

// ExitCode returns the exit code and whether one was recorded.
func (e *ProcessError) ExitCode() (int, bool) {
	if e.Code == nil {
		return 0, false
	}
	return *e.Code, true
}

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker. The marker should be one of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrIO
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind names the marker an error carries, for logs and history records.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCommandNotFound):
		return "command_not_found"
	case errors.Is(err, ErrProcessFailed):
		return "process_failed"
	case errors.Is(err, ErrJSON):
		return "json"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrIO):
		return "io"
	default:
		return "unknown"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}

func lastLines(text string, n int) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}
