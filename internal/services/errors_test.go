package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"pixy/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrIO, "extract", "mkdir", "create frames dir", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrIO) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"extract", "mkdir", "create frames dir"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestCommandNotFoundMatchesMarker(t *testing.T) {
	err := fmt.Errorf("resolve: %w", &services.CommandNotFoundError{Tool: "ffprobe"})
	if !errors.Is(err, services.ErrCommandNotFound) {
		t.Fatalf("expected ErrCommandNotFound, got %v", err)
	}
	var notFound *services.CommandNotFoundError
	if !errors.As(err, &notFound) || notFound.Tool != "ffprobe" {
		t.Fatalf("expected tool name to survive wrapping, got %#v", notFound)
	}
	if errors.Is(err, services.ErrProcessFailed) {
		t.Fatal("command not found must not match process failure")
	}
}

func TestProcessErrorMessage(t *testing.T) {
	code := 3
	err := &services.ProcessError{Cmd: "ffmpeg -y -i in.mkv", Code: &code, Stderr: "line1\nline2\n"}
	if !errors.Is(err, services.ErrProcessFailed) {
		t.Fatal("expected ErrProcessFailed")
	}
	msg := err.Error()
	if !strings.Contains(msg, "ffmpeg -y -i in.mkv") || !strings.Contains(msg, "exit 3") {
		t.Fatalf("unexpected message %q", msg)
	}
	if !strings.Contains(msg, "line1 | line2") {
		t.Fatalf("expected stderr tail in %q", msg)
	}

	signalled := &services.ProcessError{Cmd: "waifu2x-ncnn-vulkan"}
	if _, ok := signalled.ExitCode(); ok {
		t.Fatal("expected no exit code for signalled process")
	}
	if !strings.Contains(signalled.Error(), "exit signal") {
		t.Fatalf("unexpected message %q", signalled.Error())
	}
}

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&services.CommandNotFoundError{Tool: "ffmpeg"}, "command_not_found"},
		{&services.ProcessError{Cmd: "ffmpeg"}, "process_failed"},
		{services.Wrap(services.ErrJSON, "probe", "decode", "", nil), "json"},
		{services.Wrap(services.ErrInvalidArgument, "extract", "", "bad format", nil), "invalid_argument"},
		{errors.New("other"), "unknown"},
	}
	for _, tt := range tests {
		if got := services.Kind(tt.err); got != tt.want {
			t.Errorf("Kind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
