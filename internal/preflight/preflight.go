package preflight

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"pixy/internal/config"
	"pixy/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// Inputs are the job-specific paths and tools to verify. Empty fields skip
// their check.
type Inputs struct {
	Input  string
	Output string
	Tools  []string

	// SkipTools leaves tool resolution to the caller.
	SkipTools bool
}

// RunAll executes all applicable preflight checks.
func RunAll(ctx context.Context, cfg *config.Config, resolver *deps.Resolver, in Inputs) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	if in.Input != "" {
		results = append(results, CheckInputReadable(in.Input))
	}
	if in.Output != "" {
		results = append(results, CheckDirectoryAccess("Output directory", nearestExisting(outputDir(in.Output))))
	}

	workRoot := nearestExisting(cfg.Paths.WorkDir)
	results = append(results,
		CheckDirectoryAccess("Work directory", workRoot),
		CheckFreeSpace("Work directory space", workRoot, cfg.Preflight.MinFreeGiB),
	)

	if in.SkipTools {
		return results
	}
	tools := in.Tools
	if len(tools) == 0 {
		tools = []string{deps.FFmpeg, deps.FFprobe}
	}
	results = append(results, CheckTools(ctx, resolver, tools)...)
	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}

// CheckTools verifies that every named executable resolves.
func CheckTools(_ context.Context, resolver *deps.Resolver, names []string) []Result {
	reqs := make([]deps.Requirement, 0, len(names))
	for _, name := range names {
		reqs = append(reqs, deps.Requirement{Name: name, Command: name})
	}
	statuses := resolver.CheckBinaries(reqs)
	results := make([]Result, 0, len(statuses))
	for _, status := range statuses {
		r := Result{Name: status.Name, Passed: status.Available, Detail: status.Detail}
		if status.Available {
			r.Detail = status.Path
		}
		results = append(results, r)
	}
	return results
}

// CheckInputReadable verifies the input is a readable regular file.
func CheckInputReadable(path string) Result {
	const name = "Input file"
	info, err := os.Stat(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	if err := readable(path); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

func outputDir(output string) string {
	dir := filepath.Dir(output)
	if dir == "" {
		return "."
	}
	return dir
}

// nearestExisting walks up from path to the first directory that exists, so
// a work root that will be created on demand is judged by its parent.
func nearestExisting(path string) string {
	if path == "" {
		return "."
	}
	current := filepath.Clean(path)
	for {
		if _, err := os.Stat(current); err == nil {
			return current
		}
		parent := filepath.Dir(current)
		if parent == current {
			return current
		}
		current = parent
	}
}
