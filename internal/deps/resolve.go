package deps

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"pixy/internal/services"
)

// EnvBinDir names a directory searched for bundled tools when PATH has none.
const EnvBinDir = "PIXY_UPPY_BIN_DIR"

// Logical tool names shared by the pipeline components.
const (
	FFmpeg  = "ffmpeg"
	FFprobe = "ffprobe"
)

// Resolver locates external tools. Every call re-resolves; nothing is cached.
//
// Search order, first hit wins:
//  1. the system PATH
//  2. BinDir, or the directory named by PIXY_UPPY_BIN_DIR when BinDir is empty
//  3. third_party/bin/<platform>/ under the working directory
//  4. third_party/bin/<platform>/ next to the running executable
//
// A tool listed in Overrides skips the search and must exist at that path.
type Resolver struct {
	Overrides map[string]string
	BinDir    string

	LookPath   func(string) (string, error)
	Getenv     func(string) string
	Getwd      func() (string, error)
	Executable func() (string, error)
	Stat       func(string) (os.FileInfo, error)
	GOOS       string
}

// NewResolver returns a Resolver wired to the real environment.
func NewResolver() *Resolver {
	return &Resolver{}
}

var defaultResolver = NewResolver()

// Resolve locates name with the default resolver.
func Resolve(name string) (string, error) {
	return defaultResolver.Resolve(name)
}

// Resolve returns an executable path for the logical tool name, or a
// *services.CommandNotFoundError when no search step finds it.
func (r *Resolver) Resolve(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", services.Wrap(services.ErrInvalidArgument, "", "resolve tool", "empty tool name", nil)
	}
	if r == nil {
		r = defaultResolver
	}

	if override := strings.TrimSpace(r.Overrides[name]); override != "" {
		if r.isFile(override) {
			return override, nil
		}
		return "", &services.CommandNotFoundError{Tool: name}
	}

	if path, err := r.lookPath(name); err == nil && path != "" {
		return path, nil
	}

	file := r.fileName(name)
	for _, dir := range r.searchDirs() {
		candidate := filepath.Join(dir, file)
		if r.isFile(candidate) {
			return candidate, nil
		}
	}
	return "", &services.CommandNotFoundError{Tool: name}
}

// PlatformDir returns the third_party/bin subdirectory for the target OS.
func (r *Resolver) PlatformDir() string {
	if r.goos() == "windows" {
		return "win64"
	}
	return "linux64"
}

func (r *Resolver) searchDirs() []string {
	dirs := make([]string, 0, 3)
	binDir := strings.TrimSpace(r.BinDir)
	if binDir == "" {
		binDir = strings.TrimSpace(r.getenv(EnvBinDir))
	}
	if binDir != "" {
		dirs = append(dirs, binDir)
	}
	bundled := filepath.Join("third_party", "bin", r.PlatformDir())
	if cwd, err := r.getwd(); err == nil && cwd != "" {
		dirs = append(dirs, filepath.Join(cwd, bundled))
	}
	if exe, err := r.executable(); err == nil && exe != "" {
		dirs = append(dirs, filepath.Join(filepath.Dir(exe), bundled))
	}
	return dirs
}

func (r *Resolver) fileName(name string) string {
	if r.goos() == "windows" && !strings.EqualFold(filepath.Ext(name), ".exe") {
		return name + ".exe"
	}
	return name
}

func (r *Resolver) isFile(path string) bool {
	info, err := r.stat(path)
	return err == nil && !info.IsDir()
}

func (r *Resolver) lookPath(name string) (string, error) {
	if r.LookPath != nil {
		return r.LookPath(name)
	}
	return exec.LookPath(name)
}

func (r *Resolver) getenv(key string) string {
	if r.Getenv != nil {
		return r.Getenv(key)
	}
	return os.Getenv(key)
}

func (r *Resolver) getwd() (string, error) {
	if r.Getwd != nil {
		return r.Getwd()
	}
	return os.Getwd()
}

func (r *Resolver) executable() (string, error) {
	if r.Executable != nil {
		return r.Executable()
	}
	return os.Executable()
}

func (r *Resolver) stat(path string) (os.FileInfo, error) {
	if r.Stat != nil {
		return r.Stat(path)
	}
	return os.Stat(path)
}

func (r *Resolver) goos() string {
	if r.GOOS != "" {
		return r.GOOS
	}
	return runtime.GOOS
}
