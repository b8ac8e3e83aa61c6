package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"pixy/internal/services"
)

const (
	lockName     = ".lock"
	framesName   = "frames"
	upscaledName = "upscaled"
	jobLogName   = "job.log"
)

// Manager hands out per-job working directories under Root.
type Manager struct {
	Root string
	// Now defaults to time.Now.
	Now func() time.Time
}

// NewManager returns a Manager rooted at root.
func NewManager(root string) *Manager {
	return &Manager{Root: root}
}

// Dir is an acquired job directory. It stays locked until Release or Remove.
type Dir struct {
	JobID    string
	Root     string
	Frames   string
	Upscaled string

	lock *flock.Flock
}

// LogPath is the per-job log file inside the directory.
func (d *Dir) LogPath() string {
	return filepath.Join(d.Root, jobLogName)
}

// Acquire creates <Root>/<jobID> with frames and upscaled subdirectories and
// locks it. An empty jobID gets a random one. Reusing an existing job
// directory is refused.
func (m *Manager) Acquire(jobID string) (*Dir, error) {
	if m == nil || m.Root == "" {
		return nil, services.Wrap(services.ErrInvalidArgument, "workspace", "acquire", "work root not configured", nil)
	}
	if jobID == "" {
		jobID = uuid.NewString()
	}
	if filepath.Base(jobID) != jobID || jobID == "." || jobID == ".." {
		return nil, services.Wrap(services.ErrInvalidArgument, "workspace", "acquire", fmt.Sprintf("invalid job id %q", jobID), nil)
	}
	if err := os.MkdirAll(m.Root, 0o755); err != nil {
		return nil, services.Wrap(services.ErrIO, "workspace", "create work root", m.Root, err)
	}

	root := filepath.Join(m.Root, jobID)
	if err := os.Mkdir(root, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, services.Wrap(services.ErrInvalidArgument, "workspace", "acquire", "job directory already exists: "+root, err)
		}
		return nil, services.Wrap(services.ErrIO, "workspace", "create job dir", root, err)
	}

	lock := flock.New(filepath.Join(root, lockName))
	ok, err := lock.TryLock()
	if err != nil || !ok {
		_ = os.RemoveAll(root)
		if err == nil {
			err = errors.New("lock held by another process")
		}
		return nil, services.Wrap(services.ErrIO, "workspace", "lock job dir", root, err)
	}

	dir := &Dir{
		JobID:    jobID,
		Root:     root,
		Frames:   filepath.Join(root, framesName),
		Upscaled: filepath.Join(root, upscaledName),
		lock:     lock,
	}
	for _, sub := range []string{dir.Frames, dir.Upscaled} {
		if err := os.Mkdir(sub, 0o755); err != nil {
			_ = dir.Remove()
			return nil, services.Wrap(services.ErrIO, "workspace", "create job dir", sub, err)
		}
	}
	return dir, nil
}

// Release unlocks the directory and leaves its contents in place.
func (d *Dir) Release() error {
	if d == nil || d.lock == nil {
		return nil
	}
	return d.lock.Unlock()
}

// Remove unlocks and deletes the directory.
func (d *Dir) Remove() error {
	if d == nil {
		return nil
	}
	releaseErr := d.Release()
	if err := os.RemoveAll(d.Root); err != nil {
		return services.Wrap(services.ErrIO, "workspace", "remove job dir", d.Root, err)
	}
	return releaseErr
}

// Entry describes a job directory found under the work root.
type Entry struct {
	JobID   string    `json:"job_id"`
	Path    string    `json:"path"`
	ModTime time.Time `json:"mod_time"`
	Locked  bool      `json:"locked"`
}

// PruneResult lists what Prune did.
type PruneResult struct {
	Removed []Entry `json:"removed"`
	Skipped []Entry `json:"skipped"`
}

// List returns job directories under the work root, oldest first. A missing
// root yields an empty list.
func (m *Manager) List() ([]Entry, error) {
	entries, err := os.ReadDir(m.Root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, services.Wrap(services.ErrIO, "workspace", "list work root", m.Root, err)
	}
	var out []Entry
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(m.Root, entry.Name())
		out = append(out, Entry{
			JobID:   entry.Name(),
			Path:    path,
			ModTime: info.ModTime(),
			Locked:  isLocked(path),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModTime.Before(out[j].ModTime) })
	return out, nil
}

// Prune removes unlocked job directories last modified more than olderThan
// ago. Directories held by a running job are skipped.
func (m *Manager) Prune(olderThan time.Duration) (PruneResult, error) {
	var result PruneResult
	entries, err := m.List()
	if err != nil {
		return result, err
	}
	cutoff := m.now().Add(-olderThan)
	for _, entry := range entries {
		if entry.ModTime.After(cutoff) {
			continue
		}
		lock := flock.New(filepath.Join(entry.Path, lockName))
		ok, err := lock.TryLock()
		if err != nil || !ok {
			entry.Locked = true
			result.Skipped = append(result.Skipped, entry)
			continue
		}
		removeErr := os.RemoveAll(entry.Path)
		_ = lock.Unlock()
		if removeErr != nil {
			return result, services.Wrap(services.ErrIO, "workspace", "prune job dir", entry.Path, removeErr)
		}
		entry.Locked = false
		result.Removed = append(result.Removed, entry)
	}
	return result, nil
}

func (m *Manager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// isLocked probes the lock without creating it in directories that have none.
func isLocked(dir string) bool {
	path := filepath.Join(dir, lockName)
	if _, err := os.Stat(path); err != nil {
		return false
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil || !ok {
		return true
	}
	_ = lock.Unlock()
	return false
}
