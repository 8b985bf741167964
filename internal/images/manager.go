// Package images manages the lifecycle of user-supplied cover files: staging
// in a temp directory, promotion into app storage, and cleanup.
package images

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Manager owns the app's image storage directory. File base names are the
// stable identity: the storage directory itself may move between runs, so
// stored paths are always re-resolved by name before use.
type Manager struct {
	storageDir string
	tempDir    string

	mu        sync.Mutex
	lastStamp int64
}

// NewManager creates a manager rooted at storageDir, staging new files in
// tempDir. Both directories are created if missing.
func NewManager(storageDir, tempDir string) (*Manager, error) {
	if err := os.MkdirAll(storageDir, 0755); err != nil {
		return nil, fmt.Errorf("create image storage dir: %w", err)
	}
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, fmt.Errorf("create image temp dir: %w", err)
	}
	return &Manager{storageDir: storageDir, tempDir: tempDir}, nil
}

// StashTemporary writes picked or scanned image bytes to a uniquely named
// file in the temp directory. Permanent storage is untouched; the file only
// becomes durable via Promote.
func (m *Manager) StashTemporary(data []byte) (string, error) {
	tempPath := filepath.Join(m.tempDir, fmt.Sprintf("photo_%d.jpg", m.nextStamp()))
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return "", fmt.Errorf("write temp image: %w", err)
	}
	return tempPath, nil
}

// nextStamp returns a millisecond timestamp, bumped past the previous one so
// two stashes within the same millisecond still get distinct names.
func (m *Manager) nextStamp() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	stamp := time.Now().UnixMilli()
	if stamp <= m.lastStamp {
		stamp = m.lastStamp + 1
	}
	m.lastStamp = stamp
	return stamp
}

// Promote moves a staged file into permanent storage under its base name.
// An existing file at the destination is deleted first, so retrying a
// promotion overwrites rather than erroring. Sources outside the temp and
// storage directories are refused; paths arrive from clients and must not
// reach into the rest of the filesystem.
func (m *Manager) Promote(tempPath string) (string, error) {
	if !m.managed(tempPath) {
		return "", fmt.Errorf("refuse to promote %s: outside managed directories", tempPath)
	}

	dest := m.CanonicalPath(filepath.Base(tempPath))

	// Promoting a file that already lives in storage is a no-op, not a
	// self-overwrite.
	if filepath.Clean(tempPath) == dest {
		return dest, nil
	}

	if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("replace existing image: %w", err)
	}

	if err := moveFile(tempPath, dest); err != nil {
		return "", fmt.Errorf("promote image: %w", err)
	}
	return dest, nil
}

// ResolveExisting finds the readable path for a stored file reference.
// The verbatim path wins when it exists and sits under a managed directory
// (it may be a still-staged temp file); otherwise the canonical path under
// the storage directory is tried. A miss on both means the image is gone.
func (m *Manager) ResolveExisting(path string) (string, bool) {
	if m.managed(path) && fileExists(path) {
		return path, true
	}
	canonical := m.CanonicalPath(filepath.Base(path))
	if fileExists(canonical) {
		return canonical, true
	}
	return "", false
}

// Remove deletes the file at path, best-effort. Only files under the temp
// and storage directories are touched; anything else stays put. A dangling
// orphan file is a low-severity outcome, so failures never propagate to the
// caller.
func (m *Manager) Remove(path string) {
	if path == "" || !m.managed(path) {
		return
	}
	_ = os.Remove(path)
}

// CanonicalPath returns where a file with the given base name lives in
// permanent storage.
func (m *Manager) CanonicalPath(name string) string {
	return filepath.Join(m.storageDir, filepath.Base(name))
}

// StorageDir returns the permanent storage directory path.
func (m *Manager) StorageDir() string {
	return m.storageDir
}

// managed reports whether path sits under the temp or storage directory.
func (m *Manager) managed(path string) bool {
	return inDir(path, m.tempDir) || inDir(path, m.storageDir)
}

func inDir(path, dir string) bool {
	rel, err := filepath.Rel(dir, filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// moveFile renames src to dest, copying when the two sit on different
// filesystems (temp dirs often do).
func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	in.Close()
	return os.Remove(src)
}
