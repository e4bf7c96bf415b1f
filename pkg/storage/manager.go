package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/JoshTKx/actress-webscraper/pkg/errors"
)

// imageFilePrefix is the prefix of every saved image filename
const imageFilePrefix = "image_"

// Manager handles the per-profile output directory tree. Each profile
// owns the subdirectory named after its slug, and images within it are
// numbered by discovery order.
type Manager struct {
	baseDir string
}

// NewManager creates a storage manager rooted at baseDir
func NewManager(baseDir string) (*Manager, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Manager{baseDir: baseDir}, nil
}

// BaseDir returns the root of the output tree
func (m *Manager) BaseDir() string {
	return m.baseDir
}

// ProfileDir returns the output directory for a profile slug
func (m *Manager) ProfileDir(slug string) string {
	return filepath.Join(m.baseDir, slug)
}

// EnsureProfileDir creates the output directory for a profile
func (m *Manager) EnsureProfileDir(slug string) (string, error) {
	dir := m.ProfileDir(slug)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.New(errors.ErrorTypeFilesystem,
			fmt.Sprintf("failed to create profile directory %s: %v", dir, err), 0)
	}
	return dir, nil
}

// HasImages reports whether a profile's directory already contains at
// least one saved image. This is the resume signal: profiles with any
// images present are skipped when skip-existing is enabled.
func (m *Manager) HasImages(slug string) bool {
	return m.CountImages(slug) > 0
}

// CountImages returns how many images a profile's directory holds
func (m *Manager) CountImages(slug string) int {
	entries, err := os.ReadDir(m.ProfileDir(slug))
	if err != nil {
		return 0
	}

	count := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, imageFilePrefix) && !strings.HasSuffix(name, ".tmp") {
			count++
		}
	}
	return count
}

// ImagePath returns the path for a profile image by its one-based
// discovery index, e.g. image_001.jpg
func (m *Manager) ImagePath(slug string, index int, ext string) string {
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return filepath.Join(m.ProfileDir(slug), fmt.Sprintf("%s%03d%s", imageFilePrefix, index, ext))
}

// SaveImage writes image data for a profile. The write goes through a
// temp file and rename, so a crash mid-download never leaves a partial
// image that would satisfy the resume check.
func (m *Manager) SaveImage(slug string, index int, ext string, data []byte) (string, error) {
	if _, err := m.EnsureProfileDir(slug); err != nil {
		return "", err
	}

	path := m.ImagePath(slug, index, ext)
	tempPath := path + ".tmp"

	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		os.Remove(tempPath)
		return "", errors.New(errors.ErrorTypeFilesystem,
			fmt.Sprintf("failed to write image %s: %v", path, err), 0)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return "", errors.New(errors.ErrorTypeFilesystem,
			fmt.Sprintf("failed to finalize image %s: %v", path, err), 0)
	}

	return path, nil
}

// TotalImages walks the whole output tree and counts saved images
func (m *Manager) TotalImages() int {
	entries, err := os.ReadDir(m.baseDir)
	if err != nil {
		return 0
	}

	total := 0
	for _, entry := range entries {
		if entry.IsDir() {
			total += m.CountImages(entry.Name())
		}
	}
	return total
}
