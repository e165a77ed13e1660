package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// LocalStorage handles file storage on the local filesystem. It backs the
// backup archive directory and generated report copies.
type LocalStorage struct {
	basePath string
}

// FileInfo describes a stored file
type FileInfo struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// NewLocalStorage creates a new local storage instance
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

// SaveBytes writes data under the given subdirectory with the exact
// filename. Backup archives need predictable names, so no random IDs here.
func (s *LocalStorage) SaveBytes(data []byte, filename, subDir string) (string, error) {
	dir := filepath.Join(s.basePath, subDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	filePath := filepath.Join(dir, filename)
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	relPath, _ := filepath.Rel(s.basePath, filePath)
	return relPath, nil
}

// Open returns a stored file for reading
func (s *LocalStorage) Open(relativePath string) (*os.File, error) {
	return os.Open(filepath.Join(s.basePath, relativePath))
}

// Delete removes a stored file
func (s *LocalStorage) Delete(relativePath string) error {
	return os.Remove(filepath.Join(s.basePath, relativePath))
}

// Exists checks if a file exists
func (s *LocalStorage) Exists(relativePath string) bool {
	_, err := os.Stat(filepath.Join(s.basePath, relativePath))
	return err == nil
}

// FullPath returns the absolute path for serving files
func (s *LocalStorage) FullPath(relativePath string) string {
	return filepath.Join(s.basePath, relativePath)
}

// Size returns the size of a file in bytes
func (s *LocalStorage) Size(relativePath string) (int64, error) {
	info, err := os.Stat(filepath.Join(s.basePath, relativePath))
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// List returns the files in a subdirectory, newest first
func (s *LocalStorage) List(subDir string) ([]FileInfo, error) {
	dir := filepath.Join(s.basePath, subDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	files := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		relPath, _ := filepath.Rel(s.basePath, filepath.Join(dir, entry.Name()))
		files = append(files, FileInfo{
			Name:      entry.Name(),
			Path:      relPath,
			SizeBytes: info.Size(),
			CreatedAt: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].CreatedAt.After(files[j].CreatedAt)
	})
	return files, nil
}
