package settings

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"
)

// FileStore persists settings as JSON. Hand-edited files may contain
// comments and trailing commas.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore for path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the settings file path.
func (f *FileStore) Path() string {
	return f.path
}

// Load reads the record. A missing file yields (nil, nil). A corrupt file or
// one with a different version is moved aside to <path>.backup and reported
// as ErrPersistenceUnavailable.
func (f *FileStore) Load() (*Record, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: read %s: %w", ErrPersistenceUnavailable, f.path, err)
	}

	var rec Record
	if err := json.Unmarshal(jsonc.ToJSON(data), &rec); err != nil {
		f.backup("settings file corrupted", err)
		return nil, fmt.Errorf("%w: parse %s: %w", ErrPersistenceUnavailable, f.path, err)
	}

	if rec.Version != CurrentVersion {
		f.backup("incompatible settings version", nil, "file_version", rec.Version)
		return nil, fmt.Errorf("%w: %s has version %d, want %d",
			ErrPersistenceUnavailable, f.path, rec.Version, CurrentVersion)
	}

	return &rec, nil
}

// backup moves the current file to <path>.backup so the next save starts
// fresh without losing what the user had.
func (f *FileStore) backup(reason string, cause error, attrs ...any) {
	backupPath := f.path + ".backup"
	attrs = append(attrs, "path", f.path)
	if cause != nil {
		attrs = append(attrs, "error", cause)
	}
	if err := os.Rename(f.path, backupPath); err != nil {
		slog.Warn(reason+", failed to backup", append(attrs, "backup_error", err)...)
		return
	}
	slog.Warn(reason+", backed up and starting fresh", append(attrs, "backup", backupPath)...)
}

// Save writes the user-set keys atomically (temp file + rename). Keys
// absent from r are left out of the file.
func (f *FileStore) Save(r Record) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("%w: create settings directory: %w", ErrPersistenceUnavailable, err)
	}

	r.Version = CurrentVersion
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	tmpPath := f.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrPersistenceUnavailable, tmpPath, err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		return fmt.Errorf("%w: rename %s: %w", ErrPersistenceUnavailable, tmpPath, err)
	}
	return nil
}
