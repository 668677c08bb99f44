package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rhuss/simple-translate/pkg/debug"
)

// AppDirName is the directory created under the user configuration
// directory for all simple-translate files.
const AppDirName = "simple-translate"

// Store reads and writes Settings as a JSON file. Concurrent saves are
// last-writer-wins; each save replaces the file atomically so a concurrent
// Load never observes a partially written document.
type Store struct {
	path string
}

// NewStore creates a Store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultPath returns <UserConfigDir>/simple-translate/settings.json,
// falling back to the current directory when no user config dir exists.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, AppDirName, "settings.json")
}

// Path returns the file backing this store.
func (s *Store) Path() string {
	return s.path
}

// Load reads the settings file. A missing file yields Defaults().
func (s *Store) Load() (Settings, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		debug.Log("settings", "settings file not found, using defaults", "path", s.path)
		return Defaults(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read settings: %w", err)
	}

	var loaded Settings
	if err := json.Unmarshal(data, &loaded); err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings: %w", err)
	}
	debug.Log("settings", "settings loaded", "path", s.path, "model", loaded.Model, "has_api_key", loaded.HasCredential())
	return loaded, nil
}

// Save writes the settings file, creating the parent directory if needed.
// The file is written with owner-only permissions because it holds the
// provider credential.
func (s *Store) Save(st Settings) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize settings: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.json")
	if err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}

	debug.Log("settings", "settings saved", "path", s.path, "model", st.Model, "has_api_key", st.HasCredential())
	return nil
}
