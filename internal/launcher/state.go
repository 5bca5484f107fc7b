package launcher

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ServerState records the spawned server process so companion commands can
// report on it or stop it. The legacy launchers discarded the process handle
// entirely; this file is the replacement.
type ServerState struct {
	PID       int       `json:"pid"`
	Port      int       `json:"port"`
	URL       string    `json:"url"`
	Python    string    `json:"python"`
	EntryFile string    `json:"entry_file"`
	BaseDir   string    `json:"base_dir"`
	LogFile   string    `json:"log_file,omitempty"`
	StartedAt time.Time `json:"started_at"`

	// Version for state file format migration
	Version string `json:"version"`
}

// StateFile persists ServerState as JSON.
type StateFile struct {
	path string
}

// NewStateFile creates a state file handle at the given path.
func NewStateFile(path string) *StateFile {
	return &StateFile{path: path}
}

// Path returns the state file location.
func (s *StateFile) Path() string {
	return s.path
}

// Load reads the recorded state. Returns (nil, nil) when no state exists.
func (s *StateFile) Load() (*ServerState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var st ServerState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}
	return &st, nil
}

// Save writes state atomically (temp file + rename).
func (s *StateFile) Save(st *ServerState) error {
	if st.Version == "" {
		st.Version = "1.0.0"
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	tmpFile := s.path + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	if err := os.Rename(tmpFile, s.path); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to rename state file: %w", err)
	}

	return nil
}

// Remove deletes the state file.
func (s *StateFile) Remove() {
	os.Remove(s.path)
}

// Running returns the recorded state if its process is still alive.
// A stale record (process gone) is cleaned up and (nil, nil) is returned.
func (s *StateFile) Running() (*ServerState, error) {
	st, err := s.Load()
	if err != nil {
		return nil, err
	}
	if st == nil || st.PID == 0 {
		return nil, nil
	}

	if !processAlive(st.PID) {
		s.Remove()
		return nil, nil
	}

	return st, nil
}
