package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	namespaceFile = "namespace.json"

	// DefaultNamespace is used when no namespace has been selected.
	DefaultNamespace = "engram"
)

// NamespaceState represents the persisted namespace selection. CLI commands
// address memories within the active namespace; partitions never
// cross-contaminate.
type NamespaceState struct {
	// Active is the currently selected namespace.
	Active string `json:"active"`
}

// LoadNamespaceState loads the selection from a target .engram/namespace.json.
// Returns the default namespace if no selection exists.
// If overrideDir is non-empty, it is used instead of the default ~/.engram/ location.
func (m *Manager) LoadNamespaceState(overrideDir string) (*NamespaceState, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(dir, namespaceFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &NamespaceState{Active: DefaultNamespace}, nil
		}
		return nil, fmt.Errorf("reading namespace state: %w", err)
	}

	state := &NamespaceState{}
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parsing namespace state: %w", err)
	}

	if state.Active == "" {
		state.Active = DefaultNamespace
	}

	return state, nil
}

// SaveNamespaceState persists the selection to a target .engram/namespace.json.
func (m *Manager) SaveNamespaceState(state *NamespaceState, overrideDir string) error {
	if state == nil {
		return errors.New("cannot save nil namespace state")
	}

	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling namespace state: %w", err)
	}

	path := filepath.Join(dir, namespaceFile)
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec
		return fmt.Errorf("writing namespace state: %w", err)
	}

	return nil
}

// ClearNamespaceState removes the selection file so the next command falls
// back to the default namespace.
// Returns nil if the file doesn't exist (already cleared).
func (m *Manager) ClearNamespaceState(overrideDir string) error {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	path := filepath.Join(dir, namespaceFile)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("removing namespace state: %w", err)
	}

	return nil
}
