// Package file provides file-based persistence for the workflow state and
// schema version histories.
package file

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	stateFileName = "state.json"
	historyDir    = "history"
	filePerm      = 0o644
	dirPerm       = 0o755
)

// Persistence implements persistence.Persistence on top of a root directory:
// state.json for the workflow blob, history/<hash>.json per artifact key.
type Persistence struct {
	root string
}

// NewPersistence creates a file persistence rooted at the given directory,
// creating it if needed.
func NewPersistence(root string) (*Persistence, error) {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	if err := os.MkdirAll(filepath.Join(cleanRoot, historyDir), dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create persistence root: %w", err)
	}

	return &Persistence{root: cleanRoot}, nil
}

func (p *Persistence) ReadState(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(p.root, stateFileName))
	if os.IsNotExist(err) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	return data, nil
}

func (p *Persistence) WriteState(_ context.Context, data []byte) error {
	if err := os.WriteFile(filepath.Join(p.root, stateFileName), data, filePerm); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	return nil
}

func (p *Persistence) ReadHistory(_ context.Context, artifactKey string) ([]byte, error) {
	data, err := os.ReadFile(p.historyPath(artifactKey))
	if os.IsNotExist(err) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read history for %s: %w", artifactKey, err)
	}

	return data, nil
}

func (p *Persistence) WriteHistory(_ context.Context, artifactKey string, data []byte) error {
	if err := os.WriteFile(p.historyPath(artifactKey), data, filePerm); err != nil {
		return fmt.Errorf("failed to write history for %s: %w", artifactKey, err)
	}

	return nil
}

// HealthCheck verifies the root directory exists.
func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close performs any necessary cleanup. For file persistence there is none.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}

// historyPath maps an artifact key to a file name. Keys contain "|" and
// whatever characters source ids carry, so the key is hashed rather than
// embedded in the path.
func (p *Persistence) historyPath(artifactKey string) string {
	sum := sha256.Sum256([]byte(artifactKey))

	return filepath.Join(p.root, historyDir, hex.EncodeToString(sum[:8])+".json")
}
