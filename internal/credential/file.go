package credential

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dropDatabas3/hellotodo/internal/util/atomicwrite"
)

const DefaultFileName = ".credentials.json"

// FileStore guarda las credenciales como JSON con permisos 0600.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultFilePath devuelve ~/.credentials.json.
func DefaultFilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("credential: home dir: %w", err)
	}
	return filepath.Join(home, DefaultFileName), nil
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load() (map[string]string, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("credential: read %s: %w", s.path, err)
	}
	values := map[string]string{}
	if len(b) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(b, &values); err != nil {
		return nil, fmt.Errorf("credential: decode %s: %w", s.path, err)
	}
	return values, nil
}

func (s *FileStore) Save(values map[string]string) error {
	b, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("credential: encode: %w", err)
	}
	if err := atomicwrite.WriteFile(s.path, b, 0o600, 0o700); err != nil {
		return fmt.Errorf("credential: write %s: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) Delete() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("credential: remove %s: %w", s.path, err)
	}
	return nil
}
