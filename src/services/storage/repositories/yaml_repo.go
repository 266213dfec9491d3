package repositories

import (
	"errors"
	"os"
	"path/filepath"

	"talk2trade/src/models"

	"gopkg.in/yaml.v3"
)

// YAMLRepository reads and writes a single YAML document on disk.
type YAMLRepository struct {
	file string
}

func NewYAMLRepository(file string) *YAMLRepository {
	return &YAMLRepository{file: file}
}

// Path returns the backing file path.
func (r *YAMLRepository) Path() string {
	return r.file
}

// Exists reports whether the backing file is present.
func (r *YAMLRepository) Exists() bool {
	_, err := os.Stat(r.file)
	return err == nil
}

// Load decodes the file into out. A missing file is not an error and reports
// found=false, leaving out untouched.
func (r *YAMLRepository) Load(out any) (found bool, err error) {
	data, err := os.ReadFile(r.file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, &models.StorageError{Message: "failed to read " + r.file, Err: err}
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return true, &models.StorageError{Message: "failed to parse " + r.file, Err: err}
	}
	return true, nil
}

// Save encodes in and writes it, creating parent directories as needed.
func (r *YAMLRepository) Save(in any) error {
	if err := os.MkdirAll(filepath.Dir(r.file), 0755); err != nil {
		return &models.StorageError{Message: "failed to create config directory", Err: err}
	}
	data, err := yaml.Marshal(in)
	if err != nil {
		return &models.StorageError{Message: "failed to marshal YAML", Err: err}
	}
	if err := os.WriteFile(r.file, data, 0600); err != nil {
		return &models.StorageError{Message: "failed to write " + r.file, Err: err}
	}
	return nil
}
