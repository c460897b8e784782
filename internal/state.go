package internal

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/marph91/jimmy/internal/storage"
)

// stateFile lists what the last run wrote, relative to the parent of the
// output folders. It lives in the first output folder.
const stateFile = ".jimmy/written.yaml"

type writtenState struct {
	Paths []string `yaml:"paths"`
}

// loadWritten returns the paths recorded by the previous run. A missing
// state file is not an error.
func loadWritten(store storage.Provider, path string) ([]string, error) {
	if !store.Exists(path) {
		return nil, nil
	}
	data, err := store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var st writtenState
	if err := yaml.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("jimmy: state %s: %w", path, err)
	}
	return st.Paths, nil
}

func saveWritten(store storage.Provider, path string, paths []string) error {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)
	data, err := yaml.Marshal(writtenState{Paths: sorted})
	if err != nil {
		return fmt.Errorf("jimmy: state: %w", err)
	}
	if err := store.Write(path, data); err != nil {
		return fmt.Errorf("jimmy: state: %w", err)
	}
	return nil
}
