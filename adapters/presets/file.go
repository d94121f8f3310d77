package presets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Skryldev/image-augmentor/core"
	apperrors "github.com/Skryldev/image-augmentor/errors"
)

// FileStore keeps one pretty-printed JSON file per preset.
type FileStore struct {
	dir string
}

// NewFileStore returns a store rooted at dir. An empty dir resolves to
// <user config dir>/image_setakgi; failure to resolve it is reported on first
// use as ErrStoreUnavailable.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) resolveDir() (string, error) {
	dir := s.dir
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return "", apperrors.New(apperrors.CategoryConfig, "preset.dir",
				fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err))
		}
		dir = filepath.Join(base, DirName)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", apperrors.New(apperrors.CategoryConfig, "preset.dir",
			fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err))
	}
	return dir, nil
}

func (s *FileStore) path(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	dir, err := s.resolveDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name+".json"), nil
}

// Save writes opts under name, replacing any existing preset.
func (s *FileStore) Save(name string, opts core.Options) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	data, err := marshal(opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return apperrors.Wrap(apperrors.CategoryIO, "preset.save", err)
	}
	return nil
}

// Load reads the preset saved under name.
func (s *FileStore) Load(name string) (core.Options, error) {
	path, err := s.path(name)
	if err != nil {
		return core.Options{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return core.Options{}, notFound(name)
		}
		return core.Options{}, apperrors.Wrap(apperrors.CategoryIO, "preset.load", err)
	}
	return unmarshal(name, data)
}

// Names lists the presets present in the directory.
func (s *FileStore) Names() ([]string, error) {
	dir, err := s.resolveDir()
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryIO, "preset.list", err)
	}
	var names []string
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), ".json")
		if !ok || e.IsDir() || ValidateName(name) != nil {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

var _ core.PresetStore = (*FileStore)(nil)
