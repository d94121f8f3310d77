package presets

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"

	"github.com/Skryldev/image-augmentor/core"
	apperrors "github.com/Skryldev/image-augmentor/errors"
)

const keyPrefix = "preset/"

// PebbleStore keeps presets in a pebble key-value database under preset/<name>.
type PebbleStore struct {
	mu sync.RWMutex
	db *pebble.DB
}

// OpenPebble opens or creates the database at dir.
func OpenPebble(dir string) (*PebbleStore, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, apperrors.New(apperrors.CategoryConfig, "preset.open",
			fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err))
	}
	return &PebbleStore{db: db}, nil
}

func (s *PebbleStore) Save(name string, opts core.Options) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	data, err := marshal(opts)
	if err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return unavailable("preset.save")
	}
	if err := s.db.Set([]byte(keyPrefix+name), data, pebble.Sync); err != nil {
		return apperrors.Wrap(apperrors.CategoryIO, "preset.save", err)
	}
	return nil
}

func (s *PebbleStore) Load(name string) (core.Options, error) {
	if err := ValidateName(name); err != nil {
		return core.Options{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return core.Options{}, unavailable("preset.load")
	}
	value, closer, err := s.db.Get([]byte(keyPrefix + name))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return core.Options{}, notFound(name)
		}
		return core.Options{}, apperrors.Wrap(apperrors.CategoryIO, "preset.load", err)
	}
	defer closer.Close()
	return unmarshal(name, value)
}

// Names lists stored preset names in key order.
func (s *PebbleStore) Names() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, unavailable("preset.list")
	}
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte("preset0"), // '0' sorts right after '/'
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryIO, "preset.list", err)
	}
	defer iter.Close()

	var names []string
	for iter.First(); iter.Valid(); iter.Next() {
		names = append(names, string(iter.Key()[len(keyPrefix):]))
	}
	if err := iter.Error(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryIO, "preset.list", err)
	}
	return names, nil
}

// Close flushes and closes the database. Later calls report ErrStoreUnavailable.
func (s *PebbleStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func unavailable(op string) error {
	return apperrors.New(apperrors.CategoryConfig, op,
		fmt.Errorf("%w: database closed", apperrors.ErrStoreUnavailable))
}

var _ core.PresetStore = (*PebbleStore)(nil)
