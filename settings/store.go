package settings

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"github.com/vazrupe/endibuf"
)

// Flash is the non-volatile storage behind the record. Save always
// replaces the whole record.
type Flash interface {
	Load() (Record, error)
	Save(Record) error
}

// Store keeps the record in a single file.
type Store struct {
	Path string
	mu   sync.Mutex
}

func NewStore(path string) *Store {
	return &Store{Path: path}
}

func (s *Store) Load() (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.Path)
	if err != nil {
		return Record{}, errors.Wrap(err, "open settings")
	}
	defer f.Close()

	var r Record
	if err := r.Read(endibuf.NewReader(f)); err != nil {
		return Record{}, errors.Wrapf(err, "load %s", s.Path)
	}
	return r, nil
}

// Save erases the file and writes r in full.
func (s *Store) Save(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "create settings dir")
		}
	}
	f, err := os.Create(s.Path)
	if err != nil {
		return errors.Wrap(err, "erase settings")
	}
	w := endibuf.NewWriter(f)
	if err := r.Write(w); err != nil {
		f.Close()
		return errors.Wrapf(err, "save %s", s.Path)
	}
	return errors.Wrap(f.Close(), "close settings")
}

// Memory is an in-process Flash. Count reports how many times Save ran.
type Memory struct {
	mu     sync.Mutex
	rec    *Record
	writes int
}

func (m *Memory) Load() (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rec == nil {
		return Record{}, ErrShortRecord
	}
	return *m.rec, nil
}

func (m *Memory) Save(r Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.Magic, r.Version = Magic, Version
	m.rec = &r
	m.writes++
	return nil
}

func (m *Memory) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// LoadOrDefaults returns the stored record, or the compiled-in defaults
// together with the reason the stored one was rejected.
func LoadOrDefaults(f Flash) (Record, error) {
	r, err := f.Load()
	if err != nil {
		return Defaults(), err
	}
	return r, nil
}
