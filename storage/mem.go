package storage

import (
	"bytes"
	"io/fs"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// MemFS is an in-memory volume. It implements both Mounter and FS and can
// inject failures, which makes it the volume of choice for tests.
type MemFS struct {
	mu    sync.Mutex
	files map[string][]byte

	// MountErr, when set, makes Mount fail
	MountErr error

	// ProbeErr makes Exists fail for the given names
	ProbeErr map[string]error

	// WriteErr, when set, makes WriteFile fail
	WriteErr error

	// SelfTest runs SelfTest on Mount
	SelfTest bool

	mounted bool
	removed []string
}

// NewMemFS returns an empty volume.
func NewMemFS() *MemFS {
	return &MemFS{
		files:    make(map[string][]byte),
		ProbeErr: make(map[string]error),
	}
}

// Mount implements Mounter.
func (m *MemFS) Mount() (FS, error) {
	if m.MountErr != nil {
		return nil, &MountError{Stage: "initiate", Err: m.MountErr}
	}

	m.mu.Lock()
	m.mounted = true
	m.mu.Unlock()

	if m.SelfTest {
		if err := SelfTest(m); err != nil {
			m.mu.Lock()
			m.mounted = false
			m.mu.Unlock()
			return nil, &MountError{Stage: "self test", Err: err}
		}
	}
	return m, nil
}

// Put stores a file without requiring a mount.
func (m *MemFS) Put(name string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = append([]byte(nil), data...)
}

// Has reports whether a file exists, without requiring a mount.
func (m *MemFS) Has(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[name]
	return ok
}

// Names returns the stored file names in sorted order.
func (m *MemFS) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.files))
	for name := range m.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Removed returns the names passed to successful Remove calls, in order.
func (m *MemFS) Removed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.removed...)
}

// Mounted reports whether the volume is currently mounted.
func (m *MemFS) Mounted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mounted
}

func (m *MemFS) Exists(name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return false, err
	}
	if err := m.ProbeErr[name]; err != nil {
		return false, errors.Wrapf(err, "stat %s", name)
	}
	_, ok := m.files[name]
	return ok, nil
}

func (m *MemFS) Open(name string) (File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return nil, err
	}
	data, ok := m.files[name]
	if !ok {
		return nil, errors.Wrapf(fs.ErrNotExist, "open %s", name)
	}
	return &memFile{Reader: bytes.NewReader(data), size: int64(len(data))}, nil
}

func (m *MemFS) WriteFile(name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return err
	}
	if m.WriteErr != nil {
		return errors.Wrapf(m.WriteErr, "write %s", name)
	}
	m.files[name] = append([]byte(nil), data...)
	return nil
}

func (m *MemFS) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return err
	}
	if _, ok := m.files[name]; !ok {
		return errors.Wrapf(fs.ErrNotExist, "remove %s", name)
	}
	delete(m.files, name)
	m.removed = append(m.removed, name)
	return nil
}

func (m *MemFS) Unmount() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mounted = false
	return nil
}

func (m *MemFS) check() error {
	if !m.mounted {
		return errors.New("volume is not mounted")
	}
	return nil
}

type memFile struct {
	*bytes.Reader
	size int64
}

func (f *memFile) Size() int64 {
	return f.size
}

func (f *memFile) Close() error {
	return nil
}
