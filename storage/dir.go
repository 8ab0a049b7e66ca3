package storage

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Dir mounts a host directory as the storage volume.
type Dir struct {
	// Root is the directory standing in for the volume root
	Root string

	// SkipSelfTest disables the write/read-back test on mount
	SkipSelfTest bool
}

// Mount implements Mounter.
func (d Dir) Mount() (FS, error) {
	info, err := os.Stat(d.Root)
	if err != nil {
		return nil, &MountError{Stage: "initiate", Err: err}
	}
	if !info.IsDir() {
		return nil, &MountError{Stage: "initiate", Err: errors.Errorf("%s is not a directory", d.Root)}
	}

	fsys := &dirFS{root: d.Root}
	if !d.SkipSelfTest {
		if err := SelfTest(fsys); err != nil {
			return nil, &MountError{Stage: "self test", Err: err}
		}
	}
	return fsys, nil
}

type dirFS struct {
	root      string
	unmounted bool
}

type dirFile struct {
	*os.File
	size int64
}

func (f *dirFile) Size() int64 {
	return f.size
}

func (d *dirFS) path(name string) (string, error) {
	if d.unmounted {
		return "", errors.New("volume is unmounted")
	}
	if !fs.ValidPath(name) {
		return "", errors.Errorf("invalid file name %q", name)
	}
	return filepath.Join(d.root, filepath.FromSlash(name)), nil
}

func (d *dirFS) Exists(name string) (bool, error) {
	p, err := d.path(name)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(p)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, errors.Wrapf(err, "stat %s", name)
	}
}

func (d *dirFS) Open(name string) (File, error) {
	p, err := d.path(name)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(p)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", name)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "stat %s", name)
	}
	return &dirFile{File: f, size: info.Size()}, nil
}

func (d *dirFS) WriteFile(name string, data []byte) error {
	p, err := d.path(name)
	if err != nil {
		return err
	}
	return errors.Wrapf(os.WriteFile(p, data, 0o644), "write %s", name)
}

func (d *dirFS) Remove(name string) error {
	p, err := d.path(name)
	if err != nil {
		return err
	}
	return errors.Wrapf(os.Remove(p), "remove %s", name)
}

func (d *dirFS) Unmount() error {
	d.unmounted = true
	return nil
}
