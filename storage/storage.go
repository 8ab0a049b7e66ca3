// Package storage is the boundary to the external storage volume (the SD
// card on the reference board) that carries update markers and images.
package storage

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// Self-test artifacts written on mount.
const (
	SelfTestTextFile   = "sd_mmc_test.txt"
	SelfTestBinaryFile = "sd_binary.bin"

	selfTestText = "Test SD/MMC stack\n"
)

// File is an open, read-only, sequential file.
type File interface {
	io.ReadCloser

	// Size returns the file size in bytes
	Size() int64
}

// FS is a mounted volume.
type FS interface {
	// Exists reports whether name exists
	Exists(name string) (bool, error)

	// Open opens name for sequential reading
	Open(name string) (File, error)

	// WriteFile creates or truncates name and writes data to it
	WriteFile(name string, data []byte) error

	// Remove deletes name
	Remove(name string) error

	// Unmount releases the volume. The FS must not be used afterwards.
	Unmount() error
}

// Mounter brings up the storage device and mounts its filesystem.
type Mounter interface {
	Mount() (FS, error)
}

// MountError indicates that the volume could not be brought up.
type MountError struct {
	Stage string
	Err   error
}

func (e *MountError) Error() string {
	return fmt.Sprintf("mount failed at %s: %v", e.Stage, e.Err)
}

func (e *MountError) Unwrap() error {
	return e.Err
}

// SelfTest writes and reads back a text file and a 256-byte binary pattern.
func SelfTest(fsys FS) error {
	pattern := make([]byte, 256)
	for i := range pattern {
		pattern[i] = byte(i)
	}

	files := []struct {
		name string
		data []byte
	}{
		{SelfTestTextFile, []byte(selfTestText)},
		{SelfTestBinaryFile, pattern},
	}

	for _, f := range files {
		if err := fsys.WriteFile(f.name, f.data); err != nil {
			return errors.Wrapf(err, "write %s", f.name)
		}
		if err := readBack(fsys, f.name, f.data); err != nil {
			return err
		}
	}
	return nil
}

func readBack(fsys FS, name string, want []byte) error {
	f, err := fsys.Open(name)
	if err != nil {
		return errors.Wrapf(err, "open %s", name)
	}
	defer func() { _ = f.Close() }()

	got, err := io.ReadAll(f)
	if err != nil {
		return errors.Wrapf(err, "read %s", name)
	}
	if !bytes.Equal(got, want) {
		return errors.Errorf("%s: read back %d bytes that differ from the %d written", name, len(got), len(want))
	}
	return nil
}
