// Package mmap provides read-only memory mapping for dataset files.
//
// Training data and scaled variants can be large; mapping them keeps
// workers sharing a read-only copy through the page cache instead of
// each holding a private heap copy.
package mmap

import (
	"errors"
	"os"
)

// File represents a read-only memory-mapped file.
type File struct {
	Data []byte
	f    *os.File
}

// Open maps the file at path into memory as read-only.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	size := fi.Size()
	if size < 0 {
		f.Close()
		return nil, errors.New("mmap: file size is negative")
	}
	if size == 0 {
		return &File{Data: nil, f: f}, nil
	}

	data, err := mmap(f, int(size))
	if err != nil {
		f.Close()
		return nil, err
	}

	return &File{Data: data, f: f}, nil
}

// Close unmaps the memory and closes the underlying file.
func (m *File) Close() error {
	if m == nil {
		return nil
	}
	var err error
	if m.Data != nil {
		err = munmap(m.Data)
		m.Data = nil
	}
	if m.f != nil {
		if closeErr := m.f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		m.f = nil
	}
	return err
}
