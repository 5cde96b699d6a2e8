package safetensors

import (
	"fmt"
	"os"
)

// File is a read-only view of one source safetensors file. On platforms with
// mmap support the view is a lazily faulted mapping; elsewhere the file is
// buffered in full. Either way the bytes are never mutated and stay valid
// until Close.
type File struct {
	path   string
	f      *os.File
	data   []byte
	mapped bool
}

// Open opens path and maps (or reads) its contents.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	data, mapped, err := mmapReadOnly(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mapping %s: %w", path, err)
	}

	return &File{path: path, f: f, data: data, mapped: mapped}, nil
}

// Path returns the path the file was opened from.
func (f *File) Path() string { return f.path }

// Data returns the file contents. The slice is invalid after Close.
func (f *File) Data() []byte { return f.data }

// ParseHeader parses the file's safetensors header. Each call reparses; the
// caller decides how long to hold on to the result.
func (f *File) ParseHeader() (*Header, error) {
	h, err := ParseHeader(f.data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.path, err)
	}
	return h, nil
}

// Close unmaps the view and closes the underlying file.
func (f *File) Close() error {
	var err error
	if f.mapped && f.data != nil {
		err = munmap(f.data)
	}
	f.data = nil

	if cerr := f.f.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
