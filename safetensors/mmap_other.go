//go:build !unix

package safetensors

import (
	"io"
	"os"
)

// Without mmap support the file is buffered in full. Lazy faulting is an
// optimization, not a correctness requirement; tensor payloads are copied out
// before any writer sees them either way.
func mmapReadOnly(f *os.File) ([]byte, bool, error) {
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, false, err
	}
	return data, false, nil
}

func munmap([]byte) error { return nil }
