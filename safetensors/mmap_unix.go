//go:build unix

package safetensors

import (
	"os"
	"syscall"
)

func mmapReadOnly(f *os.File) ([]byte, bool, error) {
	st, err := f.Stat()
	if err != nil {
		return nil, false, err
	}

	size := int(st.Size())
	if size <= 0 {
		return nil, false, nil
	}

	data, err := syscall.Mmap(int(f.Fd()), 0, size, syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func munmap(data []byte) error {
	return syscall.Munmap(data)
}
