package split

import (
	"fmt"
	"time"

	"github.com/pb-ai/sharder/safetensors"
)

type loadTimings struct {
	deserialize time.Duration
	copy        time.Duration
	total       time.Duration
}

// loadTensors copies the tensors named by locs out of their source mappings
// into owned buffers. Locations are grouped by source file so each file's
// header is parsed once per call, and files are visited in ascending index
// order for determinism.
//
// The copy is deliberate: it bounds the returned tensors' lifetime
// independently of the mappings, so the writer never depends on a mapping
// staying valid.
func loadTensors(files []*safetensors.File, locs []location) ([]safetensors.Tensor, int64, loadTimings, error) {
	start := time.Now()

	byFile := make([][]string, len(files))
	for _, loc := range locs {
		byFile[loc.file] = append(byFile[loc.file], loc.name)
	}

	tensors := make([]safetensors.Tensor, 0, len(locs))
	var bytesRead int64
	var timings loadTimings

	for i, names := range byFile {
		if len(names) == 0 {
			continue
		}

		f := files[i]

		deserializeStart := time.Now()
		header, err := f.ParseHeader()
		if err != nil {
			return nil, 0, loadTimings{}, err
		}
		timings.deserialize += time.Since(deserializeStart)

		for _, name := range names {
			info, ok := header.Tensor(name)
			if !ok {
				return nil, 0, loadTimings{}, fmt.Errorf("tensor %q not found in %s", name, f.Path())
			}

			src := info.Bytes(f.Data())
			bytesRead += int64(len(src))

			copyStart := time.Now()
			data := make([]byte, len(src))
			copy(data, src)
			timings.copy += time.Since(copyStart)

			tensors = append(tensors, safetensors.Tensor{
				Name:  name,
				Dtype: info.Dtype,
				Shape: info.Shape,
				Data:  data,
			})
		}
	}

	timings.total = time.Since(start)
	return tensors, bytesRead, timings, nil
}
