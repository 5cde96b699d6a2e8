package split

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pb-ai/sharder/safetensors"
)

type writeTimings struct {
	serialize time.Duration
	hash      time.Duration
	write     time.Duration
	parallel  time.Duration
	total     time.Duration
}

// writeChunk serializes tensors into a single safetensors image, then digests
// and persists it. Hashing burns CPU while the write waits on disk, and both
// only read the finished buffer, so the two run concurrently and the call
// joins on both before returning.
func writeChunk(tensors []safetensors.Tensor, path string) (int64, string, writeTimings, error) {
	start := time.Now()
	var timings writeTimings

	serializeStart := time.Now()
	data, err := safetensors.Serialize(tensors)
	if err != nil {
		return 0, "", writeTimings{}, fmt.Errorf("serializing %s: %w", path, err)
	}
	timings.serialize = time.Since(serializeStart)

	var digest string
	parallelStart := time.Now()

	var g errgroup.Group
	g.Go(func() error {
		hashStart := time.Now()
		sum := sha256.Sum256(data)
		digest = hex.EncodeToString(sum[:])
		timings.hash = time.Since(hashStart)
		return nil
	})
	g.Go(func() error {
		writeStart := time.Now()
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		timings.write = time.Since(writeStart)
		return nil
	})

	if err := g.Wait(); err != nil {
		return 0, "", writeTimings{}, err
	}

	timings.parallel = time.Since(parallelStart)
	timings.total = time.Since(start)
	return int64(len(data)), digest, timings, nil
}
