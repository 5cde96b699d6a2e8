package cmd

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pb-ai/sharder/manifest"
)

func writeChunkFile(t *testing.T, dir, name string, data []byte) manifest.Chunk {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))

	sum := sha256.Sum256(data)
	return manifest.Chunk{
		ID:       name[:len(name)-len(".safetensors")],
		Filename: name,
		Bytes:    uint64(len(data)),
		Digest:   hex.EncodeToString(sum[:]),
	}
}

func TestVerifyChunk(t *testing.T) {
	dir := t.TempDir()
	c := writeChunkFile(t, dir, "base.safetensors", []byte("payload"))

	t.Run("ok", func(t *testing.T) {
		assert.NoError(t, verifyChunk(filepath.Join(dir, c.Filename), c))
	})

	t.Run("missing file", func(t *testing.T) {
		assert.Error(t, verifyChunk(filepath.Join(dir, "gone.safetensors"), c))
	})

	t.Run("size mismatch", func(t *testing.T) {
		short := c
		short.Bytes++
		assert.ErrorContains(t, verifyChunk(filepath.Join(dir, c.Filename), short), "size mismatch")
	})

	t.Run("digest mismatch", func(t *testing.T) {
		tampered := c
		tampered.Digest = "deadbeef"
		assert.ErrorContains(t, verifyChunk(filepath.Join(dir, c.Filename), tampered), "digest mismatch")
	})
}

func TestVerifyHandler(t *testing.T) {
	dir := t.TempDir()

	m := &manifest.Manifest{
		ModelID:          "test/model",
		Version:          "1.0.0",
		Dtype:            "auto",
		MinRunnableDepth: 4,
		Chunks: []manifest.Chunk{
			writeChunkFile(t, dir, "base.safetensors", []byte("base data")),
			writeChunkFile(t, dir, "layers_0-3.safetensors", []byte("layer data")),
		},
	}
	require.NoError(t, m.Save(filepath.Join(dir, manifest.Filename)))

	run := func() error {
		cmd := NewVerifyCmd()
		cmd.SetArgs([]string{"--dir", dir})
		return cmd.Execute()
	}

	assert.NoError(t, run())

	// corrupt one chunk
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base.safetensors"), []byte("base dat!"), 0o644))
	assert.ErrorContains(t, run(), "1 of 2 chunks failed verification")
}
