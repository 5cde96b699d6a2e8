package cmd

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pb-ai/sharder/format"
	"github.com/pb-ai/sharder/manifest"
)

func NewVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify chunk files in a directory against its manifest.json",
		Args:  cobra.NoArgs,
		RunE:  VerifyHandler,
	}

	cmd.Flags().String("dir", "", "Directory containing chunk files and manifest.json")
	_ = cmd.MarkFlagRequired("dir")

	return cmd
}

func VerifyHandler(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("dir")

	m, err := manifest.Load(filepath.Join(dir, manifest.Filename))
	if err != nil {
		return err
	}

	var failed int
	for _, c := range m.Chunks {
		filename := c.Filename
		if filename == "" {
			filename = c.ID + ".safetensors"
		}

		if err := verifyChunk(filepath.Join(dir, filename), c); err != nil {
			failed++
			fmt.Printf("FAIL  %s: %v\n", filename, err)
			continue
		}

		fmt.Printf("ok    %s  %s\n", filename, format.HumanBytes(int64(c.Bytes)))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d chunks failed verification", failed, len(m.Chunks))
	}

	fmt.Printf("verified %d chunks (%s) for %s\n", len(m.Chunks), format.HumanBytes(int64(m.TotalBytes())), m.ModelID)
	return nil
}

func verifyChunk(path string, c manifest.Chunk) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return err
	}

	if uint64(n) != c.Bytes {
		return fmt.Errorf("size mismatch: manifest says %d bytes, file has %d", c.Bytes, n)
	}

	if digest := hex.EncodeToString(h.Sum(nil)); digest != c.Digest {
		return fmt.Errorf("digest mismatch: manifest says %s, file hashes to %s", c.Digest, digest)
	}

	return nil
}
