// Package split implements the chunking engine: it discovers the source
// safetensors files of a checkpoint, classifies every tensor as base or
// per-layer, regroups them into chunk files of a fixed number of layers, and
// writes the manifest describing the result.
package split

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pb-ai/sharder/envconfig"
	"github.com/pb-ai/sharder/manifest"
	"github.com/pb-ai/sharder/safetensors"
)

const (
	chunkExt        = ".safetensors"
	manifestVersion = "1.0.0"
	manifestDtype   = "auto"
)

// Options configure one split run.
type Options struct {
	InputDir  string
	OutputDir string
	// ModelID is recorded in the manifest, e.g. "Qwen/Qwen2.5-3B".
	ModelID string
	// LayersPerChunk is the window size for layer chunks and doubles as the
	// manifest's minimum runnable depth. Must be > 0.
	LayersPerChunk uint32

	// Progress, if set, is called once after classification with
	// (0, total chunks) and again after each chunk is written.
	Progress func(completed, total int)
}

// Summary is returned to the CLI after a successful run.
type Summary struct {
	Manifest     *manifest.Manifest
	ManifestPath string
	// ReportPath is the performance report location, empty when reporting is
	// disabled or failed (report failures never fail the run).
	ReportPath string
	Metrics    *Metrics
}

// Run splits the checkpoint in opts.InputDir into chunk files plus a manifest
// in opts.OutputDir. Every error is fatal to the run; chunk files written
// before the error remain on disk, and the output directory should be treated
// as provisional until the manifest exists and validates.
func Run(opts Options) (*Summary, error) {
	// The window size is the only flag-derived manifest invariant; reject it
	// before anything touches the disk.
	if opts.LayersPerChunk == 0 {
		return nil, fmt.Errorf("layers per chunk: %w", manifest.ErrZeroDepth)
	}

	totalStart := time.Now()
	metrics := &Metrics{RunID: uuid.New().String()}

	// Discover.
	scanStart := time.Now()
	files, err := openSourceFiles(opts.InputDir)
	if err != nil {
		return nil, err
	}
	defer func() {
		for _, f := range files {
			f.Close()
		}
	}()
	metrics.FilesCount = len(files)

	// The output directory is only created once discovery has succeeded, so
	// a bad input directory leaves nothing behind.
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory %s: %w", opts.OutputDir, err)
	}
	metrics.Scan = time.Since(scanStart)

	// Classify.
	classifyStart := time.Now()
	rules, err := resolveRules(opts.InputDir)
	if err != nil {
		return nil, err
	}
	slog.Debug("resolved naming rules", "model_type", rules.ModelType, "pattern", rules.LayerRE.String())

	base, layers, maxLayer, err := classifyFiles(files, rules)
	if err != nil {
		return nil, err
	}
	metrics.BaseTensors = len(base)
	for _, locs := range layers {
		metrics.LayerTensors += len(locs)
	}
	metrics.TensorsTotal = metrics.BaseTensors + metrics.LayerTensors
	metrics.Classify = time.Since(classifyStart)

	totalLayers := maxLayer + 1
	slog.Info("classified tensors",
		"files", len(files),
		"base", metrics.BaseTensors,
		"layer", metrics.LayerTensors,
		"layers", totalLayers)

	windows := layerWindows(totalLayers, opts.LayersPerChunk, layers)
	totalChunks := 1 + len(windows)
	if opts.Progress != nil {
		opts.Progress(0, totalChunks)
	}

	var chunks []manifest.Chunk
	writeOne := func(id string, layerStart, layerEnd uint32, locs []location) error {
		chunkStart := time.Now()
		filename := id + chunkExt

		tensors, bytesRead, lt, err := loadTensors(files, locs)
		if err != nil {
			return fmt.Errorf("chunk %s: %w", id, err)
		}

		size, digest, wt, err := writeChunk(tensors, filepath.Join(opts.OutputDir, filename))
		if err != nil {
			return fmt.Errorf("chunk %s: %w", id, err)
		}

		chunks = append(chunks, manifest.Chunk{
			ID:         id,
			Filename:   filename,
			LayerStart: layerStart,
			LayerEnd:   layerEnd,
			Bytes:      uint64(size),
			Digest:     digest,
		})

		metrics.addChunk(ChunkPerf{
			ID:              id,
			LayerStart:      layerStart,
			LayerEnd:        layerEnd,
			TensorCount:     len(tensors),
			BytesRead:       bytesRead,
			BytesWritten:    size,
			LoadDeserialize: lt.deserialize,
			LoadCopy:        lt.copy,
			LoadTotal:       lt.total,
			Serialize:       wt.serialize,
			Hash:            wt.hash,
			Write:           wt.write,
			WriteParallel:   wt.parallel,
			WriteTotal:      wt.total,
			ChunkTotal:      time.Since(chunkStart),
		})

		slog.Info("wrote chunk", "id", id, "tensors", len(tensors), "bytes", size, "digest", digest[:12])
		if opts.Progress != nil {
			opts.Progress(len(chunks), totalChunks)
		}
		return nil
	}

	// The base chunk is always written, even when empty, so every split model
	// has the same file layout.
	if err := writeOne("base", 0, 0, base); err != nil {
		return nil, err
	}

	for _, w := range windows {
		var locs []location
		for layer := w.start; layer <= w.end; layer++ {
			locs = append(locs, layers[layer]...)
		}
		if err := writeOne(fmt.Sprintf("layers_%d-%d", w.start, w.end), w.start, w.end, locs); err != nil {
			return nil, err
		}
	}

	metrics.ChunkCount = len(chunks)

	m := &manifest.Manifest{
		ModelID:          opts.ModelID,
		Version:          manifestVersion,
		Dtype:            manifestDtype,
		MinRunnableDepth: opts.LayersPerChunk,
		Chunks:           chunks,
	}

	manifestPath := filepath.Join(opts.OutputDir, manifest.Filename)
	if err := m.Save(manifestPath); err != nil {
		return nil, fmt.Errorf("writing manifest: %w", err)
	}

	metrics.Total = time.Since(totalStart)

	summary := &Summary{Manifest: m, ManifestPath: manifestPath, Metrics: metrics}
	if !envconfig.NoReport {
		dir := envconfig.AnalysisDir
		if dir == "" {
			dir = filepath.Join(opts.OutputDir, "analysis")
		}
		if path, err := metrics.WriteReport(dir); err != nil {
			slog.Warn("could not write performance report", "error", err)
		} else {
			summary.ReportPath = path
		}
	}

	return summary, nil
}

// openSourceFiles maps every *.safetensors file directly inside dir, in
// lexicographic path order.
func openSourceFiles(dir string) ([]*safetensors.File, error) {
	fi, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("input directory %s: %w", dir, err)
	} else if !fi.IsDir() {
		return nil, fmt.Errorf("input path %s is not a directory", dir)
	}

	// os.ReadDir sorts by filename, which keeps file indices stable across
	// runs and hosts.
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading input directory %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), chunkExt) {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("no %s files found in %s", chunkExt, dir)
	}

	files := make([]*safetensors.File, 0, len(paths))
	for _, path := range paths {
		f, err := safetensors.Open(path)
		if err != nil {
			for _, open := range files {
				open.Close()
			}
			return nil, err
		}
		slog.Debug("mapped source file", "path", path, "bytes", len(f.Data()))
		files = append(files, f)
	}

	return files, nil
}

// classifyFiles scans every source header and partitions tensor locations
// into the base set and a per-layer map, tracking the highest layer seen.
func classifyFiles(files []*safetensors.File, rules Rules) ([]location, map[uint32][]location, uint32, error) {
	var base []location
	layers := make(map[uint32][]location)
	var maxLayer uint32

	for i, f := range files {
		header, err := f.ParseHeader()
		if err != nil {
			return nil, nil, 0, err
		}

		for _, name := range header.Names() {
			c, err := classify(name, rules.LayerRE)
			if err != nil {
				return nil, nil, 0, err
			}

			loc := location{file: i, name: name}
			if c.isLayer {
				layers[c.layer] = append(layers[c.layer], loc)
				if c.layer > maxLayer {
					maxLayer = c.layer
				}
			} else {
				base = append(base, loc)
			}
		}
	}

	return base, layers, maxLayer, nil
}

type window struct {
	start, end uint32
}

// layerWindows partitions [0, totalLayers) into consecutive windows of size
// k, clamping the final window and dropping windows that contain no tensors
// (models with sparse layer indices produce no file for those ranges).
func layerWindows(totalLayers, k uint32, layers map[uint32][]location) []window {
	var windows []window
	for start := uint32(0); start < totalLayers; start += k {
		end := min(start+k, totalLayers) - 1

		empty := true
		for layer := start; layer <= end; layer++ {
			if len(layers[layer]) > 0 {
				empty = false
				break
			}
		}
		if !empty {
			windows = append(windows, window{start: start, end: end})
		}
	}
	return windows
}
