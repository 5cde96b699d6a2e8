package split

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ChunkPerf holds the timing breakdown for one written chunk.
type ChunkPerf struct {
	ID          string
	LayerStart  uint32
	LayerEnd    uint32
	TensorCount int

	BytesRead    int64
	BytesWritten int64

	LoadDeserialize time.Duration
	LoadCopy        time.Duration
	LoadTotal       time.Duration

	Serialize     time.Duration
	Hash          time.Duration
	Write         time.Duration
	WriteParallel time.Duration
	WriteTotal    time.Duration

	ChunkTotal time.Duration
}

// Metrics accumulates per-run counters. It is observational only; nothing in
// the split pipeline reads it back.
type Metrics struct {
	RunID string

	FilesCount   int
	TensorsTotal int
	BaseTensors  int
	LayerTensors int
	ChunkCount   int

	BytesRead    int64
	BytesWritten int64

	Scan     time.Duration
	Classify time.Duration

	LoadDeserialize time.Duration
	LoadCopy        time.Duration
	Load            time.Duration

	Serialize     time.Duration
	Hash          time.Duration
	Write         time.Duration
	WriteParallel time.Duration
	WriteTotal    time.Duration

	Total time.Duration

	Chunks []ChunkPerf
}

func (m *Metrics) addChunk(c ChunkPerf) {
	m.Chunks = append(m.Chunks, c)
	m.BytesRead += c.BytesRead
	m.BytesWritten += c.BytesWritten
	m.LoadDeserialize += c.LoadDeserialize
	m.LoadCopy += c.LoadCopy
	m.Load += c.LoadTotal
	m.Serialize += c.Serialize
	m.Hash += c.Hash
	m.Write += c.Write
	m.WriteParallel += c.WriteParallel
	m.WriteTotal += c.WriteTotal
}

func (m *Metrics) chunkAvgBytes() float64 {
	if len(m.Chunks) == 0 {
		return 0
	}
	return float64(m.BytesWritten) / float64(len(m.Chunks))
}

// Format renders the line-oriented report consumed by the analysis tooling.
func (m *Metrics) Format() string {
	var b strings.Builder

	fmt.Fprintf(&b, "files_count: %d\n", m.FilesCount)
	fmt.Fprintf(&b, "tensors_total: %d\n", m.TensorsTotal)
	fmt.Fprintf(&b, "base_tensors: %d\n", m.BaseTensors)
	fmt.Fprintf(&b, "layer_tensors: %d\n", m.LayerTensors)
	fmt.Fprintf(&b, "chunk_count: %d\n", m.ChunkCount)
	fmt.Fprintf(&b, "chunk_avg_bytes: %.0f\n", m.chunkAvgBytes())
	fmt.Fprintf(&b, "bytes_read: %d\n", m.BytesRead)
	fmt.Fprintf(&b, "bytes_written: %d\n", m.BytesWritten)
	fmt.Fprintf(&b, "scan_ms: %d\n", m.Scan.Milliseconds())
	fmt.Fprintf(&b, "classify_ms: %d\n", m.Classify.Milliseconds())
	fmt.Fprintf(&b, "load_deserialize_ms: %d\n", m.LoadDeserialize.Milliseconds())
	fmt.Fprintf(&b, "load_copy_ms: %d\n", m.LoadCopy.Milliseconds())
	fmt.Fprintf(&b, "load_ms: %d\n", m.Load.Milliseconds())
	fmt.Fprintf(&b, "serialize_ms: %d\n", m.Serialize.Milliseconds())
	fmt.Fprintf(&b, "hash_ms: %d\n", m.Hash.Milliseconds())
	fmt.Fprintf(&b, "write_ms: %d\n", m.Write.Milliseconds())
	fmt.Fprintf(&b, "write_parallel_ms: %d\n", m.WriteParallel.Milliseconds())
	fmt.Fprintf(&b, "write_total_ms: %d\n", m.WriteTotal.Milliseconds())
	fmt.Fprintf(&b, "total_ms: %d\n", m.Total.Milliseconds())

	b.WriteString("chunk_perf_begin\n")
	for _, c := range m.Chunks {
		fmt.Fprintf(&b, "chunk_id: %s\n", c.ID)
		fmt.Fprintf(&b, "layer_start: %d\n", c.LayerStart)
		fmt.Fprintf(&b, "layer_end: %d\n", c.LayerEnd)
		fmt.Fprintf(&b, "tensor_count: %d\n", c.TensorCount)
		fmt.Fprintf(&b, "bytes_read: %d\n", c.BytesRead)
		fmt.Fprintf(&b, "bytes_written: %d\n", c.BytesWritten)
		fmt.Fprintf(&b, "load_deserialize_ms: %d\n", c.LoadDeserialize.Milliseconds())
		fmt.Fprintf(&b, "load_copy_ms: %d\n", c.LoadCopy.Milliseconds())
		fmt.Fprintf(&b, "load_total_ms: %d\n", c.LoadTotal.Milliseconds())
		fmt.Fprintf(&b, "serialize_ms: %d\n", c.Serialize.Milliseconds())
		fmt.Fprintf(&b, "hash_ms: %d\n", c.Hash.Milliseconds())
		fmt.Fprintf(&b, "write_ms: %d\n", c.Write.Milliseconds())
		fmt.Fprintf(&b, "write_parallel_ms: %d\n", c.WriteParallel.Milliseconds())
		fmt.Fprintf(&b, "write_total_ms: %d\n", c.WriteTotal.Milliseconds())
		fmt.Fprintf(&b, "chunk_total_ms: %d\n", c.ChunkTotal.Milliseconds())
		b.WriteString("---\n")
	}
	b.WriteString("chunk_perf_end")

	return b.String()
}

// WriteReport persists the formatted report under dir and returns the path.
func (m *Metrics) WriteReport(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating analysis directory %s: %w", dir, err)
	}

	runID := m.RunID
	if len(runID) > 8 {
		runID = runID[:8]
	}

	path := filepath.Join(dir, fmt.Sprintf("res-time-%d-%s.txt", time.Now().Unix(), runID))
	if err := os.WriteFile(path, []byte(m.Format()), 0o644); err != nil {
		return "", fmt.Errorf("writing report %s: %w", path, err)
	}

	return path, nil
}
