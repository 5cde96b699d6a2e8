// Package safetensors reads and writes the safetensors container format:
// an 8 byte little-endian header length, a JSON header describing each
// tensor's dtype, shape, and payload offsets, then the raw payloads.
//
// The package only moves bytes. It never inspects tensor values and does no
// dtype conversion.
package safetensors

import (
	"cmp"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"slices"

	"golang.org/x/exp/maps"
)

// maxHeaderSize guards against parsing a corrupt length prefix as a
// multi-gigabyte header allocation.
const maxHeaderSize = 100 * 1024 * 1024

type tensorMetadata struct {
	Dtype   string   `json:"dtype"`
	Shape   []uint64 `json:"shape"`
	Offsets [2]int64 `json:"data_offsets"`
}

// TensorInfo describes one tensor in a parsed header. Offsets are absolute
// positions within the file the header was parsed from.
type TensorInfo struct {
	Name  string
	Dtype string
	Shape []uint64

	offset int64
	size   int64
}

// Size returns the tensor's payload size in bytes.
func (t TensorInfo) Size() int64 { return t.size }

// Header is the parsed index of one safetensors file.
type Header struct {
	byName map[string]TensorInfo
}

// ParseHeader parses the header of a complete safetensors file image and
// validates that every tensor's payload lies within it. The payload bytes
// themselves are not touched.
func ParseHeader(data []byte) (*Header, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("file too small for safetensors header: %d bytes", len(data))
	}

	n := int64(binary.LittleEndian.Uint64(data[:8]))
	if n < 0 || n > maxHeaderSize {
		return nil, fmt.Errorf("invalid safetensors header size: %d", n)
	}

	dataStart := 8 + n
	if dataStart > int64(len(data)) {
		return nil, fmt.Errorf("safetensors header extends beyond file: %d > %d", dataStart, len(data))
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data[8:dataStart], &raw); err != nil {
		return nil, fmt.Errorf("parsing safetensors header: %w", err)
	}

	h := &Header{byName: make(map[string]TensorInfo, len(raw))}
	for name, msg := range raw {
		if name == "__metadata__" {
			continue
		}

		var md tensorMetadata
		if err := json.Unmarshal(msg, &md); err != nil {
			return nil, fmt.Errorf("parsing header entry %q: %w", name, err)
		}

		begin, end := dataStart+md.Offsets[0], dataStart+md.Offsets[1]
		if err := checkBeginEnd(int64(len(data)), begin, end); err != nil {
			return nil, fmt.Errorf("tensor %q: %w", name, err)
		}

		h.byName[name] = TensorInfo{
			Name:   name,
			Dtype:  md.Dtype,
			Shape:  md.Shape,
			offset: begin,
			size:   end - begin,
		}
	}

	return h, nil
}

func checkBeginEnd(size, begin, end int64) error {
	if begin < 0 {
		return fmt.Errorf("begin must not be negative: %d", begin)
	}
	if end < begin {
		return fmt.Errorf("end must be >= begin: %d < %d", end, begin)
	}
	if end > size {
		return fmt.Errorf("end must be <= size: %d > %d", end, size)
	}
	return nil
}

// Names returns all tensor names in the header, sorted.
func (h *Header) Names() []string {
	names := maps.Keys(h.byName)
	slices.Sort(names)
	return names
}

// Tensor looks up a tensor by name.
func (h *Header) Tensor(name string) (TensorInfo, bool) {
	t, ok := h.byName[name]
	return t, ok
}

// Bytes returns the payload slice for t within the file image the header was
// parsed from. The slice aliases data; callers that outlive the mapping must
// copy it.
func (t TensorInfo) Bytes(data []byte) []byte {
	return data[t.offset : t.offset+t.size]
}

// ElementSize returns the byte width of one element of the given dtype.
func ElementSize(dtype string) (int64, error) {
	switch dtype {
	case "F64", "I64":
		return 8, nil
	case "F32", "I32":
		return 4, nil
	case "F16", "BF16", "I16":
		return 2, nil
	case "I8", "U8", "BOOL":
		return 1, nil
	default:
		return 0, fmt.Errorf("unsupported dtype: %s", dtype)
	}
}

// Tensor is a fully materialized tensor whose payload is owned by this
// process, independent of any source file mapping.
type Tensor struct {
	Name  string
	Dtype string
	Shape []uint64
	Data  []byte
}

func (t Tensor) elements() uint64 {
	n := uint64(1)
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// Serialize encodes tensors into a single safetensors file image. Tensors are
// written in name order, so the same set of tensors always produces identical
// bytes.
func Serialize(tensors []Tensor) ([]byte, error) {
	sorted := slices.Clone(tensors)
	slices.SortFunc(sorted, func(a, b Tensor) int {
		return cmp.Compare(a.Name, b.Name)
	})

	header := make(map[string]tensorMetadata, len(sorted))
	var offset int64
	for _, t := range sorted {
		if _, ok := header[t.Name]; ok {
			return nil, fmt.Errorf("duplicate tensor name %q", t.Name)
		}

		esz, err := ElementSize(t.Dtype)
		if err != nil {
			return nil, fmt.Errorf("tensor %q: %w", t.Name, err)
		}

		if want := int64(t.elements()) * esz; want != int64(len(t.Data)) {
			return nil, fmt.Errorf("tensor %q: %d bytes does not match shape %v of dtype %s (want %d)",
				t.Name, len(t.Data), t.Shape, t.Dtype, want)
		}

		shape := t.Shape
		if shape == nil {
			shape = []uint64{}
		}

		header[t.Name] = tensorMetadata{
			Dtype:   t.Dtype,
			Shape:   shape,
			Offsets: [2]int64{offset, offset + int64(len(t.Data))},
		}
		offset += int64(len(t.Data))
	}

	// encoding/json writes map keys in sorted order, keeping the header
	// byte-for-byte deterministic.
	headerJSON, err := json.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("encoding safetensors header: %w", err)
	}

	out := make([]byte, 0, 8+len(headerJSON)+int(offset))
	out = binary.LittleEndian.AppendUint64(out, uint64(len(headerJSON)))
	out = append(out, headerJSON...)
	for _, t := range sorted {
		out = append(out, t.Data...)
	}

	return out, nil
}
