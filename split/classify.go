package split

import (
	"fmt"
	"regexp"
	"strconv"
)

// location identifies one tensor inside one source file. It carries no tensor
// data; the loader resolves it against the file's header when the owning
// chunk is written.
type location struct {
	file int
	name string
}

// class is the result of classifying a tensor name. Base tensors (embeddings,
// final norm, output head, and anything unrecognized) have isLayer false.
type class struct {
	layer   uint32
	isLayer bool
}

// classify maps a tensor name to its class under layerRE. The pattern must
// capture the layer index as its first group. Names that don't match are base
// tensors; an unrecognized name is not an error.
func classify(name string, layerRE *regexp.Regexp) (class, error) {
	m := layerRE.FindStringSubmatch(name)
	if m == nil {
		return class{}, nil
	}

	// The capture group only matches digits, so a parse failure means the
	// registered pattern is broken, not the model.
	n, err := strconv.ParseUint(m[1], 10, 32)
	if err != nil {
		return class{}, fmt.Errorf("layer pattern %q captured %q from %q: %w", layerRE, m[1], name, err)
	}

	return class{layer: uint32(n), isLayer: true}, nil
}
