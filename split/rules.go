package split

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Rules selects the layer-naming pattern for a model family.
type Rules struct {
	// ModelType is the declared family from config.json, if any.
	ModelType string
	// LayerRE matches layer tensor names and captures the layer index.
	LayerRE *regexp.Regexp
}

var defaultLayerRE = regexp.MustCompile(`^model\.layers\.(\d+)\.`)

// families maps a case-insensitive model_type marker to that family's layer
// pattern. New families are added here; nothing else changes. Qwen currently
// shares the default Hugging Face pattern.
var families = []struct {
	marker  string
	layerRE *regexp.Regexp
}{
	{"qwen", defaultLayerRE},
}

// resolveRules picks naming rules by sniffing the optional config.json next
// to the source files. A missing config falls back to the default pattern; so
// does an unrecognized family. A config that exists but doesn't parse is an
// error.
func resolveRules(dir string) (Rules, error) {
	path := filepath.Join(dir, "config.json")

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Rules{LayerRE: defaultLayerRE}, nil
	} else if err != nil {
		return Rules{}, fmt.Errorf("reading %s: %w", path, err)
	}

	var config struct {
		ModelType string `json:"model_type"`
	}
	if err := json.Unmarshal(raw, &config); err != nil {
		return Rules{}, fmt.Errorf("parsing %s: %w", path, err)
	}

	rules := Rules{ModelType: config.ModelType, LayerRE: defaultLayerRE}
	for _, f := range families {
		if strings.Contains(strings.ToLower(config.ModelType), f.marker) {
			rules.LayerRE = f.layerRE
			break
		}
	}

	return rules, nil
}
