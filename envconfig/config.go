package envconfig

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

var (
	// Set via SHARDER_DEBUG in the environment
	Debug bool
	// Set via SHARDER_ANALYSIS in the environment; overrides where the
	// performance report is written (default: <output>/analysis)
	AnalysisDir string
	// Set via SHARDER_NOREPORT in the environment; disables the report
	NoReport bool
)

type EnvVar struct {
	Name        string
	Value       any
	Description string
}

func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"SHARDER_DEBUG":    {"SHARDER_DEBUG", Debug, "Show additional debug information (e.g. SHARDER_DEBUG=1)"},
		"SHARDER_ANALYSIS": {"SHARDER_ANALYSIS", AnalysisDir, "Directory for performance reports (default <output>/analysis)"},
		"SHARDER_NOREPORT": {"SHARDER_NOREPORT", NoReport, "Do not write a performance report"},
	}
}

func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}

// Clean quotes and spaces from the value
func clean(key string) string {
	return strings.Trim(os.Getenv(key), "\"' ")
}

func init() {
	LoadConfig()
}

func LoadConfig() {
	if debug := clean("SHARDER_DEBUG"); debug != "" {
		if d, err := strconv.ParseBool(debug); err == nil {
			Debug = d
		} else {
			Debug = true
		}
	}

	AnalysisDir = clean("SHARDER_ANALYSIS")

	if noreport := clean("SHARDER_NOREPORT"); noreport != "" {
		if n, err := strconv.ParseBool(noreport); err == nil {
			NoReport = n
		} else {
			NoReport = true
		}
	}
}
