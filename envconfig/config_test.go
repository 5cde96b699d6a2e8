package envconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig(t *testing.T) {
	Debug = false
	NoReport = false
	AnalysisDir = ""

	t.Setenv("SHARDER_DEBUG", "")
	t.Setenv("SHARDER_NOREPORT", "")
	t.Setenv("SHARDER_ANALYSIS", "")
	LoadConfig()
	require.False(t, Debug)
	require.False(t, NoReport)
	require.Empty(t, AnalysisDir)

	t.Setenv("SHARDER_DEBUG", "false")
	LoadConfig()
	require.False(t, Debug)

	t.Setenv("SHARDER_DEBUG", "1")
	LoadConfig()
	require.True(t, Debug)

	Debug = false
	t.Setenv("SHARDER_DEBUG", "on")
	LoadConfig()
	require.True(t, Debug)

	t.Setenv("SHARDER_NOREPORT", "true")
	t.Setenv("SHARDER_ANALYSIS", `"/tmp/reports"`)
	LoadConfig()
	require.True(t, NoReport)
	require.Equal(t, "/tmp/reports", AnalysisDir)
}

func TestAsMap(t *testing.T) {
	m := AsMap()
	assert.Contains(t, m, "SHARDER_DEBUG")
	assert.Contains(t, m, "SHARDER_ANALYSIS")
	assert.Contains(t, m, "SHARDER_NOREPORT")

	vals := Values()
	assert.Len(t, vals, len(m))
}
