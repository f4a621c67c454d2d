package batch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStats(t *testing.T) {
	samples := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		300 * time.Millisecond,
	}
	stats := computeStats(samples)
	assert.Equal(t, 300*time.Millisecond, stats.Max)
	assert.Equal(t, 100*time.Millisecond, stats.Min)
	assert.Equal(t, 200*time.Millisecond, stats.Mean)
	assert.InDelta(t, float64(81649658), float64(stats.StdDev), 1000)
}

func TestComputeStats_Empty(t *testing.T) {
	assert.Equal(t, Stats{}, computeStats(nil))
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Bedep", titleCase("bedep"))
	assert.Equal(t, "Confickerab", titleCase("confickerAB"))
}

func TestWriteResultFile(t *testing.T) {
	dir := t.TempDir()
	err := writeResultFile(dir, "Bedep", "2015-08-03", map[string]bool{
		"10.0.0.2": true,
		"10.0.0.1": true,
	})
	require.NoError(t, err)

	body, err := os.ReadFile(filepath.Join(dir, "Bedep-2015-08-03.txt"))
	require.NoError(t, err)
	assert.Equal(t, "-------- Aggregated: n = 2 --------\n10.0.0.1\n10.0.0.2\n", string(body))
}
