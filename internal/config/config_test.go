package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsFromExplicitMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.2, c.TestSize)
	assert.Equal(t, int64(42), c.RandomSeed)
	assert.Equal(t, 100, c.ForestTrees)
	assert.Equal(t, "none", c.MissingStrategy)
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	c := Default()
	c.ForestTrees = 25
	c.HistBins = 7
	require.NoError(t, Save(c, path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 25, got.ForestTrees)
	assert.Equal(t, 7, got.HistBins)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("hist_bins: 9\n"), 0o644))
	t.Setenv("TABLOOM_HIST_BINS", "13")

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 13, got.HistBins)
}

func TestValidateRejectsBadTestSize(t *testing.T) {
	c := Default()
	c.TestSize = 1.5
	assert.Error(t, c.Validate())
	c.TestSize = 0
	assert.Error(t, c.Validate())
}
