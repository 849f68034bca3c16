package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	f, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Standalone, f.Mode)
	assert.Equal(t, "mandelbrot", f.Kind)
	assert.Equal(t, "std", f.Precision)
	assert.Equal(t, uint(800), f.Width)
}

func TestParse_ModeFlag(t *testing.T) {
	f, err := Parse([]string{"--mode=worker", "--master=10.0.0.5:7939"})
	require.NoError(t, err)
	assert.Equal(t, Worker, f.Mode)
	assert.Equal(t, "10.0.0.5:7939", f.MasterAddr)
}

func TestParse_UnknownMode(t *testing.T) {
	_, err := Parse([]string{"--mode=bogus"})
	assert.Error(t, err)
}

func TestRoster_FillsUnsetFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roster.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
kind: julia
min: -2-1.25i
max: 0.75+1.25i
c: -0.7269+0.1889i
iterations: 2000
width: 1024
height: 768
scheme: fire
workers:
  - 10.0.0.2:7939
  - 10.0.0.3:7939
`), 0o644))

	f, err := Parse([]string{"--roster=" + path})
	require.NoError(t, err)
	assert.Equal(t, "julia", f.Kind)
	assert.Equal(t, "-0.7269+0.1889i", f.C)
	assert.Equal(t, uint64(2000), f.NMax)
	assert.Equal(t, uint(1024), f.Width)
	assert.Equal(t, "fire", f.Scheme)
	assert.Equal(t, []string{"10.0.0.2:7939", "10.0.0.3:7939"}, f.Workers)
}
