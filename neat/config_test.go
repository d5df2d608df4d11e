package neat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestConfig(t *testing.T, body string) string {
	path := filepath.Join(t.TempDir(), "config.ini")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadEngineConfigParsesSection(t *testing.T) {
	path := writeTestConfig(t, `
[NEAT]
input_size = 2
output_size = 1
pop_size = 300
compatibility_thresh = 1.5
c1_c2 = 1.0
c3 = 0.4
top_p_cutoff = 0.6
add_node_mutation_prob = 0.03
add_edge_mutation_prob = 0.30
weight_mutation_prob = 0.80
rand_seed = 7
`)

	cfg, err := LoadEngineConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.InputSize)
	assert.Equal(t, 300, cfg.PopSize)
	assert.Equal(t, int64(7), cfg.RandSeed)
}

func TestLoadEngineConfigRejectsInvalidValues(t *testing.T) {
	path := writeTestConfig(t, `
[NEAT]
input_size = 0
output_size = 1
pop_size = 300
`)

	_, err := LoadEngineConfig(path)
	require.ErrorIs(t, err, ErrInvalidConstruction)
}

func TestNewEngineFromConfigConstructsEngine(t *testing.T) {
	cfg := defaultEngineConfig()
	cfg.InputSize = 2
	cfg.OutputSize = 1
	cfg.PopSize = 10

	engine, err := NewEngineFromConfig(&cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, engine.InputSize)
}
