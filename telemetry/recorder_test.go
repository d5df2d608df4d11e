package telemetry

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allanchew/goneat/neat"
)

func TestRecorderWritesHeaderThenRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "telemetry.csv")
	rec, err := NewRecorder(path)
	require.NoError(t, err)

	require.NoError(t, rec.Record(GenerationStats{Generation: 0, BestFitness: 0.1, MeanFitness: 0.05, NumSpecies: 2}))
	require.NoError(t, rec.Record(GenerationStats{Generation: 1, BestFitness: 0.3, MeanFitness: 0.12, NumSpecies: 3}))
	require.NoError(t, rec.Close())

	rows, err := LoadGenerationStats(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(0), rows[0].Generation)
	assert.Equal(t, int64(1), rows[1].Generation)
	assert.Equal(t, 3, rows[1].NumSpecies)
}

func TestSnapshotConfigWritesReadableYAML(t *testing.T) {
	cfg := &neat.EngineConfig{
		InputSize: 2, OutputSize: 1, PopSize: 300,
		CompatibilityThresh: 1.5, C12: 1.0, C3: 0.4, TopPCutoff: 0.6,
		AddNodeMutationProb: 0.03, AddEdgeMutationProb: 0.3, WeightMutationProb: 0.8,
		RandSeed: 1,
	}
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, SnapshotConfig(cfg, path))
}
