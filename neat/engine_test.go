package neat

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngineRejectsNonPositiveSizes(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	_, err := NewEngine(0, 1, 10, 1.5, 1, 0.4, 0.6, 0.03, 0.3, 0.8, rng)
	require.ErrorIs(t, err, ErrInvalidConstruction)

	_, err = NewEngine(1, 0, 10, 1.5, 1, 0.4, 0.6, 0.03, 0.3, 0.8, rng)
	require.ErrorIs(t, err, ErrInvalidConstruction)

	_, err = NewEngine(1, 1, 0, 1.5, 1, 0.4, 0.6, 0.03, 0.3, 0.8, rng)
	require.ErrorIs(t, err, ErrInvalidConstruction)
}

func TestNewEngineSeedsRequestedPopulationSize(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	engine, err := NewEngine(3, 2, 40, 1.5, 1, 0.4, 0.6, 0.03, 0.3, 0.8, rng)
	require.NoError(t, err)

	total := 0
	for _, s := range engine.species {
		total += len(s.Organisms)
	}
	assert.Equal(t, 40, total)
}

func TestGetAddNodeNumberIsConsistentAcrossGenomes(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	engine, err := NewEngine(3, 1, 5, 1.5, 1, 0.4, 0.6, 0.03, 0.3, 0.8, rng)
	require.NoError(t, err)

	edge := EdgeKey{From: 0, To: 3}
	id1 := engine.GetAddNodeNumber(edge, false)
	id2 := engine.GetAddNodeNumber(edge, false)
	assert.Equal(t, id1, id2, "splitting the same edge twice must yield the same new node id")

	recurrentID := engine.GetAddNodeNumber(edge, true)
	assert.NotEqual(t, id1, recurrentID, "forward and recurrent splits of the same edge key must mint distinct ids")
}

func TestGenerateNetworksThenUpdateGenerationInvalidatesHandles(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	engine, err := NewEngine(2, 1, 20, 1.5, 1, 0.4, 0.6, 0.03, 0.3, 0.8, rng)
	require.NoError(t, err)

	handles := engine.GenerateNetworks()
	require.NotEmpty(t, handles)
	for _, h := range handles {
		require.True(t, h.Fitness.SetFitness(1.0))
	}

	ok := engine.UpdateGeneration()
	require.True(t, ok)

	for _, h := range handles {
		assert.False(t, h.Fitness.SetFitness(1.0), "handles from before UpdateGeneration must be invalid afterward")
	}
}

func TestUpdateGenerationFailsWithoutEveryFitnessSet(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	engine, err := NewEngine(2, 1, 20, 1.5, 1, 0.4, 0.6, 0.03, 0.3, 0.8, rng)
	require.NoError(t, err)

	handles := engine.GenerateNetworks()
	require.NotEmpty(t, handles)
	// leave the last handle's fitness unset
	for _, h := range handles[:len(handles)-1] {
		h.Fitness.SetFitness(1.0)
	}

	assert.False(t, engine.UpdateGeneration())
}

func TestUpdateGenerationPreservesApproximatePopulationSize(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	popSize := 60
	engine, err := NewEngine(2, 1, popSize, 1.5, 1, 0.4, 0.6, 0.03, 0.3, 0.8, rng)
	require.NoError(t, err)

	for gen := 0; gen < 5; gen++ {
		handles := engine.GenerateNetworks()
		for _, h := range handles {
			h.Fitness.SetFitness(rng.Float64())
		}
		require.True(t, engine.UpdateGeneration())

		total := 0
		for _, s := range engine.species {
			total += len(s.Organisms)
		}
		assert.InDelta(t, popSize, total, 1, "population size must stay within ±1 of pop_size after generation %d", gen)
	}
}

func TestSetFitnessRejectsNegativeValues(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	engine, err := NewEngine(2, 1, 5, 1.5, 1, 0.4, 0.6, 0.03, 0.3, 0.8, rng)
	require.NoError(t, err)

	handles := engine.GenerateNetworks()
	require.NotEmpty(t, handles)

	assert.True(t, handles[0].Fitness.SetFitness(0.0))
	assert.False(t, handles[1%len(handles)].Fitness.SetFitness(-1.0))
}
