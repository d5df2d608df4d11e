package neat

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyGenomeCompilesAndRunsToZero(t *testing.T) {
	g := NewGenome(2, 1) // 1 real input + bias, 1 output
	net, err := g.GenerateNetwork()
	require.NoError(t, err)

	out := make([]float64, 1)
	ok := net.Run([]float64{0.5}, out)
	require.True(t, ok)
	assert.Equal(t, 0.0, out[0])
}

func TestBiasOnlyEdgeProducesTanhOfWeight(t *testing.T) {
	g := NewGenome(2, 1)
	biasNode := g.NumInputs - 1
	outputNode := g.NumInputs
	g.ForwardEnabled[EdgeKey{From: biasNode, To: outputNode}] = 0.37

	net, err := g.GenerateNetwork()
	require.NoError(t, err)

	out := make([]float64, 1)
	for _, x := range []float64{0.0, 0.5, 1.0, -3.0} {
		net.Run([]float64{x}, out)
		assert.InDelta(t, math.Tanh(0.37), out[0], 1e-12)
	}
}

func TestCompileNetworkRejectsOutputSourcedForwardEdge(t *testing.T) {
	g := NewGenome(2, 1)
	outputNode := g.NumInputs
	g.ForwardEnabled[EdgeKey{From: outputNode, To: 0}] = 1.0

	_, err := g.GenerateNetwork()
	require.Error(t, err)
}

func TestRunInfoIndexOrderIsTopological(t *testing.T) {
	// input(0) -> hidden(3) -> output(2); input(1) is bias
	g := NewGenome(2, 1)
	g.ForwardEnabled[EdgeKey{From: 0, To: 3}] = 1.0
	g.ForwardEnabled[EdgeKey{From: 3, To: 2}] = 1.0

	net, err := g.GenerateNetwork()
	require.NoError(t, err)

	indexOf := make(map[int]int)
	for i, vi := range net.VisualInfo {
		indexOf[vi.Label] = i
	}
	assert.Less(t, indexOf[0], indexOf[3])
	assert.Less(t, indexOf[3], indexOf[2])
}

func TestCheckRecurrentClassification(t *testing.T) {
	// path: 0(input) -> 3(hidden) -> 2(output)
	g := NewGenome(2, 1)
	g.ForwardEnabled[EdgeKey{From: 0, To: 3}] = 1.0
	g.ForwardEnabled[EdgeKey{From: 3, To: 2}] = 1.0

	net, err := g.GenerateNetwork()
	require.NoError(t, err)

	assert.True(t, net.CheckRecurrent(2, 3), "an edge from the output back to its predecessor must be recurrent")
	assert.False(t, net.CheckRecurrent(0, 3), "0->3 already exists as a forward edge; re-adding it wouldn't close a cycle")
	assert.False(t, net.CheckRecurrent(0, 2), "0 can already reach 2 forward, so an edge 0->2 doesn't close a cycle")
}

func TestAddNodeMutationPreservesOutputsApproximately(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	registry := newCountingRegistry(3)

	g := NewGenome(2, 1)
	g.ForwardEnabled[EdgeKey{From: 0, To: 2}] = 0.6
	g.ForwardEnabled[EdgeKey{From: 1, To: 2}] = -0.2 // bias edge

	before, err := g.GenerateNetwork()
	require.NoError(t, err)
	beforeOut := make([]float64, 1)
	before.Run([]float64{0.5}, beforeOut)

	ok := g.AddNodeMutation(rng, registry)
	require.True(t, ok)

	after, err := g.GenerateNetwork()
	require.NoError(t, err)
	afterOut := make([]float64, 1)
	after.Run([]float64{0.5}, afterOut)

	// Splitting an edge re-routes it through tanh(tanh(x)) at unit weight
	// instead of x directly, so outputs move but should stay close for
	// modest input magnitudes.
	assert.InDelta(t, beforeOut[0], afterOut[0], 0.3)
}

func TestFindNewPossibleConnectionAvoidsExistingEdges(t *testing.T) {
	g := NewGenome(2, 1)
	g.ForwardEnabled[EdgeKey{From: 0, To: 2}] = 1.0
	g.ForwardEnabled[EdgeKey{From: 1, To: 2}] = 1.0
	g.RecurrentEnabled[EdgeKey{From: 2, To: 2}] = 1.0 // saturate the only remaining pair: the output's self-loop

	net, err := g.GenerateNetwork()
	require.NoError(t, err)

	// with 2 inputs (incl. bias) and 1 output, every (in, out) pair with
	// out restricted to the output node is now taken, so no new
	// connection should be found within max_tries.
	_, _, _, ok := net.FindNewPossibleConnection(rand.New(rand.NewSource(1)), 50)
	assert.False(t, ok)
}
