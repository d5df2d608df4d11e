package neat

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingRegistry mints sequential node ids, mirroring Engine's
// GetAddNodeNumber but without the rest of the engine.
type countingRegistry struct {
	next int
	seen map[EdgeKey]int
}

func newCountingRegistry(start int) *countingRegistry {
	return &countingRegistry{next: start, seen: make(map[EdgeKey]int)}
}

func (r *countingRegistry) GetAddNodeNumber(edge EdgeKey, isRecurrent bool) int {
	key := edge
	if isRecurrent {
		key.From = -key.From - 1 // distinguish recurrent splits from forward ones
	}
	if id, ok := r.seen[key]; ok {
		return id
	}
	id := r.next
	r.next++
	r.seen[key] = id
	return id
}

func edgeMapsDisjoint(g *Genome) bool {
	seen := make(map[EdgeKey]bool)
	for _, m := range []map[EdgeKey]float64{g.ForwardEnabled, g.ForwardDisabled, g.RecurrentEnabled, g.RecurrentDisabled} {
		for k := range m {
			if seen[k] {
				return false
			}
			seen[k] = true
		}
	}
	return true
}

func TestGenomeEdgeMapsStayDisjointUnderMutation(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	registry := newCountingRegistry(5)
	g := NewGenome(4, 1) // 3 inputs + bias, 1 output

	for i := 0; i < 3; i++ {
		g.AddInputOutputEdge(rng, 2)
	}

	for i := 0; i < 50; i++ {
		g.AddNodeMutation(rng, registry)
		g.MutateWeights(rng, 0.1, 2, 0.1)
		require.True(t, edgeMapsDisjoint(g), "edge maps must stay pairwise disjoint after mutation %d", i)
	}
}

func TestAddNodeMutationSplitsEdgeExactly(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	registry := newCountingRegistry(3)

	g := NewGenome(2, 1) // 1 input + bias, 1 output
	g.ForwardEnabled[EdgeKey{From: 0, To: 2}] = 0.75

	ok := g.AddNodeMutation(rng, registry)
	require.True(t, ok)

	assert.Empty(t, g.ForwardEnabled[EdgeKey{From: 0, To: 2}])
	assert.Equal(t, 0.75, g.ForwardDisabled[EdgeKey{From: 0, To: 2}])

	newNode := 3
	assert.Equal(t, 1.0, g.ForwardEnabled[EdgeKey{From: 0, To: newNode}])
	assert.Equal(t, 0.75, g.ForwardEnabled[EdgeKey{From: newNode, To: 2}])
}

func TestAddNodeMutationNoEligibleEdge(t *testing.T) {
	registry := newCountingRegistry(2)
	g := NewGenome(2, 1)
	ok := g.AddNodeMutation(rand.New(rand.NewSource(1)), registry)
	assert.False(t, ok, "splitting an empty genome should fail")
}

func TestCompatibilityDistanceSymmetricAndZeroForIdentity(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	g1 := NewGenome(3, 1)
	g1.AddInputOutputEdge(rng, 2)
	g1.AddInputOutputEdge(rng, 2)

	g2 := g1.Copy()
	g2.AddInputOutputEdge(rng, 2)

	n1, s1, d1 := g1.GetCompatibilityDistInfo(g2)
	n2, s2, d2 := g2.GetCompatibilityDistInfo(g1)
	assert.Equal(t, n1, n2)
	assert.Equal(t, s1, s2)
	assert.InDelta(t, d1, d2, 1e-12)

	n0, _, d0 := g1.GetCompatibilityDistInfo(g1.Copy())
	assert.Equal(t, 0, n0)
	assert.Equal(t, 0.0, d0)
}

func TestCrossoverOnlyTouchesMatchingEdges(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	child := NewGenome(2, 1)
	child.ForwardEnabled[EdgeKey{From: 0, To: 1}] = 1.0

	parent1 := NewGenome(2, 1)
	parent1.ForwardEnabled[EdgeKey{From: 0, To: 1}] = -1.0
	parent1.ForwardEnabled[EdgeKey{From: 0, To: 5}] = 9.0 // no matching edge in child

	child.Crossover(rng, parent1)

	assert.Contains(t, []float64{1.0, -1.0}, child.ForwardEnabled[EdgeKey{From: 0, To: 1}])
	_, hasUnrelatedEdge := child.ForwardEnabled[EdgeKey{From: 0, To: 5}]
	assert.False(t, hasUnrelatedEdge, "crossover must not introduce structure not already present in the receiver")
}
