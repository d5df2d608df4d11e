package neat

// EdgeKey identifies a directed edge between two nodes by their ids. It is
// also the innovation key used by the registry to recognize when two
// structural mutations (in possibly different genomes) are "the same"
// mutation.
type EdgeKey struct {
	From int
	To   int
}

// InnovationRegistry resolves the node id a structural mutation should
// produce, guaranteeing that the same edge split (forward or recurrent)
// anywhere in the population yields the same new node id. Engine satisfies
// this interface; Genome never mints node ids on its own.
type InnovationRegistry interface {
	GetAddNodeNumber(edge EdgeKey, isRecurrent bool) int
}

// Genome is the genotype: a fixed sensor/output layout plus four disjoint
// maps of weighted edges. ForwardEnabled and RecurrentEnabled edges
// participate in the compiled phenotype; the Disabled variants record
// edges that a node-add mutation has split out of the active graph, kept
// around so compatibility distance can still see them as matching.
type Genome struct {
	nodeLayout

	ForwardEnabled    map[EdgeKey]float64
	ForwardDisabled   map[EdgeKey]float64
	RecurrentEnabled  map[EdgeKey]float64
	RecurrentDisabled map[EdgeKey]float64
}

// NewGenome creates an empty genome with no edges. numInputs must already
// include the bias sensor; numOutputs is the raw output count.
func NewGenome(numInputs, numOutputs int) *Genome {
	return &Genome{
		nodeLayout:        nodeLayout{NumInputs: numInputs, NumOutputs: numOutputs},
		ForwardEnabled:    make(map[EdgeKey]float64),
		ForwardDisabled:   make(map[EdgeKey]float64),
		RecurrentEnabled:  make(map[EdgeKey]float64),
		RecurrentDisabled: make(map[EdgeKey]float64),
	}
}

// Copy returns a deep copy of the genome, safe to mutate independently of
// the original.
func (g *Genome) Copy() *Genome {
	c := NewGenome(g.NumInputs, g.NumOutputs)
	for k, v := range g.ForwardEnabled {
		c.ForwardEnabled[k] = v
	}
	for k, v := range g.ForwardDisabled {
		c.ForwardDisabled[k] = v
	}
	for k, v := range g.RecurrentEnabled {
		c.RecurrentEnabled[k] = v
	}
	for k, v := range g.RecurrentDisabled {
		c.RecurrentDisabled[k] = v
	}
	return c
}

// AddInputOutputEdge adds a single random input-to-output edge. Intended
// for seeding an otherwise-empty genome.
func (g *Genome) AddInputOutputEdge(rng RandSource, randomValStdDev float64) {
	in := RandInt(rng, g.NumInputs-1)
	out := RandIntRange(rng, g.NumInputs, g.NumInputs+g.NumOutputs-1)
	g.ForwardEnabled[EdgeKey{From: in, To: out}] = Gaussian(rng, randomValStdDev)
}

// MutateWeights perturbs every enabled edge's weight: with probability
// randomValProb the weight is replaced outright with a fresh Gaussian
// sample, otherwise it is nudged by a small Gaussian perturbation.
func (g *Genome) MutateWeights(rng RandSource, perturbStdDev, randomValStdDev, randomValProb float64) {
	for k := range g.ForwardEnabled {
		if RandUnit(rng) < randomValProb {
			g.ForwardEnabled[k] = Gaussian(rng, randomValStdDev)
		} else {
			g.ForwardEnabled[k] += Gaussian(rng, perturbStdDev)
		}
	}
	for k := range g.RecurrentEnabled {
		if RandUnit(rng) < randomValProb {
			g.RecurrentEnabled[k] = Gaussian(rng, randomValStdDev)
		} else {
			g.RecurrentEnabled[k] += Gaussian(rng, perturbStdDev)
		}
	}
}

// AddNodeMutation splits a random enabled edge (forward or recurrent, as
// long as its source isn't an output node) into two: the old edge moves to
// the matching Disabled map, a new forward edge from the old source to the
// new node is added with weight 1, and a new edge (forward if the split
// edge was forward, recurrent otherwise) from the new node to the old
// destination carries the old weight. The new node id is resolved through
// registry so identical splits across the population share an id. Returns
// false if there was no eligible edge to split.
func (g *Genome) AddNodeMutation(rng RandSource, registry InnovationRegistry) bool {
	type candidate struct {
		key       EdgeKey
		recurrent bool
	}

	var candidates []candidate
	for k := range g.ForwardEnabled {
		if g.IsOutputNode(k.From) {
			continue
		}
		candidates = append(candidates, candidate{key: k, recurrent: false})
	}
	numNormalEdges := len(candidates)
	for k := range g.RecurrentEnabled {
		if g.IsOutputNode(k.From) {
			continue
		}
		candidates = append(candidates, candidate{key: k, recurrent: true})
	}

	if len(candidates) < 1 {
		return false
	}

	randIndex := RandInt(rng, len(candidates)-1)
	isRecurrent := randIndex >= numNormalEdges
	chosen := candidates[randIndex].key
	newNode := registry.GetAddNodeNumber(chosen, isRecurrent)

	var oldWeight float64
	if isRecurrent {
		oldWeight = g.RecurrentEnabled[chosen]
		delete(g.RecurrentEnabled, chosen)
		g.RecurrentDisabled[chosen] = oldWeight
	} else {
		oldWeight = g.ForwardEnabled[chosen]
		delete(g.ForwardEnabled, chosen)
		g.ForwardDisabled[chosen] = oldWeight
	}

	g.ForwardEnabled[EdgeKey{From: chosen.From, To: newNode}] = 1
	if isRecurrent {
		g.RecurrentEnabled[EdgeKey{From: newNode, To: chosen.To}] = oldWeight
	} else {
		g.ForwardEnabled[EdgeKey{From: newNode, To: chosen.To}] = oldWeight
	}

	return true
}

// AddEdgeMutation searches the compiled network net for a new connection
// (one that isn't already an enabled edge) and adds it with a fresh random
// weight; a connection that was previously disabled is re-enabled this way.
// Returns false if no such connection could be found within maxTries
// attempts.
func (g *Genome) AddEdgeMutation(rng RandSource, net *Network, randomValStdDev float64, maxTries int) bool {
	in, out, isRecurrent, ok := net.FindNewPossibleConnection(rng, maxTries)
	if !ok {
		return false
	}

	key := EdgeKey{From: in, To: out}
	if isRecurrent {
		g.RecurrentEnabled[key] = Gaussian(rng, randomValStdDev)
		delete(g.RecurrentDisabled, key)
	} else {
		g.ForwardEnabled[key] = Gaussian(rng, randomValStdDev)
		delete(g.ForwardDisabled, key)
	}

	return true
}

// Crossover overlays genes from parent1 onto the receiver, in place: for
// each edge the receiver already has, if parent1 has a matching edge, a
// coin flip decides whether the receiver keeps its own weight or takes
// parent1's. Structure always comes from the receiver (the more-fit
// parent, by convention of the caller); only matching weights can cross
// over.
func (g *Genome) Crossover(rng RandSource, parent1 *Genome) {
	for k := range g.ForwardEnabled {
		if w, ok := parent1.ForwardEnabled[k]; ok {
			if RandInt(rng, 1) == 0 {
				g.ForwardEnabled[k] = w
			}
		}
	}
	for k := range g.RecurrentEnabled {
		if w, ok := parent1.RecurrentEnabled[k]; ok {
			if RandInt(rng, 1) == 0 {
				g.RecurrentEnabled[k] = w
			}
		}
	}
}

// GetCompatibilityDistInfo compares g against other, returning the count of
// non-matching edges (present, enabled or disabled, in exactly one of the
// two genomes), the combined genome size (matching + non-matching), and the
// mean absolute weight difference over matching edges. An edge "matches" if
// both genomes carry it in either their enabled or disabled map for the
// same direction (forward/recurrent).
func (g *Genome) GetCompatibilityDistInfo(other *Genome) (nonMatching, genomeSize int, avgWeightDiff float64) {
	matching := 0
	var weightDiffSum float64

	matchAgainst := func(w float64, otherEnabled, otherDisabled map[EdgeKey]float64, key EdgeKey) bool {
		if ow, ok := otherEnabled[key]; ok {
			matching++
			weightDiffSum += absFloat(w - ow)
			return true
		}
		if ow, ok := otherDisabled[key]; ok {
			matching++
			weightDiffSum += absFloat(w - ow)
			return true
		}
		return false
	}

	for k, w := range g.ForwardEnabled {
		matchAgainst(w, other.ForwardEnabled, other.ForwardDisabled, k)
	}
	for k, w := range g.ForwardDisabled {
		matchAgainst(w, other.ForwardEnabled, other.ForwardDisabled, k)
	}
	for k, w := range g.RecurrentEnabled {
		matchAgainst(w, other.RecurrentEnabled, other.RecurrentDisabled, k)
	}
	for k, w := range g.RecurrentDisabled {
		matchAgainst(w, other.RecurrentEnabled, other.RecurrentDisabled, k)
	}

	total := len(g.ForwardEnabled) + len(g.ForwardDisabled) + len(other.ForwardEnabled) + len(other.ForwardDisabled) +
		len(g.RecurrentEnabled) + len(g.RecurrentDisabled) + len(other.RecurrentEnabled) + len(other.RecurrentDisabled)

	nonMatching = total - 2*matching
	genomeSize = nonMatching + matching
	if matching == 0 {
		avgWeightDiff = 0
	} else {
		avgWeightDiff = weightDiffSum / float64(matching)
	}
	return nonMatching, genomeSize, avgWeightDiff
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
