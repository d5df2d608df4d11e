package neat

import (
	"fmt"
	"os"
	"sync/atomic"
)

// Engine owns the whole evolving population: it mints innovation numbers,
// holds the species, and runs the generational reproduction loop. Engine
// is not safe for concurrent mutation by multiple goroutines, but
// FitnessHandle.SetFitness (the one thing callers typically do concurrently
// between GenerateNetworks and UpdateGeneration) is.
type Engine struct {
	InputSize  int
	OutputSize int
	PopSize    int

	CompatibilityThresh float64
	C12                 float64
	C3                  float64
	TopPCutoff          float64
	AddNodeMutationProb float64
	AddEdgeMutationProb float64
	WeightMutationProb  float64

	rng RandSource

	nodeCounter          int
	forwardInnovations   map[EdgeKey]int
	recurrentInnovations map[EdgeKey]int

	speciesCounter int
	species        []*Species

	generationID int64
	epoch        int64
}

// NetworkHandle is one element of Engine.GenerateNetworks' result: the
// compiled phenotype of a live organism, a handle the host uses to report
// its fitness, and the id of the species it currently belongs to.
type NetworkHandle struct {
	Network   *Network
	Fitness   *FitnessHandle
	SpeciesID int
}

// NewEngine constructs a fresh population of popSize genomes (an
// all-zero-edges genome plus popSize-1 genomes seeded with one random
// input-output edge), already speciated, ready for GenerateNetworks.
// inputSize and outputSize must be positive; inputSize does not include
// the bias sensor (the Engine adds it). rng supplies every random draw the
// engine or its genomes will ever make; the caller owns its lifetime.
// Genome operations iterate Go maps, whose order varies between runs, so
// the same seed does not by itself reproduce a run.
func NewEngine(inputSize, outputSize, popSize int, compatibilityThresh, c12, c3, topPCutoff, addNodeMutationProb, addEdgeMutationProb, weightMutationProb float64, rng RandSource) (*Engine, error) {
	if inputSize <= 0 {
		return nil, fmt.Errorf("%w: input size must be positive, got %d", ErrInvalidConstruction, inputSize)
	}
	if outputSize <= 0 {
		return nil, fmt.Errorf("%w: output size must be positive, got %d", ErrInvalidConstruction, outputSize)
	}
	if popSize <= 0 {
		return nil, fmt.Errorf("%w: population size must be positive, got %d", ErrInvalidConstruction, popSize)
	}

	numInputs := inputSize + 1 // + 1 for bias
	numOutputs := outputSize

	e := &Engine{
		InputSize:            inputSize,
		OutputSize:           outputSize,
		PopSize:              popSize,
		CompatibilityThresh:  compatibilityThresh,
		C12:                  c12,
		C3:                   c3,
		TopPCutoff:           topPCutoff,
		AddNodeMutationProb:  addNodeMutationProb,
		AddEdgeMutationProb:  addEdgeMutationProb,
		WeightMutationProb:   weightMutationProb,
		rng:                  rng,
		nodeCounter:          numInputs + numOutputs,
		forwardInnovations:   make(map[EdgeKey]int),
		recurrentInnovations: make(map[EdgeKey]int),
	}

	emptyGenome := NewGenome(numInputs, numOutputs)
	e.speciesCounter++
	e.species = append(e.species, &Species{ID: e.speciesCounter, Organisms: []*Organism{NewOrganism(emptyGenome)}})

	for created := 1; created < popSize; created++ {
		child := NewGenome(numInputs, numOutputs)
		child.AddInputOutputEdge(rng, 2)

		found := false
		for _, s := range e.species {
			if e.withinCompatibilityThresh(s.Organisms[0].Genome, child) {
				s.Organisms = append(s.Organisms, NewOrganism(child))
				found = true
				break
			}
		}
		if !found {
			e.speciesCounter++
			e.species = append(e.species, &Species{ID: e.speciesCounter, Organisms: []*Organism{NewOrganism(child)}})
		}
	}

	return e, nil
}

func (e *Engine) withinCompatibilityThresh(g1, g2 *Genome) bool {
	nonMatching, genomeSize, avgWeightDiff := g1.GetCompatibilityDistInfo(g2)
	var dist float64
	if genomeSize > 0 {
		dist = e.C12*float64(nonMatching)/float64(genomeSize) + e.C3*avgWeightDiff
	}
	return dist < e.CompatibilityThresh
}

// GetAddNodeNumber implements InnovationRegistry: it resolves the hidden
// node id for splitting a given edge, minting a fresh id the first time a
// particular (edge, isRecurrent) pair is seen this run and returning the
// same id for every later request with that key.
func (e *Engine) GetAddNodeNumber(edge EdgeKey, isRecurrent bool) int {
	table := e.forwardInnovations
	if isRecurrent {
		table = e.recurrentInnovations
	}
	if id, ok := table[edge]; ok {
		return id
	}
	e.nodeCounter++
	table[edge] = e.nodeCounter
	return e.nodeCounter
}

// addGenome files childGenome into newSpecies by compatibility distance
// against either the carried-over representative (species[j]'s fittest
// survivor, for j within the old species count) or the first child of a
// freshly created species (for j beyond it), appending a new species if
// none match.
func (e *Engine) addGenome(newSpecies []*Species, child *Genome) []*Species {
	for j, s := range newSpecies {
		var representative *Genome
		if j < len(e.species) {
			representative = e.species[j].Organisms[0].Genome
		} else {
			representative = s.Organisms[0].Genome
		}
		if e.withinCompatibilityThresh(representative, child) {
			s.Organisms = append(s.Organisms, NewOrganism(child))
			return newSpecies
		}
	}
	e.speciesCounter++
	return append(newSpecies, &Species{ID: e.speciesCounter, Organisms: []*Organism{NewOrganism(child)}})
}

// GenerateNetworks compiles every live organism's genome into a phenotype
// and returns one handle per organism. Handles carry the generation epoch
// at the time of the call; calling UpdateGeneration invalidates every
// handle issued before it.
func (e *Engine) GenerateNetworks() []NetworkHandle {
	epoch := atomic.LoadInt64(&e.epoch)

	var handles []NetworkHandle
	for _, s := range e.species {
		for _, o := range s.Organisms {
			net, err := o.Genome.GenerateNetwork()
			if err != nil {
				fmt.Fprintf(os.Stderr, "neat: GenerateNetworks skipping organism in species %d: %v\n", s.ID, err)
				continue
			}
			handles = append(handles, NetworkHandle{
				Network:   net,
				Fitness:   &FitnessHandle{engine: e, epoch: epoch, organism: o},
				SpeciesID: s.ID,
			})
		}
	}
	return handles
}

// UpdateGeneration runs one full reproduction cycle: fitness sharing,
// proportional offspring allocation, champion elitism, breeding-pool
// selection, crossover, exclusive single-mutation dispatch, and
// re-speciation of the resulting children. It fails (returning false
// without mutating the population) if any organism's fitness was never
// set. On success every FitnessHandle issued by a prior GenerateNetworks
// call becomes invalid and the generation counter advances.
func (e *Engine) UpdateGeneration() bool {
	newSpecies := make([]*Species, len(e.species))
	for i, s := range e.species {
		newSpecies[i] = &Species{ID: s.ID}
	}

	specieFitnesses := make([]float64, len(e.species))
	fitnessSum := 0.0
	for i, s := range e.species {
		mean, ok := s.meanFitness()
		if !ok {
			fmt.Fprintf(os.Stderr, "neat: UpdateGeneration failed: %v; not every organism's fitness has been set\n", ErrFitnessNotSet)
			return false
		}
		specieFitnesses[i] = mean
		fitnessSum += mean
	}
	if fitnessSum == 0 {
		fmt.Fprintln(os.Stderr, "neat: UpdateGeneration warning: total fitness across all species is 0; check the fitness function")
	}

	for _, s := range e.species {
		s.sortByFitnessDescending()
	}

	for i, s := range e.species {
		var numOffspring int
		if fitnessSum == 0 {
			numOffspring = e.PopSize / len(e.species)
		} else {
			numOffspring = int(float64(e.PopSize)*(specieFitnesses[i]/fitnessSum) + 0.5)
		}
		if numOffspring < 1 {
			continue
		}

		if numOffspring > 5 {
			newSpecies = e.addGenome(newSpecies, s.Organisms[0].Genome.Copy())
			numOffspring--
		}

		poolSize := int(float64(len(s.Organisms))*e.TopPCutoff + 0.5)
		if poolSize <= 0 || poolSize >= len(s.Organisms) {
			poolSize = len(s.Organisms)
		}
		maxIndex := poolSize - 1

		for c := 0; c < numOffspring; c++ {
			parent1 := RandInt(e.rng, maxIndex)
			parent2 := RandInt(e.rng, maxIndex)
			if parent1 > parent2 {
				parent1, parent2 = parent2, parent1
			}

			child := s.Organisms[parent1].Genome.Copy()
			if parent1 != parent2 {
				child.Crossover(e.rng, s.Organisms[parent2].Genome)
			}

			switch {
			case RandUnit(e.rng) < e.AddNodeMutationProb:
				child.AddNodeMutation(e.rng, e)
			case RandUnit(e.rng) < e.AddEdgeMutationProb:
				if net, err := child.GenerateNetwork(); err == nil {
					child.AddEdgeMutation(e.rng, net, 2, 3)
				}
			case RandUnit(e.rng) < e.WeightMutationProb:
				child.MutateWeights(e.rng, 0.1, 2, 0.1)
			}

			newSpecies = e.addGenome(newSpecies, child)
		}
	}

	e.species = e.species[:0]
	atomic.AddInt64(&e.epoch, 1)
	for _, s := range newSpecies {
		if len(s.Organisms) > 0 {
			e.species = append(e.species, s)
		}
	}
	e.generationID++

	return true
}

// MeanCompatibilityDistance returns the mean pairwise compatibility
// distance between each species' representative and every other species'
// representative, a rough measure of how spread out the population is.
// Returns 0 if fewer than two species are live.
func (e *Engine) MeanCompatibilityDistance() float64 {
	if len(e.species) < 2 {
		return 0
	}
	var sum float64
	var pairs int
	for i := 0; i < len(e.species); i++ {
		for j := i + 1; j < len(e.species); j++ {
			nonMatching, genomeSize, avgWeightDiff := e.species[i].Organisms[0].Genome.GetCompatibilityDistInfo(e.species[j].Organisms[0].Genome)
			var dist float64
			if genomeSize > 0 {
				dist = e.C12*float64(nonMatching)/float64(genomeSize) + e.C3*avgWeightDiff
			}
			sum += dist
			pairs++
		}
	}
	return sum / float64(pairs)
}

// BestFitness returns the highest fitness among all organisms whose fitness
// has been set, and false if none has.
func (e *Engine) BestFitness() (float64, bool) {
	best := 0.0
	found := false
	for _, s := range e.species {
		for _, o := range s.Organisms {
			if o.Fitness < 0 {
				continue
			}
			if !found || o.Fitness > best {
				best = o.Fitness
				found = true
			}
		}
	}
	return best, found
}

// MeanFitness returns the mean fitness across every organism whose fitness
// has been set, and false if none has.
func (e *Engine) MeanFitness() (float64, bool) {
	sum := 0.0
	count := 0
	for _, s := range e.species {
		for _, o := range s.Organisms {
			if o.Fitness < 0 {
				continue
			}
			sum += o.Fitness
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}

// GetGenerationID returns the number of completed UpdateGeneration calls.
func (e *Engine) GetGenerationID() int64 { return e.generationID }

// GetNumSpecies returns the number of currently live species.
func (e *Engine) GetNumSpecies() int { return len(e.species) }

// PrintSpecieInfo writes a one-line {id,size} summary of every live
// species to stdout, for interactive debugging.
func (e *Engine) PrintSpecieInfo() {
	fmt.Print("{SpecieID,SpecieSize}:")
	for _, s := range e.species {
		fmt.Printf(" {%d,%d}", s.ID, len(s.Organisms))
	}
	fmt.Println()
}
