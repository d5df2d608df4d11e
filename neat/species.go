package neat

import "sort"

// unsetFitness marks an organism whose fitness has not yet been reported
// back by the host for the current generation.
const unsetFitness = -1

// Organism pairs a genome with the fitness the host assigns it each
// generation. A negative Fitness means "not yet set".
type Organism struct {
	Genome  *Genome
	Fitness float64
}

// NewOrganism wraps genome with an unset fitness.
func NewOrganism(genome *Genome) *Organism {
	return &Organism{Genome: genome, Fitness: unsetFitness}
}

// Species is an ordered sequence of organisms considered close enough
// (by compatibility distance) to breed together. Organisms[0] is the
// species' representative for compatibility comparisons against new
// genomes. UpdateGeneration sorts each species by descending fitness before
// breeding, so while the children are being filed a carried-over species is
// represented by its fittest member; in the species that result,
// Organisms[0] is the first organism filed into each.
type Species struct {
	ID        int
	Organisms []*Organism
}

// sortByFitnessDescending orders the species' organisms from fittest to
// least fit. Ties are broken arbitrarily (stable sort preserves whatever
// order Organisms already had).
func (s *Species) sortByFitnessDescending() {
	sort.SliceStable(s.Organisms, func(i, j int) bool {
		return s.Organisms[i].Fitness > s.Organisms[j].Fitness
	})
}

// meanFitness returns the mean fitness across the species' organisms, and
// false if any organism's fitness hasn't been set yet.
func (s *Species) meanFitness() (float64, bool) {
	if len(s.Organisms) == 0 {
		return 0, true
	}
	sum := 0.0
	for _, o := range s.Organisms {
		if o.Fitness < 0 {
			return 0, false
		}
		sum += o.Fitness
	}
	return sum / float64(len(s.Organisms)), true
}
