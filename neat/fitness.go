package neat

import (
	"fmt"
	"os"
	"sync/atomic"
)

// FitnessHandle lets a host set the fitness of exactly one organism,
// generated by a particular call to Engine.GenerateNetworks. It is the
// Go equivalent of the original engine's weak-pointer-guarded fitness
// reference: rather than a weak pointer into memory that might have been
// freed, the handle captures the epoch the Engine was on when the handle
// was minted, and SetFitness refuses to write once the Engine has moved
// on to a new generation (UpdateGeneration bumps the epoch). This is a
// safety guard, not a memory-reclamation mechanism -- Go's garbage
// collector handles the latter on its own.
type FitnessHandle struct {
	engine   *Engine
	epoch    int64
	organism *Organism
}

// SetFitness records f as the organism's fitness. It fails (returning
// false and printing a diagnostic) if f is negative, or if the Engine has
// already moved past the generation this handle was issued for.
func (h *FitnessHandle) SetFitness(f float64) bool {
	if atomic.LoadInt64(&h.engine.epoch) != h.epoch {
		fmt.Fprintln(os.Stderr, "neat: SetFitness failed since organism no longer exists; call SetFitness before UpdateGeneration")
		return false
	}
	if f < 0 {
		fmt.Fprintln(os.Stderr, "neat: SetFitness failed since fitness value must be greater than or equal to 0")
		return false
	}
	h.organism.Fitness = f
	return true
}
