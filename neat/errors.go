package neat

import "errors"

// These sentinel errors name the recoverable-by-design failure kinds this
// package surfaces. Most operations additionally report a human-readable
// diagnostic on stderr, following the boolean-result-plus-diagnostic style
// of the engine this package is modeled on; the sentinels let callers that
// do get an error value match on errors.Is rather than string comparison.
var (
	// ErrInvalidConstruction is returned by NewEngine when input size,
	// output size, or population size is non-positive.
	ErrInvalidConstruction = errors.New("neat: invalid construction")

	// ErrFitnessNotSet is the underlying reason UpdateGeneration reports
	// failure when some organism's fitness was never reported by the host.
	ErrFitnessNotSet = errors.New("neat: fitness not set")

	// ErrFitnessInvalid is the underlying reason FitnessHandle.SetFitness
	// rejects a negative fitness value.
	ErrFitnessInvalid = errors.New("neat: fitness invalid")

	// ErrIOFailure wraps the errors returned by Engine.Save, Load,
	// LoadGenome, LoadOrganism, LoadSpecies, LoadNetwork and
	// LoadEngineConfig. The Save methods of Genome, Organism, Species and
	// Network return their writer's errors unwrapped.
	ErrIOFailure = errors.New("neat: io failure")

	// ErrNoEdgeToSplit is the underlying reason Genome.AddNodeMutation
	// returns false: there was no enabled edge eligible to split.
	ErrNoEdgeToSplit = errors.New("neat: no edge to split")

	// ErrNoNewEdge is the underlying reason Genome.AddEdgeMutation returns
	// false: FindNewPossibleConnection exhausted its attempts.
	ErrNoNewEdge = errors.New("neat: no new edge available")
)
