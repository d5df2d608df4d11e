// Package neat is the evolutionary core: genomes, compiled network
// phenotypes, speciation and the generational reproduction loop.
//
// Node identifiers are plain ints laid out as [0, numInputs) sensors
// (the last sensor is always the bias node, pinned to 1.0 at runtime),
// [numInputs, numInputs+numOutputs) outputs, and numInputs+numOutputs+
// upward for hidden nodes assigned by the Engine as structural mutations
// occur. A Genome never allocates node ids itself; it asks the Engine
// (through the InnovationRegistry interface) so that identical structural
// mutations across the population land on the same id, which is what
// makes compatibility distance meaningful.
package neat
