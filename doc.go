// Package goneat implements the NeuroEvolution of Augmenting Topologies (NEAT)
// algorithm: a genetic algorithm that evolves both the topology and the
// connection weights of small feedforward/recurrent neural networks.
//
// The evolutionary core lives in the neat subpackage: a Genome holding four
// maps of historically-marked edges, a Network phenotype compiled from a
// genome into an index-addressed evaluator, and an Engine that runs the
// generational speciation/reproduction loop. Fitness evaluation, the
// concrete task being solved, and any visualisation are the host's
// responsibility; this module only evolves the population.
//
// Basic usage:
//
//	engine, err := neat.NewEngine(2, 1, 300, 1.5, 1.0, 0.4, 0.6, 0.03, 0.3, 0.8, rand.New(rand.NewSource(1)))
//	if err != nil {
//		log.Fatalf("failed to create engine: %v", err)
//	}
//
//	for generation := 0; generation < 100; generation++ {
//		handles := engine.GenerateNetworks()
//		for _, h := range handles {
//			fitness := evaluate(h.Network)
//			h.Fitness.SetFitness(fitness)
//		}
//		if !engine.UpdateGeneration() {
//			log.Fatal("update generation failed; not every fitness was set")
//		}
//	}
package goneat
