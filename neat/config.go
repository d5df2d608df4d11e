package neat

import (
	"fmt"
	"math/rand"

	"gopkg.in/ini.v1"
)

// EngineConfig holds every parameter NewEngine needs, loadable from an INI
// file's [NEAT] section.
type EngineConfig struct {
	InputSize  int `ini:"input_size"`
	OutputSize int `ini:"output_size"`
	PopSize    int `ini:"pop_size"`

	CompatibilityThresh float64 `ini:"compatibility_thresh"`
	C12                 float64 `ini:"c1_c2"`
	C3                  float64 `ini:"c3"`
	TopPCutoff          float64 `ini:"top_p_cutoff"`
	AddNodeMutationProb float64 `ini:"add_node_mutation_prob"`
	AddEdgeMutationProb float64 `ini:"add_edge_mutation_prob"`
	WeightMutationProb  float64 `ini:"weight_mutation_prob"`

	RandSeed int64 `ini:"rand_seed"`
}

// defaultEngineConfig mirrors the illustrative defaults carried by the
// original engine's constructor signature.
func defaultEngineConfig() EngineConfig {
	return EngineConfig{
		InputSize:            1,
		OutputSize:           1,
		PopSize:              150,
		CompatibilityThresh:  1.5,
		C12:                  1.0,
		C3:                   0.4,
		TopPCutoff:           0.6,
		AddNodeMutationProb:  0.03,
		AddEdgeMutationProb:  0.3,
		WeightMutationProb:   0.8,
		RandSeed:             1,
	}
}

// LoadEngineConfig loads engine parameters from the [NEAT] section of an INI
// file, falling back to defaultEngineConfig's values for any key that's
// absent.
func LoadEngineConfig(filePath string) (*EngineConfig, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true,
		UnescapeValueCommentSymbols: true,
	}, filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load config file %q: %v", ErrIOFailure, filePath, err)
	}

	config := defaultEngineConfig()
	if err := cfg.Section("NEAT").MapTo(&config); err != nil {
		return nil, fmt.Errorf("%w: failed to map [NEAT] section: %v", ErrIOFailure, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate reports whether the config's parameters could construct a
// working Engine.
func (c *EngineConfig) Validate() error {
	if c.InputSize <= 0 {
		return fmt.Errorf("%w: input_size must be positive", ErrInvalidConstruction)
	}
	if c.OutputSize <= 0 {
		return fmt.Errorf("%w: output_size must be positive", ErrInvalidConstruction)
	}
	if c.PopSize <= 0 {
		return fmt.Errorf("%w: pop_size must be positive", ErrInvalidConstruction)
	}
	if c.CompatibilityThresh < 0 {
		return fmt.Errorf("%w: compatibility_thresh cannot be negative", ErrInvalidConstruction)
	}
	for name, p := range map[string]float64{
		"add_node_mutation_prob": c.AddNodeMutationProb,
		"add_edge_mutation_prob": c.AddEdgeMutationProb,
		"weight_mutation_prob":   c.WeightMutationProb,
		"top_p_cutoff":           c.TopPCutoff,
	} {
		if p < 0 || p > 1 {
			return fmt.Errorf("%w: %s must be between 0 and 1", ErrInvalidConstruction, name)
		}
	}
	return nil
}

// NewEngineFromConfig constructs an Engine from a loaded EngineConfig,
// seeding its random source from RandSeed.
func NewEngineFromConfig(cfg *EngineConfig) (*Engine, error) {
	rng := rand.New(rand.NewSource(cfg.RandSeed))
	return NewEngine(
		cfg.InputSize, cfg.OutputSize, cfg.PopSize,
		cfg.CompatibilityThresh, cfg.C12, cfg.C3, cfg.TopPCutoff,
		cfg.AddNodeMutationProb, cfg.AddEdgeMutationProb, cfg.WeightMutationProb,
		rng,
	)
}
