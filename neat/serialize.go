package neat

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Binary layout is little-endian, length-prefixed, and carries no version
// header; on-disk compatibility is tied to the exact record layout below.
//
//	edge map:  u32 count, then count triples (from i32, to i32, weight f32)
//	genome:    i32 num_inputs, i32 num_outputs, then forward_enabled,
//	           recurrent_enabled, forward_disabled, recurrent_disabled
//	organism:  genome, f32 fitness
//	species:   i32 id, u32 count, then count organisms
//	engine:    header (input/output/pop size, seven hyperparameters as f32,
//	           i32 node_counter, i32 species_counter) then the forward and
//	           recurrent innovation maps (as edge maps with i32 payload
//	           instead of weight) then u32 species count, then species.

func writeEdgeMap(w io.Writer, m map[EdgeKey]float64) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(m))); err != nil {
		return err
	}
	for k, v := range m {
		if err := binary.Write(w, binary.LittleEndian, int32(k.From)); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, int32(k.To)); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, float32(v)); err != nil {
			return err
		}
	}
	return nil
}

func readEdgeMap(r io.Reader) (map[EdgeKey]float64, error) {
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, err
	}
	m := make(map[EdgeKey]float64, count)
	for i := uint32(0); i < count; i++ {
		var from, to int32
		var weight float32
		if err := binary.Read(r, binary.LittleEndian, &from); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &to); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &weight); err != nil {
			return nil, err
		}
		m[EdgeKey{From: int(from), To: int(to)}] = float64(weight)
	}
	return m, nil
}

func writeInnovationMap(w io.Writer, m map[EdgeKey]int) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(m))); err != nil {
		return err
	}
	for k, v := range m {
		if err := binary.Write(w, binary.LittleEndian, int32(k.From)); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, int32(k.To)); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, int32(v)); err != nil {
			return err
		}
	}
	return nil
}

func readInnovationMap(r io.Reader) (map[EdgeKey]int, error) {
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, err
	}
	m := make(map[EdgeKey]int, count)
	for i := uint32(0); i < count; i++ {
		var from, to, id int32
		if err := binary.Read(r, binary.LittleEndian, &from); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &to); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
			return nil, err
		}
		m[EdgeKey{From: int(from), To: int(to)}] = int(id)
	}
	return m, nil
}

// Save writes g to w in the fixed binary genome layout.
func (g *Genome) Save(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, int32(g.NumInputs)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, int32(g.NumOutputs)); err != nil {
		return err
	}
	for _, m := range []map[EdgeKey]float64{g.ForwardEnabled, g.RecurrentEnabled, g.ForwardDisabled, g.RecurrentDisabled} {
		if err := writeEdgeMap(w, m); err != nil {
			return err
		}
	}
	return nil
}

// LoadGenome reads a genome previously written by Genome.Save.
func LoadGenome(r io.Reader) (*Genome, error) {
	var numInputs, numOutputs int32
	if err := binary.Read(r, binary.LittleEndian, &numInputs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	if err := binary.Read(r, binary.LittleEndian, &numOutputs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIOFailure, err)
	}

	g := NewGenome(int(numInputs), int(numOutputs))
	maps := []*map[EdgeKey]float64{&g.ForwardEnabled, &g.RecurrentEnabled, &g.ForwardDisabled, &g.RecurrentDisabled}
	for _, m := range maps {
		loaded, err := readEdgeMap(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIOFailure, err)
		}
		*m = loaded
	}
	return g, nil
}

// Save writes o (genome plus fitness) to w.
func (o *Organism) Save(w io.Writer) error {
	if err := o.Genome.Save(w); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, float32(o.Fitness))
}

// LoadOrganism reads an organism previously written by Organism.Save.
func LoadOrganism(r io.Reader) (*Organism, error) {
	genome, err := LoadGenome(r)
	if err != nil {
		return nil, err
	}
	var fitness float32
	if err := binary.Read(r, binary.LittleEndian, &fitness); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	return &Organism{Genome: genome, Fitness: float64(fitness)}, nil
}

// Save writes s (id, organism count, organisms) to w.
func (s *Species) Save(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, int32(s.ID)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s.Organisms))); err != nil {
		return err
	}
	for _, o := range s.Organisms {
		if err := o.Save(w); err != nil {
			return err
		}
	}
	return nil
}

// LoadSpecies reads a species previously written by Species.Save.
func LoadSpecies(r io.Reader) (*Species, error) {
	var id int32
	if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	organisms := make([]*Organism, 0, count)
	for i := uint32(0); i < count; i++ {
		o, err := LoadOrganism(r)
		if err != nil {
			return nil, err
		}
		organisms = append(organisms, o)
	}
	return &Species{ID: int(id), Organisms: organisms}, nil
}

// Save writes the full engine state (hyperparameters, innovation tables,
// counters, and every species) to path, truncating any existing file.
func (e *Engine) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)

	header := []int32{int32(e.InputSize), int32(e.OutputSize), int32(e.PopSize)}
	for _, v := range header {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("%w: %v", ErrIOFailure, err)
		}
	}
	params := []float64{e.CompatibilityThresh, e.C12, e.C3, e.TopPCutoff, e.AddNodeMutationProb, e.AddEdgeMutationProb, e.WeightMutationProb}
	for _, p := range params {
		if err := binary.Write(w, binary.LittleEndian, float32(p)); err != nil {
			return fmt.Errorf("%w: %v", ErrIOFailure, err)
		}
	}
	if err := binary.Write(w, binary.LittleEndian, int32(e.nodeCounter)); err != nil {
		return fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	if err := binary.Write(w, binary.LittleEndian, int32(e.speciesCounter)); err != nil {
		return fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	if err := writeInnovationMap(w, e.forwardInnovations); err != nil {
		return fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	if err := writeInnovationMap(w, e.recurrentInnovations); err != nil {
		return fmt.Errorf("%w: %v", ErrIOFailure, err)
	}

	if err := binary.Write(w, binary.LittleEndian, uint32(len(e.species))); err != nil {
		return fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	for _, s := range e.species {
		if err := s.Save(w); err != nil {
			return fmt.Errorf("%w: %v", ErrIOFailure, err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	return nil
}

// Load reads engine state previously written by (*Engine).Save into a
// fresh Engine, using rng as its injected random source. The loaded
// engine's epoch starts at 0, independent of whatever epoch the saved
// engine was on; any FitnessHandle from before the save remains invalid.
func Load(path string, rng RandSource) (*Engine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)

	var inputSize, outputSize, popSize int32
	for _, v := range []*int32{&inputSize, &outputSize, &popSize} {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIOFailure, err)
		}
	}

	params := make([]float64, 7)
	for i := range params {
		var p float32
		if err := binary.Read(r, binary.LittleEndian, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIOFailure, err)
		}
		params[i] = float64(p)
	}

	var nodeCounter, speciesCounter int32
	if err := binary.Read(r, binary.LittleEndian, &nodeCounter); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	if err := binary.Read(r, binary.LittleEndian, &speciesCounter); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIOFailure, err)
	}

	forwardInnovations, err := readInnovationMap(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	recurrentInnovations, err := readInnovationMap(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIOFailure, err)
	}

	var speciesCount uint32
	if err := binary.Read(r, binary.LittleEndian, &speciesCount); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	species := make([]*Species, 0, speciesCount)
	for i := uint32(0); i < speciesCount; i++ {
		s, err := LoadSpecies(r)
		if err != nil {
			return nil, err
		}
		species = append(species, s)
	}

	e := &Engine{
		InputSize:            int(inputSize),
		OutputSize:           int(outputSize),
		PopSize:              int(popSize),
		CompatibilityThresh:  params[0],
		C12:                  params[1],
		C3:                   params[2],
		TopPCutoff:           params[3],
		AddNodeMutationProb:  params[4],
		AddEdgeMutationProb:  params[5],
		WeightMutationProb:   params[6],
		rng:                  rng,
		nodeCounter:          int(nodeCounter),
		speciesCounter:       int(speciesCounter),
		forwardInnovations:   forwardInnovations,
		recurrentInnovations: recurrentInnovations,
		species:              species,
	}
	return e, nil
}

// Save writes the compiled network's visual/runtime records to w: a header
// of five i32 counts (input_info, output_indices, run_info, visual_info,
// layer_sizes lengths) followed by the raw records themselves.
func (net *Network) Save(w io.Writer) error {
	counts := []int32{
		int32(len(net.InputInfo)),
		int32(len(net.OutputIndices)),
		int32(len(net.RunInfo)),
		int32(len(net.VisualInfo)),
		int32(len(net.LayerSizes)),
	}
	for _, c := range counts {
		if err := binary.Write(w, binary.LittleEndian, c); err != nil {
			return err
		}
	}

	for _, ii := range net.InputInfo {
		if err := binary.Write(w, binary.LittleEndian, int32(ii.SourceIndex)); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, float32(ii.Weight)); err != nil {
			return err
		}
	}
	for _, oi := range net.OutputIndices {
		if err := binary.Write(w, binary.LittleEndian, int32(oi)); err != nil {
			return err
		}
	}
	for _, ri := range net.RunInfo {
		if err := binary.Write(w, binary.LittleEndian, float32(ri.OutputValue)); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, int32(ri.BlockSize)); err != nil {
			return err
		}
	}
	for _, vi := range net.VisualInfo {
		if err := binary.Write(w, binary.LittleEndian, int32(vi.Label)); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, int32(vi.LayerNum)); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, int32(vi.LayerIndex)); err != nil {
			return err
		}
		isOutput := int32(0)
		if vi.IsOutput {
			isOutput = 1
		}
		if err := binary.Write(w, binary.LittleEndian, isOutput); err != nil {
			return err
		}
	}
	for _, ls := range net.LayerSizes {
		if err := binary.Write(w, binary.LittleEndian, int32(ls)); err != nil {
			return err
		}
	}

	return nil
}

// LoadNetwork reads a compiled network previously written by Network.Save.
// numInputs and numOutputs must be supplied by the caller since the raw
// network records don't repeat them.
func LoadNetwork(r io.Reader, numInputs, numOutputs int) (*Network, error) {
	var inputInfoLen, outputIndicesLen, runInfoLen, visualInfoLen, layerSizesLen int32
	for _, v := range []*int32{&inputInfoLen, &outputIndicesLen, &runInfoLen, &visualInfoLen, &layerSizesLen} {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIOFailure, err)
		}
	}

	inputInfo := make([]InputInfo, inputInfoLen)
	for i := range inputInfo {
		var src int32
		var weight float32
		if err := binary.Read(r, binary.LittleEndian, &src); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIOFailure, err)
		}
		if err := binary.Read(r, binary.LittleEndian, &weight); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIOFailure, err)
		}
		inputInfo[i] = InputInfo{SourceIndex: int(src), Weight: float64(weight)}
	}

	outputIndices := make([]int, outputIndicesLen)
	for i := range outputIndices {
		var oi int32
		if err := binary.Read(r, binary.LittleEndian, &oi); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIOFailure, err)
		}
		outputIndices[i] = int(oi)
	}

	runInfo := make([]RunInfo, runInfoLen)
	for i := range runInfo {
		var val float32
		var block int32
		if err := binary.Read(r, binary.LittleEndian, &val); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIOFailure, err)
		}
		if err := binary.Read(r, binary.LittleEndian, &block); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIOFailure, err)
		}
		runInfo[i] = RunInfo{OutputValue: float64(val), BlockSize: int(block)}
	}

	visualInfo := make([]NodeVisualInfo, visualInfoLen)
	adjacency := make(map[int]map[int]bool)
	for i := range visualInfo {
		var label, layerNum, layerIndex, isOutput int32
		if err := binary.Read(r, binary.LittleEndian, &label); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIOFailure, err)
		}
		if err := binary.Read(r, binary.LittleEndian, &layerNum); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIOFailure, err)
		}
		if err := binary.Read(r, binary.LittleEndian, &layerIndex); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIOFailure, err)
		}
		if err := binary.Read(r, binary.LittleEndian, &isOutput); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIOFailure, err)
		}
		visualInfo[i] = NodeVisualInfo{Label: int(label), LayerNum: int(layerNum), LayerIndex: int(layerIndex), IsOutput: isOutput != 0}
		ensureNode(adjacency, int(label))
	}

	layerSizes := make([]int, layerSizesLen)
	for i := range layerSizes {
		var ls int32
		if err := binary.Read(r, binary.LittleEndian, &ls); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIOFailure, err)
		}
		layerSizes[i] = int(ls)
	}

	adjacencyRecurrentRev := make(map[int]map[int]bool)
	start := 0
	for i := range runInfo {
		n := runInfo[i].BlockSize
		for j := 0; j < n; j++ {
			ii := inputInfo[start+j]
			from := visualInfo[ii.SourceIndex].Label
			to := visualInfo[i].Label
			ensureNode(adjacency, from)
			adjacency[from][to] = true
		}
		start += n
	}

	return &Network{
		nodeLayout:            nodeLayout{NumInputs: numInputs, NumOutputs: numOutputs},
		InputInfo:             inputInfo,
		OutputIndices:         outputIndices,
		RunInfo:               runInfo,
		VisualInfo:            visualInfo,
		LayerSizes:            layerSizes,
		adjacency:             adjacency,
		adjacencyRecurrentRev: adjacencyRecurrentRev,
	}, nil
}
