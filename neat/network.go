package neat

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
)

// ErrCorruptPhenotype is returned when a genome's edges cannot be compiled
// into a valid layered network: an edge leaves an output node for a
// non-output node without being marked recurrent, or the topological sort
// fails to resolve every node into a layer.
var ErrCorruptPhenotype = errors.New("neat: corrupt phenotype")

// InputInfo records one predecessor contribution to a node's weighted sum:
// the internal run index of the source node, and the edge weight.
type InputInfo struct {
	SourceIndex int
	Weight      float64
}

// RunInfo holds one node's current activation and how many leading entries
// of Network.InputInfo (starting at the cumulative offset of all earlier
// nodes' blocks) feed it.
type RunInfo struct {
	OutputValue float64
	BlockSize   int
}

// NodeVisualInfo carries the original node id and its position in the
// compiled layering, used both for diagnostics and to drive
// FindNewPossibleConnection / CheckRecurrent.
type NodeVisualInfo struct {
	Label      int
	LayerNum   int
	LayerIndex int
	IsOutput   bool
}

// VisualEdge is one edge of the compiled network, resolved to the visual
// info of its endpoints, as produced by Network.Edges.
type VisualEdge struct {
	From   *NodeVisualInfo
	To     *NodeVisualInfo
	Weight float64
}

// Network is the phenotype compiled from a Genome: a layered, index
// addressed evaluator. Nodes are laid out contiguously ordered by
// (depth, id); InputInfo/RunInfo/OutputIndices/VisualInfo/LayerSizes are
// all indexed by that internal order, not by the original node id.
type Network struct {
	nodeLayout

	InputInfo     []InputInfo
	OutputIndices []int
	RunInfo       []RunInfo

	VisualInfo []NodeVisualInfo
	LayerSizes []int

	adjacency             map[int]map[int]bool
	adjacencyRecurrentRev map[int]map[int]bool
}

type idDepth struct {
	id    int
	depth int
}

func ensureNode(m map[int]map[int]bool, id int) {
	if _, ok := m[id]; !ok {
		m[id] = make(map[int]bool)
	}
}

func sortedSetKeys(m map[int]bool) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func sortedMapKeys(m map[int]map[int]bool) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// GenerateNetwork compiles g's currently-enabled edges into a Network.
func (g *Genome) GenerateNetwork() (*Network, error) {
	return compileNetwork(g.NumInputs, g.NumOutputs, g.ForwardEnabled, g.RecurrentEnabled)
}

func compileNetwork(numInputs, numOutputs int, forwardEdges, recurrentEdges map[EdgeKey]float64) (*Network, error) {
	layout := nodeLayout{NumInputs: numInputs, NumOutputs: numOutputs}

	adjacency := make(map[int]map[int]bool)
	adjacencyRev := make(map[int]map[int]bool)
	for i := 0; i < numInputs+numOutputs; i++ {
		ensureNode(adjacency, i)
		ensureNode(adjacencyRev, i)
	}

	for e := range forwardEdges {
		from, to := e.From, e.To
		if layout.IsOutputNode(from) && !layout.IsOutputNode(to) {
			return nil, fmt.Errorf("%w: output node %d has a non-recurrent edge to non-output node %d", ErrCorruptPhenotype, from, to)
		}
		ensureNode(adjacency, from)
		ensureNode(adjacency, to)
		adjacency[from][to] = true
		ensureNode(adjacencyRev, from)
		ensureNode(adjacencyRev, to)
		adjacencyRev[to][from] = true
	}

	adjacencyRevCopy := make(map[int]map[int]bool, len(adjacencyRev))
	for k, v := range adjacencyRev {
		cp := make(map[int]bool, len(v))
		for kk := range v {
			cp[kk] = true
		}
		adjacencyRevCopy[k] = cp
	}

	var sortedNodes []int
	for i := 0; i < numInputs; i++ {
		sortedNodes = append(sortedNodes, i)
	}
	for _, id := range sortedMapKeys(adjacencyRev) {
		if layout.IsInputNode(id) || layout.IsOutputNode(id) {
			continue
		}
		if len(adjacencyRev[id]) == 0 {
			sortedNodes = append(sortedNodes, id)
		}
	}

	idx := 0
	for ; idx < len(sortedNodes); idx++ {
		cur := sortedNodes[idx]
		for _, next := range sortedSetKeys(adjacency[cur]) {
			delete(adjacencyRev[next], cur)
			if len(adjacencyRev[next]) == 0 && !layout.IsOutputNode(next) {
				sortedNodes = append(sortedNodes, next)
			}
		}
	}

	for i := 0; i < numOutputs; i++ {
		cur := numInputs + i
		if len(adjacencyRev[cur]) == 0 {
			sortedNodes = append(sortedNodes, cur)
		}
	}
	for ; idx < len(sortedNodes); idx++ {
		cur := sortedNodes[idx]
		if !layout.IsOutputNode(cur) {
			return nil, fmt.Errorf("%w: topological sort reached non-output node %d while draining output frontier", ErrCorruptPhenotype, cur)
		}
		for _, next := range sortedSetKeys(adjacency[cur]) {
			delete(adjacencyRev[next], cur)
			if len(adjacencyRev[next]) == 0 {
				sortedNodes = append(sortedNodes, next)
			}
		}
	}
	if len(sortedNodes) < len(adjacency) {
		return nil, fmt.Errorf("%w: topological sort placed %d of %d nodes; the forward edges contain a cycle", ErrCorruptPhenotype, len(sortedNodes), len(adjacency))
	}

	maxDepth := make(map[int]int)
	outputDepth := 0
	for _, cur := range sortedNodes {
		if layout.IsInputNode(cur) {
			maxDepth[cur] = 0
			continue
		}
		curMaxDepth := 1
		if layout.IsOutputNode(cur) {
			curMaxDepth = outputDepth + 1
		}
		for _, pred := range sortedSetKeys(adjacencyRevCopy[cur]) {
			newDepth := maxDepth[pred] + 1
			if newDepth > curMaxDepth {
				curMaxDepth = newDepth
			}
		}
		maxDepth[cur] = curMaxDepth
		if !layout.IsOutputNode(cur) && curMaxDepth > outputDepth {
			outputDepth = curMaxDepth
		}
	}

	pairs := make([]idDepth, 0, len(maxDepth))
	for id, depth := range maxDepth {
		pairs = append(pairs, idDepth{id: id, depth: depth})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].depth != pairs[j].depth {
			return pairs[i].depth < pairs[j].depth
		}
		return pairs[i].id < pairs[j].id
	})

	visualInfo := make([]NodeVisualInfo, 0, len(pairs))
	var layerSizes []int
	lastDepth := 0
	curIndex := 0
	for _, p := range pairs {
		if p.depth != lastDepth {
			layerSizes = append(layerSizes, curIndex)
			lastDepth = p.depth
			curIndex = 0
		}
		isOutput := layout.IsOutputNode(p.id)
		layerIndex := curIndex
		if isOutput {
			layerIndex = p.id - numInputs
		}
		visualInfo = append(visualInfo, NodeVisualInfo{Label: p.id, LayerNum: p.depth, LayerIndex: layerIndex, IsOutput: isOutput})
		curIndex++
	}
	layerSizes = append(layerSizes, curIndex)

	internalIndex := make(map[int]int, len(pairs))
	for i, p := range pairs {
		internalIndex[p.id] = i
	}

	adjacencyRecurrentRev := make(map[int]map[int]bool)
	for e := range recurrentEdges {
		from, to := e.From, e.To
		ensureNode(adjacencyRecurrentRev, to)
		ensureNode(adjacencyRecurrentRev, from)
		adjacencyRecurrentRev[to][from] = true
	}

	outputIndices := make([]int, numOutputs)
	runInfo := make([]RunInfo, len(pairs))
	var inputInfo []InputInfo

	for i, p := range pairs {
		cur := p.id
		if layout.IsOutputNode(cur) {
			outputIndices[cur-numInputs] = i
		}

		for _, f := range sortedSetKeys(adjacencyRevCopy[cur]) {
			weight := forwardEdges[EdgeKey{From: f, To: cur}]
			inputInfo = append(inputInfo, InputInfo{SourceIndex: internalIndex[f], Weight: weight})
		}
		for _, f := range sortedSetKeys(adjacencyRecurrentRev[cur]) {
			weight := recurrentEdges[EdgeKey{From: f, To: cur}]
			inputInfo = append(inputInfo, InputInfo{SourceIndex: internalIndex[f], Weight: weight})
		}

		blockSize := len(adjacencyRevCopy[cur]) + len(adjacencyRecurrentRev[cur])
		runInfo[i] = RunInfo{OutputValue: 0, BlockSize: blockSize}
	}

	runInfo[numInputs-1].OutputValue = 1 // bias

	return &Network{
		nodeLayout:            layout,
		InputInfo:             inputInfo,
		OutputIndices:         outputIndices,
		RunInfo:               runInfo,
		VisualInfo:            visualInfo,
		LayerSizes:            layerSizes,
		adjacency:             adjacency,
		adjacencyRecurrentRev: adjacencyRecurrentRev,
	}, nil
}

// IsInvalid reports whether the network failed to compile into something
// runnable (too few sensors or no outputs).
func (net *Network) IsInvalid() bool {
	return net.NumInputs < 2 || net.NumOutputs < 1
}

// Run evaluates the network on in (which must have length NumInputs-1; the
// bias sensor is filled in automatically) and writes NumOutputs values into
// out. Recurrent edges read whatever value their source held at the end of
// the previous Run call (or 0 before the first call / after
// ResetRecurrentConnections). Returns false and leaves out unchanged if the
// network is invalid or the slice lengths don't match.
func (net *Network) Run(in, out []float64) bool {
	if net.IsInvalid() {
		fmt.Fprintln(os.Stderr, "neat: Run failed since Network is corrupted or hasn't been initialized")
		return false
	}
	if len(in) != net.NumInputs-1 {
		fmt.Fprintln(os.Stderr, "neat: Run received input slice with incorrect length")
		return false
	}
	if len(out) != net.NumOutputs {
		fmt.Fprintln(os.Stderr, "neat: Run received output slice with incorrect length")
		return false
	}

	for i := 0; i < net.NumInputs-1; i++ {
		net.RunInfo[i].OutputValue = in[i]
	}
	net.RunInfo[net.NumInputs-1].OutputValue = 1 // bias

	inputInfoStart := 0
	for i := net.NumInputs; i < len(net.RunInfo); i++ {
		numPrev := net.RunInfo[i].BlockSize
		sum := 0.0
		if numPrev > 0 {
			block := net.InputInfo[inputInfoStart : inputInfoStart+numPrev]
			for _, pi := range block {
				sum += net.RunInfo[pi.SourceIndex].OutputValue * pi.Weight
			}
			inputInfoStart += numPrev
		}
		net.RunInfo[i].OutputValue = math.Tanh(sum)
	}

	for i := 0; i < net.NumOutputs; i++ {
		out[i] = net.RunInfo[net.OutputIndices[i]].OutputValue
	}

	return true
}

// ResetRecurrentConnections zeroes every node's stored activation,
// including the bias node (which Run re-establishes on its next call).
func (net *Network) ResetRecurrentConnections() {
	for i := range net.RunInfo {
		net.RunInfo[i].OutputValue = 0
	}
}

// GetNumNodes returns the number of nodes in the compiled network.
func (net *Network) GetNumNodes() int { return len(net.RunInfo) }

// GetNumEdges returns the number of edges in the compiled network.
func (net *Network) GetNumEdges() int { return len(net.InputInfo) }

// CheckRecurrent reports whether an edge from inputLabel to outputLabel
// would have to be marked recurrent: a self-loop, an edge from an output
// node to a non-output node, or any edge that would close a cycle (i.e.
// outputLabel can already reach inputLabel along forward edges).
func (net *Network) CheckRecurrent(inputLabel, outputLabel int) bool {
	if inputLabel == outputLabel {
		return true
	}
	if net.IsOutputNode(inputLabel) && !net.IsOutputNode(outputLabel) {
		return true
	}

	discovered := map[int]bool{outputLabel: true}
	frontier := []int{outputLabel}
	for len(frontier) > 0 {
		cur := frontier[0]
		frontier = frontier[1:]

		if cur == inputLabel {
			return true
		}

		next, ok := net.adjacency[cur]
		if !ok {
			fmt.Fprintf(os.Stderr, "neat: could not find node %d in network\n", cur)
			return true
		}

		for _, e := range sortedSetKeys(next) {
			if !discovered[e] {
				discovered[e] = true
				frontier = append(frontier, e)
			}
		}
	}

	return false
}

// FindNewPossibleConnection samples up to maxTries random (in, out) node
// pairs, returning the first one that isn't already connected (forward or
// recurrent), along with whether it would need to be marked recurrent.
func (net *Network) FindNewPossibleConnection(rng RandSource, maxTries int) (in, out int, isRecurrent bool, ok bool) {
	for try := 0; try < maxTries; try++ {
		randInput := RandInt(rng, len(net.RunInfo)-1)
		randInputLabel := net.VisualInfo[randInput].Label
		randOutput := RandIntRange(rng, net.NumInputs, len(net.RunInfo)-1)
		randOutputLabel := net.VisualInfo[randOutput].Label

		forwardSet, exists := net.adjacency[randInputLabel]
		if !exists {
			fmt.Fprintf(os.Stderr, "neat: could not find node %d\n", randInputLabel)
			continue
		}
		if forwardSet[randOutputLabel] {
			continue // edge already exists
		}
		if net.adjacencyRecurrentRev[randOutputLabel][randInputLabel] {
			continue // edge already exists
		}

		return randInputLabel, randOutputLabel, net.CheckRecurrent(randInputLabel, randOutputLabel), true
	}

	return 0, 0, false, false
}

// Edges returns every edge of the compiled network resolved to the visual
// info of its endpoints, in internal-index order.
func (net *Network) Edges() []VisualEdge {
	var edges []VisualEdge
	start := 0
	for i := range net.RunInfo {
		n := net.RunInfo[i].BlockSize
		for j := 0; j < n; j++ {
			pi := net.InputInfo[start+j]
			edges = append(edges, VisualEdge{From: &net.VisualInfo[pi.SourceIndex], To: &net.VisualInfo[i], Weight: pi.Weight})
		}
		start += n
	}
	return edges
}
