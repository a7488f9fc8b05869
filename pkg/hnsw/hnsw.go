// Package hnsw implements a layered-graph approximate nearest-neighbor
// index over ticket embeddings (Hierarchical Navigable Small World).
//
// Population happens single-threaded before the index is published;
// after publication the index is read-only and safe for concurrent
// searches without locking on the read path.
package hnsw

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"
)

const (
	defaultM              = 16
	defaultEfConstruction = 200
	defaultEfSearch       = 50
)

// Config holds the construction and search parameters of an index.
// M is the per-node neighbor budget on the upper layers; layer 0 keeps
// up to 2*M neighbors. Larger EfSearch trades latency for recall.
type Config struct {
	Dimension      int
	M              int
	EfConstruction int
	EfSearch       int

	// Seed feeds the layer-assignment RNG. Builds with equal parameters,
	// equal seed and equal insertion order produce identical graphs.
	Seed int64
}

// DefaultConfig returns the production defaults for the given embedding
// dimension: M=16, efConstruction=200, ef=50.
func DefaultConfig(dimension int) Config {
	return Config{
		Dimension:      dimension,
		M:              defaultM,
		EfConstruction: defaultEfConstruction,
		EfSearch:       defaultEfSearch,
		Seed:           1,
	}
}

type node struct {
	id      string
	vec     []float32
	level   int
	deleted bool

	// neighbors[l] holds the internal indices of this node's neighbors on
	// layer l, for l in [0, level].
	neighbors [][]int
}

// Index is the layered proximity graph. The entry point is always the
// node assigned to the highest layer; every live node is reachable from
// it at layer 0.
type Index struct {
	mu sync.RWMutex

	cfg          Config
	modelVersion string

	nodes    []*node
	byID     map[string]int
	entry    int
	maxLevel int
	live     int

	levelMult float64
	rng       *rand.Rand
	builtAt   time.Time
}

// New creates an empty index for vectors of cfg.Dimension produced by the
// given embedding model version. Zero-valued config fields fall back to
// the defaults.
func New(cfg Config, modelVersion string) *Index {
	if cfg.M <= 0 {
		cfg.M = defaultM
	}
	if cfg.EfConstruction <= 0 {
		cfg.EfConstruction = defaultEfConstruction
	}
	if cfg.EfSearch <= 0 {
		cfg.EfSearch = defaultEfSearch
	}
	if cfg.Seed == 0 {
		cfg.Seed = 1
	}
	return &Index{
		cfg:          cfg,
		modelVersion: modelVersion,
		byID:         make(map[string]int),
		entry:        -1,
		maxLevel:     -1,
		levelMult:    1 / math.Ln2,
		rng:          rand.New(rand.NewSource(cfg.Seed)),
		builtAt:      time.Now(),
	}
}

// Size returns the number of live (non-tombstoned) vectors in the index.
func (ix *Index) Size() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.live
}

// Dimension returns the vector dimension the index was created with.
func (ix *Index) Dimension() int {
	return ix.cfg.Dimension
}

// ModelVersion returns the embedding model version the index was built under.
func (ix *Index) ModelVersion() string {
	return ix.modelVersion
}

// BuiltAt returns the creation time of the index.
func (ix *Index) BuiltAt() time.Time {
	return ix.builtAt
}

// Config returns the construction parameters of the index.
func (ix *Index) Config() Config {
	return ix.cfg
}

// Vector returns the stored embedding for an id. The returned slice must
// not be modified.
func (ix *Index) Vector(id string) ([]float32, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	i, ok := ix.byID[id]
	if !ok || ix.nodes[i].deleted {
		return nil, false
	}
	return ix.nodes[i].vec, true
}

// Insert adds a vector under the given id. The insert is atomic: all
// validation happens before any graph mutation, so a failed insert
// leaves the graph untouched.
func (ix *Index) Insert(id string, vec []float32) error {
	if len(vec) != ix.cfg.Dimension {
		return fmt.Errorf("%w: got %d want %d", ErrDimensionMismatch, len(vec), ix.cfg.Dimension)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if _, exists := ix.byID[id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}

	level := ix.randomLevel()
	n := &node{
		id:        id,
		vec:       vec,
		level:     level,
		neighbors: make([][]int, level+1),
	}
	idx := len(ix.nodes)
	ix.nodes = append(ix.nodes, n)
	ix.byID[id] = idx
	ix.live++

	if ix.entry < 0 {
		ix.entry = idx
		ix.maxLevel = level
		return nil
	}

	cur := ix.entry
	// Greedy single-step descent through the layers above the new node's level.
	for l := ix.maxLevel; l > level; l-- {
		cur = ix.greedyClosest(cur, vec, l)
	}

	top := level
	if top > ix.maxLevel {
		top = ix.maxLevel
	}
	for l := top; l >= 0; l-- {
		candidates := ix.searchLayer(cur, vec, ix.cfg.EfConstruction, l)
		selected := ix.selectNeighbors(vec, candidates, ix.cfg.M)
		n.neighbors[l] = make([]int, 0, len(selected))
		for _, c := range selected {
			n.neighbors[l] = append(n.neighbors[l], c.idx)
			ix.connect(c.idx, idx, l)
		}
		if len(candidates) > 0 {
			cur = candidates[0].idx
		}
	}

	if level > ix.maxLevel {
		ix.entry = idx
		ix.maxLevel = level
	}
	return nil
}

// Delete marks the id as removed. The node stays in the graph as a
// tombstone so connectivity is preserved for concurrent searches.
func (ix *Index) Delete(id string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	idx, ok := ix.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownID, id)
	}
	if !ix.nodes[idx].deleted {
		ix.nodes[idx].deleted = true
		ix.live--
	}
	return nil
}

// randomLevel draws the node's maximum layer from a geometric
// distribution so higher layers hold exponentially fewer nodes.
func (ix *Index) randomLevel() int {
	r := ix.rng.Float64()
	for r == 0 {
		r = ix.rng.Float64()
	}
	return int(math.Floor(-math.Log(r) * ix.levelMult))
}

// greedyClosest walks layer l from start, always moving to the nearest
// neighbor, until no neighbor is closer to q.
func (ix *Index) greedyClosest(start int, q []float32, l int) int {
	cur := start
	curDist := cosineDistance(ix.nodes[cur].vec, q)
	for {
		improved := false
		for _, nb := range ix.neighborsAt(cur, l) {
			d := cosineDistance(ix.nodes[nb].vec, q)
			if d < curDist {
				cur = nb
				curDist = d
				improved = true
			}
		}
		if !improved {
			return cur
		}
	}
}

func (ix *Index) neighborsAt(idx, l int) []int {
	n := ix.nodes[idx]
	if l > n.level {
		return nil
	}
	return n.neighbors[l]
}

// maxConnections returns the neighbor budget for a layer. Layer 0 is
// allowed twice the upper-layer budget, as in the reference algorithm.
func (ix *Index) maxConnections(l int) int {
	if l == 0 {
		return ix.cfg.M * 2
	}
	return ix.cfg.M
}

// connect links to -> from on layer l and prunes the neighbor list back
// to the layer budget with the diversity heuristic.
func (ix *Index) connect(to, from int, l int) {
	n := ix.nodes[to]
	n.neighbors[l] = append(n.neighbors[l], from)

	budget := ix.maxConnections(l)
	if len(n.neighbors[l]) <= budget {
		return
	}

	candidates := make([]candidate, 0, len(n.neighbors[l]))
	for _, nb := range n.neighbors[l] {
		candidates = append(candidates, candidate{
			idx:  nb,
			dist: cosineDistance(ix.nodes[nb].vec, n.vec),
		})
	}
	sortCandidates(candidates)
	selected := ix.selectNeighbors(n.vec, candidates, budget)

	pruned := make([]int, 0, len(selected))
	for _, c := range selected {
		pruned = append(pruned, c.idx)
	}
	n.neighbors[l] = pruned
}

// selectNeighbors applies the diversity heuristic: a candidate is kept
// only if it is closer to the query than to every already-selected
// neighbor, which avoids tightly clustered neighbor lists. Candidates
// must be sorted by ascending distance.
func (ix *Index) selectNeighbors(q []float32, candidates []candidate, m int) []candidate {
	if m <= 0 || len(candidates) == 0 {
		return nil
	}
	selected := make([]candidate, 0, m)
	for _, c := range candidates {
		if len(selected) >= m {
			break
		}
		keep := true
		for _, s := range selected {
			if cosineDistance(ix.nodes[c.idx].vec, ix.nodes[s.idx].vec) < c.dist {
				keep = false
				break
			}
		}
		if keep {
			selected = append(selected, c)
		}
	}
	// Backfill with the closest skipped candidates if the heuristic was
	// too aggressive to fill the budget.
	if len(selected) < m {
		for _, c := range candidates {
			if len(selected) >= m {
				break
			}
			if !containsIdx(selected, c.idx) {
				selected = append(selected, c)
			}
		}
		sortCandidates(selected)
	}
	return selected
}

func containsIdx(cs []candidate, idx int) bool {
	for _, c := range cs {
		if c.idx == idx {
			return true
		}
	}
	return false
}
