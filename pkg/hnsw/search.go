package hnsw

import (
	"container/heap"
	"fmt"
	"sort"
)

// Hit is a single search result: the ticket id and its similarity score
// in [0,1], where 1 is an exact match.
type Hit struct {
	ID    string
	Score float32
}

type candidate struct {
	idx  int
	dist float32
}

func sortCandidates(cs []candidate) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].dist != cs[j].dist {
			return cs[i].dist < cs[j].dist
		}
		return cs[i].idx < cs[j].idx
	})
}

// nearHeap is a min-heap by distance (closest candidate on top).
type nearHeap []candidate

func (h nearHeap) Len() int            { return len(h) }
func (h nearHeap) Less(i, j int) bool  { return h[i].dist < h[j].dist }
func (h nearHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *nearHeap) Push(x any)         { *h = append(*h, x.(candidate)) }
func (h *nearHeap) Pop() any           { old := *h; n := len(old); c := old[n-1]; *h = old[:n-1]; return c }

// farHeap is a max-heap by distance (furthest result on top), used to
// bound the best-first result set at ef entries.
type farHeap []candidate

func (h farHeap) Len() int            { return len(h) }
func (h farHeap) Less(i, j int) bool  { return h[i].dist > h[j].dist }
func (h farHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *farHeap) Push(x any)         { *h = append(*h, x.(candidate)) }
func (h *farHeap) Pop() any           { old := *h; n := len(old); c := old[n-1]; *h = old[:n-1]; return c }

// searchLayer runs a best-first local search on layer l from the entry
// index, keeping the ef closest nodes found. Results are returned sorted
// by ascending distance. Tombstoned nodes are traversed (they keep the
// graph connected) and filtered by the caller.
func (ix *Index) searchLayer(entry int, q []float32, ef, l int) []candidate {
	visited := map[int]bool{entry: true}

	start := candidate{idx: entry, dist: cosineDistance(ix.nodes[entry].vec, q)}
	candidates := nearHeap{start}
	results := farHeap{start}

	for candidates.Len() > 0 {
		c := heap.Pop(&candidates).(candidate)
		if c.dist > results[0].dist && results.Len() >= ef {
			break
		}
		for _, nb := range ix.neighborsAt(c.idx, l) {
			if visited[nb] {
				continue
			}
			visited[nb] = true
			d := cosineDistance(ix.nodes[nb].vec, q)
			if results.Len() < ef || d < results[0].dist {
				heap.Push(&candidates, candidate{idx: nb, dist: d})
				heap.Push(&results, candidate{idx: nb, dist: d})
				if results.Len() > ef {
					heap.Pop(&results)
				}
			}
		}
	}

	out := make([]candidate, len(results))
	copy(out, results)
	sortCandidates(out)
	return out
}

// Search returns up to k nearest live neighbors of the query vector,
// ordered by descending similarity, ties broken by ascending id. An
// empty index yields an empty result, never an error. ef is clamped to
// at least k; pass 0 to use the configured default.
func (ix *Index) Search(query []float32, k, ef int) ([]Hit, error) {
	if len(query) != ix.cfg.Dimension {
		return nil, fmt.Errorf("%w: got %d want %d", ErrDimensionMismatch, len(query), ix.cfg.Dimension)
	}
	if k <= 0 {
		return []Hit{}, nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.entry < 0 {
		return []Hit{}, nil
	}
	if ef <= 0 {
		ef = ix.cfg.EfSearch
	}
	if ef < k {
		ef = k
	}

	cur := ix.entry
	for l := ix.maxLevel; l > 0; l-- {
		cur = ix.greedyClosest(cur, query, l)
	}

	found := ix.searchLayer(cur, query, ef, 0)

	hits := make([]Hit, 0, k)
	for _, c := range found {
		if ix.nodes[c.idx].deleted {
			continue
		}
		hits = append(hits, Hit{
			ID:    ix.nodes[c.idx].id,
			Score: SimilarityFromDistance(c.dist),
		})
		if len(hits) == k {
			break
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
	return hits, nil
}
