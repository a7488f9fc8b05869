package hnsw

import (
	"encoding/gob"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/ticketwise/backend/internal/util"
)

// artifactFormat is bumped when the on-disk layout changes.
const artifactFormat = 1

type persistedNode struct {
	ID        string
	Vec       []float32
	Level     int
	Deleted   bool
	Neighbors [][]int
}

type persistedIndex struct {
	Format       int
	ModelVersion string
	Config       Config
	BuiltAt      time.Time
	Nodes        []persistedNode
	Entry        int
	MaxLevel     int
}

// Save writes the full graph (embeddings, adjacency lists, entry point,
// layer assignments) to w, keyed by the embedding model version.
func (ix *Index) Save(w io.Writer) error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	p := persistedIndex{
		Format:       artifactFormat,
		ModelVersion: ix.modelVersion,
		Config:       ix.cfg,
		BuiltAt:      ix.builtAt,
		Nodes:        make([]persistedNode, len(ix.nodes)),
		Entry:        ix.entry,
		MaxLevel:     ix.maxLevel,
	}
	for i, n := range ix.nodes {
		p.Nodes[i] = persistedNode{
			ID:        n.id,
			Vec:       n.vec,
			Level:     n.level,
			Deleted:   n.deleted,
			Neighbors: n.neighbors,
		}
	}

	if err := gob.NewEncoder(w).Encode(p); err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	return nil
}

// SaveFile persists the index to path via a uniquely named temporary
// file and rename, so a crashed save never leaves a truncated artifact
// behind and concurrent saves never share a temp file.
func (ix *Index) SaveFile(path string) error {
	artifactID, err := util.NewArtifactID()
	if err != nil {
		return fmt.Errorf("artifact id: %w", err)
	}
	tmp := fmt.Sprintf("%s.%s.tmp", path, artifactID)
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create artifact: %w", err)
	}
	if err := ix.Save(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close artifact: %w", err)
	}
	return os.Rename(tmp, path)
}

// Load reads a persisted index from r. modelVersion must match the
// version the artifact was built under; a mismatch is an error, not a
// silent acceptance, because mixed-model scores are meaningless.
func Load(r io.Reader, modelVersion string) (*Index, error) {
	var p persistedIndex
	if err := gob.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}
	if p.Format != artifactFormat {
		return nil, fmt.Errorf("unsupported index artifact format %d", p.Format)
	}
	if p.ModelVersion != modelVersion {
		return nil, fmt.Errorf("%w: artifact built under %q, runtime uses %q",
			ErrVersionMismatch, p.ModelVersion, modelVersion)
	}

	ix := New(p.Config, p.ModelVersion)
	ix.builtAt = p.BuiltAt
	ix.entry = p.Entry
	ix.maxLevel = p.MaxLevel
	ix.nodes = make([]*node, len(p.Nodes))
	for i, pn := range p.Nodes {
		ix.nodes[i] = &node{
			id:        pn.ID,
			vec:       pn.Vec,
			level:     pn.Level,
			deleted:   pn.Deleted,
			neighbors: pn.Neighbors,
		}
		ix.byID[pn.ID] = i
		if !pn.Deleted {
			ix.live++
		}
	}
	// Continue the RNG from a node-count dependent offset so inserts after
	// a load do not replay the same level sequence from scratch.
	ix.rng = rand.New(rand.NewSource(p.Config.Seed + int64(len(p.Nodes))))
	return ix, nil
}

// LoadFile reads a persisted index from path.
func LoadFile(path, modelVersion string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()
	return Load(f, modelVersion)
}
