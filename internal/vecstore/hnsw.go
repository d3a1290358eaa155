package vecstore

import (
	"container/heap"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/dshills/ragcontext-mcp/pkg/types"
)

// HNSW graph parameters. Tuned for recall over build speed on document
// collections up to the low millions.
const (
	hnswM              = 32
	hnswEfConstruction = 200
	hnswEfSearch       = 96
)

// HNSWIndex is an approximate nearest-neighbor Store built on a
// hierarchical navigable small world graph. Vectors are L2-normalized
// on insert so inner product equals cosine similarity. Safe for
// concurrent use.
type HNSWIndex struct {
	mu sync.RWMutex

	m              int
	efConstruction int
	efSearch       int
	levelMult      float64

	dim      int
	nodes    []*hnswNode
	byID     map[string]int
	entry    int
	maxLevel int
	rng      *rand.Rand
}

type hnswNode struct {
	doc       types.VectorDoc
	vec       []float32 // normalized
	level     int
	neighbors [][]int
}

// NewHNSWIndex creates an empty index with default parameters.
func NewHNSWIndex() *HNSWIndex {
	return &HNSWIndex{
		m:              hnswM,
		efConstruction: hnswEfConstruction,
		efSearch:       hnswEfSearch,
		levelMult:      1 / math.Log(float64(hnswM)),
		byID:           make(map[string]int),
		entry:          -1,
		rng:            rand.New(rand.NewSource(1)),
	}
}

func (h *HNSWIndex) Upsert(_ context.Context, docs []types.VectorDoc) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, doc := range docs {
		if doc.ID == "" {
			return types.ErrEmptyID
		}
		if len(doc.Embedding) == 0 {
			return fmt.Errorf("%w: document %s", types.ErrEmptyEmbedding, doc.ID)
		}
		if h.dim == 0 {
			h.dim = len(doc.Embedding)
		}
		if len(doc.Embedding) != h.dim {
			return fmt.Errorf("%w: document %s has dim %d, index has %d",
				types.ErrDimensionMismatch, doc.ID, len(doc.Embedding), h.dim)
		}

		vec := normalize(doc.Embedding)
		if idx, ok := h.byID[doc.ID]; ok {
			// Replace in place. Graph edges stay; they were built for
			// the old vector, which is fine for an approximate index.
			h.nodes[idx].doc = doc
			h.nodes[idx].vec = vec
			continue
		}
		h.insert(doc, vec)
	}
	return nil
}

func (h *HNSWIndex) insert(doc types.VectorDoc, vec []float32) {
	level := int(math.Floor(-math.Log(h.rng.Float64()) * h.levelMult))
	node := &hnswNode{
		doc:       doc,
		vec:       vec,
		level:     level,
		neighbors: make([][]int, level+1),
	}
	idx := len(h.nodes)
	h.nodes = append(h.nodes, node)
	h.byID[doc.ID] = idx

	if h.entry < 0 {
		h.entry = idx
		h.maxLevel = level
		return
	}

	ep := h.entry
	// Greedy descent through levels above the new node's level.
	for l := h.maxLevel; l > level; l-- {
		ep = h.greedyClosest(vec, ep, l)
	}

	// Connect at each shared level, top down.
	top := level
	if top > h.maxLevel {
		top = h.maxLevel
	}
	for l := top; l >= 0; l-- {
		candidates := h.searchLayer(vec, []int{ep}, h.efConstruction, l)
		neighbors := h.selectClosest(candidates, h.m)
		node.neighbors[l] = neighbors
		maxConn := h.m
		if l == 0 {
			maxConn = 2 * h.m
		}
		for _, n := range neighbors {
			h.nodes[n].neighbors[l] = append(h.nodes[n].neighbors[l], idx)
			if len(h.nodes[n].neighbors[l]) > maxConn {
				h.nodes[n].neighbors[l] = h.shrink(h.nodes[n].vec, h.nodes[n].neighbors[l], maxConn)
			}
		}
		if len(candidates) > 0 {
			ep = candidates[0].idx
		}
	}

	if level > h.maxLevel {
		h.maxLevel = level
		h.entry = idx
	}
}

// greedyClosest walks level l toward the node most similar to vec.
func (h *HNSWIndex) greedyClosest(vec []float32, start, l int) int {
	cur := start
	curSim := dot(vec, h.nodes[cur].vec)
	for {
		improved := false
		for _, n := range h.nodes[cur].neighbors[l] {
			if sim := dot(vec, h.nodes[n].vec); sim > curSim {
				cur, curSim = n, sim
				improved = true
			}
		}
		if !improved {
			return cur
		}
	}
}

// searchLayer is a best-first beam search over one level. Returned
// candidates are sorted best first.
func (h *HNSWIndex) searchLayer(vec []float32, entryPoints []int, ef, l int) []simItem {
	visited := make(map[int]bool, ef*4)
	candidates := &maxSimHeap{}
	results := &minSimHeap{}
	heap.Init(candidates)
	heap.Init(results)

	for _, ep := range entryPoints {
		if visited[ep] {
			continue
		}
		visited[ep] = true
		item := simItem{idx: ep, sim: dot(vec, h.nodes[ep].vec)}
		heap.Push(candidates, item)
		heap.Push(results, item)
	}

	for candidates.Len() > 0 {
		cur := heap.Pop(candidates).(simItem)
		if results.Len() >= ef && cur.sim < (*results)[0].sim {
			break
		}
		for _, n := range h.nodes[cur.idx].neighbors[l] {
			if visited[n] {
				continue
			}
			visited[n] = true
			sim := dot(vec, h.nodes[n].vec)
			if results.Len() < ef || sim > (*results)[0].sim {
				item := simItem{idx: n, sim: sim}
				heap.Push(candidates, item)
				heap.Push(results, item)
				if results.Len() > ef {
					heap.Pop(results)
				}
			}
		}
	}

	out := make([]simItem, results.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(results).(simItem)
	}
	return out
}

func (h *HNSWIndex) selectClosest(candidates []simItem, m int) []int {
	if len(candidates) > m {
		candidates = candidates[:m]
	}
	out := make([]int, len(candidates))
	for i, c := range candidates {
		out[i] = c.idx
	}
	return out
}

func (h *HNSWIndex) shrink(vec []float32, neighbors []int, maxConn int) []int {
	items := make([]simItem, len(neighbors))
	for i, n := range neighbors {
		items[i] = simItem{idx: n, sim: dot(vec, h.nodes[n].vec)}
	}
	sortBySimDesc(items)
	return h.selectClosest(items, maxConn)
}

func (h *HNSWIndex) Query(_ context.Context, embedding []float32, topK int) ([]types.Retrieved, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.entry < 0 {
		return nil, nil
	}
	if h.dim != 0 && len(embedding) != h.dim {
		return nil, fmt.Errorf("%w: query has dim %d, index has %d",
			types.ErrDimensionMismatch, len(embedding), h.dim)
	}
	if topK < 1 {
		topK = 1
	}

	vec := normalize(embedding)
	ep := h.entry
	for l := h.maxLevel; l > 0; l-- {
		ep = h.greedyClosest(vec, ep, l)
	}
	ef := h.efSearch
	if topK > ef {
		ef = topK
	}
	candidates := h.searchLayer(vec, []int{ep}, ef, 0)
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	out := make([]types.Retrieved, len(candidates))
	for i, c := range candidates {
		node := h.nodes[c.idx]
		out[i] = types.Retrieved{
			ID:        node.doc.ID,
			Score:     c.sim,
			Text:      node.doc.Text,
			Meta:      node.doc.Meta,
			Embedding: node.doc.Embedding,
		}
	}
	return out, nil
}

func (h *HNSWIndex) Clear(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dim = 0
	h.nodes = nil
	h.byID = make(map[string]int)
	h.entry = -1
	h.maxLevel = 0
	return nil
}

func (h *HNSWIndex) Dim() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dim
}

func (h *HNSWIndex) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.nodes)
}

// hnswSnapshot is the JSON persistence format.
type hnswSnapshot struct {
	M              int             `json:"m"`
	EfConstruction int             `json:"ef_construction"`
	EfSearch       int             `json:"ef_search"`
	Dim            int             `json:"dim"`
	Entry          int             `json:"entry"`
	MaxLevel       int             `json:"max_level"`
	Nodes          []hnswNodeJSON  `json:"nodes"`
}

type hnswNodeJSON struct {
	Doc       types.VectorDoc `json:"doc"`
	Vec       []float32       `json:"vec"`
	Level     int             `json:"level"`
	Neighbors [][]int         `json:"neighbors"`
}

// Save writes the index to path, creating parent directories as needed.
func (h *HNSWIndex) Save(path string) error {
	h.mu.RLock()
	snap := hnswSnapshot{
		M:              h.m,
		EfConstruction: h.efConstruction,
		EfSearch:       h.efSearch,
		Dim:            h.dim,
		Entry:          h.entry,
		MaxLevel:       h.maxLevel,
		Nodes:          make([]hnswNodeJSON, len(h.nodes)),
	}
	for i, n := range h.nodes {
		snap.Nodes[i] = hnswNodeJSON{Doc: n.doc, Vec: n.vec, Level: n.level, Neighbors: n.neighbors}
	}
	h.mu.RUnlock()

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode index: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}
	return os.Rename(tmp, path)
}

// LoadHNSWIndex reads an index previously written by Save.
func LoadHNSWIndex(path string) (*HNSWIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}
	var snap hnswSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode index: %w", err)
	}

	h := NewHNSWIndex()
	if snap.M > 0 {
		h.m = snap.M
		h.levelMult = 1 / math.Log(float64(snap.M))
	}
	if snap.EfConstruction > 0 {
		h.efConstruction = snap.EfConstruction
	}
	if snap.EfSearch > 0 {
		h.efSearch = snap.EfSearch
	}
	h.dim = snap.Dim
	h.entry = snap.Entry
	h.maxLevel = snap.MaxLevel
	h.nodes = make([]*hnswNode, len(snap.Nodes))
	for i, n := range snap.Nodes {
		h.nodes[i] = &hnswNode{doc: n.Doc, vec: n.Vec, level: n.Level, neighbors: n.Neighbors}
		h.byID[n.Doc.ID] = i
	}
	return h, nil
}

type simItem struct {
	idx int
	sim float32
}

// maxSimHeap pops the most similar item first.
type maxSimHeap []simItem

func (h maxSimHeap) Len() int            { return len(h) }
func (h maxSimHeap) Less(i, j int) bool  { return h[i].sim > h[j].sim }
func (h maxSimHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *maxSimHeap) Push(x interface{}) { *h = append(*h, x.(simItem)) }
func (h *maxSimHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// minSimHeap pops the least similar item first.
type minSimHeap []simItem

func (h minSimHeap) Len() int            { return len(h) }
func (h minSimHeap) Less(i, j int) bool  { return h[i].sim < h[j].sim }
func (h minSimHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *minSimHeap) Push(x interface{}) { *h = append(*h, x.(simItem)) }
func (h *minSimHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

func sortBySimDesc(items []simItem) {
	sort.SliceStable(items, func(i, j int) bool { return items[i].sim > items[j].sim })
}

func dot(a, b []float32) float32 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return float32(sum)
}

// normalize returns a unit-length copy of v. Zero vectors come back
// zero-length in magnitude, not nil.
func normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	norm := vectorNorm(v)
	if norm == 0 {
		copy(out, v)
		return out
	}
	inv := 1 / norm
	for i, x := range v {
		out[i] = x * inv
	}
	return out
}
