package geo

import (
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// Index is a static k-d tree over embedded points. Each point keeps the
// integer id it was inserted with so callers can map hits back to records.
// An Index is read-only after NewIndex and safe for concurrent queries.
type Index struct {
	tree *kdtree.Tree
	size int
}

// NewIndex builds an index where point i carries id i.
func NewIndex(points []Vec3) *Index {
	if len(points) == 0 {
		return &Index{}
	}
	ns := make(nodes, len(points))
	for i, p := range points {
		ns[i] = node{pos: p, id: i}
	}
	return &Index{tree: kdtree.New(ns, false), size: len(points)}
}

// Len reports the number of indexed points.
func (x *Index) Len() int {
	return x.size
}

// Nearest returns the id of the point closest to q and its chord distance.
// ok is false for an empty index.
func (x *Index) Nearest(q Vec3) (id int, dist float64, ok bool) {
	if x.tree == nil {
		return 0, 0, false
	}
	c, _ := x.tree.Nearest(node{pos: q, id: -1})
	if c == nil {
		return 0, 0, false
	}
	n := c.(node)
	return n.id, Chord(q, n.pos), true
}

// NearestAll queries every point in qs, returning parallel id and distance
// slices. Entries are -1 and +Inf when the index is empty.
func (x *Index) NearestAll(qs []Vec3) ([]int, []float64) {
	ids := make([]int, len(qs))
	dists := make([]float64, len(qs))
	for i, q := range qs {
		id, d, ok := x.Nearest(q)
		if !ok {
			ids[i], dists[i] = -1, math.Inf(1)
			continue
		}
		ids[i], dists[i] = id, d
	}
	return ids, dists
}

// node implements kdtree.Comparable.
type node struct {
	pos Vec3
	id  int
}

func (n node) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return n.pos[d] - c.(node).pos[d]
}

func (n node) Dims() int { return 3 }

func (n node) Distance(c kdtree.Comparable) float64 {
	return squaredDistance(n.pos, c.(node).pos)
}

// nodes implements kdtree.Interface.
type nodes []node

func (p nodes) Index(i int) kdtree.Comparable { return p[i] }
func (p nodes) Len() int                      { return len(p) }
func (p nodes) Slice(start, end int) kdtree.Interface {
	return p[start:end]
}

func (p nodes) Pivot(d kdtree.Dim) int {
	return plane{nodes: p, dim: d}.Pivot()
}

// plane sorts nodes along one dimension for median selection.
type plane struct {
	nodes
	dim kdtree.Dim
}

func (p plane) Less(i, j int) bool {
	return p.nodes[i].pos[p.dim] < p.nodes[j].pos[p.dim]
}

func (p plane) Swap(i, j int) {
	p.nodes[i], p.nodes[j] = p.nodes[j], p.nodes[i]
}

func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.nodes = p.nodes[start:end]
	return p
}

func (p plane) Pivot() int {
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}
