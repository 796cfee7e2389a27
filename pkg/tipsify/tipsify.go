// Package tipsify simulates a post-transform vertex cache and reorders triangle
// lists to reduce cache misses (Sander, Nehab and Barczak, "Fast Triangle
// Reordering for Vertex Locality and Reduced Overdraw", 2007).
package tipsify

import (
	"errors"
	"fmt"
)

// DefaultCacheSize is the vertex cache size assumed when none is given.
const DefaultCacheSize = 24

// Tipsify errors.
var (
	ErrIndexCount   = errors.New("index count is not a multiple of 3")
	ErrCacheSize    = errors.New("cache size must be at least 3")
	ErrMaximumIndex = errors.New("index exceeds maximum index")
)

// MaximumIndex returns the largest value in indices, or -1 for an empty list.
func MaximumIndex(indices []uint32) int {
	maximum := -1
	for _, idx := range indices {
		if int(idx) > maximum {
			maximum = int(idx)
		}
	}
	return maximum
}

func validate(indices []uint32, maximumIndex, cacheSize int) (int, error) {
	if len(indices)%3 != 0 {
		return 0, fmt.Errorf("%w: %d indices", ErrIndexCount, len(indices))
	}
	if cacheSize < 3 {
		return 0, fmt.Errorf("%w: got %d", ErrCacheSize, cacheSize)
	}
	actual := MaximumIndex(indices)
	if maximumIndex < 0 {
		return actual, nil
	}
	if actual > maximumIndex {
		return 0, fmt.Errorf("%w: %d > %d", ErrMaximumIndex, actual, maximumIndex)
	}
	return maximumIndex, nil
}

// CalculateACMR replays indices through a FIFO vertex cache holding cacheSize
// vertices and returns the average cache miss ratio: misses per triangle.
// A negative maximumIndex is derived from the list. An empty list yields 0.
func CalculateACMR(indices []uint32, maximumIndex, cacheSize int) (float64, error) {
	maximumIndex, err := validate(indices, maximumIndex, cacheSize)
	if err != nil {
		return 0, err
	}
	if len(indices) == 0 {
		return 0, nil
	}

	// A vertex is cached while fewer than cacheSize misses happened since it was loaded.
	stamps := make([]int, maximumIndex+1)
	s := cacheSize + 1
	misses := 0
	for _, idx := range indices {
		if s-stamps[idx] > cacheSize {
			stamps[idx] = s
			s++
			misses++
		}
	}
	return float64(misses) / float64(len(indices)/3), nil
}

// Reorder returns a new index list holding the same triangles in an order that
// favours reuse of recently transformed vertices. Vertex numbering and each
// triangle's winding are preserved.
//
// Reorder is a heuristic: on lists that are already cache friendly, or with
// large caches, the result can have a higher ACMR than the input. Callers that
// must never lose should compare with CalculateACMR, as
// filters.ReorderForPostVertexCache does.
func Reorder(indices []uint32, maximumIndex, cacheSize int) ([]uint32, error) {
	maximumIndex, err := validate(indices, maximumIndex, cacheSize)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, 0, len(indices))
	if len(indices) == 0 {
		return out, nil
	}

	adj := newAdjacency(indices, maximumIndex+1)
	r := &reorderer{
		adj:       adj,
		indices:   indices,
		cacheSize: cacheSize,
		stamps:    make([]int, adj.numVertices),
		emitted:   make([]bool, len(indices)/3),
		deadEnd:   make([]uint32, 0, 3*cacheSize),
		ring:      make([]uint32, 0, 3*cacheSize),
		s:         cacheSize + 1,
	}

	for f := r.skipDeadEnd(); f >= 0; f = r.nextVertex() {
		r.ring = r.ring[:0]
		for _, t := range adj.triangles(uint32(f)) {
			if r.emitted[t] {
				continue
			}
			r.emitted[t] = true
			for k := 0; k < 3; k++ {
				v := indices[3*int(t)+k]
				out = append(out, v)
				r.ring = append(r.ring, v)
				r.deadEnd = append(r.deadEnd, v)
				adj.live[v]--
				if r.s-r.stamps[v] > cacheSize {
					r.stamps[v] = r.s
					r.s++
				}
			}
		}
	}
	return out, nil
}

// adjacency is a vertex -> triangle table in compressed row form.
// The triangles using vertex v are tris[offsets[v]:offsets[v+1]].
type adjacency struct {
	numVertices int
	offsets     []int32
	tris        []int32
	live        []int32 // adjacent triangles not yet emitted
}

func newAdjacency(indices []uint32, numVertices int) *adjacency {
	a := &adjacency{
		numVertices: numVertices,
		offsets:     make([]int32, numVertices+1),
		tris:        make([]int32, len(indices)),
		live:        make([]int32, numVertices),
	}
	for _, v := range indices {
		a.offsets[v+1]++
	}
	for v := 1; v <= numVertices; v++ {
		a.offsets[v] += a.offsets[v-1]
	}

	fill := make([]int32, numVertices)
	copy(fill, a.offsets[:numVertices])
	for i, v := range indices {
		a.tris[fill[v]] = int32(i / 3)
		fill[v]++
	}
	for v := 0; v < numVertices; v++ {
		a.live[v] = a.offsets[v+1] - a.offsets[v]
	}
	return a
}

func (a *adjacency) triangles(v uint32) []int32 {
	return a.tris[a.offsets[v]:a.offsets[v+1]]
}

type reorderer struct {
	adj       *adjacency
	indices   []uint32
	cacheSize int
	stamps    []int
	emitted   []bool
	deadEnd   []uint32
	ring      []uint32 // vertices of the triangles emitted for the current fan
	s         int      // cache time stamp
	cursor    int
}

// nextVertex picks the next fanning vertex from the last fan's one-ring.
// A vertex scores its age in the cache when it will still be cached after its
// remaining triangles are emitted, and 0 otherwise; the highest score wins,
// then fewer live triangles, then the lower vertex index.
func (r *reorderer) nextVertex() int {
	best := -1
	bestScore := -1
	for _, v := range r.ring {
		live := int(r.adj.live[v])
		if live == 0 {
			continue
		}
		score := 0
		if age := r.s - r.stamps[v]; age+2*live <= r.cacheSize {
			score = age
		}
		if best == -1 || score > bestScore ||
			(score == bestScore && live < int(r.adj.live[best])) ||
			(score == bestScore && live == int(r.adj.live[best]) && int(v) < best) {
			best = int(v)
			bestScore = score
		}
	}
	if best == -1 {
		return r.skipDeadEnd()
	}
	return best
}

// skipDeadEnd pops recently used vertices until one still has live triangles,
// then falls back to a forward scan over all vertices.
func (r *reorderer) skipDeadEnd() int {
	for len(r.deadEnd) > 0 {
		v := r.deadEnd[len(r.deadEnd)-1]
		r.deadEnd = r.deadEnd[:len(r.deadEnd)-1]
		if r.adj.live[v] > 0 {
			return int(v)
		}
	}
	for r.cursor < r.adj.numVertices {
		v := r.cursor
		r.cursor++
		if r.adj.live[v] > 0 {
			return v
		}
	}
	return -1
}
