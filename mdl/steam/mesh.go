// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package steam

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/gm"
)

// Vertex is one single-phase steam-table row, located in the mesh's working
// coordinates (log10 v, u/1e6) alongside its physical values.
type Vertex struct {
	X, Y       float64 // log10(v), u/1e6 — the coordinates actually triangulated
	T, P       float64 // K, Pa
	PhaseHint  string  // the table's original phase label, for vertex-agreement checks
}

// Triangle indexes three Mesh.Vertices by position.
type Triangle struct {
	A, B, C int
	Neighbors [3]int // neighbor sharing edge (B,C), (C,A), (A,B) respectively; -1 if none
}

// Mesh is the immutable Delaunay triangulation of the single-phase rows,
// built once at steam-table load time; no runtime
// retriangulation ever happens.
type Mesh struct {
	Vertices  []Vertex
	Triangles []Triangle
	bins      *gm.Bins // spatial index over triangle centroids, for a cold-cache start
}

// BuildMesh triangulates the single-phase rows with an incremental
// Bowyer-Watson algorithm in (log10 v, u/1e6) coordinates, then precomputes
// neighbor adjacency and a centroid spatial index for locate-from-cold-start.
func BuildMesh(t *Table) (*Mesh, error) {
	if len(t.SinglePhase) < 3 {
		return nil, chk.Err("steam: need at least 3 single-phase rows to build a mesh, got %d", len(t.SinglePhase))
	}
	m := &Mesh{}
	for _, row := range t.SinglePhase {
		_, tk, v, u, _ := row.SI()
		if v <= 0 {
			return nil, chk.Err("steam: single-phase row has non-positive specific volume %g", v)
		}
		m.Vertices = append(m.Vertices, Vertex{
			X: math.Log10(v), Y: u / 1e6, T: tk, P: row.PMPa * 1e6, PhaseHint: row.Phase,
		})
	}
	m.Triangles = bowyerWatson(m.Vertices)
	if len(m.Triangles) == 0 {
		return nil, chk.Err("steam: triangulation produced no triangles")
	}
	linkNeighbors(m.Triangles)
	m.buildBins()
	return m, nil
}

// buildBins indexes triangle centroids in a gosl/gm.Bins spatial structure so
// Locate can pick a reasonable start triangle on a cold cache miss, grounded
// on the donor's out.NodBins/out.IpsBins use of gm.Bins for nearest-point
// search over integration points.
func (m *Mesh) buildBins() {
	xmin, xmax := []float64{math.Inf(1), math.Inf(1)}, []float64{math.Inf(-1), math.Inf(-1)}
	cx := make([]float64, len(m.Triangles))
	cy := make([]float64, len(m.Triangles))
	for i, tri := range m.Triangles {
		a, b, c := m.Vertices[tri.A], m.Vertices[tri.B], m.Vertices[tri.C]
		cx[i] = (a.X + b.X + c.X) / 3
		cy[i] = (a.Y + b.Y + c.Y) / 3
		xmin[0], xmin[1] = math.Min(xmin[0], cx[i]), math.Min(xmin[1], cy[i])
		xmax[0], xmax[1] = math.Max(xmax[0], cx[i]), math.Max(xmax[1], cy[i])
	}
	ndiv := []int{32, 32}
	bins := gm.NewBins(xmin, xmax, ndiv)
	for i := range m.Triangles {
		bins.Append([]float64{cx[i], cy[i]}, i)
	}
	m.bins = bins
}

// Hint is the advisory "last triangle" cache a caller may pass to Locate. It
// is purely a performance hint and never affects correctness.
type Hint struct {
	LastTriangle int
}

// Locate finds the triangle containing (x,y) by walking from hint.LastTriangle
// (or from the nearest centroid in the bins index on a cold/invalid hint),
// stepping across the edge the point lies beyond each time. Returns an error
// if (x,y) falls outside the triangulated hull: a fatal "mesh miss" the
// caller must surface, not paper over.
func (m *Mesh) Locate(x, y float64, hint *Hint) (triIdx int, bary [3]float64, err error) {
	start := 0
	if hint != nil && hint.LastTriangle >= 0 && hint.LastTriangle < len(m.Triangles) {
		start = hint.LastTriangle
	} else if m.bins != nil {
		if id, _ := m.bins.FindClosest([]float64{x, y}); id >= 0 {
			start = id
		}
	}

	const maxSteps = 10_000
	cur := start
	visited := make(map[int]bool)
	for step := 0; step < maxSteps; step++ {
		if cur < 0 || cur >= len(m.Triangles) {
			return 0, bary, chk.Err("steam: mesh location walked off the triangulation near (%g, %g)", x, y)
		}
		if visited[cur] {
			// walking in circles; fall back to a linear scan before failing.
			if idx, b, ok := m.linearLocate(x, y); ok {
				if hint != nil {
					hint.LastTriangle = idx
				}
				return idx, b, nil
			}
			return 0, bary, chk.Err("steam: single-phase point (%g, %g) is outside the triangulation", x, y)
		}
		visited[cur] = true

		tri := m.Triangles[cur]
		b, ok := m.barycentric(tri, x, y)
		if ok {
			if hint != nil {
				hint.LastTriangle = cur
			}
			return cur, b, nil
		}
		// step toward the most-negative barycentric coordinate's opposite edge
		next := cur
		worst := 0.0
		for i, coord := range b {
			if coord < worst {
				worst = coord
				next = tri.Neighbors[i]
			}
		}
		if next < 0 {
			return 0, bary, chk.Err("steam: single-phase point (%g, %g) is outside the triangulation", x, y)
		}
		cur = next
	}
	return 0, bary, chk.Err("steam: mesh location exceeded %d steps near (%g, %g)", maxSteps, x, y)
}

// linearLocate is the exhaustive fallback used only when the walk cycles;
// kept deliberately simple (O(n)) since it is never the hot path.
func (m *Mesh) linearLocate(x, y float64) (int, [3]float64, bool) {
	for i, tri := range m.Triangles {
		if b, ok := m.barycentric(tri, x, y); ok {
			return i, b, true
		}
	}
	return 0, [3]float64{}, false
}

// barycentric computes the barycentric weights of (x,y) in triangle tri and
// reports whether the point lies inside it (all weights within a small
// negative tolerance of zero).
func (m *Mesh) barycentric(tri Triangle, x, y float64) ([3]float64, bool) {
	a, b, c := m.Vertices[tri.A], m.Vertices[tri.B], m.Vertices[tri.C]
	det := (b.Y-c.Y)*(a.X-c.X) + (c.X-b.X)*(a.Y-c.Y)
	if math.Abs(det) < 1e-15 {
		return [3]float64{}, false
	}
	w1 := ((b.Y-c.Y)*(x-c.X) + (c.X-b.X)*(y-c.Y)) / det
	w2 := ((c.Y-a.Y)*(x-c.X) + (a.X-c.X)*(y-c.Y)) / det
	w3 := 1 - w1 - w2
	const tol = 1e-9
	if w1 < -tol || w2 < -tol || w3 < -tol {
		return [3]float64{w1, w2, w3}, false
	}
	return [3]float64{w1, w2, w3}, true
}

// InterpT and InterpP return barycentric-weighted vertex values for T and P
// inside the located triangle.
func (m *Mesh) InterpT(tri Triangle, bary [3]float64) float64 {
	a, b, c := m.Vertices[tri.A], m.Vertices[tri.B], m.Vertices[tri.C]
	return bary[0]*a.T + bary[1]*b.T + bary[2]*c.T
}

func (m *Mesh) InterpP(tri Triangle, bary [3]float64) float64 {
	a, b, c := m.Vertices[tri.A], m.Vertices[tri.B], m.Vertices[tri.C]
	return bary[0]*a.P + bary[1]*b.P + bary[2]*c.P
}

// VertexPhasesAgree reports whether all three vertices of tri share the same
// phase hint (liquid vs vapor), used to decide whether a single-phase
// location is nominally supercritical.
func (m *Mesh) VertexPhasesAgree(tri Triangle) bool {
	a, b, c := m.Vertices[tri.A].PhaseHint, m.Vertices[tri.B].PhaseHint, m.Vertices[tri.C].PhaseHint
	return a == b && b == c
}
