// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package steam

import "math"

// bowyerWatson triangulates verts with the classic incremental Bowyer-Watson
// algorithm: start from a super-triangle enclosing every point, insert points
// one at a time, and retriangulate the cavity of triangles whose circumcircle
// contains the new point. Triangles touching the super-triangle are discarded
// at the end.
func bowyerWatson(verts []Vertex) []Triangle {
	n := len(verts)
	xmin, xmax, ymin, ymax := verts[0].X, verts[0].X, verts[0].Y, verts[0].Y
	for _, v := range verts {
		xmin, xmax = math.Min(xmin, v.X), math.Max(xmax, v.X)
		ymin, ymax = math.Min(ymin, v.Y), math.Max(ymax, v.Y)
	}
	dx, dy := xmax-xmin, ymax-ymin
	if dx == 0 {
		dx = 1
	}
	if dy == 0 {
		dy = 1
	}
	mid := dmax(dx, dy)
	cx, cy := (xmin+xmax)/2, (ymin+ymax)/2

	// super-triangle vertices, appended after the real points so their
	// indices are known and stable throughout the incremental build.
	superA := len(verts)
	superB := superA + 1
	superC := superA + 2
	work := append([]Vertex{}, verts...)
	work = append(work,
		Vertex{X: cx - 20*mid, Y: cy - mid},
		Vertex{X: cx, Y: cy + 20*mid},
		Vertex{X: cx + 20*mid, Y: cy - mid},
	)

	tris := []Triangle{{A: superA, B: superB, C: superC, Neighbors: [3]int{-1, -1, -1}}}

	for i := 0; i < n; i++ {
		tris = insertPoint(work, tris, i)
	}

	// drop triangles touching any super-vertex
	final := make([]Triangle, 0, len(tris))
	for _, t := range tris {
		if t.A >= superA || t.B >= superA || t.C >= superA {
			continue
		}
		final = append(final, t)
	}
	return final
}

func insertPoint(verts []Vertex, tris []Triangle, p int) []Triangle {
	var bad []int
	for i, t := range tris {
		if inCircumcircle(verts, t, p) {
			bad = append(bad, i)
		}
	}
	if len(bad) == 0 {
		return tris // degenerate (duplicate point); skip
	}

	badSet := make(map[int]bool, len(bad))
	for _, i := range bad {
		badSet[i] = true
	}

	// boundary edges of the cavity: edges of bad triangles not shared by
	// another bad triangle.
	type edge struct{ u, v int }
	edgeCount := make(map[edge]int)
	edgeOf := func(a, b int) edge {
		if a > b {
			a, b = b, a
		}
		return edge{a, b}
	}
	for i := range bad {
		t := tris[bad[i]]
		for _, e := range [][2]int{{t.A, t.B}, {t.B, t.C}, {t.C, t.A}} {
			edgeCount[edgeOf(e[0], e[1])]++
		}
	}

	kept := make([]Triangle, 0, len(tris)-len(bad))
	for i, t := range tris {
		if !badSet[i] {
			kept = append(kept, t)
		}
	}

	for e, count := range edgeCount {
		if count != 1 {
			continue
		}
		kept = append(kept, Triangle{A: e.u, B: e.v, C: p, Neighbors: [3]int{-1, -1, -1}})
	}
	return kept
}

// inCircumcircle reports whether vertex p lies strictly inside the
// circumcircle of triangle t.
func inCircumcircle(verts []Vertex, t Triangle, p int) bool {
	ax, ay := verts[t.A].X, verts[t.A].Y
	bx, by := verts[t.B].X, verts[t.B].Y
	cx, cy := verts[t.C].X, verts[t.C].Y
	dx, dy := verts[p].X, verts[p].Y

	// orient triangle counter-clockwise for the standard in-circle determinant
	if orient2d(ax, ay, bx, by, cx, cy) < 0 {
		bx, by, cx, cy = cx, cy, bx, by
	}

	ax -= dx
	ay -= dy
	bx -= dx
	by -= dy
	cx -= dx
	cy -= dy

	a2 := ax*ax + ay*ay
	b2 := bx*bx + by*by
	c2 := cx*cx + cy*cy

	det := ax*(by*c2-b2*cy) - ay*(bx*c2-b2*cx) + a2*(bx*cy-by*cx)
	return det > 1e-12
}

func orient2d(ax, ay, bx, by, cx, cy float64) float64 {
	return (bx-ax)*(cy-ay) - (by-ay)*(cx-ax)
}

func dmax(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// linkNeighbors fills each triangle's Neighbors by matching shared edges.
func linkNeighbors(tris []Triangle) {
	type edge struct{ u, v int }
	norm := func(a, b int) edge {
		if a > b {
			a, b = b, a
		}
		return edge{a, b}
	}
	owner := make(map[edge][2]int) // edge -> (triIdx, slot), first occupant
	for i, t := range tris {
		edges := [3]edge{norm(t.B, t.C), norm(t.C, t.A), norm(t.A, t.B)}
		for slot, e := range edges {
			if other, ok := owner[e]; ok {
				tris[i].Neighbors[slot] = other[0]
				tris[other[0]].Neighbors[other[1]] = i
			} else {
				owner[e] = [2]int{i, slot}
			}
		}
	}
}
