// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package steam

import (
	"math"
	"testing"
)

func buildSampleMesh(t *testing.T) *Mesh {
	table, err := LoadTable(writeSampleTable(t))
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}
	mesh, err := BuildMesh(table)
	if err != nil {
		t.Fatalf("BuildMesh: %v", err)
	}
	return mesh
}

func TestBuildMeshRejectsTooFewRows(t *testing.T) {
	if _, err := BuildMesh(&Table{SinglePhase: []Row{{PMPa: 1, TC: 100, V: 0.1}}}); err == nil {
		t.Errorf("expected error for fewer than 3 single-phase rows")
	}
}

func TestBuildMeshProducesTriangles(t *testing.T) {
	mesh := buildSampleMesh(t)
	if len(mesh.Triangles) == 0 {
		t.Errorf("expected at least one triangle")
	}
	if len(mesh.Vertices) != 6 {
		t.Errorf("expected 6 vertices (one per single-phase row), got %d", len(mesh.Vertices))
	}
}

func TestMeshLocateFindsInteriorPoint(t *testing.T) {
	mesh := buildSampleMesh(t)
	// centroid of the first triangle is guaranteed to lie inside it
	tri := mesh.Triangles[0]
	a, b, c := mesh.Vertices[tri.A], mesh.Vertices[tri.B], mesh.Vertices[tri.C]
	cx := (a.X + b.X + c.X) / 3
	cy := (a.Y + b.Y + c.Y) / 3

	idx, bary, err := mesh.Locate(cx, cy, &Hint{LastTriangle: -1})
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if idx < 0 || idx >= len(mesh.Triangles) {
		t.Fatalf("Locate returned out-of-range triangle index %d", idx)
	}
	sum := bary[0] + bary[1] + bary[2]
	if math.Abs(sum-1.0) > 1e-6 {
		t.Errorf("barycentric weights should sum to 1, got %v", sum)
	}
}

func TestMeshLocateErrorsFarOutsideHull(t *testing.T) {
	mesh := buildSampleMesh(t)
	if _, _, err := mesh.Locate(1e6, 1e6, &Hint{LastTriangle: -1}); err == nil {
		t.Errorf("expected an error for a point far outside the triangulated hull")
	}
}

func TestMeshLocateUpdatesHintForReuse(t *testing.T) {
	mesh := buildSampleMesh(t)
	tri := mesh.Triangles[0]
	a, b, c := mesh.Vertices[tri.A], mesh.Vertices[tri.B], mesh.Vertices[tri.C]
	cx := (a.X + b.X + c.X) / 3
	cy := (a.Y + b.Y + c.Y) / 3

	hint := &Hint{LastTriangle: -1}
	idx, _, err := mesh.Locate(cx, cy, hint)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if hint.LastTriangle != idx {
		t.Errorf("expected hint to be updated to the located triangle %d, got %d", idx, hint.LastTriangle)
	}
}

func TestInterpTAndInterpPAtVertexReturnVertexValue(t *testing.T) {
	mesh := buildSampleMesh(t)
	tri := mesh.Triangles[0]
	// barycentric (1,0,0) selects vertex A exactly
	bary := [3]float64{1, 0, 0}
	wantT := mesh.Vertices[tri.A].T
	wantP := mesh.Vertices[tri.A].P
	if got := mesh.InterpT(tri, bary); math.Abs(got-wantT) > 1e-9 {
		t.Errorf("InterpT at vertex A = %v, want %v", got, wantT)
	}
	if got := mesh.InterpP(tri, bary); math.Abs(got-wantP) > 1e-9 {
		t.Errorf("InterpP at vertex A = %v, want %v", got, wantP)
	}
}
