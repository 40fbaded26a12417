// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compile

import (
	"github.com/cpmech/gosl/chk"
	"github.com/katalvlaran/lvlath/bfs"
	"github.com/katalvlaran/lvlath/core"
)

// buildComponentGraph builds an undirected graph with one vertex per
// component and one edge per connection, used to reject a plant document
// whose components do not form a single connected system.
func buildComponentGraph(doc *PlantDoc) (*core.Graph, error) {
	g := core.NewGraph()
	for _, c := range doc.Components {
		if err := g.AddVertex(c.ID); err != nil {
			return nil, chk.Err("compile: duplicate or invalid component id %q: %v", c.ID, err)
		}
	}
	for _, conn := range doc.Connections {
		if !g.HasVertex(conn.FromComponent) {
			return nil, chk.Err("compile: connection %q references unknown component %q", conn.ID, conn.FromComponent)
		}
		if !g.HasVertex(conn.ToComponent) {
			return nil, chk.Err("compile: connection %q references unknown component %q", conn.ID, conn.ToComponent)
		}
		if _, err := g.AddEdge(conn.FromComponent, conn.ToComponent, 0); err != nil {
			return nil, chk.Err("compile: cannot add edge for connection %q: %v", conn.ID, err)
		}
	}
	return g, nil
}

// checkConnected walks g from an arbitrary vertex and fails if any vertex is
// unreached, i.e. the plant is not a single connected system.
func checkConnected(g *core.Graph) error {
	vertices := g.Vertices()
	if len(vertices) == 0 {
		return nil
	}
	res, err := bfs.BFS(g, vertices[0])
	if err != nil {
		return chk.Err("compile: connectivity walk failed: %v", err)
	}
	if len(res.Order) != len(vertices) {
		return chk.Err("compile: plant is not fully connected: %d of %d components reachable from %q",
			len(res.Order), len(vertices), vertices[0])
	}
	return nil
}

// containmentClosure resolves each component's ultimate containing vessel by
// following ContainedBy chains, rejecting cycles. A component with an empty
// ContainedBy is its own closure root (uncontained, e.g. open to atmosphere).
func containmentClosure(doc *PlantDoc) (map[string]string, error) {
	byID := make(map[string]ComponentDoc, len(doc.Components))
	for _, c := range doc.Components {
		byID[c.ID] = c
	}

	closure := make(map[string]string, len(doc.Components))
	for _, c := range doc.Components {
		visited := map[string]bool{c.ID: true}
		cur := c
		for cur.ContainedBy != "" {
			if visited[cur.ContainedBy] {
				return nil, chk.Err("compile: containment cycle detected starting at component %q", c.ID)
			}
			parent, ok := byID[cur.ContainedBy]
			if !ok {
				return nil, chk.Err("compile: component %q containedBy unknown component %q", cur.ID, cur.ContainedBy)
			}
			visited[parent.ID] = true
			cur = parent
		}
		closure[c.ID] = cur.ID
	}
	return closure, nil
}
