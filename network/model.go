// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package network

// NetworkModel is the immutable topology the compiler emits: which nodes and
// connections exist, and how they are wired. It never changes once built; all
// mutable per-tick state lives on a Snapshot instead.
type NetworkModel struct {
	NodeIDs       []ID
	ThermalIDs    []ID
	ConnectionIDs []ID
	PumpIDs       []ID
	ValveIDs      []ID
	CheckValveIDs []ID
	BurstIDs      []ID

	// Connections leaving/entering each node, for fast per-node iteration.
	Outgoing map[ID][]ID // nodeID -> connection IDs where FromNode == nodeID
	Incoming map[ID][]ID // nodeID -> connection IDs where ToNode == nodeID
}

// NewNetworkModel returns an empty topology with initialized index maps.
func NewNetworkModel() *NetworkModel {
	return &NetworkModel{
		Outgoing: make(map[ID][]ID),
		Incoming: make(map[ID][]ID),
	}
}

// Snapshot is the single clonable value the solver driver owns: the mutable
// per-tick state of every entity, keyed by ID, plus a reference to the
// immutable topology they all share. Operators never receive anything but a
// Snapshot's clone.
type Snapshot struct {
	Model *NetworkModel

	Nodes        map[ID]*FlowNode
	Thermal      map[ID]*ThermalNode
	Connections  map[ID]*FlowConnection
	Pumps        map[ID]*PumpState
	Valves       map[ID]*ValveState
	CheckValves  map[ID]*CheckValveState
	Bursts       map[ID]*BurstState

	SimTime float64 // s, accumulated simulation time
}

// NewSnapshot returns an empty Snapshot bound to the given immutable topology.
func NewSnapshot(model *NetworkModel) *Snapshot {
	return &Snapshot{
		Model:       model,
		Nodes:       make(map[ID]*FlowNode),
		Thermal:     make(map[ID]*ThermalNode),
		Connections: make(map[ID]*FlowConnection),
		Pumps:       make(map[ID]*PumpState),
		Valves:      make(map[ID]*ValveState),
		CheckValves: make(map[ID]*CheckValveState),
		Bursts:      make(map[ID]*BurstState),
	}
}

// Clone deep-copies every mutable entry. The immutable *NetworkModel is
// shared by reference, exactly as the steam-table store is shared by
// reference across operators.
func (s *Snapshot) Clone() *Snapshot {
	c := NewSnapshot(s.Model)
	c.SimTime = s.SimTime
	for id, n := range s.Nodes {
		cp := *n
		c.Nodes[id] = &cp
	}
	for id, n := range s.Thermal {
		cp := *n
		c.Thermal[id] = &cp
	}
	for id, n := range s.Connections {
		cp := *n
		c.Connections[id] = &cp
	}
	for id, n := range s.Pumps {
		cp := *n
		c.Pumps[id] = &cp
	}
	for id, n := range s.Valves {
		cp := *n
		c.Valves[id] = &cp
	}
	for id, n := range s.CheckValves {
		cp := *n
		c.CheckValves[id] = &cp
	}
	for id, n := range s.Bursts {
		cp := *n
		c.Bursts[id] = &cp
	}
	return c
}

// AddNode registers a FlowNode and indexes it by ID.
func (m *NetworkModel) AddNode(id ID) {
	m.NodeIDs = append(m.NodeIDs, id)
}

// AddConnection registers a FlowConnection and updates the adjacency index.
func (m *NetworkModel) AddConnection(id, from, to ID) {
	m.ConnectionIDs = append(m.ConnectionIDs, id)
	m.Outgoing[from] = append(m.Outgoing[from], id)
	m.Incoming[to] = append(m.Incoming[to], id)
}

// AddThermal registers a ThermalNode and indexes it by ID.
func (m *NetworkModel) AddThermal(id ID) {
	m.ThermalIDs = append(m.ThermalIDs, id)
}

// AddBurst registers a BurstState and indexes it by ID.
func (m *NetworkModel) AddBurst(id ID) {
	m.BurstIDs = append(m.BurstIDs, id)
}

// ContainerPressure resolves the pressure to compare against for gauge
// pressure / burst checks: the container node's P if ContainerID is set,
// otherwise AtmospherePressure.
func (s *Snapshot) ContainerPressure(containerID ID) (p float64, hasContainer bool) {
	if containerID == "" {
		return AtmospherePressure, false
	}
	if n, ok := s.Nodes[containerID]; ok {
		return n.P, true
	}
	return AtmospherePressure, false
}
