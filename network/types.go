// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package network defines the typed flow/thermal network entities shared by the
// compiler and the physics operators. It holds invariants and accessors only;
// no physics algorithm lives here.
package network

import (
	"math"

	"github.com/cpmech/gosl/chk"
)

// ID identifies a FlowNode, ThermalNode, FlowConnection or device record. IDs are
// assigned once by the compiler and never re-keyed by an operator.
type ID string

// AtmosphereID is the well-known FlowNode the compiler always allocates: fixed
// pressure, unbounded mass/energy sink, target of every uncontained break.
const AtmosphereID ID = "atmosphere"

// AtmospherePressure is the fixed pressure (Pa) of the atmosphere node, 1 atm.
const AtmospherePressure = 101325.0

// Phase classifies a FlowNode's thermodynamic state.
type Phase int

const (
	Liquid Phase = iota
	TwoPhase
	Vapor
)

func (p Phase) String() string {
	switch p {
	case Liquid:
		return "liquid"
	case TwoPhase:
		return "two-phase"
	case Vapor:
		return "vapor"
	}
	return "unknown"
}

// FlowNode is a lumped control volume of fluid. V is fixed at construction time;
// m and U are the conserved quantities every operator advances; T, P, Phase and X
// are derived and must be refreshed by FluidStateUpdate every tick before any
// other operator reads them again.
type FlowNode struct {
	ID                ID
	V                 float64 // m³, constant for the node's lifetime
	Elevation         float64 // m, height of the node's bottom above a common datum
	Height            float64 // m, vertical extent (for stratification taps)
	FlowArea          float64 // m², cross-section used by connections leaving this node
	HydraulicDiameter float64 // m
	ContainerID       ID      // "" if uncontained

	M float64 // kg, conserved
	U float64 // J, conserved

	T     float64 // K, derived
	P     float64 // Pa, derived
	Phase Phase   // derived
	X     float64 // quality, derived, [0,1]
}

// MinNodeMass is the strict positive floor enforced on every FlowNode after any
// operator pass that moves mass.
const MinNodeMass = 1.0 // kg

// NewFlowNode validates and constructs a FlowNode. The compiler is the only
// caller; volumes must be strictly positive.
func NewFlowNode(id ID, volume float64) (*FlowNode, error) {
	if volume <= 0 {
		return nil, chk.Err("network: flow node %q must have strictly positive volume, got %g", id, volume)
	}
	return &FlowNode{ID: id, V: volume, M: MinNodeMass}, nil
}

// GaugePressure returns P_node minus the pressure of its container (or
// AtmospherePressure if uncontained); resolve must supply the container's P
// because FlowNode itself does not hold a reference to the owning Snapshot.
func (n *FlowNode) GaugePressure(containerP float64, hasContainer bool) float64 {
	if !hasContainer {
		return n.P - AtmospherePressure
	}
	return n.P - containerP
}

// ThermalNode is a lumped solid-mass control volume: fuel, cladding, or
// structural metal. Created/destroyed with the owning hydraulic component.
type ThermalNode struct {
	ID      ID
	C       float64 // J/K, heat capacity
	T       float64 // K
	QGenFn  func(t float64) float64 // optional heat-generation source term, W; nil if none
}

// QGen evaluates the heat-generation source term at simulation time t, or 0 if none.
func (n *ThermalNode) QGen(t float64) float64 {
	if n.QGenFn == nil {
		return 0
	}
	return n.QGenFn(t)
}

// FlowConnection is a directed link between two FlowNodes carrying mass and
// energy. MassFlowRate is signed (positive = from→to) and is recomputed by
// FluidFlow every tick; it must not be read before FluidFlow has run.
type FlowConnection struct {
	ID       ID
	FromNode ID
	ToNode   ID

	FlowArea         float64 // m²
	ResistanceCoeff  float64 // K, dimensionless loss coefficient
	Length           float64 // m
	Elevation        float64 // m, positive = upward flow (to above from)
	FromElevation    float64 // m, height above FromNode's bottom this connection taps
	ToElevation      float64 // m, height above ToNode's bottom this connection taps

	IsBreakConnection bool

	PumpID       ID // "" if none
	ValveID      ID // "" if none
	CheckValveID ID // "" if none

	MassFlowRate float64 // kg/s, signed, derived
}

// NewFlowConnection validates that both endpoints are present in nodeIDs
// before returning the connection: every FlowConnection references two
// existing FlowNodes.
func NewFlowConnection(id, from, to ID, nodeIDs map[ID]bool) (*FlowConnection, error) {
	if !nodeIDs[from] {
		return nil, chk.Err("network: connection %q references unknown from-node %q", id, from)
	}
	if !nodeIDs[to] {
		return nil, chk.Err("network: connection %q references unknown to-node %q", id, to)
	}
	return &FlowConnection{ID: id, FromNode: from, ToNode: to}, nil
}

// PumpState holds a pump's commanded/effective speed and its rating curve.
// EffectiveSpeed ramps linearly toward Command, at 1/RampUpTime per second
// going up and 1/CoastDownTime per second going down; operators only ever
// read EffectiveSpeed.
type PumpState struct {
	ID             ID
	ConnectionID   ID
	Running        bool
	Command        float64 // ∈ [0,1]
	EffectiveSpeed float64 // ∈ [0,1], derived
	RampUpTime     float64 // s
	CoastDownTime  float64 // s
	RatedHead      float64 // m
	RatedFlow      float64 // kg/s
	Efficiency     float64 // ∈ (0,1]
}

// ValveState holds a throttle valve's commanded position. Resistance scales as
// 1/position²; ClosedThreshold below is the "fully closed" cutoff.
type ValveState struct {
	ID           ID
	ConnectionID ID
	Position     float64 // ∈ [0,1]
}

// ClosedThreshold is the position below which a valve is treated as fully closed.
const ClosedThreshold = 0.01

// IsClosed reports whether the valve is fully closed.
func (v *ValveState) IsClosed() bool { return v.Position < ClosedThreshold }

// ResistanceMultiplier returns 1/position², or +Inf when closed.
func (v *ValveState) ResistanceMultiplier() float64 {
	if v.IsClosed() {
		return math.Inf(1)
	}
	return 1.0 / (v.Position * v.Position)
}

// CheckValveState passes zero flow below cracking pressure or for reverse ΔP.
type CheckValveState struct {
	ID               ID
	ConnectionID     ID
	CrackingPressure float64 // Pa
}

// Passes reports whether the check valve admits flow for the given driving ΔP.
func (c *CheckValveState) Passes(deltaP float64) bool {
	return deltaP >= c.CrackingPressure && deltaP >= 0
}

// BurstState tracks the burst/break condition of a pressure-rated component.
// CurrentBreakFraction is monotone non-decreasing once burst.
type BurstState struct {
	ID             ID
	NodeID         ID
	ContainerID    ID // "" if uncontained
	DesignRating   float64 // Pa
	Zeta           float64 // margin draw, ∈ [0, 0.4]
	BurstPressure  float64 // DesignRating * (1 + Zeta)
	IsBurst        bool
	BurstTime      float64
	BreakLocation  float64 // ∈ [0,1]
	BreakElevation float64
	CurrentBreakFraction float64 // ∈ [0,1], monotone
	Seed           int64

	IsTubeSide  bool
	ShellNodeID ID // only meaningful when IsTubeSide

	BreakConnectionID ID // "" until first burst
}

// EffectivePressure computes the pressure BurstCheck compares to BurstPressure:
// |P_tube - P_shell| for HX tube sides, P_node - P_container for contained
// nodes, P_node - atmosphere otherwise.
func (b *BurstState) EffectivePressure(nodeP, containerOrShellP float64, hasReference bool) float64 {
	if b.IsTubeSide {
		return math.Abs(nodeP - containerOrShellP)
	}
	if hasReference {
		return nodeP - containerOrShellP
	}
	return nodeP - AtmospherePressure
}

// GrowFraction monotonically raises CurrentBreakFraction; panics-free no-op if
// the candidate is not larger, preserving the non-decreasing invariant.
func (b *BurstState) GrowFraction(candidate float64) {
	if candidate > b.CurrentBreakFraction {
		b.CurrentBreakFraction = candidate
	}
}
