// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reactor

import (
	"math"
	"testing"

	"github.com/dorival/reactorsim/mdl/fluid"
	"github.com/dorival/reactorsim/mdl/steam"
	"github.com/dorival/reactorsim/network"
)

func twoNodeSnapshot(t *testing.T) *network.Snapshot {
	model := network.NewNetworkModel()
	model.AddNode("a")
	model.AddNode("b")
	model.AddConnection("a-b", "a", "b")
	s := network.NewSnapshot(model)

	na, err := network.NewFlowNode("a", 1.0)
	if err != nil {
		t.Fatalf("NewFlowNode: %v", err)
	}
	na.M = 1000
	na.P = 2.0e5
	nb, err := network.NewFlowNode("b", 1.0)
	if err != nil {
		t.Fatalf("NewFlowNode: %v", err)
	}
	nb.M = 1000
	nb.P = 1.0e5
	s.Nodes["a"] = na
	s.Nodes["b"] = nb

	conn, err := network.NewFlowConnection("a-b", "a", "b", map[network.ID]bool{"a": true, "b": true})
	if err != nil {
		t.Fatalf("NewFlowConnection: %v", err)
	}
	conn.FlowArea = 0.01
	conn.ResistanceCoeff = 1.0
	s.Connections["a-b"] = conn
	return s
}

func TestFluidFlowAdvectsFromHighToLowPressure(t *testing.T) {
	s := twoNodeSnapshot(t)
	op := &FluidFlowOp{}
	out, err := op.Apply(s, 0.1)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out.Connections["a-b"].MassFlowRate <= 0 {
		t.Errorf("expected positive flow from a (high P) to b (low P), got %v", out.Connections["a-b"].MassFlowRate)
	}
	if out.Nodes["a"].M >= 1000 {
		t.Errorf("expected node a to lose mass, got %v", out.Nodes["a"].M)
	}
	if out.Nodes["b"].M <= 1000 {
		t.Errorf("expected node b to gain mass, got %v", out.Nodes["b"].M)
	}
}

func TestFluidFlowConservesMass(t *testing.T) {
	s := twoNodeSnapshot(t)
	op := &FluidFlowOp{}
	before := s.Nodes["a"].M + s.Nodes["b"].M
	out, err := op.Apply(s, 0.1)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	after := out.Nodes["a"].M + out.Nodes["b"].M
	if math.Abs(after-before) > 1e-9 {
		t.Errorf("mass not conserved across advection: before=%v after=%v", before, after)
	}
}

func TestFluidFlowRunawayIsClampedAndReported(t *testing.T) {
	s := twoNodeSnapshot(t)
	s.Nodes["a"].P = 1e12 // absurd delta to force runaway
	op := &FluidFlowOp{}
	out, err := op.Apply(s, 0.1)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(op.Runaways) == 0 {
		t.Fatalf("expected a runaway event for an extreme pressure delta")
	}
	if math.Abs(out.Connections["a-b"].MassFlowRate) > FlowRunawayCeiling+1e-6 {
		t.Errorf("flow should be clamped to the runaway ceiling, got %v", out.Connections["a-b"].MassFlowRate)
	}
}

func TestFluidFlowClosedValveBlocksFlow(t *testing.T) {
	s := twoNodeSnapshot(t)
	s.Connections["a-b"].ValveID = "v1"
	s.Valves["v1"] = &network.ValveState{ID: "v1", ConnectionID: "a-b", Position: 0}
	op := &FluidFlowOp{}
	out, err := op.Apply(s, 0.1)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out.Connections["a-b"].MassFlowRate != 0 {
		t.Errorf("a fully closed valve should block all flow, got %v", out.Connections["a-b"].MassFlowRate)
	}
}

func TestFluidFlowCheckValveBlocksReverseFlow(t *testing.T) {
	s := twoNodeSnapshot(t)
	// reverse the pressure gradient so flow would otherwise run b->a
	s.Nodes["a"].P = 1.0e5
	s.Nodes["b"].P = 2.0e5
	s.Connections["a-b"].CheckValveID = "cv1"
	s.CheckValves["cv1"] = &network.CheckValveState{ID: "cv1", ConnectionID: "a-b", CrackingPressure: 1000}
	op := &FluidFlowOp{}
	out, err := op.Apply(s, 0.1)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out.Connections["a-b"].MassFlowRate != 0 {
		t.Errorf("check valve should block reverse flow, got %v", out.Connections["a-b"].MassFlowRate)
	}
}

func TestFluidFlowTracksBreakMassAndEnergy(t *testing.T) {
	model := network.NewNetworkModel()
	model.AddNode("a")
	model.AddNode(network.AtmosphereID)
	model.AddConnection("break", "a", network.AtmosphereID)
	s := network.NewSnapshot(model)

	na, err := network.NewFlowNode("a", 1.0)
	if err != nil {
		t.Fatalf("NewFlowNode: %v", err)
	}
	na.M = 1000
	na.U = 1000 * 4.0e5
	na.P = 5.0e5
	s.Nodes["a"] = na

	atm, err := network.NewFlowNode(network.AtmosphereID, 1.0)
	if err != nil {
		t.Fatalf("NewFlowNode: %v", err)
	}
	atm.P = network.AtmospherePressure
	s.Nodes[network.AtmosphereID] = atm

	conn, err := network.NewFlowConnection("break", "a", network.AtmosphereID, map[network.ID]bool{"a": true, network.AtmosphereID: true})
	if err != nil {
		t.Fatalf("NewFlowConnection: %v", err)
	}
	conn.FlowArea = 0.01
	conn.ResistanceCoeff = 1.0
	conn.IsBreakConnection = true
	s.Connections["break"] = conn

	op := &FluidFlowOp{}
	out, err := op.Apply(s, 0.1)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	lostMass := 1000.0 - out.Nodes["a"].M
	if lostMass <= 0 {
		t.Fatalf("expected node a to lose mass through the break, got M=%v", out.Nodes["a"].M)
	}
	if math.Abs(op.LastBreakMassOutKg-lostMass) > 1e-9 {
		t.Errorf("LastBreakMassOutKg = %v, want %v", op.LastBreakMassOutKg, lostMass)
	}

	lostEnergy := 1000.0*4.0e5 - out.Nodes["a"].U
	if math.Abs(op.LastBreakEnergyOutJ-lostEnergy) > 1e-6*math.Abs(lostEnergy) {
		t.Errorf("LastBreakEnergyOutJ = %v, want %v", op.LastBreakEnergyOutJ, lostEnergy)
	}
}

func TestFluidFlowPumpUsesLiquidPhaseDensity(t *testing.T) {
	store, err := steam.Load("/nonexistent-steam-table-for-reactorsim-tests.tsv")
	if err != nil {
		t.Fatalf("steam.Load: %v", err)
	}
	if !store.UsingFallback {
		t.Fatalf("expected a missing path to fall back to the analytic correlation")
	}
	fluidSvc := fluid.NewService(store)

	build := func() *network.Snapshot {
		s := twoNodeSnapshot(t)
		s.Nodes["a"].P = 1.0e5
		s.Nodes["b"].P = 1.0e5 // equal node pressures: any resulting flow is pump-driven only
		s.Nodes["a"].T = 500
		s.Connections["a-b"].PumpID = "p1"
		s.Pumps["p1"] = &network.PumpState{ID: "p1", EffectiveSpeed: 1.0, RatedHead: 50, Efficiency: 0.8}
		return s
	}

	bulk := &FluidFlowOp{}
	outBulk, err := bulk.Apply(build(), 0.1)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	liquid := &FluidFlowOp{Fluid: fluidSvc}
	outLiquid, err := liquid.Apply(build(), 0.1)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	rateBulk := outBulk.Connections["a-b"].MassFlowRate
	rateLiquid := outLiquid.Connections["a-b"].MassFlowRate
	if rateBulk == rateLiquid {
		t.Errorf("expected the liquid-phase density to change the pump-driven flow rate, got equal rates %v", rateBulk)
	}
}

func TestUpdatePumpSpeedsRampsUpTowardCommand(t *testing.T) {
	model := network.NewNetworkModel()
	s := network.NewSnapshot(model)
	s.Pumps["p1"] = &network.PumpState{ID: "p1", Running: true, Command: 1.0, EffectiveSpeed: 0, RampUpTime: 10}
	updatePumpSpeeds(s, 1.0)
	if s.Pumps["p1"].EffectiveSpeed <= 0 {
		t.Errorf("expected pump speed to ramp up from zero, got %v", s.Pumps["p1"].EffectiveSpeed)
	}
	if s.Pumps["p1"].EffectiveSpeed >= 1.0 {
		t.Errorf("pump should not reach full speed in one short step, got %v", s.Pumps["p1"].EffectiveSpeed)
	}
}

func TestUpdatePumpSpeedsCoastsDownWhenStopped(t *testing.T) {
	model := network.NewNetworkModel()
	s := network.NewSnapshot(model)
	s.Pumps["p1"] = &network.PumpState{ID: "p1", Running: false, Command: 0, EffectiveSpeed: 1.0, CoastDownTime: 10}
	updatePumpSpeeds(s, 1.0)
	if s.Pumps["p1"].EffectiveSpeed >= 1.0 {
		t.Errorf("expected pump speed to coast down from full speed, got %v", s.Pumps["p1"].EffectiveSpeed)
	}
	if s.Pumps["p1"].EffectiveSpeed < 0 {
		t.Errorf("pump speed should never go negative, got %v", s.Pumps["p1"].EffectiveSpeed)
	}
}
