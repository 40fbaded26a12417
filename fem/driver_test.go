// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fem

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/dorival/reactorsim/compile"
	"github.com/dorival/reactorsim/ele/reactor"
	"github.com/dorival/reactorsim/mdl/fluid"
	"github.com/dorival/reactorsim/mdl/steam"
	"github.com/dorival/reactorsim/network"
)

const driverTestTable = `P_MPa	T_C	v_m3kg	u_kJkg	h_kJkg	s_kJkgK	phase_label	rho_kgm3
0.101	100	0.001044	418.94	419.04	1.3069	saturated liquid	957.9
0.4762	150	0.001091	631.68	632.20	1.8418	saturated liquid	916.6
1.5538	200	0.001156	850.65	852.45	2.3309	saturated liquid	865.0
0.101	100	1.6729	2506.5	2676.1	7.3549	saturated vapor	0.598
0.4762	150	0.3928	2559.5	2746.5	6.8379	saturated vapor	2.546
1.5538	200	0.12736	2595.3	2793.2	6.4323	saturated vapor	7.852
10	50	0.001012	209.0	219.1	0.7035	compressed liquid	988.1
10	100	0.001041	417.8	427.8	1.3000	compressed liquid	960.6
10	150	0.001088	628.5	638.9	1.8340	compressed liquid	919.1
20	100	0.001034	416.2	436.3	1.2950	compressed liquid	967.1
20	200	0.001145	842.8	865.0	2.3130	compressed liquid	873.4
1	200	0.2060	2658.1	2875.3	6.6940	superheated vapor	4.855
1	250	0.2327	2709.9	2942.6	6.9247	superheated vapor	4.298
1	300	0.2579	2793.2	3051.2	7.1228	superheated vapor	3.878
`

func buildDriverTestStore(t *testing.T) *steam.Store {
	dir := t.TempDir()
	path := filepath.Join(dir, "table.tsv")
	if err := os.WriteFile(path, []byte(driverTestTable), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	store, err := steam.Load(path)
	if err != nil {
		t.Fatalf("steam.Load: %v", err)
	}
	if store.UsingFallback {
		t.Fatalf("expected valid table, not fallback")
	}
	return store
}

func buildTestDriver(t *testing.T) *Driver {
	plant := &compile.PlantDoc{
		Components: []compile.ComponentDoc{
			{ID: "tank1", Type: "tank", Params: map[string]float64{"radius": 1.0, "height": 5}},
			{ID: "tank2", Type: "tank", Params: map[string]float64{"radius": 1.0, "height": 5}},
		},
		Connections: []compile.ConnectionDoc{
			{ID: "line1", FromComponent: "tank1", ToComponent: "tank2",
				FlowArea: 0.05, Length: 3,
				DeviceParams: map[string]float64{"valvePosition": 1.0}},
		},
	}
	model, snap, bindings, errs := compile.BuildNetwork(plant)
	if len(errs) > 0 {
		t.Fatalf("BuildNetwork: %v", errs)
	}

	store := buildDriverTestStore(t)
	fluidSvc := fluid.NewService(store)

	// seed the nodes with a valid subcooled-liquid state so the very first
	// FluidStateUpdate lookup succeeds; mass is derived from each node's
	// actual compiled volume so (u,v) lands on the compressed-liquid cluster
	// regardless of the tank geometry used above.
	rho1, u1 := 960.6, 417800.0 // 10 MPa, 100 C row
	rho2, u2 := 967.1, 416200.0 // 20 MPa, 100 C row
	snap.Nodes["tank1"].M = rho1 * snap.Nodes["tank1"].V
	snap.Nodes["tank1"].U = u1 * snap.Nodes["tank1"].M
	snap.Nodes["tank1"].P = 10.0e6
	snap.Nodes["tank2"].M = rho2 * snap.Nodes["tank2"].V
	snap.Nodes["tank2"].U = u2 * snap.Nodes["tank2"].M
	snap.Nodes["tank2"].P = 9.0e6

	ops := &reactor.Operators{
		FluidFlow:          &reactor.FluidFlowOp{Fluid: fluidSvc},
		Convection:         &reactor.ConvectionOp{Couplings: bindings.Couplings},
		FuelHeatConduction: &reactor.FuelHeatConductionOp{Links: bindings.ConductionLinks},
		TurbineCondenser:   &reactor.TurbineCondenserOp{Fluid: fluidSvc, Turbines: bindings.Turbines, Condensers: bindings.Condensers, Pumps: bindings.Pumps},
		BurstCheck:         reactor.NewBurstCheckOp(),
		FluidStateUpdate:   &reactor.FluidStateUpdateOp{Fluid: fluidSvc, BulkModulus: fluid.NewBulkModulus()},
		Neutronics:         reactor.NewNeutronicsOp(bindings.FuelThermalIDs, bindings.ModeratorID, bindings.RatedPowerW, 293.15, 293.15),
	}

	cfg := DefaultConfig()
	return NewDriver(model, snap, ops, cfg)
}

// buildCoreTestDriver builds a single fuel-bearing vessel plant with nonzero
// rated power and decay heat, for the energy-conservation audit test: unlike
// buildTestDriver's bare tanks, this plant exercises Neutronics and
// FuelHeatConduction's contribution to the audit's expected energy term.
func buildCoreTestDriver(t *testing.T) *Driver {
	plant := &compile.PlantDoc{
		Components: []compile.ComponentDoc{
			{ID: "vessel1", Type: "vessel", Params: map[string]float64{
				"innerRadius": 1.5, "outerRadius": 1.8, "height": 5, "coreRadius": 1.0,
				"ratedPowerW": 3.0e9, "decayHeatW": 5.0e6,
			}},
			{ID: "tank1", Type: "tank", Elevation: 4, Params: map[string]float64{"radius": 1.0, "height": 5}},
		},
		Connections: []compile.ConnectionDoc{
			{ID: "line1", FromComponent: "vessel1", ToComponent: "tank1",
				FromElevation: 4, ToElevation: 1, FlowArea: 0.05, Length: 3},
		},
	}
	model, snap, bindings, errs := compile.BuildNetwork(plant)
	if len(errs) > 0 {
		t.Fatalf("BuildNetwork: %v", errs)
	}

	store := buildDriverTestStore(t)
	fluidSvc := fluid.NewService(store)

	rho, u := 960.6, 417800.0 // 10 MPa, 100 C row
	for _, id := range []network.ID{"vessel1.barrel", "vessel1.annulus", "tank1"} {
		n := snap.Nodes[id]
		n.M = rho * n.V
		n.U = u * n.M
		n.P = 10.0e6
	}

	ops := &reactor.Operators{
		FluidFlow:          &reactor.FluidFlowOp{Fluid: fluidSvc},
		Convection:         &reactor.ConvectionOp{Couplings: bindings.Couplings},
		FuelHeatConduction: &reactor.FuelHeatConductionOp{Links: bindings.ConductionLinks},
		TurbineCondenser:   &reactor.TurbineCondenserOp{Fluid: fluidSvc, Turbines: bindings.Turbines, Condensers: bindings.Condensers, Pumps: bindings.Pumps},
		BurstCheck:         reactor.NewBurstCheckOp(),
		FluidStateUpdate:   &reactor.FluidStateUpdateOp{Fluid: fluidSvc, BulkModulus: fluid.NewBulkModulus()},
		Neutronics:         reactor.NewNeutronicsOp(bindings.FuelThermalIDs, bindings.ModeratorID, bindings.RatedPowerW, 900.0, 560.0),
	}

	cfg := DefaultConfig()
	return NewDriver(model, snap, ops, cfg)
}

func TestStepAdvancesSimTime(t *testing.T) {
	d := buildTestDriver(t)
	metrics, _, err := d.Step(0.05)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if metrics.Dt <= 0 {
		t.Errorf("expected a positive step size, got %v", metrics.Dt)
	}
	if d.state.SimTime != metrics.Dt {
		t.Errorf("expected SimTime to advance by Dt, got SimTime=%v Dt=%v", d.state.SimTime, metrics.Dt)
	}
}

func TestStepConservesTotalMass(t *testing.T) {
	d := buildTestDriver(t)
	before, _ := conservedTotals(d.state)
	if _, _, err := d.Step(0.05); err != nil {
		t.Fatalf("Step: %v", err)
	}
	after, _ := conservedTotals(d.state)
	if math.Abs(after-before) > d.Config.MassTolerance*10 {
		t.Errorf("total mass should be conserved within tolerance across a step, before=%v after=%v", before, after)
	}
}

func TestStepAuditsEnergyUnderRealHeatGeneration(t *testing.T) {
	d := buildCoreTestDriver(t)
	for i := 0; i < 5; i++ {
		if _, _, err := d.Step(0.05); err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
	}
	if d.Ops.Neutronics.LastGeneratedPowerW <= 0 {
		t.Errorf("expected Neutronics to deposit nonzero fission power, got %v", d.Ops.Neutronics.LastGeneratedPowerW)
	}
	if d.Ops.FuelHeatConduction.LastDecayHeatW <= 0 {
		t.Errorf("expected FuelHeatConduction to credit nonzero decay heat, got %v", d.Ops.FuelHeatConduction.LastDecayHeatW)
	}
}

func TestPauseSkipsStep(t *testing.T) {
	d := buildTestDriver(t)
	d.Pause()
	if !d.Paused() {
		t.Fatalf("expected Paused() true after Pause()")
	}
	simTimeBefore := d.state.SimTime
	metrics, events, err := d.Step(0.05)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if metrics.Dt != 0 || events != nil {
		t.Errorf("expected a no-op step while paused, got metrics=%+v events=%v", metrics, events)
	}
	if d.state.SimTime != simTimeBefore {
		t.Errorf("SimTime must not advance while paused")
	}
	d.Resume()
	if d.Paused() {
		t.Errorf("expected Paused() false after Resume()")
	}
}

func TestCandidateDtNeverExceedsConfiguredMaxDt(t *testing.T) {
	d := buildTestDriver(t)
	d.Config.MaxDt = 0.01
	if dt := d.candidateDt(10.0); dt > 0.01 {
		t.Errorf("candidateDt should cap at Config.MaxDt=0.01, got %v", dt)
	}
}

func TestAuditOKRejectsNegativeMass(t *testing.T) {
	model := network.NewNetworkModel()
	s := network.NewSnapshot(model)
	s.Nodes["a"] = &network.FlowNode{ID: "a", M: -1, U: 100}
	cfg := DefaultConfig()
	if auditOK(s, 0, 0, cfg) {
		t.Errorf("auditOK must reject a snapshot with negative mass")
	}
}

func TestSetPumpSpeedClampsAndSetsRunning(t *testing.T) {
	d := buildTestDriver(t)
	d.state.Pumps["p1"] = &network.PumpState{ID: "p1"}
	if err := d.SetPumpSpeed("p1", 1.5, true); err != nil {
		t.Fatalf("SetPumpSpeed: %v", err)
	}
	p, _ := d.InspectPump("p1")
	if p.Command != 1.0 {
		t.Errorf("expected Command clamped to 1.0, got %v", p.Command)
	}
	if !p.Running {
		t.Errorf("expected Running=true")
	}
	if err := d.SetPumpSpeed("missing", 0.5, true); err == nil {
		t.Errorf("expected error for unknown pump id")
	}
}

func TestSetValvePositionClamps(t *testing.T) {
	d := buildTestDriver(t)
	d.state.Valves["v1"] = &network.ValveState{ID: "v1"}
	if err := d.SetValvePosition("v1", -0.5); err != nil {
		t.Fatalf("SetValvePosition: %v", err)
	}
	v, _ := d.InspectValve("v1")
	if v.Position != 0 {
		t.Errorf("expected Position clamped to 0, got %v", v.Position)
	}
	if err := d.SetValvePosition("missing", 0.5); err == nil {
		t.Errorf("expected error for unknown valve id")
	}
}

func TestControlRodAndScramDelegation(t *testing.T) {
	d := buildTestDriver(t)
	if err := d.SetControlRodInsertion(0.25); err != nil {
		t.Fatalf("SetControlRodInsertion: %v", err)
	}
	if d.Ops.Neutronics.RodInsertion != 0.25 {
		t.Errorf("expected RodInsertion=0.25, got %v", d.Ops.Neutronics.RodInsertion)
	}
	if err := d.SetControlRodInsertion(1.5); err == nil {
		t.Errorf("expected error for out-of-range insertion fraction")
	}
	d.ManualScram()
	if !d.Ops.Neutronics.ScramActive {
		t.Errorf("expected ScramActive=true after ManualScram")
	}
	d.ResetScram()
	if d.Ops.Neutronics.ScramActive {
		t.Errorf("expected ScramActive=false after ResetScram")
	}
}

func TestDebugSurfaceVerboseAndTrace(t *testing.T) {
	d := buildTestDriver(t)
	dbg := d.Debug()
	dbg.SetVerboseFluidLogging(true)
	if !d.Ops.FluidStateUpdate.Fluid.Verbose {
		t.Fatalf("expected Verbose=true on the bound fluid service")
	}
	if _, _, err := d.Step(0.05); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if len(dbg.DumpLookupTrace(10)) == 0 {
		t.Errorf("expected at least one recorded lookup trace after a verbose step")
	}
}

func TestDebugSingleStepAdvancesOneTick(t *testing.T) {
	d := buildTestDriver(t)
	before := d.state.SimTime
	metrics, _, err := d.Debug().SingleStep()
	if err != nil {
		t.Fatalf("SingleStep: %v", err)
	}
	if d.state.SimTime != before+metrics.Dt {
		t.Errorf("expected SimTime to advance by the step's Dt")
	}
}

func TestInspectNodeReturnsCopyNotReference(t *testing.T) {
	d := buildTestDriver(t)
	n, ok := d.InspectNode("tank1")
	if !ok {
		t.Fatalf("expected tank1 to be found")
	}
	n.M = -999
	real, _ := d.InspectNode("tank1")
	if real.M == -999 {
		t.Errorf("InspectNode must return a copy, mutation leaked into authoritative state")
	}
	if _, ok := d.InspectNode("nonexistent"); ok {
		t.Errorf("expected ok=false for unknown node id")
	}
}

func TestAuditOKRejectsExcessDrift(t *testing.T) {
	model := network.NewNetworkModel()
	s := network.NewSnapshot(model)
	s.Nodes["a"] = &network.FlowNode{ID: "a", M: 10, U: 100}
	cfg := DefaultConfig()
	if auditOK(s, cfg.MassTolerance*100, 0, cfg) {
		t.Errorf("auditOK must reject mass drift far beyond tolerance")
	}
}
