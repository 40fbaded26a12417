// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fem

import (
	"log/slog"
	"math"
	"time"

	"github.com/cpmech/gosl/chk"

	"github.com/dorival/reactorsim/ele/reactor"
	"github.com/dorival/reactorsim/mdl/fluid"
	"github.com/dorival/reactorsim/network"
)

// Config holds the driver's tunables, grounded on the donor's inp.Solver
// stage-control parameters (Dtmin/DtoFunc/NmaxIt-style knobs) generalized
// from an implicit Newton loop's convergence controls to a conservation-
// audit retry loop's controls.
type Config struct {
	MaxDt            float64 // s, never step further than this regardless of maxStableDt
	MinDt            float64 // s, floor below which a retry gives up
	MaxRetries       int     // bounded halving attempts before a hard error
	MassTolerance    float64 // kg, allowed Σm drift per step
	EnergyTolerance  float64 // J, allowed Σ(U + C·T) drift per step
	WallClockBudget  time.Duration
}

// DefaultConfig returns reasonable defaults for a reactor-scale simulation.
func DefaultConfig() Config {
	return Config{
		MaxDt:           0.5,
		MinDt:           1e-4,
		MaxRetries:      6,
		MassTolerance:   1e-6,
		EnergyTolerance: 1.0,
		WallClockBudget: 50 * time.Millisecond,
	}
}

// Metrics reports per-step solver performance and conservation bookkeeping,
// the read-only Inspect surface.
type Metrics struct {
	Dt          float64
	Retries     int
	MassDrift   float64
	EnergyDrift float64
	StepWall    time.Duration
	FellBehind  bool
}

// Event is one item from the pending-events queue: scram, component burst,
// falling-behind-real-time, or a clamped flow runaway.
type Event struct {
	Kind    string // "scram", "burst", "falling_behind", "flow_runaway"
	Message string
	Burst   *reactor.BurstEvent
	Runaway *reactor.RunawayEvent
}

// Driver holds the authoritative SimulationState and drives it forward one
// tick at a time, grounded on the donor's Main/Solver split (Main owns state
// across stages; Solver.Run drives the time loop) — here collapsed into one
// type because a reactor tick has no stage concept, only a fixed operator
// sequence.
type Driver struct {
	Model  *network.NetworkModel
	Ops    *reactor.Operators
	Config Config
	Log    *slog.Logger

	state *network.Snapshot // authoritative; never handed out directly

	pendingEvents []Event
	paused        bool
}

// NewDriver constructs a Driver bound to the given topology, initial
// snapshot, and operator set.
func NewDriver(model *network.NetworkModel, initial *network.Snapshot, ops *reactor.Operators, cfg Config) *Driver {
	return &Driver{Model: model, Ops: ops, Config: cfg, state: initial, Log: NewLogger(false)}
}

// Pause/Resume implement the "paused" flag the driver polls between steps.
func (d *Driver) Pause()  { d.paused = true }
func (d *Driver) Resume() { d.paused = false }
func (d *Driver) Paused() bool { return d.paused }

// SetPumpSpeed commands a pump's target speed fraction directly on the
// authoritative state; FluidFlow ramps EffectiveSpeed toward it on the next
// tick rather than jumping instantaneously.
func (d *Driver) SetPumpSpeed(id network.ID, command float64, running bool) error {
	p, ok := d.state.Pumps[id]
	if !ok {
		return chk.Err("fem: unknown pump %q", id)
	}
	if command < 0 {
		command = 0
	}
	if command > 1 {
		command = 1
	}
	p.Command = command
	p.Running = running
	return nil
}

// SetValvePosition commands a throttle valve's position directly.
func (d *Driver) SetValvePosition(id network.ID, position float64) error {
	v, ok := d.state.Valves[id]
	if !ok {
		return chk.Err("fem: unknown valve %q", id)
	}
	if position < 0 {
		position = 0
	}
	if position > 1 {
		position = 1
	}
	v.Position = position
	return nil
}

// SetControlRodInsertion, ManualScram and ResetScram delegate to the bound
// Neutronics operator, which owns the scram state machine.
func (d *Driver) SetControlRodInsertion(frac float64) error {
	if frac < 0 || frac > 1 {
		return chk.Err("fem: control rod insertion fraction %g out of [0,1]", frac)
	}
	d.Ops.Neutronics.SetControlRodInsertion(frac)
	return nil
}
func (d *Driver) ManualScram() { d.Ops.Neutronics.ManualScram() }
func (d *Driver) ResetScram()  { d.Ops.Neutronics.ResetScram() }

// Debug exposes operator-console diagnostics that never touch the
// conservation audit or the fixed operator sequence: toggling verbose
// water-property lookup logging and dumping its recorded trace, plus a
// SingleStep helper for interactive stepping.
type Debug struct{ d *Driver }

// Debug returns the driver's debug sub-surface.
func (d *Driver) Debug() Debug { return Debug{d: d} }

// SetVerboseFluidLogging toggles lookup-trace recording on the fluid service
// bound to the FluidStateUpdate operator, if one is wired in; the
// TurbineCondenser's service is not consulted.
func (dbg Debug) SetVerboseFluidLogging(on bool) {
	if dbg.d.Ops.FluidStateUpdate != nil && dbg.d.Ops.FluidStateUpdate.Fluid != nil {
		dbg.d.Ops.FluidStateUpdate.Fluid.Verbose = on
	}
}

// DumpLookupTrace returns the most recent n water-property lookups recorded
// by the bound fluid service, for post-mortem diagnosis of a phase-lookup
// failure.
func (dbg Debug) DumpLookupTrace(n int) []fluid.LookupTrace {
	if dbg.d.Ops.FluidStateUpdate == nil || dbg.d.Ops.FluidStateUpdate.Fluid == nil {
		return nil
	}
	return dbg.d.Ops.FluidStateUpdate.Fluid.LastTraces(n)
}

// SingleStep advances exactly one tick at Config.MaxDt, a convenience for an
// interactive console driving the simulation one step at a time.
func (dbg Debug) SingleStep() (Metrics, []Event, error) {
	return dbg.d.Step(dbg.d.Config.MaxDt)
}

// InspectNode returns a copy of a FlowNode's current state, safe for a caller
// to read without risking a data race against the next Step.
func (d *Driver) InspectNode(id network.ID) (network.FlowNode, bool) {
	n, ok := d.state.Nodes[id]
	if !ok {
		return network.FlowNode{}, false
	}
	return *n, true
}

// InspectThermal returns a copy of a ThermalNode's current state.
func (d *Driver) InspectThermal(id network.ID) (network.ThermalNode, bool) {
	n, ok := d.state.Thermal[id]
	if !ok {
		return network.ThermalNode{}, false
	}
	return *n, true
}

// InspectConnection returns a copy of a FlowConnection's current state.
func (d *Driver) InspectConnection(id network.ID) (network.FlowConnection, bool) {
	c, ok := d.state.Connections[id]
	if !ok {
		return network.FlowConnection{}, false
	}
	return *c, true
}

// InspectPump, InspectValve, InspectCheckValve and InspectBurst mirror
// InspectNode for their respective device records.
func (d *Driver) InspectPump(id network.ID) (network.PumpState, bool) {
	p, ok := d.state.Pumps[id]
	if !ok {
		return network.PumpState{}, false
	}
	return *p, true
}

func (d *Driver) InspectValve(id network.ID) (network.ValveState, bool) {
	v, ok := d.state.Valves[id]
	if !ok {
		return network.ValveState{}, false
	}
	return *v, true
}

func (d *Driver) InspectCheckValve(id network.ID) (network.CheckValveState, bool) {
	c, ok := d.state.CheckValves[id]
	if !ok {
		return network.CheckValveState{}, false
	}
	return *c, true
}

func (d *Driver) InspectBurst(id network.ID) (network.BurstState, bool) {
	b, ok := d.state.Bursts[id]
	if !ok {
		return network.BurstState{}, false
	}
	return *b, true
}

// SimTime returns the driver's accumulated simulation time.
func (d *Driver) SimTime() float64 { return d.state.SimTime }

// Step advances the authoritative state by at most maxDt, honoring the
// fixed operator order and the clone/audit/commit discipline: try a step,
// audit conservation, halve and retry on failure, commit on success.
func (d *Driver) Step(maxDt float64) (Metrics, []Event, error) {
	d.pendingEvents = nil
	if d.paused {
		return Metrics{}, nil, nil
	}
	wallStart := time.Now()

	dt := d.candidateDt(maxDt)

	var metrics Metrics
	for attempt := 0; attempt <= d.Config.MaxRetries; attempt++ {
		clone := d.state.Clone()
		massBefore, energyBefore := conservedTotals(clone)

		if err := d.applySequence(clone, dt); err != nil {
			return Metrics{}, nil, err
		}

		massAfter, energyAfter := conservedTotals(clone)
		massDrift := math.Abs(massAfter - massBefore - boundaryMassFlow(d.Ops))
		energyDrift := math.Abs(energyAfter - energyBefore - boundaryEnergyFlow(d.Ops, dt))

		if auditOK(clone, massDrift, energyDrift, d.Config) {
			d.state = clone
			metrics = Metrics{Dt: dt, Retries: attempt, MassDrift: massDrift, EnergyDrift: energyDrift}
			break
		}

		if attempt == d.Config.MaxRetries {
			return Metrics{}, nil, chk.Err("fem: conservation audit failed after %d retries at dt=%g (mass drift=%g, energy drift=%g)",
				attempt, dt, massDrift, energyDrift)
		}
		dt /= 2
		if dt < d.Config.MinDt {
			return Metrics{}, nil, chk.Err("fem: dt collapsed below MinDt=%g during retry", d.Config.MinDt)
		}
		d.Log.Debug("conservation audit failed, halving step", "dt", dt, "attempt", attempt+1, "massDrift", massDrift, "energyDrift", energyDrift)
	}

	metrics.StepWall = time.Since(wallStart)
	if metrics.StepWall > d.Config.WallClockBudget {
		metrics.FellBehind = true
		d.pendingEvents = append(d.pendingEvents, Event{Kind: "falling_behind", Message: "step exceeded wall-clock budget"})
		d.Log.Warn("step fell behind wall-clock budget", "wall", metrics.StepWall, "budget", d.Config.WallClockBudget)
	}
	d.collectOperatorEvents()
	for _, ev := range d.pendingEvents {
		d.Log.Info("event", "kind", ev.Kind, "message", ev.Message)
	}
	return metrics, d.pendingEvents, nil
}

// candidateDt queries maxStableDt on every operator, takes the minimum, and
// caps it by maxDt and the configured MaxDt.
func (d *Driver) candidateDt(maxDt float64) float64 {
	dt := math.Min(maxDt, d.Config.MaxDt)
	for _, op := range reactor.Sequence(d.Ops) {
		if cand := op.MaxStableDt(d.state); cand < dt {
			dt = cand
		}
	}
	if dt < d.Config.MinDt {
		dt = d.Config.MinDt
	}
	return dt
}

func (d *Driver) applySequence(s *network.Snapshot, dt float64) error {
	for _, op := range reactor.Sequence(d.Ops) {
		next, err := op.Apply(s, dt)
		if err != nil {
			return chk.Err("fem: operator %q failed: %v", op.Name(), err)
		}
		s = next
	}
	s.SimTime += dt
	return nil
}

func (d *Driver) collectOperatorEvents() {
	for _, r := range d.Ops.FluidFlow.Runaways {
		rr := r
		d.pendingEvents = append(d.pendingEvents, Event{Kind: "flow_runaway", Message: "flow clamped to runaway ceiling", Runaway: &rr})
	}
	for _, b := range d.Ops.BurstCheck.Events {
		bb := b
		d.pendingEvents = append(d.pendingEvents, Event{Kind: "burst", Message: "component burst initiated", Burst: &bb})
	}
	if d.Ops.Neutronics.ScramActive && d.Ops.Neutronics.RodInsertion < 1.0 {
		d.pendingEvents = append(d.pendingEvents, Event{Kind: "scram", Message: "scram in progress"})
	}
}

// conservedTotals sums node mass, and (U + C·T) as the energy ledger term,
// for the step's conservation audit.
func conservedTotals(s *network.Snapshot) (mass, energy float64) {
	for id, n := range s.Nodes {
		if id == network.AtmosphereID {
			continue
		}
		mass += n.M
		energy += n.U
	}
	for _, t := range s.Thermal {
		energy += t.C * t.T
	}
	return
}

// boundaryMassFlow and boundaryEnergyFlow are the expected non-conserved
// terms the audit compares drift against, rather than a naive zero-sum
// check: mass and internal energy carried out through break connections to
// the atmosphere node, turbine work and condenser heat rejected to the
// sink, and fission plus decay heat generated this tick.
func boundaryMassFlow(ops *reactor.Operators) float64 {
	return -ops.FluidFlow.LastBreakMassOutKg
}

func boundaryEnergyFlow(ops *reactor.Operators, dt float64) float64 {
	t := ops.TurbineCondenser.Last
	e := -(t.TurbinePowerW + t.CondenserHeatW) * dt
	e += ops.Neutronics.LastGeneratedPowerW * dt
	e += ops.FuelHeatConduction.LastDecayHeatW * dt
	e -= ops.FluidFlow.LastBreakEnergyOutJ
	return e
}

func auditOK(s *network.Snapshot, massDrift, energyDrift float64, cfg Config) bool {
	for id, n := range s.Nodes {
		if id == network.AtmosphereID {
			continue
		}
		if math.IsNaN(n.M) || math.IsNaN(n.U) || n.M < 0 || n.U < 0 {
			return false
		}
	}
	for _, t := range s.Thermal {
		if math.IsNaN(t.T) {
			return false
		}
	}
	return massDrift <= cfg.MassTolerance && energyDrift <= cfg.EnergyTolerance
}
