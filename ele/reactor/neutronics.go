// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reactor

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/ode"

	"github.com/dorival/reactorsim/network"
)

// DelayedGroups is the number of delayed-neutron precursor groups tracked by
// the point-kinetics model.
const DelayedGroups = 6

// standard six-group delayed-neutron data (effective fractions β_i and decay
// constants λ_i, U-235 thermal fission); Λ is the prompt neutron lifetime.
var defaultBeta = [DelayedGroups]float64{0.000215, 0.001424, 0.001274, 0.002568, 0.000748, 0.000273}
var defaultLambda = [DelayedGroups]float64{0.0124, 0.0305, 0.111, 0.301, 1.14, 3.01}

const defaultPromptLifetime = 2.0e-5 // s

// NeutronicsOp advances core power with a six-delayed-group point-kinetics
// model, reactivity from control-rod insertion and Doppler/moderator
// feedback, and deposits generated power into fuel ThermalNodes. Integrated
// with gosl/ode exactly as the donor's retention.Update advances a single
// state variable across a pseudo-time step, generalized here to the
// kinetics system's (power, precursor[6]) state vector.
type NeutronicsOp struct {
	FuelThermalIDs []network.ID // ThermalNodes receiving generated power, weighted equally
	ModeratorID    network.ID   // FlowNode whose T feeds the moderator feedback term

	Beta    [DelayedGroups]float64
	Lambda  [DelayedGroups]float64
	Lambda0 float64 // prompt neutron lifetime, s

	DopplerCoeff   float64 // Δk per √K of fuel temperature rise (applied to √T_fuel - √T_ref), negative
	ModeratorCoeff float64 // Δk per K of moderator temperature rise, negative
	RodWorth       float64 // Δk at full insertion (rods fully in), negative

	RatedPowerW float64 // W, at Power = 1.0

	RodInsertion float64 // ∈ [0,1], commanded by SetControlRodInsertion
	ScramActive  bool
	ScramFallTime float64 // s, time for rods to reach full insertion after scram

	rodAtScram float64 // insertion fraction when scram began
	scramClock float64 // s elapsed since scram began

	Power       float64              // dimensionless, 1.0 = rated
	Precursors  [DelayedGroups]float64
	fuelTempRef float64 // K, reference fuel temperature for the Doppler term
	modTempRef  float64 // K, reference moderator temperature

	// LastGeneratedPowerW is the fission power actually deposited into fuel
	// ThermalNodes this tick, for the driver's conservation audit to credit.
	LastGeneratedPowerW float64
}

// NewNeutronicsOp returns an operator initialized to a critical steady state
// at Power = 1.0 with precursors in secular equilibrium.
func NewNeutronicsOp(fuelIDs []network.ID, moderatorID network.ID, ratedPowerW, fuelTempRef, modTempRef float64) *NeutronicsOp {
	o := &NeutronicsOp{
		FuelThermalIDs: fuelIDs,
		ModeratorID:    moderatorID,
		Beta:           defaultBeta,
		Lambda:         defaultLambda,
		Lambda0:        defaultPromptLifetime,
		DopplerCoeff:   -3.0e-5,
		ModeratorCoeff: -2.0e-4,
		RodWorth:       -0.08,
		ScramFallTime:  2.0,
		RatedPowerW:    ratedPowerW,
		Power:          1.0,
		fuelTempRef:    fuelTempRef,
		modTempRef:     modTempRef,
	}
	for i := 0; i < DelayedGroups; i++ {
		o.Precursors[i] = (o.Beta[i] / (o.Lambda[i] * o.Lambda0)) * o.Power
	}
	return o
}

func (o *NeutronicsOp) Name() string { return "Neutronics" }

// MaxStableDt is not limiting here: the point-kinetics system is integrated
// implicitly (Radau5) regardless of the driver's chosen Δt.
func (o *NeutronicsOp) MaxStableDt(s *network.Snapshot) float64 { return math.Inf(1) }

// SetControlRodInsertion commands the rod insertion fraction directly; has
// no effect while a scram is active (scram overrides manual commands until
// ResetScram).
func (o *NeutronicsOp) SetControlRodInsertion(frac float64) {
	if o.ScramActive {
		return
	}
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	o.RodInsertion = frac
}

// ManualScram begins driving rod insertion to 1.0 over ScramFallTime.
func (o *NeutronicsOp) ManualScram() {
	if o.ScramActive {
		return
	}
	o.ScramActive = true
	o.rodAtScram = o.RodInsertion
	o.scramClock = 0
}

// ResetScram releases scram, leaving rods at their current (fully inserted)
// position under manual control again.
func (o *NeutronicsOp) ResetScram() {
	o.ScramActive = false
	o.scramClock = 0
}

func (o *NeutronicsOp) reactivity(s *network.Snapshot) float64 {
	rho := o.RodWorth * o.RodInsertion

	fuelT, count := 0.0, 0
	for _, id := range o.FuelThermalIDs {
		if th, ok := s.Thermal[id]; ok {
			fuelT += th.T
			count++
		}
	}
	if count > 0 {
		fuelT /= float64(count)
	} else {
		fuelT = o.fuelTempRef
	}
	rho += o.DopplerCoeff * (math.Sqrt(math.Max(fuelT, 1)) - math.Sqrt(math.Max(o.fuelTempRef, 1)))

	modT := o.modTempRef
	if n, ok := s.Nodes[o.ModeratorID]; ok {
		modT = n.T
	}
	rho += o.ModeratorCoeff * (modT - o.modTempRef)

	return rho
}

// Apply integrates the point-kinetics equations over dt with gosl/ode's
// Radau5 implicit solver, exactly as the donor's retention.Update advances a
// single ODE state across a normalized pseudo-time step, generalized here to
// a (1+DelayedGroups)-dimensional state vector.
func (o *NeutronicsOp) Apply(s *network.Snapshot, dt float64) (*network.Snapshot, error) {
	if o.ScramActive {
		o.scramClock += dt
		if o.ScramFallTime <= 0 {
			o.RodInsertion = 1.0
		} else {
			frac := o.rodAtScram + (1.0-o.rodAtScram)*math.Min(1.0, o.scramClock/o.ScramFallTime)
			o.RodInsertion = frac
		}
	}

	rho := o.reactivity(s)
	ndim := 1 + DelayedGroups

	fcn := func(f []float64, dx, x float64, y []float64) error {
		power := y[0]
		f[0] = (rho - sumBeta(o.Beta)) / o.Lambda0 * power
		for i := 0; i < DelayedGroups; i++ {
			f[0] += o.Lambda[i] * y[1+i]
			f[1+i] = o.Beta[i]/o.Lambda0*power - o.Lambda[i]*y[1+i]
		}
		return nil
	}

	y := make([]float64, ndim)
	y[0] = o.Power
	copy(y[1:], o.Precursors[:])

	var solver ode.Solver
	solver.Init("Radau5", ndim, fcn, nil, nil, nil)
	solver.SetTol(1e-8, 1e-6)
	solver.Distr = false
	if err := solver.Solve(y, 0, dt, dt, false); err != nil {
		return nil, chk.Err("reactor: neutronics integration failed: %v", err)
	}

	o.Power = math.Max(y[0], 0)
	for i := 0; i < DelayedGroups; i++ {
		o.Precursors[i] = math.Max(y[1+i], 0)
	}

	o.LastGeneratedPowerW = 0
	if len(o.FuelThermalIDs) > 0 {
		powerW := o.Power * o.RatedPowerW
		perNode := powerW / float64(len(o.FuelThermalIDs))
		for _, id := range o.FuelThermalIDs {
			if th, ok := s.Thermal[id]; ok {
				th.T += perNode * dt / th.C
				o.LastGeneratedPowerW += perNode
			}
		}
	}
	return s, nil
}

func sumBeta(beta [DelayedGroups]float64) float64 {
	sum := 0.0
	for _, b := range beta {
		sum += b
	}
	return sum
}
