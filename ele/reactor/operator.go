// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package reactor implements the physics operators that advance a reactor
// plant's flow/thermal network one Δt at a time. Each operator receives a
// cloned *network.Snapshot and returns it after mutating it directly; the
// driver owns cloning and never hands an operator the authoritative state.
package reactor

import "github.com/dorival/reactorsim/network"

// Operator defines what every physics pass must implement, mirroring the
// donor's ele.Element discipline of a small, uniform contract every concrete
// implementation satisfies regardless of its internal complexity.
type Operator interface {
	// Apply advances s by dt and returns the resulting snapshot.
	Apply(s *network.Snapshot, dt float64) (*network.Snapshot, error)

	// MaxStableDt returns this operator's upper bound on a stable step size
	// for the given state, or math.Inf(1) if it imposes no limit.
	MaxStableDt(s *network.Snapshot) float64

	// Name identifies the operator for metrics and event labeling.
	Name() string
}

// Sequence is the fixed operator order mandated for every tick: Neutronics,
// FuelHeatConduction, Convection, FluidFlow, TurbineCondenser, BurstCheck,
// FluidStateUpdate. The driver iterates this slice; it must never reorder it.
func Sequence(ops *Operators) []Operator {
	return []Operator{
		ops.Neutronics,
		ops.FuelHeatConduction,
		ops.Convection,
		ops.FluidFlow,
		ops.TurbineCondenser,
		ops.BurstCheck,
		ops.FluidStateUpdate,
	}
}

// Operators bundles one instance of each concrete operator, constructed once
// by the driver and reused across every tick.
type Operators struct {
	Neutronics         *NeutronicsOp
	FuelHeatConduction *FuelHeatConductionOp
	Convection         *ConvectionOp
	FluidFlow          *FluidFlowOp
	TurbineCondenser   *TurbineCondenserOp
	BurstCheck         *BurstCheckOp
	FluidStateUpdate   *FluidStateUpdateOp
}
