// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reactor

import (
	"math"

	"github.com/dorival/reactorsim/mdl/fluid"
	"github.com/dorival/reactorsim/mdl/steam"
	"github.com/dorival/reactorsim/network"
)

// FluidStateUpdateOp runs last in each tick: it calls the water-properties
// service on every FlowNode's (m, U, V) and writes back T, P, phase, x using
// the hybrid pressure model.
type FluidStateUpdateOp struct {
	Fluid       *fluid.Service
	BulkModulus *fluid.BulkModulus

	hints map[network.ID]*steam.Hint

	LastWarnings []NodeWarning
}

// NodeWarning surfaces a non-fatal WaterState.Warning for the debug surface.
type NodeWarning struct {
	NodeID  network.ID
	Message string
}

func (o *FluidStateUpdateOp) Name() string { return "FluidStateUpdate" }

func (o *FluidStateUpdateOp) MaxStableDt(s *network.Snapshot) float64 { return math.Inf(1) }

// Apply writes T, P, Phase, X back to every FlowNode.
func (o *FluidStateUpdateOp) Apply(s *network.Snapshot, dt float64) (*network.Snapshot, error) {
	if o.hints == nil {
		o.hints = make(map[network.ID]*steam.Hint)
	}
	o.LastWarnings = nil

	for id, n := range s.Nodes {
		if id == network.AtmosphereID {
			continue
		}
		hint, ok := o.hints[id]
		if !ok {
			hint = &steam.Hint{LastTriangle: -1}
			o.hints[id] = hint
		}
		state, err := o.Fluid.StateFromMUV(n.M, n.U, n.V, hint)
		if err != nil {
			return nil, err
		}
		n.T = state.T
		n.Phase = state.Phase
		n.X = state.X
		n.P = o.hybridPressure(state, n.M/n.V)
		if state.Warning != "" {
			o.LastWarnings = append(o.LastWarnings, NodeWarning{NodeID: id, Message: state.Warning})
		}
	}
	return s, nil
}

// hybridPressure adds the bulk-modulus compressibility feedback term to the
// table/correlation base pressure for liquid nodes, so compressed liquid
// does not collapse to a single isochore:
//   P = P_base + bulkModulus(T_C)·(ρ/ρ_ref(T) - 1)
func (o *FluidStateUpdateOp) hybridPressure(state fluid.WaterState, rho float64) float64 {
	if state.Phase != network.Liquid || o.BulkModulus == nil {
		return state.P
	}
	rhoRef, err := o.Fluid.RhoF(state.T)
	if err != nil || rhoRef <= 0 {
		return state.P
	}
	tCelsius := state.T - 273.15
	k := o.BulkModulus.Calc(tCelsius)
	return state.P + k*(rho/rhoRef-1)
}
