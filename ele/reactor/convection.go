// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reactor

import (
	"math"

	"github.com/dorival/reactorsim/network"
)

// Coupling is one fuel→cladding→coolant or heat-exchanger thermal path: a
// fixed series resistance (or a quality-dependent UA for heat exchangers)
// linking a ThermalNode to a FlowNode. Grounded on the donor's conduct.Model
// family (Klr/Kgr conductance curves keyed on saturation) generalized from a
// porous-media relative-conductivity curve to a wetted-tube-fraction curve.
type Coupling struct {
	ID          network.ID
	ThermalID   network.ID
	FlowID      network.ID
	H           float64 // W/(m²·K), film coefficient
	Area        float64 // m²
	IsHX        bool
	TubeCount   int
	TubeDiam    float64 // m
	BaseUA      float64 // W/K, at fully wetted tube bundle
}

// ConvectionOp couples FlowNodes and ThermalNodes through Newton-cooling
// terms, including a quality-dependent UA for heat exchangers whose
// effective UA rises with wetted tube fraction on the shell side.
type ConvectionOp struct {
	Couplings []Coupling
}

func (o *ConvectionOp) Name() string { return "Convection" }

// MaxStableDt is limited by the smaller of solid thermal time constants
// (C/UA) and local fluid residence times.
func (o *ConvectionOp) MaxStableDt(s *network.Snapshot) float64 {
	dt := math.Inf(1)
	for _, c := range o.Couplings {
		th, ok := s.Thermal[c.ThermalID]
		if !ok || th.C <= 0 {
			continue
		}
		ua := effectiveUA(s, c)
		if ua <= 0 {
			continue
		}
		cand := th.C / ua
		if cand < dt {
			dt = cand
		}
	}
	for _, n := range s.Nodes {
		for _, c := range o.Couplings {
			if c.FlowID != n.ID {
				continue
			}
			ua := effectiveUA(s, c)
			if ua <= 0 || n.M <= 0 {
				continue
			}
			// residence-time-style bound: m·cpWater / UA, cpWater ≈ 4186 J/(kg·K)
			cand := (n.M * 4186.0) / ua
			if cand < dt {
				dt = cand
			}
		}
	}
	return dt
}

// Apply computes Q̇ = h·A·(T_solid - T_fluid) per coupling, deposited into
// the ThermalNode (cools/heats it) and the FlowNode's U.
func (o *ConvectionOp) Apply(s *network.Snapshot, dt float64) (*network.Snapshot, error) {
	for _, c := range o.Couplings {
		th, okT := s.Thermal[c.ThermalID]
		n, okN := s.Nodes[c.FlowID]
		if !okT || !okN {
			continue
		}
		ua := effectiveUA(s, c)
		qdot := ua * (th.T - n.T)
		energy := qdot * dt
		th.T -= energy / th.C
		n.U += energy
		if n.U < 0 {
			n.U = 0
		}
	}
	return s, nil
}

// effectiveUA returns h·A for a fixed-resistance coupling, or a quality-
// scaled UA for a heat exchanger: BaseUA times the wetted tube fraction,
// which rises toward 1 as the shell-side node's quality falls toward liquid
// (a mostly-drained shell carries far less of its tube bundle wetted).
func effectiveUA(s *network.Snapshot, c Coupling) float64 {
	if !c.IsHX {
		return c.H * c.Area
	}
	n, ok := s.Nodes[c.FlowID]
	if !ok {
		return 0
	}
	wettedFraction := 1.0
	switch n.Phase {
	case network.Vapor:
		wettedFraction = 0.05
	case network.TwoPhase:
		wettedFraction = 1.0 - 0.95*n.X
	case network.Liquid:
		wettedFraction = 1.0
	}
	return c.BaseUA * wettedFraction
}
