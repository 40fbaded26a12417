// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reactor

import (
	"math"

	"github.com/dorival/reactorsim/network"
)

// ConductionLink is a fixed radial conduction path inside a fuel pin, from an
// inner ThermalNode (pellet centerline) to an outer ThermalNode (clad
// surface), grounded on the donor's thermomech.Thermomech fixed-coefficient
// conduction model generalized from a PDE-tangent stiffness to a single
// lumped resistance between two ThermalNodes.
type ConductionLink struct {
	ID          network.ID
	InnerID     network.ID
	OuterID     network.ID
	Resistance  float64 // K/W
}

// FuelHeatConductionOp moves the heat Neutronics deposited in a fuel pellet's
// interior out to its clad surface before Convection exchanges it with the
// coolant, per the fixed operator order.
type FuelHeatConductionOp struct {
	Links []ConductionLink

	// LastDecayHeatW is the fixed-source (decay heat) power deposited into
	// inner ThermalNodes this tick, for the driver's conservation audit to
	// credit alongside Neutronics' fission power.
	LastDecayHeatW float64
}

func (o *FuelHeatConductionOp) Name() string { return "FuelHeatConduction" }

func (o *FuelHeatConductionOp) MaxStableDt(s *network.Snapshot) float64 {
	dt := math.Inf(1)
	for _, l := range o.Links {
		inner, okI := s.Thermal[l.InnerID]
		outer, okO := s.Thermal[l.OuterID]
		if !okI || !okO || l.Resistance <= 0 {
			continue
		}
		ua := 1.0 / l.Resistance
		cMin := math.Min(inner.C, outer.C)
		if cMin <= 0 || ua <= 0 {
			continue
		}
		cand := cMin / ua
		if cand < dt {
			dt = cand
		}
	}
	return dt
}

func (o *FuelHeatConductionOp) Apply(s *network.Snapshot, dt float64) (*network.Snapshot, error) {
	o.LastDecayHeatW = 0
	for _, l := range o.Links {
		inner, okI := s.Thermal[l.InnerID]
		outer, okO := s.Thermal[l.OuterID]
		if !okI || !okO || l.Resistance <= 0 {
			continue
		}
		// any fixed decay-heat or external source term bound to the inner node
		// is deposited here, ahead of the conduction split to the outer node.
		qgen := inner.QGen(s.SimTime)
		inner.T += qgen * dt / inner.C
		o.LastDecayHeatW += qgen

		qdot := (inner.T - outer.T) / l.Resistance
		energy := qdot * dt
		inner.T -= energy / inner.C
		outer.T += energy / outer.C
	}
	return s, nil
}
