// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reactor

import (
	"math"
	"math/rand"

	"github.com/dorival/reactorsim/network"
)

// BurstEvent is emitted on first burst of a pressure-rated component. It is
// not an error: the simulation keeps running with the break modeled as a
// discharge connection.
type BurstEvent struct {
	BurstID        network.ID
	NodeID         network.ID
	BreakLocation  float64
	BreakElevation float64
	EffectiveP     float64
	BurstPressure  float64
}

// BurstCheckOp is a constraint-style operator: it does not advance time, it
// checks and grows break state, grounded on the donor's mdl/solid yield-
// surface discipline (a monotone internal damage variable that never
// decreases once a threshold is crossed).
type BurstCheckOp struct {
	MinBreakFraction      float64 // break fraction at the burst threshold
	MaxBreakFraction      float64 // break fraction at full-break overpressure
	FullBreakOverpressure float64 // fraction above burstPressure at which breakFraction saturates
	OrificeCoeff          float64 // sharp-edged-orifice resistance coefficient for synthesized break connections

	Events []BurstEvent
}

// NewBurstCheckOp returns an operator with the textbook sharp-edged-orifice
// defaults.
func NewBurstCheckOp() *BurstCheckOp {
	return &BurstCheckOp{
		MinBreakFraction:      0.02,
		MaxBreakFraction:      1.0,
		FullBreakOverpressure: 0.15,
		OrificeCoeff:          2.8,
	}
}

func (o *BurstCheckOp) Name() string { return "BurstCheck" }

func (o *BurstCheckOp) MaxStableDt(s *network.Snapshot) float64 { return math.Inf(1) }

// Apply checks every BurstState's effective pressure, initiates/grows the
// break, and synthesizes the discharge FlowConnection on first burst.
func (o *BurstCheckOp) Apply(s *network.Snapshot, dt float64) (*network.Snapshot, error) {
	o.Events = nil
	for _, b := range s.Bursts {
		node, ok := s.Nodes[b.NodeID]
		if !ok {
			continue
		}

		var refP float64
		var hasRef bool
		if b.IsTubeSide {
			if shell, ok := s.Nodes[b.ShellNodeID]; ok {
				refP = shell.P
				hasRef = true
			}
		} else if b.ContainerID != "" {
			refP, hasRef = s.ContainerPressure(b.ContainerID)
		}
		effP := b.EffectivePressure(node.P, refP, hasRef)

		if !b.IsBurst {
			if effP > b.BurstPressure {
				initiate(b, s, effP, o)
			}
			continue
		}

		frac := growthFraction(o, b, effP)
		b.GrowFraction(frac)
		if conn, ok := s.Connections[b.BreakConnectionID]; ok {
			orificeArea := referenceArea(node) * b.CurrentBreakFraction
			conn.FlowArea = orificeArea
			conn.ResistanceCoeff = o.OrificeCoeff
		}
	}
	return s, nil
}

func initiate(b *network.BurstState, s *network.Snapshot, effP float64, o *BurstCheckOp) {
	b.IsBurst = true
	b.BurstTime = s.SimTime

	rng := rand.New(rand.NewSource(b.Seed))
	b.BreakLocation = rng.Float64()
	b.BreakElevation = rng.Float64()

	frac := growthFraction(o, b, effP)
	b.GrowFraction(frac)

	node := s.Nodes[b.NodeID]
	targetID := network.ID(string(b.ContainerID))
	if b.ContainerID == "" {
		targetID = network.AtmosphereID
	}
	breakID := network.ID(string(b.ID) + ".break")
	nodeIDs := map[network.ID]bool{b.NodeID: true, targetID: true}
	conn, err := network.NewFlowConnection(breakID, b.NodeID, targetID, nodeIDs)
	if err == nil {
		conn.IsBreakConnection = true
		conn.ResistanceCoeff = o.OrificeCoeff
		conn.FlowArea = referenceArea(node) * b.CurrentBreakFraction
		s.Connections[breakID] = conn
		b.BreakConnectionID = breakID
	}

	o.Events = append(o.Events, BurstEvent{
		BurstID: b.ID, NodeID: b.NodeID,
		BreakLocation: b.BreakLocation, BreakElevation: b.BreakElevation,
		EffectiveP: effP, BurstPressure: b.BurstPressure,
	})
}

// growthFraction is a quadratic ramp from MinBreakFraction at the burst
// threshold to MaxBreakFraction at (1+FullBreakOverpressure)·burstPressure.
func growthFraction(o *BurstCheckOp, b *network.BurstState, effP float64) float64 {
	span := b.BurstPressure * o.FullBreakOverpressure
	if span <= 0 {
		return o.MaxBreakFraction
	}
	over := (effP - b.BurstPressure) / span
	if over < 0 {
		over = 0
	}
	if over > 1 {
		over = 1
	}
	return o.MinBreakFraction + (o.MaxBreakFraction-o.MinBreakFraction)*over*over
}

// referenceArea returns the nominal flow area used to scale a break's
// orifice area by breakFraction.
func referenceArea(n *network.FlowNode) float64 {
	if n.FlowArea > 0 {
		return n.FlowArea
	}
	return 1.0
}
