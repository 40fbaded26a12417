// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reactor

import (
	"math"

	"github.com/cpmech/gosl/chk"

	"github.com/dorival/reactorsim/mdl/fluid"
	"github.com/dorival/reactorsim/network"
)

// FlowEpsilon is the minimum |ṁ| (kg/s) a connection must carry before it
// participates in the advection pass; smaller flows are treated as zero to
// avoid churn from numerical noise.
const FlowEpsilon = 1e-6

// MassTransferCapFraction bounds how much of the upstream node's mass may
// move through a single connection in one tick, for numerical stability.
const MassTransferCapFraction = 0.05

// FlowRunawayCeiling is the large safety ceiling on |ṁ|; flows above it are
// clamped and reported, never silently passed through.
const FlowRunawayCeiling = 1.0e5 // kg/s

const gravity = 9.80665

// FluidFlowOp computes and applies mass-and-energy advection through the flow
// network, driven by a quasi-steady momentum balance, grounded on the
// donor's h/UA-style lumped conductance models in mdl/conduct: a single
// algebraic relation (here ΔP = K·½·ρ·v²) stands in for a full momentum PDE.
type FluidFlowOp struct {
	Fluid *fluid.Service // used only for the pump term's liquid-phase density; nil falls back to bulk density

	Runaways []RunawayEvent // connections clamped this tick, for the driver's event queue

	// LastBreakMassOutKg and LastBreakEnergyOutJ are the exact mass and
	// internal energy that moved through break connections to the
	// atmosphere node this tick (positive = left the plant), for the
	// driver's conservation audit to credit.
	LastBreakMassOutKg   float64
	LastBreakEnergyOutJ  float64
}

// RunawayEvent records a connection whose computed flow exceeded
// FlowRunawayCeiling and was clamped.
type RunawayEvent struct {
	ConnectionID network.ID
	Computed     float64
	Clamped      float64
}

func (o *FluidFlowOp) Name() string { return "FluidFlow" }

// MaxStableDt returns 0.5·(m / Σ|inflow|) minimized over nodes, floored at
// 1 ms.
func (o *FluidFlowOp) MaxStableDt(s *network.Snapshot) float64 {
	inflow := make(map[network.ID]float64, len(s.Nodes))
	for _, c := range s.Connections {
		rate, _ := connectionFlowRate(s, c, o.Fluid)
		if rate > 0 {
			inflow[c.ToNode] += rate
		} else if rate < 0 {
			inflow[c.FromNode] += -rate
		}
	}
	dt := math.Inf(1)
	for id, n := range s.Nodes {
		in := inflow[id]
		if in <= 0 {
			continue
		}
		cand := 0.5 * (n.M / in)
		if cand < dt {
			dt = cand
		}
	}
	if dt < 1e-3 {
		dt = 1e-3
	}
	return dt
}

// Apply runs the pump ramp, per-connection quasi-steady momentum solve,
// staged mass/energy advection, and mass/energy floors.
func (o *FluidFlowOp) Apply(s *network.Snapshot, dt float64) (*network.Snapshot, error) {
	o.Runaways = nil
	o.LastBreakMassOutKg = 0
	o.LastBreakEnergyOutJ = 0
	updatePumpSpeeds(s, dt)

	type transfer struct {
		from, to network.ID
		mass     float64
		energy   float64
	}
	var transfers []transfer

	for id, c := range s.Connections {
		rate, err := connectionFlowRate(s, c, o.Fluid)
		if err != nil {
			return nil, err
		}
		if math.Abs(rate) > FlowRunawayCeiling {
			clamped := math.Copysign(FlowRunawayCeiling, rate)
			o.Runaways = append(o.Runaways, RunawayEvent{ConnectionID: id, Computed: rate, Clamped: clamped})
			rate = clamped
		}
		c.MassFlowRate = rate
		if math.Abs(rate) <= FlowEpsilon {
			continue
		}

		upstreamID, downstreamID := c.FromNode, c.ToNode
		if rate < 0 {
			upstreamID, downstreamID = c.ToNode, c.FromNode
		}
		upstream, ok := s.Nodes[upstreamID]
		if !ok {
			continue
		}
		specificU := upstream.U / upstream.M
		dm := math.Abs(rate) * dt
		cap := MassTransferCapFraction * upstream.M
		if dm > cap {
			dm = cap
		}
		transfers = append(transfers, transfer{from: upstreamID, to: downstreamID, mass: dm, energy: dm * specificU})
	}

	for _, t := range transfers {
		from, fromOK := s.Nodes[t.from]
		to, toOK := s.Nodes[t.to]
		if !fromOK || !toOK {
			continue
		}
		energy := t.energy
		if from.U-energy < 0 {
			energy = from.U // cannot give away energy the upstream node doesn't have
		}
		from.M -= t.mass
		from.U -= energy
		to.M += t.mass
		to.U += energy // shunt any borrowed energy back to the downstream side

		if t.to == network.AtmosphereID {
			o.LastBreakMassOutKg += t.mass
			o.LastBreakEnergyOutJ += energy
		} else if t.from == network.AtmosphereID {
			o.LastBreakMassOutKg -= t.mass
			o.LastBreakEnergyOutJ -= energy
		}
	}

	for _, n := range s.Nodes {
		if n.M < network.MinNodeMass {
			n.M = network.MinNodeMass
		}
		if n.U < 0 {
			n.U = 0
		}
	}
	return s, nil
}

// updatePumpSpeeds ramps each pump's EffectiveSpeed toward Command: up at
// rate 1/RampUpTime while Running, down at rate 1/CoastDownTime otherwise or
// when Command has dropped below the current speed.
func updatePumpSpeeds(s *network.Snapshot, dt float64) {
	for _, p := range s.Pumps {
		target := p.Command
		if !p.Running {
			target = 0
		}
		if target >= p.EffectiveSpeed {
			tau := p.RampUpTime
			if tau <= 0 {
				p.EffectiveSpeed = target
				continue
			}
			p.EffectiveSpeed = math.Min(target, p.EffectiveSpeed+dt/tau)
		} else {
			tau := p.CoastDownTime
			if tau <= 0 {
				p.EffectiveSpeed = target
				continue
			}
			p.EffectiveSpeed = math.Max(target, p.EffectiveSpeed-dt/tau)
		}
		if p.EffectiveSpeed < 0 {
			p.EffectiveSpeed = 0
		}
		if p.EffectiveSpeed > 1 {
			p.EffectiveSpeed = 1
		}
	}
}

// connectionFlowRate computes ṁ for one connection: the driving pressure,
// valve/check-valve resistance scaling, and the v-solve. fluidSvc, when
// non-nil, supplies the liquid-phase density for the pump term; pumps are
// assumed to draw from the liquid space of stratified nodes, so the bulk
// density used for the rest of the momentum balance is not appropriate there.
func connectionFlowRate(s *network.Snapshot, c *network.FlowConnection, fluidSvc *fluid.Service) (float64, error) {
	from, ok := s.Nodes[c.FromNode]
	if !ok {
		return 0, chk.Err("reactor: flow connection %q references missing from-node %q", c.ID, c.FromNode)
	}
	to, ok := s.Nodes[c.ToNode]
	if !ok {
		return 0, chk.Err("reactor: flow connection %q references missing to-node %q", c.ID, c.ToNode)
	}

	if c.ValveID != "" {
		if v, ok := s.Valves[c.ValveID]; ok && v.IsClosed() {
			return 0, nil
		}
	}

	rho := from.M / from.V
	if rho <= 0 {
		return 0, nil
	}

	deltaP := (from.P - to.P) + rho*gravity*c.Elevation

	if c.PumpID != "" {
		if p, ok := s.Pumps[c.PumpID]; ok {
			rhoPump := rho
			if fluidSvc != nil {
				if rf, err := fluidSvc.RhoF(from.T); err == nil && rf > 0 {
					rhoPump = rf
				}
			}
			deltaP += p.EffectiveSpeed * p.RatedHead * rhoPump * gravity
		}
	}

	if c.CheckValveID != "" {
		if cv, ok := s.CheckValves[c.CheckValveID]; ok && !cv.Passes(deltaP) {
			return 0, nil
		}
	}

	k := c.ResistanceCoeff
	if k <= 0 {
		k = 1.0
	}
	if c.ValveID != "" {
		if v, ok := s.Valves[c.ValveID]; ok {
			mult := v.ResistanceMultiplier()
			if math.IsInf(mult, 1) {
				return 0, nil
			}
			k *= mult
		}
	}

	if deltaP == 0 {
		return 0, nil
	}
	vMagSq := 2 * math.Abs(deltaP) / (k * rho)
	if vMagSq < 0 {
		vMagSq = 0
	}
	v := math.Sqrt(vMagSq)
	area := c.FlowArea
	if area <= 0 {
		area = 1.0
	}
	return math.Copysign(rho*area*v, deltaP), nil
}
