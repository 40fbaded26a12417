// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compile

import (
	"hash/fnv"
	"math/rand"

	"github.com/cpmech/gosl/chk"

	"github.com/dorival/reactorsim/ele/reactor"
	"github.com/dorival/reactorsim/network"
)

// PhysicsBindings collects the operator-level records the compiler derives
// from component and connection declarations: thermal couplings, conduction
// links, turbine/condenser definitions, pump-work bookkeeping, and the
// neutronics fuel/moderator bindings. None of these live on *network.Snapshot
// itself -- a caller assembles them into a *reactor.Operators alongside the
// compiled model and snapshot.
type PhysicsBindings struct {
	Couplings       []reactor.Coupling
	ConductionLinks []reactor.ConductionLink
	Turbines        []reactor.Turbine
	Condensers      []reactor.Condenser
	Pumps           []reactor.Pump

	FuelThermalIDs []network.ID // ThermalNodes Neutronics deposits generated power into
	ModeratorID    network.ID   // FlowNode Neutronics reads for moderator feedback
	RatedPowerW    float64      // sum of declared core rated thermal power, for Neutronics
}

func paramOrDefault(p map[string]float64, key string, fallback float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}
	return fallback
}

// componentSeed derives a deterministic per-component seed from the plant's
// declared Seed and the component's own ID, so two components never draw the
// same burst margin from one plant-level seed.
func componentSeed(base int64, id string) int64 {
	h := fnv.New64a()
	h.Write([]byte(id))
	return base ^ int64(h.Sum64())
}

// addBurstState synthesizes a BurstState for any component declaring a
// burstDesignRating, keyed the same way registerDevices keys pump/valve
// params: presence of the param is what triggers the device. ζ is drawn once
// here, deterministically, from the plant's seed -- not re-drawn per tick.
func addBurstState(model *network.NetworkModel, snap *network.Snapshot, seedBase int64, c ComponentDoc, nodeID network.ID) {
	rating, ok := c.Params["burstDesignRating"]
	if !ok || rating <= 0 {
		return
	}
	seed := componentSeed(seedBase, c.ID)
	zeta := rand.New(rand.NewSource(seed)).Float64() * 0.4
	b := &network.BurstState{
		ID:            network.ID(c.ID + ".burst"),
		NodeID:        nodeID,
		DesignRating:  rating,
		Zeta:          zeta,
		BurstPressure: rating * (1 + zeta),
		Seed:          seed,
	}
	snap.Bursts[b.ID] = b
	model.AddBurst(b.ID)
}

// addCoreThermal synthesizes the fuel pellet and clad ThermalNodes, their
// conduction link, and the clad-to-coolant convection coupling for a vessel
// whose coreRadius marks it as fuel-bearing, and registers the fuel node for
// the Neutronics power deposit and the barrel as the moderator feedback node.
func addCoreThermal(model *network.NetworkModel, snap *network.Snapshot, bindings *PhysicsBindings, c ComponentDoc, barrelID network.ID) {
	if c.Params["coreRadius"] <= 0 {
		return
	}
	fuelID := network.ID(c.ID + ".fuel")
	cladID := network.ID(c.ID + ".clad")

	fuel := &network.ThermalNode{
		ID: fuelID,
		C:  paramOrDefault(c.Params, "fuelHeatCapacity", 5.0e6),
		T:  paramOrDefault(c.Params, "initialFuelTemp", 900.0),
	}
	if decay := c.Params["decayHeatW"]; decay != 0 {
		fixed := decay
		fuel.QGenFn = func(float64) float64 { return fixed }
	}
	snap.Thermal[fuelID] = fuel
	model.AddThermal(fuelID)

	clad := &network.ThermalNode{
		ID: cladID,
		C:  paramOrDefault(c.Params, "cladHeatCapacity", 5.0e5),
		T:  paramOrDefault(c.Params, "initialCladTemp", 600.0),
	}
	snap.Thermal[cladID] = clad
	model.AddThermal(cladID)

	bindings.ConductionLinks = append(bindings.ConductionLinks, reactor.ConductionLink{
		ID:         network.ID(c.ID + ".fuel_clad"),
		InnerID:    fuelID,
		OuterID:    cladID,
		Resistance: paramOrDefault(c.Params, "fuelCladResistance", 2.0e-4),
	})

	bindings.Couplings = append(bindings.Couplings, reactor.Coupling{
		ID:        network.ID(c.ID + ".clad_coolant"),
		ThermalID: cladID,
		FlowID:    barrelID,
		H:         paramOrDefault(c.Params, "coreFilmCoefficient", 2.0e4),
		Area:      paramOrDefault(c.Params, "coreWettedArea", 100.0),
	})

	bindings.FuelThermalIDs = append(bindings.FuelThermalIDs, fuelID)
	if bindings.ModeratorID == "" {
		bindings.ModeratorID = barrelID
	}
	bindings.RatedPowerW += c.Params["ratedPowerW"]
}

// addGenericThermal synthesizes a solid-mass ThermalNode for any component
// declaring a heatCapacity, coupled to the component's own FlowNode. hx_shell
// and hx_tube components get a quality-scaled heat-exchanger coupling; every
// other type gets a fixed h·A film coupling.
func addGenericThermal(model *network.NetworkModel, snap *network.Snapshot, bindings *PhysicsBindings, c ComponentDoc, flowID network.ID) {
	capacity, ok := c.Params["heatCapacity"]
	if !ok || capacity <= 0 {
		return
	}
	thermalID := network.ID(c.ID + ".thermal")
	th := &network.ThermalNode{ID: thermalID, C: capacity, T: paramOrDefault(c.Params, "initialTemp", 293.15)}
	if decay := c.Params["decayHeatW"]; decay != 0 {
		fixed := decay
		th.QGenFn = func(float64) float64 { return fixed }
	}
	snap.Thermal[thermalID] = th
	model.AddThermal(thermalID)

	coupling := reactor.Coupling{ID: network.ID(c.ID + ".thermal_coupling"), ThermalID: thermalID, FlowID: flowID}
	if c.Type == "hx_shell" || c.Type == "hx_tube" {
		coupling.IsHX = true
		coupling.BaseUA = paramOrDefault(c.Params, "heatExchangeUA", 1.0e4)
		coupling.TubeCount = int(c.Params["tubeCount"])
		coupling.TubeDiam = c.Params["tubeDiameter"]
	} else {
		coupling.H = paramOrDefault(c.Params, "filmCoefficient", 500.0)
		coupling.Area = paramOrDefault(c.Params, "wettedArea", 10.0)
	}
	bindings.Couplings = append(bindings.Couplings, coupling)
}

// addTurbineDefinition binds a "turbine"-typed component to the single
// outgoing connection that carries its extraction flow: the component's own
// FlowNode is the inlet, the connection's resolved far endpoint is the
// outlet.
func addTurbineDefinition(bindings *PhysicsBindings, plant *PlantDoc, c ComponentDoc, ownNodeID network.ID) error {
	for _, conn := range plant.Connections {
		if conn.FromComponent != c.ID {
			continue
		}
		outletID, err := resolveEndpoint(plant, conn.ToComponent)
		if err != nil {
			return err
		}
		bindings.Turbines = append(bindings.Turbines, reactor.Turbine{
			ID:         network.ID(c.ID),
			InletNode:  ownNodeID,
			OutletNode: outletID,
			ConnID:     network.ID(conn.ID),
			Efficiency: paramOrDefault(c.Params, "turbineEfficiency", 0.85),
		})
		return nil
	}
	return chk.Err("compile: turbine %q has no outgoing connection to carry extraction flow", c.ID)
}

// addCondenserDefinition binds a "condenser"-typed component to its own
// FlowNode.
func addCondenserDefinition(bindings *PhysicsBindings, c ComponentDoc, ownNodeID network.ID) {
	bindings.Condensers = append(bindings.Condensers, reactor.Condenser{
		ID:              network.ID(c.ID),
		CondenserNode:   ownNodeID,
		UA:              paramOrDefault(c.Params, "condenserUA", 0),
		SinkTemperature: paramOrDefault(c.Params, "condenserSinkTemp", 300.0),
		Ceiling:         c.Params["condenserCeiling"],
	})
}
