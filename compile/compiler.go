// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compile

import (
	"github.com/cpmech/gosl/chk"

	"github.com/dorival/reactorsim/ele/reactor"
	"github.com/dorival/reactorsim/network"
)

// BuildNetwork walks plant and emits the network topology, its initial
// mutable snapshot, and the operator-level physics bindings (thermal
// couplings, conduction links, turbine/condenser definitions, pump-work
// bookkeeping) derived from the same component and connection declarations.
// It never silently coerces an impossible geometry or a disconnected plant:
// every failure is collected and returned, so a caller can report every
// problem at once instead of fixing them one at a time.
func BuildNetwork(plant *PlantDoc) (*network.NetworkModel, *network.Snapshot, *PhysicsBindings, []error) {
	var errs []error

	g, err := buildComponentGraph(plant)
	if err != nil {
		return nil, nil, nil, []error{err}
	}
	if err := checkConnected(g); err != nil {
		errs = append(errs, err)
	}
	closure, err := containmentClosure(plant)
	if err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, nil, nil, errs
	}

	model := network.NewNetworkModel()
	snap := network.NewSnapshot(model)
	bindings := &PhysicsBindings{}

	// step 1: one or more FlowNodes per hydraulic component, plus whatever
	// thermal/burst physics its declared params bind to that component.
	nodeIDs := make(map[network.ID]bool)
	for _, c := range plant.Components {
		switch c.Type {
		case "vessel":
			geo, gerr := vesselGeometryFromParams(c)
			if gerr != nil {
				errs = append(errs, gerr)
				continue
			}
			barrelID := network.ID(c.ID + ".barrel")
			annulusID := network.ID(c.ID + ".annulus")
			if err := addFlowNode(model, snap, nodeIDs, barrelID, geo.BarrelVolume, c.Elevation, 0); err != nil {
				errs = append(errs, err)
			}
			if err := addFlowNode(model, snap, nodeIDs, annulusID, geo.AnnulusVolume, c.Elevation, 0); err != nil {
				errs = append(errs, err)
			}
			// step 3: internal top/bottom gap connections between barrel and annulus.
			addInternalGapConnections(model, snap, nodeIDs, c.ID, barrelID, annulusID, geo)
			addCoreThermal(model, snap, bindings, c, barrelID)
			addBurstState(model, snap, plant.Seed, c, barrelID)
		default:
			volume, verr := componentVolume(c)
			if verr != nil {
				errs = append(errs, verr)
				continue
			}
			id := network.ID(c.ID)
			if err := addFlowNode(model, snap, nodeIDs, id, volume, c.Elevation, c.Params["flowArea"]); err != nil {
				errs = append(errs, err)
				continue
			}
			addGenericThermal(model, snap, bindings, c, id)
			addBurstState(model, snap, plant.Seed, c, id)
		}
	}

	// step 2: one FlowConnection per user connection, splitting through an
	// intermediate pipe node when PipeID names a pipe component.
	for _, conn := range plant.Connections {
		fromID, err := resolveEndpoint(plant, conn.FromComponent)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		toID, err := resolveEndpoint(plant, conn.ToComponent)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := validateConnectionLength(conn); err != nil {
			errs = append(errs, err)
			continue
		}
		if conn.PipeID != "" {
			pipeID := network.ID(conn.PipeID)
			if !nodeIDs[pipeID] {
				errs = append(errs, chk.Err("compile: connection %q references undeclared pipe node %q", conn.ID, conn.PipeID))
				continue
			}
			addConnection(model, snap, nodeIDs, network.ID(conn.ID+".in"), fromID, pipeID, conn)
			addConnection(model, snap, nodeIDs, network.ID(conn.ID+".out"), pipeID, toID, conn)
			continue
		}
		addConnection(model, snap, nodeIDs, network.ID(conn.ID), fromID, toID, conn)
	}

	// turbine/condenser definitions need the connections built above to
	// resolve a turbine's extraction-flow outlet.
	for _, c := range plant.Components {
		switch c.Type {
		case "turbine":
			if err := addTurbineDefinition(bindings, plant, c, network.ID(c.ID)); err != nil {
				errs = append(errs, err)
			}
		case "condenser":
			addCondenserDefinition(bindings, c, network.ID(c.ID))
		}
	}

	// step 4: assign containerId from the containment closure.
	for compID, rootID := range closure {
		if compID == rootID {
			continue // uncontained; its own closure root
		}
		applyContainer(snap, compID, network.ID(rootID))
	}
	for _, b := range snap.Bursts {
		if n, ok := snap.Nodes[b.NodeID]; ok {
			b.ContainerID = n.ContainerID
		}
	}

	// step 5: ValveState/PumpState/CheckValveState records, bound by connection.
	for _, conn := range plant.Connections {
		if p := registerDevices(model, snap, conn); p != nil {
			bindings.Pumps = append(bindings.Pumps, *p)
		}
	}

	// atmosphere node, always present so BurstCheck never special-cases it.
	atm, _ := network.NewFlowNode(network.AtmosphereID, 1.0)
	atm.P = network.AtmospherePressure
	snap.Nodes[network.AtmosphereID] = atm
	model.AddNode(network.AtmosphereID)

	if len(errs) > 0 {
		return nil, nil, nil, errs
	}
	return model, snap, bindings, nil
}

func addFlowNode(model *network.NetworkModel, snap *network.Snapshot, nodeIDs map[network.ID]bool, id network.ID, volume, elevation, flowArea float64) error {
	n, err := network.NewFlowNode(id, volume)
	if err != nil {
		return err
	}
	n.Elevation = elevation
	n.FlowArea = flowArea
	snap.Nodes[id] = n
	model.AddNode(id)
	nodeIDs[id] = true
	return nil
}

// addInternalGapConnections wires step 3: automatic top/bottom connections
// between a vessel's barrel interior and its annulus.
func addInternalGapConnections(model *network.NetworkModel, snap *network.Snapshot, nodeIDs map[network.ID]bool, compID string, barrelID, annulusID network.ID, geo *VesselGeometry) {
	top := network.ID(compID + ".gap.top")
	bottom := network.ID(compID + ".gap.bottom")
	topConn, err := network.NewFlowConnection(top, barrelID, annulusID, nodeIDs)
	if err == nil {
		topConn.FlowArea = geo.TopGapArea
		topConn.Elevation = 0
		topConn.FromElevation = geo.Height
		topConn.ToElevation = geo.Height
		snap.Connections[top] = topConn
		model.AddConnection(top, barrelID, annulusID)
	}
	bottomConn, err := network.NewFlowConnection(bottom, barrelID, annulusID, nodeIDs)
	if err == nil {
		bottomConn.FlowArea = geo.BottomGapArea
		bottomConn.Elevation = 0
		snap.Connections[bottom] = bottomConn
		model.AddConnection(bottom, barrelID, annulusID)
	}
}

func addConnection(model *network.NetworkModel, snap *network.Snapshot, nodeIDs map[network.ID]bool, id, from, to network.ID, doc ConnectionDoc) {
	c, err := network.NewFlowConnection(id, from, to, nodeIDs)
	if err != nil {
		return
	}
	c.FlowArea = doc.FlowArea
	c.Length = doc.Length
	c.FromElevation = doc.FromElevation
	c.ToElevation = doc.ToElevation
	c.Elevation = doc.ToElevation - doc.FromElevation
	if fn, ok := snap.Nodes[from]; ok {
		if tn, ok := snap.Nodes[to]; ok {
			c.Elevation = (tn.Elevation + doc.ToElevation) - (fn.Elevation + doc.FromElevation)
		}
	}
	snap.Connections[id] = c
	model.AddConnection(id, from, to)
}

// resolveEndpoint maps a component ID to the FlowNode ID that should be used
// as a connection endpoint: a vessel's barrel interior for a vessel, the
// component's own FlowNode for everything else.
func resolveEndpoint(plant *PlantDoc, componentID string) (network.ID, error) {
	for _, c := range plant.Components {
		if c.ID == componentID {
			if c.Type == "vessel" {
				return network.ID(componentID + ".barrel"), nil
			}
			return network.ID(componentID), nil
		}
	}
	return "", chk.Err("compile: connection references unknown component %q", componentID)
}

func validateConnectionLength(conn ConnectionDoc) error {
	if conn.Length <= 0 {
		return chk.Err("compile: connection %q has non-positive length %g", conn.ID, conn.Length)
	}
	if conn.FlowArea <= 0 {
		return chk.Err("compile: connection %q has non-positive flow area %g", conn.ID, conn.FlowArea)
	}
	return nil
}

func componentVolume(c ComponentDoc) (float64, error) {
	radius, hasRadius := c.Params["radius"]
	height, hasHeight := c.Params["height"]
	if vol, hasVol := c.Params["volume"]; hasVol {
		if vol <= 0 {
			return 0, chk.Err("compile: component %q has non-positive declared volume %g", c.ID, vol)
		}
		return vol, nil
	}
	if hasRadius && hasHeight {
		return CylinderVolume(radius, height)
	}
	return 0, chk.Err("compile: component %q must declare either volume or radius+height", c.ID)
}

func vesselGeometryFromParams(c ComponentDoc) (*VesselGeometry, error) {
	inner, ok1 := c.Params["innerRadius"]
	outer, ok2 := c.Params["outerRadius"]
	height, ok3 := c.Params["height"]
	if !ok1 || !ok2 || !ok3 {
		return nil, chk.Err("compile: vessel %q must declare innerRadius, outerRadius and height", c.ID)
	}
	core := c.Params["coreRadius"] // 0 if absent
	var geo VesselGeometry
	if err := geo.Init(inner, outer, height, core); err != nil {
		return nil, chk.Err("compile: vessel %q: %v", c.ID, err)
	}
	return &geo, nil
}

func applyContainer(snap *network.Snapshot, compID string, rootID network.ID) {
	barrelID := network.ID(compID + ".barrel")
	annulusID := network.ID(compID + ".annulus")
	plainID := network.ID(compID)
	rootBarrel := network.ID(string(rootID) + ".barrel")

	if n, ok := snap.Nodes[barrelID]; ok {
		n.ContainerID = rootBarrelOrPlain(snap, rootID, rootBarrel)
	}
	if n, ok := snap.Nodes[annulusID]; ok {
		n.ContainerID = rootBarrelOrPlain(snap, rootID, rootBarrel)
	}
	if n, ok := snap.Nodes[plainID]; ok {
		n.ContainerID = rootBarrelOrPlain(snap, rootID, rootBarrel)
	}
}

func rootBarrelOrPlain(snap *network.Snapshot, rootID, rootBarrel network.ID) network.ID {
	if _, ok := snap.Nodes[rootBarrel]; ok {
		return rootBarrel
	}
	return rootID
}

// registerDevices registers the hydraulic device state for conn, and returns
// the operator-level pump work-bookkeeping record to accumulate into
// PhysicsBindings.Pumps when a pump was registered, or nil otherwise.
func registerDevices(model *network.NetworkModel, snap *network.Snapshot, conn ConnectionDoc) *reactor.Pump {
	var pump *reactor.Pump
	if _, ok := conn.DeviceParams["pumpRatedHead"]; ok {
		p := &network.PumpState{
			ID:            network.ID(conn.ID + ".pump"),
			ConnectionID:  network.ID(conn.ID),
			RampUpTime:    paramOr(conn, "pumpRampUpTime", 5.0),
			CoastDownTime: paramOr(conn, "pumpCoastDownTime", 15.0),
			RatedHead:     paramOr(conn, "pumpRatedHead", 0),
			RatedFlow:     paramOr(conn, "pumpRatedFlow", 0),
			Efficiency:    paramOr(conn, "pumpEfficiency", 0.75),
		}
		snap.Pumps[p.ID] = p
		model.PumpIDs = append(model.PumpIDs, p.ID)
		if c, ok := snap.Connections[network.ID(conn.ID)]; ok {
			c.PumpID = p.ID
		}
		pump = &reactor.Pump{ID: network.ID(conn.ID + ".pumpwork"), PumpID: p.ID, ConnID: network.ID(conn.ID)}
	}
	if _, ok := conn.DeviceParams["valvePosition"]; ok {
		v := &network.ValveState{
			ID:           network.ID(conn.ID + ".valve"),
			ConnectionID: network.ID(conn.ID),
			Position:     paramOr(conn, "valvePosition", 1.0),
		}
		snap.Valves[v.ID] = v
		model.ValveIDs = append(model.ValveIDs, v.ID)
		if c, ok := snap.Connections[network.ID(conn.ID)]; ok {
			c.ValveID = v.ID
		}
	}
	if _, ok := conn.DeviceParams["checkValveCrackingPressure"]; ok {
		cv := &network.CheckValveState{
			ID:               network.ID(conn.ID + ".checkvalve"),
			ConnectionID:     network.ID(conn.ID),
			CrackingPressure: paramOr(conn, "checkValveCrackingPressure", 0),
		}
		snap.CheckValves[cv.ID] = cv
		model.CheckValveIDs = append(model.CheckValveIDs, cv.ID)
		if c, ok := snap.Connections[network.ID(conn.ID)]; ok {
			c.CheckValveID = cv.ID
		}
	}
	return pump
}

func paramOr(conn ConnectionDoc, key string, fallback float64) float64 {
	if v, ok := conn.DeviceParams[key]; ok {
		return v
	}
	return fallback
}
