// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"time"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"github.com/dorival/reactorsim/compile"
	"github.com/dorival/reactorsim/ele/reactor"
	"github.com/dorival/reactorsim/fem"
	"github.com/dorival/reactorsim/mdl/fluid"
	"github.com/dorival/reactorsim/mdl/steam"
)

func main() {

	// catch errors
	defer func() {
		if err := recover(); err != nil {
			chk.Verbose = true
			io.PfRed("ERROR: %v\n", err)
		}
	}()

	// input flags
	plantPath := flag.String("plant", "", "path to the plant document (JSON)")
	tablePath := flag.String("table", "", "path to the steam table (tab-separated)")
	duration := flag.Float64("duration", 60.0, "simulated seconds to run")
	maxDt := flag.Float64("maxdt", 0.1, "maximum step size, s")
	verbose := flag.Bool("v", false, "verbose fluid-lookup logging")
	flag.Parse()

	if *plantPath == "" {
		chk.Panic("please provide -plant <plant.json>")
	}
	if *tablePath == "" {
		chk.Panic("please provide -table <steamtable.tsv>")
	}

	io.PfWhite("\nreactorsim -- reactor plant physics engine\n\n")
	io.Pf("Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.\n")
	io.Pf("Use of this source code is governed by a BSD-style\n")
	io.Pf("license that can be found in the LICENSE file.\n\n")

	io.Pf("loading plant document: %s\n", *plantPath)
	doc, err := compile.LoadPlantDoc(*plantPath)
	if err != nil {
		chk.Panic("%v", err)
	}

	model, snapshot, bindings, errs := compile.BuildNetwork(doc)
	if len(errs) > 0 {
		for _, e := range errs {
			io.PfRed("compile: %v\n", e)
		}
		chk.Panic("plant document failed to compile (%d errors)", len(errs))
	}
	io.PfGreen("compiled %d nodes, %d connections\n", len(snapshot.Nodes), len(snapshot.Connections))

	io.Pf("loading steam table: %s\n", *tablePath)
	store, err := steam.Load(*tablePath)
	if err != nil {
		chk.Panic("%v", err)
	}
	fluidSvc := fluid.NewService(store)
	fluidSvc.Verbose = *verbose

	ops := &reactor.Operators{
		FluidFlow:          &reactor.FluidFlowOp{Fluid: fluidSvc},
		Convection:         &reactor.ConvectionOp{Couplings: bindings.Couplings},
		FuelHeatConduction: &reactor.FuelHeatConductionOp{Links: bindings.ConductionLinks},
		TurbineCondenser:   &reactor.TurbineCondenserOp{Fluid: fluidSvc, Turbines: bindings.Turbines, Condensers: bindings.Condensers, Pumps: bindings.Pumps},
		BurstCheck:         reactor.NewBurstCheckOp(),
		FluidStateUpdate:   &reactor.FluidStateUpdateOp{Fluid: fluidSvc, BulkModulus: fluid.NewBulkModulus()},
		Neutronics:         reactor.NewNeutronicsOp(bindings.FuelThermalIDs, bindings.ModeratorID, bindings.RatedPowerW, 900.0, 560.0),
	}

	cfg := fem.DefaultConfig()
	driver := fem.NewDriver(model, snapshot, ops, cfg)

	io.Pf("\nrunning %g s (maxdt=%g s)\n", *duration, *maxDt)
	start := time.Now()
	simTime := 0.0
	steps := 0
	for simTime < *duration {
		metrics, events, err := driver.Step(*maxDt)
		if err != nil {
			chk.Panic("%v", err)
		}
		simTime += metrics.Dt
		steps++
		for _, ev := range events {
			io.PfYel("event: %s -- %s\n", ev.Kind, ev.Message)
		}
	}
	io.PfGreen("\ndone: %d steps, %g simulated seconds, %v wall clock\n", steps, simTime, time.Since(start))
}
