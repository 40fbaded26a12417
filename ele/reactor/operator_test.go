// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reactor

import "testing"

func TestSequenceFixedOrder(t *testing.T) {
	ops := &Operators{
		Neutronics:         NewNeutronicsOp(nil, "", 0, 293.15, 293.15),
		FuelHeatConduction: &FuelHeatConductionOp{},
		Convection:         &ConvectionOp{},
		FluidFlow:          &FluidFlowOp{},
		TurbineCondenser:   &TurbineCondenserOp{},
		BurstCheck:         NewBurstCheckOp(),
		FluidStateUpdate:   &FluidStateUpdateOp{},
	}
	seq := Sequence(ops)
	wantNames := []string{"Neutronics", "FuelHeatConduction", "Convection", "FluidFlow", "TurbineCondenser", "BurstCheck", "FluidStateUpdate"}
	if len(seq) != len(wantNames) {
		t.Fatalf("expected %d operators, got %d", len(wantNames), len(seq))
	}
	for i, name := range wantNames {
		if seq[i].Name() != name {
			t.Errorf("position %d: expected %q, got %q", i, name, seq[i].Name())
		}
	}
}
