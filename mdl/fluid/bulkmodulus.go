// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package fluid implements the water-properties service: it
// maps a node's (mass, internal energy, volume) triple to a complete
// thermodynamic state using the steam-table store's dome and mesh.
package fluid

import (
	"math"

	"github.com/cpmech/gosl/fun"
)

// BulkModulus models the compressibility feedback term of the hybrid pressure
// model: a temperature-dependent curve from ≈2.2 GPa at 50°C
// down to ≈60 MPa at 350°C. Grounded on the donor's fluid.Model, which
// computes (p, R) from a linearized compressibility coefficient C = 1/K; here
// K itself is the thing that varies with temperature, so the donor's
// Init(fun.Prms)/GetPrms shape is kept but Calc is replaced by a log-linear
// interpolation between two calibration points instead of a single constant.
type BulkModulus struct {
	t0, k0 float64 // °C, Pa — first calibration point
	t1, k1 float64 // °C, Pa — second calibration point
}

// NewBulkModulus returns a BulkModulus initialized to the default calibration
// points (no named-parameter overrides).
func NewBulkModulus() *BulkModulus {
	o := &BulkModulus{}
	o.Init(nil)
	return o
}

// Init initializes this structure from named parameters.
func (o *BulkModulus) Init(prms fun.Prms) {
	o.t0, o.k0 = 50, 2.2e9
	o.t1, o.k1 = 350, 60e6
	for _, p := range prms {
		switch p.N {
		case "t0":
			o.t0 = p.V
		case "k0":
			o.k0 = p.V
		case "t1":
			o.t1 = p.V
		case "k1":
			o.k1 = p.V
		}
	}
}

// GetPrms gets (an example) of parameters.
func (o BulkModulus) GetPrms(example bool) fun.Prms {
	return fun.Prms{
		&fun.P{N: "t0", V: 50},
		&fun.P{N: "k0", V: 2.2e9},
		&fun.P{N: "t1", V: 350},
		&fun.P{N: "k1", V: 60e6},
	}
}

// Calc returns the bulk modulus (Pa) at temperature tCelsius (°C), log-linearly
// interpolated/extrapolated between the two calibration points.
func (o BulkModulus) Calc(tCelsius float64) float64 {
	frac := (tCelsius - o.t0) / (o.t1 - o.t0)
	logK := math.Log(o.k0) + frac*(math.Log(o.k1)-math.Log(o.k0))
	return math.Exp(logK)
}
