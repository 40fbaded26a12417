// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package retention

import (
	"math"
	"strings"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun"
)

// Antoine implements the classic three-constant Antoine correlation:
//   log10(p_mmHg) = A - B/(C + T_C)
// with the same linear density/energy approximations as Wagner. Cheaper and
// less accurate than Wagner; offered as an alternative fallback the caller can
// select when only a narrow operating range matters.
type Antoine struct {
	a, b, c float64 // Antoine constants (mmHg, °C convention)

	rhoF0, rhoFSlope float64
	rhoG0, rhoGSlope float64
	uF0, uFSlope     float64
	uG0, uGSlope     float64
}

func init() {
	allocators["antoine"] = func() Correlation { return new(Antoine) }
}

// Init initializes the Antoine correlation from named parameters.
func (o *Antoine) Init(prms fun.Prms) (err error) {
	o.a, o.b, o.c = 8.07131, 1730.63, 233.426
	o.rhoF0, o.rhoFSlope = 1000.0, 0.35
	o.rhoG0, o.rhoGSlope = 0.6, -0.004
	o.uF0, o.uFSlope = 420.0e3, 4180.0
	o.uG0, o.uGSlope = 2506.0e3, 1100.0
	for _, p := range prms {
		switch strings.ToLower(p.N) {
		case "a":
			o.a = p.V
		case "b":
			o.b = p.V
		case "c":
			o.c = p.V
		default:
			return chk.Err("antoine: parameter named %q is incorrect\n", p.N)
		}
	}
	return
}

// GetPrms gets (an example) of parameters.
func (o Antoine) GetPrms(example bool) fun.Prms {
	return fun.Prms{
		&fun.P{N: "a", V: 8.07131},
		&fun.P{N: "b", V: 1730.63},
		&fun.P{N: "c", V: 233.426},
	}
}

// PSat returns the saturation pressure (Pa) at temperature tk (K). Valid for
// roughly 1-100 °C; clamped outside that band rather than extrapolated wildly.
func (o Antoine) PSat(tk float64) float64 {
	tCelsius := tk - 273.15
	if tCelsius < 1 {
		tCelsius = 1
	}
	if tCelsius > 100 {
		tCelsius = 100
	}
	mmHg := math.Pow(10, o.a-o.b/(o.c+tCelsius))
	return mmHg * 133.322
}

// TSat returns the saturation temperature (K) at pressure p (Pa) by bisection.
func (o Antoine) TSat(p float64) float64 {
	lo, hi := 274.0, 373.0
	for i := 0; i < 60; i++ {
		mid := 0.5 * (lo + hi)
		if o.PSat(mid) < p {
			lo = mid
		} else {
			hi = mid
		}
	}
	return 0.5 * (lo + hi)
}

// RhoF returns saturated-liquid density (kg/m³) at temperature tk (K).
func (o Antoine) RhoF(tk float64) float64 {
	return o.rhoF0 - o.rhoFSlope*(tk-273.15)
}

// RhoG returns saturated-vapor density (kg/m³) at temperature tk (K).
func (o Antoine) RhoG(tk float64) float64 {
	const rSpecific = 461.52
	return o.PSat(tk) / (rSpecific * tk)
}

// UF returns saturated-liquid specific internal energy (J/kg) at tk (K).
func (o Antoine) UF(tk float64) float64 {
	return o.uF0 + o.uFSlope*(tk-373.15)
}

// UG returns saturated-vapor specific internal energy (J/kg) at tk (K).
func (o Antoine) UG(tk float64) float64 {
	return o.uG0 + o.uGSlope*(tk-373.15)
}
