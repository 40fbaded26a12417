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

// Wagner implements a Wagner-style reduced saturation-pressure correlation:
//   ln(p/pc) = (Tc/T) * (a*τ + b*τ^1.5 + c*τ^3 + d*τ^6),  τ = 1 - T/Tc
// plus simple linear density/energy approximations anchored at a reference
// point: a qualitative fallback correlation, not an IAPWS-grade model.
type Wagner struct {
	tc, pc     float64 // critical temperature (K), pressure (Pa)
	a, b, c, d float64 // Wagner coefficients

	rhoF0, rhoFSlope float64 // kg/m³, kg/(m³·K); rhoF(T) = rhoF0 - rhoFSlope*(T-273.15)
	rhoG0, rhoGSlope float64
	uF0, uFSlope     float64 // J/kg, J/(kg·K)
	uG0, uGSlope     float64
}

func init() {
	allocators["wagner"] = func() Correlation { return new(Wagner) }
}

// Init initializes the Wagner correlation from named parameters.
func (o *Wagner) Init(prms fun.Prms) (err error) {
	o.tc, o.pc = 647.096, 22.064e6
	o.a, o.b, o.c, o.d = -7.76451, 1.45838, -2.77580, -1.23303
	o.rhoF0, o.rhoFSlope = 1000.0, 0.35
	o.rhoG0, o.rhoGSlope = 0.6, -0.004
	o.uF0, o.uFSlope = 420.0e3, 4180.0
	o.uG0, o.uGSlope = 2506.0e3, 1100.0
	for _, p := range prms {
		switch strings.ToLower(p.N) {
		case "tc":
			o.tc = p.V
		case "pc":
			o.pc = p.V
		case "a":
			o.a = p.V
		case "b":
			o.b = p.V
		case "c":
			o.c = p.V
		case "d":
			o.d = p.V
		default:
			return chk.Err("wagner: parameter named %q is incorrect\n", p.N)
		}
	}
	return
}

// GetPrms gets (an example) of parameters.
func (o Wagner) GetPrms(example bool) fun.Prms {
	return fun.Prms{
		&fun.P{N: "tc", V: 647.096},
		&fun.P{N: "pc", V: 22.064e6},
		&fun.P{N: "a", V: -7.76451},
		&fun.P{N: "b", V: 1.45838},
		&fun.P{N: "c", V: -2.77580},
		&fun.P{N: "d", V: -1.23303},
	}
}

// PSat returns the saturation pressure (Pa) at temperature tk (K).
func (o Wagner) PSat(tk float64) float64 {
	if tk >= o.tc {
		return o.pc
	}
	tau := 1.0 - tk/o.tc
	lnpr := (o.tc / tk) * (o.a*tau + o.b*math.Pow(tau, 1.5) + o.c*math.Pow(tau, 3) + o.d*math.Pow(tau, 6))
	return o.pc * math.Exp(lnpr)
}

// TSat returns the saturation temperature (K) at pressure p (Pa) by bisection
// on the monotone PSat(T) curve over the liquid-water range.
func (o Wagner) TSat(p float64) float64 {
	lo, hi := 273.16, o.tc
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
func (o Wagner) RhoF(tk float64) float64 {
	return o.rhoF0 - o.rhoFSlope*(tk-273.15)
}

// RhoG returns saturated-vapor density (kg/m³) at temperature tk (K), derived
// from the ideal-gas law at the saturation pressure for physical consistency.
func (o Wagner) RhoG(tk float64) float64 {
	const rSpecific = 461.52 // J/(kg·K), water vapor gas constant
	return o.PSat(tk) / (rSpecific * tk)
}

// UF returns saturated-liquid specific internal energy (J/kg) at tk (K).
func (o Wagner) UF(tk float64) float64 {
	return o.uF0 + o.uFSlope*(tk-373.15)
}

// UG returns saturated-vapor specific internal energy (J/kg) at tk (K).
func (o Wagner) UG(tk float64) float64 {
	return o.uG0 + o.uGSlope*(tk-373.15)
}
