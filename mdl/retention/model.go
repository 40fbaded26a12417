// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package retention implements the steam-table store's analytic fallback: a
// family of interchangeable saturation-pressure/density correlations used only
// when the tabulated steam table cannot be loaded.
// The factory shape (Init/GetPrms/allocators map) is the donor's own liquid
// retention-curve convention, reused here for a family of P_sat(T) curves
// instead of Sl(pc) curves.
package retention

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun"
)

// Correlation is an analytic stand-in for the tabulated steam-table store. It
// must never be consulted unless the table failed to load; every use MUST be
// accompanied by a prominent log.
type Correlation interface {
	Init(prms fun.Prms) error      // initialises correlation
	GetPrms(example bool) fun.Prms // gets (an example) of parameters
	PSat(tk float64) float64       // saturation pressure, Pa, given temperature, K
	TSat(p float64) float64        // saturation temperature, K, given pressure, Pa
	RhoF(tk float64) float64       // saturated-liquid density, kg/m³
	RhoG(tk float64) float64       // saturated-vapor density, kg/m³
	UF(tk float64) float64         // saturated-liquid specific internal energy, J/kg
	UG(tk float64) float64         // saturated-vapor specific internal energy, J/kg
}

// New returns a new correlation model by name.
func New(name string) (model Correlation, err error) {
	allocator, ok := allocators[name]
	if !ok {
		return nil, chk.Err("model %q is not available in 'retention' database", name)
	}
	return allocator(), nil
}

// allocators holds all available correlation models.
var allocators = map[string]func() Correlation{}
