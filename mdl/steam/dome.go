// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package steam

import (
	"sort"

	"github.com/cpmech/gosl/chk"
)

// SatPoint is one row of the sorted saturation sequence (SI units).
type SatPoint struct {
	T, P           float64
	Vf, Vg         float64
	Uf, Ug         float64
	Hf, Hg         float64
}

// Dome holds the saturation sequence (monotone in T) and the closed dome
// polygon in (u,v) space formed by concatenating the liquid side (T
// ascending) with the vapor side (T descending).
type Dome struct {
	Points  []SatPoint // sorted by T, ascending
	Polygon []point    // closed polyline in (u,v); Polygon[0] == Polygon[len-1]
}

type point struct{ u, v float64 }

// BuildDome merges matching-T liquid/vapor rows into a sorted saturation
// sequence and builds the dome polygon.
func BuildDome(t *Table) (*Dome, error) {
	if len(t.SatLiquid) == 0 || len(t.SatVapor) == 0 {
		return nil, chk.Err("steam: table has no saturated-liquid or saturated-vapor rows")
	}
	if len(t.SatLiquid) != len(t.SatVapor) {
		return nil, chk.Err("steam: saturated-liquid (%d) and saturated-vapor (%d) row counts differ", len(t.SatLiquid), len(t.SatVapor))
	}
	d := &Dome{}
	for i := range t.SatLiquid {
		lf, lv := t.SatLiquid[i], t.SatVapor[i]
		_, tf, vf, uf, hf := lf.SI()
		pv, _, vg, ug, hg := lv.SI()
		p := lf.PMPa * 1e6
		d.Points = append(d.Points, SatPoint{
			T: tf, P: p, Vf: vf, Vg: vg, Uf: uf, Ug: ug, Hf: hf, Hg: hg,
		})
		_ = pv
	}
	sort.Slice(d.Points, func(i, j int) bool { return d.Points[i].T < d.Points[j].T })

	for _, sp := range d.Points {
		d.Polygon = append(d.Polygon, point{u: sp.Uf, v: sp.Vf})
	}
	for i := len(d.Points) - 1; i >= 0; i-- {
		sp := d.Points[i]
		d.Polygon = append(d.Polygon, point{u: sp.Ug, v: sp.Vg})
	}
	d.Polygon = append(d.Polygon, d.Polygon[0])
	return d, nil
}

// PSat returns the saturation pressure at temperature tk (K) by binary search
// plus linear interpolation on the sorted saturation sequence.
func (d *Dome) PSat(tk float64) (float64, error) {
	i, frac, err := d.bracketT(tk)
	if err != nil {
		return 0, err
	}
	return lerp(d.Points[i].P, d.Points[i+1].P, frac), nil
}

// TSat returns the saturation temperature at pressure p (Pa) by binary search
// plus linear interpolation on the sorted-by-P view of the saturation sequence.
func (d *Dome) TSat(p float64) (float64, error) {
	lo, hi := 0, len(d.Points)-1
	if p < d.Points[0].P || p > d.Points[hi].P {
		return 0, chk.Err("steam: TSat(%g Pa) outside table range [%g, %g]", p, d.Points[0].P, d.Points[hi].P)
	}
	for lo+1 < hi {
		mid := (lo + hi) / 2
		if d.Points[mid].P < p {
			lo = mid
		} else {
			hi = mid
		}
	}
	frac := (p - d.Points[lo].P) / (d.Points[hi].P - d.Points[lo].P)
	return lerp(d.Points[lo].T, d.Points[hi].T, frac), nil
}

// RhoF, RhoG, Uf, Ug, Hf, Hg return saturation-line properties at T (K),
// interpolated the same way as PSat.
func (d *Dome) RhoF(tk float64) (float64, error) { return d.interpAt(tk, func(s SatPoint) float64 { return 1.0 / s.Vf }) }
func (d *Dome) RhoG(tk float64) (float64, error) { return d.interpAt(tk, func(s SatPoint) float64 { return 1.0 / s.Vg }) }
func (d *Dome) Uf(tk float64) (float64, error)   { return d.interpAt(tk, func(s SatPoint) float64 { return s.Uf }) }
func (d *Dome) Ug(tk float64) (float64, error)   { return d.interpAt(tk, func(s SatPoint) float64 { return s.Ug }) }
func (d *Dome) Hf(tk float64) (float64, error)   { return d.interpAt(tk, func(s SatPoint) float64 { return s.Hf }) }
func (d *Dome) Hg(tk float64) (float64, error)   { return d.interpAt(tk, func(s SatPoint) float64 { return s.Hg }) }

// L returns the latent heat of vaporization Hg - Hf at T (K).
func (d *Dome) L(tk float64) (float64, error) {
	hf, err := d.Hf(tk)
	if err != nil {
		return 0, err
	}
	hg, err := d.Hg(tk)
	if err != nil {
		return 0, err
	}
	return hg - hf, nil
}

func (d *Dome) interpAt(tk float64, sel func(SatPoint) float64) (float64, error) {
	i, frac, err := d.bracketT(tk)
	if err != nil {
		return 0, err
	}
	return lerp(sel(d.Points[i]), sel(d.Points[i+1]), frac), nil
}

func (d *Dome) bracketT(tk float64) (i int, frac float64, err error) {
	lo, hi := 0, len(d.Points)-1
	if tk < d.Points[0].T || tk > d.Points[hi].T {
		return 0, 0, chk.Err("steam: temperature %g K outside saturation table range [%g, %g]", tk, d.Points[0].T, d.Points[hi].T)
	}
	for lo+1 < hi {
		mid := (lo + hi) / 2
		if d.Points[mid].T < tk {
			lo = mid
		} else {
			hi = mid
		}
	}
	frac = (tk - d.Points[lo].T) / (d.Points[hi].T - d.Points[lo].T)
	return lo, frac, nil
}

func lerp(a, b, frac float64) float64 { return a + frac*(b-a) }

// Inside reports whether (u,v) lies strictly inside the dome polygon, using a
// standard ray-casting point-in-polygon test. This is the ONLY phase
// discriminant the water-properties service uses: no
// threshold on T, P or density may short-circuit it.
func (d *Dome) Inside(u, v float64) bool {
	inside := false
	n := len(d.Polygon) - 1 // last point duplicates the first
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		pi, pj := d.Polygon[i], d.Polygon[j]
		if ((pi.v > v) != (pj.v > v)) &&
			(u < (pj.u-pi.u)*(v-pi.v)/(pj.v-pi.v)+pi.u) {
			inside = !inside
		}
	}
	return inside
}

// ChordStraddle finds consecutive saturation points whose (v,u) chord
// straddles the line through (v,u), for two-phase bisection. It returns the
// bracketing index i such that the target lies between Points[i] and
// Points[i+1]'s liquid/vapor chord segments.
func (d *Dome) ChordStraddle(u, v float64) (lo, hi int, err error) {
	// scan for a sign change of the "left of chord" test between consecutive
	// saturation points; that bracket straddles the target point.
	prevSide := chordSide(d.Points[0], u, v)
	for i := 1; i < len(d.Points); i++ {
		side := chordSide(d.Points[i], u, v)
		if side == 0 {
			return i, i, nil
		}
		if side != prevSide {
			return i - 1, i, nil
		}
		prevSide = side
	}
	return 0, 0, chk.Err("steam: (u=%g, v=%g) does not straddle any saturation chord", u, v)
}

// chordSide returns the sign of x_v - x_u along the chord at this saturation
// point: +1 if the point's implied vapor-side quality from v exceeds that from
// u, -1 otherwise, 0 on an (improbable) exact match.
func chordSide(s SatPoint, u, v float64) int {
	xv := (v - s.Vf) / (s.Vg - s.Vf)
	xu := (u - s.Uf) / (s.Ug - s.Uf)
	d := xv - xu
	switch {
	case d > 1e-9:
		return 1
	case d < -1e-9:
		return -1
	default:
		return 0
	}
}
