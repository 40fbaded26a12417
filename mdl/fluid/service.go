// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fluid

import (
	"math"
	"strings"

	"github.com/cpmech/gosl/chk"

	"github.com/dorival/reactorsim/mdl/steam"
	"github.com/dorival/reactorsim/network"
)

// QualityDisagreementTolerance is τ: the maximum allowed disagreement
// between x_v and x_u after chord refinement before the service fails
// loudly instead of guessing.
const QualityDisagreementTolerance = 0.25

// WaterState is the complete thermodynamic state state_from_m_U_V computes.
type WaterState struct {
	T     float64
	P     float64
	Phase network.Phase
	X     float64 // quality, meaningful only for TwoPhase (1 for Vapor, 0 for Liquid)
	Warning string // non-fatal warning, e.g. supercritical vertex disagreement
}

// Service is the water-properties service: a pure computation over a shared,
// immutable *steam.Store. The *steam.Hint passed to each lookup is owned by
// the caller, never shared, so the mesh "last triangle" cache can never leak
// across callers. With Verbose set, every lookup appends to the Service's own
// trace buffer, so concurrent calls are safe only while Verbose is off.
type Service struct {
	Store   *steam.Store
	Verbose bool // enables the debug surface's verbose lookup logging

	traces []LookupTrace
}

// LookupTrace is one recorded (u,v) lookup, kept for the debug surface's
// "dump last N lookup traces".
type LookupTrace struct {
	U, V  float64
	Phase network.Phase
}

// NewService returns a Service bound to store.
func NewService(store *steam.Store) *Service {
	return &Service{Store: store}
}

// StateFromMUV resolves (mass, U, volume) to a thermodynamic state: dome-first
// phase determination, saturation-chord bisection for two-phase points, and
// Delaunay barycentric interpolation for single-phase points.
// hint is the caller-owned mesh locate cache; pass nil if none is kept.
func (s *Service) StateFromMUV(mass, U, volume float64, hint *steam.Hint) (WaterState, error) {
	if !finite(mass) || !finite(U) || !finite(volume) {
		return WaterState{}, chk.Err("fluid: non-finite input (mass=%g, U=%g, V=%g)", mass, U, volume)
	}
	if mass <= 0 {
		return WaterState{}, chk.Err("fluid: mass must be strictly positive, got %g", mass)
	}
	if volume <= 0 {
		return WaterState{}, chk.Err("fluid: volume must be strictly positive, got %g", volume)
	}

	v := volume / mass
	u := U / mass

	if s.Verbose {
		s.traces = append(s.traces, LookupTrace{U: u, V: v})
		if len(s.traces) > 4096 {
			s.traces = s.traces[len(s.traces)-4096:]
		}
	}

	if s.Store.UsingFallback {
		return s.stateFromCorrelation(u, v)
	}

	inside := s.Store.Dome.Inside(u, v)
	if inside {
		return s.stateTwoPhase(u, v)
	}
	return s.stateSinglePhase(u, v, hint)
}

// stateTwoPhase bisects the saturation chord to resolve a point found inside
// the dome.
func (s *Service) stateTwoPhase(u, v float64) (WaterState, error) {
	dome := s.Store.Dome
	lo, hi, err := dome.ChordStraddle(u, v)
	if err != nil {
		return WaterState{}, chk.Err("fluid: two-phase point (u=%g, v=%g) found inside dome but %v", u, v, err)
	}

	// bisect between the bracketing saturation temperatures for the T at
	// which the straddling chord crosses (u,v) exactly.
	tLo, tHi := dome.Points[lo].T, dome.Points[hi].T
	var xv, xu, tSat float64
	for i := 0; i < 60; i++ {
		tSat = 0.5 * (tLo + tHi)
		vf, _ := dome.RhoF(tSat)
		vg, _ := dome.RhoG(tSat)
		uf, _ := dome.Uf(tSat)
		ug, _ := dome.Ug(tSat)
		volF, volG := 1/vf, 1/vg
		xv = (v - volF) / (volG - volF)
		xu = (u - uf) / (ug - uf)
		if xv > xu {
			tLo = tSat
		} else {
			tHi = tSat
		}
	}

	if math.Abs(xv-xu) > QualityDisagreementTolerance {
		return WaterState{}, chk.Err(
			"fluid: saturation-chord disagreement |x_v - x_u| = %g exceeds tolerance %g at (u=%g, v=%g); refusing to guess quality",
			math.Abs(xv-xu), QualityDisagreementTolerance, u, v)
	}

	pSat, err := dome.PSat(tSat)
	if err != nil {
		return WaterState{}, err
	}

	x := clamp01(0.5 * (xv + xu))
	return WaterState{T: tSat, P: pSat, Phase: network.TwoPhase, X: x}, nil
}

// stateSinglePhase locates and barycentrically interpolates a point found
// outside the dome. hint is the caller-owned mesh locate cache from
// StateFromMUV; a nil hint locates from scratch.
func (s *Service) stateSinglePhase(u, v float64, hint *steam.Hint) (WaterState, error) {
	mesh := s.Store.Mesh
	x, y := math.Log10(v), u/1e6

	if hint == nil {
		hint = &steam.Hint{LastTriangle: -1}
	}
	triIdx, bary, err := mesh.Locate(x, y, hint)
	if err != nil {
		return WaterState{}, chk.Err("fluid: single-phase point (u=%g, v=%g) has no enclosing mesh triangle: %v", u, v, err)
	}
	tri := mesh.Triangles[triIdx]
	t := mesh.InterpT(tri, bary)
	p := mesh.InterpP(tri, bary)

	if !mesh.VertexPhasesAgree(tri) {
		return WaterState{T: t, P: p, Phase: network.Vapor, X: 1,
			Warning: "nominally supercritical: single-phase triangle vertices disagree on phase"}, nil
	}

	phase := network.Liquid
	x1 := 0.0
	if looksLikeVapor(mesh.Vertices[tri.A].PhaseHint) {
		phase = network.Vapor
		x1 = 1.0
	}
	return WaterState{T: t, P: p, Phase: phase, X: x1}, nil
}

// looksLikeVapor classifies a single-phase table label as vapor-side versus
// liquid-side by its original table tag (the table's vertex PhaseHint carries
// whatever non-saturation label the source table used, e.g. "superheated
// vapor" or "compressed liquid").
func looksLikeVapor(label string) bool {
	l := strings.ToLower(label)
	return strings.Contains(l, "vapor") || strings.Contains(l, "vapour") ||
		strings.Contains(l, "steam") || strings.Contains(l, "gas")
}

// stateFromCorrelation handles lookups when the table could not be loaded:
// it returns an error for every (u,v), two-phase and single-phase alike,
// instead of guessing; only the saturation accessors below keep working,
// through the fallback correlation.
func (s *Service) stateFromCorrelation(u, v float64) (WaterState, error) {
	return WaterState{}, chk.Err(
		"fluid: single-phase interpolation unavailable (steam table failed to load, running on fallback correlation); cannot resolve (u=%g, v=%g)", u, v)
}

// PSat, TSat, RhoF, RhoG, Uf, Ug, Hf, Hg, L expose the saturation accessors,
// delegating to the shared store.
func (s *Service) PSat(tk float64) (float64, error) { return s.Store.PSat(tk) }
func (s *Service) TSat(p float64) (float64, error)  { return s.Store.TSat(p) }
func (s *Service) RhoF(tk float64) (float64, error) { return s.Store.RhoF(tk) }
func (s *Service) RhoG(tk float64) (float64, error) { return s.Store.RhoG(tk) }
func (s *Service) Uf(tk float64) (float64, error)   { return s.Store.Uf(tk) }
func (s *Service) Ug(tk float64) (float64, error)   { return s.Store.Ug(tk) }
func (s *Service) Hf(tk float64) (float64, error)   { return s.Store.Hf(tk) }
func (s *Service) Hg(tk float64) (float64, error)   { return s.Store.Hg(tk) }
func (s *Service) L(tk float64) (float64, error)    { return s.Store.L(tk) }

// LastTraces returns the most recent n recorded (u,v) lookups, for the
// debug surface's "dump last N (u,v)-lookup traces" control.
func (s *Service) LastTraces(n int) []LookupTrace {
	if n > len(s.traces) {
		n = len(s.traces)
	}
	return s.traces[len(s.traces)-n:]
}

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
