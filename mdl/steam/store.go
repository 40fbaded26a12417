// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package steam

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"github.com/dorival/reactorsim/mdl/retention"
)

// Store owns the immutable saturation dome and single-phase mesh built from a
// steam table, or an analytic Correlation fallback when the table could not
// be loaded. Both forms are immutable after construction.
type Store struct {
	Dome *Dome // nil if running on the fallback correlation
	Mesh *Mesh // nil if running on the fallback correlation

	Fallback       retention.Correlation // non-nil only in fallback mode
	UsingFallback  bool
}

// Load builds a Store from the tab-separated steam table at path. If the
// table cannot be loaded, it logs a prominent error and falls back to the
// Wagner correlation — this is the ONLY place that is allowed to happen, and
// it must never happen silently.
func Load(path string) (*Store, error) {
	table, err := LoadTable(path)
	if err != nil {
		io.PfRed("STEAM TABLE LOAD FAILED: %v\n", err)
		io.PfRed("steam: falling back to analytic Wagner correlation; single-phase interpolation is UNAVAILABLE in this mode\n")
		corr, ferr := retention.New("wagner")
		if ferr != nil {
			return nil, chk.Err("steam: table load failed (%v) and fallback correlation unavailable: %v", err, ferr)
		}
		if ierr := corr.Init(corr.GetPrms(true)); ierr != nil {
			return nil, chk.Err("steam: fallback correlation init failed: %v", ierr)
		}
		return &Store{Fallback: corr, UsingFallback: true}, nil
	}

	dome, err := BuildDome(table)
	if err != nil {
		return nil, err
	}
	mesh, err := BuildMesh(table)
	if err != nil {
		return nil, err
	}
	return &Store{Dome: dome, Mesh: mesh}, nil
}

// PSat, TSat, RhoF, RhoG, Uf, Ug, Hf, Hg, L dispatch to the dome or, in
// fallback mode, to the analytic correlation. Every fallback call is a
// logged-at-load-time degraded mode, never a silent substitution mid-run.
func (s *Store) PSat(tk float64) (float64, error) {
	if s.UsingFallback {
		return s.Fallback.PSat(tk), nil
	}
	return s.Dome.PSat(tk)
}

func (s *Store) TSat(p float64) (float64, error) {
	if s.UsingFallback {
		return s.Fallback.TSat(p), nil
	}
	return s.Dome.TSat(p)
}

func (s *Store) RhoF(tk float64) (float64, error) {
	if s.UsingFallback {
		return s.Fallback.RhoF(tk), nil
	}
	return s.Dome.RhoF(tk)
}

func (s *Store) RhoG(tk float64) (float64, error) {
	if s.UsingFallback {
		return s.Fallback.RhoG(tk), nil
	}
	return s.Dome.RhoG(tk)
}

func (s *Store) Uf(tk float64) (float64, error) {
	if s.UsingFallback {
		return s.Fallback.UF(tk), nil
	}
	return s.Dome.Uf(tk)
}

func (s *Store) Ug(tk float64) (float64, error) {
	if s.UsingFallback {
		return s.Fallback.UG(tk), nil
	}
	return s.Dome.Ug(tk)
}

func (s *Store) Hf(tk float64) (float64, error) {
	if s.UsingFallback {
		uf := s.Fallback.UF(tk)
		p := s.Fallback.PSat(tk)
		rho := s.Fallback.RhoF(tk)
		return uf + p/rho, nil
	}
	return s.Dome.Hf(tk)
}

func (s *Store) Hg(tk float64) (float64, error) {
	if s.UsingFallback {
		ug := s.Fallback.UG(tk)
		p := s.Fallback.PSat(tk)
		rho := s.Fallback.RhoG(tk)
		return ug + p/rho, nil
	}
	return s.Dome.Hg(tk)
}

func (s *Store) L(tk float64) (float64, error) {
	if s.UsingFallback {
		hf, _ := s.Hf(tk)
		hg, _ := s.Hg(tk)
		return hg - hf, nil
	}
	return s.Dome.L(tk)
}
