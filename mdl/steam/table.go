// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package steam implements the steam-table store: loading the
// tabulated (P,T,v,u,h,s,phase,ρ) rows, building the saturation dome curve and
// the single-phase Delaunay interpolation mesh. Both are immutable after
// construction and shared by reference across every physics operator.
package steam

import (
	"bufio"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

// Row is one entry of the tab-separated steam table, in the file's native
// units (P in MPa, T in °C, v in m³/kg, u/h in kJ/kg, s in kJ/(kg·K)).
type Row struct {
	PMPa  float64
	TC    float64
	V     float64
	U     float64
	H     float64
	S     float64
	Phase string
	Rho   float64
}

// SI returns this row's (P, T, v, u, h) converted to SI units (Pa, K, m³/kg,
// J/kg, J/kg).
func (r Row) SI() (p, t, v, u, h float64) {
	return r.PMPa * 1e6, r.TC + 273.15, r.V, r.U * 1e3, r.H * 1e3
}

const (
	phaseSatLiquid = "saturated liquid"
	phaseSatVapor  = "saturated vapor"
)

// Table holds the raw rows split by phase-label.
type Table struct {
	All          []Row
	SatLiquid    []Row
	SatVapor     []Row
	SinglePhase  []Row
}

// LoadTable reads the tab-separated steam table at path. One header row,
// columns: P_MPa, T_C, v_m3kg, u_kJkg, h_kJkg, s_kJkgK, phase_label, rho_kgm3.
func LoadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, chk.Err("steam: cannot open table file %q: %v", path, err)
	}
	defer f.Close()

	t := &Table{}
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if lineNo == 1 {
			continue // header
		}
		cols := strings.Split(line, "\t")
		if len(cols) < 8 {
			return nil, chk.Err("steam: table file %q line %d has %d columns, want 8", path, lineNo, len(cols))
		}
		row, err := parseRow(cols)
		if err != nil {
			return nil, chk.Err("steam: table file %q line %d: %v", path, lineNo, err)
		}
		t.All = append(t.All, row)
		switch row.Phase {
		case phaseSatLiquid:
			t.SatLiquid = append(t.SatLiquid, row)
		case phaseSatVapor:
			t.SatVapor = append(t.SatVapor, row)
		default:
			t.SinglePhase = append(t.SinglePhase, row)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, chk.Err("steam: error reading table file %q: %v", path, err)
	}
	if len(t.All) == 0 {
		return nil, chk.Err("steam: table file %q contains no data rows", path)
	}
	sort.Slice(t.SatLiquid, func(i, j int) bool { return t.SatLiquid[i].TC < t.SatLiquid[j].TC })
	sort.Slice(t.SatVapor, func(i, j int) bool { return t.SatVapor[i].TC < t.SatVapor[j].TC })
	io.Pf("steam: loaded %d rows (%d sat-liquid, %d sat-vapor, %d single-phase) from %q\n",
		len(t.All), len(t.SatLiquid), len(t.SatVapor), len(t.SinglePhase), path)
	return t, nil
}

func parseRow(cols []string) (Row, error) {
	var r Row
	var err error
	fields := []*float64{&r.PMPa, &r.TC, &r.V, &r.U, &r.H, &r.S}
	for i, f := range fields {
		*f, err = strconv.ParseFloat(strings.TrimSpace(cols[i]), 64)
		if err != nil {
			return r, chk.Err("invalid numeric field %d (%q): %v", i, cols[i], err)
		}
	}
	r.Phase = strings.TrimSpace(cols[6])
	r.Rho, err = strconv.ParseFloat(strings.TrimSpace(cols[7]), 64)
	if err != nil {
		return r, chk.Err("invalid rho field (%q): %v", cols[7], err)
	}
	return r, nil
}
