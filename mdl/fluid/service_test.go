// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fluid

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dorival/reactorsim/mdl/steam"
	"github.com/dorival/reactorsim/network"
)

const sampleTable = `P_MPa	T_C	v_m3kg	u_kJkg	h_kJkg	s_kJkgK	phase_label	rho_kgm3
0.101	100	0.001044	418.94	419.04	1.3069	saturated liquid	957.9
0.4762	150	0.001091	631.68	632.20	1.8418	saturated liquid	916.6
1.5538	200	0.001156	850.65	852.45	2.3309	saturated liquid	865.0
3.973	250	0.001251	1080.39	1085.36	2.7927	saturated liquid	799.4
0.101	100	1.6729	2506.5	2676.1	7.3549	saturated vapor	0.598
0.4762	150	0.3928	2559.5	2746.5	6.8379	saturated vapor	2.546
1.5538	200	0.12736	2595.3	2793.2	6.4323	saturated vapor	7.852
3.973	250	0.05013	2602.4	2801.0	6.0730	saturated vapor	19.948
10	50	0.001012	209.0	219.1	0.7035	compressed liquid	988.1
10	100	0.001041	417.8	427.8	1.3000	compressed liquid	960.6
10	150	0.001088	628.5	638.9	1.8340	compressed liquid	919.1
10	200	0.001149	846.0	857.4	2.3200	compressed liquid	870.3
20	100	0.001034	416.2	436.3	1.2950	compressed liquid	967.1
20	200	0.001145	842.8	865.0	2.3130	compressed liquid	873.4
1	200	0.2060	2658.1	2875.3	6.6940	superheated vapor	4.855
1	250	0.2327	2709.9	2942.6	6.9247	superheated vapor	4.298
1	300	0.2579	2793.2	3051.2	7.1228	superheated vapor	3.878
5	300	0.04532	2697.9	2924.5	6.2084	superheated vapor	22.064
5	350	0.05194	2808.7	3068.3	6.4492	superheated vapor	19.253
7	300	0.02947	2633.5	2839.9	5.9304	superheated vapor	33.933
7	350	0.03524	2769.4	3016.0	6.2283	superheated vapor	28.377
`

func buildTestStore(t *testing.T) *steam.Store {
	dir := t.TempDir()
	path := filepath.Join(dir, "table.tsv")
	if err := os.WriteFile(path, []byte(sampleTable), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	store, err := steam.Load(path)
	if err != nil {
		t.Fatalf("steam.Load: %v", err)
	}
	if store.UsingFallback {
		t.Fatalf("expected the valid table to load without falling back")
	}
	return store
}

func TestStateFromMUVRejectsNonPositiveMass(t *testing.T) {
	svc := NewService(buildTestStore(t))
	if _, err := svc.StateFromMUV(0, 1, 1, nil); err == nil {
		t.Errorf("expected error for zero mass")
	}
	if _, err := svc.StateFromMUV(-1, 1, 1, nil); err == nil {
		t.Errorf("expected error for negative mass")
	}
}

func TestStateFromMUVRejectsNonPositiveVolume(t *testing.T) {
	svc := NewService(buildTestStore(t))
	if _, err := svc.StateFromMUV(1, 1, 0, nil); err == nil {
		t.Errorf("expected error for zero volume")
	}
}

func TestStateFromMUVResolvesSubcooledLiquid(t *testing.T) {
	svc := NewService(buildTestStore(t))
	// compressed liquid at ~10 MPa, 100 C: v ~ 0.001041 m3/kg, u ~ 417.8 kJ/kg
	mass := 1.0
	volume := 0.001041 * mass
	u := 417800.0 * mass
	state, err := svc.StateFromMUV(mass, u, volume, nil)
	if err != nil {
		t.Fatalf("StateFromMUV: %v", err)
	}
	if state.Phase != network.Liquid {
		t.Errorf("expected Liquid phase, got %v", state.Phase)
	}
}

func TestStateFromMUVResolvesSuperheatedVapor(t *testing.T) {
	svc := NewService(buildTestStore(t))
	// superheated vapor at 1 MPa, 250 C
	mass := 1.0
	volume := 0.2327 * mass
	u := 2709900.0 * mass
	state, err := svc.StateFromMUV(mass, u, volume, nil)
	if err != nil {
		t.Fatalf("StateFromMUV: %v", err)
	}
	if state.Phase != network.Vapor {
		t.Errorf("expected Vapor phase, got %v", state.Phase)
	}
}

func TestStateFromMUVResolvesTwoPhaseInsideDome(t *testing.T) {
	svc := NewService(buildTestStore(t))
	dome := svc.Store.Dome
	mid := dome.Points[1] // 150 C saturation point
	u := (mid.Uf + mid.Ug) / 2
	v := (mid.Vf + mid.Vg) / 2
	state, err := svc.StateFromMUV(1.0, u, v, nil)
	if err != nil {
		t.Fatalf("StateFromMUV: %v", err)
	}
	if state.Phase != network.TwoPhase {
		t.Errorf("expected TwoPhase, got %v", state.Phase)
	}
	if state.X < 0.3 || state.X > 0.7 {
		t.Errorf("expected quality near 0.5 at the midpoint, got %v", state.X)
	}
}

func TestVerboseRecordsLookupTraces(t *testing.T) {
	svc := NewService(buildTestStore(t))
	svc.Verbose = true
	if _, err := svc.StateFromMUV(1.0, 417800.0, 0.001041, nil); err != nil {
		t.Fatalf("StateFromMUV: %v", err)
	}
	traces := svc.LastTraces(10)
	if len(traces) != 1 {
		t.Fatalf("expected exactly one recorded trace, got %d", len(traces))
	}
}

func TestNonVerboseRecordsNoTraces(t *testing.T) {
	svc := NewService(buildTestStore(t))
	if _, err := svc.StateFromMUV(1.0, 417800.0, 0.001041, nil); err != nil {
		t.Fatalf("StateFromMUV: %v", err)
	}
	if len(svc.LastTraces(10)) != 0 {
		t.Errorf("expected no traces recorded without Verbose set")
	}
}

func TestStateFromMUVReusesCallerHint(t *testing.T) {
	svc := NewService(buildTestStore(t))
	hint := &steam.Hint{LastTriangle: -1}
	if _, err := svc.StateFromMUV(1.0, 417800.0, 0.001041, hint); err != nil {
		t.Fatalf("StateFromMUV: %v", err)
	}
	if hint.LastTriangle < 0 {
		t.Errorf("expected StateFromMUV to populate the caller's hint with a located triangle, got %v", hint.LastTriangle)
	}

	located := hint.LastTriangle
	// a second lookup at the same point should locate starting from the
	// hint's triangle and land on the same one, not reset to a fresh search.
	if _, err := svc.StateFromMUV(1.0, 417800.0, 0.001041, hint); err != nil {
		t.Fatalf("StateFromMUV: %v", err)
	}
	if hint.LastTriangle != located {
		t.Errorf("expected repeated lookup at the same point to reuse triangle %d, got %d", located, hint.LastTriangle)
	}
}

func TestStateFromMUVNilHintStillResolves(t *testing.T) {
	svc := NewService(buildTestStore(t))
	state, err := svc.StateFromMUV(1.0, 417800.0, 0.001041, nil)
	if err != nil {
		t.Fatalf("StateFromMUV: %v", err)
	}
	if state.Phase != network.Liquid {
		t.Errorf("expected Liquid phase, got %v", state.Phase)
	}
}
