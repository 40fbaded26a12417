// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package steam

import "testing"

func TestLoadBuildsDomeAndMeshFromValidTable(t *testing.T) {
	store, err := Load(writeSampleTable(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if store.UsingFallback {
		t.Errorf("a valid table should not trigger the fallback correlation")
	}
	if store.Dome == nil || store.Mesh == nil {
		t.Errorf("expected both Dome and Mesh to be built")
	}
}

func TestLoadFallsBackToWagnerOnMissingFile(t *testing.T) {
	store, err := Load("/nonexistent/table.tsv")
	if err != nil {
		t.Fatalf("Load should fall back rather than error: %v", err)
	}
	if !store.UsingFallback {
		t.Errorf("expected fallback mode for a missing table file")
	}
	if store.Fallback == nil {
		t.Errorf("expected a non-nil fallback correlation")
	}
	if _, err := store.PSat(373.15); err != nil {
		t.Errorf("PSat should dispatch to the fallback correlation without error, got %v", err)
	}
}

func TestStorePSatDispatchesToDomeWhenAvailable(t *testing.T) {
	store, err := Load(writeSampleTable(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	p, err := store.PSat(373.15)
	if err != nil {
		t.Fatalf("PSat: %v", err)
	}
	if p <= 0 {
		t.Errorf("expected a positive saturation pressure, got %v", p)
	}
}
