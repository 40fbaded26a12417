// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package compile implements the component-to-network compiler: it walks
// the user's component/connection graph and emits a *network.NetworkModel
// plus the initial *network.Snapshot.
package compile

import (
	"encoding/json"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

// PlantDoc is the Go type for the persisted plant document: a
// plain structured document enumerating components and connections. The core
// never writes this file — the construction layer does — it only reads it.
type PlantDoc struct {
	Components  []ComponentDoc  `json:"components"`
	Connections []ConnectionDoc `json:"connections"`

	// Seed is the deterministic seed for burst-margin (ζ) and break-geometry
	// randomness; 0 (the Go zero value, also the JSON-omitted default) is a
	// valid seed like any other, not a "no seed" sentinel.
	Seed int64 `json:"seed,omitempty"`
}

// ComponentDoc is one user-placed component.
type ComponentDoc struct {
	ID          string             `json:"id"`
	Type        string             `json:"type"` // "tank","pipe","vessel","hx_shell","hx_tube","condenser","turbine","pump","valve"
	Elevation   float64            `json:"elevation"`
	ContainedBy string             `json:"containedBy,omitempty"`
	Params      map[string]float64 `json:"params"`
}

// ConnectionDoc is one user-placed port-to-port connection.
type ConnectionDoc struct {
	ID            string  `json:"id"`
	FromComponent string  `json:"fromComponent"`
	ToComponent   string  `json:"toComponent"`
	FromElevation float64 `json:"fromElevation"`
	ToElevation   float64 `json:"toElevation"`
	FlowArea      float64 `json:"flowArea"`
	Length        float64 `json:"length"`
	PipeID        string  `json:"pipeId,omitempty"` // if set, an intermediate pipe node is created

	// DeviceParams carries pump/valve/check-valve parameters keyed by name
	// (e.g. "pumpRatedHead", "valvePosition", "checkValveCrackingPressure");
	// presence of the relevant key is what causes the compiler to register
	// that device against this connection.
	DeviceParams map[string]float64 `json:"deviceParams,omitempty"`
}

// LoadPlantDoc reads and decodes a plant document from path.
func LoadPlantDoc(path string) (*PlantDoc, error) {
	buf, err := io.ReadFile(path)
	if err != nil {
		return nil, chk.Err("compile: cannot read plant document %q: %v", path, err)
	}
	var doc PlantDoc
	if err := json.Unmarshal(buf, &doc); err != nil {
		return nil, chk.Err("compile: cannot parse plant document %q: %v", path, err)
	}
	return &doc, nil
}
