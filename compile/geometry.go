// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compile

import (
	"math"

	"github.com/cpmech/gosl/chk"
)

// VesselGeometry computes the analytic volumes of a reactor vessel's
// barrel-interior and annulus sub-nodes: wall thickness
// does not change internal volume because volumes are derived from the inner
// radii alone, grounded on the donor's ana.CrossSection convention of small,
// pure input/derived geometry structures.
type VesselGeometry struct {
	// input
	InnerRadius float64 // m, barrel inner radius
	OuterRadius float64 // m, vessel inner wall radius (annulus outer bound)
	Height      float64 // m
	CoreRadius  float64 // m, 0 if no core present; fuel-rod bundle envelope radius

	// derived
	BarrelVolume  float64 // m³
	AnnulusVolume float64 // m³
	TopGapArea    float64 // m², flow area between barrel and annulus at the top gap
	BottomGapArea float64 // m², same, at the bottom gap
}

// Init validates the geometry and computes derived volumes/areas.
func (o *VesselGeometry) Init(innerRadius, outerRadius, height, coreRadius float64) error {
	if innerRadius <= 0 || outerRadius <= innerRadius || height <= 0 {
		return chk.Err("compile: invalid vessel geometry (inner=%g, outer=%g, height=%g)", innerRadius, outerRadius, height)
	}
	if coreRadius > innerRadius {
		return chk.Err("compile: core radius %g exceeds available barrel space %g", coreRadius, innerRadius)
	}
	o.InnerRadius, o.OuterRadius, o.Height, o.CoreRadius = innerRadius, outerRadius, height, coreRadius

	barrelArea := math.Pi * innerRadius * innerRadius
	o.BarrelVolume = barrelArea * height
	o.AnnulusVolume = math.Pi * (outerRadius*outerRadius - innerRadius*innerRadius) * height

	gapArea := barrelArea
	if coreRadius > 0 {
		gapArea -= math.Pi * coreRadius * coreRadius
	}
	o.TopGapArea = gapArea
	o.BottomGapArea = gapArea
	return nil
}

// CylinderVolume returns π·r²·h, used for simple tank/pipe components.
func CylinderVolume(radius, height float64) (float64, error) {
	if radius <= 0 || height <= 0 {
		return 0, chk.Err("compile: cylinder volume requires positive radius (%g) and height (%g)", radius, height)
	}
	return math.Pi * radius * radius * height, nil
}

// PortDistance returns the straight-line distance between two port elevations
// on components separated horizontally by dx. BuildNetwork does not call it:
// its connection check rejects only a non-positive length or flow area, and a
// declared length shorter than the port-to-port distance is not detected.
func PortDistance(dx, fromElevation, toElevation float64) float64 {
	dz := toElevation - fromElevation
	return math.Sqrt(dx*dx + dz*dz)
}
