package raster

import (
	"math"

	"humanforge/internal/mathutil"
)

// LightConfig holds precomputed lighting parameters in view space
// (camera on +Z looking toward -Z, +Y up).
type LightConfig struct {
	KeyDir   mathutil.Vec3
	RimDir   mathutil.Vec3
	HalfKey  mathutil.Vec3 // Blinn-Phong half-vector between key and view
	Ambient  float64
	Hemi     float64
	Direct   float64
	Rim      float64
	SpecInt  float64
	SpecPow  float64
	Exposure float64
	InvGamma float64
}

// DefaultLightConfig returns a three-quarter key light with a rim light from
// behind, tuned for skin.
func DefaultLightConfig() LightConfig {
	keyDir := mathutil.Vec3{0.45, 0.6, 0.65}.Normalize()
	rimDir := mathutil.Vec3{-0.5, 0.35, -0.8}.Normalize()
	viewDir := mathutil.Vec3{0, 0, 1}

	return LightConfig{
		KeyDir:   keyDir,
		RimDir:   rimDir,
		HalfKey:  keyDir.Add(viewDir).Normalize(),
		Ambient:  0.35,
		Hemi:     0.35,
		Direct:   0.9,
		Rim:      0.25,
		SpecInt:  0.12,
		SpecPow:  24.0,
		Exposure: 1.0,
		InvGamma: 1.0 / 2.2,
	}
}

// Shade returns the lighting scalar for a unit view-space normal.
// Back-facing key light contributes nothing; the rim light wraps.
func (lc *LightConfig) Shade(n mathutil.Vec3) float64 {
	key := math.Max(n.Dot(lc.KeyDir), 0)
	rim := math.Abs(n.Dot(lc.RimDir))

	// Sky above, ground bounce below.
	hemi := (n[1]*0.5 + 0.5) * lc.Hemi

	spec := 0.0
	if key > 0 {
		spec = math.Pow(math.Max(n.Dot(lc.HalfKey), 0), lc.SpecPow) * lc.SpecInt
	}
	return lc.Ambient + hemi + key*lc.Direct + rim*lc.Rim + spec
}

// Precomputed sRGB-to-linear lookup table.
var srgbToLinear [256]float64

func init() {
	for i := range srgbToLinear {
		srgbToLinear[i] = math.Pow(float64(i)/255.0, 2.2)
	}
}

// ACESTonemap applies ACES filmic tone mapping to a linear value.
func ACESTonemap(x float64) float64 {
	return (x * (2.51*x + 0.03)) / (x*(2.43*x+0.59) + 0.14)
}
