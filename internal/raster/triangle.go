// Package raster is a small software rasterizer for mesh previews.
package raster

import (
	"image"
	"image/color"
	"math"
)

// FrameBuffer holds the render target as flat slices. Larger Z is nearer.
type FrameBuffer struct {
	Width  int
	Height int
	Color  []uint8   // RGBA interleaved, len = W*H*4
	ZBuf   []float64 // depth per pixel, initialized to -inf
}

// NewFrameBuffer allocates a transparent color buffer and an empty z-buffer.
func NewFrameBuffer(w, h int) *FrameBuffer {
	zbuf := make([]float64, w*h)
	for i := range zbuf {
		zbuf[i] = math.Inf(-1)
	}
	return &FrameBuffer{Width: w, Height: h, Color: make([]uint8, w*h*4), ZBuf: zbuf}
}

// Image wraps the color buffer without copying.
func (fb *FrameBuffer) Image() *image.NRGBA {
	return &image.NRGBA{Pix: fb.Color, Stride: fb.Width * 4, Rect: image.Rect(0, 0, fb.Width, fb.Height)}
}

// Vertex is a projected vertex: screen position, depth, texture coordinate
// and its lighting scalar.
type Vertex struct {
	X, Y, Z float64
	U, V    float64
	Shade   float64
}

// RasterizeTriangle fills one triangle with z-testing. Shade is interpolated
// across the face (Gouraud). Texels come from tex when non-nil, otherwise
// base is used. Color is lit in linear space and ACES tone mapped.
// Both windings are drawn.
func RasterizeTriangle(fb *FrameBuffer, v [3]Vertex, tex *image.NRGBA, base color.NRGBA, lc *LightConfig) {
	x0, y0 := v[0].X, v[0].Y
	x1, y1 := v[1].X, v[1].Y
	x2, y2 := v[2].X, v[2].Y

	minX := max(int(math.Floor(min(x0, x1, x2))), 0)
	maxX := min(int(math.Ceil(max(x0, x1, x2))), fb.Width-1)
	minY := max(int(math.Floor(min(y0, y1, y2))), 0)
	maxY := min(int(math.Ceil(max(y0, y1, y2))), fb.Height-1)
	if minX > maxX || minY > maxY {
		return
	}

	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if math.Abs(det) < 1e-12 {
		return
	}
	invDet := 1.0 / det
	dy12 := y1 - y2
	dx21 := x2 - x1
	dy20 := y2 - y0
	dx02 := x0 - x2

	for sy := minY; sy <= maxY; sy++ {
		dsy := float64(sy) + 0.5 - y2
		rowOff := sy * fb.Width
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) + 0.5 - x2
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1.0 - w0 - w1
			if w0 < -1e-6 || w1 < -1e-6 || w2 < -1e-6 {
				continue
			}

			z := w0*v[0].Z + w1*v[1].Z + w2*v[2].Z
			zi := rowOff + sx
			if z <= fb.ZBuf[zi] {
				continue
			}

			c := base
			if tex != nil {
				u := w0*v[0].U + w1*v[1].U + w2*v[2].U
				t := w0*v[0].V + w1*v[1].V + w2*v[2].V
				c = SampleTexture(tex, u, t)
			}
			// Cut-out alpha, as used by eyebrow and eyelash cards.
			if c.A < 128 {
				continue
			}
			fb.ZBuf[zi] = z

			shade := (w0*v[0].Shade + w1*v[1].Shade + w2*v[2].Shade) * lc.Exposure
			pi := zi * 4
			fb.Color[pi] = encode(srgbToLinear[c.R]*shade, lc.InvGamma)
			fb.Color[pi+1] = encode(srgbToLinear[c.G]*shade, lc.InvGamma)
			fb.Color[pi+2] = encode(srgbToLinear[c.B]*shade, lc.InvGamma)
			fb.Color[pi+3] = 255
		}
	}
}

// encode tone maps a linear value and converts it to 8-bit sRGB.
func encode(linear, invGamma float64) uint8 {
	return clamp255(math.Pow(ACESTonemap(linear), invGamma) * 255)
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
