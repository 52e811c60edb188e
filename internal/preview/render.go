// Package preview renders fitted meshes to still WebP images.
package preview

import (
	"image"
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"humanforge/internal/mathutil"
	"humanforge/internal/mesh"
	"humanforge/internal/raster"
)

// SkinTone is the base color of an untextured body.
var SkinTone = color.NRGBA{224, 180, 150, 255}

// Layer is one mesh to draw. Texture may be nil, in which case Color is used.
type Layer struct {
	Mesh    *mesh.Mesh
	Texture *image.NRGBA
	Color   color.NRGBA
}

// Options controls the camera and output.
type Options struct {
	Size        int     // output edge length in pixels
	Supersample int     // render at Size×Supersample, then downscale
	Yaw         float64 // degrees around +Y; 0 faces the camera
	Pitch       float64 // degrees around +X
	FillRatio   float64 // fraction of the frame the subject spans
}

func (o Options) withDefaults() Options {
	if o.Size <= 0 {
		o.Size = 512
	}
	if o.Supersample <= 0 {
		o.Supersample = 2
	}
	if o.FillRatio <= 0 || o.FillRatio > 1 {
		o.FillRatio = 0.9
	}
	return o
}

// Render draws the layers with an orthographic camera on +Z framing their
// joint bounds.
func Render(layers []Layer, opts Options) *image.NRGBA {
	opts = opts.withDefaults()
	view := mgl64.Rotate3DX(mgl64.DegToRad(opts.Pitch)).Mul3(mgl64.Rotate3DY(mgl64.DegToRad(opts.Yaw)))
	toView := func(p mathutil.Vec3) mathutil.Vec3 { return mathutil.Vec3(view.Mul3x1(mgl64.Vec3(p))) }

	lo := mathutil.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi := mathutil.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, l := range layers {
		for _, p := range l.Mesh.Positions {
			t := toView(p)
			for k := 0; k < 3; k++ {
				lo[k] = math.Min(lo[k], t[k])
				hi[k] = math.Max(hi[k], t[k])
			}
		}
	}

	renderSize := opts.Size * opts.Supersample
	fb := raster.NewFrameBuffer(renderSize, renderSize)
	if lo[0] > hi[0] {
		return image.NewNRGBA(image.Rect(0, 0, opts.Size, opts.Size))
	}

	center := mathutil.Midpoint(lo, hi)
	span := math.Max(math.Max(hi[0]-lo[0], hi[1]-lo[1]), 1e-3)
	scale := float64(renderSize) * opts.FillRatio / span
	half := float64(renderSize) / 2
	lc := raster.DefaultLightConfig()

	for _, l := range layers {
		m := l.Mesh
		verts := make([]raster.Vertex, m.VertexCount())
		for i, p := range m.Positions {
			t := toView(p)
			v := raster.Vertex{
				X:     (t[0]-center[0])*scale + half,
				Y:     -(t[1]-center[1])*scale + half,
				Z:     t[2],
				Shade: lc.Ambient,
			}
			if i < len(m.Normals) {
				v.Shade = lc.Shade(toView(m.Normals[i]).Normalize())
			}
			if m.HasUVs() {
				v.U, v.V = float64(m.UVs[i][0]), float64(m.UVs[i][1])
			}
			verts[i] = v
		}

		tex := l.Texture
		if !m.HasUVs() {
			tex = nil
		}
		base := l.Color
		if base.A == 0 {
			base = raster.AverageColor(l.Texture, SkinTone)
		}
		for t := 0; t < m.TriangleCount(); t++ {
			tri := m.Triangle(t)
			raster.RasterizeTriangle(fb, [3]raster.Vertex{verts[tri[0]], verts[tri[1]], verts[tri[2]]}, tex, base, &lc)
		}
	}

	img := fb.Image()
	if opts.Supersample > 1 {
		img = Downsample(img, opts.Size)
	}
	return img
}
