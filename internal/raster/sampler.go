package raster

import (
	"image"
	"image/color"
	"math"
)

// SampleTexture bilinearly filters tex at (u, v) with wrapping. v grows
// upward, as in OBJ texture coordinates.
func SampleTexture(tex *image.NRGBA, u, v float64) color.NRGBA {
	w := tex.Rect.Dx()
	h := tex.Rect.Dy()
	if w == 0 || h == 0 {
		return color.NRGBA{}
	}

	u -= math.Floor(u)
	v = 1 - (v - math.Floor(v))

	fx := u * float64(w-1)
	fy := v * float64(h-1)
	x0 := int(fx)
	y0 := int(fy)
	x1 := (x0 + 1) % w
	y1 := (y0 + 1) % h
	dx := fx - float64(x0)
	dy := fy - float64(y0)

	stride := tex.Stride
	pix := tex.Pix
	i00 := y0*stride + x0*4
	i10 := y0*stride + x1*4
	i01 := y1*stride + x0*4
	i11 := y1*stride + x1*4

	w00 := (1 - dx) * (1 - dy)
	w10 := dx * (1 - dy)
	w01 := (1 - dx) * dy
	w11 := dx * dy

	var out [4]uint8
	for c := 0; c < 4; c++ {
		f := float64(pix[i00+c])*w00 + float64(pix[i10+c])*w10 +
			float64(pix[i01+c])*w01 + float64(pix[i11+c])*w11
		out[c] = uint8(f + 0.5)
	}
	return color.NRGBA{out[0], out[1], out[2], out[3]}
}

// AverageColor returns the mean opaque color of tex, or fallback when tex is
// empty or fully transparent.
func AverageColor(tex *image.NRGBA, fallback color.NRGBA) color.NRGBA {
	if tex == nil {
		return fallback
	}
	b := tex.Bounds()
	var sr, sg, sb, n float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := tex.PixOffset(b.Min.X, y)
		for x := 0; x < b.Dx(); x++ {
			i := off + x*4
			if tex.Pix[i+3] < 8 {
				continue
			}
			sr += float64(tex.Pix[i])
			sg += float64(tex.Pix[i+1])
			sb += float64(tex.Pix[i+2])
			n++
		}
	}
	if n == 0 {
		return fallback
	}
	return color.NRGBA{uint8(sr/n + 0.5), uint8(sg/n + 0.5), uint8(sb/n + 0.5), 255}
}
