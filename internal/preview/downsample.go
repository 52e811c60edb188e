package preview

import (
	"image"

	"golang.org/x/image/draw"
)

// Downsample scales img to size×size with premultiplied-alpha CatmullRom
// filtering, which keeps dark fringes off transparent edges.
func Downsample(img *image.NRGBA, size int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() <= size && b.Dy() <= size {
		return img
	}

	premul := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		si, di := img.PixOffset(b.Min.X, y), premul.PixOffset(b.Min.X, y)
		for x := 0; x < b.Dx(); x++ {
			a := uint32(img.Pix[si+3])
			for c := 0; c < 3; c++ {
				premul.Pix[di+c] = uint8((uint32(img.Pix[si+c])*a + 127) / 255)
			}
			premul.Pix[di+3] = uint8(a)
			si += 4
			di += 4
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), premul, b, draw.Src, nil)

	out := image.NewNRGBA(dst.Bounds())
	for i := 0; i < len(dst.Pix); i += 4 {
		a := dst.Pix[i+3]
		if a > 0 {
			for c := 0; c < 3; c++ {
				out.Pix[i+c] = uint8(min((uint32(dst.Pix[i+c])*255+uint32(a)/2)/uint32(a), 255))
			}
		}
		out.Pix[i+3] = a
	}
	return out
}
