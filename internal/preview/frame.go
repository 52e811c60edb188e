package preview

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// CropAndCenter crops img to its opaque bounds, scales that to fillRatio of
// a size×size canvas and centers it.
func CropAndCenter(img *image.NRGBA, size int, fillRatio float64) *image.NRGBA {
	canvas := image.NewNRGBA(image.Rect(0, 0, size, size))
	box := opaqueBounds(img)
	if box.Empty() {
		return canvas
	}

	scale := float64(size) * fillRatio / math.Max(float64(box.Dx()), float64(box.Dy()))
	w := max(int(float64(box.Dx())*scale+0.5), 1)
	h := max(int(float64(box.Dy())*scale+0.5), 1)
	off := image.Pt((size-w)/2, (size-h)/2)
	draw.CatmullRom.Scale(canvas, image.Rectangle{Min: off, Max: off.Add(image.Pt(w, h))}, img, box, draw.Src, nil)
	return canvas
}

// opaqueBounds returns the smallest rectangle holding every pixel with
// nonzero alpha.
func opaqueBounds(img *image.NRGBA) image.Rectangle {
	b := img.Bounds()
	box := image.Rectangle{}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := img.PixOffset(b.Min.X, y)
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.Pix[off+(x-b.Min.X)*4+3] == 0 {
				continue
			}
			px := image.Rect(x, y, x+1, y+1)
			if box.Empty() {
				box = px
			} else {
				box = box.Union(px)
			}
		}
	}
	return box
}
