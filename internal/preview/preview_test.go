package preview

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"humanforge/internal/mathutil"
	"humanforge/internal/mesh"
)

// quad is a unit square facing +Z, taller than wide to test framing.
func quad() *mesh.Mesh {
	m := &mesh.Mesh{
		Positions: []mathutil.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 2, 0}, {0, 2, 0}},
		Indices:   []uint32{0, 1, 2, 0, 2, 3},
	}
	m.RecomputeAttributes()
	return m
}

func TestRenderFramesSubject(t *testing.T) {
	img := Render([]Layer{{Mesh: quad(), Color: color.NRGBA{200, 200, 200, 255}}},
		Options{Size: 32, Supersample: 2, FillRatio: 0.5})
	if b := img.Bounds(); b.Dx() != 32 || b.Dy() != 32 {
		t.Fatalf("bounds = %v", b)
	}
	if a := img.NRGBAAt(16, 16).A; a < 250 {
		t.Errorf("center alpha = %d, want opaque", a)
	}
	if a := img.NRGBAAt(1, 1).A; a != 0 {
		t.Errorf("corner alpha = %d, want transparent", a)
	}
	// Height fills half the frame, width a quarter.
	if a := img.NRGBAAt(16, 5).A; a != 0 {
		t.Errorf("pixel above subject alpha = %d", a)
	}
	if a := img.NRGBAAt(4, 16).A; a != 0 {
		t.Errorf("pixel left of subject alpha = %d", a)
	}
}

func TestRenderEmpty(t *testing.T) {
	img := Render(nil, Options{Size: 8})
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0 {
			t.Fatal("empty render must be transparent")
		}
	}
}

func TestCropAndCenter(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 20, 20))
	for y := 2; y < 6; y++ {
		for x := 10; x < 14; x++ {
			src.SetNRGBA(x, y, color.NRGBA{255, 0, 0, 255})
		}
	}
	if got := opaqueBounds(src); got != image.Rect(10, 2, 14, 6) {
		t.Fatalf("opaqueBounds = %v", got)
	}
	out := CropAndCenter(src, 10, 0.8)
	if a := out.NRGBAAt(5, 5).A; a == 0 {
		t.Error("center should be covered")
	}
	if a := out.NRGBAAt(0, 0).A; a != 0 {
		t.Error("margin should stay transparent")
	}
	if blank := CropAndCenter(image.NewNRGBA(image.Rect(0, 0, 4, 4)), 6, 0.8); blank.Bounds().Dx() != 6 {
		t.Error("blank input still yields a canvas of the requested size")
	}
}

func TestDownsampleKeepsSmallImages(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	if Downsample(img, 8) != img {
		t.Error("image already within size should be returned as is")
	}
	big := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := range big.Pix {
		big.Pix[i] = 255
	}
	small := Downsample(big, 4)
	if c := small.NRGBAAt(2, 2); c.R < 250 || c.A < 250 {
		t.Errorf("downsampled white = %v", c)
	}
}

func TestEncodeWebP(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatal(err)
	}
	b := buf.Bytes()
	if len(b) < 12 || string(b[0:4]) != "RIFF" || string(b[8:12]) != "WEBP" {
		t.Errorf("not a WebP container: % x", b[:min(len(b), 12)])
	}
}
