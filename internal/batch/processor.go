// Package batch spawns avatars from a request list and writes their glTF
// models and previews.
package batch

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"humanforge/internal/avatar"
	"humanforge/internal/export"
	"humanforge/internal/preview"
	"humanforge/internal/texture"
)

// HairSlot is the asset slot tinted by a request's hair color.
const HairSlot = "hair"

// Config holds all shared resources for a batch run.
type Config struct {
	Pipeline  *avatar.Pipeline
	OutputDir string
	Textures  texture.Resolver
	SkinsDir  string
	Preview   preview.Options
	NoPreview bool
	Workers   int
}

// Result holds the outcome of processing one request.
type Result struct {
	Name    string
	Request avatar.Request
	Success bool
	Error   string
	GLB     string // relative to OutputDir
	Preview string // relative to OutputDir, empty when disabled
}

// Run processes all requests using a worker pool.
func Run(cfg Config, reqs []avatar.Request) []Result {
	total := len(reqs)
	results := make([]Result, total)
	var processed atomic.Int64
	workers := max(cfg.Workers, 1)

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					elapsed := time.Since(start).Seconds()
					rate := float64(p) / elapsed
					fmt.Printf("  [%d/%d] %.1f avatars/sec\n", p, total, rate)
				}
			}
		}
	}()

	// Worker pool
	reqChan := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range reqChan {
				results[idx] = processRequest(cfg, reqs[idx])
				processed.Add(1)
			}
		}()
	}

	// Send work
	for i := range reqs {
		reqChan <- i
	}
	close(reqChan)

	wg.Wait()
	close(done)

	return results
}

func processRequest(cfg Config, req avatar.Request) Result {
	res := Result{Name: req.Name, Request: req}

	av, err := cfg.Pipeline.Spawn(req)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	res.GLB = req.Name + ".glb"
	glbPath := filepath.Join(cfg.OutputDir, res.GLB)
	if err := os.MkdirAll(filepath.Dir(glbPath), 0755); err != nil {
		res.Error = err.Error()
		return res
	}
	if err := export.WriteGLB(glbPath, Model(av)); err != nil {
		res.Error = err.Error()
		return res
	}

	if !cfg.NoPreview {
		res.Preview = req.Name + ".webp"
		img := RenderPreview(cfg, av)
		if err := preview.WriteFile(filepath.Join(cfg.OutputDir, res.Preview), img); err != nil {
			res.Error = err.Error()
			return res
		}
	}

	res.Success = true
	return res
}

// Model converts a spawned avatar to its exportable form.
func Model(av *avatar.Avatar) export.Model {
	parts := av.Parts()
	m := export.Model{Name: av.Request.Name, Skeleton: av.Skeleton, Parts: make([]export.Part, len(parts))}
	for i, p := range parts {
		m.Parts[i] = export.Part{Name: p.Name, Mesh: p.Mesh, Skin: p.Skin}
	}
	return m
}

// RenderPreview draws the avatar body first and its assets in z-depth
// order, then recenters the result.
func RenderPreview(cfg Config, av *avatar.Avatar) *image.NRGBA {
	opts := cfg.Preview
	layers := []preview.Layer{{
		Mesh:    av.Body.Mesh,
		Texture: cfg.skinTexture(av.Request.SkinAlbedo),
		Color:   preview.SkinTone,
	}}
	for _, p := range av.Assets {
		l := preview.Layer{Mesh: p.Mesh, Texture: cfg.materialTexture(p.Material)}
		if p.Slot == HairSlot && av.Request.HairColor != nil {
			l.Texture = nil
			l.Color = linearToNRGBA(*av.Request.HairColor)
		}
		layers = append(layers, l)
	}

	img := preview.Render(layers, opts)
	if opts.FillRatio > 0 {
		img = preview.CropAndCenter(img, img.Bounds().Dx(), opts.FillRatio)
	}
	return img
}

func (cfg Config) skinTexture(name string) *image.NRGBA {
	if name == "" || cfg.Textures == nil {
		return nil
	}
	if !filepath.IsAbs(name) && cfg.SkinsDir != "" {
		name = filepath.Join(cfg.SkinsDir, name)
	}
	return cfg.Textures.Resolve(name)
}

// materialTexture returns the diffuse texture named by an .mhmat file.
// Missing or unreadable materials fall back to untextured drawing.
func (cfg Config) materialTexture(path string) *image.NRGBA {
	if path == "" || cfg.Textures == nil {
		return nil
	}
	mat, err := texture.LoadMaterial(path)
	if err != nil {
		return nil
	}
	return cfg.Textures.Resolve(mat.Diffuse)
}

func linearToNRGBA(c [3]float64) color.NRGBA {
	var out [3]uint8
	for i, v := range c {
		v = math.Pow(math.Max(0, math.Min(1, v)), 1/2.2)
		out[i] = uint8(v*255 + 0.5)
	}
	return color.NRGBA{out[0], out[1], out[2], 255}
}
