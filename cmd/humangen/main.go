package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"humanforge/internal/avatar"
	"humanforge/internal/batch"
	"humanforge/internal/config"
	"humanforge/internal/preview"
	"humanforge/internal/texture"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config.json file")
	requestsFile := flag.String("requests", "", "JSON file with one avatar request or an array of them (required)")
	testN := flag.Int("test", 0, "Spawn only the first N requests for testing")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	dataDir := flag.String("data", "", "Path to the asset directory (default: auto-detect)")
	outputDir := flag.String("output", "", "Output directory (default: <data>/output)")
	rigs := flag.String("rigs", "", "Comma-separated rig names to load (default: default,mixamo,game_engine)")
	size := flag.Int("size", 0, "Preview edge length in pixels (default: 512)")
	tolerance := flag.Float64("tolerance", 0, "Vertex match tolerance; 0 matches exactly")
	yaw := flag.Float64("yaw", 0, "Preview camera yaw in degrees")
	fill := flag.Float64("fill", 0.9, "Fraction of the preview the avatar spans")
	noPreview := flag.Bool("no-preview", false, "Write glTF models only")

	flag.Parse()

	if *requestsFile == "" {
		fmt.Fprintln(os.Stderr, "Error: -requests is required.")
		flag.Usage()
		os.Exit(2)
	}

	// Load config
	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// CLI flags override config file
	cfg.Resolve(config.Flags{
		DataDir:   *dataDir,
		OutputDir: *outputDir,
		Rigs:      *rigs,
		Workers:   *workers,
		Size:      *size,
		Tolerance: *tolerance,
	})

	if cfg.DataDir == "" {
		fmt.Fprintln(os.Stderr, "Error: cannot find the asset directory. Use -data flag or config.json.")
		os.Exit(1)
	}

	reqs, err := avatar.LoadRequests(*requestsFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading requests: %v\n", err)
		os.Exit(1)
	}

	// Limit for testing
	if *testN > 0 && *testN < len(reqs) {
		reqs = reqs[:*testN]
	}

	if len(reqs) == 0 {
		fmt.Println("No avatars to spawn.")
		os.Exit(0)
	}

	// Tables load in the background while textures are indexed.
	store := &avatar.Store{}
	loaded := store.LoadAsync(avatar.Sources{
		BaseOBJ:       cfg.BaseOBJ,
		VertexGroups:  cfg.VertexGroups,
		TargetsDirs:   cfg.TargetsDirs,
		BodyPartDirs:  cfg.BodyPartDirs,
		EquipmentDirs: cfg.EquipmentDirs,
		RigsDir:       cfg.RigsDir,
		RigNames:      cfg.RigNames,
		BodyVertices:  cfg.BodyVertices,
		Tolerance:     cfg.MatchTolerance,
	})

	texDirs := append([]string{cfg.SkinsDir}, cfg.BodyPartDirs...)
	texDirs = append(texDirs, cfg.EquipmentDirs...)
	texIndex := texture.BuildIndex(texDirs...)
	texCache := texture.NewCache(texIndex)
	fmt.Printf("Textures: %d indexed\n", texIndex.Len())

	loadStart := time.Now()
	if err := <-loaded; err != nil {
		fmt.Fprintf(os.Stderr, "Error loading tables: %v\n", err)
		os.Exit(1)
	}
	tables, _ := store.Snapshot()
	fmt.Printf("Tables: %d morphs, %d assets, %d rigs in %.1fs\n",
		tables.Morphs.Len(), tables.Assets.Len(), tables.Rigs.Len(), time.Since(loadStart).Seconds())

	// Print summary
	mode := ""
	if *testN > 0 {
		mode = fmt.Sprintf(" (TEST: first %d)", *testN)
	}

	fmt.Printf("Humanoid avatars → glTF%s\n", mode)
	fmt.Printf("Avatars: %d, Workers: %d\n", len(reqs), cfg.Workers)
	fmt.Printf("Output: %s\n", cfg.OutputDir)
	fmt.Println("------------------------------------------------------------")

	start := time.Now()

	// Run batch
	batchCfg := batch.Config{
		Pipeline:  avatar.NewPipeline(store),
		OutputDir: cfg.OutputDir,
		Textures:  texCache,
		SkinsDir:  cfg.SkinsDir,
		Preview: preview.Options{
			Size:        cfg.PreviewSize,
			Supersample: cfg.Supersample,
			Yaw:         *yaw,
			FillRatio:   *fill,
		},
		NoPreview: *noPreview,
		Workers:   cfg.Workers,
	}

	results := batch.Run(batchCfg, reqs)

	elapsed := time.Since(start)
	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", elapsed.Seconds())

	// Count results
	success, failed := 0, 0
	var errors []batch.Result
	for _, r := range results {
		if r.Success {
			success++
		} else {
			failed++
			errors = append(errors, r)
		}
	}

	fmt.Printf("Spawned: %d/%d\n", success, len(reqs))

	if len(errors) > 0 {
		fmt.Printf("\nFailed (%d):\n", failed)
		for _, e := range errors[:min(len(errors), 20)] {
			fmt.Printf("  %s: %s\n", e.Name, e.Error)
		}
	}

	// Write manifest
	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	if err := batch.WriteManifest(manifestPath, results); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: manifest write failed: %v\n", err)
	} else {
		fmt.Printf("Manifest: %s\n", manifestPath)
	}

	if failed > 0 {
		os.Exit(1)
	}
}
