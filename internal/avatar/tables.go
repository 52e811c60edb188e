// Package avatar assembles skinned humanoids from shared, read-only tables.
package avatar

import (
	"fmt"

	"humanforge/internal/asset"
	"humanforge/internal/correspond"
	"humanforge/internal/mathutil"
	"humanforge/internal/mesh"
	"humanforge/internal/morph"
	"humanforge/internal/objfile"
	"humanforge/internal/rig"
	"humanforge/internal/surgery"
)

// Sources names the files and directories Load reads.
type Sources struct {
	BaseOBJ       string
	VertexGroups  string
	TargetsDirs   []string
	BodyPartDirs  []string
	EquipmentDirs []string
	RigsDir       string
	RigNames      []string
	BodyVertices  int
	Tolerance     float64 // 0 matches vertices exactly
}

// Tables is everything a spawn reads. Nothing in it is written after
// construction, so one value may serve any number of concurrent spawns.
type Tables struct {
	// Helpers are the canonical base positions, body and helper cage.
	Helpers []mathutil.Vec3
	// Body is the base render mesh with the helper cage removed, and
	// BodyCorr links it to Helpers.
	Body         *mesh.Mesh
	BodyCorr     *correspond.Map
	BodyVertices int

	Morphs *morph.Library
	Assets *asset.Registry
	Rigs   *rig.Library
	Groups rig.VertexGroups
}

// NewTables derives the body tables from a parsed base model. Libraries are
// attached as given.
func NewTables(base *objfile.Model, bodyVertices int, tolerance float64) (*Tables, error) {
	if bodyVertices <= 0 || bodyVertices > len(base.Canonical) {
		return nil, fmt.Errorf("avatar: %d body vertices for %d canonical vertices", bodyVertices, len(base.Canonical))
	}
	corr, err := correspond.Match(base.Canonical, base.Render.Positions, tolerance)
	if err != nil {
		return nil, fmt.Errorf("avatar: base mesh: %w", err)
	}
	stripped, err := surgery.StripHelpers(base.Render, corr, bodyVertices)
	if err != nil {
		return nil, fmt.Errorf("avatar: strip helpers: %w", err)
	}
	bodyCorr, err := stripped.Correspondence(corr)
	if err != nil {
		return nil, fmt.Errorf("avatar: strip helpers: %w", err)
	}
	return &Tables{
		Helpers:      base.Canonical,
		Body:         stripped.Mesh,
		BodyCorr:     bodyCorr,
		BodyVertices: bodyVertices,
		Morphs:       morph.NewLibrary(),
		Assets:       asset.NewRegistry(),
		Rigs:         rig.NewLibrary(),
		Groups:       rig.VertexGroups{},
	}, nil
}

// Load reads every table named by src.
func Load(src Sources) (*Tables, error) {
	base, err := objfile.Load(src.BaseOBJ)
	if err != nil {
		return nil, fmt.Errorf("avatar: %w", err)
	}
	t, err := NewTables(base, src.BodyVertices, src.Tolerance)
	if err != nil {
		return nil, err
	}

	if t.Morphs, err = morph.LoadLibrary(src.TargetsDirs...); err != nil {
		return nil, fmt.Errorf("avatar: %w", err)
	}
	if t.Groups, err = rig.LoadVertexGroups(src.VertexGroups); err != nil {
		return nil, fmt.Errorf("avatar: %w", err)
	}
	if t.Rigs, err = rig.LoadLibrary(src.RigsDir, src.RigNames); err != nil {
		return nil, fmt.Errorf("avatar: %w", err)
	}
	if t.Assets, err = asset.LoadRegistry(src.BodyPartDirs, src.EquipmentDirs, src.Tolerance); err != nil {
		return nil, fmt.Errorf("avatar: %w", err)
	}
	return t, nil
}
