package avatar

import (
	"fmt"
	"sort"

	"humanforge/internal/asset"
	"humanforge/internal/correspond"
	"humanforge/internal/mesh"
	"humanforge/internal/morph"
	"humanforge/internal/skeleton"
	"humanforge/internal/skin"
	"humanforge/internal/surgery"
)

// BodyName names the body part of every avatar.
const BodyName = "body"

// Part is one skinned mesh of an avatar.
type Part struct {
	Name     string
	Kind     asset.Kind // assets only
	Slot     string
	ZDepth   int
	Material string // .mhmat path for assets
	Mesh     *mesh.Mesh
	Corr     *correspond.Map
	Skin     *skin.Buffers
}

// Avatar is the result of one spawn. It shares nothing mutable with Tables.
type Avatar struct {
	Request  Request
	Skeleton *skeleton.Skeleton
	Body     Part
	Assets   []Part // ascending z-depth
}

// Parts returns the body followed by the worn assets.
func (a *Avatar) Parts() []Part {
	return append([]Part{a.Body}, a.Assets...)
}

// Pipeline spawns avatars from the tables published in a Store.
type Pipeline struct {
	store *Store
}

func NewPipeline(store *Store) *Pipeline {
	return &Pipeline{store: store}
}

// Spawn builds one avatar. It fails with ErrNotReady until tables are
// published and never modifies them.
func (p *Pipeline) Spawn(req Request) (*Avatar, error) {
	t, ok := p.store.Snapshot()
	if !ok {
		return nil, ErrNotReady
	}
	return Build(t, req)
}

// Build runs the full spawn against t:
// helpers are morphed, the body and worn assets are fitted to them, the body
// is pruned under the assets, then the skeleton is built and every part
// skinned.
func Build(t *Tables, req Request) (*Avatar, error) {
	worn, err := resolveAssets(t.Assets, req)
	if err != nil {
		return nil, err
	}
	def, err := t.Rigs.Get(req.RigName())
	if err != nil {
		return nil, fmt.Errorf("avatar: %s: %w", req.Name, err)
	}

	helpers, err := morph.BakeHelpers(req.Morphs, t.Morphs, t.Helpers)
	if err != nil {
		return nil, fmt.Errorf("avatar: %s: %w", req.Name, err)
	}
	body, err := morph.BakeBodyRender(helpers, t.BodyCorr, t.Body)
	if err != nil {
		return nil, fmt.Errorf("avatar: %s: %w", req.Name, err)
	}

	assets := make([]Part, len(worn))
	deleteSets := make([]map[int]struct{}, len(worn))
	for i, a := range worn {
		m, err := asset.FitRender(a, helpers, req.Morphs, t.Morphs)
		if err != nil {
			return nil, fmt.Errorf("avatar: %s: fit %s: %w", req.Name, a.Def.Name, err)
		}
		assets[i] = Part{
			Name:     a.Def.Name,
			Kind:     a.Kind,
			Slot:     a.Slot,
			ZDepth:   a.Def.ZDepth,
			Material: a.Def.Material,
			Mesh:     m,
			Corr:     a.Corr,
		}
		deleteSets[i] = a.Def.Delete
	}

	bodyCorr := t.BodyCorr
	if del := surgery.UnionDeleteSets(deleteSets...); len(del) > 0 {
		pruned, err := surgery.Prune(body, bodyCorr, del)
		if err != nil {
			return nil, fmt.Errorf("avatar: %s: %w", req.Name, err)
		}
		if bodyCorr, err = pruned.Correspondence(t.BodyCorr); err != nil {
			return nil, fmt.Errorf("avatar: %s: %w", req.Name, err)
		}
		body = pruned.Mesh
	}

	skel, err := skeleton.Build(def, helpers, t.Groups, req.Transform())
	if err != nil {
		return nil, fmt.Errorf("avatar: %s: %w", req.Name, err)
	}
	bodySkin, err := skin.ComputeBody(def.Weights, skel, bodyCorr, t.BodyVertices)
	if err != nil {
		return nil, fmt.Errorf("avatar: %s: %w", req.Name, err)
	}
	for i, a := range worn {
		if assets[i].Skin, err = skin.ComputeAsset(def.Weights, skel, a); err != nil {
			return nil, fmt.Errorf("avatar: %s: skin %s: %w", req.Name, a.Def.Name, err)
		}
	}

	return &Avatar{
		Request:  req,
		Skeleton: skel,
		Body:     Part{Name: BodyName, Mesh: body, Corr: bodyCorr, Skin: bodySkin},
		Assets:   assets,
	}, nil
}

// resolveAssets looks up the requested body parts then equipment, ordered
// by ascending z-depth and otherwise as requested.
func resolveAssets(reg *asset.Registry, req Request) ([]*asset.Asset, error) {
	var worn []*asset.Asset
	for _, name := range req.BodyParts {
		a, err := reg.BodyPart(name)
		if err != nil {
			return nil, fmt.Errorf("avatar: %s: %w", req.Name, err)
		}
		worn = append(worn, a)
	}
	for _, name := range req.Equipment {
		a, err := reg.Equipment(name)
		if err != nil {
			return nil, fmt.Errorf("avatar: %s: %w", req.Name, err)
		}
		worn = append(worn, a)
	}
	sort.SliceStable(worn, func(i, j int) bool { return worn[i].Def.ZDepth < worn[j].Def.ZDepth })
	return worn, nil
}
