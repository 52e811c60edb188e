package rig

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"humanforge/internal/errs"
)

// Built-in rig names shipped with the base mesh data.
var DefaultRigNames = []string{"default", "mixamo", "game_engine"}

// ParseBones decodes a rig file, keeping bones in file order. A top-level
// object whose only key is "bones" is unwrapped (the mixamo layout).
func ParseBones(r io.Reader) ([]BoneDefinition, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}
	if inner, ok := probe["bones"]; ok && len(probe) == 1 {
		data = inner
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil, fmt.Errorf("expected object of bones")
	}
	var bones []BoneDefinition
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected bone name, got %v", tok)
		}
		var b BoneDefinition
		if err := dec.Decode(&b); err != nil {
			return nil, fmt.Errorf("bone %q: %w", name, err)
		}
		b.Name = name
		bones = append(bones, b)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return bones, nil
}

// ParseWeights decodes {"weights": {bone: [[vertex, weight], ...]}}.
func ParseWeights(r io.Reader) (WeightTable, error) {
	var raw struct {
		Weights map[string][][2]float64 `json:"weights"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, err
	}
	table := make(WeightTable, len(raw.Weights))
	for bone, pairs := range raw.Weights {
		infl := make([]Influence, len(pairs))
		for i, p := range pairs {
			if p[0] < 0 || p[0] != math.Trunc(p[0]) {
				return nil, fmt.Errorf("bone %q: bad vertex id %v", bone, p[0])
			}
			infl[i] = Influence{Vertex: int(p[0]), Weight: p[1]}
		}
		table[bone] = infl
	}
	return table, nil
}

// ParseVertexGroups decodes {group: [[first, last], ...]}.
func ParseVertexGroups(r io.Reader) (VertexGroups, error) {
	var vg VertexGroups
	if err := json.NewDecoder(r).Decode(&vg); err != nil {
		return nil, err
	}
	return vg, nil
}

// LoadVertexGroups reads basemesh_vertex_groups.json.
func LoadVertexGroups(path string) (VertexGroups, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("rig: open %s: %w", path, err)
	}
	defer f.Close()
	vg, err := ParseVertexGroups(f)
	if err != nil {
		return nil, fmt.Errorf("rig: parse %s: %w", path, err)
	}
	return vg, nil
}

// LoadRig reads rig.<name>.json and weights.<name>.json from dir.
func LoadRig(dir, name string) (*Definition, error) {
	bonesPath := filepath.Join(dir, "rig."+name+".json")
	f, err := os.Open(bonesPath)
	if err != nil {
		return nil, fmt.Errorf("rig: open %s: %w", bonesPath, err)
	}
	bones, err := ParseBones(f)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("rig: parse %s: %w", bonesPath, err)
	}

	weightsPath := filepath.Join(dir, "weights."+name+".json")
	f, err = os.Open(weightsPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &errs.ConfigError{Subject: "rig", Name: name, Err: errs.ErrMissingWeights}
	}
	if err != nil {
		return nil, fmt.Errorf("rig: open %s: %w", weightsPath, err)
	}
	weights, err := ParseWeights(f)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("rig: parse %s: %w", weightsPath, err)
	}

	return &Definition{Name: name, Bones: bones, Weights: weights}, nil
}

// LoadLibrary loads each named rig from dir.
func LoadLibrary(dir string, names []string) (*Library, error) {
	lib := NewLibrary()
	for _, n := range names {
		d, err := LoadRig(dir, n)
		if err != nil {
			return nil, err
		}
		lib.Add(d)
	}
	return lib, nil
}
