package asset

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"humanforge/internal/errs"
)

// Registry holds every loaded asset by name. Read-only after LoadRegistry.
type Registry struct {
	bodyParts map[string]*Asset
	equipment map[string]*Asset
}

func NewRegistry() *Registry {
	return &Registry{
		bodyParts: make(map[string]*Asset),
		equipment: make(map[string]*Asset),
	}
}

// Add registers a under its kind. Names are unique per kind.
func (r *Registry) Add(a *Asset) error {
	m := r.table(a.Kind)
	if _, ok := m[a.Def.Name]; ok {
		return fmt.Errorf("asset: duplicate %s %q", a.Kind, a.Def.Name)
	}
	m[a.Def.Name] = a
	return nil
}

func (r *Registry) table(k Kind) map[string]*Asset {
	if k == Equipment {
		return r.equipment
	}
	return r.bodyParts
}

// Get returns the named asset or a ConfigError wrapping ErrMissingAsset.
func (r *Registry) Get(k Kind, name string) (*Asset, error) {
	a, ok := r.table(k)[name]
	if !ok {
		return nil, &errs.ConfigError{Subject: k.String(), Name: name, Err: errs.ErrMissingAsset}
	}
	return a, nil
}

func (r *Registry) BodyPart(name string) (*Asset, error) { return r.Get(BodyPart, name) }

func (r *Registry) Equipment(name string) (*Asset, error) { return r.Get(Equipment, name) }

// Names lists assets of one kind, sorted.
func (r *Registry) Names(k Kind) []string {
	m := r.table(k)
	out := make([]string, 0, len(m))
	for n := range m {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) Len() int { return len(r.bodyParts) + len(r.equipment) }

// LoadRegistry walks the body part and equipment directories for .mhclo files.
func LoadRegistry(bodyPartDirs, equipmentDirs []string, tolerance float64) (*Registry, error) {
	reg := NewRegistry()
	load := func(dirs []string, kind Kind) error {
		for _, dir := range dirs {
			err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".mhclo") {
					return nil
				}
				a, err := Load(path, kind, tolerance)
				if err != nil {
					return err
				}
				a.Slot = filepath.Base(filepath.Dir(path))
				return reg.Add(a)
			})
			if err != nil {
				return fmt.Errorf("asset: load %s: %w", dir, err)
			}
		}
		return nil
	}
	if err := load(bodyPartDirs, BodyPart); err != nil {
		return nil, err
	}
	if err := load(equipmentDirs, Equipment); err != nil {
		return nil, err
	}
	return reg, nil
}
