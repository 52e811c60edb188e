package morph

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"humanforge/internal/errs"
)

// Library is a read-only set of targets keyed by name once loading is done.
type Library struct {
	targets map[string]*Target
}

func NewLibrary() *Library {
	return &Library{targets: make(map[string]*Target)}
}

// Add registers t. Names must be unique.
func (l *Library) Add(t *Target) error {
	if _, ok := l.targets[t.Name]; ok {
		return fmt.Errorf("morph: duplicate target %q", t.Name)
	}
	l.targets[t.Name] = t
	return nil
}

func (l *Library) Get(name string) (*Target, bool) {
	t, ok := l.targets[name]
	return t, ok
}

func (l *Library) Len() int { return len(l.targets) }

// Names returns all target names, sorted.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.targets))
	for n := range l.targets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Resolve looks up every nonzero-weight name, in sorted order.
// An unknown name is a ConfigError wrapping ErrMissingMorph.
func (l *Library) Resolve(weights map[string]float64) ([]Weighted, error) {
	names := make([]string, 0, len(weights))
	for n, w := range weights {
		if w != 0 {
			names = append(names, n)
		}
	}
	sort.Strings(names)

	out := make([]Weighted, 0, len(names))
	for _, n := range names {
		t, ok := l.targets[n]
		if !ok {
			return nil, &errs.ConfigError{Subject: "morph", Name: n, Err: errs.ErrMissingMorph}
		}
		out = append(out, Weighted{Target: t, Weight: weights[n]})
	}
	return out, nil
}

// Weighted pairs a target with its blend weight.
type Weighted struct {
	Target *Target
	Weight float64
}

// LoadLibrary walks dirs for .target and .target.gz files.
func LoadLibrary(dirs ...string) (*Library, error) {
	lib := NewLibrary()
	for _, dir := range dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !isTargetFile(d.Name()) {
				return nil
			}
			t, err := LoadTarget(path)
			if err != nil {
				return err
			}
			return lib.Add(t)
		})
		if err != nil {
			return nil, fmt.Errorf("morph: load %s: %w", dir, err)
		}
	}
	return lib, nil
}
