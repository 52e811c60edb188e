// Package errs defines the error taxonomy shared by the mesh pipeline.
package errs

import (
	"errors"
	"fmt"
)

// Sentinels matched with errors.Is.
var (
	ErrDuplicateVertex = errors.New("render vertex claimed by more than one canonical vertex")
	ErrUnmatchedVertex = errors.New("render vertex has no canonical match")
	ErrUnknownStrategy = errors.New("unknown placement strategy")
	ErrMissingMorph    = errors.New("morph not in library")
	ErrMissingWeights  = errors.New("weight table not found")
	ErrMissingAsset    = errors.New("asset not in registry")
	ErrMissingRig      = errors.New("rig not loaded")
	ErrRigTopology     = errors.New("invalid bone hierarchy")
)

// ParseError reports a malformed line in a text input.
type ParseError struct {
	File string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

// CorrespondenceError reports a render vertex that breaks the one-to-one inverse map.
// Kind is ErrDuplicateVertex or ErrUnmatchedVertex.
type CorrespondenceError struct {
	Kind   error
	Vertex int
}

func (e *CorrespondenceError) Error() string {
	return fmt.Sprintf("render vertex %d: %v", e.Vertex, e.Kind)
}

func (e *CorrespondenceError) Unwrap() error { return e.Kind }

// ConfigError reports rig, morph or asset configuration that cannot be honored.
type ConfigError struct {
	Subject string // "bone", "morph", "rig", ...
	Name    string
	Err     error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Subject, e.Name, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// DataConsistencyError reports authoring data that violates a mesh invariant,
// e.g. a vertex whose skin weights sum to zero.
type DataConsistencyError struct {
	Subject string
	Vertex  int
	Msg     string
}

func (e *DataConsistencyError) Error() string {
	return fmt.Sprintf("%s vertex %d: %s", e.Subject, e.Vertex, e.Msg)
}

// Duplicate returns a CorrespondenceError for a doubly-claimed render vertex.
func Duplicate(vertex int) error {
	return &CorrespondenceError{Kind: ErrDuplicateVertex, Vertex: vertex}
}

// Unmatched returns a CorrespondenceError for an unclaimed render vertex.
func Unmatched(vertex int) error {
	return &CorrespondenceError{Kind: ErrUnmatchedVertex, Vertex: vertex}
}
