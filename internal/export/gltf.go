// Package export writes skinned avatars as binary glTF.
package export

import (
	"fmt"
	"io"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"humanforge/internal/mesh"
	"humanforge/internal/skeleton"
	"humanforge/internal/skin"
)

// Part is one skinned mesh bound to the model's skeleton.
type Part struct {
	Name string
	Mesh *mesh.Mesh
	Skin *skin.Buffers
}

// Model is a skeleton and the meshes it drives.
type Model struct {
	Name     string
	Skeleton *skeleton.Skeleton
	Parts    []Part
}

// Document builds a glTF document for m. Joint i of the skeleton becomes
// node i; mesh nodes follow and share a single skin.
func Document(m Model) (*gltf.Document, error) {
	if m.Skeleton == nil || m.Skeleton.Len() == 0 {
		return nil, fmt.Errorf("export: %s: empty skeleton", m.Name)
	}
	doc := gltf.NewDocument()
	doc.Asset.Generator = "humanforge"

	bones := m.Skeleton.Bones
	for _, b := range bones {
		doc.Nodes = append(doc.Nodes, &gltf.Node{Name: b.Name, Matrix: [16]float64(b.Local)})
	}
	joints := make([]int, len(bones))
	for i, b := range bones {
		joints[i] = i
		if b.Parent >= 0 {
			parent := doc.Nodes[b.Parent]
			parent.Children = append(parent.Children, i)
		}
	}

	ibm := inverseBinds(m.Skeleton.InverseBindMatrices())
	doc.Skins = []*gltf.Skin{{
		Name:                m.Name,
		Joints:              joints,
		Skeleton:            gltf.Index(0),
		InverseBindMatrices: gltf.Index(modeler.WriteAccessor(doc, gltf.TargetNone, ibm)),
	}}
	doc.Scenes[0].Name = m.Name
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)

	for _, p := range m.Parts {
		if err := checkPart(p, len(bones)); err != nil {
			return nil, fmt.Errorf("export: %s: %w", m.Name, err)
		}
		doc.Meshes = append(doc.Meshes, &gltf.Mesh{
			Name:       p.Name,
			Primitives: []*gltf.Primitive{primitive(doc, p)},
		})
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name: p.Name,
			Mesh: gltf.Index(len(doc.Meshes) - 1),
			Skin: gltf.Index(0),
		})
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, len(doc.Nodes)-1)
	}
	return doc, nil
}

func checkPart(p Part, jointCount int) error {
	if err := p.Mesh.Validate(); err != nil {
		return fmt.Errorf("part %s: %w", p.Name, err)
	}
	if p.Skin == nil || p.Skin.Len() != p.Mesh.VertexCount() {
		return fmt.Errorf("part %s: skin does not cover %d vertices", p.Name, p.Mesh.VertexCount())
	}
	for v, q := range p.Skin.Joints {
		for _, j := range q {
			if int(j) >= jointCount {
				return fmt.Errorf("part %s: vertex %d references joint %d of %d", p.Name, v, j, jointCount)
			}
		}
	}
	return nil
}

func primitive(doc *gltf.Document, p Part) *gltf.Primitive {
	m := p.Mesh
	positions := make([][3]float32, len(m.Positions))
	for i, v := range m.Positions {
		positions[i] = v.F32()
	}
	attrs := map[string]int{
		gltf.POSITION:  modeler.WritePosition(doc, positions),
		gltf.JOINTS_0:  modeler.WriteJoints(doc, p.Skin.Joints),
		gltf.WEIGHTS_0: modeler.WriteWeights(doc, p.Skin.Weights),
	}
	if len(m.Normals) > 0 {
		normals := make([][3]float32, len(m.Normals))
		for i, n := range m.Normals {
			normals[i] = n.F32()
		}
		attrs[gltf.NORMAL] = modeler.WriteNormal(doc, normals)
	}
	if m.HasUVs() {
		// glTF puts the texture origin top left.
		uvs := make([][2]float32, len(m.UVs))
		for i, uv := range m.UVs {
			uvs[i] = [2]float32{uv[0], 1 - uv[1]}
		}
		attrs[gltf.TEXCOORD_0] = modeler.WriteTextureCoord(doc, uvs)
	}
	if len(m.Tangents) > 0 {
		attrs[gltf.TANGENT] = modeler.WriteTangent(doc, m.Tangents)
	}
	return &gltf.Primitive{
		Attributes: attrs,
		Indices:    gltf.Index(modeler.WriteIndices(doc, m.Indices)),
	}
}

// inverseBinds converts column-major matrices to MAT4 accessor data, one
// column per inner array.
func inverseBinds(ms []mgl64.Mat4) [][4][4]float32 {
	out := make([][4][4]float32, len(ms))
	for i, m := range ms {
		for c := 0; c < 4; c++ {
			for r := 0; r < 4; r++ {
				out[i][c][r] = float32(m[c*4+r])
			}
		}
	}
	return out
}

// WriteGLB saves m as a binary glTF file.
func WriteGLB(path string, m Model) error {
	doc, err := Document(m)
	if err != nil {
		return err
	}
	if err := gltf.SaveBinary(doc, path); err != nil {
		return fmt.Errorf("export: save %s: %w", path, err)
	}
	return nil
}

// Encode writes m as binary glTF to w.
func Encode(w io.Writer, m Model) error {
	doc, err := Document(m)
	if err != nil {
		return err
	}
	enc := gltf.NewEncoder(w)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("export: encode %s: %w", m.Name, err)
	}
	return nil
}
