// Package fixture builds small glTF documents that follow the transistor
// asset naming conventions, for tests and the snapshot command's demo mode.
package fixture

import (
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

var cubeIndices = []uint16{
	0, 1, 2, 2, 1, 3, // -z
	4, 6, 5, 5, 6, 7, // +z
	0, 2, 4, 4, 2, 6, // -x
	1, 5, 3, 3, 5, 7, // +x
	0, 4, 1, 1, 4, 5, // -y
	2, 3, 6, 6, 3, 7, // +y
}

type Builder struct {
	doc       *gltf.Document
	positions int
	indices   int
}

func New() *Builder {
	doc := gltf.NewDocument()
	b := &Builder{doc: doc}
	b.positions = modeler.WritePosition(doc, [][3]float32{
		{-1, -1, -1}, {1, -1, -1}, {-1, 1, -1}, {1, 1, -1},
		{-1, -1, 1}, {1, -1, 1}, {-1, 1, 1}, {1, 1, 1},
	})
	b.indices = modeler.WriteIndices(doc, cubeIndices)
	return b
}

func (b *Builder) Doc() *gltf.Document {
	return b.doc
}

// SaveGLB writes the document as a binary glTF file.
func (b *Builder) SaveGLB(path string) error {
	return gltf.SaveBinary(b.doc, path)
}

// Group adds an empty node. parent < 0 attaches it to the scene.
func (b *Builder) Group(name string, parent int, translation [3]float64) int {
	idx := len(b.doc.Nodes)
	b.doc.Nodes = append(b.doc.Nodes, &gltf.Node{
		Name:        name,
		Translation: translation,
		Rotation:    [4]float64{0, 0, 0, 1},
		Scale:       [3]float64{1, 1, 1},
	})
	b.attach(idx, parent)
	return idx
}

// Box adds a unit cube scaled to half extents with its own material.
func (b *Builder) Box(name string, parent int, center, half [3]float64, color [4]float64) int {
	mat := len(b.doc.Materials)
	b.doc.Materials = append(b.doc.Materials, &gltf.Material{
		Name: name + "_Mat",
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &color,
		},
	})
	mesh := len(b.doc.Meshes)
	b.doc.Meshes = append(b.doc.Meshes, &gltf.Mesh{
		Name: name + "_Mesh",
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(b.indices),
			Attributes: map[string]int{gltf.POSITION: b.positions},
			Material:   gltf.Index(mat),
		}},
	})

	idx := len(b.doc.Nodes)
	b.doc.Nodes = append(b.doc.Nodes, &gltf.Node{
		Name:        name,
		Mesh:        gltf.Index(mesh),
		Translation: center,
		Rotation:    [4]float64{0, 0, 0, 1},
		Scale:       half,
	})
	b.attach(idx, parent)
	return idx
}

func (b *Builder) attach(idx, parent int) {
	if parent < 0 {
		sc := b.doc.Scenes[0]
		sc.Nodes = append(sc.Nodes, idx)
		return
	}
	b.doc.Nodes[parent].Children = append(b.doc.Nodes[parent].Children, idx)
}

var (
	grey   = [4]float64{0.55, 0.58, 0.62, 1}
	blue   = [4]float64{0.2, 0.35, 0.8, 1}
	cyan   = [4]float64{0.2, 0.8, 1, 0.6}
	orange = [4]float64{1, 0.7, 0.3, 1}
	gold   = [4]float64{0.85, 0.7, 0.3, 1}
)

// FinFET builds a five-fin device: Fin_n, FinGlow_n, GateOxide_n and
// CurrentArrow_n for n in 1..slots, plus a gate and substrate.
func FinFET(slots int) *Builder {
	b := New()
	root := b.Group("FinFET_Root", -1, [3]float64{})
	b.Box("Substrate", root, [3]float64{0, -1, 0}, [3]float64{8, 0.5, 4}, grey)
	b.Box("Gate", root, [3]float64{0, 2, 0}, [3]float64{7, 0.4, 1}, gold)
	for i := 1; i <= slots; i++ {
		x := float64(i-(slots+1)/2) * 2.5
		b.Box(fmt.Sprintf("Fin_%d", i), root, [3]float64{x, 0.5, 0}, [3]float64{0.4, 1, 3.5}, grey)
		b.Box(fmt.Sprintf("FinGlow_%d", i), root, [3]float64{x, 0.5, 0}, [3]float64{0.45, 1.05, 3.6}, cyan)
		b.Box(fmt.Sprintf("GateOxide_%d", i), root, [3]float64{x, 1, 0}, [3]float64{0.55, 1.1, 1.1}, blue)
		b.Box(fmt.Sprintf("CurrentArrow_%d", i), root, [3]float64{x, 1.8, 2}, [3]float64{0.15, 0.15, 1.2}, cyan)
	}
	return b
}

// Planar builds a planar MOSFET with the named parts and label anchors.
func Planar() *Builder {
	b := New()
	root := b.Group("PlanarMOSFET_Root", -1, [3]float64{})
	b.Box("Si_Substrate", root, [3]float64{0, -2, 0}, [3]float64{10, 1.5, 4}, grey)
	src := b.Box("Source", root, [3]float64{-7, 0, 0}, [3]float64{2, 0.5, 3}, blue)
	drn := b.Box("Drain", root, [3]float64{7, 0, 0}, [3]float64{2, 0.5, 3}, blue)
	b.Box("Channel", root, [3]float64{0, 0, 0}, [3]float64{5, 0.2, 3}, grey)
	b.Box("Gate_Oxide", root, [3]float64{0, 0.4, 0}, [3]float64{4, 0.2, 3}, cyan)
	gate := b.Box("Gate", root, [3]float64{0, 1.2, 0}, [3]float64{4, 0.6, 3}, gold)
	b.Box("Spacer_L", root, [3]float64{-4.5, 1, 0}, [3]float64{0.5, 0.8, 3}, grey)
	b.Box("Spacer_R", root, [3]float64{4.5, 1, 0}, [3]float64{0.5, 0.8, 3}, grey)
	b.Box("CurrentArrow", root, [3]float64{0, 0.1, 3.5}, [3]float64{5, 0.15, 0.15}, cyan)
	b.Box("LeakArrow", root, [3]float64{0, -0.8, 3.5}, [3]float64{5, 0.15, 0.15}, orange)
	b.Box("ILD", root, [3]float64{0, 2.5, 0}, [3]float64{10, 0.3, 4}, cyan)
	b.Group("Anchor_Source", src, [3]float64{0, 2, 0})
	b.Group("Anchor_Drain", drn, [3]float64{0, 2, 0})
	b.Group("Anchor_Gate", gate, [3]float64{0, 1.5, 0})
	return b
}
