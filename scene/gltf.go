package scene

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

var ErrNoScene = errors.New("gltf: document has no scene")

// Open reads a .gltf or .glb file from disk, following external buffers.
func Open(path string) (*Node, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return Import(doc)
}

// Decode reads a self-contained document (GLB or embedded buffers) from r.
func Decode(r io.Reader) (*Node, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(r).Decode(doc); err != nil {
		return nil, fmt.Errorf("decode gltf: %w", err)
	}
	return Import(doc)
}

// Import converts a glTF document into a scene graph rooted at a node named
// after the active scene. Materials are shared between primitives that
// reference the same glTF material.
func Import(doc *gltf.Document) (*Node, error) {
	if len(doc.Scenes) == 0 {
		return nil, ErrNoScene
	}
	sceneIdx := 0
	if doc.Scene != nil {
		sceneIdx = *doc.Scene
	}
	if sceneIdx < 0 || sceneIdx >= len(doc.Scenes) {
		return nil, fmt.Errorf("gltf: scene index %d out of range", sceneIdx)
	}

	imp := importer{
		doc:       doc,
		materials: make(map[int]*Material),
		meshes:    make(map[int]*Mesh),
		visiting:  make(map[int]bool),
	}

	src := doc.Scenes[sceneIdx]
	root := NewNode(src.Name)
	for _, idx := range src.Nodes {
		child, err := imp.node(idx)
		if err != nil {
			return nil, err
		}
		root.Add(child)
	}
	return root, nil
}

type importer struct {
	doc       *gltf.Document
	materials map[int]*Material
	meshes    map[int]*Mesh
	visiting  map[int]bool
	fallback  *Material
}

func (imp *importer) node(idx int) (*Node, error) {
	if idx < 0 || idx >= len(imp.doc.Nodes) {
		return nil, fmt.Errorf("gltf: node index %d out of range", idx)
	}
	if imp.visiting[idx] {
		return nil, fmt.Errorf("gltf: node %d is its own ancestor", idx)
	}
	imp.visiting[idx] = true
	defer delete(imp.visiting, idx)

	src := imp.doc.Nodes[idx]
	n := NewNode(src.Name)
	n.Transform = nodeTransform(src)

	if src.Mesh != nil {
		mesh, err := imp.mesh(*src.Mesh)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", src.Name, err)
		}
		n.Mesh = mesh
	}

	for _, c := range src.Children {
		child, err := imp.node(c)
		if err != nil {
			return nil, err
		}
		n.Add(child)
	}
	return n, nil
}

func nodeTransform(src *gltf.Node) Transform {
	var zero16 [16]float64
	if src.Matrix != zero16 && src.Matrix != gltf.DefaultMatrix {
		var m mgl32.Mat4
		for i, v := range src.Matrix {
			m[i] = float32(v)
		}
		return TransformFromMatrix(m)
	}

	tr := NewTransform()
	tr.Position = mgl32.Vec3{float32(src.Translation[0]), float32(src.Translation[1]), float32(src.Translation[2])}
	if src.Rotation != [4]float64{} {
		tr.Rotation = mgl32.Quat{
			W: float32(src.Rotation[3]),
			V: mgl32.Vec3{float32(src.Rotation[0]), float32(src.Rotation[1]), float32(src.Rotation[2])},
		}
	}
	if src.Scale != [3]float64{} {
		tr.Scale = mgl32.Vec3{float32(src.Scale[0]), float32(src.Scale[1]), float32(src.Scale[2])}
	}
	return tr
}

func (imp *importer) mesh(idx int) (*Mesh, error) {
	if m, ok := imp.meshes[idx]; ok {
		return m, nil
	}
	if idx < 0 || idx >= len(imp.doc.Meshes) {
		return nil, fmt.Errorf("gltf: mesh index %d out of range", idx)
	}
	src := imp.doc.Meshes[idx]
	mesh := &Mesh{Name: src.Name}
	for _, prim := range src.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			continue
		}
		p, err := imp.primitive(prim)
		if err != nil {
			return nil, fmt.Errorf("mesh %q: %w", src.Name, err)
		}
		mesh.Primitives = append(mesh.Primitives, p)
	}
	imp.meshes[idx] = mesh
	return mesh, nil
}

func (imp *importer) primitive(prim *gltf.Primitive) (*Primitive, error) {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, errors.New("primitive has no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(imp.doc, imp.doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}

	p := &Primitive{Positions: make([]mgl32.Vec3, len(positions))}
	for i, v := range positions {
		p.Positions[i] = mgl32.Vec3(v)
	}

	if normalIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
		normals, err := modeler.ReadNormal(imp.doc, imp.doc.Accessors[normalIdx], nil)
		if err == nil {
			p.Normals = make([]mgl32.Vec3, len(normals))
			for i, v := range normals {
				p.Normals[i] = mgl32.Vec3(v)
			}
		}
	}

	if prim.Indices != nil {
		indices, err := modeler.ReadIndices(imp.doc, imp.doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, fmt.Errorf("read indices: %w", err)
		}
		p.Indices = indices
	}

	if prim.Material != nil {
		p.Material = imp.material(*prim.Material)
	} else {
		if imp.fallback == nil {
			imp.fallback = NewMaterial("")
		}
		p.Material = imp.fallback
	}
	return p, nil
}

func (imp *importer) material(idx int) *Material {
	if m, ok := imp.materials[idx]; ok {
		return m
	}
	m := NewMaterial("")
	if idx >= 0 && idx < len(imp.doc.Materials) {
		src := imp.doc.Materials[idx]
		m.Name = src.Name
		if src.PBRMetallicRoughness != nil && src.PBRMetallicRoughness.BaseColorFactor != nil {
			f := src.PBRMetallicRoughness.BaseColorFactor
			m.Color = mgl32.Vec3{float32(f[0]), float32(f[1]), float32(f[2])}
			m.Opacity = float32(f[3])
		}
		m.Emissive = mgl32.Vec3{float32(src.EmissiveFactor[0]), float32(src.EmissiveFactor[1]), float32(src.EmissiveFactor[2])}
		if src.AlphaMode == gltf.AlphaBlend {
			m.Transparent = true
		}
	}
	imp.materials[idx] = m
	return m
}
