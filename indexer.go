package gatelab

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/gekko3d/gatelab/scene"
)

// Group holds the nodes that share one slot index.
type Group struct {
	Index      int
	Structural []*scene.Node
	Effects    []*scene.Node
	Indicators []*scene.Node
}

// SceneIndex classifies the nodes of a loaded model. It is built once per
// load; afterwards only the binder mutates the nodes it references.
type SceneIndex struct {
	Root       *scene.Node
	Groups     map[int]*Group
	Singletons map[string]*scene.Node

	roles      map[*scene.Node]Role
	glows      map[*scene.Node]*glowValue
	original   map[*scene.Node]bool
	materials  map[*scene.Node][]scene.MaterialSnapshot
	transforms map[*scene.Node]scene.Transform
	order      []*scene.Node
}

// Index walks root once. The first matching rule decides a node's role;
// unnamed and unmatched nodes are skipped. Every visited node has its
// visibility recorded, and every classified node gets private materials
// with a snapshot taken before any state is applied.
func Index(root *scene.Node, rules []compiledRule) *SceneIndex {
	ix := &SceneIndex{
		Root:       root,
		Groups:     make(map[int]*Group),
		Singletons: make(map[string]*scene.Node),
		roles:      make(map[*scene.Node]Role),
		glows:      make(map[*scene.Node]*glowValue),
		original:   make(map[*scene.Node]bool),
		materials:  make(map[*scene.Node][]scene.MaterialSnapshot),
		transforms: make(map[*scene.Node]scene.Transform),
	}
	root.Traverse(func(n *scene.Node) {
		ix.original[n] = n.Visible
		if n.Name == "" {
			return
		}
		for _, r := range rules {
			if ix.classify(n, r) {
				return
			}
		}
	})
	return ix
}

func (ix *SceneIndex) classify(n *scene.Node, r compiledRule) bool {
	m := r.re.FindStringSubmatch(n.Name)
	if m == nil {
		return false
	}
	if r.role == RoleSingleton {
		if _, dup := ix.Singletons[n.Name]; dup {
			return true
		}
		ix.Singletons[n.Name] = n
		ix.track(n, r)
		return true
	}

	idx, err := strconv.Atoi(m[1])
	if err != nil {
		return false
	}
	g := ix.Groups[idx]
	if g == nil {
		g = &Group{Index: idx}
		ix.Groups[idx] = g
	}
	switch r.role {
	case RoleStructural:
		g.Structural = append(g.Structural, n)
	case RoleEffect:
		g.Effects = append(g.Effects, n)
	case RoleIndicator:
		g.Indicators = append(g.Indicators, n)
	}
	ix.track(n, r)
	return true
}

func (ix *SceneIndex) track(n *scene.Node, r compiledRule) {
	ix.roles[n] = r.role
	if r.glow != nil {
		ix.glows[n] = r.glow
	}
	n.CloneMaterials()
	ix.materials[n] = scene.SnapshotNode(n)
	ix.transforms[n] = n.Transform
	ix.order = append(ix.order, n)
}

// RoleOf reports the role assigned to n.
func (ix *SceneIndex) RoleOf(n *scene.Node) (Role, bool) {
	r, ok := ix.roles[n]
	return r, ok
}

// Classified lists classified nodes in traversal order.
func (ix *SceneIndex) Classified() []*scene.Node {
	return slices.Clone(ix.order)
}

// OriginalVisibility returns the visibility n had when the index was built.
func (ix *SceneIndex) OriginalVisibility(n *scene.Node) (visible, ok bool) {
	visible, ok = ix.original[n]
	return visible, ok
}

// Visited reports how many nodes the walk visited.
func (ix *SceneIndex) Visited() int {
	return len(ix.original)
}

// RestoreVisibility puts every visited node back to its recorded visibility.
func (ix *SceneIndex) RestoreVisibility() {
	for n, v := range ix.original {
		n.Visible = v
	}
}

func (ix *SceneIndex) restoreMaterials(n *scene.Node) {
	if snaps, ok := ix.materials[n]; ok {
		scene.RestoreNode(n, snaps)
	}
}

func (ix *SceneIndex) baseTransform(n *scene.Node) scene.Transform {
	if t, ok := ix.transforms[n]; ok {
		return t
	}
	return n.Transform
}

// GroupIndices lists group indices in ascending order.
func (ix *SceneIndex) GroupIndices() []int {
	return slices.Sorted(maps.Keys(ix.Groups))
}

// Check reports the roles and names p expects but the model lacks.
func (ix *SceneIndex) Check(p *Profile) error {
	var missing []string
	if p.Slots > 0 {
		structural := 0
		for _, g := range ix.Groups {
			structural += len(g.Structural)
		}
		if structural == 0 {
			missing = append(missing, "structural nodes")
		}
	}
	for _, name := range p.Required {
		if ix.Singletons[name] == nil {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: missing %s", ErrSceneMismatch, strings.Join(missing, ", "))
}
