package scene

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// Material is the subset of a PBR material the viewers mutate.
// HasEmissive is false for unlit materials; glow then falls back to colour and opacity.
type Material struct {
	Name              string
	Color             mgl32.Vec3
	Emissive          mgl32.Vec3
	EmissiveIntensity float32
	HasEmissive       bool
	Opacity           float32
	Transparent       bool
	DepthWrite        bool
	Visible           bool
}

func NewMaterial(name string) *Material {
	return &Material{
		Name:              name,
		Color:             mgl32.Vec3{1, 1, 1},
		EmissiveIntensity: 1,
		HasEmissive:       true,
		Opacity:           1,
		DepthWrite:        true,
		Visible:           true,
	}
}

func (m *Material) Clone() *Material {
	c := *m
	return &c
}

// MaterialSnapshot records the mutable fields of one material.
type MaterialSnapshot struct {
	Color             mgl32.Vec3
	Emissive          mgl32.Vec3
	EmissiveIntensity float32
	Opacity           float32
	Transparent       bool
	DepthWrite        bool
	Visible           bool
}

func (m *Material) Snapshot() MaterialSnapshot {
	return MaterialSnapshot{
		Color:             m.Color,
		Emissive:          m.Emissive,
		EmissiveIntensity: m.EmissiveIntensity,
		Opacity:           m.Opacity,
		Transparent:       m.Transparent,
		DepthWrite:        m.DepthWrite,
		Visible:           m.Visible,
	}
}

func (m *Material) Restore(s MaterialSnapshot) {
	m.Color = s.Color
	m.Emissive = s.Emissive
	m.EmissiveIntensity = s.EmissiveIntensity
	m.Opacity = s.Opacity
	m.Transparent = s.Transparent
	m.DepthWrite = s.DepthWrite
	m.Visible = s.Visible
}

// SnapshotNode captures every material of n's own mesh, in primitive order.
func SnapshotNode(n *Node) []MaterialSnapshot {
	mats := n.Materials()
	if len(mats) == 0 {
		return nil
	}
	snaps := make([]MaterialSnapshot, len(mats))
	for i, m := range mats {
		snaps[i] = m.Snapshot()
	}
	return snaps
}

// RestoreNode is the inverse of SnapshotNode. Extra materials are left alone.
func RestoreNode(n *Node, snaps []MaterialSnapshot) {
	for i, m := range n.Materials() {
		if i >= len(snaps) {
			return
		}
		m.Restore(snaps[i])
	}
}

// SetGlow drives the emissive channel, or colour plus a derived opacity for unlit materials.
func SetGlow(n *Node, color mgl32.Vec3, intensity float32) {
	for _, m := range n.Materials() {
		if m.HasEmissive {
			m.Emissive = color
			m.EmissiveIntensity = intensity
			continue
		}
		m.Color = color
		m.Transparent = true
		m.Opacity = mgl32.Clamp(intensity/1.5, 0.1, 1)
	}
}

func SetTransparency(n *Node, opacity float32) {
	for _, m := range n.Materials() {
		m.Transparent = true
		m.Opacity = opacity
		m.DepthWrite = false
	}
}

// Hex converts 0xRRGGBB to a linear 0..1 colour triple.
func Hex(v uint32) mgl32.Vec3 {
	return mgl32.Vec3{
		float32((v>>16)&0xff) / 255,
		float32((v>>8)&0xff) / 255,
		float32(v&0xff) / 255,
	}
}

// ParseHex accepts "#rrggbb", "rrggbb" or "0xrrggbb".
func ParseHex(s string) (mgl32.Vec3, error) {
	t := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "#"), "0x")
	if len(t) != 6 {
		return mgl32.Vec3{}, fmt.Errorf("invalid colour %q", s)
	}
	v, err := strconv.ParseUint(t, 16, 32)
	if err != nil {
		return mgl32.Vec3{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return Hex(uint32(v)), nil
}
