package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

func NewTransform() Transform {
	return Transform{
		Position: mgl32.Vec3{0, 0, 0},
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// Matrix composes M = T * R * S.
func (t Transform) Matrix() mgl32.Mat4 {
	translate := mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z())
	rotate := t.Rotation.Normalize().Mat4()
	scale := mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z())

	return translate.Mul4(rotate).Mul4(scale)
}

// TransformFromMatrix decomposes an affine matrix without shear.
func TransformFromMatrix(m mgl32.Mat4) Transform {
	sx := m.Col(0).Vec3().Len()
	sy := m.Col(1).Vec3().Len()
	sz := m.Col(2).Vec3().Len()
	if m.Det() < 0 {
		sx = -sx
	}

	var rot mgl32.Mat4
	if sx != 0 && sy != 0 && sz != 0 {
		rot = mgl32.Mat4FromCols(
			m.Col(0).Mul(1/sx),
			m.Col(1).Mul(1/sy),
			m.Col(2).Mul(1/sz),
			mgl32.Vec4{0, 0, 0, 1},
		)
	} else {
		rot = mgl32.Ident4()
	}

	return Transform{
		Position: m.Col(3).Vec3(),
		Rotation: mgl32.Mat4ToQuat(rot).Normalize(),
		Scale:    mgl32.Vec3{sx, sy, sz},
	}
}

// Axis selects one component of a vector.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func ParseAxis(s string) (Axis, bool) {
	switch s {
	case "x", "X":
		return AxisX, true
	case "y", "Y":
		return AxisY, true
	case "z", "Z":
		return AxisZ, true
	}
	return AxisX, false
}

func (a Axis) String() string {
	return [...]string{"x", "y", "z"}[a]
}
